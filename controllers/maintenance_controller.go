package controllers

import (
	"errors"
	"net/http"

	"github.com/baonguyen-kobe/eiumed-equipment-sub000/app"
	"github.com/baonguyen-kobe/eiumed-equipment-sub000/db"
)

type MaintenanceController struct{ repo *db.Repo }

func NewMaintenanceController(repo *db.Repo) *MaintenanceController {
	return &MaintenanceController{repo: repo}
}

// GET /api/maintenance?open=1
func (mc *MaintenanceController) List(c *app.Ctx) {
	ms, err := mc.repo.ListMaintenanceLogs(c.Request.Context(), c.Query("open") == "1")
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"maintenance": ms})
}

// POST /api/maintenance/:id/complete
func (mc *MaintenanceController) Complete(c *app.Ctx) {
	var in struct {
		Note string `json:"note"`
	}
	_ = c.ShouldBindJSON(&in)

	m, err := mc.repo.CompleteMaintenance(c.Request.Context(), c.Param("id"), currentUserID(c), in.Note)
	if err != nil {
		if errors.Is(err, db.ErrMaintenanceClosed) {
			c.JSON(http.StatusConflict, app.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, m)
}
