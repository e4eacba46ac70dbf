package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/baonguyen-kobe/eiumed-equipment-sub000/app"
	"github.com/baonguyen-kobe/eiumed-equipment-sub000/db"
	"github.com/baonguyen-kobe/eiumed-equipment-sub000/models"
)

type TimeSlotController struct{ repo *db.Repo }

func NewTimeSlotController(repo *db.Repo) *TimeSlotController {
	return &TimeSlotController{repo: repo}
}

// GET /api/time-slots
func (tc *TimeSlotController) ListTimeSlots(c *app.Ctx) {
	ts, err := tc.repo.ListTimeSlots(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"timeSlots": ts})
}

// POST /api/time-slots
func (tc *TimeSlotController) CreateTimeSlot(c *app.Ctx) {
	var in struct {
		Label     string `json:"label" binding:"required"`
		StartsAt  string `json:"startsAt" binding:"required"`
		EndsAt    string `json:"endsAt" binding:"required"`
		SortOrder int    `json:"sortOrder"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	ts := &models.TimeSlot{
		ID:        uuid.NewString(),
		Label:     in.Label,
		StartsAt:  in.StartsAt,
		EndsAt:    in.EndsAt,
		SortOrder: in.SortOrder,
	}
	if err := tc.repo.CreateTimeSlot(c.Request.Context(), ts); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, ts)
}
