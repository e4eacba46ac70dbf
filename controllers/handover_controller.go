package controllers

import (
	"net/http"

	"github.com/baonguyen-kobe/eiumed-equipment-sub000/app"
	"github.com/baonguyen-kobe/eiumed-equipment-sub000/borrow"
)

type HandoverController struct{ *Srv }

func NewHandoverController(s *Srv) *HandoverController { return &HandoverController{Srv: s} }

type handoverBody struct {
	Items []borrow.HandoverItemInput `json:"items" binding:"required"`
	Note  string                     `json:"note"`
}

// POST /api/borrow-requests/:id/issue
func (hc *HandoverController) Issue(c *app.Ctx) {
	var in handoverBody
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	res, err := hc.Borrow.Issue(c.Request.Context(), c.Param("id"), currentUserID(c), in.Items, in.Note)
	if err != nil {
		writeBorrowError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app.H{"success": true, "handoverId": res.HandoverID})
}

// POST /api/borrow-requests/:id/return
func (hc *HandoverController) Return(c *app.Ctx) {
	var in handoverBody
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	res, err := hc.Borrow.Return(c.Request.Context(), c.Param("id"), currentUserID(c), in.Items, in.Note)
	if err != nil {
		writeBorrowError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app.H{"success": true, "handoverId": res.HandoverID})
}

// GET /api/borrow-requests/:id/handovers
func (hc *HandoverController) ListForRequest(c *app.Ctx) {
	hs, err := hc.Borrow.Handovers(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeBorrowError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"handovers": hs})
}
