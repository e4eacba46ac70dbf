package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/baonguyen-kobe/eiumed-equipment-sub000/app"
	"github.com/baonguyen-kobe/eiumed-equipment-sub000/borrow"
	"github.com/baonguyen-kobe/eiumed-equipment-sub000/models"
)

type BorrowRequestController struct{ *Srv }

func NewBorrowRequestController(s *Srv) *BorrowRequestController {
	return &BorrowRequestController{Srv: s}
}

const dateLayout = "2006-01-02"

// POST /api/borrow-requests
func (bc *BorrowRequestController) Create(c *app.Ctx) {
	var in struct {
		Date      string   `json:"date" binding:"required"` // "2026-09-14"
		TimeSlot  string   `json:"timeSlotId" binding:"required"`
		Room      string   `json:"room"`
		Purpose   string   `json:"purpose"`
		Note      string   `json:"note"`
		DeviceIDs []string `json:"deviceIds" binding:"required"`
		Draft     bool     `json:"draft"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	date, err := time.Parse(dateLayout, in.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	req, err := bc.Borrow.Submit(c.Request.Context(), borrow.SubmitInput{
		RequesterID: currentUserID(c),
		Date:        date,
		TimeSlotID:  in.TimeSlot,
		Room:        in.Room,
		Purpose:     in.Purpose,
		Note:        in.Note,
		DeviceIDs:   in.DeviceIDs,
		Draft:       in.Draft,
	})
	if err != nil {
		writeBorrowError(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

// GET /api/borrow-requests?status=&date=&requesterId=&page=&size=
func (bc *BorrowRequestController) List(c *app.Ctx) {
	f := borrow.RequestFilter{
		Status:      models.BorrowRequestStatus(c.Query("status")),
		RequesterID: c.Query("requesterId"),
	}
	if v := c.Query("date"); v != "" {
		d, err := time.Parse(dateLayout, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, app.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		f.Date = &d
	}
	f.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	f.Size, _ = strconv.Atoi(c.DefaultQuery("size", "20"))
	// Lecturers only see their own requests.
	if !app.IsManager(c) {
		f.RequesterID = currentUserID(c)
	}

	reqs, err := bc.Borrow.List(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"requests": reqs})
}

// GET /api/borrow-requests/:id
func (bc *BorrowRequestController) Get(c *app.Ctx) {
	req, err := bc.Borrow.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeBorrowError(c, err)
		return
	}
	if !app.IsManager(c) && req.RequesterID != currentUserID(c) {
		c.JSON(http.StatusForbidden, app.H{"error": "forbidden"})
		return
	}
	rs, err := bc.Borrow.Reservations(c.Request.Context(), req.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"request": req, "reservations": rs})
}

// POST /api/borrow-requests/:id/submit
func (bc *BorrowRequestController) SubmitDraft(c *app.Ctx) {
	req, err := bc.Borrow.SubmitDraft(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		writeBorrowError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// POST /api/borrow-requests/:id/approve
func (bc *BorrowRequestController) Approve(c *app.Ctx) {
	var in struct {
		Note string `json:"note"`
	}
	_ = c.ShouldBindJSON(&in)

	res, err := bc.Borrow.Approve(c.Request.Context(), c.Param("id"), currentUserID(c), in.Note)
	if err != nil {
		writeBorrowError(c, err)
		return
	}
	if !res.Approved {
		c.JSON(http.StatusConflict, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/borrow-requests/:id/reject
func (bc *BorrowRequestController) Reject(c *app.Ctx) {
	var in struct {
		Note string `json:"note" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "rejection reason required"})
		return
	}
	if err := bc.Borrow.Reject(c.Request.Context(), c.Param("id"), currentUserID(c), in.Note); err != nil {
		writeBorrowError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true})
}

// POST /api/borrow-requests/:id/cancel
func (bc *BorrowRequestController) Cancel(c *app.Ctx) {
	err := bc.Borrow.Cancel(c.Request.Context(), c.Param("id"), currentUserID(c), app.IsManager(c))
	if err != nil {
		writeBorrowError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true})
}

// POST /api/borrow-requests/check-conflicts
// Pre-check for the request form; approval re-checks atomically on its own.
func (bc *BorrowRequestController) CheckConflicts(c *app.Ctx) {
	var in struct {
		DeviceIDs        []string `json:"deviceIds" binding:"required"`
		Date             string   `json:"date" binding:"required"`
		TimeSlotID       string   `json:"timeSlotId" binding:"required"`
		ExcludeRequestID string   `json:"excludeRequestId"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	date, err := time.Parse(dateLayout, in.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	conflicts, err := bc.Borrow.CheckConflicts(c.Request.Context(), in.DeviceIDs, date, in.TimeSlotID, in.ExcludeRequestID)
	if err != nil {
		writeBorrowError(c, err)
		return
	}
	if conflicts == nil {
		conflicts = []borrow.Conflict{}
	}
	c.JSON(http.StatusOK, app.H{"conflicts": conflicts})
}
