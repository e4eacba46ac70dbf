package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/baonguyen-kobe/eiumed-equipment-sub000/app"
	"github.com/baonguyen-kobe/eiumed-equipment-sub000/db"
	"github.com/baonguyen-kobe/eiumed-equipment-sub000/models"
)

type DeviceController struct{ repo *db.Repo }

func NewDeviceController(repo *db.Repo) *DeviceController { return &DeviceController{repo: repo} }

// POST /api/devices
func (dc *DeviceController) CreateDevice(c *app.Ctx) {
	var in struct {
		Code       string `json:"code" binding:"required"`
		Name       string `json:"name" binding:"required"`
		CategoryID *uint  `json:"categoryId"`
		Location   string `json:"location"`
		Note       string `json:"note"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	d := &models.Device{
		ID:         uuid.NewString(),
		Code:       in.Code,
		Name:       in.Name,
		CategoryID: in.CategoryID,
		Status:     models.DeviceAvailable,
		Location:   in.Location,
		Note:       in.Note,
	}
	if err := dc.repo.CreateDevice(c.Request.Context(), d); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, app.H{"error": "device code already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, d)
}

// GET /api/devices?q=&status=&borrowable=1&categoryId=&page=&size=
func (dc *DeviceController) ListDevices(c *app.Ctx) {
	q := db.ListDevicesQuery{
		Q:          c.Query("q"),
		Status:     models.DeviceStatus(c.Query("status")),
		Borrowable: c.Query("borrowable") == "1",
	}
	if v, err := strconv.Atoi(c.Query("categoryId")); err == nil {
		q.CategoryID = uint(v)
	}
	q.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	q.Size, _ = strconv.Atoi(c.DefaultQuery("size", "20"))

	res, err := dc.repo.ListDevices(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"total": res.Total, "devices": res.Devices})
}

// GET /api/devices/:id
func (dc *DeviceController) GetDevice(c *app.Ctx) {
	d, err := dc.repo.FindDeviceByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeBorrowError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// PUT /api/devices/:id
func (dc *DeviceController) UpdateDevice(c *app.Ctx) {
	d, err := dc.repo.FindDeviceByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeBorrowError(c, err)
		return
	}
	var in struct {
		Name       *string              `json:"name"`
		CategoryID *uint                `json:"categoryId"`
		Status     *models.DeviceStatus `json:"status"`
		Location   *string              `json:"location"`
		Note       *string              `json:"note"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	if in.Name != nil {
		d.Name = *in.Name
	}
	if in.CategoryID != nil {
		d.CategoryID = in.CategoryID
	}
	if in.Status != nil {
		d.Status = *in.Status
	}
	if in.Location != nil {
		d.Location = *in.Location
	}
	if in.Note != nil {
		d.Note = *in.Note
	}
	if err := dc.repo.UpdateDevice(c.Request.Context(), d); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, d)
}

// DELETE /api/devices/:id — retires, never hard-deletes, to keep handover
// history intact.
func (dc *DeviceController) RetireDevice(c *app.Ctx) {
	if err := dc.repo.RetireDevice(c.Request.Context(), c.Param("id")); err != nil {
		writeBorrowError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// GET /api/device-categories
func (dc *DeviceController) ListCategories(c *app.Ctx) {
	cs, err := dc.repo.ListCategories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"categories": cs})
}

// POST /api/device-categories
func (dc *DeviceController) CreateCategory(c *app.Ctx) {
	var in struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	cat := &models.DeviceCategory{Name: in.Name}
	if err := dc.repo.CreateCategory(c.Request.Context(), cat); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, cat)
}
