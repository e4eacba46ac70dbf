package db

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/baonguyen-kobe/eiumed-equipment-sub000/borrow"
	"github.com/baonguyen-kobe/eiumed-equipment-sub000/models"
)

// Devices

func (r *Repo) CreateDevice(ctx context.Context, d *models.Device) error {
	return r.DB.WithContext(ctx).Create(d).Error
}

func (r *Repo) FindDeviceByID(ctx context.Context, id string) (*models.Device, error) {
	var d models.Device
	if err := r.DB.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, borrow.ErrDeviceNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *Repo) FindDevicesByIDs(ctx context.Context, ids []string) ([]models.Device, error) {
	var ds []models.Device
	if len(ids) == 0 {
		return ds, nil
	}
	err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&ds).Error
	return ds, err
}

type ListDevicesQuery struct {
	Q          string
	Status     models.DeviceStatus
	Borrowable bool // only AVAILABLE / IN_USE
	CategoryID uint
	Page       int
	Size       int
}

type ListDevicesResult struct {
	Devices []models.Device `json:"devices"`
	Total   int64           `json:"total"`
}

func (r *Repo) ListDevices(ctx context.Context, q ListDevicesQuery) (ListDevicesResult, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Size <= 0 || q.Size > 100 {
		q.Size = 20
	}

	tx := r.DB.WithContext(ctx).Model(&models.Device{})
	if s := strings.TrimSpace(q.Q); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		tx = tx.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", like, like)
	}
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	if q.Borrowable {
		tx = tx.Where("status IN ?", []models.DeviceStatus{models.DeviceAvailable, models.DeviceInUse})
	}
	if q.CategoryID != 0 {
		tx = tx.Where("category_id = ?", q.CategoryID)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return ListDevicesResult{}, err
	}
	var ds []models.Device
	if err := tx.
		Order("code ASC").
		Offset((q.Page - 1) * q.Size).
		Limit(q.Size).
		Find(&ds).Error; err != nil {
		return ListDevicesResult{}, err
	}
	return ListDevicesResult{Devices: ds, Total: total}, nil
}

func (r *Repo) UpdateDevice(ctx context.Context, d *models.Device) error {
	return r.DB.WithContext(ctx).Save(d).Error
}

func (r *Repo) UpdateDeviceStatus(ctx context.Context, deviceID string, status models.DeviceStatus) error {
	res := r.DB.WithContext(ctx).Model(&models.Device{}).
		Where("id = ?", deviceID).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return borrow.ErrDeviceNotFound
	}
	return nil
}

// RetireDevice takes a device out of circulation instead of deleting its
// history.
func (r *Repo) RetireDevice(ctx context.Context, deviceID string) error {
	return r.UpdateDeviceStatus(ctx, deviceID, models.DeviceRetired)
}

func (r *Repo) ListCategories(ctx context.Context) ([]models.DeviceCategory, error) {
	var cs []models.DeviceCategory
	err := r.DB.WithContext(ctx).Order("name ASC").Find(&cs).Error
	return cs, err
}

func (r *Repo) CreateCategory(ctx context.Context, c *models.DeviceCategory) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

// Time slots

func (r *Repo) FindTimeSlotByID(ctx context.Context, id string) (*models.TimeSlot, error) {
	var ts models.TimeSlot
	if err := r.DB.WithContext(ctx).First(&ts, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, borrow.ErrTimeSlotNotFound
		}
		return nil, err
	}
	return &ts, nil
}

func (r *Repo) ListTimeSlots(ctx context.Context) ([]models.TimeSlot, error) {
	var ts []models.TimeSlot
	err := r.DB.WithContext(ctx).Order("sort_order ASC").Find(&ts).Error
	return ts, err
}

func (r *Repo) CreateTimeSlot(ctx context.Context, ts *models.TimeSlot) error {
	return r.DB.WithContext(ctx).Create(ts).Error
}

// Maintenance

func (r *Repo) CreateMaintenanceLog(ctx context.Context, m *models.MaintenanceLog) error {
	return r.DB.WithContext(ctx).Create(m).Error
}

func (r *Repo) ListMaintenanceLogs(ctx context.Context, openOnly bool) ([]models.MaintenanceLog, error) {
	tx := r.DB.WithContext(ctx).Model(&models.MaintenanceLog{}).Order("created_at DESC")
	if openOnly {
		tx = tx.Where("completed_at IS NULL")
	}
	var ms []models.MaintenanceLog
	err := tx.Find(&ms).Error
	return ms, err
}

var ErrMaintenanceClosed = errors.New("maintenance log already completed")

// CompleteMaintenance closes the log and, if the device is still under
// maintenance, returns it to AVAILABLE. One transaction.
func (r *Repo) CompleteMaintenance(ctx context.Context, id, completedBy, note string) (*models.MaintenanceLog, error) {
	var m models.MaintenanceLog
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&m, "id = ?", id).Error; err != nil {
			return err
		}
		if m.CompletedAt != nil {
			return ErrMaintenanceClosed
		}
		now := time.Now().UTC()
		m.CompletedAt = &now
		m.CompletedBy = &completedBy
		if note != "" {
			m.Note = note
		}
		if err := tx.Save(&m).Error; err != nil {
			return err
		}
		return tx.Model(&models.Device{}).
			Where("id = ? AND status = ?", m.DeviceID, models.DeviceUnderMaintenance).
			Update("status", models.DeviceAvailable).Error
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}
