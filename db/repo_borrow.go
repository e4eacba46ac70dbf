package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/baonguyen-kobe/eiumed-equipment-sub000/borrow"
	"github.com/baonguyen-kobe/eiumed-equipment-sub000/models"
)

// Repo implements borrow.Store. Atomically hands the callback a Repo bound
// to the transaction, so every store call inside commits or rolls back as
// one unit.
func (r *Repo) Atomically(ctx context.Context, fn func(tx borrow.Store) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repo{DB: tx})
	})
}

// Borrow requests

func (r *Repo) CreateRequest(ctx context.Context, req *models.BorrowRequest) error {
	return r.DB.WithContext(ctx).Create(req).Error
}

func (r *Repo) FindRequestByID(ctx context.Context, id string) (*models.BorrowRequest, error) {
	var req models.BorrowRequest
	err := r.DB.WithContext(ctx).Preload("Items").First(&req, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, borrow.ErrRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

// LockRequestByID takes the row lock that serializes concurrent transitions
// on one request (approve vs. cancel vs. issue).
func (r *Repo) LockRequestByID(ctx context.Context, id string) (*models.BorrowRequest, error) {
	var req models.BorrowRequest
	err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&req, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, borrow.ErrRequestNotFound
		}
		return nil, err
	}
	if err := r.DB.WithContext(ctx).
		Where("request_id = ?", id).
		Find(&req.Items).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *Repo) SaveRequest(ctx context.Context, req *models.BorrowRequest) error {
	// Omit items: they are immutable after creation and Save would try to
	// upsert them.
	return r.DB.WithContext(ctx).Omit("Items").Save(req).Error
}

func (r *Repo) ListRequests(ctx context.Context, f borrow.RequestFilter) ([]models.BorrowRequest, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Size <= 0 || f.Size > 100 {
		f.Size = 20
	}
	tx := r.DB.WithContext(ctx).Model(&models.BorrowRequest{}).Preload("Items")
	if f.Status != "" {
		tx = tx.Where("status = ?", f.Status)
	}
	if f.Date != nil {
		tx = tx.Where("borrow_date = ?", *f.Date)
	}
	if f.RequesterID != "" {
		tx = tx.Where("requester_id = ?", f.RequesterID)
	}
	var reqs []models.BorrowRequest
	err := tx.
		Order("created_at DESC").
		Offset((f.Page - 1) * f.Size).
		Limit(f.Size).
		Find(&reqs).Error
	return reqs, err
}

// Reservations

// ActiveReservations is the conflict query: unreleased reservations on the
// requested devices at (date, slot) whose owning request is still active,
// joined with device and borrower so the result can name the clash.
func (r *Repo) ActiveReservations(ctx context.Context, deviceIDs []string, date time.Time, timeSlotID, excludeRequestID string) ([]borrow.Conflict, error) {
	if len(deviceIDs) == 0 {
		return nil, nil
	}
	q := r.DB.WithContext(ctx).
		Table(models.ReservationTable+" AS res").
		Select(`res.device_id,
			d.name AS device_name,
			d.code AS device_code,
			res.request_id,
			br.requester_id AS borrower_id,
			COALESCE(u.display_name, '') AS borrower_name,
			br.purpose`).
		Joins(fmt.Sprintf("JOIN %s br ON br.id = res.request_id", models.BorrowRequestTable)).
		Joins(fmt.Sprintf("JOIN %s d ON d.id = res.device_id", models.DeviceTable)).
		Joins(fmt.Sprintf("LEFT JOIN %s u ON u.id = br.requester_id", models.UserTable)).
		Where("res.released_at IS NULL").
		Where("res.borrow_date = ? AND res.time_slot_id = ?", date, timeSlotID).
		Where("res.device_id IN ?", deviceIDs).
		Where("br.status IN ?", models.ActiveStatuses())
	if excludeRequestID != "" {
		q = q.Where("res.request_id <> ?", excludeRequestID)
	}
	var out []borrow.Conflict
	if err := q.Order("d.code ASC").Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) CreateReservations(ctx context.Context, rs []models.Reservation) error {
	if len(rs) == 0 {
		return nil
	}
	if err := r.DB.WithContext(ctx).Create(&rs).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return borrow.ErrReservationTaken
		}
		return err
	}
	return nil
}

func (r *Repo) ReleaseReservations(ctx context.Context, requestID string) error {
	return r.DB.WithContext(ctx).
		Where("request_id = ?", requestID).
		Delete(&models.Reservation{}).Error
}

func (r *Repo) MarkReservationsReleased(ctx context.Context, requestID string, at time.Time) error {
	return r.DB.WithContext(ctx).Model(&models.Reservation{}).
		Where("request_id = ? AND released_at IS NULL", requestID).
		Update("released_at", at).Error
}

func (r *Repo) ListReservationsByRequest(ctx context.Context, requestID string) ([]models.Reservation, error) {
	var rs []models.Reservation
	err := r.DB.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("id ASC").
		Find(&rs).Error
	return rs, err
}

// Handovers

func (r *Repo) CreateHandover(ctx context.Context, rec *models.HandoverRecord) error {
	return r.DB.WithContext(ctx).Create(rec).Error
}

func (r *Repo) ListHandoversByRequest(ctx context.Context, requestID string) ([]models.HandoverRecord, error) {
	var hs []models.HandoverRecord
	err := r.DB.WithContext(ctx).
		Preload("Items").
		Where("request_id = ?", requestID).
		Order("created_at ASC").
		Find(&hs).Error
	return hs, err
}
