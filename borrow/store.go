package borrow

import (
	"context"
	"time"

	"github.com/baonguyen-kobe/eiumed-equipment-sub000/models"
)

// RequestFilter narrows ListRequests. Zero values mean "any".
type RequestFilter struct {
	Status      models.BorrowRequestStatus
	Date        *time.Time // calendar date, normalized by the store
	RequesterID string
	Page        int
	Size        int
}

// Store is the storage contract the core runs against. db.Repo implements it
// on GORM/Postgres; tests use an in-memory double. Implementations must make
// Atomically run fn against a transactional view of the store: everything fn
// does commits together or not at all, and reads inside fn must not see
// writes of concurrently running units.
type Store interface {
	Atomically(ctx context.Context, fn func(tx Store) error) error

	// Borrow requests. Find/Lock load the request with its items; Lock
	// additionally takes a write lock on the row for the duration of the
	// enclosing atomic unit.
	CreateRequest(ctx context.Context, req *models.BorrowRequest) error
	FindRequestByID(ctx context.Context, id string) (*models.BorrowRequest, error)
	LockRequestByID(ctx context.Context, id string) (*models.BorrowRequest, error)
	SaveRequest(ctx context.Context, req *models.BorrowRequest) error
	ListRequests(ctx context.Context, f RequestFilter) ([]models.BorrowRequest, error)

	// Reservations. ActiveReservations returns one Conflict per unreleased
	// reservation on any of deviceIDs at (date, timeSlotID) whose owning
	// request is APPROVED or IN_USE, excluding excludeRequestID when
	// non-empty. CreateReservations fails with ErrReservationTaken when the
	// uniqueness backstop trips.
	ActiveReservations(ctx context.Context, deviceIDs []string, date time.Time, timeSlotID, excludeRequestID string) ([]Conflict, error)
	CreateReservations(ctx context.Context, rs []models.Reservation) error
	ReleaseReservations(ctx context.Context, requestID string) error
	MarkReservationsReleased(ctx context.Context, requestID string, at time.Time) error
	ListReservationsByRequest(ctx context.Context, requestID string) ([]models.Reservation, error)

	// Directories.
	FindDevicesByIDs(ctx context.Context, ids []string) ([]models.Device, error)
	UpdateDeviceStatus(ctx context.Context, deviceID string, status models.DeviceStatus) error
	FindTimeSlotByID(ctx context.Context, id string) (*models.TimeSlot, error)

	// Handover and maintenance records, append-only.
	CreateHandover(ctx context.Context, rec *models.HandoverRecord) error
	ListHandoversByRequest(ctx context.Context, requestID string) ([]models.HandoverRecord, error)
	CreateMaintenanceLog(ctx context.Context, m *models.MaintenanceLog) error
}
