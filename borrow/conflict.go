package borrow

import (
	"context"
	"time"

	"github.com/baonguyen-kobe/eiumed-equipment-sub000/models"
)

// Conflict names one existing commitment that collides with a candidate
// booking. Carries enough for a human to resolve the clash: which device,
// which request holds it, and who borrowed it.
type Conflict struct {
	DeviceID     string `json:"deviceId"`
	DeviceName   string `json:"deviceName"`
	DeviceCode   string `json:"deviceCode"`
	RequestID    string `json:"requestId"`
	BorrowerID   string `json:"borrowerId"`
	BorrowerName string `json:"borrowerName"`
	Purpose      string `json:"purpose,omitempty"`
}

// ConflictChecker answers "which active reservations collide with this
// candidate set". Pure query: no locks, no mutation. Callers that go on to
// mutate must re-run the check inside the same atomic unit (see
// Service.Approve).
type ConflictChecker struct {
	store Store
}

func NewConflictChecker(store Store) *ConflictChecker {
	return &ConflictChecker{store: store}
}

// Check returns every conflict for deviceIDs at (date, timeSlotID). An empty
// device list short-circuits to no conflicts. Requests in DRAFT, SUBMITTED,
// REJECTED or CANCELLED never show up as conflict sources; pass
// excludeRequestID to keep a request from colliding with itself on
// re-approval.
func (c *ConflictChecker) Check(ctx context.Context, deviceIDs []string, date time.Time, timeSlotID, excludeRequestID string) ([]Conflict, error) {
	if len(deviceIDs) == 0 {
		return nil, nil
	}
	if date.IsZero() {
		return nil, &ValidationError{Field: "date", Reason: "required"}
	}
	if timeSlotID == "" {
		return nil, &ValidationError{Field: "timeSlotId", Reason: "required"}
	}
	return c.store.ActiveReservations(ctx, deviceIDs, models.NormalizeDate(date), timeSlotID, excludeRequestID)
}
