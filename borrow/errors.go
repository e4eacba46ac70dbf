package borrow

import (
	"errors"
	"fmt"

	"github.com/baonguyen-kobe/eiumed-equipment-sub000/models"
)

var (
	ErrRequestNotFound  = errors.New("borrow request not found")
	ErrDeviceNotFound   = errors.New("device not found")
	ErrTimeSlotNotFound = errors.New("time slot not found")
	// ErrNotRequester: the acting user does not own the request.
	ErrNotRequester = errors.New("not the requester of this request")
	// ErrReservationTaken surfaces the storage-level unique-index backstop:
	// two concurrent approvals slipped past the conflict check and the
	// second insert lost. The whole approval has been rolled back.
	ErrReservationTaken = errors.New("reservation already held for device/slot")
)

// ValidationError rejects malformed input before anything touches storage.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InvalidTransitionError reports a state-machine violation: the request's
// current status does not allow the attempted transition. Nothing was
// changed.
type InvalidTransitionError struct {
	RequestID string
	From      models.BorrowRequestStatus
	To        models.BorrowRequestStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("request %s: cannot transition %s -> %s", e.RequestID, e.From, e.To)
}

// InvalidStateError reports a handover precondition failure: issuing needs
// APPROVED, returning needs IN_USE.
type InvalidStateError struct {
	RequestID string
	Status    models.BorrowRequestStatus
	Want      models.BorrowRequestStatus
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("request %s is %s, want %s", e.RequestID, e.Status, e.Want)
}
