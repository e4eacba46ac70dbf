package borrow

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/baonguyen-kobe/eiumed-equipment-sub000/models"
)

// Service owns the borrow-request lifecycle: submission, the approval
// orchestration (conflict check + status change + reservation creation in
// one atomic unit), rejection, cancellation, and the issue/return handovers
// (handover.go). Storage is injected; there is no package-level state.
type Service struct {
	store     Store
	conflicts *ConflictChecker
}

func NewService(store Store) *Service {
	return &Service{store: store, conflicts: NewConflictChecker(store)}
}

// SubmitInput is the payload for creating a request. Draft keeps the
// request editable (status DRAFT) instead of submitting it right away.
type SubmitInput struct {
	RequesterID string
	Date        time.Time
	TimeSlotID  string
	Room        string
	Purpose     string
	Note        string
	DeviceIDs   []string
	Draft       bool
}

// Submit validates the input and stores a new request in SUBMITTED (or
// DRAFT). No reservations are created here; that happens at approval.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*models.BorrowRequest, error) {
	if in.RequesterID == "" {
		return nil, &ValidationError{Field: "requesterId", Reason: "required"}
	}
	if in.Date.IsZero() {
		return nil, &ValidationError{Field: "date", Reason: "required"}
	}
	if in.TimeSlotID == "" {
		return nil, &ValidationError{Field: "timeSlotId", Reason: "required"}
	}
	if len(in.DeviceIDs) == 0 {
		return nil, &ValidationError{Field: "deviceIds", Reason: "at least one device required"}
	}
	seen := make(map[string]bool, len(in.DeviceIDs))
	for _, id := range in.DeviceIDs {
		if seen[id] {
			return nil, &ValidationError{Field: "deviceIds", Reason: "duplicate device " + id}
		}
		seen[id] = true
	}

	if _, err := s.store.FindTimeSlotByID(ctx, in.TimeSlotID); err != nil {
		return nil, err
	}
	devices, err := s.store.FindDevicesByIDs(ctx, in.DeviceIDs)
	if err != nil {
		return nil, err
	}
	if len(devices) != len(in.DeviceIDs) {
		return nil, ErrDeviceNotFound
	}
	for _, d := range devices {
		if !d.Status.Borrowable() {
			return nil, &ValidationError{Field: "deviceIds", Reason: "device " + d.Code + " is " + string(d.Status)}
		}
	}

	status := models.StatusSubmitted
	if in.Draft {
		status = models.StatusDraft
	}
	req := &models.BorrowRequest{
		ID:          uuid.NewString(),
		RequesterID: in.RequesterID,
		BorrowDate:  models.NormalizeDate(in.Date),
		TimeSlotID:  in.TimeSlotID,
		Room:        in.Room,
		Purpose:     in.Purpose,
		Note:        in.Note,
		Status:      status,
	}
	for _, id := range in.DeviceIDs {
		req.Items = append(req.Items, models.BorrowRequestItem{DeviceID: id})
	}
	if err := s.store.CreateRequest(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// SubmitDraft moves a DRAFT request to SUBMITTED. Requester only.
func (s *Service) SubmitDraft(ctx context.Context, requestID, requesterID string) (*models.BorrowRequest, error) {
	var out *models.BorrowRequest
	err := s.store.Atomically(ctx, func(tx Store) error {
		req, err := tx.LockRequestByID(ctx, requestID)
		if err != nil {
			return err
		}
		if req.RequesterID != requesterID {
			return ErrNotRequester
		}
		if !req.Status.CanTransitionTo(models.StatusSubmitted) {
			return &InvalidTransitionError{RequestID: req.ID, From: req.Status, To: models.StatusSubmitted}
		}
		req.Status = models.StatusSubmitted
		if err := tx.SaveRequest(ctx, req); err != nil {
			return err
		}
		out = req
		return nil
	})
	return out, err
}

// ApproveResult is what an approval attempt reports back. Approved=false
// with a non-empty Conflicts list means the request is still SUBMITTED and
// nothing was written.
type ApproveResult struct {
	Approved  bool       `json:"success"`
	Conflicts []Conflict `json:"conflicts,omitempty"`
}

// Approve runs the whole check-then-commit sequence in one atomic unit:
// lock the request, re-run the conflict check against its device list, and
// on zero conflicts flip SUBMITTED -> APPROVED and create one reservation
// per device. Two concurrent approvals over a shared device cannot both
// succeed: the loser either sees the winner's reservation or trips the
// unique-index backstop (ErrReservationTaken) and rolls back.
func (s *Service) Approve(ctx context.Context, requestID, approverID, note string) (*ApproveResult, error) {
	if requestID == "" {
		return nil, &ValidationError{Field: "requestId", Reason: "required"}
	}
	if approverID == "" {
		return nil, &ValidationError{Field: "approverId", Reason: "required"}
	}

	var res *ApproveResult
	err := s.store.Atomically(ctx, func(tx Store) error {
		req, err := tx.LockRequestByID(ctx, requestID)
		if err != nil {
			return err
		}
		if !req.Status.CanTransitionTo(models.StatusApproved) {
			return &InvalidTransitionError{RequestID: req.ID, From: req.Status, To: models.StatusApproved}
		}

		conflicts, err := NewConflictChecker(tx).Check(ctx, req.DeviceIDs(), req.BorrowDate, req.TimeSlotID, req.ID)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			res = &ApproveResult{Approved: false, Conflicts: conflicts}
			return nil // abort without mutation, not an error
		}

		now := time.Now().UTC()
		req.Status = models.StatusApproved
		req.ApproverID = &approverID
		req.ApprovedAt = &now
		req.ApproverNote = note
		if err := tx.SaveRequest(ctx, req); err != nil {
			return err
		}

		rs := make([]models.Reservation, 0, len(req.Items))
		for _, it := range req.Items {
			rs = append(rs, models.Reservation{
				DeviceID:   it.DeviceID,
				BorrowDate: req.BorrowDate,
				TimeSlotID: req.TimeSlotID,
				RequestID:  req.ID,
			})
		}
		if err := tx.CreateReservations(ctx, rs); err != nil {
			return err
		}
		res = &ApproveResult{Approved: true}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Reject flips SUBMITTED -> REJECTED. The note is mandatory: a rejection
// always carries its reason. No reservations exist yet at this point.
func (s *Service) Reject(ctx context.Context, requestID, approverID, note string) error {
	if approverID == "" {
		return &ValidationError{Field: "approverId", Reason: "required"}
	}
	if note == "" {
		return &ValidationError{Field: "note", Reason: "rejection reason required"}
	}
	return s.store.Atomically(ctx, func(tx Store) error {
		req, err := tx.LockRequestByID(ctx, requestID)
		if err != nil {
			return err
		}
		if !req.Status.CanTransitionTo(models.StatusRejected) {
			return &InvalidTransitionError{RequestID: req.ID, From: req.Status, To: models.StatusRejected}
		}
		now := time.Now().UTC()
		req.Status = models.StatusRejected
		req.ApproverID = &approverID
		req.ApprovedAt = &now
		req.ApproverNote = note
		return tx.SaveRequest(ctx, req)
	})
}

// Cancel ends a request before devices go out. Requesters may cancel their
// own DRAFT; an APPROVED request can be cancelled by its requester or by
// management, which releases its reservations in the same unit. Once
// devices are issued (IN_USE) cancellation is rejected.
func (s *Service) Cancel(ctx context.Context, requestID, actorID string, actorIsManager bool) error {
	return s.store.Atomically(ctx, func(tx Store) error {
		req, err := tx.LockRequestByID(ctx, requestID)
		if err != nil {
			return err
		}
		if !req.Status.CanTransitionTo(models.StatusCancelled) {
			return &InvalidTransitionError{RequestID: req.ID, From: req.Status, To: models.StatusCancelled}
		}
		switch req.Status {
		case models.StatusDraft:
			if req.RequesterID != actorID {
				return ErrNotRequester
			}
		case models.StatusApproved:
			if req.RequesterID != actorID && !actorIsManager {
				return ErrNotRequester
			}
			if err := tx.ReleaseReservations(ctx, req.ID); err != nil {
				return err
			}
		}
		req.Status = models.StatusCancelled
		return tx.SaveRequest(ctx, req)
	})
}

// CheckConflicts is the standalone pre-check used by the UI before
// submitting. Same semantics as the in-transaction check, minus atomicity:
// the approval re-checks on its own.
func (s *Service) CheckConflicts(ctx context.Context, deviceIDs []string, date time.Time, timeSlotID, excludeRequestID string) ([]Conflict, error) {
	return s.conflicts.Check(ctx, deviceIDs, date, timeSlotID, excludeRequestID)
}

// Get loads one request with its items.
func (s *Service) Get(ctx context.Context, requestID string) (*models.BorrowRequest, error) {
	return s.store.FindRequestByID(ctx, requestID)
}

// List returns requests matching the filter, newest first.
func (s *Service) List(ctx context.Context, f RequestFilter) ([]models.BorrowRequest, error) {
	if f.Date != nil {
		d := models.NormalizeDate(*f.Date)
		f.Date = &d
	}
	return s.store.ListRequests(ctx, f)
}

// Reservations returns the reservations held (or historically held) by a
// request.
func (s *Service) Reservations(ctx context.Context, requestID string) ([]models.Reservation, error) {
	return s.store.ListReservationsByRequest(ctx, requestID)
}

// Handovers returns the issue/return log of a request, oldest first.
func (s *Service) Handovers(ctx context.Context, requestID string) ([]models.HandoverRecord, error) {
	return s.store.ListHandoversByRequest(ctx, requestID)
}
