package borrow

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/baonguyen-kobe/eiumed-equipment-sub000/models"
)

// HandoverItemInput is the observed state of one device at hand-out or
// return. IsMissing/IsBroken are ignored on issue.
type HandoverItemInput struct {
	DeviceID  string `json:"deviceId" binding:"required"`
	Condition string `json:"condition"`
	IsMissing bool   `json:"isMissing"`
	IsBroken  bool   `json:"isBroken"`
}

type HandoverResult struct {
	HandoverID string `json:"handoverId"`
}

// Issue hands the devices out: request must be APPROVED, items must cover
// exactly the requested device set. In one atomic unit it writes the ISSUE
// record, sets every device to IN_USE and the request to IN_USE. All or
// nothing across every device.
func (s *Service) Issue(ctx context.Context, requestID, performerID string, items []HandoverItemInput, note string) (*HandoverResult, error) {
	if performerID == "" {
		return nil, &ValidationError{Field: "performerId", Reason: "required"}
	}
	var res *HandoverResult
	err := s.store.Atomically(ctx, func(tx Store) error {
		req, err := tx.LockRequestByID(ctx, requestID)
		if err != nil {
			return err
		}
		if !req.Status.CanTransitionTo(models.StatusInUse) {
			return &InvalidStateError{RequestID: req.ID, Status: req.Status, Want: models.StatusApproved}
		}
		if err := coverRequestDevices(req, items); err != nil {
			return err
		}

		rec := &models.HandoverRecord{
			ID:          uuid.NewString(),
			RequestID:   req.ID,
			Type:        models.HandoverIssue,
			PerformerID: performerID,
			Note:        note,
		}
		for _, it := range items {
			rec.Items = append(rec.Items, models.HandoverItem{
				DeviceID:  it.DeviceID,
				Condition: it.Condition,
			})
		}
		if err := tx.CreateHandover(ctx, rec); err != nil {
			return err
		}
		for _, it := range items {
			if err := tx.UpdateDeviceStatus(ctx, it.DeviceID, models.DeviceInUse); err != nil {
				return err
			}
		}
		req.Status = models.StatusInUse
		if err := tx.SaveRequest(ctx, req); err != nil {
			return err
		}
		res = &HandoverResult{HandoverID: rec.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Return takes the devices back: request must be IN_USE, items must cover
// the whole device set. Writes the RETURN record, completes the request and
// releases its reservations; device status lands on LOST (missing),
// UNDER_MAINTENANCE (broken, with a maintenance log opened) or AVAILABLE.
func (s *Service) Return(ctx context.Context, requestID, performerID string, items []HandoverItemInput, note string) (*HandoverResult, error) {
	if performerID == "" {
		return nil, &ValidationError{Field: "performerId", Reason: "required"}
	}
	var res *HandoverResult
	err := s.store.Atomically(ctx, func(tx Store) error {
		req, err := tx.LockRequestByID(ctx, requestID)
		if err != nil {
			return err
		}
		if !req.Status.CanTransitionTo(models.StatusCompleted) {
			return &InvalidStateError{RequestID: req.ID, Status: req.Status, Want: models.StatusInUse}
		}
		if err := coverRequestDevices(req, items); err != nil {
			return err
		}

		now := time.Now().UTC()
		rec := &models.HandoverRecord{
			ID:          uuid.NewString(),
			RequestID:   req.ID,
			Type:        models.HandoverReturn,
			PerformerID: performerID,
			Note:        note,
		}
		for _, it := range items {
			rec.Items = append(rec.Items, models.HandoverItem{
				DeviceID:  it.DeviceID,
				Condition: it.Condition,
				IsMissing: it.IsMissing,
				IsBroken:  it.IsBroken,
			})
		}
		if err := tx.CreateHandover(ctx, rec); err != nil {
			return err
		}

		for _, it := range items {
			status := models.DeviceAvailable
			switch {
			case it.IsMissing:
				status = models.DeviceLost
			case it.IsBroken:
				status = models.DeviceUnderMaintenance
			}
			if err := tx.UpdateDeviceStatus(ctx, it.DeviceID, status); err != nil {
				return err
			}
			if status == models.DeviceUnderMaintenance {
				reqID := req.ID
				ml := &models.MaintenanceLog{
					ID:        uuid.NewString(),
					DeviceID:  it.DeviceID,
					RequestID: &reqID,
					Reason:    "reported broken on return: " + it.Condition,
					OpenedBy:  performerID,
				}
				if err := tx.CreateMaintenanceLog(ctx, ml); err != nil {
					return err
				}
			}
		}

		// Completed requests keep reservation rows as history but no
		// longer block the slot.
		if err := tx.MarkReservationsReleased(ctx, req.ID, now); err != nil {
			return err
		}
		req.Status = models.StatusCompleted
		if err := tx.SaveRequest(ctx, req); err != nil {
			return err
		}
		res = &HandoverResult{HandoverID: rec.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// coverRequestDevices rejects item lists that do not match the request's
// device set exactly: no missing devices, no extras, no duplicates.
func coverRequestDevices(req *models.BorrowRequest, items []HandoverItemInput) error {
	want := make(map[string]bool, len(req.Items))
	for _, it := range req.Items {
		want[it.DeviceID] = true
	}
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if it.DeviceID == "" {
			return &ValidationError{Field: "items", Reason: "deviceId required"}
		}
		if seen[it.DeviceID] {
			return &ValidationError{Field: "items", Reason: "duplicate device " + it.DeviceID}
		}
		if !want[it.DeviceID] {
			return &ValidationError{Field: "items", Reason: "device " + it.DeviceID + " is not on the request"}
		}
		seen[it.DeviceID] = true
	}
	if len(seen) != len(want) {
		return &ValidationError{Field: "items", Reason: "items must cover every requested device"}
	}
	return nil
}
