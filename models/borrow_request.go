package models

import "time"

const (
	BorrowRequestTable     = "emd_borrow_requests"
	BorrowRequestItemTable = "emd_borrow_request_items"
	ReservationTable       = "emd_reservations"
)

type BorrowRequestStatus string

const (
	StatusDraft     BorrowRequestStatus = "DRAFT"
	StatusSubmitted BorrowRequestStatus = "SUBMITTED"
	StatusApproved  BorrowRequestStatus = "APPROVED"
	StatusRejected  BorrowRequestStatus = "REJECTED"
	StatusInUse     BorrowRequestStatus = "IN_USE"
	StatusCompleted BorrowRequestStatus = "COMPLETED"
	StatusCancelled BorrowRequestStatus = "CANCELLED"
)

// borrowTransitions is the whole state machine. Anything not listed here is
// an invalid transition. APPROVED -> CANCELLED releases the request's
// reservations; once devices are issued (IN_USE) cancellation is no longer
// possible.
var borrowTransitions = map[BorrowRequestStatus][]BorrowRequestStatus{
	StatusDraft:     {StatusSubmitted, StatusCancelled},
	StatusSubmitted: {StatusApproved, StatusRejected},
	StatusApproved:  {StatusInUse, StatusCancelled},
	StatusInUse:     {StatusCompleted},
}

func (s BorrowRequestStatus) CanTransitionTo(next BorrowRequestStatus) bool {
	for _, t := range borrowTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// terminal reports whether no transition leaves this status.
func (s BorrowRequestStatus) terminal() bool {
	return len(borrowTransitions[s]) == 0
}

// Active reports whether the request currently commits its reservations.
// Only active requests count as conflict sources.
func (s BorrowRequestStatus) Active() bool {
	return s == StatusApproved || s == StatusInUse
}

// ActiveStatuses are the statuses whose reservations block other requests.
func ActiveStatuses() []BorrowRequestStatus {
	return []BorrowRequestStatus{StatusApproved, StatusInUse}
}

type BorrowRequest struct {
	ID          string              `gorm:"primaryKey;type:uuid" json:"id"`
	RequesterID string              `gorm:"type:uuid;index;not null" json:"requesterId"`
	BorrowDate  time.Time           `gorm:"type:date;index;not null" json:"borrowDate"`
	TimeSlotID  string              `gorm:"type:uuid;index;not null" json:"timeSlotId"`
	Room        string              `gorm:"size:100" json:"room,omitempty"`
	Purpose     string              `gorm:"size:255" json:"purpose,omitempty"`
	Note        string              `gorm:"size:255" json:"note,omitempty"`
	Status      BorrowRequestStatus `gorm:"size:20;not null;default:'DRAFT';index" json:"status"`

	ApproverID   *string    `gorm:"type:uuid" json:"approverId,omitempty"`
	ApprovedAt   *time.Time `json:"approvedAt,omitempty"`
	ApproverNote string     `gorm:"size:255" json:"approverNote,omitempty"`

	Items []BorrowRequestItem `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"items,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (BorrowRequest) TableName() string { return BorrowRequestTable }

// DeviceIDs returns the ids of all requested devices, in item order.
func (r *BorrowRequest) DeviceIDs() []string {
	ids := make([]string, 0, len(r.Items))
	for _, it := range r.Items {
		ids = append(ids, it.DeviceID)
	}
	return ids
}

// BorrowRequestItem is one physical device on a request. Always one device
// per row; multi-unit requests list several concrete devices.
type BorrowRequestItem struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	RequestID string `gorm:"type:uuid;index:idx_emd_bri_req_dev,unique;not null" json:"requestId"`
	DeviceID  string `gorm:"type:uuid;index:idx_emd_bri_req_dev,unique;index;not null" json:"deviceId"`
}

func (BorrowRequestItem) TableName() string { return BorrowRequestItemTable }

// Reservation commits one device to one (date, time slot) for one request.
// Created at approval, one row per device. While ReleasedAt is null the slot
// is blocked; completing a request stamps ReleasedAt (rows stay as history),
// cancelling an approved request deletes them. The partial unique index on
// (device_id, borrow_date, time_slot_id) WHERE released_at IS NULL created
// in db.Migrate is the storage backstop against double booking.
type Reservation struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	DeviceID   string     `gorm:"type:uuid;index;not null" json:"deviceId"`
	BorrowDate time.Time  `gorm:"type:date;not null" json:"borrowDate"`
	TimeSlotID string     `gorm:"type:uuid;not null" json:"timeSlotId"`
	RequestID  string     `gorm:"type:uuid;index;not null" json:"requestId"`
	ReleasedAt *time.Time `gorm:"index" json:"releasedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func (Reservation) TableName() string { return ReservationTable }

// NormalizeDate truncates to a UTC calendar date. Every date stored on a
// request or reservation goes through this so equality comparisons hold
// regardless of the caller's zone.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
