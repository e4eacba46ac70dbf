package models

import "time"

const (
	HandoverTable     = "emd_handovers"
	HandoverItemTable = "emd_handover_items"
)

type HandoverType string

const (
	HandoverIssue  HandoverType = "ISSUE"
	HandoverReturn HandoverType = "RETURN"
)

// HandoverRecord is one issue or return action on a borrow request.
// Append-only: records are never updated after creation.
type HandoverRecord struct {
	ID          string       `gorm:"primaryKey;type:uuid" json:"id"`
	RequestID   string       `gorm:"type:uuid;index;not null" json:"requestId"`
	Type        HandoverType `gorm:"size:10;not null" json:"type"`
	PerformerID string       `gorm:"type:uuid;not null" json:"performerId"`
	Note        string       `gorm:"size:255" json:"note,omitempty"`

	Items []HandoverItem `gorm:"foreignKey:HandoverID;constraint:OnDelete:CASCADE" json:"items,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

func (HandoverRecord) TableName() string { return HandoverTable }

// HandoverItem records the observed condition of one device at hand-out or
// return time. IsMissing/IsBroken are only meaningful on RETURN records.
type HandoverItem struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	HandoverID string `gorm:"type:uuid;index;not null" json:"handoverId"`
	DeviceID   string `gorm:"type:uuid;index;not null" json:"deviceId"`
	Condition  string `gorm:"size:255" json:"condition,omitempty"`
	IsMissing  bool   `gorm:"not null;default:false" json:"isMissing"`
	IsBroken   bool   `gorm:"not null;default:false" json:"isBroken"`
}

func (HandoverItem) TableName() string { return HandoverItemTable }
