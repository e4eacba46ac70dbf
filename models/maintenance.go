package models

import "time"

const MaintenanceLogTable = "emd_maintenance_logs"

// MaintenanceLog tracks a device sent to maintenance. Opened automatically
// when a return flags a device broken, or manually by staff; completing it
// puts the device back to AVAILABLE.
type MaintenanceLog struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	DeviceID string `gorm:"type:uuid;index;not null" json:"deviceId"`
	// RequestID points at the borrow request whose return opened this log,
	// if any.
	RequestID *string `gorm:"type:uuid;index" json:"requestId,omitempty"`
	Reason    string  `gorm:"size:255" json:"reason,omitempty"`

	OpenedBy    string     `gorm:"type:uuid;not null" json:"openedBy"`
	CompletedAt *time.Time `gorm:"index" json:"completedAt,omitempty"`
	CompletedBy *string    `gorm:"type:uuid" json:"completedBy,omitempty"`
	Note        string     `gorm:"size:255" json:"note,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (MaintenanceLog) TableName() string { return MaintenanceLogTable }
