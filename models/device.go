package models

import "time"

const (
	DeviceTable         = "emd_devices"
	DeviceCategoryTable = "emd_device_categories"
)

// DeviceStatus is the current physical state of a device. It is a snapshot,
// independent from Reservation which is a scheduled commitment: a device can
// be AVAILABLE now and still hold future reservations.
type DeviceStatus string

const (
	DeviceAvailable        DeviceStatus = "AVAILABLE"
	DeviceInUse            DeviceStatus = "IN_USE"
	DeviceUnderMaintenance DeviceStatus = "UNDER_MAINTENANCE"
	DeviceLost             DeviceStatus = "LOST"
	DeviceRetired          DeviceStatus = "RETIRED"
)

// Borrowable reports whether the device may appear on a new borrow request.
// AVAILABLE and IN_USE devices are offered (IN_USE only blocks the current
// slot, not future ones); LOST and RETIRED are gone for good, and a device
// under maintenance has no predictable return date.
func (s DeviceStatus) Borrowable() bool {
	return s == DeviceAvailable || s == DeviceInUse
}

type DeviceCategory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:200;uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (DeviceCategory) TableName() string { return DeviceCategoryTable }

type Device struct {
	ID         string       `gorm:"primaryKey;type:uuid" json:"id"`
	Code       string       `gorm:"size:60;uniqueIndex;not null" json:"code"` // inventory tag, e.g. "TB-0042"
	Name       string       `gorm:"size:200;not null" json:"name"`
	CategoryID *uint        `gorm:"index" json:"categoryId,omitempty"`
	Status     DeviceStatus `gorm:"size:30;not null;default:'AVAILABLE';index" json:"status"`
	Location   string       `gorm:"size:120" json:"location,omitempty"`
	Note       string       `gorm:"size:255" json:"note,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Device) TableName() string { return DeviceTable }
