package models

import "time"

const TimeSlotTable = "emd_time_slots"

// TimeSlot is one teaching period, e.g. "Tiết 1-2 (07:00-08:50)". Requests
// and reservations reference slots by id; the clock times are display data.
type TimeSlot struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	Label     string    `gorm:"size:100;uniqueIndex;not null" json:"label"`
	StartsAt  string    `gorm:"size:5;not null" json:"startsAt"` // "07:00"
	EndsAt    string    `gorm:"size:5;not null" json:"endsAt"`   // "08:50"
	SortOrder int       `gorm:"not null;default:0;index" json:"sortOrder"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (TimeSlot) TableName() string { return TimeSlotTable }
