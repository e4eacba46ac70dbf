package models

import "time"

const UserTable = "emd_users"

// Roles known to the system. QTVT is the equipment-management staff role.
const (
	RoleAdmin    = "admin"
	RoleQTVT     = "qtvt"
	RoleLecturer = "lecturer"
)

type User struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"`
	Username     string `gorm:"uniqueIndex;size:255;not null" json:"username"`
	DisplayName  string `gorm:"size:255;not null" json:"displayName"`
	PasswordHash string `gorm:"size:100;not null" json:"-"`
	Role         string `gorm:"size:20;not null;default:'lecturer';index" json:"role"`
	Department   string `gorm:"size:200" json:"department,omitempty"`

	LastLoginAt *time.Time `gorm:"index" json:"lastLoginAt,omitempty"`
	LastSeenAt  *time.Time `gorm:"index" json:"lastSeenAt,omitempty"`
	LoginCount  int64      `gorm:"not null;default:0" json:"loginCount"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (User) TableName() string { return UserTable }

// CanManageEquipment reports whether the role may approve requests and
// record handovers.
func (u *User) CanManageEquipment() bool {
	return u.Role == RoleAdmin || u.Role == RoleQTVT
}
