package models

import (
	"time"
)

// User statuses.
const (
	UserStatusActive    = "active"
	UserStatusInactive  = "inactive"
	UserStatusSuspended = "suspended"
)

// Role names seeded at startup.
const (
	RoleAdmin  = "admin"
	RoleAgent  = "agent"
	RoleClient = "client"
)

// Role is a named permission level assigned to users.
type Role struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:50;not null;uniqueIndex" json:"name"`
}

// User is an application account. Tokens are stored as SHA-256 hashes,
// never in the clear.
type User struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	RoleID               uint       `gorm:"not null;index" json:"role_id"`
	Role                 *Role      `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	FirstName            string     `gorm:"size:100;not null" json:"first_name"`
	LastName             string     `gorm:"size:100;not null" json:"last_name"`
	Email                string     `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Password             string     `gorm:"size:255;not null" json:"-"`
	Status               string     `gorm:"size:20;not null;default:'active'" json:"status"`
	Theme                string     `gorm:"size:20;default:'light'" json:"theme"`
	ProfileImage         string     `gorm:"size:255" json:"profile_image"`
	RememberToken        *string    `gorm:"size:64;index" json:"-"`
	RememberTokenExpires *time.Time `json:"-"`
	APIToken             *string    `gorm:"size:64;index" json:"-"`
	APITokenExpires      *time.Time `json:"-"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// FullName joins first and last name for display.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// IsActive reports whether the account may sign in.
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}
