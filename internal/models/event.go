package models

import (
	"time"
)

// Event is a calendar entry, optionally linked to a contact. Reminder is
// minutes before the start time; nil means no reminder.
type Event struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	ContactID   *uint     `gorm:"index" json:"contact_id"`
	Contact     *Contact  `gorm:"foreignKey:ContactID" json:"contact,omitempty"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Location    string    `gorm:"size:255" json:"location"`
	StartDate   time.Time `gorm:"not null;index" json:"start_date"`
	EndDate     time.Time `gorm:"not null" json:"end_date"`
	AllDay      bool      `gorm:"not null;default:false" json:"all_day"`
	Reminder    *int      `json:"reminder"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
