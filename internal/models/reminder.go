package models

import (
	"time"
)

// Reminder statuses.
const (
	ReminderPending   = "pending"
	ReminderCompleted = "completed"
	ReminderDismissed = "dismissed"
)

// Reminder priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// ReminderStatuses lists the allowed status values in display order.
var ReminderStatuses = []string{ReminderPending, ReminderCompleted, ReminderDismissed}

// ReminderPriorities lists the allowed priority values in display order.
var ReminderPriorities = []string{PriorityLow, PriorityMedium, PriorityHigh}

// Related entity kinds a reminder may point at. The reference is weak:
// no foreign key enforces it.
const (
	RelatedContact     = "contact"
	RelatedDeal        = "deal"
	RelatedInteraction = "interaction"
	RelatedEvent       = "event"
	RelatedTask        = "task"
)

// Reminder is a standalone to-do owned by a user, optionally attached to
// another record through a weak related reference.
type Reminder struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	DueDate     time.Time `gorm:"not null;index" json:"due_date"`
	Priority    string    `gorm:"size:10;not null;default:'medium'" json:"priority"`
	Status      string    `gorm:"size:20;not null;default:'pending';index" json:"status"`
	RelatedType *string   `gorm:"size:20" json:"related_type"`
	RelatedID   *uint     `json:"related_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ValidReminderStatus reports whether s is one of the allowed statuses.
func ValidReminderStatus(s string) bool {
	for _, v := range ReminderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// ValidReminderPriority reports whether p is one of the allowed priorities.
func ValidReminderPriority(p string) bool {
	for _, v := range ReminderPriorities {
		if v == p {
			return true
		}
	}
	return false
}
