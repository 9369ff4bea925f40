package models

import (
	"time"
)

// Interaction types.
const (
	InteractionCall    = "call"
	InteractionEmail   = "email"
	InteractionMeeting = "meeting"
	InteractionTask    = "task"
	InteractionNote    = "note"
	InteractionOther   = "other"
)

// Interaction statuses.
const (
	InteractionPlanned   = "planned"
	InteractionCompleted = "completed"
	InteractionCanceled  = "canceled"
)

// InteractionTypes lists the allowed type values in display order.
var InteractionTypes = []string{
	InteractionCall, InteractionEmail, InteractionMeeting,
	InteractionTask, InteractionNote, InteractionOther,
}

// InteractionStatuses lists the allowed status values in display order.
var InteractionStatuses = []string{InteractionPlanned, InteractionCompleted, InteractionCanceled}

// Interaction records a touchpoint with a contact. Deleting the contact
// deletes its interactions.
type Interaction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ContactID uint      `gorm:"not null;index" json:"contact_id"`
	Contact   *Contact  `gorm:"foreignKey:ContactID;constraint:OnDelete:CASCADE" json:"contact,omitempty"`
	CreatedBy uint      `gorm:"not null;index" json:"created_by"`
	Type      string    `gorm:"size:20;not null" json:"type"`
	Subject   string    `gorm:"size:255;not null" json:"subject"`
	Notes     string    `gorm:"type:text" json:"notes"`
	Date      time.Time `gorm:"not null;index" json:"date"`
	Status    string    `gorm:"size:20;not null;default:'planned';index" json:"status"`
	Outcome   string    `gorm:"type:text" json:"outcome"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidInteractionType reports whether t is one of the allowed types.
func ValidInteractionType(t string) bool {
	for _, v := range InteractionTypes {
		if v == t {
			return true
		}
	}
	return false
}

// ValidInteractionStatus reports whether s is one of the allowed statuses.
func ValidInteractionStatus(s string) bool {
	for _, v := range InteractionStatuses {
		if v == s {
			return true
		}
	}
	return false
}
