package models

import (
	"time"
)

// Contact is a person in the CRM. CreatedBy is required; Owner is a
// weak, nullable assignment to an agent.
type Contact struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CreatedBy  uint      `gorm:"not null;index" json:"created_by"`
	OwnerID    *uint     `gorm:"index" json:"owner_id"`
	Owner      *User     `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	FirstName  string    `gorm:"size:100;not null" json:"first_name"`
	LastName   string    `gorm:"size:100;not null" json:"last_name"`
	Email      string    `gorm:"size:255" json:"email"`
	Phone      string    `gorm:"size:50" json:"phone"`
	Company    string    `gorm:"size:150" json:"company"`
	Position   string    `gorm:"size:100" json:"position"`
	Address    string    `gorm:"size:255" json:"address"`
	City       string    `gorm:"size:100" json:"city"`
	Country    string    `gorm:"size:100" json:"country"`
	LeadSource string    `gorm:"size:100;index" json:"lead_source"`
	LeadStatus string    `gorm:"size:50;index" json:"lead_status"`
	LeadScore  int       `gorm:"not null;default:0" json:"lead_score"`
	Avatar     string    `gorm:"size:255" json:"avatar"`
	Notes      string    `gorm:"type:text" json:"notes"`
	Tags       []Tag     `gorm:"many2many:contact_tags" json:"tags,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// FullName joins first and last name for display.
func (c *Contact) FullName() string {
	return c.FirstName + " " + c.LastName
}

// Tag is a shared label that can be attached to any number of contacts.
type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:50;not null;uniqueIndex" json:"name"`
	Color     string    `gorm:"size:7;default:'#6c757d'" json:"color"`
	CreatedBy uint      `gorm:"not null" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}
