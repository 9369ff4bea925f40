package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog is an audit trail entry for create/update/delete actions.
type ActivityLog struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     uint           `gorm:"not null;index" json:"user_id"`
	Action     string         `gorm:"size:50;not null" json:"action"`
	EntityType string         `gorm:"size:50;not null;index" json:"entity_type"`
	EntityID   uint           `gorm:"not null" json:"entity_id"`
	Details    datatypes.JSON `json:"details"`
	IPAddress  string         `gorm:"size:45" json:"ip_address"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}
