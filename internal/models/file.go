package models

import (
	"time"
)

// File is an uploaded attachment stored on disk under a generated name.
type File struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	RelatedType  string    `gorm:"size:20;not null;index:idx_files_related" json:"related_type"`
	RelatedID    uint      `gorm:"not null;index:idx_files_related" json:"related_id"`
	Filename     string    `gorm:"size:255;not null" json:"filename"`
	OriginalName string    `gorm:"size:255;not null" json:"original_name"`
	MimeType     string    `gorm:"size:100" json:"mime_type"`
	Size         int64     `gorm:"not null;default:0" json:"size"`
	CreatedAt    time.Time `json:"created_at"`
}
