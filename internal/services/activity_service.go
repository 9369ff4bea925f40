package services

import (
	"encoding/json"
	"log/slog"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/flopysoft/flopy-crm/internal/models"
)

type ActivityService struct {
	db *gorm.DB
}

func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{db: db}
}

// Log records one audit trail entry. Failures are logged and swallowed:
// auditing must never abort the action it describes.
func (s *ActivityService) Log(userID uint, action, entityType string, entityID uint, details map[string]interface{}, ip string) {
	entry := models.ActivityLog{
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		IPAddress:  ip,
	}
	if len(details) > 0 {
		if b, err := json.Marshal(details); err == nil {
			entry.Details = datatypes.JSON(b)
		}
	}
	if err := s.db.Create(&entry).Error; err != nil {
		slog.Error("failed to write activity log", "error", err, "action", action)
	}
}

// Recent returns the n most recent activity entries.
func (s *ActivityService) Recent(n int) ([]models.ActivityLog, error) {
	var entries []models.ActivityLog
	err := s.db.Order("created_at DESC").Limit(n).Find(&entries).Error
	return entries, err
}

// RecentForUser returns the n most recent entries by one user.
func (s *ActivityService) RecentForUser(userID uint, n int) ([]models.ActivityLog, error) {
	var entries []models.ActivityLog
	err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Limit(n).Find(&entries).Error
	return entries, err
}
