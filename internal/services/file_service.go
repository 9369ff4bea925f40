package services

import (
	"gorm.io/gorm"

	"github.com/flopysoft/flopy-crm/internal/models"
)

type FileService struct {
	db *gorm.DB
}

func NewFileService(db *gorm.DB) *FileService {
	return &FileService{db: db}
}

// Record stores the metadata of a stored upload.
func (s *FileService) Record(userID uint, relatedType string, relatedID uint, filename, originalName, mimeType string, size int64) (*models.File, error) {
	file := models.File{
		UserID:       userID,
		RelatedType:  relatedType,
		RelatedID:    relatedID,
		Filename:     filename,
		OriginalName: originalName,
		MimeType:     mimeType,
		Size:         size,
	}
	if err := s.db.Create(&file).Error; err != nil {
		return nil, err
	}
	return &file, nil
}

// ForRelated lists uploads attached to one record.
func (s *FileService) ForRelated(relatedType string, relatedID uint) ([]models.File, error) {
	var files []models.File
	err := s.db.Where("related_type = ? AND related_id = ?", relatedType, relatedID).
		Order("created_at DESC").
		Find(&files).Error
	return files, err
}
