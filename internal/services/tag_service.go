package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/flopysoft/flopy-crm/internal/dto"
	"github.com/flopysoft/flopy-crm/internal/models"
)

var (
	ErrTagNotFound = errors.New("tag not found")
	ErrTagExists   = errors.New("tag name is already in use")
)

type TagService struct {
	db *gorm.DB
}

func NewTagService(db *gorm.DB) *TagService {
	return &TagService{db: db}
}

func (s *TagService) List() ([]models.Tag, error) {
	var tags []models.Tag
	err := s.db.Order("name ASC").Find(&tags).Error
	return tags, err
}

func (s *TagService) Get(id uint) (*models.Tag, error) {
	var tag models.Tag
	err := s.db.First(&tag, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTagNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

func (s *TagService) Create(req dto.TagRequest, createdBy uint) (*models.Tag, error) {
	var count int64
	if err := s.db.Model(&models.Tag{}).Where("name = ?", req.Name).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrTagExists
	}
	tag := models.Tag{Name: req.Name, Color: req.Color, CreatedBy: createdBy}
	if tag.Color == "" {
		tag.Color = "#6c757d"
	}
	if err := s.db.Create(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

func (s *TagService) Update(id uint, req dto.TagRequest) error {
	var count int64
	if err := s.db.Model(&models.Tag{}).Where("name = ? AND id <> ?", req.Name, id).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrTagExists
	}
	result := s.db.Model(&models.Tag{}).Where("id = ?", id).Updates(map[string]interface{}{
		"name":  req.Name,
		"color": req.Color,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTagNotFound
	}
	return nil
}

// Delete removes the tag and its contact links in one transaction.
func (s *TagService) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM contact_tags WHERE tag_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Tag{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrTagNotFound
		}
		return nil
	})
}
