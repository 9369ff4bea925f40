package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/flopysoft/flopy-crm/internal/dto"
	"github.com/flopysoft/flopy-crm/internal/models"
)

var (
	ErrInteractionNotFound = errors.New("interaction not found")
	ErrBadInteractionType  = errors.New("unknown interaction type")
	ErrBadStatus           = errors.New("unknown interaction status")
)

var interactionSortFields = []string{"date", "type", "subject", "status", "created_at"}

type InteractionService struct {
	db *gorm.DB
}

func NewInteractionService(db *gorm.DB) *InteractionService {
	return &InteractionService{db: db}
}

func (s *InteractionService) applyFilter(query *gorm.DB, filter dto.InteractionFilter) *gorm.DB {
	if filter.ContactID != 0 {
		query = query.Where("contact_id = ?", filter.ContactID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.DateFrom != nil {
		query = query.Where("date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("date <= ?", *filter.DateTo)
	}
	return query
}

func (s *InteractionService) List(filter dto.InteractionFilter, opts dto.ListOptions) ([]models.Interaction, error) {
	var interactions []models.Interaction
	query := s.applyFilter(s.db.Model(&models.Interaction{}), filter).Preload("Contact")
	query = applyListOptions(query, opts, "date", interactionSortFields)
	return interactions, query.Find(&interactions).Error
}

func (s *InteractionService) Count(filter dto.InteractionFilter) (int64, error) {
	var count int64
	err := s.applyFilter(s.db.Model(&models.Interaction{}), filter).Count(&count).Error
	return count, err
}

func (s *InteractionService) Get(id uint) (*models.Interaction, error) {
	var interaction models.Interaction
	err := s.db.Preload("Contact").First(&interaction, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInteractionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &interaction, nil
}

func (s *InteractionService) Create(req dto.InteractionRequest, createdBy uint) (*models.Interaction, error) {
	if !models.ValidInteractionType(req.Type) {
		return nil, ErrBadInteractionType
	}
	status := req.Status
	if status == "" {
		status = models.InteractionPlanned
	}
	if !models.ValidInteractionStatus(status) {
		return nil, ErrBadStatus
	}
	date, err := parseDateTime(req.Date)
	if err != nil {
		return nil, err
	}
	interaction := models.Interaction{
		ContactID: req.ContactID,
		CreatedBy: createdBy,
		Type:      req.Type,
		Subject:   req.Subject,
		Notes:     req.Notes,
		Date:      date,
		Status:    status,
		Outcome:   req.Outcome,
	}
	if err := s.db.Create(&interaction).Error; err != nil {
		return nil, err
	}
	return &interaction, nil
}

func (s *InteractionService) Update(id uint, req dto.InteractionRequest) error {
	if !models.ValidInteractionType(req.Type) {
		return ErrBadInteractionType
	}
	if !models.ValidInteractionStatus(req.Status) {
		return ErrBadStatus
	}
	date, err := parseDateTime(req.Date)
	if err != nil {
		return err
	}
	result := s.db.Model(&models.Interaction{}).Where("id = ?", id).Updates(map[string]interface{}{
		"type":    req.Type,
		"subject": req.Subject,
		"notes":   req.Notes,
		"date":    date,
		"status":  req.Status,
		"outcome": req.Outcome,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInteractionNotFound
	}
	return nil
}

func (s *InteractionService) Delete(id uint) error {
	result := s.db.Delete(&models.Interaction{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInteractionNotFound
	}
	return nil
}

// UpdateStatus moves an interaction between planned/completed/canceled
// and records the outcome text alongside.
func (s *InteractionService) UpdateStatus(id uint, status, outcome string) error {
	if !models.ValidInteractionStatus(status) {
		return ErrBadStatus
	}
	result := s.db.Model(&models.Interaction{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":  status,
		"outcome": outcome,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInteractionNotFound
	}
	return nil
}

// CountByType returns a count for every interaction type, zero-filled.
func (s *InteractionService) CountByType() (map[string]int64, error) {
	return s.countByColumn("type", models.InteractionTypes)
}

// CountByStatus returns a count for every status, zero-filled.
func (s *InteractionService) CountByStatus() (map[string]int64, error) {
	return s.countByColumn("status", models.InteractionStatuses)
}

func (s *InteractionService) countByColumn(column string, domain []string) (map[string]int64, error) {
	var rows []labelCount
	err := s.db.Model(&models.Interaction{}).
		Select(column + " AS label, COUNT(*) AS count").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(domain))
	for _, v := range domain {
		counts[v] = 0
	}
	for _, row := range rows {
		counts[row.Label] = row.Count
	}
	return counts, nil
}

// CountByMonth returns 12 entries keyed 1..12 for the given year, with
// zeros for empty months. Bucketing happens here rather than in SQL so
// the query stays portable across database drivers.
func (s *InteractionService) CountByMonth(year int) (map[int]int64, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	var dates []time.Time
	err := s.db.Model(&models.Interaction{}).
		Where("date >= ? AND date < ?", start, end).
		Pluck("date", &dates).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[int]int64, 12)
	for m := 1; m <= 12; m++ {
		counts[m] = 0
	}
	for _, d := range dates {
		counts[int(d.Month())]++
	}
	return counts, nil
}

// UpcomingPlanned returns the next n planned interactions from now on.
func (s *InteractionService) UpcomingPlanned(n int, now time.Time) ([]models.Interaction, error) {
	var interactions []models.Interaction
	err := s.db.Preload("Contact").
		Where("status = ? AND date >= ?", models.InteractionPlanned, now).
		Order("date ASC").Limit(n).
		Find(&interactions).Error
	return interactions, err
}

// RecentCompleted returns the n most recently completed interactions.
func (s *InteractionService) RecentCompleted(n int) ([]models.Interaction, error) {
	var interactions []models.Interaction
	err := s.db.Preload("Contact").
		Where("status = ?", models.InteractionCompleted).
		Order("date DESC").Limit(n).
		Find(&interactions).Error
	return interactions, err
}

// Range returns interactions dated within [start, end] for calendar
// views.
func (s *InteractionService) Range(start, end time.Time) ([]models.Interaction, error) {
	var interactions []models.Interaction
	err := s.db.Preload("Contact").
		Where("date >= ? AND date <= ?", start, end).
		Order("date ASC").
		Find(&interactions).Error
	return interactions, err
}
