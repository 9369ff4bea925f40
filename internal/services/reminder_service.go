package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/flopysoft/flopy-crm/internal/dto"
	"github.com/flopysoft/flopy-crm/internal/models"
)

var (
	ErrReminderNotFound = errors.New("reminder not found")
	ErrBadPriority      = errors.New("unknown reminder priority")
	ErrBadReminderState = errors.New("unknown reminder status")
)

var reminderSortFields = []string{"due_date", "priority", "status", "title", "created_at"}

type ReminderService struct {
	db *gorm.DB
}

func NewReminderService(db *gorm.DB) *ReminderService {
	return &ReminderService{db: db}
}

func (s *ReminderService) applyFilter(query *gorm.DB, filter dto.ReminderFilter) *gorm.DB {
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}
	return query
}

func (s *ReminderService) List(filter dto.ReminderFilter, opts dto.ListOptions) ([]models.Reminder, error) {
	var reminders []models.Reminder
	query := s.applyFilter(s.db.Model(&models.Reminder{}), filter)
	query = applyListOptions(query, opts, "due_date", reminderSortFields)
	return reminders, query.Find(&reminders).Error
}

func (s *ReminderService) Count(filter dto.ReminderFilter) (int64, error) {
	var count int64
	err := s.applyFilter(s.db.Model(&models.Reminder{}), filter).Count(&count).Error
	return count, err
}

// Get loads a reminder and enforces ownership.
func (s *ReminderService) Get(id, userID uint) (*models.Reminder, error) {
	var reminder models.Reminder
	err := s.db.First(&reminder, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReminderNotFound
	}
	if err != nil {
		return nil, err
	}
	if reminder.UserID != userID {
		return nil, ErrNotOwner
	}
	return &reminder, nil
}

func (s *ReminderService) Create(req dto.ReminderRequest, userID uint) (*models.Reminder, error) {
	due, err := parseDateTime(req.DueDate)
	if err != nil {
		return nil, err
	}
	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !models.ValidReminderPriority(priority) {
		return nil, ErrBadPriority
	}
	reminder := models.Reminder{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     due,
		Priority:    priority,
		Status:      models.ReminderPending,
	}
	if req.RelatedType != "" && req.RelatedID != nil {
		relatedType := req.RelatedType
		reminder.RelatedType = &relatedType
		reminder.RelatedID = req.RelatedID
	}
	if err := s.db.Create(&reminder).Error; err != nil {
		return nil, err
	}
	return &reminder, nil
}

func (s *ReminderService) Update(id, userID uint, req dto.ReminderRequest) error {
	if _, err := s.Get(id, userID); err != nil {
		return err
	}
	due, err := parseDateTime(req.DueDate)
	if err != nil {
		return err
	}
	if !models.ValidReminderPriority(req.Priority) {
		return ErrBadPriority
	}
	updates := map[string]interface{}{
		"title":       req.Title,
		"description": req.Description,
		"due_date":    due,
		"priority":    req.Priority,
	}
	if req.RelatedType != "" && req.RelatedID != nil {
		updates["related_type"] = req.RelatedType
		updates["related_id"] = *req.RelatedID
	} else {
		updates["related_type"] = nil
		updates["related_id"] = nil
	}
	return s.db.Model(&models.Reminder{}).Where("id = ?", id).Updates(updates).Error
}

func (s *ReminderService) Delete(id, userID uint) error {
	if _, err := s.Get(id, userID); err != nil {
		return err
	}
	return s.db.Delete(&models.Reminder{}, id).Error
}

// UpdateStatus completes or dismisses a reminder, or reopens it.
func (s *ReminderService) UpdateStatus(id, userID uint, status string) error {
	if !models.ValidReminderStatus(status) {
		return ErrBadReminderState
	}
	if _, err := s.Get(id, userID); err != nil {
		return err
	}
	return s.db.Model(&models.Reminder{}).Where("id = ?", id).Update("status", status).Error
}

// CountByStatus returns one entry per status, zero-filled.
func (s *ReminderService) CountByStatus(userID uint) (map[string]int64, error) {
	var rows []labelCount
	err := s.db.Model(&models.Reminder{}).
		Select("status AS label, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(models.ReminderStatuses))
	for _, status := range models.ReminderStatuses {
		counts[status] = 0
	}
	for _, row := range rows {
		counts[row.Label] = row.Count
	}
	return counts, nil
}

// Due returns pending reminders whose due date has arrived.
func (s *ReminderService) Due(userID uint, now time.Time) ([]models.Reminder, error) {
	var reminders []models.Reminder
	err := s.db.
		Where("user_id = ? AND status = ? AND due_date <= ?", userID, models.ReminderPending, now).
		Order("due_date ASC").
		Find(&reminders).Error
	return reminders, err
}

// Upcoming returns the user's next n pending reminders.
func (s *ReminderService) Upcoming(userID uint, n int, now time.Time) ([]models.Reminder, error) {
	var reminders []models.Reminder
	err := s.db.
		Where("user_id = ? AND status = ? AND due_date > ?", userID, models.ReminderPending, now).
		Order("due_date ASC").Limit(n).
		Find(&reminders).Error
	return reminders, err
}

// EnsureEventReminders creates a pending reminder for each event whose
// reminder offset has elapsed and that has no reminder yet. Repeated
// calls are idempotent.
func (s *ReminderService) EnsureEventReminders(events []models.Event) error {
	for _, event := range events {
		var count int64
		err := s.db.Model(&models.Reminder{}).
			Where("related_type = ? AND related_id = ?", models.RelatedEvent, event.ID).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		relatedType := models.RelatedEvent
		relatedID := event.ID
		reminder := models.Reminder{
			UserID:      event.UserID,
			Title:       fmt.Sprintf("Upcoming event: %s", event.Title),
			Description: event.Description,
			DueDate:     event.StartDate,
			Priority:    models.PriorityMedium,
			Status:      models.ReminderPending,
			RelatedType: &relatedType,
			RelatedID:   &relatedID,
		}
		if err := s.db.Create(&reminder).Error; err != nil {
			return err
		}
	}
	return nil
}

// RelatedName resolves the display name of a reminder's related record.
// The reference is weak, so a dangling reference yields an empty string.
func (s *ReminderService) RelatedName(reminder *models.Reminder) string {
	if reminder.RelatedType == nil || reminder.RelatedID == nil {
		return ""
	}
	id := *reminder.RelatedID
	switch *reminder.RelatedType {
	case models.RelatedContact:
		var contact models.Contact
		if err := s.db.Select("first_name", "last_name").First(&contact, id).Error; err != nil {
			return ""
		}
		return contact.FullName()
	case models.RelatedDeal:
		var deal models.Deal
		if err := s.db.Select("title").First(&deal, id).Error; err != nil {
			return ""
		}
		return deal.Title
	case models.RelatedEvent:
		var event models.Event
		if err := s.db.Select("title").First(&event, id).Error; err != nil {
			return ""
		}
		return event.Title
	case models.RelatedInteraction:
		var interaction models.Interaction
		if err := s.db.Select("subject").First(&interaction, id).Error; err != nil {
			return ""
		}
		return interaction.Subject
	default:
		return ""
	}
}
