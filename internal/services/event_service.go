package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/flopysoft/flopy-crm/internal/dto"
	"github.com/flopysoft/flopy-crm/internal/models"
)

var (
	ErrEventNotFound = errors.New("event not found")
	ErrNotOwner      = errors.New("record belongs to another user")
	ErrDateOrder     = errors.New("end date precedes start date")
)

type EventService struct {
	db *gorm.DB
}

func NewEventService(db *gorm.DB) *EventService {
	return &EventService{db: db}
}

// Get loads an event and enforces ownership.
func (s *EventService) Get(id, userID uint) (*models.Event, error) {
	var event models.Event
	err := s.db.Preload("Contact").First(&event, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	if event.UserID != userID {
		return nil, ErrNotOwner
	}
	return &event, nil
}

func (s *EventService) Create(req dto.EventRequest, userID uint) (*models.Event, error) {
	start, err := parseDateTime(req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDateTime(req.EndDate)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, ErrDateOrder
	}
	event := models.Event{
		UserID:      userID,
		ContactID:   req.ContactID,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartDate:   start,
		EndDate:     end,
		AllDay:      req.AllDay,
		Reminder:    req.Reminder,
	}
	if err := s.db.Create(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (s *EventService) Update(id, userID uint, req dto.EventRequest) error {
	if _, err := s.Get(id, userID); err != nil {
		return err
	}
	start, err := parseDateTime(req.StartDate)
	if err != nil {
		return err
	}
	end, err := parseDateTime(req.EndDate)
	if err != nil {
		return err
	}
	if end.Before(start) {
		return ErrDateOrder
	}
	return s.db.Model(&models.Event{}).Where("id = ?", id).Updates(map[string]interface{}{
		"contact_id":  req.ContactID,
		"title":       req.Title,
		"description": req.Description,
		"location":    req.Location,
		"start_date":  start,
		"end_date":    end,
		"all_day":     req.AllDay,
		"reminder":    req.Reminder,
	}).Error
}

// Move shifts an event's dates, the calendar drag operation.
func (s *EventService) Move(id, userID uint, start, end time.Time) error {
	if _, err := s.Get(id, userID); err != nil {
		return err
	}
	if end.Before(start) {
		return ErrDateOrder
	}
	return s.db.Model(&models.Event{}).Where("id = ?", id).Updates(map[string]interface{}{
		"start_date": start,
		"end_date":   end,
	}).Error
}

func (s *EventService) Delete(id, userID uint) error {
	if _, err := s.Get(id, userID); err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Event{}, id).Error; err != nil {
			return err
		}
		return tx.Model(&models.Reminder{}).
			Where("related_type = ? AND related_id = ? AND status = ?",
				models.RelatedEvent, id, models.ReminderPending).
			Update("status", models.ReminderDismissed).Error
	})
}

// Range returns the user's events overlapping [start, end) for calendar
// feeds: any event that starts before the range ends and ends after it
// begins.
func (s *EventService) Range(userID uint, start, end time.Time) ([]models.Event, error) {
	var events []models.Event
	err := s.db.Preload("Contact").
		Where("user_id = ?", userID).
		Where("start_date < ? AND end_date > ?", end, start).
		Order("start_date ASC").
		Find(&events).Error
	return events, err
}

// Upcoming returns the user's next n events from now on.
func (s *EventService) Upcoming(userID uint, n int, now time.Time) ([]models.Event, error) {
	var events []models.Event
	err := s.db.Preload("Contact").
		Where("user_id = ? AND start_date >= ?", userID, now).
		Order("start_date ASC").Limit(n).
		Find(&events).Error
	return events, err
}

// CountByDayOfWeek buckets the user's events over the trailing number of
// weeks into 7 entries keyed 1..7 with Sunday as 1, zero-filled.
// Bucketing happens here so the query stays portable across drivers.
func (s *EventService) CountByDayOfWeek(userID uint, weeks int, now time.Time) (map[int]int64, error) {
	since := now.AddDate(0, 0, -7*weeks)

	var dates []time.Time
	err := s.db.Model(&models.Event{}).
		Where("user_id = ? AND start_date >= ? AND start_date <= ?", userID, since, now).
		Pluck("start_date", &dates).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[int]int64, 7)
	for d := 1; d <= 7; d++ {
		counts[d] = 0
	}
	for _, d := range dates {
		counts[int(d.Weekday())+1]++
	}
	return counts, nil
}

// NeedingReminders returns future events whose reminder offset has
// already elapsed. The offset check runs here because it mixes a column
// with per-row arithmetic.
func (s *EventService) NeedingReminders(now time.Time) ([]models.Event, error) {
	var events []models.Event
	err := s.db.
		Where("reminder IS NOT NULL AND start_date > ?", now).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	due := events[:0]
	for _, event := range events {
		remindAt := event.StartDate.Add(-time.Duration(*event.Reminder) * time.Minute)
		if !remindAt.After(now) {
			due = append(due, event)
		}
	}
	return due, nil
}
