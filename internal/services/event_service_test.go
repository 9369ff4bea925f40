package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flopysoft/flopy-crm/internal/dto"
	"github.com/flopysoft/flopy-crm/internal/models"
)

func TestEventCreateAndOwnership(t *testing.T) {
	db := testDB(t)
	seedRoles(t, db)
	owner := seedUser(t, db, "owner@example.com")
	other := seedUser(t, db, "other@example.com")
	events := NewEventService(db)

	created, err := events.Create(dto.EventRequest{
		Title:     "Kickoff",
		StartDate: "2026-03-03 10:00",
		EndDate:   "2026-03-03 11:00",
	}, owner.ID)
	require.NoError(t, err)

	got, err := events.Get(created.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kickoff", got.Title)

	_, err = events.Get(created.ID, other.ID)
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = events.Get(999, owner.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestEventCreateRejectsBackwardsDates(t *testing.T) {
	db := testDB(t)
	seedRoles(t, db)
	user := seedUser(t, db, "agent@example.com")
	events := NewEventService(db)

	_, err := events.Create(dto.EventRequest{
		Title:     "Backwards",
		StartDate: "2026-03-03 11:00",
		EndDate:   "2026-03-03 10:00",
	}, user.ID)
	assert.ErrorIs(t, err, ErrDateOrder)
}

func TestEventMove(t *testing.T) {
	db := testDB(t)
	seedRoles(t, db)
	owner := seedUser(t, db, "owner@example.com")
	other := seedUser(t, db, "other@example.com")
	events := NewEventService(db)

	created, err := events.Create(dto.EventRequest{
		Title:     "Movable",
		StartDate: "2026-03-03 10:00",
		EndDate:   "2026-03-03 11:00",
	}, owner.ID)
	require.NoError(t, err)

	start := time.Date(2026, time.March, 4, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	require.NoError(t, events.Move(created.ID, owner.ID, start, end))

	got, err := events.Get(created.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, got.StartDate.Equal(start))

	assert.ErrorIs(t, events.Move(created.ID, other.ID, start, end), ErrNotOwner)
	assert.ErrorIs(t, events.Move(created.ID, owner.ID, end, start), ErrDateOrder)
}

func TestEventRangeOverlap(t *testing.T) {
	db := testDB(t)
	seedRoles(t, db)
	user := seedUser(t, db, "agent@example.com")
	events := NewEventService(db)

	seed := []dto.EventRequest{
		{Title: "before", StartDate: "2026-03-01 08:00", EndDate: "2026-03-01 09:00"},
		{Title: "spans start", StartDate: "2026-03-01 23:00", EndDate: "2026-03-02 01:00"},
		{Title: "inside", StartDate: "2026-03-02 10:00", EndDate: "2026-03-02 11:00"},
		{Title: "after", StartDate: "2026-03-05 10:00", EndDate: "2026-03-05 11:00"},
	}
	for _, req := range seed {
		_, err := events.Create(req, user.ID)
		require.NoError(t, err)
	}

	start := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)
	list, err := events.Range(user.ID, start, end)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "spans start", list[0].Title)
	assert.Equal(t, "inside", list[1].Title)
}

func TestEventCountByDayOfWeek(t *testing.T) {
	db := testDB(t)
	seedRoles(t, db)
	user := seedUser(t, db, "agent@example.com")
	events := NewEventService(db)

	// testNow is Monday 2026-03-02; both events fall inside a 4-week
	// trailing window.
	seed := []dto.EventRequest{
		{Title: "sunday", StartDate: "2026-03-01 10:00", EndDate: "2026-03-01 11:00"},
		{Title: "another sunday", StartDate: "2026-02-22 10:00", EndDate: "2026-02-22 11:00"},
		{Title: "friday", StartDate: "2026-02-27 10:00", EndDate: "2026-02-27 11:00"},
		{Title: "too old", StartDate: "2026-01-02 10:00", EndDate: "2026-01-02 11:00"},
	}
	for _, req := range seed {
		_, err := events.Create(req, user.ID)
		require.NoError(t, err)
	}

	counts, err := events.CountByDayOfWeek(user.ID, 4, testNow())
	require.NoError(t, err)
	require.Len(t, counts, 7, "all seven days appear, zero-filled")
	assert.EqualValues(t, 2, counts[1], "Sunday is day 1")
	assert.EqualValues(t, 1, counts[6], "Friday is day 6")
	assert.EqualValues(t, 0, counts[4])
}

func TestEventNeedingReminders(t *testing.T) {
	db := testDB(t)
	seedRoles(t, db)
	user := seedUser(t, db, "agent@example.com")
	events := NewEventService(db)

	soon := 30
	notYet := 5
	seed := []dto.EventRequest{
		{Title: "due", StartDate: "2026-03-02 12:10", EndDate: "2026-03-02 13:00", Reminder: &soon},
		{Title: "not yet", StartDate: "2026-03-02 12:10", EndDate: "2026-03-02 13:00", Reminder: &notYet},
		{Title: "no reminder", StartDate: "2026-03-02 12:10", EndDate: "2026-03-02 13:00"},
		{Title: "already started", StartDate: "2026-03-02 11:00", EndDate: "2026-03-02 13:00", Reminder: &soon},
	}
	for _, req := range seed {
		_, err := events.Create(req, user.ID)
		require.NoError(t, err)
	}

	due, err := events.NeedingReminders(testNow())
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "due", due[0].Title)
}

func TestEventDeleteDismissesReminders(t *testing.T) {
	db := testDB(t)
	seedRoles(t, db)
	user := seedUser(t, db, "agent@example.com")
	events := NewEventService(db)
	reminders := NewReminderService(db)

	created, err := events.Create(dto.EventRequest{
		Title: "Doomed", StartDate: "2026-03-03 10:00", EndDate: "2026-03-03 11:00",
	}, user.ID)
	require.NoError(t, err)

	eventID := created.ID
	_, err = reminders.Create(dto.ReminderRequest{
		Title: "Prepare", DueDate: "2026-03-03 09:00",
		RelatedType: models.RelatedEvent, RelatedID: &eventID,
	}, user.ID)
	require.NoError(t, err)

	require.NoError(t, events.Delete(created.ID, user.ID))

	var reminder models.Reminder
	require.NoError(t, db.First(&reminder).Error)
	assert.Equal(t, models.ReminderDismissed, reminder.Status)
}
