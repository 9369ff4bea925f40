package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flopysoft/flopy-crm/internal/dto"
	"github.com/flopysoft/flopy-crm/internal/models"
)

func TestReminderCreateDefaults(t *testing.T) {
	db := testDB(t)
	seedRoles(t, db)
	user := seedUser(t, db, "agent@example.com")
	reminders := NewReminderService(db)

	created, err := reminders.Create(dto.ReminderRequest{
		Title: "Call Ada", DueDate: "2026-03-05 09:00",
	}, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PriorityMedium, created.Priority)
	assert.Equal(t, models.ReminderPending, created.Status)
	assert.Nil(t, created.RelatedType)

	_, err = reminders.Create(dto.ReminderRequest{
		Title: "Bad", DueDate: "2026-03-05 09:00", Priority: "urgent",
	}, user.ID)
	assert.ErrorIs(t, err, ErrBadPriority)

	_, err = reminders.Create(dto.ReminderRequest{Title: "No date"}, user.ID)
	assert.ErrorIs(t, err, ErrBadDate)
}

func TestReminderRelatedPairBothOrNeither(t *testing.T) {
	db := testDB(t)
	seedRoles(t, db)
	user := seedUser(t, db, "agent@example.com")
	reminders := NewReminderService(db)

	// A related type without an id is dropped.
	created, err := reminders.Create(dto.ReminderRequest{
		Title: "Half", DueDate: "2026-03-05 09:00", RelatedType: models.RelatedDeal,
	}, user.ID)
	require.NoError(t, err)
	assert.Nil(t, created.RelatedType)
	assert.Nil(t, created.RelatedID)

	id := uint(7)
	created, err = reminders.Create(dto.ReminderRequest{
		Title: "Full", DueDate: "2026-03-05 09:00",
		RelatedType: models.RelatedDeal, RelatedID: &id,
	}, user.ID)
	require.NoError(t, err)
	require.NotNil(t, created.RelatedType)
	assert.Equal(t, models.RelatedDeal, *created.RelatedType)
}

func TestReminderOwnership(t *testing.T) {
	db := testDB(t)
	seedRoles(t, db)
	owner := seedUser(t, db, "owner@example.com")
	other := seedUser(t, db, "other@example.com")
	reminders := NewReminderService(db)

	created, err := reminders.Create(dto.ReminderRequest{
		Title: "Private", DueDate: "2026-03-05 09:00",
	}, owner.ID)
	require.NoError(t, err)

	_, err = reminders.Get(created.ID, other.ID)
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.ErrorIs(t, reminders.Delete(created.ID, other.ID), ErrNotOwner)
	assert.ErrorIs(t, reminders.UpdateStatus(created.ID, other.ID, models.ReminderCompleted), ErrNotOwner)

	require.NoError(t, reminders.UpdateStatus(created.ID, owner.ID, models.ReminderCompleted))
	got, err := reminders.Get(created.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReminderCompleted, got.Status)

	assert.ErrorIs(t, reminders.UpdateStatus(created.ID, owner.ID, "snoozed"), ErrBadReminderState)
}

func TestReminderDueAndUpcoming(t *testing.T) {
	db := testDB(t)
	seedRoles(t, db)
	user := seedUser(t, db, "agent@example.com")
	reminders := NewReminderService(db)

	seed := []dto.ReminderRequest{
		{Title: "overdue", DueDate: "2026-03-01 09:00"},
		{Title: "due now", DueDate: "2026-03-02 12:00"},
		{Title: "tomorrow", DueDate: "2026-03-03 09:00"},
		{Title: "next week", DueDate: "2026-03-09 09:00"},
	}
	for _, req := range seed {
		_, err := reminders.Create(req, user.ID)
		require.NoError(t, err)
	}

	due, err := reminders.Due(user.ID, testNow())
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, "overdue", due[0].Title)

	upcoming, err := reminders.Upcoming(user.ID, 1, testNow())
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, "tomorrow", upcoming[0].Title)
}

func TestReminderCountByStatusZeroFilled(t *testing.T) {
	db := testDB(t)
	seedRoles(t, db)
	user := seedUser(t, db, "agent@example.com")
	reminders := NewReminderService(db)

	created, err := reminders.Create(dto.ReminderRequest{
		Title: "One", DueDate: "2026-03-05 09:00",
	}, user.ID)
	require.NoError(t, err)
	require.NoError(t, reminders.UpdateStatus(created.ID, user.ID, models.ReminderCompleted))

	counts, err := reminders.CountByStatus(user.ID)
	require.NoError(t, err)
	require.Len(t, counts, 3)
	assert.EqualValues(t, 0, counts[models.ReminderPending])
	assert.EqualValues(t, 1, counts[models.ReminderCompleted])
	assert.EqualValues(t, 0, counts[models.ReminderDismissed])
}

func TestEnsureEventRemindersIdempotent(t *testing.T) {
	db := testDB(t)
	seedRoles(t, db)
	user := seedUser(t, db, "agent@example.com")
	events := NewEventService(db)
	reminders := NewReminderService(db)

	offset := 30
	event, err := events.Create(dto.EventRequest{
		Title: "Standup", StartDate: "2026-03-02 12:15", EndDate: "2026-03-02 12:30", Reminder: &offset,
	}, user.ID)
	require.NoError(t, err)

	due, err := events.NeedingReminders(testNow())
	require.NoError(t, err)
	require.Len(t, due, 1)

	require.NoError(t, reminders.EnsureEventReminders(due))
	require.NoError(t, reminders.EnsureEventReminders(due))

	var count int64
	require.NoError(t, db.Model(&models.Reminder{}).Count(&count).Error)
	assert.EqualValues(t, 1, count, "repeated runs create no duplicates")

	var reminder models.Reminder
	require.NoError(t, db.First(&reminder).Error)
	assert.Equal(t, "Upcoming event: Standup", reminder.Title)
	assert.Equal(t, user.ID, reminder.UserID)
	assert.True(t, reminder.DueDate.Equal(event.StartDate))
}

func TestReminderRelatedName(t *testing.T) {
	db := testDB(t)
	seedRoles(t, db)
	user := seedUser(t, db, "agent@example.com")
	contacts := NewContactService(db)
	reminders := NewReminderService(db)

	contact, err := contacts.Create(dto.ContactRequest{FirstName: "Ada", LastName: "Lovelace"}, user.ID)
	require.NoError(t, err)

	contactID := contact.ID
	created, err := reminders.Create(dto.ReminderRequest{
		Title: "Call", DueDate: "2026-03-05 09:00",
		RelatedType: models.RelatedContact, RelatedID: &contactID,
	}, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", reminders.RelatedName(created))

	// Dangling references are tolerated.
	missing := uint(999)
	dangling, err := reminders.Create(dto.ReminderRequest{
		Title: "Ghost", DueDate: "2026-03-05 09:00",
		RelatedType: models.RelatedDeal, RelatedID: &missing,
	}, user.ID)
	require.NoError(t, err)
	assert.Empty(t, reminders.RelatedName(dangling))

	plain, err := reminders.Create(dto.ReminderRequest{
		Title: "Plain", DueDate: "2026-03-05 09:00",
	}, user.ID)
	require.NoError(t, err)
	assert.Empty(t, reminders.RelatedName(plain))
}

func TestReminderListFilter(t *testing.T) {
	db := testDB(t)
	seedRoles(t, db)
	owner := seedUser(t, db, "owner@example.com")
	other := seedUser(t, db, "other@example.com")
	reminders := NewReminderService(db)

	_, err := reminders.Create(dto.ReminderRequest{
		Title: "Mine high", DueDate: "2026-03-05 09:00", Priority: models.PriorityHigh,
	}, owner.ID)
	require.NoError(t, err)
	_, err = reminders.Create(dto.ReminderRequest{
		Title: "Mine low", DueDate: "2026-03-06 09:00", Priority: models.PriorityLow,
	}, owner.ID)
	require.NoError(t, err)
	_, err = reminders.Create(dto.ReminderRequest{
		Title: "Not mine", DueDate: "2026-03-05 09:00",
	}, other.ID)
	require.NoError(t, err)

	list, err := reminders.List(dto.ReminderFilter{UserID: owner.ID}, dto.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = reminders.List(dto.ReminderFilter{UserID: owner.ID, Priority: models.PriorityHigh}, dto.ListOptions{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Mine high", list[0].Title)

	count, err := reminders.Count(dto.ReminderFilter{UserID: owner.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}
