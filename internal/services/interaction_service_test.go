package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flopysoft/flopy-crm/internal/dto"
	"github.com/flopysoft/flopy-crm/internal/models"
)

func seedContact(t *testing.T, s *ContactService, createdBy uint) *models.Contact {
	t.Helper()
	contact, err := s.Create(dto.ContactRequest{FirstName: "Ada", LastName: "Lovelace"}, createdBy)
	require.NoError(t, err)
	return contact
}

func TestInteractionCreateDefaults(t *testing.T) {
	db := testDB(t)
	seedRoles(t, db)
	user := seedUser(t, db, "agent@example.com")
	contact := seedContact(t, NewContactService(db), user.ID)
	interactions := NewInteractionService(db)

	created, err := interactions.Create(dto.InteractionRequest{
		ContactID: contact.ID,
		Type:      models.InteractionCall,
		Subject:   "Intro call",
		Date:      "2026-03-01 10:00",
	}, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InteractionPlanned, created.Status, "status defaults to planned")
	assert.Equal(t, user.ID, created.CreatedBy)

	_, err = interactions.Create(dto.InteractionRequest{
		ContactID: contact.ID, Type: "fax", Subject: "Nope", Date: "2026-03-01 10:00",
	}, user.ID)
	assert.ErrorIs(t, err, ErrBadInteractionType)

	_, err = interactions.Create(dto.InteractionRequest{
		ContactID: contact.ID, Type: models.InteractionCall, Status: "done", Date: "2026-03-01 10:00",
	}, user.ID)
	assert.ErrorIs(t, err, ErrBadStatus)

	_, err = interactions.Create(dto.InteractionRequest{
		ContactID: contact.ID, Type: models.InteractionCall, Date: "not-a-date",
	}, user.ID)
	assert.ErrorIs(t, err, ErrBadDate)
}

func TestInteractionUpdateStatus(t *testing.T) {
	db := testDB(t)
	seedRoles(t, db)
	user := seedUser(t, db, "agent@example.com")
	contact := seedContact(t, NewContactService(db), user.ID)
	interactions := NewInteractionService(db)

	created, err := interactions.Create(dto.InteractionRequest{
		ContactID: contact.ID, Type: models.InteractionMeeting, Subject: "Demo", Date: "2026-03-01 10:00",
	}, user.ID)
	require.NoError(t, err)

	require.NoError(t, interactions.UpdateStatus(created.ID, models.InteractionCompleted, "Went well"))

	got, err := interactions.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InteractionCompleted, got.Status)
	assert.Equal(t, "Went well", got.Outcome)

	assert.ErrorIs(t, interactions.UpdateStatus(created.ID, "done", ""), ErrBadStatus)
	assert.ErrorIs(t, interactions.UpdateStatus(999, models.InteractionCanceled, ""), ErrInteractionNotFound)
}

func TestInteractionListFilter(t *testing.T) {
	db := testDB(t)
	seedRoles(t, db)
	user := seedUser(t, db, "agent@example.com")
	contacts := NewContactService(db)
	first := seedContact(t, contacts, user.ID)
	second, err := contacts.Create(dto.ContactRequest{FirstName: "Grace", LastName: "Hopper"}, user.ID)
	require.NoError(t, err)
	interactions := NewInteractionService(db)

	seed := []dto.InteractionRequest{
		{ContactID: first.ID, Type: models.InteractionCall, Subject: "a", Date: "2026-03-01 09:00"},
		{ContactID: first.ID, Type: models.InteractionEmail, Subject: "b", Date: "2026-03-02 09:00"},
		{ContactID: second.ID, Type: models.InteractionCall, Subject: "c", Date: "2026-03-03 09:00"},
	}
	for _, req := range seed {
		_, err := interactions.Create(req, user.ID)
		require.NoError(t, err)
	}

	list, err := interactions.List(dto.InteractionFilter{ContactID: first.ID}, dto.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = interactions.List(dto.InteractionFilter{Type: models.InteractionCall}, dto.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	count, err := interactions.Count(dto.InteractionFilter{ContactID: first.ID, Type: models.InteractionCall})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestInteractionCountByMonth(t *testing.T) {
	db := testDB(t)
	seedRoles(t, db)
	user := seedUser(t, db, "agent@example.com")
	contact := seedContact(t, NewContactService(db), user.ID)
	interactions := NewInteractionService(db)

	dates := []string{
		"2026-03-05 10:00", "2026-03-12 10:00", "2026-03-30 10:00",
		"2026-05-01 10:00",
		"2025-03-01 10:00", // other year, out of scope
	}
	for _, date := range dates {
		_, err := interactions.Create(dto.InteractionRequest{
			ContactID: contact.ID, Type: models.InteractionCall, Subject: "x", Date: date,
		}, user.ID)
		require.NoError(t, err)
	}

	counts, err := interactions.CountByMonth(2026)
	require.NoError(t, err)
	require.Len(t, counts, 12, "every month appears, zero-filled")
	assert.EqualValues(t, 3, counts[3])
	assert.EqualValues(t, 1, counts[5])
	assert.EqualValues(t, 0, counts[1])
}

func TestInteractionCountByTypeZeroFilled(t *testing.T) {
	db := testDB(t)
	seedRoles(t, db)
	user := seedUser(t, db, "agent@example.com")
	contact := seedContact(t, NewContactService(db), user.ID)
	interactions := NewInteractionService(db)

	_, err := interactions.Create(dto.InteractionRequest{
		ContactID: contact.ID, Type: models.InteractionCall, Subject: "x", Date: "2026-03-01 10:00",
	}, user.ID)
	require.NoError(t, err)

	counts, err := interactions.CountByType()
	require.NoError(t, err)
	require.Len(t, counts, len(models.InteractionTypes))
	assert.EqualValues(t, 1, counts[models.InteractionCall])
	assert.EqualValues(t, 0, counts[models.InteractionMeeting])
}

func TestInteractionUpcomingPlanned(t *testing.T) {
	db := testDB(t)
	seedRoles(t, db)
	user := seedUser(t, db, "agent@example.com")
	contact := seedContact(t, NewContactService(db), user.ID)
	interactions := NewInteractionService(db)

	seed := []dto.InteractionRequest{
		{ContactID: contact.ID, Type: models.InteractionCall, Subject: "past", Date: "2026-03-01 09:00"},
		{ContactID: contact.ID, Type: models.InteractionCall, Subject: "soon", Date: "2026-03-03 09:00"},
		{ContactID: contact.ID, Type: models.InteractionCall, Subject: "later", Date: "2026-03-10 09:00"},
		{ContactID: contact.ID, Type: models.InteractionCall, Subject: "done", Date: "2026-03-04 09:00", Status: models.InteractionCompleted},
	}
	for _, req := range seed {
		_, err := interactions.Create(req, user.ID)
		require.NoError(t, err)
	}

	upcoming, err := interactions.UpcomingPlanned(5, testNow())
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, "soon", upcoming[0].Subject)
	assert.Equal(t, "later", upcoming[1].Subject)
}
