package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flopysoft/flopy-crm/internal/dto"
	"github.com/flopysoft/flopy-crm/internal/models"
)

func TestDealCreateDefaults(t *testing.T) {
	db := testDB(t)
	seedRoles(t, db)
	user := seedUser(t, db, "agent@example.com")
	contact := seedContact(t, NewContactService(db), user.ID)
	deals := NewDealService(db)

	created, err := deals.Create(dto.DealRequest{
		ContactID: contact.ID, Title: "Pilot", Amount: 1000,
	}, user.ID, testNow())
	require.NoError(t, err)
	assert.Equal(t, models.StageLead, created.Stage)
	assert.Equal(t, 10, created.Probability)
	assert.Nil(t, created.ActualCloseDate)

	_, err = deals.Create(dto.DealRequest{
		ContactID: contact.ID, Title: "Bad", Stage: "limbo",
	}, user.ID, testNow())
	assert.ErrorIs(t, err, ErrBadStage)
}

func TestDealCreateClosedStampsCloseDate(t *testing.T) {
	db := testDB(t)
	seedRoles(t, db)
	user := seedUser(t, db, "agent@example.com")
	contact := seedContact(t, NewContactService(db), user.ID)
	deals := NewDealService(db)

	created, err := deals.Create(dto.DealRequest{
		ContactID: contact.ID, Title: "Quick win", Amount: 500, Stage: models.StageClosedWon,
	}, user.ID, testNow())
	require.NoError(t, err)
	assert.Equal(t, 100, created.Probability)
	require.NotNil(t, created.ActualCloseDate)
	assert.True(t, created.ActualCloseDate.Equal(testNow()))
}

func TestDealProbabilityClamped(t *testing.T) {
	db := testDB(t)
	seedRoles(t, db)
	user := seedUser(t, db, "agent@example.com")
	contact := seedContact(t, NewContactService(db), user.ID)
	deals := NewDealService(db)

	over := 150
	created, err := deals.Create(dto.DealRequest{
		ContactID: contact.ID, Title: "Hot", Probability: &over,
	}, user.ID, testNow())
	require.NoError(t, err)
	assert.Equal(t, 100, created.Probability)

	under := -5
	created, err = deals.Create(dto.DealRequest{
		ContactID: contact.ID, Title: "Cold", Probability: &under,
	}, user.ID, testNow())
	require.NoError(t, err)
	assert.Equal(t, 0, created.Probability)
}

func TestDealUpdateStageLifecycle(t *testing.T) {
	db := testDB(t)
	seedRoles(t, db)
	user := seedUser(t, db, "agent@example.com")
	contact := seedContact(t, NewContactService(db), user.ID)
	deals := NewDealService(db)

	created, err := deals.Create(dto.DealRequest{
		ContactID: contact.ID, Title: "Lifecycle", Amount: 100,
	}, user.ID, testNow())
	require.NoError(t, err)

	require.NoError(t, deals.UpdateStage(created.ID, models.StageProposal, testNow()))
	got, err := deals.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, got.Probability, "probability resets to the stage default")
	assert.Nil(t, got.ActualCloseDate)

	closeTime := testNow()
	require.NoError(t, deals.UpdateStage(created.ID, models.StageClosedWon, closeTime))
	got, err = deals.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, got.Probability)
	require.NotNil(t, got.ActualCloseDate)
	assert.True(t, got.ActualCloseDate.Equal(closeTime))

	// Moving between closed stages keeps the original stamp.
	later := closeTime.Add(48 * time.Hour)
	require.NoError(t, deals.UpdateStage(created.ID, models.StageClosedLost, later))
	got, err = deals.Get(created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ActualCloseDate)
	assert.True(t, got.ActualCloseDate.Equal(closeTime))

	// Reopening clears it.
	require.NoError(t, deals.UpdateStage(created.ID, models.StageNegotiation, later))
	got, err = deals.Get(created.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ActualCloseDate)
	assert.Equal(t, 80, got.Probability)

	assert.ErrorIs(t, deals.UpdateStage(created.ID, "limbo", later), ErrBadStage)
	assert.ErrorIs(t, deals.UpdateStage(999, models.StageLead, later), ErrDealNotFound)
}

func TestDealForecast(t *testing.T) {
	db := testDB(t)
	seedRoles(t, db)
	user := seedUser(t, db, "agent@example.com")
	contact := seedContact(t, NewContactService(db), user.ID)
	deals := NewDealService(db)

	fifty := 50
	_, err := deals.Create(dto.DealRequest{
		ContactID: contact.ID, Title: "Open", Amount: 100,
		Stage: models.StageProposal, Probability: &fifty,
	}, user.ID, testNow())
	require.NoError(t, err)

	_, err = deals.Create(dto.DealRequest{
		ContactID: contact.ID, Title: "Won", Amount: 200, Stage: models.StageClosedWon,
	}, user.ID, testNow())
	require.NoError(t, err)

	forecast, err := deals.Forecast()
	require.NoError(t, err)
	assert.InDelta(t, 50.0, forecast, 0.001, "closed deals stay out of the forecast")
}

func TestDealValueByStageZeroFilled(t *testing.T) {
	db := testDB(t)
	seedRoles(t, db)
	user := seedUser(t, db, "agent@example.com")
	contact := seedContact(t, NewContactService(db), user.ID)
	deals := NewDealService(db)

	_, err := deals.Create(dto.DealRequest{
		ContactID: contact.ID, Title: "A", Amount: 100, Stage: models.StageProposal,
	}, user.ID, testNow())
	require.NoError(t, err)
	_, err = deals.Create(dto.DealRequest{
		ContactID: contact.ID, Title: "B", Amount: 250, Stage: models.StageProposal,
	}, user.ID, testNow())
	require.NoError(t, err)

	metrics, err := deals.ValueByStage()
	require.NoError(t, err)
	require.Len(t, metrics, len(models.DealStages))

	for i, stage := range models.DealStages {
		assert.Equal(t, stage, metrics[i].Stage, "pipeline order is preserved")
	}
	assert.EqualValues(t, 2, metrics[2].Count)
	assert.InDelta(t, 350.0, metrics[2].Value, 0.001)
	assert.Zero(t, metrics[0].Count)
	assert.Zero(t, metrics[0].Value)
}

func TestDealWonValueForPeriod(t *testing.T) {
	db := testDB(t)
	seedRoles(t, db)
	user := seedUser(t, db, "agent@example.com")
	contact := seedContact(t, NewContactService(db), user.ID)
	deals := NewDealService(db)

	now := testNow()
	_, err := deals.Create(dto.DealRequest{
		ContactID: contact.ID, Title: "This month", Amount: 300, Stage: models.StageClosedWon,
	}, user.ID, now)
	require.NoError(t, err)

	lastMonth := now.AddDate(0, -1, 0)
	_, err = deals.Create(dto.DealRequest{
		ContactID: contact.ID, Title: "Last month", Amount: 700, Stage: models.StageClosedWon,
	}, user.ID, lastMonth)
	require.NoError(t, err)

	value, err := deals.WonValueForPeriod("this_month", now)
	require.NoError(t, err)
	assert.InDelta(t, 300.0, value, 0.001)

	value, err = deals.WonValueForPeriod("this_year", now)
	require.NoError(t, err)
	assert.InDelta(t, 1000.0, value, 0.001)
}

func TestPeriodBounds(t *testing.T) {
	// A Wednesday.
	now := time.Date(2026, time.September, 2, 15, 30, 0, 0, time.UTC)

	start, end := periodBounds("today", now)
	assert.Equal(t, time.Date(2026, time.September, 2, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, time.September, 3, 0, 0, 0, 0, time.UTC), end)

	start, end = periodBounds("this_week", now)
	assert.Equal(t, time.Monday, start.Weekday())
	assert.Equal(t, time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, start.AddDate(0, 0, 7), end)

	start, end = periodBounds("this_quarter", now)
	assert.Equal(t, time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC), end)

	start, end = periodBounds("this_year", now)
	assert.Equal(t, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC), end)

	// Unknown periods fall back to the month.
	start, end = periodBounds("whenever", now)
	assert.Equal(t, time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC), end)

	// Sunday belongs to the week that started the previous Monday.
	sunday := time.Date(2026, time.September, 6, 10, 0, 0, 0, time.UTC)
	start, _ = periodBounds("this_week", sunday)
	assert.Equal(t, time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC), start)
}

func TestDealDeleteDismissesReminders(t *testing.T) {
	db := testDB(t)
	seedRoles(t, db)
	user := seedUser(t, db, "agent@example.com")
	contact := seedContact(t, NewContactService(db), user.ID)
	deals := NewDealService(db)
	reminders := NewReminderService(db)

	deal, err := deals.Create(dto.DealRequest{
		ContactID: contact.ID, Title: "Doomed", Amount: 10,
	}, user.ID, testNow())
	require.NoError(t, err)

	dealID := deal.ID
	_, err = reminders.Create(dto.ReminderRequest{
		Title: "Follow up", DueDate: "2026-03-05 09:00",
		RelatedType: models.RelatedDeal, RelatedID: &dealID,
	}, user.ID)
	require.NoError(t, err)

	require.NoError(t, deals.Delete(deal.ID))

	var reminder models.Reminder
	require.NoError(t, db.First(&reminder).Error)
	assert.Equal(t, models.ReminderDismissed, reminder.Status)

	assert.ErrorIs(t, deals.Delete(deal.ID), ErrDealNotFound)
}

func TestDealPipeline(t *testing.T) {
	db := testDB(t)
	seedRoles(t, db)
	user := seedUser(t, db, "agent@example.com")
	contact := seedContact(t, NewContactService(db), user.ID)
	deals := NewDealService(db)

	_, err := deals.Create(dto.DealRequest{
		ContactID: contact.ID, Title: "One", Stage: models.StageQualified,
	}, user.ID, testNow())
	require.NoError(t, err)

	board, err := deals.Pipeline()
	require.NoError(t, err)
	require.Len(t, board, len(models.DealStages), "every stage has a column")
	assert.Len(t, board[models.StageQualified], 1)
	assert.Empty(t, board[models.StageLead])
}
