package services

import (
	"strings"
	"testing"

	"github.com/adampresley/darkroom/pkg/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionCreateDefaults(t *testing.T) {
	env := newTestEnv(t)
	account := env.createAccount(t, "owner@example.com")

	session := env.createSession(t, account.ID, "Jane Doe")

	_, err := uuid.Parse(session.ID)
	require.NoError(t, err, "session IDs are random UUIDs")

	got, err := env.sessionService.GetByID(session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInPlanning, got.Status)
	assert.Equal(t, models.DefaultLocation, got.Location)
	assert.False(t, got.SelectionSubmitted)
	assert.InDelta(t, 900.0, got.PendingBalance(), 0.0001)

	assert.Error(t, env.sessionService.Create(&models.Session{AccountID: account.ID, ClientName: "  "}))
}

func TestSessionsAreIsolatedByAccount(t *testing.T) {
	env := newTestEnv(t)
	first := env.createAccount(t, "first@example.com")
	second := env.createAccount(t, "second@example.com")

	a := env.createSession(t, first.ID, "Jane Doe")
	b := env.createSession(t, second.ID, "Jane Doe")

	assert.NotEqual(t, a.ID, b.ID)

	firstList, err := env.sessionService.ListForAccount(first.ID, true)
	require.NoError(t, err)
	require.Len(t, firstList, 1)
	assert.Equal(t, a.ID, firstList[0].ID)

	secondList, err := env.sessionService.ListForAccount(second.ID, false)
	require.NoError(t, err)
	require.Len(t, secondList, 1)
	assert.Equal(t, b.ID, secondList[0].ID)

	_, err = env.sessionService.GetForAccount(first.ID, b.ID)
	assert.ErrorIs(t, err, models.ErrSessionNotFound)

	assert.ErrorIs(t, env.sessionService.Delete(first.ID, b.ID), models.ErrSessionNotFound)
}

func TestSessionListOrderedByDate(t *testing.T) {
	env := newTestEnv(t)
	account := env.createAccount(t, "owner@example.com")

	for _, date := range []string{"2026-01-10", "2026-03-02", "2025-12-24"} {
		require.NoError(t, env.sessionService.Create(&models.Session{AccountID: account.ID, ClientName: "Client " + date, Date: date}))
	}

	sessions, err := env.sessionService.ListForAccount(account.ID, true)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.Equal(t, "2026-03-02", sessions[0].Date)
	assert.Equal(t, "2025-12-24", sessions[2].Date)
}

func TestSessionUpdateClientInfo(t *testing.T) {
	env := newTestEnv(t)
	account := env.createAccount(t, "owner@example.com")
	session := env.createSession(t, account.ID, "Jane Doe")

	update := &models.Session{
		ID:           session.ID,
		TotalFee:     models.ParseAmount("2000"),
		AmountPaid:   models.ParseAmount("not a number"),
		Status:       "pending retouch",
		FollowUpDate: "2026-07-01",
		ClientEmail:  "jane@example.com",
		ClientPhone:  "555-0100",
	}

	require.NoError(t, env.sessionService.UpdateClientInfo(account.ID, update))

	got, err := env.sessionService.GetByID(session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingRetouch, got.Status)
	assert.InDelta(t, 2000.0, got.PendingBalance(), 0.0001)
	assert.Equal(t, "2026-07-01", got.FollowUpDate)
	assert.True(t, got.HasFollowUp())

	update.Status = "Shipped"
	assert.ErrorIs(t, env.sessionService.UpdateClientInfo(account.ID, update), models.ErrInvalidStatus)

	update.Status = models.StatusCompleted
	other := env.createAccount(t, "other@example.com")
	assert.ErrorIs(t, env.sessionService.UpdateClientInfo(other.ID, update), models.ErrSessionNotFound)
}

func TestSessionUpdateDetails(t *testing.T) {
	env := newTestEnv(t)
	account := env.createAccount(t, "owner@example.com")
	session := env.createSession(t, account.ID, "Jane Doe")

	session.ClientName = "Jane Smith"
	session.Location = "Beach"
	session.TotalFee = 500
	session.AmountPaid = 0
	require.NoError(t, env.sessionService.UpdateDetails(account.ID, session))

	got, err := env.sessionService.GetForAccount(account.ID, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", got.ClientName)
	assert.Equal(t, "Beach", got.Location)
	assert.InDelta(t, 500.0, got.PendingBalance(), 0.0001)
}

func TestSessionSubmitAndComplete(t *testing.T) {
	env := newTestEnv(t)
	account := env.createAccount(t, "owner@example.com")
	session := env.createSession(t, account.ID, "Jane Doe")

	require.NoError(t, env.sessionService.MarkSubmitted(session.ID))

	queue, err := env.sessionService.ListSubmitted(account.ID)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, models.StatusPendingRetouch, queue[0].Status)

	completed, err := env.sessionService.Complete(account.ID, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, completed.Status)

	got, err := env.sessionService.GetByID(session.ID)
	require.NoError(t, err)
	assert.False(t, got.SelectionSubmitted)
	assert.Equal(t, models.StatusCompleted, got.Status)

	queue, err = env.sessionService.ListSubmitted(account.ID)
	require.NoError(t, err)
	assert.Empty(t, queue)

	assert.ErrorIs(t, env.sessionService.MarkSubmitted("missing"), models.ErrSessionNotFound)
}

func TestSessionDeleteRemovesAssetsAndFiles(t *testing.T) {
	env := newTestEnv(t)
	account := env.createAccount(t, "owner@example.com")
	session := env.createSession(t, account.ID, "Jane Doe")

	first, err := env.assetService.Upload(account.ID, session.ID, "one.jpg", strings.NewReader("one"))
	require.NoError(t, err)
	_, err = env.assetService.Upload(account.ID, session.ID, "two.jpg", strings.NewReader("two"))
	require.NoError(t, err)

	got, err := env.sessionService.GetByID(session.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.AssetCount)

	require.NoError(t, env.sessionService.Delete(account.ID, session.ID))

	_, err = env.sessionService.GetByID(session.ID)
	assert.ErrorIs(t, err, models.ErrSessionNotFound)

	_, err = env.assetService.GetByID(first.ID)
	assert.ErrorIs(t, err, models.ErrAssetNotFound)

	assert.NoFileExists(t, env.uploadsDir+"/"+first.Filename)
}
