package notify

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/shiftwise/marketd/internal/models"
)

func TestSelectRecipients(t *testing.T) {
	actor := uuid.Must(uuid.NewV7())
	m1 := uuid.Must(uuid.NewV7())
	m2 := uuid.Must(uuid.NewV7())

	t.Run("actor first then managers in first-seen order", func(t *testing.T) {
		got := SelectRecipients([]uuid.UUID{m1, m2}, actor)
		require.Equal(t, []uuid.UUID{actor, m1, m2}, got)
	})

	t.Run("actor deduped from managers", func(t *testing.T) {
		got := SelectRecipients([]uuid.UUID{m1, actor, m1}, actor)
		require.Equal(t, []uuid.UUID{actor, m1}, got)
	})

	t.Run("absent actor leaves managers alone", func(t *testing.T) {
		got := SelectRecipients([]uuid.UUID{m2, m1}, uuid.Nil)
		require.Equal(t, []uuid.UUID{m2, m1}, got)
	})

	t.Run("both absent yields empty set", func(t *testing.T) {
		require.Empty(t, SelectRecipients(nil, uuid.Nil))
	})
}

func TestSelectCancelledPostRecipients(t *testing.T) {
	w1 := uuid.Must(uuid.NewV7())
	w2 := uuid.Must(uuid.NewV7())
	w3 := uuid.Must(uuid.NewV7())

	apps := []*models.Application{
		{WorkerUserID: w1, Status: models.ApplicationStatusApplied},
		{WorkerUserID: w2, Status: models.ApplicationStatusRejected},
		{WorkerUserID: w2, Status: models.ApplicationStatusWithdrawn},
		{WorkerUserID: w3, Status: models.ApplicationStatusAccepted},
		{WorkerUserID: w1, Status: models.ApplicationStatusInvited}, // duplicate worker
	}

	got := SelectCancelledPostRecipients(apps)
	require.Equal(t, []uuid.UUID{w1, w3}, got)
}

func TestSelectCancelledPostRecipientsSubmitted(t *testing.T) {
	w := uuid.Must(uuid.NewV7())
	got := SelectCancelledPostRecipients([]*models.Application{
		{WorkerUserID: w, Status: models.ApplicationStatusSubmitted},
	})
	require.Equal(t, []uuid.UUID{w}, got)
}
