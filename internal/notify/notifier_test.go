package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/shiftwise/marketd/internal/models"
	"github.com/shiftwise/marketd/internal/store/memory"
)

func TestNotifier_DeliversAndStores(t *testing.T) {
	st := memory.NewNotificationStore()
	var sent []*models.Notification
	sender := SenderFunc(func(ctx context.Context, n *models.Notification) error {
		sent = append(sent, n)
		return nil
	})

	n := NewNotifier(st, sender, nil)
	ctx := context.Background()

	tenantID := uuid.Must(uuid.NewV7())
	u1 := uuid.Must(uuid.NewV7())
	u2 := uuid.Must(uuid.NewV7())
	postID := uuid.Must(uuid.NewV7())

	err := n.Notify(ctx, tenantID, []uuid.UUID{u1, u2}, models.NotificationTypePostAssigned,
		models.NotificationPayload{JobPostID: &postID})
	require.NoError(t, err)
	require.Len(t, sent, 2)

	stored, err := st.ListForUser(ctx, tenantID, u1)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, models.NotificationTypePostAssigned, stored[0].Type)
}

func TestNotifier_SuppressesDuplicateWithinWindow(t *testing.T) {
	st := memory.NewNotificationStore()
	var sent int
	sender := SenderFunc(func(ctx context.Context, n *models.Notification) error {
		sent++
		return nil
	})

	n := NewNotifier(st, sender, nil)
	ctx := context.Background()

	tenantID := uuid.Must(uuid.NewV7())
	userID := uuid.Must(uuid.NewV7())
	postID := uuid.Must(uuid.NewV7())
	payload := models.NotificationPayload{JobPostID: &postID}

	require.NoError(t, n.Notify(ctx, tenantID, []uuid.UUID{userID}, models.NotificationTypePostAssigned, payload))
	require.NoError(t, n.Notify(ctx, tenantID, []uuid.UUID{userID}, models.NotificationTypePostAssigned, payload))

	require.Equal(t, 1, sent, "duplicate within window must be dropped")

	stored, err := st.ListForUser(ctx, tenantID, userID)
	require.NoError(t, err)
	require.Len(t, stored, 1, "suppressed candidate is not stored")
}

func TestNotifier_KeylessPayloadAlwaysDelivered(t *testing.T) {
	st := memory.NewNotificationStore()
	var sent int
	sender := SenderFunc(func(ctx context.Context, n *models.Notification) error {
		sent++
		return nil
	})

	n := NewNotifier(st, sender, nil)
	ctx := context.Background()

	tenantID := uuid.Must(uuid.NewV7())
	userID := uuid.Must(uuid.NewV7())
	payload := models.NotificationPayload{Message: "shift reminder"}

	require.NoError(t, n.Notify(ctx, tenantID, []uuid.UUID{userID}, models.NotificationTypePostAssigned, payload))
	require.NoError(t, n.Notify(ctx, tenantID, []uuid.UUID{userID}, models.NotificationTypePostAssigned, payload))

	require.Equal(t, 2, sent, "dedup is disabled without entity refs")
}

func TestNotifier_SenderFailureDoesNotFailCall(t *testing.T) {
	st := memory.NewNotificationStore()
	sender := SenderFunc(func(ctx context.Context, n *models.Notification) error {
		return errors.New("smtp down")
	})

	n := NewNotifier(st, sender, nil)
	ctx := context.Background()

	tenantID := uuid.Must(uuid.NewV7())
	userID := uuid.Must(uuid.NewV7())
	postID := uuid.Must(uuid.NewV7())

	err := n.Notify(ctx, tenantID, []uuid.UUID{userID}, models.NotificationTypePostAssigned,
		models.NotificationPayload{JobPostID: &postID})
	require.NoError(t, err, "delivery is fire-and-forget")

	stored, err := st.ListForUser(ctx, tenantID, userID)
	require.NoError(t, err)
	require.Len(t, stored, 1, "the notification is still recorded")
}

func TestNotifier_EmptyRecipients(t *testing.T) {
	st := memory.NewNotificationStore()
	n := NewNotifier(st, NopSender, nil)

	err := n.Notify(context.Background(), uuid.Must(uuid.NewV7()), nil,
		models.NotificationTypePostAssigned, models.NotificationPayload{})
	require.NoError(t, err, "no recipients is not an error")
}

func TestNotifier_WindowElapsedDelivers(t *testing.T) {
	st := memory.NewNotificationStore()
	var sent int
	sender := SenderFunc(func(ctx context.Context, n *models.Notification) error {
		sent++
		return nil
	})

	n := NewNotifier(st, sender, nil)
	current := time.Date(2026, 2, 25, 9, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return current }

	ctx := context.Background()
	tenantID := uuid.Must(uuid.NewV7())
	userID := uuid.Must(uuid.NewV7())
	postID := uuid.Must(uuid.NewV7())
	payload := models.NotificationPayload{JobPostID: &postID}

	require.NoError(t, n.Notify(ctx, tenantID, []uuid.UUID{userID}, models.NotificationTypePostAssigned, payload))

	current = current.Add(DefaultDedupeWindow + time.Second)
	require.NoError(t, n.Notify(ctx, tenantID, []uuid.UUID{userID}, models.NotificationTypePostAssigned, payload))

	require.Equal(t, 2, sent, "an equivalent notification past the window is delivered")
}
