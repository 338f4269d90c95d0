package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/shiftwise/marketd/internal/models"
	"github.com/shiftwise/marketd/internal/store"
)

func TestNotificationStore_MarkReadFirstWins(t *testing.T) {
	st := NewNotificationStore()
	ctx := context.Background()

	tenantID := uuid.Must(uuid.NewV7())
	userID := uuid.Must(uuid.NewV7())
	n := &models.Notification{
		NotificationID: uuid.Must(uuid.NewV7()),
		TenantID:       tenantID,
		UserID:         userID,
		Type:           models.NotificationTypePostAssigned,
		CreatedAt:      time.Now(),
	}
	require.NoError(t, st.Create(ctx, n))

	firstRead := time.Now()
	got, err := st.MarkRead(ctx, tenantID, userID, n.NotificationID, firstRead)
	require.NoError(t, err)
	require.NotNil(t, got.ReadAt)
	require.Equal(t, firstRead.UnixNano(), got.ReadAt.UnixNano())

	// Re-marking is a no-op, not an error.
	again, err := st.MarkRead(ctx, tenantID, userID, n.NotificationID, firstRead.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, firstRead.UnixNano(), again.ReadAt.UnixNano())
}

func TestNotificationStore_MarkReadWrongUser(t *testing.T) {
	st := NewNotificationStore()
	ctx := context.Background()

	tenantID := uuid.Must(uuid.NewV7())
	n := &models.Notification{
		NotificationID: uuid.Must(uuid.NewV7()),
		TenantID:       tenantID,
		UserID:         uuid.Must(uuid.NewV7()),
		Type:           models.NotificationTypePostAssigned,
		CreatedAt:      time.Now(),
	}
	require.NoError(t, st.Create(ctx, n))

	_, err := st.MarkRead(ctx, tenantID, uuid.Must(uuid.NewV7()), n.NotificationID, time.Now())
	require.ErrorIs(t, err, store.ErrNotificationNotFound)
}

func TestNotificationStore_ListRecent(t *testing.T) {
	st := NewNotificationStore()
	ctx := context.Background()

	tenantID := uuid.Must(uuid.NewV7())
	userID := uuid.Must(uuid.NewV7())
	now := time.Now()

	old := &models.Notification{
		NotificationID: uuid.Must(uuid.NewV7()),
		TenantID:       tenantID,
		UserID:         userID,
		Type:           models.NotificationTypePostAssigned,
		CreatedAt:      now.Add(-2 * time.Minute),
	}
	recent := &models.Notification{
		NotificationID: uuid.Must(uuid.NewV7()),
		TenantID:       tenantID,
		UserID:         userID,
		Type:           models.NotificationTypePostAssigned,
		CreatedAt:      now.Add(-10 * time.Second),
	}
	otherType := &models.Notification{
		NotificationID: uuid.Must(uuid.NewV7()),
		TenantID:       tenantID,
		UserID:         userID,
		Type:           models.NotificationTypePostCancelled,
		CreatedAt:      now,
	}
	for _, n := range []*models.Notification{old, recent, otherType} {
		require.NoError(t, st.Create(ctx, n))
	}

	got, err := st.ListRecent(ctx, tenantID, userID, models.NotificationTypePostAssigned, now.Add(-30*time.Second))
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, recent.NotificationID, got[0].NotificationID)
}

func TestApplicationStore_DuplicateRejected(t *testing.T) {
	st := NewApplicationStore()
	ctx := context.Background()

	tenantID := uuid.Must(uuid.NewV7())
	postID := uuid.Must(uuid.NewV7())
	workerID := uuid.Must(uuid.NewV7())

	app := &models.Application{
		ApplicationID: uuid.Must(uuid.NewV7()),
		PostID:        postID,
		TenantID:      tenantID,
		WorkerUserID:  workerID,
		Status:        models.ApplicationStatusSubmitted,
		CreatedAt:     time.Now(),
	}
	require.NoError(t, st.Create(ctx, app))

	dup := *app
	dup.ApplicationID = uuid.Must(uuid.NewV7())
	require.ErrorIs(t, st.Create(ctx, &dup), store.ErrDuplicateApplication)

	existing, err := st.GetByPostWorker(ctx, tenantID, postID, workerID)
	require.NoError(t, err)
	require.Equal(t, app.ApplicationID, existing.ApplicationID)
}

func TestApplicationStore_LatestForPostSkipsNonSubmitted(t *testing.T) {
	st := NewApplicationStore()
	ctx := context.Background()

	tenantID := uuid.Must(uuid.NewV7())
	postID := uuid.Must(uuid.NewV7())
	now := time.Now()

	older := &models.Application{
		ApplicationID: uuid.Must(uuid.NewV7()),
		PostID:        postID,
		TenantID:      tenantID,
		WorkerUserID:  uuid.Must(uuid.NewV7()),
		Status:        models.ApplicationStatusSubmitted,
		CreatedAt:     now.Add(-time.Hour),
	}
	newest := &models.Application{
		ApplicationID: uuid.Must(uuid.NewV7()),
		PostID:        postID,
		TenantID:      tenantID,
		WorkerUserID:  uuid.Must(uuid.NewV7()),
		Status:        models.ApplicationStatusRejected,
		CreatedAt:     now,
	}
	require.NoError(t, st.Create(ctx, older))
	require.NoError(t, st.Create(ctx, newest))

	got, err := st.LatestForPost(ctx, tenantID, postID)
	require.NoError(t, err)
	require.Equal(t, older.ApplicationID, got.ApplicationID, "rejected applications are not candidates")
}
