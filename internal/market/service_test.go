package market

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/shiftwise/marketd/internal/lifecycle"
	"github.com/shiftwise/marketd/internal/models"
	"github.com/shiftwise/marketd/internal/notify"
	"github.com/shiftwise/marketd/internal/store"
	"github.com/shiftwise/marketd/internal/store/memory"
)

type serviceFixture struct {
	stores  *store.Stores
	service *Service

	tenantID  uuid.UUID
	managerID uuid.UUID
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	f := &serviceFixture{
		stores:    memory.NewStores(),
		tenantID:  uuid.Must(uuid.NewV7()),
		managerID: uuid.Must(uuid.NewV7()),
	}

	notifier := notify.NewNotifier(f.stores.Notifications, notify.NopSender, nil)
	managers := StaticManagers{f.tenantID: {f.managerID}}
	f.service = NewService(f.stores, notifier, managers)
	return f
}

func (f *serviceFixture) manager() models.Principal {
	return models.Principal{
		TenantID:    f.tenantID,
		UserID:      f.managerID,
		Permissions: map[string]bool{"management": true},
	}
}

func (f *serviceFixture) worker() models.Principal {
	return models.Principal{
		TenantID: f.tenantID,
		UserID:   uuid.Must(uuid.NewV7()),
	}
}

func (f *serviceFixture) createOpenPost(t *testing.T) *models.JobPost {
	t.Helper()

	start := time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC)
	post, err := f.service.CreatePost(context.Background(), f.manager(), CreatePostInput{
		Title:    "Weekend cover",
		StartsAt: start,
		EndsAt:   start.Add(8 * time.Hour),
	})
	require.NoError(t, err)
	return post
}

func (f *serviceFixture) notificationsFor(t *testing.T, userID uuid.UUID) []*models.Notification {
	t.Helper()

	out, err := f.stores.Notifications.ListForUser(context.Background(), f.tenantID, userID)
	require.NoError(t, err)
	return out
}

func TestServiceCreatePost(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	t.Run("manager creates an open post", func(t *testing.T) {
		post := f.createOpenPost(t)
		require.Equal(t, models.PostStatusOpen, post.Status)
		require.Equal(t, f.managerID, post.CreatedBy)
	})

	t.Run("worker is forbidden", func(t *testing.T) {
		_, err := f.service.CreatePost(ctx, f.worker(), CreatePostInput{
			Title:    "No grants",
			StartsAt: time.Now(),
			EndsAt:   time.Now().Add(time.Hour),
		})
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("empty title fails validation", func(t *testing.T) {
		_, err := f.service.CreatePost(ctx, f.manager(), CreatePostInput{
			StartsAt: time.Now(),
			EndsAt:   time.Now().Add(time.Hour),
		})
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("inverted window fails validation", func(t *testing.T) {
		now := time.Now()
		_, err := f.service.CreatePost(ctx, f.manager(), CreatePostInput{
			Title:    "Backwards",
			StartsAt: now.Add(time.Hour),
			EndsAt:   now,
		})
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("camelCase grant spelling also manages", func(t *testing.T) {
		p := models.Principal{
			TenantID:    f.tenantID,
			UserID:      uuid.Must(uuid.NewV7()),
			Permissions: map[string]bool{"Administration": true},
		}
		_, err := f.service.CreatePost(ctx, p, CreatePostInput{
			Title:    "Admin post",
			StartsAt: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC),
			EndsAt:   time.Date(2026, 4, 1, 17, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
	})
}

func TestServiceSubmitApplication(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	post := f.createOpenPost(t)
	worker := f.worker()

	app, err := f.service.SubmitApplication(ctx, worker, post.PostID)
	require.NoError(t, err)
	require.Equal(t, models.ApplicationStatusSubmitted, app.Status)

	t.Run("resubmission returns the same application", func(t *testing.T) {
		again, err := f.service.SubmitApplication(ctx, worker, post.PostID)
		require.NoError(t, err)
		require.Equal(t, app.ApplicationID, again.ApplicationID)
	})

	t.Run("manager hears about the application once", func(t *testing.T) {
		got := f.notificationsFor(t, f.managerID)
		require.Len(t, got, 1)
		require.Equal(t, models.NotificationTypeApplicationReceived, got[0].Type)
		require.Equal(t, post.PostID, *got[0].Payload.JobPostID)
	})

	t.Run("closed post rejects applications", func(t *testing.T) {
		closed := f.createOpenPost(t)
		_, err := f.service.TransitionPost(ctx, f.manager(), closed.PostID, lifecycle.PostActionClose)
		require.NoError(t, err)

		_, err = f.service.SubmitApplication(ctx, f.worker(), closed.PostID)
		require.ErrorIs(t, err, ErrPostNotOpen)
	})
}

func TestServiceCancelNotifiesApplicants(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	post := f.createOpenPost(t)

	first := f.worker()
	second := f.worker()
	_, err := f.service.SubmitApplication(ctx, first, post.PostID)
	require.NoError(t, err)
	_, err = f.service.SubmitApplication(ctx, second, post.PostID)
	require.NoError(t, err)

	cancelled, err := f.service.TransitionPost(ctx, f.manager(), post.PostID, lifecycle.PostActionCancel)
	require.NoError(t, err)
	require.Equal(t, models.PostStatusCancelled, cancelled.Status)

	for _, w := range []models.Principal{first, second} {
		got := f.notificationsFor(t, w.UserID)
		require.Len(t, got, 1)
		require.Equal(t, models.NotificationTypePostCancelled, got[0].Type)
	}

	t.Run("cancelled is terminal", func(t *testing.T) {
		_, err := f.service.TransitionPost(ctx, f.manager(), post.PostID, lifecycle.PostActionReopen)
		require.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestServiceAcceptNotifies(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	post := f.createOpenPost(t)
	worker := f.worker()

	app, err := f.service.SubmitApplication(ctx, worker, post.PostID)
	require.NoError(t, err)

	assignment, created, err := f.service.AcceptApplication(ctx, f.manager(), post.PostID, AcceptSelector{
		ApplicationID: &app.ApplicationID,
	})
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, worker.UserID, assignment.WorkerUserID)

	t.Run("worker hears acceptance", func(t *testing.T) {
		var accepted int
		for _, n := range f.notificationsFor(t, worker.UserID) {
			if n.Type == models.NotificationTypeApplicationAccepted {
				accepted++
				require.Equal(t, assignment.AssignmentID, *n.Payload.AssignmentID)
			}
		}
		require.Equal(t, 1, accepted)
	})

	t.Run("idempotent repeat adds no notifications", func(t *testing.T) {
		before := len(f.notificationsFor(t, worker.UserID))

		_, created, err := f.service.AcceptApplication(ctx, f.manager(), post.PostID, AcceptSelector{
			ApplicationID: &app.ApplicationID,
		})
		require.NoError(t, err)
		require.False(t, created)
		require.Len(t, f.notificationsFor(t, worker.UserID), before)
	})

	t.Run("worker cannot accept", func(t *testing.T) {
		_, _, err := f.service.AcceptApplication(ctx, worker, post.PostID, AcceptSelector{})
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("completion notifies the worker", func(t *testing.T) {
		completed, err := f.service.CompleteAssignment(ctx, f.manager(), assignment.AssignmentID)
		require.NoError(t, err)
		require.Equal(t, models.AssignmentStatusCompleted, completed.Status)

		var done int
		for _, n := range f.notificationsFor(t, worker.UserID) {
			if n.Type == models.NotificationTypeAssignmentCompleted {
				done++
			}
		}
		require.Equal(t, 1, done)
	})
}

func TestServiceInvites(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	post := f.createOpenPost(t)
	worker := f.worker()

	inv, err := f.service.CreateInvite(ctx, f.manager(), post.PostID, worker.UserID)
	require.NoError(t, err)
	require.Equal(t, models.InviteStatusPending, inv.Status)

	t.Run("worker is notified of the invite", func(t *testing.T) {
		got := f.notificationsFor(t, worker.UserID)
		require.Len(t, got, 1)
		require.Equal(t, models.NotificationTypeInviteReceived, got[0].Type)
	})

	t.Run("another worker cannot respond", func(t *testing.T) {
		_, err := f.service.RespondInvite(ctx, f.worker(), inv.InviteID, lifecycle.InviteDecisionAccept)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("worker accepts and the inviter hears", func(t *testing.T) {
		updated, err := f.service.RespondInvite(ctx, worker, inv.InviteID, lifecycle.InviteDecisionAccept)
		require.NoError(t, err)
		require.Equal(t, models.InviteStatusActive, updated.Status)

		var responded int
		for _, n := range f.notificationsFor(t, f.managerID) {
			if n.Type == models.NotificationTypeInviteResponded {
				responded++
			}
		}
		require.Equal(t, 1, responded)
	})

	t.Run("responding twice is an invalid transition", func(t *testing.T) {
		_, err := f.service.RespondInvite(ctx, worker, inv.InviteID, lifecycle.InviteDecisionDecline)
		require.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestServiceNotificationRead(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	post := f.createOpenPost(t)

	worker := f.worker()
	_, err := f.service.SubmitApplication(ctx, worker, post.PostID)
	require.NoError(t, err)

	manager := f.manager()
	notifications, err := f.service.ListNotifications(ctx, manager)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	n := notifications[0]

	read, err := f.service.MarkNotificationRead(ctx, manager, n.NotificationID)
	require.NoError(t, err)
	require.NotNil(t, read.ReadAt)

	t.Run("second read keeps the first timestamp", func(t *testing.T) {
		again, err := f.service.MarkNotificationRead(ctx, manager, n.NotificationID)
		require.NoError(t, err)
		require.True(t, read.ReadAt.Equal(*again.ReadAt))
	})

	t.Run("someone else's notification is not found", func(t *testing.T) {
		_, err := f.service.MarkNotificationRead(ctx, worker, n.NotificationID)
		require.ErrorIs(t, err, store.ErrNotificationNotFound)
	})
}
