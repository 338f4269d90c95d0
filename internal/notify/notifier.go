package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/shiftwise/marketd/internal/models"
	"github.com/shiftwise/marketd/internal/store"
	"github.com/shiftwise/marketd/internal/telemetry"
)

// Sender delivers a notification out of process (email, push, SMS).
// Fire-and-forget: failures are logged by the notifier and never block the
// triggering transition.
type Sender interface {
	Send(ctx context.Context, n *models.Notification) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, n *models.Notification) error

func (f SenderFunc) Send(ctx context.Context, n *models.Notification) error {
	return f(ctx, n)
}

// NopSender discards notifications, for dev mode and tests.
var NopSender = SenderFunc(func(ctx context.Context, n *models.Notification) error {
	return nil
})

// Notifier persists and delivers lifecycle notifications with dedupe
// suppression. Suppression is best-effort: two near-simultaneous
// notifications may both pass the store check when reads are not serialized
// with writes, which is acceptable for an occasional duplicate alert.
type Notifier struct {
	notifications store.NotificationStore
	sender        Sender
	cache         DedupeCache // optional
	window        time.Duration

	now func() time.Time
}

// NewNotifier creates a notifier. cache may be nil, in which case only the
// store-backed suppression check runs.
func NewNotifier(notifications store.NotificationStore, sender Sender, cache DedupeCache) *Notifier {
	return &Notifier{
		notifications: notifications,
		sender:        sender,
		cache:         cache,
		window:        DefaultDedupeWindow,
		now:           time.Now,
	}
}

// Notify records and delivers one notification to each recipient. Suppressed
// candidates are silently dropped: not stored, not delivered. Delivery
// failures are logged and do not fail the call.
func (n *Notifier) Notify(ctx context.Context, tenantID uuid.UUID, recipients []uuid.UUID, typ string, payload models.NotificationPayload) error {
	if len(recipients) == 0 {
		return nil
	}

	now := n.now()
	for _, userID := range recipients {
		candidate := &models.Notification{
			NotificationID: uuid.Must(uuid.NewV7()),
			TenantID:       tenantID,
			UserID:         userID,
			Type:           typ,
			Payload:        payload,
			CreatedAt:      now,
		}

		suppressed, err := n.isDuplicate(ctx, candidate)
		if err != nil {
			return err
		}
		if suppressed {
			telemetry.NotificationsDropped.Inc()
			log.Debug().
				Str("user_id", userID.String()).
				Str("type", typ).
				Msg("Suppressed duplicate notification")
			continue
		}

		if err := n.notifications.Create(ctx, candidate); err != nil {
			return fmt.Errorf("failed to store notification: %w", err)
		}
		telemetry.NotificationsSent.Inc()

		if err := n.sender.Send(ctx, candidate); err != nil {
			log.Error().Err(err).
				Str("notification_id", candidate.NotificationID.String()).
				Str("user_id", userID.String()).
				Msg("Notification delivery failed")
		}
	}

	return nil
}

// isDuplicate runs the dedupe check: redis reservation fast-path when a
// cache is configured, then the authoritative store scan. A cache failure
// degrades to the store scan rather than failing the notification.
func (n *Notifier) isDuplicate(ctx context.Context, candidate *models.Notification) (bool, error) {
	key := DedupeKey(candidate.Type, candidate.Payload)
	if key == "" {
		return false, nil
	}

	if n.cache != nil {
		reserved, err := n.cache.Reserve(ctx, candidate.UserID.String()+":"+key, n.window)
		if err != nil {
			log.Warn().Err(err).Msg("Dedupe cache unavailable, falling back to store check")
		} else if !reserved {
			return true, nil
		}
	}

	since := candidate.CreatedAt.Add(-n.window)
	recent, err := n.notifications.ListRecent(ctx, candidate.TenantID, candidate.UserID, candidate.Type, since)
	if err != nil {
		return false, fmt.Errorf("failed to query recent notifications: %w", err)
	}

	return ShouldSuppress(recent, candidate, n.window), nil
}
