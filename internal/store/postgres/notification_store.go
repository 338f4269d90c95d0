package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/shiftwise/marketd/internal/models"
	"github.com/shiftwise/marketd/internal/store"
)

// NotificationStore implements store.NotificationStore using PostgreSQL.
// Payloads are stored as JSONB so the legacy jobId alias round-trips without
// a schema change.
type NotificationStore struct {
	pool *pgxpool.Pool
}

// NewNotificationStore creates a new PostgreSQL-backed notification store.
func NewNotificationStore(pool *pgxpool.Pool) *NotificationStore {
	return &NotificationStore{pool: pool}
}

// Create inserts a notification.
func (s *NotificationStore) Create(ctx context.Context, n *models.Notification) error {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification payload: %w", err)
	}

	query := `
		INSERT INTO notifications (
			notification_id, tenant_id, user_id, type,
			payload, created_at, read_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
	`

	_, err = s.pool.Exec(ctx, query,
		n.NotificationID,
		n.TenantID,
		n.UserID,
		n.Type,
		payload,
		n.CreatedAt,
		n.ReadAt,
	)

	if err != nil {
		return mapPostgresError(err)
	}

	log.Debug().
		Str("notification_id", n.NotificationID.String()).
		Str("user_id", n.UserID.String()).
		Str("type", n.Type).
		Msg("Created notification")

	return nil
}

// Get retrieves a notification by ID, tenant-scoped.
func (s *NotificationStore) Get(ctx context.Context, tenantID, notificationID uuid.UUID) (*models.Notification, error) {
	query := `
		SELECT notification_id, tenant_id, user_id, type,
		       payload, created_at, read_at
		FROM notifications
		WHERE notification_id = $1 AND tenant_id = $2
	`

	n, err := scanNotification(s.pool.QueryRow(ctx, query, notificationID, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotificationNotFound
		}
		return nil, mapPostgresError(err)
	}

	return n, nil
}

// ListForUser returns all notifications addressed to a user, newest first.
func (s *NotificationStore) ListForUser(ctx context.Context, tenantID, userID uuid.UUID) ([]*models.Notification, error) {
	query := `
		SELECT notification_id, tenant_id, user_id, type,
		       payload, created_at, read_at
		FROM notifications
		WHERE tenant_id = $1 AND user_id = $2
		ORDER BY created_at DESC
	`

	return s.queryMany(ctx, query, tenantID, userID)
}

// ListRecent returns the user's notifications of the given type created at or
// after since.
func (s *NotificationStore) ListRecent(ctx context.Context, tenantID, userID uuid.UUID, typ string, since time.Time) ([]*models.Notification, error) {
	query := `
		SELECT notification_id, tenant_id, user_id, type,
		       payload, created_at, read_at
		FROM notifications
		WHERE tenant_id = $1 AND user_id = $2 AND type = $3 AND created_at >= $4
		ORDER BY created_at DESC
	`

	return s.queryMany(ctx, query, tenantID, userID, typ, since)
}

// MarkRead sets read_at on an unread notification. The first read wins; a
// repeat call returns the stored row with the original timestamp.
func (s *NotificationStore) MarkRead(ctx context.Context, tenantID, userID, notificationID uuid.UUID, readAt time.Time) (*models.Notification, error) {
	query := `
		UPDATE notifications SET
			read_at = $4
		WHERE notification_id = $1 AND tenant_id = $2 AND user_id = $3
		  AND read_at IS NULL
		RETURNING notification_id, tenant_id, user_id, type,
		          payload, created_at, read_at
	`

	n, err := scanNotification(s.pool.QueryRow(ctx, query, notificationID, tenantID, userID, readAt))
	if err == nil {
		return n, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, mapPostgresError(err)
	}

	// No row updated: either already read or not addressed to this user.
	// Re-read to distinguish the two.
	existing, err := s.Get(ctx, tenantID, notificationID)
	if err != nil {
		return nil, err
	}
	if existing.UserID != userID {
		return nil, store.ErrNotificationNotFound
	}
	return existing, nil
}

func (s *NotificationStore) queryMany(ctx context.Context, query string, args ...any) ([]*models.Notification, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, mapPostgresError(err)
		}
		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, mapPostgresError(err)
	}

	return notifications, nil
}

func scanNotification(row pgx.Row) (*models.Notification, error) {
	var (
		n       models.Notification
		payload []byte
	)
	err := row.Scan(
		&n.NotificationID,
		&n.TenantID,
		&n.UserID,
		&n.Type,
		&payload,
		&n.CreatedAt,
		&n.ReadAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan notification: %w", err)
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &n.Payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal notification payload: %w", err)
		}
	}
	return &n, nil
}
