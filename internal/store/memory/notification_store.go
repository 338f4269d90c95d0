package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shiftwise/marketd/internal/models"
	"github.com/shiftwise/marketd/internal/store"
)

// NotificationStore implements store.NotificationStore using in-memory
// storage. Rows are append-only except for the write-once read flag.
type NotificationStore struct {
	mu            sync.RWMutex
	notifications map[uuid.UUID]*models.Notification
}

// NewNotificationStore creates a new in-memory notification store.
func NewNotificationStore() *NotificationStore {
	return &NotificationStore{
		notifications: make(map[uuid.UUID]*models.Notification),
	}
}

// Create stores a new notification.
func (s *NotificationStore) Create(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *n
	s.notifications[n.NotificationID] = &clone

	return nil
}

// Get retrieves a notification by ID, tenant-scoped.
func (s *NotificationStore) Get(ctx context.Context, tenantID, notificationID uuid.UUID) (*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, exists := s.notifications[notificationID]
	if !exists || n.TenantID != tenantID {
		return nil, store.ErrNotificationNotFound
	}

	clone := *n
	return &clone, nil
}

// ListForUser returns the user's notifications, newest first.
func (s *NotificationStore) ListForUser(ctx context.Context, tenantID, userID uuid.UUID) ([]*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Notification
	for _, n := range s.notifications {
		if n.TenantID == tenantID && n.UserID == userID {
			clone := *n
			result = append(result, &clone)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

// ListRecent returns the user's notifications of the given type created at
// or after since.
func (s *NotificationStore) ListRecent(ctx context.Context, tenantID, userID uuid.UUID, typ string, since time.Time) ([]*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Notification
	for _, n := range s.notifications {
		if n.TenantID != tenantID || n.UserID != userID || n.Type != typ {
			continue
		}
		if n.CreatedAt.Before(since) {
			continue
		}
		clone := *n
		result = append(result, &clone)
	}

	return result, nil
}

// MarkRead sets the read timestamp if it is not already set. First read
// wins; re-marking returns the stored row unchanged.
func (s *NotificationStore) MarkRead(ctx context.Context, tenantID, userID, notificationID uuid.UUID, readAt time.Time) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, exists := s.notifications[notificationID]
	if !exists || n.TenantID != tenantID || n.UserID != userID {
		return nil, store.ErrNotificationNotFound
	}

	if n.ReadAt == nil {
		t := readAt
		n.ReadAt = &t
	}

	clone := *n
	return &clone, nil
}
