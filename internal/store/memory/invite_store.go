package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shiftwise/marketd/internal/models"
	"github.com/shiftwise/marketd/internal/store"
)

// InviteStore implements store.InviteStore using in-memory storage.
type InviteStore struct {
	mu      sync.RWMutex
	invites map[uuid.UUID]*models.Invite
}

// NewInviteStore creates a new in-memory invite store.
func NewInviteStore() *InviteStore {
	return &InviteStore{
		invites: make(map[uuid.UUID]*models.Invite),
	}
}

// Create stores a new invite.
func (s *InviteStore) Create(ctx context.Context, inv *models.Invite) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *inv
	s.invites[inv.InviteID] = &clone

	return nil
}

// Get retrieves an invite by ID, tenant-scoped.
func (s *InviteStore) Get(ctx context.Context, tenantID, inviteID uuid.UUID) (*models.Invite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, exists := s.invites[inviteID]
	if !exists || inv.TenantID != tenantID {
		return nil, store.ErrInviteNotFound
	}

	clone := *inv
	return &clone, nil
}

// UpdateStatus sets the invite status and returns the updated row.
func (s *InviteStore) UpdateStatus(ctx context.Context, tenantID, inviteID uuid.UUID, status models.InviteStatus) (*models.Invite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, exists := s.invites[inviteID]
	if !exists || inv.TenantID != tenantID {
		return nil, store.ErrInviteNotFound
	}

	inv.Status = status
	inv.UpdatedAt = time.Now()

	clone := *inv
	return &clone, nil
}
