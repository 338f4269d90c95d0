package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shiftwise/marketd/internal/models"
	"github.com/shiftwise/marketd/internal/store"
)

// AssignmentStore implements store.AssignmentStore using in-memory storage.
// The one-assignment-per-post constraint is checked and the row inserted
// under a single mutex hold, giving the same linearizable uniqueness the
// postgres unique index provides. Concurrent Create calls for the same post
// therefore lose with store.ErrAlreadyAssigned, exactly as in production.
type AssignmentStore struct {
	mu          sync.RWMutex
	assignments map[uuid.UUID]*models.Assignment
	byPost      map[uuid.UUID]uuid.UUID // post_id -> assignment_id
}

// NewAssignmentStore creates a new in-memory assignment store.
func NewAssignmentStore() *AssignmentStore {
	return &AssignmentStore{
		assignments: make(map[uuid.UUID]*models.Assignment),
		byPost:      make(map[uuid.UUID]uuid.UUID),
	}
}

// Create stores a new assignment. Returns store.ErrAlreadyAssigned if the
// post already has one.
func (s *AssignmentStore) Create(ctx context.Context, a *models.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byPost[a.PostID]; exists {
		return store.ErrAlreadyAssigned
	}

	clone := *a
	s.assignments[a.AssignmentID] = &clone
	s.byPost[a.PostID] = a.AssignmentID

	return nil
}

// Get retrieves an assignment by ID, tenant-scoped.
func (s *AssignmentStore) Get(ctx context.Context, tenantID, assignmentID uuid.UUID) (*models.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.assignments[assignmentID]
	if !exists || a.TenantID != tenantID {
		return nil, store.ErrAssignmentNotFound
	}

	clone := *a
	return &clone, nil
}

// GetByPost retrieves the assignment for a post, if any.
func (s *AssignmentStore) GetByPost(ctx context.Context, tenantID, postID uuid.UUID) (*models.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	assignmentID, exists := s.byPost[postID]
	if !exists {
		return nil, store.ErrAssignmentNotFound
	}

	a := s.assignments[assignmentID]
	if a == nil || a.TenantID != tenantID {
		return nil, store.ErrAssignmentNotFound
	}

	clone := *a
	return &clone, nil
}

// ListActiveOverlapping returns the worker's active assignments whose
// half-open windows intersect w.
func (s *AssignmentStore) ListActiveOverlapping(ctx context.Context, tenantID, workerUserID uuid.UUID, w models.Window, excludePostID *uuid.UUID) ([]*models.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Assignment
	for _, a := range s.assignments {
		if a.TenantID != tenantID || a.WorkerUserID != workerUserID {
			continue
		}
		if a.Status != models.AssignmentStatusActive {
			continue
		}
		if excludePostID != nil && a.PostID == *excludePostID {
			continue
		}
		if !a.Window().Overlaps(w) {
			continue
		}
		clone := *a
		result = append(result, &clone)
	}

	return result, nil
}

// Complete marks an active assignment completed. Completing twice is a
// no-op returning the stored row.
func (s *AssignmentStore) Complete(ctx context.Context, tenantID, assignmentID uuid.UUID, completedAt time.Time) (*models.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, exists := s.assignments[assignmentID]
	if !exists || a.TenantID != tenantID {
		return nil, store.ErrAssignmentNotFound
	}

	if a.Status != models.AssignmentStatusCompleted {
		a.Status = models.AssignmentStatusCompleted
		t := completedAt
		a.CompletedAt = &t
	}

	clone := *a
	return &clone, nil
}
