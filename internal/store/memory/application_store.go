package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shiftwise/marketd/internal/models"
	"github.com/shiftwise/marketd/internal/store"
)

// ApplicationStore implements store.ApplicationStore using in-memory storage.
// The (post_id, worker_user_id) uniqueness constraint is enforced under the
// store mutex, matching the postgres unique index.
type ApplicationStore struct {
	mu   sync.RWMutex
	apps map[uuid.UUID]*models.Application
}

// NewApplicationStore creates a new in-memory application store.
func NewApplicationStore() *ApplicationStore {
	return &ApplicationStore{
		apps: make(map[uuid.UUID]*models.Application),
	}
}

// Create stores a new application. Returns store.ErrDuplicateApplication if
// the worker already applied to the post.
func (s *ApplicationStore) Create(ctx context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.apps {
		if existing.PostID == app.PostID && existing.WorkerUserID == app.WorkerUserID {
			return store.ErrDuplicateApplication
		}
	}

	clone := *app
	s.apps[app.ApplicationID] = &clone

	return nil
}

// Get retrieves an application by ID, tenant-scoped.
func (s *ApplicationStore) Get(ctx context.Context, tenantID, applicationID uuid.UUID) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	app, exists := s.apps[applicationID]
	if !exists || app.TenantID != tenantID {
		return nil, store.ErrApplicationNotFound
	}

	clone := *app
	return &clone, nil
}

// GetByPostWorker retrieves the application a worker submitted for a post.
func (s *ApplicationStore) GetByPostWorker(ctx context.Context, tenantID, postID, workerUserID uuid.UUID) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, app := range s.apps {
		if app.TenantID == tenantID && app.PostID == postID && app.WorkerUserID == workerUserID {
			clone := *app
			return &clone, nil
		}
	}

	return nil, store.ErrApplicationNotFound
}

// LatestForPost returns the most recently submitted application still in
// submitted state.
func (s *ApplicationStore) LatestForPost(ctx context.Context, tenantID, postID uuid.UUID) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *models.Application
	for _, app := range s.apps {
		if app.TenantID != tenantID || app.PostID != postID {
			continue
		}
		if app.Status != models.ApplicationStatusSubmitted {
			continue
		}
		if latest == nil || app.CreatedAt.After(latest.CreatedAt) {
			latest = app
		}
	}

	if latest == nil {
		return nil, store.ErrApplicationNotFound
	}

	clone := *latest
	return &clone, nil
}

// ListByPost returns all applications for a post.
func (s *ApplicationStore) ListByPost(ctx context.Context, tenantID, postID uuid.UUID) ([]*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Application
	for _, app := range s.apps {
		if app.TenantID == tenantID && app.PostID == postID {
			clone := *app
			result = append(result, &clone)
		}
	}

	return result, nil
}

// UpdateStatus sets the application status and returns the updated row.
func (s *ApplicationStore) UpdateStatus(ctx context.Context, tenantID, applicationID uuid.UUID, status models.ApplicationStatus) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, exists := s.apps[applicationID]
	if !exists || app.TenantID != tenantID {
		return nil, store.ErrApplicationNotFound
	}

	app.Status = status
	app.UpdatedAt = time.Now()

	clone := *app
	return &clone, nil
}
