// Package memory provides in-memory store implementations used by tests and
// dev mode. Data is lost on restart. Constraint behavior matches the
// postgres implementations so the allocator's race handling can be
// exercised without a database.
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

// JobPostStore implements store.JobPostStore using in-memory storage.
type JobPostStore struct {
	mu    sync.RWMutex
	posts map[uuid.UUID]*models.JobPost
}

// NewJobPostStore creates a new in-memory job post store.
func NewJobPostStore() *JobPostStore {
	return &JobPostStore{
		posts: make(map[uuid.UUID]*models.JobPost),
	}
}

// Create stores a new post.
func (s *JobPostStore) Create(ctx context.Context, post *models.JobPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *post
	s.posts[post.PostID] = &clone

	return nil
}

// Get retrieves a post by ID, tenant-scoped.
func (s *JobPostStore) Get(ctx context.Context, tenantID, postID uuid.UUID) (*models.JobPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, exists := s.posts[postID]
	if !exists || post.TenantID != tenantID {
		return nil, store.ErrPostNotFound
	}

	clone := *post
	return &clone, nil
}

// List returns the tenant's posts, optionally filtered by status, newest first.
func (s *JobPostStore) List(ctx context.Context, tenantID uuid.UUID, status models.PostStatus) ([]*models.JobPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.JobPost
	for _, post := range s.posts {
		if post.TenantID != tenantID {
			continue
		}
		if status != "" && post.Status != status {
			continue
		}
		clone := *post
		result = append(result, &clone)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

// UpdateStatus sets the post status and returns the updated row.
func (s *JobPostStore) UpdateStatus(ctx context.Context, tenantID, postID uuid.UUID, status models.PostStatus) (*models.JobPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, exists := s.posts[postID]
	if !exists || post.TenantID != tenantID {
		return nil, store.ErrPostNotFound
	}

	post.Status = status
	post.UpdatedAt = time.Now()

	clone := *post
	return &clone, nil
}
