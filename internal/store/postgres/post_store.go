package postgres

import (
	"context"
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

// JobPostStore implements store.JobPostStore using PostgreSQL.
type JobPostStore struct {
	pool *pgxpool.Pool
}

// NewJobPostStore creates a new PostgreSQL-backed job post store. It shares
// the connection pool with the other stores.
func NewJobPostStore(pool *pgxpool.Pool) *JobPostStore {
	return &JobPostStore{pool: pool}
}

// Create creates a new post.
func (s *JobPostStore) Create(ctx context.Context, post *models.JobPost) error {
	query := `
		INSERT INTO job_posts (
			post_id, tenant_id, title, starts_at, ends_at,
			location_id, pay_rate, status, created_by, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
	`

	_, err := s.pool.Exec(ctx, query,
		post.PostID,
		post.TenantID,
		post.Title,
		post.StartsAt,
		post.EndsAt,
		post.LocationID,
		post.PayRate,
		post.Status,
		post.CreatedBy,
		post.CreatedAt,
		post.UpdatedAt,
	)

	if err != nil {
		return mapPostgresError(err)
	}

	log.Debug().
		Str("post_id", post.PostID.String()).
		Str("tenant_id", post.TenantID.String()).
		Msg("Created post")

	return nil
}

// Get retrieves a post by ID, tenant-scoped.
func (s *JobPostStore) Get(ctx context.Context, tenantID, postID uuid.UUID) (*models.JobPost, error) {
	query := `
		SELECT post_id, tenant_id, title, starts_at, ends_at,
		       location_id, pay_rate, status, created_by, created_at, updated_at
		FROM job_posts
		WHERE post_id = $1 AND tenant_id = $2
	`

	post, err := scanPost(s.pool.QueryRow(ctx, query, postID, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrPostNotFound
		}
		return nil, mapPostgresError(err)
	}

	return post, nil
}

// List returns the tenant's posts, optionally filtered by status, newest first.
func (s *JobPostStore) List(ctx context.Context, tenantID uuid.UUID, status models.PostStatus) ([]*models.JobPost, error) {
	query := `
		SELECT post_id, tenant_id, title, starts_at, ends_at,
		       location_id, pay_rate, status, created_by, created_at, updated_at
		FROM job_posts
		WHERE tenant_id = $1
	`
	args := []any{tenantID}

	if status != "" {
		query += " AND status = $2"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer rows.Close()

	var posts []*models.JobPost
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, mapPostgresError(err)
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, mapPostgresError(err)
	}

	return posts, nil
}

// UpdateStatus sets the post status and returns the updated row.
func (s *JobPostStore) UpdateStatus(ctx context.Context, tenantID, postID uuid.UUID, status models.PostStatus) (*models.JobPost, error) {
	query := `
		UPDATE job_posts SET
			status = $3,
			updated_at = $4
		WHERE post_id = $1 AND tenant_id = $2
		RETURNING post_id, tenant_id, title, starts_at, ends_at,
		          location_id, pay_rate, status, created_by, created_at, updated_at
	`

	post, err := scanPost(s.pool.QueryRow(ctx, query, postID, tenantID, status, time.Now()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrPostNotFound
		}
		return nil, mapPostgresError(err)
	}

	log.Debug().
		Str("post_id", postID.String()).
		Str("status", string(status)).
		Msg("Updated post status")

	return post, nil
}

func scanPost(row pgx.Row) (*models.JobPost, error) {
	var post models.JobPost
	err := row.Scan(
		&post.PostID,
		&post.TenantID,
		&post.Title,
		&post.StartsAt,
		&post.EndsAt,
		&post.LocationID,
		&post.PayRate,
		&post.Status,
		&post.CreatedBy,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan post: %w", err)
	}
	return &post, nil
}
