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

// AssignmentStore implements store.AssignmentStore using PostgreSQL.
//
// Create relies on the assignments_post_id_key unique constraint: concurrent
// accepts for the same post race on the insert, exactly one wins, and every
// loser sees store.ErrAlreadyAssigned. No advisory locks, no serializable
// transactions.
type AssignmentStore struct {
	pool *pgxpool.Pool
}

// NewAssignmentStore creates a new PostgreSQL-backed assignment store.
func NewAssignmentStore(pool *pgxpool.Pool) *AssignmentStore {
	return &AssignmentStore{pool: pool}
}

// Create inserts an assignment. Returns store.ErrAlreadyAssigned when the
// post already has one.
func (s *AssignmentStore) Create(ctx context.Context, a *models.Assignment) error {
	query := `
		INSERT INTO assignments (
			assignment_id, post_id, tenant_id, worker_user_id,
			starts_at, ends_at, status, created_at, completed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
	`

	_, err := s.pool.Exec(ctx, query,
		a.AssignmentID,
		a.PostID,
		a.TenantID,
		a.WorkerUserID,
		a.StartsAt,
		a.EndsAt,
		a.Status,
		a.CreatedAt,
		a.CompletedAt,
	)

	if err != nil {
		return mapPostgresError(err)
	}

	log.Debug().
		Str("assignment_id", a.AssignmentID.String()).
		Str("post_id", a.PostID.String()).
		Str("worker_user_id", a.WorkerUserID.String()).
		Msg("Created assignment")

	return nil
}

// Get retrieves an assignment by ID, tenant-scoped.
func (s *AssignmentStore) Get(ctx context.Context, tenantID, assignmentID uuid.UUID) (*models.Assignment, error) {
	query := `
		SELECT assignment_id, post_id, tenant_id, worker_user_id,
		       starts_at, ends_at, status, created_at, completed_at
		FROM assignments
		WHERE assignment_id = $1 AND tenant_id = $2
	`

	a, err := scanAssignment(s.pool.QueryRow(ctx, query, assignmentID, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrAssignmentNotFound
		}
		return nil, mapPostgresError(err)
	}

	return a, nil
}

// GetByPost retrieves the assignment for a post, if any.
func (s *AssignmentStore) GetByPost(ctx context.Context, tenantID, postID uuid.UUID) (*models.Assignment, error) {
	query := `
		SELECT assignment_id, post_id, tenant_id, worker_user_id,
		       starts_at, ends_at, status, created_at, completed_at
		FROM assignments
		WHERE tenant_id = $1 AND post_id = $2
	`

	a, err := scanAssignment(s.pool.QueryRow(ctx, query, tenantID, postID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrAssignmentNotFound
		}
		return nil, mapPostgresError(err)
	}

	return a, nil
}

// ListActiveOverlapping returns the worker's active assignments whose
// half-open windows intersect w. Back-to-back assignments do not overlap.
func (s *AssignmentStore) ListActiveOverlapping(ctx context.Context, tenantID, workerUserID uuid.UUID, w models.Window, excludePostID *uuid.UUID) ([]*models.Assignment, error) {
	query := `
		SELECT assignment_id, post_id, tenant_id, worker_user_id,
		       starts_at, ends_at, status, created_at, completed_at
		FROM assignments
		WHERE tenant_id = $1
		  AND worker_user_id = $2
		  AND status = $3
		  AND starts_at < $4
		  AND ends_at > $5
	`
	args := []any{tenantID, workerUserID, models.AssignmentStatusActive, w.EndsAt, w.StartsAt}

	if excludePostID != nil {
		query += ` AND post_id <> $6`
		args = append(args, *excludePostID)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer rows.Close()

	var assignments []*models.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, mapPostgresError(err)
		}
		assignments = append(assignments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, mapPostgresError(err)
	}

	return assignments, nil
}

// Complete marks an assignment completed. Repeat calls keep the original
// completed_at.
func (s *AssignmentStore) Complete(ctx context.Context, tenantID, assignmentID uuid.UUID, completedAt time.Time) (*models.Assignment, error) {
	query := `
		UPDATE assignments SET
			status = $3,
			completed_at = COALESCE(completed_at, $4)
		WHERE assignment_id = $1 AND tenant_id = $2
		RETURNING assignment_id, post_id, tenant_id, worker_user_id,
		          starts_at, ends_at, status, created_at, completed_at
	`

	a, err := scanAssignment(s.pool.QueryRow(ctx, query, assignmentID, tenantID, models.AssignmentStatusCompleted, completedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrAssignmentNotFound
		}
		return nil, mapPostgresError(err)
	}

	return a, nil
}

func scanAssignment(row pgx.Row) (*models.Assignment, error) {
	var a models.Assignment
	err := row.Scan(
		&a.AssignmentID,
		&a.PostID,
		&a.TenantID,
		&a.WorkerUserID,
		&a.StartsAt,
		&a.EndsAt,
		&a.Status,
		&a.CreatedAt,
		&a.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan assignment: %w", err)
	}
	return &a, nil
}
