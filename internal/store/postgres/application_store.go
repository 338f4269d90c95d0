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

// ApplicationStore implements store.ApplicationStore using PostgreSQL. The
// unique index on (post_id, worker_user_id) makes resubmission detection a
// storage concern rather than a read-then-write check.
type ApplicationStore struct {
	pool *pgxpool.Pool
}

// NewApplicationStore creates a new PostgreSQL-backed application store.
func NewApplicationStore(pool *pgxpool.Pool) *ApplicationStore {
	return &ApplicationStore{pool: pool}
}

// Create creates a new application. Returns store.ErrDuplicateApplication
// when the worker already applied to the post.
func (s *ApplicationStore) Create(ctx context.Context, app *models.Application) error {
	query := `
		INSERT INTO applications (
			application_id, post_id, tenant_id, worker_user_id,
			status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
	`

	_, err := s.pool.Exec(ctx, query,
		app.ApplicationID,
		app.PostID,
		app.TenantID,
		app.WorkerUserID,
		app.Status,
		app.CreatedAt,
		app.UpdatedAt,
	)

	if err != nil {
		return mapPostgresError(err)
	}

	log.Debug().
		Str("application_id", app.ApplicationID.String()).
		Str("post_id", app.PostID.String()).
		Msg("Created application")

	return nil
}

// Get retrieves an application by ID, tenant-scoped.
func (s *ApplicationStore) Get(ctx context.Context, tenantID, applicationID uuid.UUID) (*models.Application, error) {
	query := `
		SELECT application_id, post_id, tenant_id, worker_user_id,
		       status, created_at, updated_at
		FROM applications
		WHERE application_id = $1 AND tenant_id = $2
	`

	return s.queryOne(ctx, query, applicationID, tenantID)
}

// GetByPostWorker retrieves the application a worker submitted for a post.
func (s *ApplicationStore) GetByPostWorker(ctx context.Context, tenantID, postID, workerUserID uuid.UUID) (*models.Application, error) {
	query := `
		SELECT application_id, post_id, tenant_id, worker_user_id,
		       status, created_at, updated_at
		FROM applications
		WHERE tenant_id = $1 AND post_id = $2 AND worker_user_id = $3
	`

	return s.queryOne(ctx, query, tenantID, postID, workerUserID)
}

// LatestForPost returns the most recently submitted application still in
// submitted state.
func (s *ApplicationStore) LatestForPost(ctx context.Context, tenantID, postID uuid.UUID) (*models.Application, error) {
	query := `
		SELECT application_id, post_id, tenant_id, worker_user_id,
		       status, created_at, updated_at
		FROM applications
		WHERE tenant_id = $1 AND post_id = $2 AND status = $3
		ORDER BY created_at DESC
		LIMIT 1
	`

	return s.queryOne(ctx, query, tenantID, postID, models.ApplicationStatusSubmitted)
}

// ListByPost returns all applications for a post.
func (s *ApplicationStore) ListByPost(ctx context.Context, tenantID, postID uuid.UUID) ([]*models.Application, error) {
	query := `
		SELECT application_id, post_id, tenant_id, worker_user_id,
		       status, created_at, updated_at
		FROM applications
		WHERE tenant_id = $1 AND post_id = $2
		ORDER BY created_at ASC
	`

	rows, err := s.pool.Query(ctx, query, tenantID, postID)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer rows.Close()

	var apps []*models.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, mapPostgresError(err)
		}
		apps = append(apps, app)
	}

	if err := rows.Err(); err != nil {
		return nil, mapPostgresError(err)
	}

	return apps, nil
}

// UpdateStatus sets the application status and returns the updated row.
func (s *ApplicationStore) UpdateStatus(ctx context.Context, tenantID, applicationID uuid.UUID, status models.ApplicationStatus) (*models.Application, error) {
	query := `
		UPDATE applications SET
			status = $3,
			updated_at = $4
		WHERE application_id = $1 AND tenant_id = $2
		RETURNING application_id, post_id, tenant_id, worker_user_id,
		          status, created_at, updated_at
	`

	app, err := scanApplication(s.pool.QueryRow(ctx, query, applicationID, tenantID, status, time.Now()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrApplicationNotFound
		}
		return nil, mapPostgresError(err)
	}

	return app, nil
}

func (s *ApplicationStore) queryOne(ctx context.Context, query string, args ...any) (*models.Application, error) {
	app, err := scanApplication(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrApplicationNotFound
		}
		return nil, mapPostgresError(err)
	}
	return app, nil
}

func scanApplication(row pgx.Row) (*models.Application, error) {
	var app models.Application
	err := row.Scan(
		&app.ApplicationID,
		&app.PostID,
		&app.TenantID,
		&app.WorkerUserID,
		&app.Status,
		&app.CreatedAt,
		&app.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan application: %w", err)
	}
	return &app, nil
}
