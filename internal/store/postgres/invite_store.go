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

// InviteStore implements store.InviteStore using PostgreSQL.
type InviteStore struct {
	pool *pgxpool.Pool
}

// NewInviteStore creates a new PostgreSQL-backed invite store.
func NewInviteStore(pool *pgxpool.Pool) *InviteStore {
	return &InviteStore{pool: pool}
}

// Create inserts a new invite.
func (s *InviteStore) Create(ctx context.Context, inv *models.Invite) error {
	query := `
		INSERT INTO invites (
			invite_id, post_id, tenant_id, worker_user_id,
			created_by, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
	`

	_, err := s.pool.Exec(ctx, query,
		inv.InviteID,
		inv.PostID,
		inv.TenantID,
		inv.WorkerUserID,
		inv.CreatedBy,
		inv.Status,
		inv.CreatedAt,
		inv.UpdatedAt,
	)

	if err != nil {
		return mapPostgresError(err)
	}

	log.Debug().
		Str("invite_id", inv.InviteID.String()).
		Str("post_id", inv.PostID.String()).
		Msg("Created invite")

	return nil
}

// Get retrieves an invite by ID, tenant-scoped.
func (s *InviteStore) Get(ctx context.Context, tenantID, inviteID uuid.UUID) (*models.Invite, error) {
	query := `
		SELECT invite_id, post_id, tenant_id, worker_user_id,
		       created_by, status, created_at, updated_at
		FROM invites
		WHERE invite_id = $1 AND tenant_id = $2
	`

	inv, err := scanInvite(s.pool.QueryRow(ctx, query, inviteID, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrInviteNotFound
		}
		return nil, mapPostgresError(err)
	}

	return inv, nil
}

// UpdateStatus sets the invite status and returns the updated row.
func (s *InviteStore) UpdateStatus(ctx context.Context, tenantID, inviteID uuid.UUID, status models.InviteStatus) (*models.Invite, error) {
	query := `
		UPDATE invites SET
			status = $3,
			updated_at = $4
		WHERE invite_id = $1 AND tenant_id = $2
		RETURNING invite_id, post_id, tenant_id, worker_user_id,
		          created_by, status, created_at, updated_at
	`

	inv, err := scanInvite(s.pool.QueryRow(ctx, query, inviteID, tenantID, status, time.Now()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrInviteNotFound
		}
		return nil, mapPostgresError(err)
	}

	return inv, nil
}

func scanInvite(row pgx.Row) (*models.Invite, error) {
	var inv models.Invite
	err := row.Scan(
		&inv.InviteID,
		&inv.PostID,
		&inv.TenantID,
		&inv.WorkerUserID,
		&inv.CreatedBy,
		&inv.Status,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan invite: %w", err)
	}
	return &inv, nil
}
