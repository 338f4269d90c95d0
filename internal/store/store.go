// Package store defines the storage interfaces consumed by the marketplace
// core and the sentinel errors every implementation maps its backend
// failures onto. Two implementations exist: postgres for production and
// memory for tests and dev mode.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/shiftwise/marketd/internal/models"
)

// Sentinel errors for common error conditions.
var (
	ErrPostNotFound         = errors.New("post not found")
	ErrApplicationNotFound  = errors.New("application not found")
	ErrAssignmentNotFound   = errors.New("assignment not found")
	ErrInviteNotFound       = errors.New("invite not found")
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrAlreadyAssigned is returned by AssignmentStore.Create when the
	// unique constraint on post_id fires. Callers treat it as "someone else
	// won the race" and re-read, never as a user-visible failure.
	ErrAlreadyAssigned = errors.New("post already has an assignment")

	// ErrDuplicateApplication is returned by ApplicationStore.Create when
	// the (post_id, worker_user_id) constraint fires. Resubmissions are
	// resolved idempotently by re-reading the existing row.
	ErrDuplicateApplication = errors.New("worker already applied to post")

	// ErrUnavailable wraps backend connectivity failures. Safe to retry.
	ErrUnavailable = errors.New("store unavailable")
)

// JobPostStore persists job-cover posts. All reads are tenant-scoped; a
// lookup from the wrong tenant reports ErrPostNotFound rather than leaking
// existence.
type JobPostStore interface {
	Create(ctx context.Context, post *models.JobPost) error
	Get(ctx context.Context, tenantID, postID uuid.UUID) (*models.JobPost, error)
	List(ctx context.Context, tenantID uuid.UUID, status models.PostStatus) ([]*models.JobPost, error)

	// UpdateStatus transitions the post status. Legality of the transition
	// is the caller's responsibility (lifecycle package).
	UpdateStatus(ctx context.Context, tenantID, postID uuid.UUID, status models.PostStatus) (*models.JobPost, error)
}

// ApplicationStore persists worker applications. The storage layer enforces
// at most one application per (post, worker) pair.
type ApplicationStore interface {
	Create(ctx context.Context, app *models.Application) error
	Get(ctx context.Context, tenantID, applicationID uuid.UUID) (*models.Application, error)
	GetByPostWorker(ctx context.Context, tenantID, postID, workerUserID uuid.UUID) (*models.Application, error)

	// LatestForPost returns the most recently submitted application still in
	// submitted state, or ErrApplicationNotFound.
	LatestForPost(ctx context.Context, tenantID, postID uuid.UUID) (*models.Application, error)
	ListByPost(ctx context.Context, tenantID, postID uuid.UUID) ([]*models.Application, error)
	UpdateStatus(ctx context.Context, tenantID, applicationID uuid.UUID, status models.ApplicationStatus) (*models.Application, error)
}

// AssignmentStore persists binding assignments. Create must report
// ErrAlreadyAssigned when an assignment already exists for the post; that
// constraint is the sole race arbiter for the accept path.
type AssignmentStore interface {
	Create(ctx context.Context, a *models.Assignment) error
	Get(ctx context.Context, tenantID, assignmentID uuid.UUID) (*models.Assignment, error)
	GetByPost(ctx context.Context, tenantID, postID uuid.UUID) (*models.Assignment, error)

	// ListActiveOverlapping returns the worker's active assignments whose
	// half-open windows intersect w, excluding excludePostID when non-nil.
	ListActiveOverlapping(ctx context.Context, tenantID, workerUserID uuid.UUID, w models.Window, excludePostID *uuid.UUID) ([]*models.Assignment, error)

	// Complete marks an active assignment completed. Completing an already
	// completed assignment is a no-op returning the stored row.
	Complete(ctx context.Context, tenantID, assignmentID uuid.UUID, completedAt time.Time) (*models.Assignment, error)
}

// InviteStore persists direct invites.
type InviteStore interface {
	Create(ctx context.Context, inv *models.Invite) error
	Get(ctx context.Context, tenantID, inviteID uuid.UUID) (*models.Invite, error)
	UpdateStatus(ctx context.Context, tenantID, inviteID uuid.UUID, status models.InviteStatus) (*models.Invite, error)
}

// NotificationStore persists notifications. Rows are append-only except for
// the write-once read flag; MarkRead on an already-read row returns the
// stored row unchanged.
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	Get(ctx context.Context, tenantID, notificationID uuid.UUID) (*models.Notification, error)
	ListForUser(ctx context.Context, tenantID, userID uuid.UUID) ([]*models.Notification, error)

	// ListRecent returns the user's notifications of the given type created
	// at or after since, used by the dedupe suppression check.
	ListRecent(ctx context.Context, tenantID, userID uuid.UUID, typ string, since time.Time) ([]*models.Notification, error)
	MarkRead(ctx context.Context, tenantID, userID, notificationID uuid.UUID, readAt time.Time) (*models.Notification, error)
}

// Stores bundles every store interface for wiring.
type Stores struct {
	Posts         JobPostStore
	Applications  ApplicationStore
	Assignments   AssignmentStore
	Invites       InviteStore
	Notifications NotificationStore
}
