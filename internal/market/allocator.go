package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/shiftwise/marketd/internal/models"
	"github.com/shiftwise/marketd/internal/store"
	"github.com/shiftwise/marketd/internal/telemetry"
)

// AcceptSelector identifies which application to accept. ApplicationID wins
// when set; otherwise WorkerUserID selects the worker's application for the
// post; with neither, the most recently submitted application is used.
type AcceptSelector struct {
	ApplicationID *uuid.UUID
	WorkerUserID  *uuid.UUID
}

// Allocator commits binding assignments. Correctness under concurrent accept
// calls comes exclusively from the storage-level unique constraint on
// post_id plus the reinterpret-conflict-as-success re-read; the precondition
// checks exist to give well-behaved callers precise errors, not to arbitrate
// races.
type Allocator struct {
	posts        store.JobPostStore
	applications store.ApplicationStore
	assignments  store.AssignmentStore
	detector     *Detector

	now func() time.Time
}

// NewAllocator creates an allocator over the given stores.
func NewAllocator(posts store.JobPostStore, applications store.ApplicationStore, assignments store.AssignmentStore) *Allocator {
	return &Allocator{
		posts:        posts,
		applications: applications,
		assignments:  assignments,
		detector:     NewDetector(assignments),
		now:          time.Now,
	}
}

// Accept matches an application to an open post and commits exactly one
// assignment. Idempotent: retried or concurrent duplicate calls return the
// already committed assignment with created=false.
//
// Post.status and Application.status follow-up writes are reported but never
// rolled back; the assignment row is the source of truth for "is this post
// taken", and a stale post status is recoverable by re-read, whereas losing
// the assignment would reopen the double-booking window.
func (a *Allocator) Accept(ctx context.Context, tenantID uuid.UUID, postID uuid.UUID, sel AcceptSelector) (*models.Assignment, bool, error) {
	post, err := a.posts.Get(ctx, tenantID, postID)
	if err != nil {
		return nil, false, err
	}

	// Idempotency short-circuit: a retried accept or a duplicate request
	// that lost the race finds the committed assignment here.
	existing, err := a.assignments.GetByPost(ctx, tenantID, postID)
	if err == nil {
		log.Debug().
			Str("post_id", postID.String()).
			Str("assignment_id", existing.AssignmentID.String()).
			Msg("Post already assigned (idempotent accept)")
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrAssignmentNotFound) {
		return nil, false, fmt.Errorf("failed to check existing assignment: %w", err)
	}

	if post.Status != models.PostStatusOpen {
		return nil, false, fmt.Errorf("%w: post is %s", ErrPostNotOpen, post.Status)
	}

	app, err := a.resolveApplication(ctx, tenantID, postID, sel)
	if err != nil {
		return nil, false, err
	}

	conflict, err := a.detector.HasConflict(ctx, tenantID, app.WorkerUserID, post.Window(), &postID)
	if err != nil {
		return nil, false, err
	}
	if conflict {
		telemetry.TimeConflicts.Inc()
		return nil, false, fmt.Errorf("%w: worker %s in [%s, %s)", ErrTimeConflict,
			app.WorkerUserID, post.StartsAt.Format(time.RFC3339), post.EndsAt.Format(time.RFC3339))
	}

	assignment := &models.Assignment{
		AssignmentID: uuid.Must(uuid.NewV7()),
		PostID:       postID,
		TenantID:     tenantID,
		WorkerUserID: app.WorkerUserID,
		StartsAt:     post.StartsAt,
		EndsAt:       post.EndsAt,
		Status:       models.AssignmentStatusActive,
		CreatedAt:    a.now(),
	}

	err = a.assignments.Create(ctx, assignment)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyAssigned) {
			// Someone else won the race between the short-circuit read and
			// our insert. Re-read and return their assignment as a success.
			winner, rerr := a.assignments.GetByPost(ctx, tenantID, postID)
			if rerr != nil {
				return nil, false, fmt.Errorf("assignment conflict but re-read failed: %w", rerr)
			}
			telemetry.AssignmentRaces.Inc()
			log.Debug().
				Str("post_id", postID.String()).
				Str("assignment_id", winner.AssignmentID.String()).
				Msg("Assignment created concurrently (race resolved as success)")
			return winner, false, nil
		}
		return nil, false, fmt.Errorf("failed to create assignment: %w", err)
	}

	telemetry.AssignmentsCreated.Inc()
	log.Info().
		Str("post_id", postID.String()).
		Str("assignment_id", assignment.AssignmentID.String()).
		Str("worker_user_id", app.WorkerUserID.String()).
		Msg("Committed assignment")

	// Metadata follow-ups. Failures here are cosmetic inconsistencies the
	// next read repairs; the assignment stays committed.
	if _, err := a.posts.UpdateStatus(ctx, tenantID, postID, models.PostStatusAssigned); err != nil {
		log.Error().Err(err).Str("post_id", postID.String()).Msg("Failed to mark post assigned")
	}
	if _, err := a.applications.UpdateStatus(ctx, tenantID, app.ApplicationID, models.ApplicationStatusAccepted); err != nil {
		log.Error().Err(err).Str("application_id", app.ApplicationID.String()).Msg("Failed to mark application accepted")
	}

	return assignment, true, nil
}

// resolveApplication picks the target application for an accept call:
// explicit id, then (post, worker) lookup, then most-recently-submitted.
func (a *Allocator) resolveApplication(ctx context.Context, tenantID, postID uuid.UUID, sel AcceptSelector) (*models.Application, error) {
	switch {
	case sel.ApplicationID != nil:
		app, err := a.applications.Get(ctx, tenantID, *sel.ApplicationID)
		if err != nil {
			return nil, err
		}
		if app.PostID != postID {
			return nil, fmt.Errorf("%w: application belongs to another post", store.ErrApplicationNotFound)
		}
		return app, nil

	case sel.WorkerUserID != nil:
		return a.applications.GetByPostWorker(ctx, tenantID, postID, *sel.WorkerUserID)

	default:
		return a.applications.LatestForPost(ctx, tenantID, postID)
	}
}
