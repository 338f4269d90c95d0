package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/shiftwise/marketd/internal/lifecycle"
	"github.com/shiftwise/marketd/internal/models"
	"github.com/shiftwise/marketd/internal/notify"
	"github.com/shiftwise/marketd/internal/perms"
	"github.com/shiftwise/marketd/internal/store"
)

// ManagerDirectory resolves the managers of a tenant for notification
// fan-out. The directory itself lives outside the marketplace core.
type ManagerDirectory interface {
	ManagersFor(ctx context.Context, tenantID uuid.UUID) ([]uuid.UUID, error)
}

// StaticManagers is a fixed-list ManagerDirectory for dev mode and tests.
type StaticManagers map[uuid.UUID][]uuid.UUID

func (m StaticManagers) ManagersFor(ctx context.Context, tenantID uuid.UUID) ([]uuid.UUID, error) {
	return m[tenantID], nil
}

// Service is the marketplace core exposed to route handlers: post lifecycle,
// applications, the race-safe accept path, invites, and the notification
// stream. Every operation is tenant-scoped by the caller's principal.
type Service struct {
	stores    *store.Stores
	allocator *Allocator
	notifier  *notify.Notifier
	managers  ManagerDirectory

	now func() time.Time
}

// NewService wires the marketplace core.
func NewService(stores *store.Stores, notifier *notify.Notifier, managers ManagerDirectory) *Service {
	return &Service{
		stores:    stores,
		allocator: NewAllocator(stores.Posts, stores.Applications, stores.Assignments),
		notifier:  notifier,
		managers:  managers,
		now:       time.Now,
	}
}

// CreatePostInput carries the content fields of a new post.
type CreatePostInput struct {
	Title      string
	StartsAt   time.Time
	EndsAt     time.Time
	LocationID *uuid.UUID
	PayRate    *float64
}

// CreatePost opens a new shift-cover post. Management only.
func (s *Service) CreatePost(ctx context.Context, p models.Principal, in CreatePostInput) (*models.JobPost, error) {
	if err := s.requireManage(p); err != nil {
		return nil, err
	}
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	w := models.Window{StartsAt: in.StartsAt, EndsAt: in.EndsAt}
	if !w.IsValid() {
		return nil, fmt.Errorf("%w: startsAt must be before endsAt", ErrValidation)
	}

	now := s.now()
	post := &models.JobPost{
		PostID:     uuid.Must(uuid.NewV7()),
		TenantID:   p.TenantID,
		Title:      in.Title,
		StartsAt:   in.StartsAt,
		EndsAt:     in.EndsAt,
		LocationID: in.LocationID,
		PayRate:    in.PayRate,
		Status:     models.PostStatusOpen,
		CreatedBy:  p.UserID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.stores.Posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	log.Info().
		Str("post_id", post.PostID.String()).
		Str("tenant_id", p.TenantID.String()).
		Msg("Created post")

	return post, nil
}

// GetPost returns a post by id, tenant-scoped.
func (s *Service) GetPost(ctx context.Context, p models.Principal, postID uuid.UUID) (*models.JobPost, error) {
	return s.stores.Posts.Get(ctx, p.TenantID, postID)
}

// ListPosts returns the tenant's posts, optionally filtered by status.
func (s *Service) ListPosts(ctx context.Context, p models.Principal, status models.PostStatus) ([]*models.JobPost, error) {
	return s.stores.Posts.List(ctx, p.TenantID, status)
}

// TransitionPost applies a lifecycle action to a post. Cancellation fans out
// a post_cancelled notification to every applicant still invested in it.
func (s *Service) TransitionPost(ctx context.Context, p models.Principal, postID uuid.UUID, action lifecycle.PostAction) (*models.JobPost, error) {
	if err := s.requireManage(p); err != nil {
		return nil, err
	}

	post, err := s.stores.Posts.Get(ctx, p.TenantID, postID)
	if err != nil {
		return nil, err
	}

	next, ok := lifecycle.CanTransition(post.Status, action)
	if !ok {
		return nil, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, action, post.Status)
	}

	updated, err := s.stores.Posts.UpdateStatus(ctx, p.TenantID, postID, next)
	if err != nil {
		return nil, fmt.Errorf("failed to transition post: %w", err)
	}

	log.Info().
		Str("post_id", postID.String()).
		Str("from", string(post.Status)).
		Str("to", string(next)).
		Msg("Transitioned post")

	if next == models.PostStatusCancelled {
		s.notifyPostCancelled(ctx, p, updated)
	}

	return updated, nil
}

// notifyPostCancelled tells every still-invested applicant the post is gone.
// Notification failures never fail the transition.
func (s *Service) notifyPostCancelled(ctx context.Context, p models.Principal, post *models.JobPost) {
	apps, err := s.stores.Applications.ListByPost(ctx, p.TenantID, post.PostID)
	if err != nil {
		log.Error().Err(err).Str("post_id", post.PostID.String()).Msg("Failed to list applicants for cancellation notice")
		return
	}

	recipients := notify.SelectCancelledPostRecipients(apps)
	payload := models.NotificationPayload{JobPostID: &post.PostID}
	if err := s.notifier.Notify(ctx, p.TenantID, recipients, models.NotificationTypePostCancelled, payload); err != nil {
		log.Error().Err(err).Str("post_id", post.PostID.String()).Msg("Failed to notify applicants of cancellation")
	}
}

// SubmitApplication records a worker's application to an open post.
// Resubmission is idempotent: the existing application is returned.
func (s *Service) SubmitApplication(ctx context.Context, p models.Principal, postID uuid.UUID) (*models.Application, error) {
	post, err := s.stores.Posts.Get(ctx, p.TenantID, postID)
	if err != nil {
		return nil, err
	}
	if post.Status != models.PostStatusOpen {
		return nil, fmt.Errorf("%w: post is %s", ErrPostNotOpen, post.Status)
	}

	now := s.now()
	app := &models.Application{
		ApplicationID: uuid.Must(uuid.NewV7()),
		PostID:        postID,
		TenantID:      p.TenantID,
		WorkerUserID:  p.UserID,
		Status:        models.ApplicationStatusSubmitted,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.stores.Applications.Create(ctx, app)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateApplication) {
			return s.stores.Applications.GetByPostWorker(ctx, p.TenantID, postID, p.UserID)
		}
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	log.Info().
		Str("application_id", app.ApplicationID.String()).
		Str("post_id", postID.String()).
		Msg("Submitted application")

	s.notifyManagers(ctx, p.TenantID, uuid.Nil, models.NotificationTypeApplicationReceived,
		models.NotificationPayload{JobPostID: &postID, ApplicationID: &app.ApplicationID})

	return app, nil
}

// ListApplications returns all applications for a post. Management only.
func (s *Service) ListApplications(ctx context.Context, p models.Principal, postID uuid.UUID) ([]*models.Application, error) {
	if err := s.requireManage(p); err != nil {
		return nil, err
	}
	return s.stores.Applications.ListByPost(ctx, p.TenantID, postID)
}

// AcceptApplication matches an application to the post and commits the
// binding assignment. Returns created=false for idempotent repeats and
// race-losing duplicates; both describe the same committed assignment.
func (s *Service) AcceptApplication(ctx context.Context, p models.Principal, postID uuid.UUID, sel AcceptSelector) (*models.Assignment, bool, error) {
	if err := s.requireManage(p); err != nil {
		return nil, false, err
	}

	assignment, created, err := s.allocator.Accept(ctx, p.TenantID, postID, sel)
	if err != nil {
		return nil, false, err
	}

	if created {
		payload := models.NotificationPayload{
			JobPostID:    &assignment.PostID,
			AssignmentID: &assignment.AssignmentID,
		}
		s.notifyManagers(ctx, p.TenantID, p.UserID, models.NotificationTypePostAssigned, payload)

		if err := s.notifier.Notify(ctx, p.TenantID, []uuid.UUID{assignment.WorkerUserID},
			models.NotificationTypeApplicationAccepted, payload); err != nil {
			log.Error().Err(err).Str("assignment_id", assignment.AssignmentID.String()).Msg("Failed to notify worker of acceptance")
		}
	}

	return assignment, created, nil
}

// CompleteAssignment marks an active assignment completed. Repeating the
// call is a no-op returning the stored row.
func (s *Service) CompleteAssignment(ctx context.Context, p models.Principal, assignmentID uuid.UUID) (*models.Assignment, error) {
	if err := s.requireManage(p); err != nil {
		return nil, err
	}

	assignment, err := s.stores.Assignments.Complete(ctx, p.TenantID, assignmentID, s.now())
	if err != nil {
		return nil, err
	}

	payload := models.NotificationPayload{
		JobPostID:    &assignment.PostID,
		AssignmentID: &assignment.AssignmentID,
	}
	if err := s.notifier.Notify(ctx, p.TenantID, []uuid.UUID{assignment.WorkerUserID},
		models.NotificationTypeAssignmentCompleted, payload); err != nil {
		log.Error().Err(err).Str("assignment_id", assignmentID.String()).Msg("Failed to notify worker of completion")
	}

	return assignment, nil
}

// CreateInvite asks a specific worker to cover a post. Management only.
func (s *Service) CreateInvite(ctx context.Context, p models.Principal, postID, workerUserID uuid.UUID) (*models.Invite, error) {
	if err := s.requireManage(p); err != nil {
		return nil, err
	}

	post, err := s.stores.Posts.Get(ctx, p.TenantID, postID)
	if err != nil {
		return nil, err
	}
	if post.Status != models.PostStatusOpen {
		return nil, fmt.Errorf("%w: post is %s", ErrPostNotOpen, post.Status)
	}

	now := s.now()
	inv := &models.Invite{
		InviteID:     uuid.Must(uuid.NewV7()),
		PostID:       postID,
		TenantID:     p.TenantID,
		WorkerUserID: workerUserID,
		CreatedBy:    p.UserID,
		Status:       models.InviteStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.stores.Invites.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to create invite: %w", err)
	}

	if err := s.notifier.Notify(ctx, p.TenantID, []uuid.UUID{workerUserID},
		models.NotificationTypeInviteReceived,
		models.NotificationPayload{JobPostID: &postID}); err != nil {
		log.Error().Err(err).Str("invite_id", inv.InviteID.String()).Msg("Failed to notify worker of invite")
	}

	return inv, nil
}

// RespondInvite applies a worker's decision to their pending invite.
func (s *Service) RespondInvite(ctx context.Context, p models.Principal, inviteID uuid.UUID, decision lifecycle.InviteDecision) (*models.Invite, error) {
	inv, err := s.stores.Invites.Get(ctx, p.TenantID, inviteID)
	if err != nil {
		return nil, err
	}

	// Only the invited worker or management may respond.
	if inv.WorkerUserID != p.UserID && !perms.CanManage(perms.FromGrants(p.Permissions)) {
		return nil, fmt.Errorf("%w: invite addressed to another worker", ErrForbidden)
	}

	next, ok := lifecycle.CanRespondInvite(inv.Status, decision)
	if !ok {
		return nil, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, decision, inv.Status)
	}

	updated, err := s.stores.Invites.UpdateStatus(ctx, p.TenantID, inviteID, next)
	if err != nil {
		return nil, fmt.Errorf("failed to update invite: %w", err)
	}

	log.Info().
		Str("invite_id", inviteID.String()).
		Str("decision", string(decision)).
		Msg("Invite responded")

	if err := s.notifier.Notify(ctx, p.TenantID, []uuid.UUID{inv.CreatedBy},
		models.NotificationTypeInviteResponded,
		models.NotificationPayload{JobPostID: &inv.PostID}); err != nil {
		log.Error().Err(err).Str("invite_id", inviteID.String()).Msg("Failed to notify inviter of response")
	}

	return updated, nil
}

// ListNotifications returns the caller's notifications, newest first.
func (s *Service) ListNotifications(ctx context.Context, p models.Principal) ([]*models.Notification, error) {
	return s.stores.Notifications.ListForUser(ctx, p.TenantID, p.UserID)
}

// MarkNotificationRead sets the read flag on the caller's notification.
// First read wins; re-marking is a no-op, not an error.
func (s *Service) MarkNotificationRead(ctx context.Context, p models.Principal, notificationID uuid.UUID) (*models.Notification, error) {
	prev, err := s.stores.Notifications.Get(ctx, p.TenantID, notificationID)
	if err != nil {
		return nil, err
	}
	if prev.UserID != p.UserID {
		return nil, store.ErrNotificationNotFound
	}
	if prev.ReadAt != nil {
		return prev, nil
	}

	readAt := s.now()
	next := *prev
	next.ReadAt = &readAt
	if !notify.CanOnlyUpdateReadAt(prev, &next) {
		return nil, fmt.Errorf("%w: notification update touches more than the read flag", ErrValidation)
	}

	return s.stores.Notifications.MarkRead(ctx, p.TenantID, p.UserID, notificationID, readAt)
}

// notifyManagers fans out an event to the acting user (when present) and
// the tenant's managers. Failures are logged, never propagated.
func (s *Service) notifyManagers(ctx context.Context, tenantID, actor uuid.UUID, typ string, payload models.NotificationPayload) {
	managerIDs, err := s.managers.ManagersFor(ctx, tenantID)
	if err != nil {
		log.Error().Err(err).Str("tenant_id", tenantID.String()).Msg("Failed to resolve managers")
		return
	}

	recipients := notify.SelectRecipients(managerIDs, actor)
	if err := s.notifier.Notify(ctx, tenantID, recipients, typ, payload); err != nil {
		log.Error().Err(err).Str("type", typ).Msg("Failed to notify managers")
	}
}

func (s *Service) requireManage(p models.Principal) error {
	if !perms.CanManage(perms.FromGrants(p.Permissions)) {
		return fmt.Errorf("%w: management permission required", ErrForbidden)
	}
	return nil
}
