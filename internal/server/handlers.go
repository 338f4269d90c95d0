package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/shiftwise/marketd/internal/auth"
	"github.com/shiftwise/marketd/internal/lifecycle"
	"github.com/shiftwise/marketd/internal/market"
	"github.com/shiftwise/marketd/internal/models"
	"github.com/shiftwise/marketd/internal/store"
)

type postResponse struct {
	PostID     uuid.UUID  `json:"postId"`
	TenantID   uuid.UUID  `json:"tenantId"`
	Title      string     `json:"title"`
	StartsAt   time.Time  `json:"startsAt"`
	EndsAt     time.Time  `json:"endsAt"`
	LocationID *uuid.UUID `json:"locationId,omitempty"`
	PayRate    *float64   `json:"payRate,omitempty"`
	Status     string     `json:"status"`
	CreatedBy  uuid.UUID  `json:"createdBy"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func toPostResponse(p *models.JobPost) postResponse {
	return postResponse{
		PostID:     p.PostID,
		TenantID:   p.TenantID,
		Title:      p.Title,
		StartsAt:   p.StartsAt,
		EndsAt:     p.EndsAt,
		LocationID: p.LocationID,
		PayRate:    p.PayRate,
		Status:     string(p.Status),
		CreatedBy:  p.CreatedBy,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

type applicationResponse struct {
	ApplicationID uuid.UUID `json:"applicationId"`
	PostID        uuid.UUID `json:"postId"`
	WorkerUserID  uuid.UUID `json:"workerUserId"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toApplicationResponse(a *models.Application) applicationResponse {
	return applicationResponse{
		ApplicationID: a.ApplicationID,
		PostID:        a.PostID,
		WorkerUserID:  a.WorkerUserID,
		Status:        string(a.Status),
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

type assignmentResponse struct {
	AssignmentID uuid.UUID  `json:"assignmentId"`
	PostID       uuid.UUID  `json:"postId"`
	WorkerUserID uuid.UUID  `json:"workerUserId"`
	StartsAt     time.Time  `json:"startsAt"`
	EndsAt       time.Time  `json:"endsAt"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

func toAssignmentResponse(a *models.Assignment) assignmentResponse {
	return assignmentResponse{
		AssignmentID: a.AssignmentID,
		PostID:       a.PostID,
		WorkerUserID: a.WorkerUserID,
		StartsAt:     a.StartsAt,
		EndsAt:       a.EndsAt,
		Status:       string(a.Status),
		CreatedAt:    a.CreatedAt,
		CompletedAt:  a.CompletedAt,
	}
}

type inviteResponse struct {
	InviteID     uuid.UUID `json:"inviteId"`
	PostID       uuid.UUID `json:"postId"`
	WorkerUserID uuid.UUID `json:"workerUserId"`
	CreatedBy    uuid.UUID `json:"createdBy"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toInviteResponse(inv *models.Invite) inviteResponse {
	return inviteResponse{
		InviteID:     inv.InviteID,
		PostID:       inv.PostID,
		WorkerUserID: inv.WorkerUserID,
		CreatedBy:    inv.CreatedBy,
		Status:       string(inv.Status),
		CreatedAt:    inv.CreatedAt,
		UpdatedAt:    inv.UpdatedAt,
	}
}

type notificationResponse struct {
	NotificationID uuid.UUID                  `json:"notificationId"`
	Type           string                     `json:"type"`
	Payload        models.NotificationPayload `json:"payload"`
	CreatedAt      time.Time                  `json:"createdAt"`
	ReadAt         *time.Time                 `json:"readAt,omitempty"`
}

func toNotificationResponse(n *models.Notification) notificationResponse {
	return notificationResponse{
		NotificationID: n.NotificationID,
		Type:           n.Type,
		Payload:        n.Payload,
		CreatedAt:      n.CreatedAt,
		ReadAt:         n.ReadAt,
	}
}

type createPostRequest struct {
	Title      string     `json:"title"`
	StartsAt   time.Time  `json:"startsAt"`
	EndsAt     time.Time  `json:"endsAt"`
	LocationID *uuid.UUID `json:"locationId,omitempty"`
	PayRate    *float64   `json:"payRate,omitempty"`
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req createPostRequest
	if !decode(w, r, &req) {
		return
	}

	post, err := s.service.CreatePost(r.Context(), p, market.CreatePostInput{
		Title:      req.Title,
		StartsAt:   req.StartsAt,
		EndsAt:     req.EndsAt,
		LocationID: req.LocationID,
		PayRate:    req.PayRate,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPostResponse(post))
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	postID, ok := pathUUID(w, r, "postID")
	if !ok {
		return
	}

	post, err := s.service.GetPost(r.Context(), p, postID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPostResponse(post))
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	posts, err := s.service.ListPosts(r.Context(), p, models.PostStatus(r.URL.Query().Get("status")))
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]postResponse, 0, len(posts))
	for _, post := range posts {
		out = append(out, toPostResponse(post))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleTransitionPost serves the close, cancel and reopen routes; the
// action is the final path segment.
func (s *Server) handleTransitionPost(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	postID, ok := pathUUID(w, r, "postID")
	if !ok {
		return
	}

	action := lifecycle.PostAction(path.Base(r.URL.Path))
	post, err := s.service.TransitionPost(r.Context(), p, postID, action)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPostResponse(post))
}

func (s *Server) handleSubmitApplication(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	postID, ok := pathUUID(w, r, "postID")
	if !ok {
		return
	}

	app, err := s.service.SubmitApplication(r.Context(), p, postID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toApplicationResponse(app))
}

func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	postID, ok := pathUUID(w, r, "postID")
	if !ok {
		return
	}

	apps, err := s.service.ListApplications(r.Context(), p, postID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]applicationResponse, 0, len(apps))
	for _, app := range apps {
		out = append(out, toApplicationResponse(app))
	}
	writeJSON(w, http.StatusOK, out)
}

type acceptRequest struct {
	ApplicationID *uuid.UUID `json:"applicationId,omitempty"`
	WorkerUserID  *uuid.UUID `json:"workerUserId,omitempty"`
}

func (s *Server) handleAcceptApplication(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	postID, ok := pathUUID(w, r, "postID")
	if !ok {
		return
	}

	var req acceptRequest
	if !decode(w, r, &req) {
		return
	}

	assignment, created, err := s.service.AcceptApplication(r.Context(), p, postID, market.AcceptSelector{
		ApplicationID: req.ApplicationID,
		WorkerUserID:  req.WorkerUserID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, toAssignmentResponse(assignment))
}

func (s *Server) handleCompleteAssignment(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	assignmentID, ok := pathUUID(w, r, "assignmentID")
	if !ok {
		return
	}

	assignment, err := s.service.CompleteAssignment(r.Context(), p, assignmentID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toAssignmentResponse(assignment))
}

type createInviteRequest struct {
	WorkerUserID uuid.UUID `json:"workerUserId"`
}

func (s *Server) handleCreateInvite(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	postID, ok := pathUUID(w, r, "postID")
	if !ok {
		return
	}

	var req createInviteRequest
	if !decode(w, r, &req) {
		return
	}
	if req.WorkerUserID == uuid.Nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "workerUserId is required"})
		return
	}

	inv, err := s.service.CreateInvite(r.Context(), p, postID, req.WorkerUserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toInviteResponse(inv))
}

type respondInviteRequest struct {
	Decision string `json:"decision"`
}

func (s *Server) handleRespondInvite(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	inviteID, ok := pathUUID(w, r, "inviteID")
	if !ok {
		return
	}

	var req respondInviteRequest
	if !decode(w, r, &req) {
		return
	}

	decision := lifecycle.InviteDecision(req.Decision)
	if decision != lifecycle.InviteDecisionAccept && decision != lifecycle.InviteDecisionDecline {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "decision must be accept or decline"})
		return
	}

	inv, err := s.service.RespondInvite(r.Context(), p, inviteID, decision)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toInviteResponse(inv))
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	notifications, err := s.service.ListNotifications(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]notificationResponse, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, toNotificationResponse(n))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	notificationID, ok := pathUUID(w, r, "notificationID")
	if !ok {
		return
	}

	n, err := s.service.MarkNotificationRead(r.Context(), p, notificationID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toNotificationResponse(n))
}

type errorResponse struct {
	Error string `json:"error"`
}

func principal(w http.ResponseWriter, r *http.Request) (models.Principal, bool) {
	p := auth.PrincipalFromContext(r.Context())
	if p == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return models.Principal{}, false
	}
	return *p, true
}

func pathUUID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid " + param})
		return uuid.Nil, false
	}
	return id, true
}

// decode unmarshals the request body into v. An empty body leaves v at its
// zero value, which lets optional-body routes like accept omit it entirely.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service and store errors onto HTTP statuses. Conflicting
// state (bad transition, closed post, time conflict) is 409; everything the
// caller can fix in the request is 400.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, market.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, market.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, market.ErrPostNotOpen),
		errors.Is(err, market.ErrTimeConflict),
		errors.Is(err, market.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, store.ErrPostNotFound),
		errors.Is(err, store.ErrApplicationNotFound),
		errors.Is(err, store.ErrAssignmentNotFound),
		errors.Is(err, store.ErrInviteNotFound),
		errors.Is(err, store.ErrNotificationNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}
