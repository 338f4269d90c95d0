// Package server exposes the marketplace service over HTTP. Routing uses
// chi; auth middleware resolves the principal before any handler runs.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/shiftwise/marketd/internal/logger"
	"github.com/shiftwise/marketd/internal/market"
	"github.com/shiftwise/marketd/internal/telemetry"
)

// Server wraps the HTTP surface of the marketplace service.
type Server struct {
	service *market.Service
	auth    func(http.Handler) http.Handler
}

// NewServer creates a new server. The auth middleware resolves the caller's
// principal; pass auth.Middleware for production or
// auth.InsecureHeaderMiddleware for dev mode.
func NewServer(service *market.Service, authMiddleware func(http.Handler) http.Handler) *Server {
	return &Server{
		service: service,
		auth:    authMiddleware,
	}
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler(log zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(logger.Requests(log))

	// Health check endpoint for load balancer
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Handle("/metrics", telemetry.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.auth)

		r.Route("/posts", func(r chi.Router) {
			r.Post("/", s.handleCreatePost)
			r.Get("/", s.handleListPosts)
			r.Get("/{postID}", s.handleGetPost)
			r.Post("/{postID}/close", s.handleTransitionPost)
			r.Post("/{postID}/cancel", s.handleTransitionPost)
			r.Post("/{postID}/reopen", s.handleTransitionPost)
			r.Post("/{postID}/applications", s.handleSubmitApplication)
			r.Get("/{postID}/applications", s.handleListApplications)
			r.Post("/{postID}/accept", s.handleAcceptApplication)
			r.Post("/{postID}/invites", s.handleCreateInvite)
		})

		r.Post("/assignments/{assignmentID}/complete", s.handleCompleteAssignment)
		r.Post("/invites/{inviteID}/respond", s.handleRespondInvite)

		r.Get("/notifications", s.handleListNotifications)
		r.Post("/notifications/{notificationID}/read", s.handleMarkNotificationRead)
	})

	return r
}
