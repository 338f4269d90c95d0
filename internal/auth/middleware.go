package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/shiftwise/marketd/internal/models"
)

type contextKey int

const principalContextKey contextKey = iota

// PrincipalFromContext extracts the authenticated principal from the request
// context. Returns nil for an unauthenticated request.
func PrincipalFromContext(ctx context.Context) *models.Principal {
	principal, _ := ctx.Value(principalContextKey).(*models.Principal)
	return principal
}

// WithPrincipal returns a context carrying the principal. Used by the
// middleware and by tests that call services directly.
func WithPrincipal(ctx context.Context, principal *models.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// Middleware returns an HTTP middleware that verifies Bearer JWTs and stores
// the resolved principal in the request context. Requests without a valid
// token are rejected with 401.
func Middleware(signingSecret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := extractBearerToken(r)
			if tokenString == "" {
				log.Warn().Str("path", r.URL.Path).Msg("Missing Authorization header")
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			principal, err := VerifyToken(signingSecret, tokenString)
			if err != nil {
				log.Warn().Err(err).Str("path", r.URL.Path).Msg("JWT verification failed")
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// InsecureHeaderMiddleware resolves the principal from plain headers instead
// of a signed token. Dev mode only, never enabled in production wiring.
//
//	X-Tenant-Id:   tenant UUID (required)
//	X-User-Id:     user UUID (required)
//	X-Permissions: comma-separated grant list
func InsecureHeaderMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID, err := uuid.Parse(r.Header.Get("X-Tenant-Id"))
			if err != nil {
				http.Error(w, "missing or invalid X-Tenant-Id", http.StatusUnauthorized)
				return
			}

			userID, err := uuid.Parse(r.Header.Get("X-User-Id"))
			if err != nil {
				http.Error(w, "missing or invalid X-User-Id", http.StatusUnauthorized)
				return
			}

			permissions := map[string]bool{}
			for _, grant := range strings.Split(r.Header.Get("X-Permissions"), ",") {
				if grant = strings.TrimSpace(grant); grant != "" {
					permissions[grant] = true
				}
			}

			principal := &models.Principal{
				TenantID:    tenantID,
				UserID:      userID,
				Permissions: permissions,
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return header[len(prefix):]
}
