package market

import "errors"

// Typed failures surfaced to route handlers. Each maps to a stable
// machine-readable code at the HTTP layer.
var (
	// ErrPostNotOpen rejects accepting into assigned, closed or cancelled.
	ErrPostNotOpen = errors.New("post is not open")

	// ErrTimeConflict means the worker already holds an active assignment
	// whose window intersects the post's window.
	ErrTimeConflict = errors.New("worker has a conflicting assignment")

	// ErrInvalidTransition rejects an illegal lifecycle action.
	ErrInvalidTransition = errors.New("invalid lifecycle transition")

	// ErrForbidden rejects callers without management permission, and
	// cross-tenant access.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation rejects malformed input.
	ErrValidation = errors.New("invalid input")
)
