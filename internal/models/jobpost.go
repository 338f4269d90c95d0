package models

import (
	"time"

	"github.com/google/uuid"
)

// PostStatus is the lifecycle state of a job post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusOpen      PostStatus = "open"
	PostStatusAssigned  PostStatus = "assigned"
	PostStatusClosed    PostStatus = "closed"
	PostStatusCancelled PostStatus = "cancelled"
)

// JobPost represents an open shift-cover opportunity workers can apply to.
// A post holds at most one non-withdrawn assignment at any time; that
// invariant is enforced by the storage layer, not here.
type JobPost struct {
	PostID     uuid.UUID // UUIDv7
	TenantID   uuid.UUID
	Title      string
	StartsAt   time.Time
	EndsAt     time.Time
	LocationID *uuid.UUID
	PayRate    *float64
	Status     PostStatus
	CreatedBy  uuid.UUID
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Window returns the half-open [StartsAt, EndsAt) time window of the post.
func (p *JobPost) Window() Window {
	return Window{StartsAt: p.StartsAt, EndsAt: p.EndsAt}
}

// Window is a half-open [StartsAt, EndsAt) time interval.
type Window struct {
	StartsAt time.Time
	EndsAt   time.Time
}

// Overlaps reports whether two half-open windows intersect. Touching
// endpoints (back-to-back shifts) do not overlap.
func (w Window) Overlaps(other Window) bool {
	return w.StartsAt.Before(other.EndsAt) && other.StartsAt.Before(w.EndsAt)
}

// IsValid reports whether the window has a positive duration.
func (w Window) IsValid() bool {
	return w.StartsAt.Before(w.EndsAt)
}
