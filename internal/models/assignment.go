package models

import (
	"time"

	"github.com/google/uuid"
)

// AssignmentStatus is the lifecycle state of an assignment.
type AssignmentStatus string

const (
	AssignmentStatusActive    AssignmentStatus = "active"
	AssignmentStatusCompleted AssignmentStatus = "completed"
)

// Assignment is the binding, time-boxed commitment of one worker to one post.
// The storage layer enforces at most one assignment per post; a worker never
// holds two active assignments with overlapping windows.
type Assignment struct {
	AssignmentID uuid.UUID // UUIDv7
	PostID       uuid.UUID
	TenantID     uuid.UUID
	WorkerUserID uuid.UUID
	StartsAt     time.Time
	EndsAt       time.Time
	Status       AssignmentStatus
	CreatedAt    time.Time
	CompletedAt  *time.Time
}

// Window returns the half-open [StartsAt, EndsAt) window of the assignment.
func (a *Assignment) Window() Window {
	return Window{StartsAt: a.StartsAt, EndsAt: a.EndsAt}
}
