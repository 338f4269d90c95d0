package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification types emitted by the marketplace core.
const (
	NotificationTypeApplicationAccepted = "application_accepted"
	NotificationTypeApplicationReceived = "application_received"
	NotificationTypePostAssigned        = "post_assigned"
	NotificationTypePostCancelled       = "post_cancelled"
	NotificationTypeInviteReceived      = "invite_received"
	NotificationTypeInviteResponded     = "invite_responded"
	NotificationTypeAssignmentCompleted = "assignment_completed"
)

// NotificationPayload carries the entity references of the triggering event.
// The same fields feed the dedupe key. JobID is a legacy alias for JobPostID
// still written by older producers.
type NotificationPayload struct {
	JobPostID     *uuid.UUID `json:"jobPostId,omitempty"`
	JobID         *uuid.UUID `json:"jobId,omitempty"`
	AssignmentID  *uuid.UUID `json:"assignmentId,omitempty"`
	ApplicationID *uuid.UUID `json:"applicationId,omitempty"`
	Message       string     `json:"message,omitempty"`
}

// PostRef resolves the post reference, preferring the canonical field over
// the legacy alias.
func (p NotificationPayload) PostRef() *uuid.UUID {
	if p.JobPostID != nil {
		return p.JobPostID
	}
	return p.JobID
}

// Equal reports whether two payloads are deep-equal.
func (p NotificationPayload) Equal(other NotificationPayload) bool {
	return uuidPtrEqual(p.JobPostID, other.JobPostID) &&
		uuidPtrEqual(p.JobID, other.JobID) &&
		uuidPtrEqual(p.AssignmentID, other.AssignmentID) &&
		uuidPtrEqual(p.ApplicationID, other.ApplicationID) &&
		p.Message == other.Message
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Notification is an append-only record addressed to one user. After
// creation the only legal mutation is setting ReadAt, exactly once.
type Notification struct {
	NotificationID uuid.UUID // UUIDv7
	TenantID       uuid.UUID
	UserID         uuid.UUID
	Type           string
	Payload        NotificationPayload
	CreatedAt      time.Time
	ReadAt         *time.Time
}
