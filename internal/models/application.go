package models

import (
	"time"

	"github.com/google/uuid"
)

// ApplicationStatus is the lifecycle state of a worker's application.
type ApplicationStatus string

const (
	ApplicationStatusSubmitted ApplicationStatus = "submitted"
	ApplicationStatusAccepted  ApplicationStatus = "accepted"
	ApplicationStatusRejected  ApplicationStatus = "rejected"

	// Legacy statuses still present in older tenant data. Treated as
	// equivalent to submitted for recipient selection.
	ApplicationStatusApplied   ApplicationStatus = "applied"
	ApplicationStatusInvited   ApplicationStatus = "invited"
	ApplicationStatusWithdrawn ApplicationStatus = "withdrawn"
)

// Application is a worker's request to cover a post. At most one application
// exists per (post, worker) pair; a resubmission is idempotent.
type Application struct {
	ApplicationID uuid.UUID // UUIDv7
	PostID        uuid.UUID
	TenantID      uuid.UUID
	WorkerUserID  uuid.UUID
	Status        ApplicationStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
