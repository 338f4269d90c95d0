package models

import (
	"time"

	"github.com/google/uuid"
)

// InviteStatus is the lifecycle state of a direct invite.
type InviteStatus string

const (
	InviteStatusPending   InviteStatus = "pending"
	InviteStatusActive    InviteStatus = "active"
	InviteStatusCancelled InviteStatus = "cancelled"
)

// Invite is a manager-initiated offer asking a specific worker to cover a
// post. The worker accepts or declines; pending is the only state with
// outgoing transitions.
type Invite struct {
	InviteID     uuid.UUID // UUIDv7
	PostID       uuid.UUID
	TenantID     uuid.UUID
	WorkerUserID uuid.UUID
	CreatedBy    uuid.UUID
	Status       InviteStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
