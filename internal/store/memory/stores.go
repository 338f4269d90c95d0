package memory

import (
	"github.com/shiftwise/marketd/internal/store"
)

// NewStores returns a full in-memory store bundle.
func NewStores() *store.Stores {
	return &store.Stores{
		Posts:         NewJobPostStore(),
		Applications:  NewApplicationStore(),
		Assignments:   NewAssignmentStore(),
		Invites:       NewInviteStore(),
		Notifications: NewNotificationStore(),
	}
}
