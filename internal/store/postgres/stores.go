package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shiftwise/marketd/internal/store"
)

// NewStores wires every PostgreSQL store against one shared pool.
func NewStores(pool *pgxpool.Pool) *store.Stores {
	return &store.Stores{
		Posts:         NewJobPostStore(pool),
		Applications:  NewApplicationStore(pool),
		Assignments:   NewAssignmentStore(pool),
		Invites:       NewInviteStore(pool),
		Notifications: NewNotificationStore(pool),
	}
}
