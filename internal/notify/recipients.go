// Package notify decides who hears about a lifecycle event, suppresses
// near-duplicate notifications through a stable dedupe key, and guards the
// append-only shape of stored notifications. The selection and suppression
// rules are pure functions over plain data; the Notifier wires them to the
// store, an optional redis fast-path, and the outbound transport.
package notify

import (
	"github.com/google/uuid"

	"github.com/shiftwise/marketd/internal/models"
)

// SelectRecipients orders the recipients of a management-facing event: the
// acting user first when present (uuid.Nil means absent), then the unique
// manager ids in first-seen order. Both absent yields an empty set, which
// callers treat as "no notification", not an error.
func SelectRecipients(managerIDs []uuid.UUID, createdBy uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(managerIDs)+1)
	var out []uuid.UUID

	if createdBy != uuid.Nil {
		seen[createdBy] = true
		out = append(out, createdBy)
	}

	for _, id := range managerIDs {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}

	return out
}

// cancellationStatuses are the application states still invested in a post
// when it is cancelled. Rejected and withdrawn applicants are not told.
var cancellationStatuses = map[models.ApplicationStatus]bool{
	models.ApplicationStatusSubmitted: true,
	models.ApplicationStatusApplied:   true,
	models.ApplicationStatusInvited:   true,
	models.ApplicationStatusAccepted:  true,
}

// SelectCancelledPostRecipients returns the unique workers who must hear
// that a post was cancelled.
func SelectCancelledPostRecipients(apps []*models.Application) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(apps))
	var out []uuid.UUID

	for _, app := range apps {
		if !cancellationStatuses[app.Status] {
			continue
		}
		if seen[app.WorkerUserID] {
			continue
		}
		seen[app.WorkerUserID] = true
		out = append(out, app.WorkerUserID)
	}

	return out
}
