package notify

import (
	"strings"
	"time"

	"github.com/shiftwise/marketd/internal/models"
)

// DefaultDedupeWindow is how long an equivalent notification for the same
// user suppresses a new one.
const DefaultDedupeWindow = 30 * time.Second

// DedupeKey derives the stable identity of "the same underlying event" from
// the notification type and whichever entity references are present in the
// payload, in fixed order. Returns "" when the payload carries no entity
// references at all, which disables dedup for that notification.
func DedupeKey(typ string, p models.NotificationPayload) string {
	parts := []string{typ}
	refs := 0

	if ref := p.PostRef(); ref != nil {
		parts = append(parts, ref.String())
		refs++
	}
	if p.AssignmentID != nil {
		parts = append(parts, p.AssignmentID.String())
		refs++
	}
	if p.ApplicationID != nil {
		parts = append(parts, p.ApplicationID.String())
		refs++
	}

	if refs == 0 {
		return ""
	}

	return strings.Join(parts, ":")
}

// ShouldSuppress reports whether candidate duplicates a prior notification:
// same user, same type, equal non-empty dedupe keys, and created within
// window of each other. The delta is compared by magnitude in both
// directions, so an out-of-order candidate timestamped before a stored row
// is still suppressed; see the dedupe notes in DESIGN.md.
func ShouldSuppress(existing []*models.Notification, candidate *models.Notification, window time.Duration) bool {
	key := DedupeKey(candidate.Type, candidate.Payload)
	if key == "" {
		return false
	}

	for _, prior := range existing {
		if prior.UserID != candidate.UserID || prior.Type != candidate.Type {
			continue
		}
		priorKey := DedupeKey(prior.Type, prior.Payload)
		if priorKey == "" || priorKey != key {
			continue
		}

		delta := candidate.CreatedAt.Sub(prior.CreatedAt)
		if delta < 0 {
			delta = -delta
		}
		if delta <= window {
			return true
		}
	}

	return false
}

// CanOnlyUpdateReadAt is the guard formalizing "notifications are
// append-only except for a single monotonic read flag". An update from prev
// to next is legal only when every identifying field and the payload are
// unchanged and the read flag goes from unset to set.
func CanOnlyUpdateReadAt(prev, next *models.Notification) bool {
	if prev == nil || next == nil {
		return false
	}
	if prev.NotificationID != next.NotificationID ||
		prev.TenantID != next.TenantID ||
		prev.UserID != next.UserID ||
		prev.Type != next.Type ||
		!prev.CreatedAt.Equal(next.CreatedAt) ||
		!prev.Payload.Equal(next.Payload) {
		return false
	}

	return prev.ReadAt == nil && next.ReadAt != nil
}
