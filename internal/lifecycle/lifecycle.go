// Package lifecycle defines the two finite-state machines of the marketplace
// core as pure functions over plain data: the job-post lifecycle and the
// invite lifecycle.
//
// Job post status graph (actions in brackets):
//
//	open ──[close]──► closed ──[reopen]──► open
//	open ──[cancel]──► cancelled
//	closed ──[cancel]──► cancelled
//	assigned ──[cancel]──► cancelled
//
// cancelled is terminal: every action from cancelled is rejected. The
// assigned state is entered by the allocator on commit, never by an action.
package lifecycle

import (
	"github.com/shiftwise/marketd/internal/models"
)

// PostAction is an externally requested job-post transition.
type PostAction string

const (
	PostActionClose  PostAction = "close"
	PostActionCancel PostAction = "cancel"
	PostActionReopen PostAction = "reopen"
)

// postTransitions lists every allowed (status, action) -> next pair.
var postTransitions = map[models.PostStatus]map[PostAction]models.PostStatus{
	models.PostStatusOpen: {
		PostActionClose:  models.PostStatusClosed,
		PostActionCancel: models.PostStatusCancelled,
	},
	models.PostStatusClosed: {
		PostActionCancel: models.PostStatusCancelled,
		PostActionReopen: models.PostStatusOpen,
	},
	models.PostStatusAssigned: {
		PostActionCancel: models.PostStatusCancelled,
	},
	// cancelled and draft have no outgoing action transitions
}

// CanTransition reports whether action is legal from current, and the
// resulting status when it is. Total over all inputs; unknown statuses and
// actions are simply rejected.
func CanTransition(current models.PostStatus, action PostAction) (models.PostStatus, bool) {
	next, ok := postTransitions[current][action]
	return next, ok
}

// InviteDecision is a worker's response to a pending invite.
type InviteDecision string

const (
	InviteDecisionAccept  InviteDecision = "accept"
	InviteDecisionDecline InviteDecision = "decline"
)

// inviteTransitions: pending is the only state with outgoing transitions.
var inviteTransitions = map[models.InviteStatus]map[InviteDecision]models.InviteStatus{
	models.InviteStatusPending: {
		InviteDecisionAccept:  models.InviteStatusActive,
		InviteDecisionDecline: models.InviteStatusCancelled,
	},
}

// CanRespondInvite reports whether decision is legal from current, and the
// resulting status when it is.
func CanRespondInvite(current models.InviteStatus, decision InviteDecision) (models.InviteStatus, bool) {
	next, ok := inviteTransitions[current][decision]
	return next, ok
}
