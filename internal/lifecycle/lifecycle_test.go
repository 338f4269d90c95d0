package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shiftwise/marketd/internal/models"
)

func TestCanTransitionTable(t *testing.T) {
	tests := []struct {
		current models.PostStatus
		action  PostAction
		next    models.PostStatus
		ok      bool
	}{
		{models.PostStatusOpen, PostActionClose, models.PostStatusClosed, true},
		{models.PostStatusOpen, PostActionCancel, models.PostStatusCancelled, true},
		{models.PostStatusOpen, PostActionReopen, "", false},
		{models.PostStatusClosed, PostActionClose, "", false},
		{models.PostStatusClosed, PostActionCancel, models.PostStatusCancelled, true},
		{models.PostStatusClosed, PostActionReopen, models.PostStatusOpen, true},
		{models.PostStatusAssigned, PostActionClose, "", false},
		{models.PostStatusAssigned, PostActionCancel, models.PostStatusCancelled, true},
		{models.PostStatusAssigned, PostActionReopen, "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.current)+"_"+string(tt.action), func(t *testing.T) {
			next, ok := CanTransition(tt.current, tt.action)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				require.Equal(t, tt.next, next)
			}
		})
	}
}

func TestCancelledIsTerminal(t *testing.T) {
	for _, action := range []PostAction{PostActionClose, PostActionCancel, PostActionReopen} {
		_, ok := CanTransition(models.PostStatusCancelled, action)
		require.False(t, ok, "cancelled must reject %s", action)
	}
}

func TestDraftHasNoActionTransitions(t *testing.T) {
	for _, action := range []PostAction{PostActionClose, PostActionCancel, PostActionReopen} {
		_, ok := CanTransition(models.PostStatusDraft, action)
		require.False(t, ok)
	}
}

func TestUnknownInputsRejected(t *testing.T) {
	_, ok := CanTransition(models.PostStatus("bogus"), PostActionClose)
	require.False(t, ok)

	_, ok = CanTransition(models.PostStatusOpen, PostAction("bogus"))
	require.False(t, ok)
}

func TestCanRespondInvite(t *testing.T) {
	next, ok := CanRespondInvite(models.InviteStatusPending, InviteDecisionAccept)
	require.True(t, ok)
	require.Equal(t, models.InviteStatusActive, next)

	next, ok = CanRespondInvite(models.InviteStatusPending, InviteDecisionDecline)
	require.True(t, ok)
	require.Equal(t, models.InviteStatusCancelled, next)

	for _, status := range []models.InviteStatus{models.InviteStatusActive, models.InviteStatusCancelled} {
		for _, d := range []InviteDecision{InviteDecisionAccept, InviteDecisionDecline} {
			_, ok := CanRespondInvite(status, d)
			require.False(t, ok, "%s must reject %s", status, d)
		}
	}
}
