package perms

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already canonical", "administration", "administration"},
		{"camel case", "canManageSchedules", "can_manage_schedules"},
		{"dash delimited", "can-manage-schedules", "can_manage_schedules"},
		{"space delimited", "Can Manage Schedules", "can_manage_schedules"},
		{"dot delimited", "jobs.manage", "jobs_manage"},
		{"colon delimited", "jobs:manage", "jobs_manage"},
		{"mixed delimiters collapse", "can--manage__schedules", "can_manage_schedules"},
		{"leading and trailing junk", "  _management_  ", "management"},
		{"upper snake", "ADMINISTRATION", "administration"},
		{"digits kept", "tierTwoAccess2", "tier_two_access2"},
		{"empty", "", ""},
		{"only separators", "-_ .:", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, NormalizeKey(tt.in))
		})
	}
}

func TestFromKeys(t *testing.T) {
	s := FromKeys([]string{"Management", "canEdit", "", "--"})

	require.True(t, s.Has("management"))
	require.True(t, s.Has("can_edit"))
	require.False(t, s.Has(""))
	require.Len(t, s, 2)
}

func TestFromGrants(t *testing.T) {
	s := FromGrants(map[string]bool{
		"Administration": true,
		"canEdit":        false,
		"time-off":       true,
	})

	require.True(t, s.Has("administration"))
	require.True(t, s.Has("time_off"))
	require.False(t, s.Has("can_edit"), "denied grants are dropped")
}

func TestMergeORSemantics(t *testing.T) {
	a := FromKeys([]string{"management"})
	b := FromGrants(map[string]bool{"MANAGEMENT": false, "administration": true})

	merged := a.Merge(b)

	// Granted by any input form wins.
	require.True(t, merged.Has("management"))
	require.True(t, merged.Has("administration"))
}

func TestHasNormalizesProbe(t *testing.T) {
	s := FromKeys([]string{"can_manage_schedules"})

	require.True(t, s.Has("canManageSchedules"))
	require.True(t, s.Has("can-manage-schedules"))
	require.False(t, s.Has("canManage"))
}

func TestCanManage(t *testing.T) {
	require.True(t, CanManage(FromKeys([]string{"Administration"})))
	require.True(t, CanManage(FromKeys([]string{"management"})))
	require.True(t, CanManage(FromKeys([]string{"management", "administration"})))
	require.False(t, CanManage(FromKeys([]string{"scheduling"})))
	require.False(t, CanManage(nil))
	require.False(t, CanManage(FromKeys(nil)))
}
