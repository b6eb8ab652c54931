package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for _, r := range Roles() {
		got, err := ParseRole(string(r))
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}

	got, err := ParseRole(" Field_Officer ")
	require.NoError(t, err)
	assert.Equal(t, RoleFieldOfficer, got)

	_, err = ParseRole("superuser")
	assert.ErrorIs(t, err, ErrUnknownRole)
	_, err = ParseRole("")
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestRoleDashboardCoversEveryRole(t *testing.T) {
	seen := map[string]bool{}
	for _, r := range Roles() {
		route, err := r.Dashboard()
		require.NoError(t, err, r)
		assert.NotEmpty(t, route)
		assert.False(t, seen[route], "duplicate route %s", route)
		seen[route] = true
	}

	_, err := Role("guest").Dashboard()
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestUserOrganisationDecoding(t *testing.T) {
	tests := []struct {
		name string
		body string
		want *int64
	}{
		{name: "number", body: `{"username":"o","role":"organisation","organisation":7}`, want: ptr(7)},
		{name: "string", body: `{"username":"o","role":"organisation","organisation":"7"}`, want: ptr(7)},
		{name: "null", body: `{"username":"d","role":"donor","organisation":null}`},
		{name: "missing", body: `{"username":"d","role":"donor"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var u User
			require.NoError(t, json.Unmarshal([]byte(tt.body), &u))
			assert.Equal(t, tt.want, u.Organisation)
		})
	}
}

func TestUserDisplayName(t *testing.T) {
	assert.Equal(t, "Alice", User{Username: "alice", FirstName: "Alice"}.DisplayName())
	assert.Equal(t, "alice", User{Username: "alice"}.DisplayName())
}

func ptr(v int64) *int64 { return &v }
