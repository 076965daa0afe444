package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"pending":   RolePending,
		" User ":    RoleUser,
		"ADMIN":     RoleAdmin,
		"":          "",
		"superuser": "",
	}
	for input, want := range cases {
		got, ok := ParseRole(input)
		require.Equal(t, want, got, input)
		require.Equal(t, want != "", ok, input)
	}
}

func TestRoleValid(t *testing.T) {
	require.True(t, RolePending.Valid())
	require.True(t, RoleUser.Valid())
	require.True(t, RoleAdmin.Valid())
	require.False(t, Role("Admin").Valid())
	require.False(t, Role("").Valid())
}

func TestUserIsAdmin(t *testing.T) {
	require.True(t, User{Role: RoleAdmin}.IsAdmin())
	require.False(t, User{Role: RoleUser}.IsAdmin())
	require.False(t, User{Role: RolePending}.IsAdmin())
}
