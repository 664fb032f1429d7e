package model

import "testing"

func TestRoleValid(t *testing.T) {
	cases := []struct {
		role Role
		want bool
	}{
		{RoleUser, true},
		{RoleAdmin, true},
		{Role("superuser"), false},
		{Role(""), false},
		{Role("Admin"), false},
	}

	for _, tc := range cases {
		if got := tc.role.Valid(); got != tc.want {
			t.Errorf("Role(%q).Valid() = %v, want %v", tc.role, got, tc.want)
		}
	}
}

func TestRoleSatisfies(t *testing.T) {
	cases := []struct {
		role     Role
		required Role
		want     bool
	}{
		{RoleUser, RoleUser, true},
		{RoleUser, RoleAdmin, false},
		{RoleAdmin, RoleUser, true},
		{RoleAdmin, RoleAdmin, true},
		{Role("superuser"), RoleUser, false},
	}

	for _, tc := range cases {
		if got := tc.role.Satisfies(tc.required); got != tc.want {
			t.Errorf("Role(%q).Satisfies(%q) = %v, want %v", tc.role, tc.required, got, tc.want)
		}
	}
}
