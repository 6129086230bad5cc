package domain

import (
	"encoding/json"
	"testing"
)

func TestParseRole(t *testing.T) {
	cases := []struct {
		in   string
		want Role
	}{
		{"super_admin", RoleSuperAdmin},
		{"Super Admin", RoleSuperAdmin},
		{"SUPER ADMIN", RoleSuperAdmin},
		{"restaurant_admin", RoleRestaurantAdmin},
		{"Restaurant Admin", RoleRestaurantAdmin},
		{"host", RoleHost},
		{"Host", RoleHost},
		{" host ", RoleHost},
	}
	for _, tc := range cases {
		got, err := ParseRole(tc.in)
		if err != nil {
			t.Fatalf("ParseRole(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseRole(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseRoleUnknown(t *testing.T) {
	if _, err := ParseRole("manager"); err == nil {
		t.Fatal("expected error for unknown role")
	}
	if _, err := ParseRole(""); err == nil {
		t.Fatal("expected error for empty role")
	}
}

func TestRoleScoped(t *testing.T) {
	if RoleSuperAdmin.Scoped() {
		t.Fatal("super_admin must not be scoped")
	}
	if !RoleRestaurantAdmin.Scoped() || !RoleHost.Scoped() {
		t.Fatal("restaurant_admin and host must be scoped")
	}
}

func TestRoleUnmarshalJSON(t *testing.T) {
	var payload struct {
		Role Role `json:"role"`
	}
	if err := json.Unmarshal([]byte(`{"role":"Super Admin"}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.Role != RoleSuperAdmin {
		t.Fatalf("got %q, want %q", payload.Role, RoleSuperAdmin)
	}

	if err := json.Unmarshal([]byte(`{"role":"owner"}`), &payload); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestProfileViewSuperAdminInvariant(t *testing.T) {
	restaurant := "R1"
	view := NewProfileView(Profile{
		ID:           "U1",
		Role:         RoleSuperAdmin,
		IsActive:     false,
		RestaurantID: &restaurant,
	}, &restaurant, nil)

	if !view.IsActive {
		t.Fatal("super_admin must always render active")
	}
	if view.Restaurant != nil || view.Branch != nil {
		t.Fatal("super_admin must render without scope")
	}
}
