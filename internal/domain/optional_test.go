package domain

import (
	"encoding/json"
	"testing"
)

func TestOptionalAbsentVsNull(t *testing.T) {
	var patch struct {
		Phone        Optional[string]  `json:"phone"`
		RestaurantID Optional[*string] `json:"restaurant_id"`
		BranchID     Optional[*string] `json:"branch_id"`
	}

	payload := `{"phone":"555","restaurant_id":null}`
	if err := json.Unmarshal([]byte(payload), &patch); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if v, ok := patch.Phone.Get(); !ok || v != "555" {
		t.Fatalf("phone = (%q, %v), want (555, true)", v, ok)
	}
	if v, ok := patch.RestaurantID.Get(); !ok || v != nil {
		t.Fatalf("restaurant_id should be an explicit clear, got (%v, %v)", v, ok)
	}
	if patch.BranchID.IsSet() {
		t.Fatal("branch_id was absent and must stay unset")
	}
}

func TestProfileUpdateApply(t *testing.T) {
	restaurant := "R1"
	current := Profile{
		ID:           "U1",
		FullName:     "Ana Gómez",
		Email:        "ana@x.com",
		Role:         RoleHost,
		Phone:        "555",
		IsActive:     true,
		RestaurantID: &restaurant,
	}

	patch := ProfileUpdate{
		FullName:     Some("Ana María Gómez"),
		RestaurantID: Some[*string](nil),
	}
	next := patch.Apply(current)

	if next.FullName != "Ana María Gómez" {
		t.Fatalf("full_name = %q", next.FullName)
	}
	if next.RestaurantID != nil {
		t.Fatal("restaurant_id should be cleared")
	}
	if next.Email != current.Email || next.Phone != current.Phone || next.Role != current.Role {
		t.Fatal("untouched fields must survive")
	}
}

func TestProfileUpdateEmpty(t *testing.T) {
	var patch ProfileUpdate
	if !patch.Empty() {
		t.Fatal("zero patch must be empty")
	}
	patch.Phone = Some("1")
	if patch.Empty() {
		t.Fatal("patch with a field must not be empty")
	}

	// An empty patch applied to a profile changes nothing.
	current := Profile{ID: "U1", FullName: "n", Email: "e", Role: RoleHost, Phone: "p", IsActive: true}
	if got := (ProfileUpdate{}).Apply(current); got != current {
		t.Fatalf("empty patch changed profile: %+v", got)
	}
}
