package domain

import "time"

// Profile is the directory-owned staff record. Its ID equals the
// identity provider account id (1:1).
type Profile struct {
	ID           string
	FullName     string
	Email        string
	Role         Role
	Phone        string
	IsActive     bool
	RestaurantID *string
	BranchID     *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProfileView is the Profile shape returned to clients, with foreign
// keys resolved to display names.
type ProfileView struct {
	ID         string  `json:"id"`
	FullName   string  `json:"full_name"`
	Email      string  `json:"email"`
	Role       Role    `json:"role"`
	Phone      string  `json:"phone"`
	IsActive   bool    `json:"is_active"`
	Restaurant *string `json:"restaurant"`
	Branch     *string `json:"branch"`
}

// NewProfileView composes the client-facing view. Super admins carry no
// scope and always render active, regardless of the stored flag.
func NewProfileView(p Profile, restaurantName, branchName *string) ProfileView {
	view := ProfileView{
		ID:         p.ID,
		FullName:   p.FullName,
		Email:      p.Email,
		Role:       p.Role,
		Phone:      p.Phone,
		IsActive:   p.IsActive,
		Restaurant: restaurantName,
		Branch:     branchName,
	}
	if p.Role == RoleSuperAdmin {
		view.IsActive = true
		view.Restaurant = nil
		view.Branch = nil
	}
	return view
}

// BranchMembership records which branch a staff member operates from.
type BranchMembership struct {
	BranchID string
	UserID   string
}
