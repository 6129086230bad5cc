package dto

import "github.com/randya04/POSitive/internal/domain"

// InviteUserRequest payload for POST /api/inviteUser.
type InviteUserRequest struct {
	FullName     string  `json:"full_name"`
	Email        string  `json:"email"`
	Role         string  `json:"role"`
	Phone        string  `json:"phone"`
	IsActive     *bool   `json:"is_active"`
	RestaurantID *string `json:"restaurant_id"`
	BranchID     *string `json:"branch_id"`
}

// UpdateUserRequest payload for PATCH /api/users. Absent keys leave the
// stored value untouched; an explicit null clears nullable fields.
type UpdateUserRequest struct {
	ID           string                    `json:"id"`
	FullName     domain.Optional[string]   `json:"full_name"`
	Email        domain.Optional[string]   `json:"email"`
	Role         domain.Optional[domain.Role] `json:"role"`
	Phone        domain.Optional[string]   `json:"phone"`
	IsActive     domain.Optional[bool]     `json:"is_active"`
	RestaurantID domain.Optional[*string]  `json:"restaurant_id"`
	BranchID     domain.Optional[*string]  `json:"branch_id"`
}

// SetActiveRequest payload for PATCH /api/users/active.
type SetActiveRequest struct {
	ID       string `json:"id"`
	IsActive *bool  `json:"is_active"`
}

// Patch converts the request body into the domain patch.
func (r UpdateUserRequest) Patch() domain.ProfileUpdate {
	return domain.ProfileUpdate{
		FullName:     r.FullName,
		Email:        r.Email,
		Role:         r.Role,
		Phone:        r.Phone,
		IsActive:     r.IsActive,
		RestaurantID: r.RestaurantID,
		BranchID:     r.BranchID,
	}
}
