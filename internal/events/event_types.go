package events

import (
	"time"

	"github.com/randya04/POSitive/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserInvited           EventType = "user_invited"
	EventUserUpdated           EventType = "user_updated"
	EventUserActivationChanged EventType = "user_activation_changed"
	EventUserDeleted           EventType = "user_deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserInvitedPayload payload.
type UserInvitedPayload struct {
	Email        string      `json:"email"`
	Role         domain.Role `json:"role"`
	RestaurantID *string     `json:"restaurant_id,omitempty"`
	BranchID     *string     `json:"branch_id,omitempty"`
}

// UserUpdatedPayload payload.
type UserUpdatedPayload struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// UserActivationChangedPayload payload.
type UserActivationChangedPayload struct {
	IsActive bool `json:"is_active"`
}

// UserDeletedPayload payload.
type UserDeletedPayload struct {
	Email string `json:"email"`
}
