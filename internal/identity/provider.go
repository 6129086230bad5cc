package identity

import (
	"context"
	"errors"
	"time"

	"github.com/randya04/POSitive/internal/domain"
)

// Metadata travels with the invitation and is stored on the account as
// a fallback source of truth if the profile row write fails.
type Metadata struct {
	FullName string      `json:"full_name"`
	Role     domain.Role `json:"role"`
	Phone    string      `json:"phone"`
	IsActive bool        `json:"is_active"`
}

// Account is the provider-owned credential record. The password hash is
// opaque and never leaves the provider.
type Account struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

// Sentinel errors providers translate their wire failures into.
var (
	ErrRateLimited = errors.New("identity provider rate limited the request")
	ErrNotFound    = errors.New("account not found")
)

// Provider abstracts the hosted identity service's admin surface. The
// directory service never creates accounts directly; it asks the
// provider to invite them by email.
type Provider interface {
	// InviteByEmail asks the provider to create an account and send the
	// invitation email. Some providers omit the account id from the
	// invite response; callers must fall back to LookupByEmail.
	InviteByEmail(ctx context.Context, email string, meta Metadata) (*Account, error)
	// LookupByEmail resolves an account by its email address.
	LookupByEmail(ctx context.Context, email string) (*Account, error)
	// DeleteAccount removes the credential record so the subject can no
	// longer authenticate.
	DeleteAccount(ctx context.Context, id string) error
}
