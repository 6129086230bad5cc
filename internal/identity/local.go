package identity

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// localProvider keeps accounts in memory. It stands in for the hosted
// identity service in development and tests; invitation emails are
// logged instead of sent.
type localProvider struct {
	mu       sync.Mutex
	accounts map[string]*localAccount
	logger   *zap.Logger
}

type localAccount struct {
	Account
	passwordHash []byte
	metadata     Metadata
}

// NewLocalProvider builds the in-memory provider.
func NewLocalProvider(logger *zap.Logger) Provider {
	return &localProvider{
		accounts: make(map[string]*localAccount),
		logger:   logger,
	}
}

func (p *localProvider) InviteByEmail(_ context.Context, email string, meta Metadata) (*Account, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, acct := range p.accounts {
		if strings.EqualFold(acct.Email, email) {
			// Re-inviting an orphaned account reuses it.
			p.logger.Info("re-sending invitation (local provider)", zap.String("email", email))
			out := acct.Account
			return &out, nil
		}
	}

	// One-time credential the invitee would replace on first login.
	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	acct := &localAccount{
		Account: Account{
			ID:        uuid.NewString(),
			Email:     email,
			CreatedAt: time.Now().UTC(),
		},
		passwordHash: hash,
		metadata:     meta,
	}
	p.accounts[acct.ID] = acct

	p.logger.Info("invitation email (local provider)",
		zap.String("email", email),
		zap.String("account_id", acct.ID))

	out := acct.Account
	return &out, nil
}

func (p *localProvider) LookupByEmail(_ context.Context, email string) (*Account, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, acct := range p.accounts {
		if strings.EqualFold(acct.Email, email) {
			out := acct.Account
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (p *localProvider) DeleteAccount(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.accounts[id]; !ok {
		return ErrNotFound
	}
	delete(p.accounts, id)
	return nil
}
