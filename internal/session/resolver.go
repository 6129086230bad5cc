// Package session resolves the caller's role and scoping from the
// directory whenever the identity session changes. Consoles gate route
// access on the resolver's snapshot.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/randya04/POSitive/internal/domain"
	"github.com/randya04/POSitive/internal/identity"
	"github.com/randya04/POSitive/internal/repository"
)

// State enumerates resolver states.
type State string

const (
	StateUnresolved State = "unresolved"
	StateResolving  State = "resolving"
	StateResolved   State = "resolved"
	StateAnonymous  State = "anonymous"
)

// Snapshot is the resolver's current view of the session. While the
// state is Resolving the role is unknown; callers must render a loading
// state rather than deny access. A Resolved snapshot with a nil Role
// means the profile lookup failed: treat it as "no permitted routes".
type Snapshot struct {
	State     State
	AccountID string
	Email     string
	Role      *domain.Role
}

// Change is an identity-state-change event: a fresh access token on
// login or refresh, or an empty token on logout.
type Change struct {
	AccessToken string
}

// Resolver subscribes to exactly one identity-state-change stream for
// its lifetime and re-resolves the role on every event.
type Resolver struct {
	verifier      *identity.TokenVerifier
	profiles      repository.ProfileRepository
	logger        *zap.Logger
	lookupTimeout time.Duration

	mu   sync.RWMutex
	snap Snapshot

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewResolver builds a resolver in the Unresolved state.
func NewResolver(verifier *identity.TokenVerifier, profiles repository.ProfileRepository, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		verifier:      verifier,
		profiles:      profiles,
		logger:        logger,
		lookupTimeout: 5 * time.Second,
		snap:          Snapshot{State: StateUnresolved},
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Run resolves the initial session, then consumes the change stream
// until it closes or Close is called. Call it once, in its own
// goroutine.
func (r *Resolver) Run(ctx context.Context, initial Change, changes <-chan Change) {
	defer close(r.done)

	r.resolve(ctx, initial.AccessToken)

	for {
		select {
		case change, ok := <-changes:
			if !ok {
				return
			}
			r.resolve(ctx, change.AccessToken)
		case <-r.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Current returns the latest snapshot.
func (r *Resolver) Current() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap
}

// Close unsubscribes the resolver and waits for Run to return.
func (r *Resolver) Close() {
	r.stopOnce.Do(func() { close(r.stop) })
	<-r.done
}

func (r *Resolver) resolve(ctx context.Context, accessToken string) {
	if accessToken == "" {
		r.set(Snapshot{State: StateAnonymous})
		return
	}

	r.set(Snapshot{State: StateResolving})

	claims, err := r.verifier.Verify(accessToken)
	if err != nil {
		r.logger.Warn("session token rejected", zap.Error(err))
		r.set(Snapshot{State: StateAnonymous})
		return
	}

	snap := Snapshot{
		State:     StateResolved,
		AccountID: claims.AccountID(),
		Email:     claims.Email,
	}

	lookupCtx, cancel := context.WithTimeout(ctx, r.lookupTimeout)
	defer cancel()

	profile, err := r.profiles.GetByID(lookupCtx, claims.AccountID())
	switch {
	case err == nil:
		role := profile.Role
		snap.Role = &role
	case errors.Is(err, pgx.ErrNoRows):
		r.logger.Warn("no profile for session account", zap.String("account_id", claims.AccountID()))
	default:
		r.logger.Warn("profile lookup failed", zap.String("account_id", claims.AccountID()), zap.Error(err))
	}

	r.set(snap)
}

func (r *Resolver) set(snap Snapshot) {
	r.mu.Lock()
	r.snap = snap
	r.mu.Unlock()
}
