package service

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/randya04/POSitive/internal/config"
	apperrors "github.com/randya04/POSitive/pkg/util/errorutil"
)

// InviteLimiter bounds invitation requests per email address, ahead of
// the identity provider's own throttling.
type InviteLimiter interface {
	Allow(ctx context.Context, email string) error
}

type redisInviteLimiter struct {
	client *redis.Client
	max    int
	window time.Duration
}

// NewInviteLimiter returns a Redis-backed limiter, or a no-op limiter
// when no client is available.
func NewInviteLimiter(client *redis.Client, cfg config.InviteConfig) InviteLimiter {
	if client == nil || cfg.MaxPerWindow <= 0 {
		return noopLimiter{}
	}
	return &redisInviteLimiter{client: client, max: cfg.MaxPerWindow, window: cfg.Window()}
}

func (l *redisInviteLimiter) Allow(ctx context.Context, email string) error {
	key := "invite_rate:" + strings.ToLower(email)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		// Limiter unavailability must not block invitations.
		return nil
	}
	if count == 1 {
		l.client.Expire(ctx, key, l.window)
	}
	if count > int64(l.max) {
		return apperrors.NewRateLimited("too many invitations for this email, try again later", nil)
	}
	return nil
}

type noopLimiter struct{}

func (noopLimiter) Allow(context.Context, string) error { return nil }
