package apikey

import (
	"context"
	"strconv"

	"github.com/UnknownOlympus/anvesh/internal/config"
	"github.com/UnknownOlympus/anvesh/internal/models"
	"github.com/UnknownOlympus/anvesh/internal/ratelimit"
)

// Gate authenticates a caller and enforces its monthly quota and per-minute rate.
//
// The quota check and the usage log written after the request are not one transaction:
// concurrent requests of the same key near its limit may all pass.
type Gate struct {
	keys    *Service
	limiter ratelimit.Limiter
}

// NewGate creates a gate. A nil limiter disables the per-minute rate.
func NewGate(keys *Service, limiter ratelimit.Limiter) *Gate {
	return &Gate{keys: keys, limiter: limiter}
}

// Authorize returns the caller's key, or ErrInvalidKey, ErrQuotaExceeded or ErrRateLimited.
func (g *Gate) Authorize(ctx context.Context, token string) (*models.KeyInfo, error) {
	key, err := g.keys.Validate(ctx, token)
	if err != nil {
		return nil, err
	}

	ok, err := g.keys.HasQuota(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrQuotaExceeded
	}

	if g.limiter != nil {
		allowed, errLimit := g.limiter.Allow(ctx, strconv.FormatInt(key.ID, 10), config.TierFor(key.Tier).RatePerMinute)
		if errLimit != nil {
			return nil, errLimit
		}
		if !allowed {
			return nil, ErrRateLimited
		}
	}

	return key, nil
}
