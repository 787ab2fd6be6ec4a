package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/warrantyhub/internal/config"
	"go.uber.org/zap"
)

const keyClaimWrites = "warranty:claims:writes:%s"

// ClaimWriteLimiter throttles claim mutations per dealer, or per user for
// staff without a dealer.
type ClaimWriteLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

// NewClaimWriteLimiter returns nil when limiting is disabled or Redis is absent.
func NewClaimWriteLimiter(client *redis.Client, cfg config.Config, log *zap.Logger) *ClaimWriteLimiter {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil
	}
	if client == nil {
		log.Warn("claim write rate limit enabled without redis, limiting is off")
		return nil
	}
	if limitCfg.ClaimWriteRate <= 0 || limitCfg.ClaimWriteBurst <= 0 {
		log.Warn("claim write rate limit has non-positive limits, limiting is off",
			zap.Float64("rate", limitCfg.ClaimWriteRate),
			zap.Int("burst", limitCfg.ClaimWriteBurst),
		)
		return nil
	}
	return &ClaimWriteLimiter{
		bucket: NewTokenBucket(client),
		rate:   limitCfg.ClaimWriteRate,
		burst:  limitCfg.ClaimWriteBurst,
	}
}

func (l *ClaimWriteLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

// Allow admits every request when the limiter is disabled.
func (l *ClaimWriteLimiter) Allow(ctx context.Context, subject string) (Result, error) {
	if !l.Enabled() {
		return Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyClaimWrites, strings.TrimSpace(subject)), l.rate, l.burst)
}
