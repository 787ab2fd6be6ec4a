package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

var (
	ErrNotConfigured = errors.New("lock_not_configured")
	ErrLockTimeout   = errors.New("lock_timeout")
)

const defaultRetryInterval = 25 * time.Millisecond

// Locker is a single-key Redis mutex. A nil *Locker is valid and WithLock
// then runs the callback without locking.
type Locker struct {
	client        *redis.Client
	script        *redis.Script
	retryInterval time.Duration
}

func NewLocker(client *redis.Client) *Locker {
	if client == nil {
		return nil
	}
	return &Locker{
		client:        client,
		script:        redis.NewScript(lockReleaseScript),
		retryInterval: defaultRetryInterval,
	}
}

func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if l == nil || l.client == nil {
		return "", false, ErrNotConfigured
	}
	if key == "" {
		return "", false, errors.New("lock key is empty")
	}
	if ttl <= 0 {
		return "", false, errors.New("lock ttl must be positive")
	}

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

func (l *Locker) Release(ctx context.Context, key, token string) error {
	if l == nil || l.client == nil {
		return nil
	}
	if key == "" || token == "" {
		return nil
	}
	return l.script.Run(ctx, l.client, []string{key}, token).Err()
}

// WithLock polls for key until it is acquired or wait elapses, runs fn, and
// releases the lock. The lock expires after ttl if the holder dies.
func (l *Locker) WithLock(ctx context.Context, key string, ttl, wait time.Duration, fn func(context.Context) error) error {
	if l == nil || l.client == nil {
		return fn(ctx)
	}

	deadline := time.Now().Add(wait)
	for {
		token, ok, err := l.TryLock(ctx, key, ttl)
		if err != nil {
			return err
		}
		if ok {
			defer func() {
				// Release on a fresh context so a cancelled request still frees the key.
				releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_ = l.Release(releaseCtx, key, token)
			}()
			return fn(ctx)
		}
		if time.Now().After(deadline) {
			return ErrLockTimeout
		}

		timer := time.NewTimer(l.retryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
