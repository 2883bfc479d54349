package lock

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"warehouse-reservation-backend/internal/domain"
)

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisOptions configures the distributed locker.
type RedisOptions struct {
	Prefix string
	// Wait bounds one Lock call.
	Wait time.Duration
	// TTL expires a lock whose holder died. The lock is not renewed, so TTL
	// must exceed Wait plus the longest transaction run under it; config.Load
	// enforces TTL > wait + database lock timeout. A lapsed key leaves only the
	// postgres advisory lock serializing the commit.
	TTL time.Duration
	// Retry is the polling interval while a key is held elsewhere.
	Retry time.Duration
}

// Redis is a Locker shared by every service instance pointing at the same Redis.
type Redis struct {
	client redis.UniversalClient
	opts   RedisOptions
}

// NewRedis creates a Redis-backed Locker.
func NewRedis(client redis.UniversalClient, opts RedisOptions) *Redis {
	if opts.Prefix == "" {
		opts.Prefix = "reservation:lock:"
	}
	if opts.Wait <= 0 {
		opts.Wait = 2 * time.Second
	}
	if opts.TTL <= 0 {
		opts.TTL = 10 * time.Second
	}
	if opts.Retry <= 0 {
		opts.Retry = 25 * time.Millisecond
	}
	return &Redis{client: client, opts: opts}
}

func (r *Redis) Lock(ctx context.Context, keys ...string) (Unlock, error) {
	keys = Normalize(keys)
	ctx, cancel := context.WithTimeout(ctx, r.opts.Wait)
	defer cancel()

	token := uuid.NewString()
	held := make([]string, 0, len(keys))
	for _, k := range keys {
		if err := r.acquire(ctx, r.opts.Prefix+k, token); err != nil {
			r.release(held, token)
			return nil, err
		}
		held = append(held, r.opts.Prefix+k)
	}

	var once sync.Once
	return func() { once.Do(func() { r.release(held, token) }) }, nil
}

func (r *Redis) acquire(ctx context.Context, key, token string) error {
	ticker := time.NewTicker(r.opts.Retry)
	defer ticker.Stop()
	for {
		ok, err := r.client.SetNX(ctx, key, token, r.opts.TTL).Result()
		if err != nil {
			if ctx.Err() != nil {
				return contended(key, ctx.Err())
			}
			return domain.WrapError(domain.KindDependencyUnavailable, "lock backend unavailable", err)
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return contended(key, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (r *Redis) release(keys []string, token string) {
	// The caller's context may already be done; release must still run.
	ctx, cancel := context.WithTimeout(context.Background(), r.opts.Wait)
	defer cancel()
	for i := len(keys) - 1; i >= 0; i-- {
		if err := releaseScript.Run(ctx, r.client, []string{keys[i]}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			slog.Warn("failed to release lock", "key", keys[i], "error", err)
		}
	}
}
