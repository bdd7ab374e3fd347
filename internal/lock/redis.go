package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	apperrors "github.com/myao0007/shetalks/internal/errors"
)

// releaseScript deletes the key only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker is a Locker shared by every instance pointed at the same Redis.
type RedisLocker struct {
	Client *redis.Client

	// RetryInterval is the pause between attempts while the key is taken.
	RetryInterval time.Duration
	// MaxWait bounds how long Acquire keeps retrying.
	MaxWait time.Duration
}

// NewRedisLocker constructs a RedisLocker with its own client.
func NewRedisLocker(opt *redis.Options) *RedisLocker {
	return &RedisLocker{
		Client:        redis.NewClient(opt),
		RetryInterval: 50 * time.Millisecond,
		MaxWait:       2 * time.Second,
	}
}

// Ping checks the connection.
func (l *RedisLocker) Ping(ctx context.Context) error {
	return l.Client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (l *RedisLocker) Close() error {
	return l.Client.Close()
}

// Acquire sets key with NX and a ttl, retrying until MaxWait elapses.
// A key still held after MaxWait yields a LOCK_BUSY error.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (ReleaseFunc, error) {
	token := uuid.NewString()
	deadline := time.Now().Add(l.MaxWait)

	for {
		ok, err := l.Client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			return func(ctx context.Context) error {
				if err := releaseScript.Run(ctx, l.Client, []string{key}, token).Err(); err != nil && err != redis.Nil {
					return fmt.Errorf("release lock %s: %w", key, err)
				}
				return nil
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, apperrors.NewLockBusy(key)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.RetryInterval):
		}
	}
}
