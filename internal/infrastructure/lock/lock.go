package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisLocker hands out per-key leases with SET NX PX.
type RedisLocker struct {
	rdb    *redis.Client
	prefix string
	lg     zerolog.Logger
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

func NewRedisLocker(rdb *redis.Client, prefix string, lg zerolog.Logger) *RedisLocker {
	if prefix == "" {
		prefix = "campaign:lock:"
	}
	return &RedisLocker{rdb: rdb, prefix: prefix, lg: lg.With().Str("component", "redis_lock").Logger()}
}

// Acquire returns ok=false when somebody else holds the key.
// The returned release func is safe to call more than once.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	k := l.prefix + key
	token := uuid.NewString()

	ok, err := l.rdb.SetNX(ctx, k, token, ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// the caller's ctx may already be canceled during shutdown
			rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(rctx, l.rdb, []string{k}, token).Err(); err != nil {
				l.lg.Warn().Err(err).Str("key", k).Msg("lock release failed")
			}
		})
	}, true, nil
}

// NoopLocker always grants the lock. Used when Redis is disabled (single replica).
type NoopLocker struct{}

func NewNoopLocker() *NoopLocker { return &NoopLocker{} }

func (NoopLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	return func() {}, true, nil
}
