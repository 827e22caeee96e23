package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/rs/zerolog"

	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/transport/http/response"
)

type RedisRateLimitConfig struct {
	Enabled bool

	// Per-IP limit per endpoint
	IPLimit  int
	IPWindow time.Duration

	KeyPrefix string // e.g. "rl:campaign"
}

// RedisRateLimiter is a fixed window counter shared by every replica.
type RedisRateLimiter struct {
	pool    *redis.Pool
	cfg     RedisRateLimitConfig
	lg      zerolog.Logger
	script  allowScript
	onError func(error)
}

func NewRedisRateLimiter(pool *redis.Pool, cfg RedisRateLimitConfig, lg zerolog.Logger) *RedisRateLimiter {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "rl:campaign"
	}
	return &RedisRateLimiter{
		pool:   pool,
		cfg:    cfg,
		lg:     lg.With().Str("component", "rl_redis").Logger(),
		script: defaultAllowScript,
	}
}

// NewRedisPool parses a redis:// URL into a lazily dialing pool.
func NewRedisPool(rawURL string) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     8,
		MaxActive:   32,
		IdleTimeout: 240 * time.Second,
		Wait:        true,
		DialContext: func(ctx context.Context) (redis.Conn, error) {
			return redis.DialURLContext(ctx, rawURL,
				redis.DialConnectTimeout(3*time.Second),
				redis.DialReadTimeout(3*time.Second),
				redis.DialWriteTimeout(3*time.Second),
			)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
}

// Wrap limits requests to endpoint per client IP.
func (rl *RedisRateLimiter) Wrap(endpoint string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.cfg.Enabled || rl.pool == nil || rl.cfg.IPLimit <= 0 || rl.cfg.IPWindow <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			ip := clientIP(r)
			if ip == "" {
				ip = "unknown"
			}

			key := fmt.Sprintf("%s:ip:%s:%s", rl.cfg.KeyPrefix, ip, endpoint)
			allowed, retryAfter, cur, err := rl.allow(r.Context(), key, rl.cfg.IPWindow, rl.cfg.IPLimit)
			if err != nil {
				rl.lg.Error().Err(err).Str("key", key).Msg("redis rl ip check failed")
				if rl.onError != nil {
					rl.onError(err)
				}
				response.Fail(w, http.StatusBadGateway, "rate_limit_backend", "rate limit backend error", nil, response.RequestID(r))
				return
			}
			if !allowed {
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(retryAfter.Seconds())))
				response.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", map[string]string{
					"count": fmt.Sprintf("%d", cur),
					"limit": fmt.Sprintf("%d", rl.cfg.IPLimit),
				}, response.RequestID(r))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// allow returns allowed, retryAfter (the window) and the current count.
func (rl *RedisRateLimiter) allow(ctx context.Context, key string, window time.Duration, limit int) (bool, time.Duration, int, error) {
	conn, err := rl.pool.GetContext(ctx)
	if err != nil {
		return false, 0, 0, err
	}
	defer conn.Close()

	res, err := rl.script.Do(conn, key, int64(window/time.Millisecond), limit)
	if err != nil {
		return false, 0, 0, err
	}
	var ok, cur int
	if _, err := redis.Scan(res, &ok, &cur); err != nil {
		return false, 0, 0, err
	}
	if ok == 1 {
		return true, 0, cur, nil
	}
	return false, window, cur, nil
}

// clientIP expects chi's RealIP to have rewritten RemoteAddr already.
func clientIP(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
		return host
	}
	return addr
}

type allowScript interface {
	Do(conn redis.Conn, key string, windowMS int64, limit int) ([]any, error)
}

type redigoAllowScript struct {
	script *redis.Script
}

func (s redigoAllowScript) Do(conn redis.Conn, key string, windowMS int64, limit int) ([]any, error) {
	return redis.Values(s.script.Do(conn, key, windowMS, limit))
}

// ARGV[1]=window_ms, ARGV[2]=limit
var defaultAllowScript allowScript = redigoAllowScript{
	script: redis.NewScript(1, `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local limit = tonumber(ARGV[2])
if current > limit then
  return {0, current}
end
return {1, current}
`),
}
