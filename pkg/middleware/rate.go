// Package middleware holds the HTTP middleware stack: recovery, request
// logging, rate limiting, CORS, identity resolution and CSRF.
package middleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shashiranjanraj/wellness360/pkg/logger"
	"github.com/shashiranjanraj/wellness360/pkg/response"
)

// HitCounter counts requests per key in fixed windows. Hit returns the
// count including this request and the time until the window resets.
type HitCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

type window struct {
	count int64
	ends  time.Time
}

// MemoryCounter keeps windows in process. Expired windows are dropped
// lazily once the map grows past a thousand keys.
type MemoryCounter struct {
	mu      sync.Mutex
	windows map[string]*window
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{windows: map[string]*window{}}
}

func (m *MemoryCounter) Hit(_ context.Context, key string, d time.Duration) (int64, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if len(m.windows) > 1000 {
		for k, w := range m.windows {
			if now.After(w.ends) {
				delete(m.windows, k)
			}
		}
	}
	w, ok := m.windows[key]
	if !ok || now.After(w.ends) {
		w = &window{ends: now.Add(d)}
		m.windows[key] = w
	}
	w.count++
	return w.count, w.ends.Sub(now), nil
}

// RedisCounter shares windows between instances: INCR plus an expiry
// set on the first hit.
type RedisCounter struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisCounter(rdb *redis.Client) *RedisCounter {
	return &RedisCounter{rdb: rdb, prefix: "wellness:ratelimit:"}
}

func (c *RedisCounter) Hit(ctx context.Context, key string, d time.Duration) (int64, time.Duration, error) {
	k := c.prefix + key
	pipe := c.rdb.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, d)
	ttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, err
	}
	left := ttl.Val()
	if left < 0 {
		left = d
	}
	return incr.Val(), left, nil
}

// RateLimit allows max requests per window per client IP, counted in
// memory. perWindow <= 0 disables limiting.
func RateLimit(perWindow int, window time.Duration) func(http.Handler) http.Handler {
	return RateLimitWith(NewMemoryCounter(), perWindow, window)
}

// RateLimitWith limits using counter. Counter errors let the request through.
func RateLimitWith(counter HitCounter, perWindow int, window time.Duration) func(http.Handler) http.Handler {
	limit := int64(perWindow)
	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			n, reset, err := counter.Hit(r.Context(), clientIP(r), window)
			if err != nil {
				logger.WithCtx(r.Context()).Warn("rate limit: counter unavailable", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(max(limit-n, 0), 10))
			if n > limit {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(reset.Seconds()))))
				response.Error(w, http.StatusTooManyRequests, "Too Many Requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
