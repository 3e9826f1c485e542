package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimiter decides whether a request keyed by client may proceed.
type RateLimiter interface {
	Allow(key string) (bool, RateLimitInfo)
}

// RateLimitInfo is the limiter state after a decision.
type RateLimitInfo struct {
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

type tokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

// TokenBucketLimiter keeps one bucket per key. Docking endpoints start a
// subprocess per request, so they are limited per client.
type TokenBucketLimiter struct {
	rate  float64
	burst int
	idle  time.Duration
	now   func() time.Time

	mu      sync.Mutex
	buckets map[string]*tokenBucket
	sweptAt time.Time
}

// NewTokenBucketLimiter creates a limiter refilling rate tokens per second up
// to burst. Buckets idle for longer than idle are dropped lazily.
func NewTokenBucketLimiter(rate float64, burst int, idle time.Duration) *TokenBucketLimiter {
	if burst < 1 {
		burst = 1
	}
	if idle <= 0 {
		idle = 10 * time.Minute
	}
	return &TokenBucketLimiter{
		rate:    rate,
		burst:   burst,
		idle:    idle,
		now:     time.Now,
		buckets: make(map[string]*tokenBucket),
	}
}

// Allow implements RateLimiter.
func (l *TokenBucketLimiter) Allow(key string) (bool, RateLimitInfo) {
	now := l.now()

	l.mu.Lock()
	if now.Sub(l.sweptAt) > l.idle {
		l.sweep(now)
	}
	b, ok := l.buckets[key]
	if !ok {
		b = &tokenBucket{tokens: float64(l.burst), lastRefill: now}
		l.buckets[key] = b
	}
	l.mu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()

	b.tokens += now.Sub(b.lastRefill).Seconds() * l.rate
	if b.tokens > float64(l.burst) {
		b.tokens = float64(l.burst)
	}
	b.lastRefill = now

	info := RateLimitInfo{Limit: l.burst}
	if b.tokens >= 1 {
		b.tokens--
		info.Remaining = int(b.tokens)
		return true, info
	}
	if l.rate > 0 {
		info.RetryAfter = time.Duration((1 - b.tokens) / l.rate * float64(time.Second))
	}
	return false, info
}

// sweep drops idle buckets. Callers hold l.mu.
func (l *TokenBucketLimiter) sweep(now time.Time) {
	for key, b := range l.buckets {
		b.mu.Lock()
		idle := now.Sub(b.lastRefill) > l.idle
		b.mu.Unlock()
		if idle {
			delete(l.buckets, key)
		}
	}
	l.sweptAt = now
}

// Len returns the number of tracked clients.
func (l *TokenBucketLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// RateLimit rejects requests over the limit with 429. Clients are keyed by
// RemoteAddr, which chi's RealIP middleware has already resolved.
func RateLimit(limiter RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, info := limiter.Allow(clientKey(r))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
			if allowed {
				next.ServeHTTP(w, r)
				return
			}

			retry := int(info.RetryAfter.Seconds() + 0.999)
			if retry < 1 {
				retry = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"code":    "RATE_LIMITED",
				"message": "too many docking requests, retry later",
			})
		})
	}
}

func clientKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
