package httpapi

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// cleanupThreshold is the minimum map size before a cleanup pass runs.
	cleanupThreshold = 500
	// maxIdleAge is how long an unused key is kept.
	maxIdleAge = 10 * time.Minute
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedRateLimiter hands out one token bucket per key and prunes idle keys
// inline. Keys are client IPs for the HTTP middleware and league ids for
// forced leaderboard refreshes.
type KeyedRateLimiter struct {
	keys map[string]*limiterEntry
	mu   sync.Mutex
	r    rate.Limit
	b    int
	now  func() time.Time
}

// NewKeyedRateLimiter creates a limiter allowing r events per second with burst b per key.
func NewKeyedRateLimiter(r rate.Limit, b int) *KeyedRateLimiter {
	return &KeyedRateLimiter{
		keys: make(map[string]*limiterEntry),
		r:    r,
		b:    b,
		now:  time.Now,
	}
}

// Limiter returns the bucket for key.
func (k *KeyedRateLimiter) Limiter(key string) *rate.Limiter {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.now()
	if len(k.keys) > cleanupThreshold {
		cutoff := now.Add(-maxIdleAge)
		for key, e := range k.keys {
			if e.lastSeen.Before(cutoff) {
				delete(k.keys, key)
			}
		}
	}

	e, ok := k.keys[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(k.r, k.b)}
		k.keys[key] = e
	}
	e.lastSeen = now
	return e.limiter
}

// Allow reports whether an event for key may happen now.
func (k *KeyedRateLimiter) Allow(key string) bool {
	return k.Limiter(key).AllowN(k.now(), 1)
}

// RateLimitMiddleware rate limits requests per client IP.
func RateLimitMiddleware(limiter *KeyedRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}

			if !limiter.Allow(ip) {
				WriteJSON(w, http.StatusTooManyRequests, ErrorBody{Kind: "rate_limited", Reason: http.StatusText(http.StatusTooManyRequests)})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
