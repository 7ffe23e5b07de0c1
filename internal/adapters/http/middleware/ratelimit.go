package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RateLimiter keeps one token bucket per client address. Buckets refill
// continuously at burst tokens per interval and never hold more than burst.
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	burst    float64
	interval time.Duration
	now      func() time.Time
}

type bucket struct {
	tokens float64
	seen   time.Time
}

// NewRateLimiter allows burst requests per interval from each client.
// POST: burst <= 0 is treated as 1
func NewRateLimiter(burst int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		buckets:  make(map[string]*bucket),
		burst:    float64(max(burst, 1)),
		interval: interval,
		now:      time.Now,
	}
}

// Take spends one token for client.
// POST: when denied, wait is how long until a token is available
func (rl *RateLimiter) Take(client string) (ok bool, wait time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, found := rl.buckets[client]
	if !found {
		b = &bucket{tokens: rl.burst, seen: now}
		rl.buckets[client] = b
	}
	perToken := rl.interval / time.Duration(rl.burst)
	if elapsed := now.Sub(b.seen); elapsed > 0 && perToken > 0 {
		b.tokens = math.Min(rl.burst, b.tokens+float64(elapsed)/float64(perToken))
	}
	b.seen = now

	if b.tokens < 1 {
		return false, time.Duration((1 - b.tokens) * float64(perToken))
	}
	b.tokens--
	return true, 0
}

// Sweep forgets clients idle for longer than maxIdle.
// POST: Returns the number of buckets removed
func (rl *RateLimiter) Sweep(maxIdle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	removed := 0
	for client, b := range rl.buckets {
		if now.Sub(b.seen) > maxIdle {
			delete(rl.buckets, client)
			removed++
		}
	}
	return removed
}

// RateLimit answers 429 with Retry-After once a client exhausts its bucket.
func RateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := clientIP(r)
			ok, wait := limiter.Take(client)
			if !ok {
				secs := int(math.Ceil(wait.Seconds()))
				zap.S().Warnw("rate_limit_exceeded", "client", client, "method", r.Method, "path", r.URL.Path, "retry_after_s", secs)
				w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP drops the port so reconnects share a bucket.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
