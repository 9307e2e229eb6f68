// Package limits bounds how often and how concurrently one client may use
// the server.
package limits

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Limiter decides whether the client identified by key may proceed.
type Limiter interface {
	Allow(key string) bool
}

// KeyFunc identifies the client of a request.
type KeyFunc func(r *http.Request) string

// ClientIP returns a KeyFunc keyed by client address. With trustProxy the
// first X-Forwarded-For entry, then X-Real-IP, take precedence over the
// peer address.
func ClientIP(trustProxy bool) KeyFunc {
	return func(r *http.Request) string {
		if trustProxy {
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				first, _, _ := strings.Cut(xff, ",")
				if ip := strings.TrimSpace(first); ip != "" {
					return ip
				}
			}
			if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
				return xri
			}
		}
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			return r.RemoteAddr
		}
		return host
	}
}

// TokenBucket refills each key at a fixed rate up to a burst size.
type TokenBucket struct {
	rate  float64 // tokens per second
	burst float64
	idle  time.Duration
	now   func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	tokens float64
	last   time.Time
}

// NewTokenBucket allows burst requests at once per key, refilled at n per
// interval.
func NewTokenBucket(n int, interval time.Duration, burst int) *TokenBucket {
	if burst < 1 {
		burst = 1
	}
	rate := float64(n) / interval.Seconds()

	// A bucket idle this long is full again and can be forgotten.
	idle := time.Duration(float64(burst)/rate*float64(time.Second)) + time.Minute

	return &TokenBucket{
		rate:    rate,
		burst:   float64(burst),
		idle:    idle,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// Allow takes one token from key's bucket.
func (tb *TokenBucket) Allow(key string) bool {
	return tb.AllowN(key, 1)
}

// AllowN takes n tokens from key's bucket, or none when fewer are left.
func (tb *TokenBucket) AllowN(key string, n int) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	tb.sweep(now)

	b, ok := tb.buckets[key]
	if !ok {
		b = &bucket{tokens: tb.burst, last: now}
		tb.buckets[key] = b
	}

	b.tokens = min(tb.burst, b.tokens+now.Sub(b.last).Seconds()*tb.rate)
	b.last = now

	if b.tokens < float64(n) {
		return false
	}
	b.tokens -= float64(n)
	return true
}

// sweep drops idle buckets. The caller holds tb.mu.
func (tb *TokenBucket) sweep(now time.Time) {
	if now.Sub(tb.lastSweep) < tb.idle {
		return
	}
	tb.lastSweep = now
	for key, b := range tb.buckets {
		if now.Sub(b.last) >= tb.idle {
			delete(tb.buckets, key)
		}
	}
}

// Len returns the number of tracked keys.
func (tb *TokenBucket) Len() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return len(tb.buckets)
}

// Middleware answers 429 to clients over the limit. onLimited, if set, is
// called for every rejected request.
func Middleware(l Limiter, key KeyFunc, onLimited func(*http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(key(r)) {
				if onLimited != nil {
					onLimited(r)
				}
				w.Header().Set("Retry-After", strconv.Itoa(1))
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
