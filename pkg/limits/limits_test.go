package limits

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucket(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	tb := NewTokenBucket(5, time.Minute, 2)
	tb.now = func() time.Time { return now }

	assert.True(t, tb.Allow("a"))
	assert.True(t, tb.Allow("a"))
	assert.False(t, tb.Allow("a"), "burst spent")
	assert.True(t, tb.Allow("b"), "keys are independent")

	now = now.Add(12 * time.Second)
	assert.True(t, tb.Allow("a"), "one token refilled")
	assert.False(t, tb.Allow("a"))

	now = now.Add(time.Hour)
	assert.True(t, tb.AllowN("a", 2), "refill is capped at the burst")
	assert.False(t, tb.Allow("a"))
}

func TestTokenBucket_ForgetsIdleKeys(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	tb := NewTokenBucket(1, time.Second, 1)
	tb.now = func() time.Time { return now }

	tb.Allow("a")
	tb.Allow("b")
	assert.Equal(t, 2, tb.Len())

	now = now.Add(2 * time.Minute)
	tb.Allow("c")
	assert.Equal(t, 1, tb.Len())
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:4242"
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	assert.Equal(t, "10.0.0.1", ClientIP(false)(r))
	assert.Equal(t, "203.0.113.9", ClientIP(true)(r))

	r.Header.Del("X-Forwarded-For")
	r.Header.Set("X-Real-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", ClientIP(true)(r))

	r.RemoteAddr = "pipe"
	assert.Equal(t, "pipe", ClientIP(false)(r))
}

func TestMiddleware(t *testing.T) {
	var limited int
	h := Middleware(NewTokenBucket(2, time.Hour, 2), ClientIP(false), func(*http.Request) { limited++ })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		codes = append(codes, w.Code)
		if w.Code == http.StatusTooManyRequests {
			assert.Equal(t, "1", w.Header().Get("Retry-After"))
		}
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, 1, limited)

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestConnectionLimiter(t *testing.T) {
	cl := NewConnectionLimiter(2, 3)

	assert.True(t, cl.Acquire("a"))
	assert.True(t, cl.Acquire("a"))
	assert.False(t, cl.Acquire("a"), "per-key limit")
	assert.True(t, cl.Acquire("b"))
	assert.False(t, cl.Acquire("c"), "total limit")
	assert.Equal(t, 3, cl.Count())
	assert.Equal(t, int64(2), cl.Blocked())

	cl.Release("a")
	assert.Equal(t, 1, cl.CountFor("a"))
	assert.True(t, cl.Acquire("c"))

	cl.Release("unknown")
	assert.Equal(t, 3, cl.Count())
}

func TestConnectionLimiter_Unlimited(t *testing.T) {
	cl := NewConnectionLimiter(0, 0)
	for i := 0; i < 100; i++ {
		require.True(t, cl.Acquire("a"))
	}
	assert.Equal(t, 100, cl.CountFor("a"))
}

func TestGate(t *testing.T) {
	cl := NewConnectionLimiter(1, 0)
	var refused []string
	g := cl.Gate(ClientIP(false), func(r *http.Request) { refused = append(refused, r.RemoteAddr) })

	req := func(addr string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/live", nil)
		r.RemoteAddr = addr
		return r
	}

	release, ok := g.Admit(req("10.0.0.1:1"))
	require.True(t, ok)

	_, ok = g.Admit(req("10.0.0.1:2"))
	assert.False(t, ok)
	assert.Equal(t, []string{"10.0.0.1:2"}, refused)

	_, ok = g.Admit(req("10.0.0.2:1"))
	assert.True(t, ok, "other clients have their own slots")

	release()
	release()
	assert.Equal(t, 0, cl.CountFor("10.0.0.1"))
	assert.Equal(t, 1, cl.Count())
}
