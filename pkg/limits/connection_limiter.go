package limits

import (
	"net/http"
	"sync"
	"sync/atomic"
)

// ConnectionLimiter bounds concurrent connections per key and in total. A
// limit of zero is no limit.
type ConnectionLimiter struct {
	perKey int
	total  int

	mu     sync.Mutex
	counts map[string]int
	active int

	blocked atomic.Int64
}

// NewConnectionLimiter creates a limiter.
func NewConnectionLimiter(perKey, total int) *ConnectionLimiter {
	return &ConnectionLimiter{
		perKey: perKey,
		total:  total,
		counts: make(map[string]int),
	}
}

// Acquire takes a slot for key. It reports false when either limit is
// reached.
func (cl *ConnectionLimiter) Acquire(key string) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if (cl.total > 0 && cl.active >= cl.total) || (cl.perKey > 0 && cl.counts[key] >= cl.perKey) {
		cl.blocked.Add(1)
		return false
	}
	cl.counts[key]++
	cl.active++
	return true
}

// Release frees a slot taken by Acquire.
func (cl *ConnectionLimiter) Release(key string) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	n, ok := cl.counts[key]
	if !ok {
		return
	}
	if n <= 1 {
		delete(cl.counts, key)
	} else {
		cl.counts[key] = n - 1
	}
	cl.active--
}

// Count returns the number of held slots.
func (cl *ConnectionLimiter) Count() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.active
}

// CountFor returns the slots held by key.
func (cl *ConnectionLimiter) CountFor(key string) int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.counts[key]
}

// Blocked returns how many acquisitions were refused.
func (cl *ConnectionLimiter) Blocked() int64 {
	return cl.blocked.Load()
}

// Gate admits requests through cl, keyed by key. onLimited, if set, is
// called for every refused request.
func (cl *ConnectionLimiter) Gate(key KeyFunc, onLimited func(*http.Request)) *Gate {
	return &Gate{limiter: cl, key: key, onLimited: onLimited}
}

// Gate reserves a connection slot per admitted request.
type Gate struct {
	limiter   *ConnectionLimiter
	key       KeyFunc
	onLimited func(*http.Request)
}

// Admit reserves a slot for r. The returned release frees it and is safe to
// call more than once.
func (g *Gate) Admit(r *http.Request) (release func(), ok bool) {
	k := g.key(r)
	if !g.limiter.Acquire(k) {
		if g.onLimited != nil {
			g.onLimited(r)
		}
		return nil, false
	}
	var once sync.Once
	return func() { once.Do(func() { g.limiter.Release(k) }) }, true
}
