package auth

import (
	"sync"
	"time"
)

// DefaultCheckInterval is how often a watcher looks at its session.
const DefaultCheckInterval = time.Minute

// SessionExpired is delivered to a view when its session ran out.
type SessionExpired struct {
	Username string
}

// Watcher polls a session and reports once when it expires.
type Watcher struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// Watch starts polling s every interval. When the session is logged in and
// expired, notify is called once with SessionExpired and the watcher ends.
// Socket.SendInfo fits notify.
func Watch(s *Session, interval time.Duration, notify func(msg any) bool) *Watcher {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}

	w := &Watcher{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	go func() {
		defer close(w.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-w.stop:
				return
			case <-ticker.C:
				if !s.IsAuthenticated() || !s.Expired() {
					continue
				}
				notify(SessionExpired{Username: s.Username()})
				return
			}
		}
	}()

	return w
}

// Stop ends the watcher and waits for its goroutine. It is safe to call
// more than once.
func (w *Watcher) Stop() {
	w.once.Do(func() {
		close(w.stop)
	})
	<-w.done
}
