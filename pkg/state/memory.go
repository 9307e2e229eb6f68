package state

import (
	"context"
	"path/filepath"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of Store.
// Suitable for single-node deployments and testing.
type MemoryStore struct {
	items     map[string]*memoryItem
	now       func() time.Time
	mu        sync.RWMutex
	closed    bool
	cleanupCh chan struct{}
}

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

func (it *memoryItem) expired(now time.Time) bool {
	return !it.expiresAt.IsZero() && now.After(it.expiresAt)
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides the time source used for TTL checks.
func WithClock(now func() time.Time) MemoryOption {
	return func(ms *MemoryStore) {
		ms.now = now
	}
}

// NewMemoryStore creates a new in-memory store. Expired items are swept
// once a minute until Close.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	ms := &MemoryStore{
		items:     make(map[string]*memoryItem),
		now:       time.Now,
		cleanupCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(ms)
	}

	go ms.cleanupLoop(time.Minute)

	return ms
}

func (ms *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	if ms.closed {
		return nil, ErrStoreClosed
	}

	item, ok := ms.items[key]
	if !ok || item.expired(ms.now()) {
		return nil, ErrKeyNotFound
	}

	result := make([]byte, len(item.value))
	copy(result, item.value)
	return result, nil
}

func (ms *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if !ValidKey(key) {
		return ErrInvalidKey
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.closed {
		return ErrStoreClosed
	}

	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	item := &memoryItem{value: valueCopy}
	if ttl > 0 {
		item.expiresAt = ms.now().Add(ttl)
	}

	ms.items[key] = item
	return nil
}

func (ms *MemoryStore) Delete(ctx context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.closed {
		return ErrStoreClosed
	}

	delete(ms.items, key)
	return nil
}

func (ms *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	if ms.closed {
		return false, ErrStoreClosed
	}

	item, ok := ms.items[key]
	return ok && !item.expired(ms.now()), nil
}

// Keys returns keys matching a pattern.
// Supports basic glob patterns: * matches any sequence.
func (ms *MemoryStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	if ms.closed {
		return nil, ErrStoreClosed
	}

	var keys []string
	now := ms.now()
	for key, item := range ms.items {
		if item.expired(now) {
			continue
		}
		if matched, err := filepath.Match(pattern, key); err == nil && matched {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (ms *MemoryStore) Close() error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.closed {
		return nil
	}

	ms.closed = true
	close(ms.cleanupCh)
	return nil
}

// Len returns the number of items, expired or not.
func (ms *MemoryStore) Len() int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return len(ms.items)
}

func (ms *MemoryStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ms.cleanup()
		case <-ms.cleanupCh:
			return
		}
	}
}

func (ms *MemoryStore) cleanup() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	for key, item := range ms.items {
		if item.expired(now) {
			delete(ms.items, key)
		}
	}
}
