// Package state provides key/value storage for dashboard state: wizard
// drafts, user records and login sessions. Backends: in-memory (default)
// and one-file-per-key on disk.
package state

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Common store errors.
var (
	ErrKeyNotFound = errors.New("key not found")
	ErrStoreClosed = errors.New("store is closed")
	ErrInvalidData = errors.New("invalid data format")
	ErrInvalidKey  = errors.New("invalid key")
)

// Store is the interface for state storage backends.
type Store interface {
	// Get retrieves a value by key. Missing or expired keys return ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value. A zero ttl never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists checks if a key exists.
	Exists(ctx context.Context, key string) (bool, error)

	// Keys returns all keys matching a glob pattern.
	Keys(ctx context.Context, pattern string) ([]string, error)

	// Close closes the store.
	Close() error
}

// TypedStore provides type-safe access to a store.
type TypedStore[T any] struct {
	store      Store
	serializer Serializer[T]
	prefix     string
}

// NewTypedStore creates a typed wrapper. Keys passed to the wrapper are
// joined to prefix with ":"; an empty prefix leaves them unchanged.
func NewTypedStore[T any](store Store, serializer Serializer[T], prefix string) *TypedStore[T] {
	return &TypedStore[T]{
		store:      store,
		serializer: serializer,
		prefix:     prefix,
	}
}

// Key returns the backend key for k.
func (ts *TypedStore[T]) Key(k string) string {
	return JoinKey(ts.prefix, k)
}

// Get retrieves and deserializes a value.
func (ts *TypedStore[T]) Get(ctx context.Context, key string) (T, error) {
	var zero T

	data, err := ts.store.Get(ctx, ts.Key(key))
	if err != nil {
		return zero, err
	}

	value, err := ts.serializer.Deserialize(data)
	if err != nil {
		return zero, errors.Join(ErrInvalidData, err)
	}
	return value, nil
}

// Set serializes and stores a value.
func (ts *TypedStore[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	data, err := ts.serializer.Serialize(value)
	if err != nil {
		return err
	}

	return ts.store.Set(ctx, ts.Key(key), data, ttl)
}

// Delete removes a key.
func (ts *TypedStore[T]) Delete(ctx context.Context, key string) error {
	return ts.store.Delete(ctx, ts.Key(key))
}

// JoinKey builds a namespaced key.
func JoinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	default:
		return prefix + ":" + key
	}
}

// ValidKey reports whether key is usable by every backend.
func ValidKey(key string) bool {
	if key == "" || len(key) > 200 {
		return false
	}
	return !strings.ContainsAny(key, "/\\\x00") && key != "." && key != ".."
}
