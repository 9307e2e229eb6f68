package state

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const fileSuffix = ".state"

// FileStore keeps one file per key under a directory. Values survive process
// restarts. Each file holds an 8-byte expiry header (unix nanoseconds, zero
// for no expiry) followed by the value.
type FileStore struct {
	dir    string
	now    func() time.Time
	mu     sync.RWMutex
	closed bool
}

// NewFileStore creates the directory if needed and returns a store rooted
// there.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("state: file store directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("state: create store dir: %w", err)
	}
	return &FileStore{dir: dir, now: time.Now}, nil
}

// Dir returns the root directory.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, base64.RawURLEncoding.EncodeToString([]byte(key))+fileSuffix)
}

func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	value, expiresAt, err := s.read(s.path(key))
	if err != nil {
		return nil, err
	}
	if !expiresAt.IsZero() && s.now().After(expiresAt) {
		return nil, ErrKeyNotFound
	}
	return value, nil
}

func (s *FileStore) read(path string) ([]byte, time.Time, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, time.Time{}, ErrKeyNotFound
	}
	if err != nil {
		return nil, time.Time{}, err
	}
	if len(data) < 8 {
		return nil, time.Time{}, ErrInvalidData
	}

	var expiresAt time.Time
	if nanos := int64(binary.BigEndian.Uint64(data[:8])); nanos != 0 {
		expiresAt = time.Unix(0, nanos)
	}
	return data[8:], expiresAt, nil
}

func (s *FileStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if !ValidKey(key) {
		return ErrInvalidKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	var nanos int64
	if ttl > 0 {
		nanos = s.now().Add(ttl).UnixNano()
	}

	buf := make([]byte, 8+len(value))
	binary.BigEndian.PutUint64(buf[:8], uint64(nanos))
	copy(buf[8:], value)

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("state: write %q: %w", key, err)
	}
	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("state: write %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("state: write %q: %w", key, err)
	}
	return os.Rename(tmp.Name(), s.path(key))
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	err := os.Remove(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (s *FileStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *FileStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var keys []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileSuffix) {
			continue
		}
		raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSuffix(entry.Name(), fileSuffix))
		if err != nil {
			continue
		}
		key := string(raw)
		if matched, err := filepath.Match(pattern, key); err != nil || !matched {
			continue
		}
		_, expiresAt, err := s.read(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		if !expiresAt.IsZero() && now.After(expiresAt) {
			continue
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
