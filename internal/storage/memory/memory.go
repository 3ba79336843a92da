package memory

import (
	"context"
	"os"
	"sync"

	"growly/internal/storage"
)

// Store is an in-process KeyValue backend. A positive quota caps the total
// bytes held, mimicking browser storage limits.
type Store struct {
	mu    sync.Mutex
	quota int
	items map[string][]byte
}

func New(quota int) *Store {
	return &Store{quota: quota, items: map[string][]byte{}}
}

// NewFromFile seeds key with the contents of path when the file exists.
func NewFromFile(quota int, key, path string) *Store {
	s := New(quota)
	if b, err := os.ReadFile(path); err == nil && len(b) > 0 {
		s.items[key] = b
	}
	return s
}

// Get implements storage.KeyValue
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, storage.ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Set implements storage.KeyValue
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	if key == "" {
		return storage.ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quota > 0 && s.sizeWithout(key)+len(key)+len(value) > s.quota {
		return storage.ErrQuotaExceeded
	}
	s.items[key] = append([]byte(nil), value...)
	return nil
}

// Delete implements storage.KeyValue
func (s *Store) Delete(_ context.Context, key string) error {
	if key == "" {
		return storage.ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

// Size returns the bytes currently held, keys included.
func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sizeWithout("")
}

func (s *Store) sizeWithout(skip string) int {
	n := 0
	for k, v := range s.items {
		if k == skip {
			continue
		}
		n += len(k) + len(v)
	}
	return n
}
