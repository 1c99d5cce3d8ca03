package cache

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used when Redis is not configured and in tests.
type MemoryStore struct {
	mu      sync.Mutex
	values  map[string]string
	expires map[string]time.Time
	now     func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values:  make(map[string]string),
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (m *MemoryStore) expired(key string) bool {
	exp, ok := m.expires[key]
	if ok && !m.now().Before(exp) {
		delete(m.values, key)
		delete(m.expires, key)
		return true
	}
	return false
}

func (m *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.expired(key) {
		return "", ErrCacheMiss
	}
	val, ok := m.values[key]
	if !ok {
		return "", ErrCacheMiss
	}
	return val, nil
}

func (m *MemoryStore) SetEx(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = fmt.Sprint(value)
	if ttl > 0 {
		m.expires[key] = m.now().Add(ttl)
	} else {
		delete(m.expires, key)
	}
	return nil
}

func (m *MemoryStore) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.values, key)
		delete(m.expires, key)
	}
	return nil
}

func (m *MemoryStore) IncrBy(ctx context.Context, key string, increment int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expired(key)
	var current int64
	if raw, ok := m.values[key]; ok {
		if _, err := fmt.Sscan(raw, &current); err != nil {
			return 0, fmt.Errorf("value at %s is not an integer", key)
		}
	}
	current += increment
	m.values[key] = fmt.Sprint(current)
	return current, nil
}

func (m *MemoryStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; ok {
		m.expires[key] = m.now().Add(ttl)
	}
	return nil
}
