package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryStore implements Store in process memory. It backs local
// development and tests when no Redis address is configured.
type MemoryStore struct {
	mu    sync.Mutex
	cache *cache.Cache
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cache: cache.New(cache.NoExpiration, time.Minute)}
}

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.cache.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	value, ok := v.([]byte)
	if !ok {
		return nil, ErrNotFound
	}
	return cloneBytes(value), nil
}

func (m *MemoryStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	m.cache.Set(key, cloneBytes(value), ttl)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cache.Delete(key)
	return nil
}

func (m *MemoryStore) ScanPrefix(ctx context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var keys []string
	for k := range m.cache.Items() {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryStore) PushBounded(ctx context.Context, listKey string, value []byte, maxLen int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var list [][]byte
	if v, ok := m.cache.Get(listKey); ok {
		if existing, ok := v.([][]byte); ok {
			list = existing
		}
	}
	list = append([][]byte{cloneBytes(value)}, list...)
	if maxLen > 0 && int64(len(list)) > maxLen {
		list = list[:maxLen]
	}
	m.cache.Set(listKey, list, cache.NoExpiration)
	return nil
}

func (m *MemoryStore) ReadRange(ctx context.Context, listKey string, from, to int64) ([][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.cache.Get(listKey)
	if !ok {
		return nil, nil
	}
	list, ok := v.([][]byte)
	if !ok {
		return nil, nil
	}

	n := int64(len(list))
	if from < 0 {
		from += n
	}
	if to < 0 {
		to += n
	}
	if from < 0 {
		from = 0
	}
	if to >= n {
		to = n - 1
	}
	if from >= n || from > to {
		return nil, nil
	}

	out := make([][]byte, 0, to-from+1)
	for _, entry := range list[from : to+1] {
		out = append(out, cloneBytes(entry))
	}
	return out, nil
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
