package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

// MemoryStore is a process-local Backend used when no redis endpoint is configured.
// It also caches replayable responses in that setup.
type MemoryStore struct {
	mu        sync.Mutex
	namespace string
	now       func() time.Time
	entries   map[string]memoryEntry
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

func NewMemoryStore(namespace string) *MemoryStore {
	if namespace == "" {
		namespace = "kasir"
	}
	return &MemoryStore{
		namespace: namespace,
		now:       time.Now,
		entries:   make(map[string]memoryEntry),
	}
}

func (m *MemoryStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry := memoryEntry{value: fmt.Sprint(value)}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	m.entries[key] = entry
	return nil
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	if !ok {
		return "", redislib.Nil
	}
	if !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt) {
		delete(m.entries, key)
		return "", redislib.Nil
	}
	return entry.value, nil
}

func (m *MemoryStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.entries, key)
	}
	return nil
}

func (m *MemoryStore) SessionKey(registerID string) string {
	return m.namespace + ":session:" + registerID
}

func (m *MemoryStore) IdempotencyKey(scope, key string) string {
	return m.namespace + ":idempotency:" + scope + ":" + key
}
