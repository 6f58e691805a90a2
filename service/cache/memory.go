package cache

import (
	"context"
	"strconv"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	counter   int64
	expiresAt time.Time
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryStore is a single instance Store backed by a mutex guarded map.
// Expired entries are dropped lazily on access and swept periodically.
type MemoryStore struct {
	mu    sync.RWMutex
	store map[string]*memoryEntry
}

// NewMemoryStore creates a new in memory store.
func NewMemoryStore() *MemoryStore {
	ms := &MemoryStore{
		store: make(map[string]*memoryEntry),
	}

	// Start cleanup goroutine
	go ms.cleanup()

	return ms
}

// cleanup periodically removes expired entries
func (ms *MemoryStore) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		ms.mu.Lock()
		now := time.Now()
		for key, entry := range ms.store {
			if entry.expired(now) {
				delete(ms.store, key)
			}
		}
		ms.mu.Unlock()
	}
}

func (ms *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	// Entry fields are read under the lock; Increment and Expire mutate
	// them under the write lock.
	entry, exists := ms.store[key]
	if !exists || entry.expired(time.Now()) {
		return "", false, nil
	}
	if entry.value == "" && entry.counter != 0 {
		return strconv.FormatInt(entry.counter, 10), true, nil
	}
	return entry.value, true, nil
}

func (ms *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	entry := &memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	ms.store[key] = entry
	return nil
}

func (ms *MemoryStore) Remove(_ context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.store, key)
	return nil
}

func (ms *MemoryStore) Increment(_ context.Context, key string, ttl time.Duration) (int64, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	entry, exists := ms.store[key]
	if !exists || entry.expired(now) {
		entry = &memoryEntry{counter: 1}
		if ttl > 0 {
			entry.expiresAt = now.Add(ttl)
		}
		ms.store[key] = entry
		return 1, nil
	}

	entry.counter++
	return entry.counter, nil
}

func (ms *MemoryStore) Expire(_ context.Context, key string, ttl time.Duration) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	entry, exists := ms.store[key]
	if !exists || entry.expired(time.Now()) {
		return nil
	}
	entry.expiresAt = time.Now().Add(ttl)
	return nil
}
