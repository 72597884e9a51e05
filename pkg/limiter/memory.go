package limiter

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process sliding window with the same semantics as
// RedisStore.
//
// It is safe for concurrent use by multiple goroutines, but its state is local
// to the process and is not shared across replicas. Use RedisStore when you
// need a single global limit across multiple instances; MemoryStore fits unit
// tests and single-instance deployments.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string][]int64
}

// NewMemoryStore constructs a MemoryStore with empty state.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		windows: make(map[string][]int64),
	}
}

// Check implements Store.
func (m *MemoryStore) Check(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	nowMs := now.UnixMilli()
	windowStart := nowMs - window.Milliseconds()

	entries := m.windows[key]
	// Entries are appended in arrival order, so expired ones form a prefix.
	i := 0
	for i < len(entries) && entries[i] < windowStart {
		i++
	}
	entries = entries[i:]

	if len(entries) >= limit {
		oldest := entries[0]
		m.windows[key] = entries
		return Result{
			Success:    false,
			Limit:      limit,
			Remaining:  0,
			Reset:      time.UnixMilli(oldest).Add(window),
			RetryAfter: retryAfter(oldest, window, nowMs),
		}, nil
	}

	entries = append(entries, nowMs)
	m.windows[key] = entries
	return Result{
		Success:   true,
		Limit:     limit,
		Remaining: limit - len(entries),
		Reset:     now.Add(window),
	}, nil
}

// Len reports how many live entries a key holds at the given instant.
// Exposed for tests that assert denials do not mutate the window.
func (m *MemoryStore) Len(key string, window time.Duration, now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	windowStart := now.UnixMilli() - window.Milliseconds()
	n := 0
	for _, ts := range m.windows[key] {
		if ts >= windowStart {
			n++
		}
	}
	return n
}

var _ Store = (*MemoryStore)(nil)
