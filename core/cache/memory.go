package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !e.expiresAt.After(now)
}

// Memory is an in-memory Cache implementation for tests and local
// development. Expired entries are dropped lazily on read; an optional
// janitor goroutine reclaims them periodically.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry

	janitorInterval time.Duration
	cancel          context.CancelFunc
	wg              sync.WaitGroup
}

// MemoryOption configures a Memory cache.
type MemoryOption func(*Memory)

// WithJanitorInterval sets the interval of the background cleanup goroutine.
// Without this option no goroutine is started and expired entries are only
// reclaimed on read.
func WithJanitorInterval(interval time.Duration) MemoryOption {
	return func(m *Memory) {
		if interval > 0 {
			m.janitorInterval = interval
		}
	}
}

// NewMemory creates an in-memory cache. Call Start to run the janitor when
// configured with WithJanitorInterval.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{entries: make(map[string]memoryEntry)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the value stored under key, or ErrCacheMiss.
func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if key == "" {
		return nil, ErrEmptyKey
	}

	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrCacheMiss
	}
	if entry.expired(time.Now()) {
		m.mu.Lock()
		// Re-check under the write lock: the entry may have been replaced.
		if cur, ok := m.entries[key]; ok && cur.expired(time.Now()) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, ErrCacheMiss
	}

	value := make([]byte, len(entry.value))
	copy(value, entry.value)
	return value, nil
}

// Set stores the value under key for the given TTL.
func (m *Memory) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return ErrEmptyKey
	}

	entry := memoryEntry{value: make([]byte, len(value))}
	copy(entry.value, value)
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()
	return nil
}

// Delete removes the key. Deleting an absent key is a no-op.
func (m *Memory) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return ErrEmptyKey
	}

	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Len returns the number of entries currently held, including not yet
// reclaimed expired ones.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Start runs the janitor goroutine when an interval was configured.
// Calling Start without WithJanitorInterval is a no-op.
func (m *Memory) Start(ctx context.Context) {
	if m.janitorInterval <= 0 {
		return
	}

	ctx, m.cancel = context.WithCancel(ctx)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.janitorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.reclaim(time.Now())
			}
		}
	}()
}

// Stop terminates the janitor goroutine and waits for it to exit.
func (m *Memory) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	m.wg.Wait()
	m.cancel = nil
}

func (m *Memory) reclaim(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, entry := range m.entries {
		if entry.expired(now) {
			delete(m.entries, key)
		}
	}
}
