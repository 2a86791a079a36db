package store

import (
	"context"
	"sync"
	"time"

	"aps-gateway/internal/session"
	"aps-gateway/pkg/platform/sentinel"
)

type memoryEntry struct {
	values     session.Values
	lastAccess time.Time
}

// Memory is a process-local session store with idle eviction by last access.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	idle    time.Duration
	now     func() time.Time
}

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

// WithClock overrides the wall clock used for idle accounting.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		m.now = now
	}
}

// NewMemory constructs an in-memory store that forgets sessions idle for
// longer than idle.
func NewMemory(idle time.Duration, opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[string]memoryEntry),
		idle:    idle,
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

func (m *Memory) Load(_ context.Context, id string) (session.Values, error) {
	m.mu.RLock()
	entry, ok := m.entries[id]
	m.mu.RUnlock()
	if !ok {
		return session.Values{}, sentinel.ErrNotFound
	}
	if m.expired(entry, m.now()) {
		m.mu.Lock()
		delete(m.entries, id)
		m.mu.Unlock()
		return session.Values{}, sentinel.ErrNotFound
	}
	return entry.values, nil
}

func (m *Memory) Save(_ context.Context, id string, v session.Values) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[id] = memoryEntry{values: v, lastAccess: m.now()}
	return nil
}

func (m *Memory) Touch(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	entry.lastAccess = m.now()
	m.entries[id] = entry
	return nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

func (m *Memory) Health(context.Context) error {
	return nil
}

// Len reports the number of stored sessions, including idle ones not yet swept.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// StartCleanup sweeps idle sessions every interval until ctx is cancelled.
func (m *Memory) StartCleanup(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.RemoveIdleAt(m.now())
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RemoveIdleAt drops every session whose last access is older than the idle
// window as of now, and returns how many were removed.
func (m *Memory) RemoveIdleAt(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, entry := range m.entries {
		if m.expired(entry, now) {
			delete(m.entries, id)
			removed++
		}
	}
	return removed
}

func (m *Memory) expired(e memoryEntry, now time.Time) bool {
	return now.Sub(e.lastAccess) > m.idle
}
