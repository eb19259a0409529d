package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/shopbot/core/logger"
)

// Store keeps one State per user. Get on an unknown or expired user returns the idle state.
type Store interface {
	Get(userID int64) State
	Set(userID int64, st State)
	Clear(userID int64)
}

type entry struct {
	state   State
	expires time.Time
}

// MemoryStore is an in-process Store whose entries expire after a TTL.
// Expired entries are dropped lazily on access and by Sweep.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[int64]entry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore returns a store with the given TTL; ttl <= 0 disables expiry.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[int64]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the user's state or the idle state.
func (m *MemoryStore) Get(userID int64) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[userID]
	if !ok {
		return IdleState()
	}
	if m.expired(e, m.now()) {
		delete(m.entries, userID)
		return IdleState()
	}
	return e.state
}

// Set stores st and restarts the TTL. Setting the idle state clears the entry.
func (m *MemoryStore) Set(userID int64, st State) {
	if !st.Pending() {
		m.Clear(userID)
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e := entry{state: st}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	m.entries[userID] = e
}

// Clear removes the user's entry.
func (m *MemoryStore) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, userID)
}

// Len returns the number of stored entries, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Sweep drops expired entries and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	n := 0
	for id, e := range m.entries {
		if m.expired(e, now) {
			delete(m.entries, id)
			n++
		}
	}
	return n
}

// RunJanitor sweeps every interval until ctx is done.
func (m *MemoryStore) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := m.Sweep(); n > 0 {
				logger.Debug(ctx, logger.CompSession, "session.sweep", slog.Int("count", n))
			}
		}
	}
}

func (m *MemoryStore) expired(e entry, now time.Time) bool {
	return !e.expires.IsZero() && now.After(e.expires)
}
