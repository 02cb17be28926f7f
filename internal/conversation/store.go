package conversation

import (
	"context"
	"sync"
	"time"
)

// StateStore persists per-session narrowing state. A nil state from Get
// with a nil error means the session is idle. Session TTL eviction is the
// store's responsibility; everything else about session identity is owned
// by the caller.
type StateStore interface {
	Get(ctx context.Context, sessionKey string) (*State, error)
	Put(ctx context.Context, sessionKey string, state *State) error
	Delete(ctx context.Context, sessionKey string) error
}

// MemoryStateStore is the in-process StateStore used when no Redis is
// configured. Entries expire lazily on read.
type MemoryStateStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	state   State
	expires time.Time
}

// NewMemoryStateStore creates a memory store with the given session TTL.
func NewMemoryStateStore(ttl time.Duration) *MemoryStateStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &MemoryStateStore{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStateStore) Get(_ context.Context, sessionKey string) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[sessionKey]
	if !ok {
		return nil, nil
	}
	if s.now().After(entry.expires) {
		delete(s.entries, sessionKey)
		return nil, nil
	}
	state := entry.state
	return &state, nil
}

func (s *MemoryStateStore) Put(_ context.Context, sessionKey string, state *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[sessionKey] = memoryEntry{state: *state, expires: s.now().Add(s.ttl)}

	// Sweep expired sessions while we hold the lock.
	if len(s.entries) > 1024 {
		now := s.now()
		for k, e := range s.entries {
			if now.After(e.expires) {
				delete(s.entries, k)
			}
		}
	}
	return nil
}

func (s *MemoryStateStore) Delete(_ context.Context, sessionKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionKey)
	return nil
}
