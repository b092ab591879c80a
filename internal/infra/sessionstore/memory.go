package sessionstore

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/kundali-web/internal/domain/session"
)

type entry struct {
	payload   session.Session
	expiresAt time.Time
}

const sweepInterval = time.Minute

// MemoryStore keeps sessions in process memory for tests/dev. Expired
// sessions are swept on writes, at most once per sweepInterval.
type MemoryStore struct {
	mu        sync.Mutex
	sessions  map[string]entry
	now       func() time.Time
	lastSweep time.Time
}

// NewMemoryStore constructs a store backed by process memory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]entry),
		now:      time.Now,
	}
}

// Get implements session.Store.
func (s *MemoryStore) Get(_ context.Context, id string) (session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(id)
}

// Save implements session.Store.
func (s *MemoryStore) Save(_ context.Context, sess session.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveLocked(sess, ttl)
	return nil
}

// Update implements session.Store. The callback runs under the store lock so
// concurrent updates to one session are serialised.
func (s *MemoryStore) Update(_ context.Context, id string, ttl time.Duration, fn func(*session.Session) error) (session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, err := s.getLocked(id)
	if err != nil {
		current = session.Session{ID: id}
	}
	if err := fn(&current); err != nil {
		return session.Session{}, err
	}
	s.saveLocked(current, ttl)
	return current.Clone(), nil
}

func (s *MemoryStore) getLocked(id string) (session.Session, error) {
	record, ok := s.sessions[id]
	if !ok {
		return session.Session{}, session.ErrNotFound
	}
	if !record.expiresAt.IsZero() && record.expiresAt.Before(s.now()) {
		delete(s.sessions, id)
		return session.Session{}, session.ErrNotFound
	}
	return record.payload.Clone(), nil
}

func (s *MemoryStore) saveLocked(sess session.Session, ttl time.Duration) {
	now := s.now()
	s.sweepLocked(now)
	exp := time.Time{}
	if ttl > 0 {
		exp = now.Add(ttl)
	}
	s.sessions[sess.ID] = entry{payload: sess.Clone(), expiresAt: exp}
}

func (s *MemoryStore) sweepLocked(now time.Time) {
	if now.Sub(s.lastSweep) < sweepInterval {
		return
	}
	s.lastSweep = now
	for id, record := range s.sessions {
		if !record.expiresAt.IsZero() && record.expiresAt.Before(now) {
			delete(s.sessions, id)
		}
	}
}

var _ session.Store = (*MemoryStore)(nil)
