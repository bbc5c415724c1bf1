package parameter

import (
	"context"
	"sync"
	"time"
)

type memorySession struct {
	params  []StoredParameter
	touched time.Time
}

// MemoryStore is the default in-process store. Reads and writes both count
// as activity. A session idle for longer than ttl is invisible to reads and
// dropped by Purge; a zero ttl keeps sessions forever.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*memorySession
	ttl      time.Duration
	now      func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*memorySession),
		ttl:      ttl,
		now:      time.Now,
	}
}

// active returns owner's session if it has not expired, refreshing its idle
// timer. Expired sessions are dropped. Callers hold s.mu.
func (s *MemoryStore) active(owner string) (*memorySession, bool) {
	sess, ok := s.sessions[owner]
	if !ok {
		return nil, false
	}
	now := s.now()
	if s.expired(sess, now) {
		delete(s.sessions, owner)
		return nil, false
	}
	sess.touched = now
	return sess, true
}

func (s *MemoryStore) expired(sess *memorySession, now time.Time) bool {
	return s.ttl > 0 && now.Sub(sess.touched) > s.ttl
}

func (s *MemoryStore) Set(_ context.Context, owner string, p StoredParameter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.active(owner)
	if !ok {
		sess = &memorySession{touched: s.now()}
		s.sessions[owner] = sess
	}
	sess.params = removeByID(sess.params, p.ID)
	sess.params = append(sess.params, p)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, owner, id string) (*StoredParameter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.active(owner)
	if !ok {
		return nil, ErrNotFound
	}
	for _, p := range sess.params {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) Remove(_ context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.active(owner); ok {
		sess.params = removeByID(sess.params, id)
	}
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, owner)
	return nil
}

func (s *MemoryStore) List(_ context.Context, owner string) ([]StoredParameter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.active(owner)
	if !ok {
		return []StoredParameter{}, nil
	}
	out := make([]StoredParameter, len(sess.params))
	copy(out, sess.params)
	return out, nil
}

// Purge drops sessions not touched within ttl and returns how many were
// removed.
func (s *MemoryStore) Purge(_ context.Context, now time.Time) (int, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for owner, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, owner)
			n++
		}
	}
	return n, nil
}

func removeByID(params []StoredParameter, id string) []StoredParameter {
	out := params[:0]
	for _, p := range params {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}
