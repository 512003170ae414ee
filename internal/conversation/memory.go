package conversation

import (
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store guarded by a single mutex.
// Per-session locking isn't worth it at this scale: every operation is
// a map lookup plus a bounded slice copy.
type MemoryStore struct {
	mu       sync.Mutex
	limits   Limits
	sessions map[string]*session
	now      func() time.Time
}

// NewMemoryStore creates an empty store with the given limits.
// Zero or negative limit fields fall back to the defaults.
func NewMemoryStore(limits Limits) *MemoryStore {
	def := DefaultLimits()
	if limits.MaxSessions <= 0 {
		limits.MaxSessions = def.MaxSessions
	}
	if limits.MaxMessagesPerSession <= 0 {
		limits.MaxMessagesPerSession = def.MaxMessagesPerSession
	}
	if limits.EvictBatch <= 0 {
		limits.EvictBatch = def.EvictBatch
	}
	if limits.TrimSlack <= 0 {
		limits.TrimSlack = def.TrimSlack
	}
	return &MemoryStore{
		limits:   limits,
		sessions: make(map[string]*session),
		now:      time.Now,
	}
}

// GetOrCreate ensures a session exists, seeding a new one with the
// given messages.
func (s *MemoryStore) GetOrCreate(key string, seed []Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[key]; ok {
		sess.updatedAt = s.now()
		return false
	}
	s.create(key, seed)
	return true
}

// Reset replaces any existing session with a freshly seeded one.
func (s *MemoryStore) Reset(key string, seed []Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.create(key, seed)
}

// create installs a new session. Caller must hold the mutex.
func (s *MemoryStore) create(key string, seed []Message) {
	now := s.now()
	msgs := make([]Message, len(seed))
	copy(msgs, seed)
	s.sessions[key] = &session{
		messages:  msgs,
		createdAt: now,
		updatedAt: now,
	}
}

// Append adds a message to an existing session.
func (s *MemoryStore) Append(key string, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[key]
	if !ok {
		return ErrSessionNotFound
	}
	sess.messages = append(sess.messages, msg)
	sess.updatedAt = s.now()
	return nil
}

// Trim enforces the per-session cap: when a transcript exceeds
// MaxMessagesPerSession it is replaced with the system prompt plus the
// most recent (cap - TrimSlack) messages.
func (s *MemoryStore) Trim(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[key]
	if !ok {
		return
	}
	limit := s.limits.MaxMessagesPerSession
	if len(sess.messages) <= limit {
		return
	}
	keep := limit - s.limits.TrimSlack
	trimmed := make([]Message, 0, keep+1)
	trimmed = append(trimmed, sess.messages[0])
	trimmed = append(trimmed, sess.messages[len(sess.messages)-keep:]...)
	sess.messages = trimmed
}

// EvictIfOverCapacity removes the EvictBatch least-recently-touched
// sessions once the store holds more than MaxSessions.
func (s *MemoryStore) EvictIfOverCapacity() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.sessions) <= s.limits.MaxSessions {
		return 0
	}

	type aged struct {
		key     string
		touched time.Time
	}
	order := make([]aged, 0, len(s.sessions))
	for key, sess := range s.sessions {
		order = append(order, aged{key, sess.updatedAt})
	}
	sort.Slice(order, func(i, j int) bool {
		return order[i].touched.Before(order[j].touched)
	})

	n := s.limits.EvictBatch
	if n > len(order) {
		n = len(order)
	}
	for _, a := range order[:n] {
		delete(s.sessions, a.key)
	}
	return n
}

// Clear removes a session; absent keys are a no-op.
func (s *MemoryStore) Clear(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
}

// Messages returns a copy of the full transcript, system prompt included.
func (s *MemoryStore) Messages(key string) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[key]
	if !ok {
		return nil, ErrSessionNotFound
	}
	msgs := make([]Message, len(sess.messages))
	copy(msgs, sess.messages)
	return msgs, nil
}

// History returns the transcript minus system-role messages.
func (s *MemoryStore) History(key string) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[key]
	if !ok {
		return nil, ErrSessionNotFound
	}
	history := make([]Message, 0, len(sess.messages))
	for _, msg := range sess.messages {
		if msg.Role == RoleSystem {
			continue
		}
		history = append(history, msg)
	}
	return history, nil
}

// Count returns the number of live sessions.
func (s *MemoryStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Keys returns up to limit session keys, most recently touched first.
func (s *MemoryStore) Keys(limit int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	type aged struct {
		key     string
		touched time.Time
	}
	order := make([]aged, 0, len(s.sessions))
	for key, sess := range s.sessions {
		order = append(order, aged{key, sess.updatedAt})
	}
	sort.Slice(order, func(i, j int) bool {
		return order[i].touched.After(order[j].touched)
	})

	if limit <= 0 || limit > len(order) {
		limit = len(order)
	}
	keys := make([]string, limit)
	for i := 0; i < limit; i++ {
		keys[i] = order[i].key
	}
	return keys
}
