package conversation

// Store is the conversation-state lifecycle owned by the chat handlers.
// Implementations must be safe for concurrent use; every operation is
// atomic, but a full chat turn spanning several operations is not a
// transaction.
type Store interface {
	// GetOrCreate ensures a session exists, seeding a new one with the
	// given messages. Reports whether the session was created.
	GetOrCreate(key string, seed []Message) bool

	// Reset replaces any existing session with a fresh one seeded with
	// the given messages.
	Reset(key string, seed []Message)

	// Append adds a message to an existing session.
	// Returns ErrSessionNotFound if the session doesn't exist.
	Append(key string, msg Message) error

	// Trim enforces the per-session message cap, always preserving the
	// first (system) message and the most recent entries.
	Trim(key string)

	// EvictIfOverCapacity removes a batch of least-recently-touched
	// sessions when the store exceeds its session cap. Safe to call on
	// every request; returns the number of sessions evicted.
	EvictIfOverCapacity() int

	// Clear removes a session. Clearing an absent session is a no-op.
	Clear(key string)

	// Messages returns a copy of the full transcript, system prompt
	// included. Returns ErrSessionNotFound if the session doesn't exist.
	Messages(key string) ([]Message, error)

	// History returns a copy of the transcript with system-role messages
	// excluded. Returns ErrSessionNotFound if the session doesn't exist.
	History(key string) ([]Message, error)

	// Count returns the number of live sessions.
	Count() int

	// Keys returns up to limit session keys, most recently touched
	// first. A limit <= 0 returns all keys.
	Keys(limit int) []string
}
