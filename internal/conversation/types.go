// Package conversation provides bounded in-memory storage for chat
// transcripts. Each session holds an ordered message list whose first
// element is the system prompt; the store enforces per-session and
// store-wide capacity limits.
package conversation

import (
	"errors"
	"time"
)

// Message roles as expected by the completion API.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single transcript entry.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ErrSessionNotFound is returned when a session key doesn't exist.
var ErrSessionNotFound = errors.New("session not found")

// Limits configures store capacity thresholds.
type Limits struct {
	// MaxSessions is the total session cap; exceeding it triggers
	// batch eviction on the next EvictIfOverCapacity call.
	MaxSessions int
	// MaxMessagesPerSession is the per-transcript cap enforced by Trim.
	MaxMessagesPerSession int
	// EvictBatch is how many sessions one eviction pass removes.
	EvictBatch int
	// TrimSlack is how far below the cap Trim cuts, so transcripts
	// aren't re-trimmed on every single append.
	TrimSlack int
}

// DefaultLimits returns the production capacity thresholds.
func DefaultLimits() Limits {
	return Limits{
		MaxSessions:           100,
		MaxMessagesPerSession: 50,
		EvictBatch:            10,
		TrimSlack:             10,
	}
}

// session is a single conversation thread. Access is serialized by the
// owning store's mutex.
type session struct {
	messages  []Message
	createdAt time.Time
	updatedAt time.Time
}
