// Package memory provides the conversation log: sessions and their
// messages, persisted in SQLite.
package memory

import (
	"errors"
	"time"
)

// ErrNoSession is returned by operations that need a loaded session
// before LoadSession has been called.
var ErrNoSession = errors.New("no session loaded")

// StoredMessage is one logged conversation turn. Metadata carries
// optional structured annotations (tool traces, client hints) and is
// nil for plain turns.
type StoredMessage struct {
	ID        string         `json:"id"`
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// SessionStats summarizes the active session.
type SessionStats struct {
	SessionID    string    `json:"session_id"`
	MessageCount int       `json:"message_count"`
	StartTime    time.Time `json:"start_time"`
	LastActive   time.Time `json:"last_active"`
}

// SessionInfo describes one session in a recent-sessions listing.
type SessionInfo struct {
	SessionID    string    `json:"session_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActive   time.Time `json:"last_active"`
	MessageCount int       `json:"message_count"`
}
