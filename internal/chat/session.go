package chat

import (
	"time"

	"github.com/KaramelBytes/pubsift-cli/internal/table"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of the chat log. Exactly one of Text or Table is set.
type Turn struct {
	Role  Role
	Text  string
	Table *table.Table
	At    time.Time
}

// IsTable reports whether the turn carries a result table.
func (t Turn) IsTable() bool { return t.Table != nil }

// Session is an append-only log of turns, emptied only by Clear. It is not
// safe for concurrent use; the owner serializes access.
type Session struct {
	turns []Turn
	now   func() time.Time
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{now: time.Now}
}

// AddUser appends a user text turn.
func (s *Session) AddUser(text string) {
	s.turns = append(s.turns, Turn{Role: RoleUser, Text: text, At: s.now()})
}

// AddReply appends the assistant's text turn and, when present, its table as
// a separate turn directly after it.
func (s *Session) AddReply(r Reply) {
	at := s.now()
	s.turns = append(s.turns, Turn{Role: RoleAssistant, Text: r.Text, At: at})
	if r.Table != nil {
		s.turns = append(s.turns, Turn{Role: RoleAssistant, Table: r.Table, At: at})
	}
}

// Turns returns a copy of the log in order.
func (s *Session) Turns() []Turn {
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len reports the number of turns.
func (s *Session) Len() int { return len(s.turns) }

// Clear empties the log.
func (s *Session) Clear() { s.turns = nil }
