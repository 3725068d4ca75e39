package core

import (
	"time"
)

// Flow names the multi-turn process a session is currently inside.
type Flow string

// Step names the current state within a flow's state machine.
type Step string

const (
	// FlowNone means the session is idle; turns go to the chat responder.
	FlowNone Flow = "none"
	// FlowReservation means the reservation dialogue owns every turn.
	FlowReservation Flow = "reservation"

	// StepNone is the step of an idle session.
	StepNone Step = "none"
	// StepCollectingInfo: a title is resolved, student identity is pending.
	StepCollectingInfo Step = "collecting_info"
	// StepAwaitingConfirmation: title and complete identity are collected,
	// waiting for an explicit yes/no.
	StepAwaitingConfirmation Step = "awaiting_confirmation"
)

// Turn is one message in a session's append-only conversation history.
type Turn struct {
	Role string    `json:"role"` // "user" or "assistant"
	Text string    `json:"text"`
	Time time.Time `json:"time"`
}

// Slots holds the structured data a flow accumulates across turns.
//
// Invariants maintained by the dialogue engine:
//   - Step == StepCollectingInfo implies BookTitle != "" and Student == nil
//   - Step == StepAwaitingConfirmation implies BookTitle != "" and Student
//     is non-nil and complete
type Slots struct {
	BookTitle string       `json:"bookTitle,omitempty"`
	Student   *StudentInfo `json:"student,omitempty"`
}

// Session is per-conversation state. Lifecycle: created lazily on first
// reference to an unknown identifier, mutated once per turn, deleted on a
// terminal reservation outcome or an explicit clear. Sessions are volatile;
// they do not survive a process restart.
//
// Sessions are not internally synchronized: the SessionStore serializes all
// mutation of a given session (see SessionStore.Update).
type Session struct {
	ID      string    `json:"id"`
	Flow    Flow      `json:"flow"`
	Step    Step      `json:"step"`
	Slots   Slots     `json:"slots"`
	Turns   []Turn    `json:"turns"`
	Created time.Time `json:"created"`
}

// NewSession creates an idle session with an empty history.
func NewSession(id string) *Session {
	return &Session{
		ID:      id,
		Flow:    FlowNone,
		Step:    StepNone,
		Created: time.Now().UTC(),
	}
}

// AddTurn appends a message to the conversation history.
func (s *Session) AddTurn(role, text string) {
	s.Turns = append(s.Turns, Turn{Role: role, Text: text, Time: time.Now().UTC()})
}

// RecentTurns returns up to the last n turns, oldest first.
func (s *Session) RecentTurns(n int) []Turn {
	if n <= 0 || len(s.Turns) == 0 {
		return nil
	}
	if len(s.Turns) <= n {
		return append([]Turn(nil), s.Turns...)
	}
	return append([]Turn(nil), s.Turns[len(s.Turns)-n:]...)
}

// Reset returns the session to the idle state, dropping flow, step and
// slots but keeping the conversation history. The store deletes the session
// after a terminal outcome; Reset closes the window between the engine
// finishing a turn and the deletion landing, so a racing turn observes a
// fresh idle session either way.
func (s *Session) Reset() {
	s.Flow = FlowNone
	s.Step = StepNone
	s.Slots = Slots{}
}

// Clone returns a deep copy safe for reads outside the store's lock.
func (s *Session) Clone() *Session {
	clone := *s
	clone.Turns = append([]Turn(nil), s.Turns...)
	if s.Slots.Student != nil {
		student := *s.Slots.Student
		clone.Slots.Student = &student
	}
	return &clone
}

// SessionStore holds per-conversation state keyed by an opaque identifier.
//
// Implementations must serialize mutation of a single session: Update calls
// for the same id never run concurrently, while updates for different ids
// proceed independently. This is the only locking the dialogue engine relies
// on to prevent two concurrent confirmations of one session.
type SessionStore interface {
	// GetOrCreate returns a snapshot of the session, creating an idle one
	// if the id is unknown.
	GetOrCreate(id string) (*Session, error)

	// Peek returns a snapshot without creating, for introspection.
	Peek(id string) (*Session, bool)

	// Update runs fn against the live session (created if absent) while
	// holding that session's lock. fn must not retain the *Session.
	Update(id string, fn func(*Session) error) error

	// Delete removes the session. Deleting an unknown id is a no-op.
	Delete(id string) error
}
