// Package chat is the turn pipeline: it validates the request, routes the
// message between the reservation dialogue and the completion provider,
// and shapes the structured response the transport returns. Provider
// failures degrade to rule-based fallback replies; panics anywhere in the
// pipeline become a generic recovery reply rather than an error surface.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ublc/libchat/completion"
	"github.com/ublc/libchat/core"
	"github.com/ublc/libchat/dialogue"
	"github.com/ublc/libchat/logging"
)

// Provenance values for TurnResponse.Source.
const (
	SourceDialogue = "dialogue"
	SourceAI       = "ai"
	SourceFallback = "fallback"
	SourceRecovery = "error-recovery"
)

// TurnRequest is one inbound chat turn.
type TurnRequest struct {
	Message   string            `json:"message"`
	Student   *core.StudentInfo `json:"student,omitempty"`
	SessionID string            `json:"sessionId,omitempty"`
}

// TurnResponse is the structured result of a turn. SessionID is nil exactly
// when the session was just cleared; callers must start fresh next time.
type TurnResponse struct {
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	Response string `json:"response,omitempty"`

	SessionID *string `json:"sessionId"`

	RequiresStudentInfo  bool              `json:"requiresStudentInfo,omitempty"`
	RequiresConfirmation bool              `json:"requiresConfirmation,omitempty"`
	ReservationIntent    bool              `json:"reservationIntent,omitempty"`
	ReservationComplete  bool              `json:"reservationComplete,omitempty"`
	ReservationID        string            `json:"reservationId,omitempty"`
	Book                 *core.Book        `json:"book,omitempty"`
	Student              *core.StudentInfo `json:"student,omitempty"`

	Source      string    `json:"source,omitempty"`
	Note        string    `json:"note,omitempty"`
	EmailStatus string    `json:"emailStatus,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// SessionInfo is the introspection view of a live session.
type SessionInfo struct {
	SessionID     string     `json:"sessionId"`
	Flow          core.Flow  `json:"flow"`
	Step          core.Step  `json:"step"`
	Slots         core.Slots `json:"slots"`
	HistoryLength int        `json:"historyLength"`
	Created       time.Time  `json:"created"`
}

// Options configures the orchestrator. Extend via functional options to
// preserve stability.
type Options struct {
	Logger          logging.Logger
	Fallback        *Responder
	Persona         string
	ProviderTimeout time.Duration
}

// Orchestrator routes chat turns. Reservation-owned turns go to the
// dialogue engine; everything else goes to the completion provider with the
// rule-based responder as fallback.
type Orchestrator struct {
	sessions  core.SessionStore
	inventory core.InventoryStore
	engine    *dialogue.Engine
	provider  completion.Provider
	opts      Options
}

// NewOrchestrator wires the turn pipeline.
func NewOrchestrator(
	sessions core.SessionStore,
	inventory core.InventoryStore,
	engine *dialogue.Engine,
	provider completion.Provider,
	optFns ...func(o *Options),
) *Orchestrator {
	opts := Options{
		Logger:          logging.NoOpLogger{},
		Fallback:        NewResponder(),
		Persona:         DefaultPersona,
		ProviderTimeout: 10 * time.Second,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Fallback == nil {
		opts.Fallback = NewResponder()
	}

	return &Orchestrator{
		sessions:  sessions,
		inventory: inventory,
		engine:    engine,
		provider:  provider,
		opts:      opts,
	}
}

// HandleTurn processes one chat turn to completion. Validation failure is
// the only caller-visible hard error; everything else degrades to a
// normal-shaped success response carrying provenance metadata.
func (o *Orchestrator) HandleTurn(ctx context.Context, req TurnRequest) (resp *TurnResponse) {
	defer func() {
		if r := recover(); r != nil {
			o.opts.Logger.Error("turn pipeline panic", "panic", fmt.Sprint(r))
			resp = &TurnResponse{
				Success: true,
				Response: "Sorry, something went sideways on my end. " +
					"Let's start over: how can I help you?",
				SessionID: nil,
				Source:    SourceRecovery,
				Timestamp: time.Now().UTC(),
			}
		}
	}()

	if strings.TrimSpace(req.Message) == "" {
		return &TurnResponse{Success: false, Error: "Message is required"}
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = core.NewID()
	}

	books, err := o.inventory.Books(ctx)
	if err != nil {
		// The failover store normally absorbs this; a nil catalog still
		// yields a working (if less informed) turn.
		o.opts.Logger.Warn("catalog snapshot failed", "error", err.Error())
	}

	var result *dialogue.Result
	var reply, source, note string

	err = o.sessions.Update(sessionID, func(sess *core.Session) error {
		sess.AddTurn("user", req.Message)

		result = o.engine.Advance(ctx, sess, req.Message, req.Student, books)
		if result.Handled {
			reply = result.Reply
			source = SourceDialogue
		} else {
			prompt := BuildPrompt(o.opts.Persona, books, sess.RecentTurns(3), req.Message)
			reply, source, note = o.complete(ctx, prompt, req.Message, books)
		}

		sess.AddTurn("assistant", reply)
		return nil
	})
	if err != nil {
		o.opts.Logger.Error("session update failed", "error", err.Error(), "session_id", sessionID)
		return &TurnResponse{
			Success: true,
			Response: "Sorry, I couldn't keep track of our conversation just now. " +
				"Please try again.",
			SessionID: nil,
			Source:    SourceRecovery,
			Timestamp: time.Now().UTC(),
		}
	}

	respSessionID := &sessionID
	if result.ClearSession {
		if err := o.sessions.Delete(sessionID); err != nil {
			o.opts.Logger.Warn("session delete failed", "error", err.Error(), "session_id", sessionID)
		}
		respSessionID = nil
	}

	resp = &TurnResponse{
		Success:              true,
		Response:             reply,
		SessionID:            respSessionID,
		RequiresStudentInfo:  result.RequiresStudentInfo,
		RequiresConfirmation: result.RequiresConfirmation,
		ReservationIntent:    result.ReservationIntent,
		ReservationComplete:  result.ReservationComplete,
		Book:                 result.Book,
		Student:              result.Student,
		Source:               source,
		Note:                 note,
		EmailStatus:          result.EmailStatus,
		Timestamp:            time.Now().UTC(),
	}
	if result.Reservation != nil {
		resp.ReservationID = result.Reservation.ID
	}
	return resp
}

// complete calls the provider under a bounded timeout and falls back to the
// rule-based responder on any failure. The provider's raw error is logged
// server-side only; it never reaches the end user.
func (o *Orchestrator) complete(ctx context.Context, prompt, message string, books []core.Book) (reply, source, note string) {
	cctx, cancel := context.WithTimeout(ctx, o.opts.ProviderTimeout)
	defer cancel()

	start := time.Now()
	text, err := o.provider.Complete(cctx, prompt)
	info := o.provider.Info()
	logging.LogProviderCall(o.opts.Logger, info.Provider, info.Name, time.Since(start), err)

	if err != nil || strings.TrimSpace(text) == "" {
		return o.opts.Fallback.Reply(message, books), SourceFallback, "ai-unavailable"
	}
	return strings.TrimSpace(text), SourceAI, ""
}

// ClearSession removes a session. Clearing an unknown id succeeds; the
// caller always gets an acknowledgement.
func (o *Orchestrator) ClearSession(sessionID string) error {
	return o.sessions.Delete(sessionID)
}

// SessionInfo returns the introspection view of a session without creating
// one.
func (o *Orchestrator) SessionInfo(sessionID string) (*SessionInfo, bool) {
	sess, ok := o.sessions.Peek(sessionID)
	if !ok {
		return nil, false
	}
	return &SessionInfo{
		SessionID:     sess.ID,
		Flow:          sess.Flow,
		Step:          sess.Step,
		Slots:         sess.Slots,
		HistoryLength: len(sess.Turns),
		Created:       sess.Created,
	}, true
}

// Inventory exposes the backing store for transport-level catalog and
// reservation endpoints.
func (o *Orchestrator) Inventory() core.InventoryStore { return o.inventory }
