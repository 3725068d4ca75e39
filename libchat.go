// Package libchat provides a high-level façade over the chat pipeline
// (sessions, inventory, completion provider, reservation dialogue &
// notifications) enabling rapid construction of the library chatbot. Most
// applications interact with this package by:
//  1. Creating a LibChat via New() (optionally overriding default in-memory services)
//  2. Driving conversations with Chat(), one call per user turn
//  3. Inspecting or clearing sessions via SessionInfo() / ClearSession()
//
// The façade delegates turn handling to chat.Orchestrator while keeping
// setup and usage ergonomics concise. All defaults are safe for local
// development and testing; production deployments typically supply a real
// completion provider, a durable inventory store and a structured logger.
package libchat

import (
	"context"
	"time"

	"github.com/ublc/libchat/chat"
	"github.com/ublc/libchat/completion"
	"github.com/ublc/libchat/core"
	"github.com/ublc/libchat/dialogue"
	"github.com/ublc/libchat/inventory"
	"github.com/ublc/libchat/logging"
	"github.com/ublc/libchat/notify"
	"github.com/ublc/libchat/session"
)

// Options configures the LibChat instance.
type Options struct {
	// Stores (default to in-memory implementations if not provided)
	SessionStore core.SessionStore
	Inventory    core.InventoryStore

	// Provider answers non-reservation turns (defaults to the mock provider)
	Provider completion.Provider

	// Notifier delivers reservation confirmations (defaults to log-only)
	Notifier core.Notifier

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger

	// Persona is the system text embedded in completion prompts
	Persona string

	// ProviderTimeout bounds each completion call
	ProviderTimeout time.Duration
}

// LibChat is the high-level façade aggregating the turn pipeline and its
// services.
type LibChat struct {
	opts         Options
	orchestrator *chat.Orchestrator
}

// New creates a new LibChat instance with optional overrides. Any unset
// service is initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *LibChat {
	opts := Options{
		SessionStore:    session.NewInMemoryStore(),
		Inventory:       inventory.NewFixedStore(),
		Provider:        completion.NewMockProvider(),
		Logger:          logging.NoOpLogger{},
		Persona:         chat.DefaultPersona,
		ProviderTimeout: 10 * time.Second,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.NewLogSender(opts.Logger)
	}

	engine := dialogue.NewEngine(opts.Inventory, func(o *dialogue.Options) {
		o.Notifier = opts.Notifier
		o.Logger = logging.WithComponent(opts.Logger, "dialogue")
	})

	orchestrator := chat.NewOrchestrator(opts.SessionStore, opts.Inventory, engine, opts.Provider,
		func(o *chat.Options) {
			o.Logger = logging.WithComponent(opts.Logger, "chat")
			o.Persona = opts.Persona
			o.ProviderTimeout = opts.ProviderTimeout
		})

	return &LibChat{opts: opts, orchestrator: orchestrator}
}

// Chat processes one user turn and returns the structured response.
func (l *LibChat) Chat(ctx context.Context, req chat.TurnRequest) *chat.TurnResponse {
	return l.orchestrator.HandleTurn(ctx, req)
}

// ClearSession removes a session; clearing an unknown id succeeds.
func (l *LibChat) ClearSession(sessionID string) error {
	return l.orchestrator.ClearSession(sessionID)
}

// SessionInfo returns the introspection view of a session.
func (l *LibChat) SessionInfo(sessionID string) (*chat.SessionInfo, bool) {
	return l.orchestrator.SessionInfo(sessionID)
}

// Orchestrator exposes the underlying turn pipeline for transports.
func (l *LibChat) Orchestrator() *chat.Orchestrator { return l.orchestrator }
