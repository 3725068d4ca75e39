// Package server exposes the chat pipeline over HTTP+JSON: the chat turn
// endpoint, session management, catalog reads, and direct reservations.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/ublc/libchat/chat"
	"github.com/ublc/libchat/core"
	"github.com/ublc/libchat/logging"
)

// Options configures the HTTP server. Extend via functional options to
// preserve stability.
type Options struct {
	Logger logging.Logger

	// Notifier delivers confirmation emails for direct reservations made
	// through POST /api/reserve.
	Notifier core.Notifier

	// RateLimit is the number of chat requests per minute per client; 0
	// disables limiting.
	RateLimit int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the HTTP transport over the chat orchestrator.
type Server struct {
	orchestrator *chat.Orchestrator
	opts         Options
	limiter      *core.RequestLimiter
	httpServer   *http.Server
}

// New creates an HTTP server listening on addr.
func New(addr string, orchestrator *chat.Orchestrator, optFns ...func(o *Options)) *Server {
	opts := Options{
		Logger:       logging.NoOpLogger{},
		RateLimit:    30,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	s := &Server{
		orchestrator: orchestrator,
		opts:         opts,
		limiter:      core.NewRequestLimiter(opts.RateLimit, time.Minute),
	}
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
	return s
}

// Handler builds the route table. Exposed for httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", s.rateLimited(s.handleChat))
	mux.HandleFunc("POST /api/chat/clear", s.handleClear)
	mux.HandleFunc("GET /api/chat/sessions/{id}", s.handleSessionInfo)
	mux.HandleFunc("GET /api/books", s.handleBooks)
	mux.HandleFunc("GET /api/books/search", s.handleBookSearch)
	mux.HandleFunc("POST /api/reserve", s.handleReserve)
	mux.HandleFunc("GET /api/reserve/{id}", s.handleReservationLookup)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

// Start serves until Shutdown is called or the listener fails.
func (s *Server) Start() error {
	s.opts.Logger.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) rateLimited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r)
		if !s.limiter.Allow(key) {
			s.opts.Logger.Warn("rate limit exceeded", "client", key)
			writeJSON(w, http.StatusTooManyRequests, map[string]any{
				"success": false,
				"error":   "Too many requests. Please wait a minute before sending more messages.",
			})
			return
		}
		next(w, r)
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chat.TurnRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "Invalid request body",
		})
		return
	}

	resp := s.orchestrator.HandleTurn(r.Context(), req)
	if !resp.Success {
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"sessionId"`
	}
	// Clearing always succeeds, even on a malformed body or unknown id.
	_ = decodeJSON(r, &req)
	if req.SessionID != "" {
		_ = s.orchestrator.ClearSession(req.SessionID)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Session cleared",
	})
}

func (s *Server) handleSessionInfo(w http.ResponseWriter, r *http.Request) {
	info, ok := s.orchestrator.SessionInfo(r.PathValue("id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"success": false,
			"error":   "Session not found",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"session": info,
	})
}

func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request) {
	books, err := s.orchestrator.Inventory().Books(r.Context())
	if err != nil {
		s.opts.Logger.Error("catalog read failed", "error", err.Error())
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"success": false,
			"error":   "Catalog is temporarily unavailable",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"books":   books,
		"count":   len(books),
	})
}

func (s *Server) handleBookSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "Query parameter 'q' is required",
		})
		return
	}

	books, err := s.orchestrator.Inventory().Books(r.Context())
	if err != nil {
		s.opts.Logger.Error("catalog read failed", "error", err.Error())
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"success": false,
			"error":   "Catalog is temporarily unavailable",
		})
		return
	}

	matches := core.SearchBooks(books, query)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"books":   matches,
		"count":   len(matches),
	})
}

type reserveRequest struct {
	BookID    string `json:"bookId"`
	StudentID string `json:"studentId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
}

// handleReserve makes a reservation directly, bypassing the dialogue. It
// applies the same validation and inventory semantics as a confirmed
// dialogue turn.
func (s *Server) handleReserve(w http.ResponseWriter, r *http.Request) {
	var req reserveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "Invalid request body",
		})
		return
	}

	student := core.StudentInfo{StudentID: req.StudentID, Name: req.Name, Email: req.Email}
	if req.BookID == "" || !student.Complete() {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "bookId, studentId, name and email are required",
		})
		return
	}
	if !student.ValidEmail() {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "Invalid email address",
		})
		return
	}

	ctx := r.Context()
	store := s.orchestrator.Inventory()

	books, err := store.Books(ctx)
	if err != nil {
		s.opts.Logger.Error("catalog read failed", "error", err.Error())
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"success": false,
			"error":   "Catalog is temporarily unavailable",
		})
		return
	}
	book, found := core.FindBookByID(books, req.BookID)
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"success": false,
			"error":   "Book not found",
		})
		return
	}

	now := time.Now().UTC()
	reservation := core.Reservation{
		ID:        core.NewReservationID(now),
		BookID:    book.BookID,
		BookTitle: book.Title,
		Student:   student,
		Created:   now,
		Status:    core.StatusReserved,
	}

	if err := store.Reserve(ctx, book.BookID); err != nil {
		switch {
		case errors.Is(err, core.ErrBookNotFound):
			writeJSON(w, http.StatusNotFound, map[string]any{
				"success": false,
				"error":   "Book not found",
			})
		case errors.Is(err, core.ErrNoCopies):
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"success": false,
				"error":   "No copies available",
			})
		default:
			s.opts.Logger.Error("inventory decrement failed", "error", err.Error(), "book_id", book.BookID)
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"success": false,
				"error":   "Reservation could not be recorded",
			})
		}
		return
	}

	if err := store.LogReservation(ctx, reservation); err != nil {
		s.opts.Logger.Warn("reservation log append failed", "error", err.Error(), "reservation_id", reservation.ID)
	}

	emailStatus := ""
	if s.opts.Notifier != nil {
		notifyCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := s.opts.Notifier.SendConfirmation(notifyCtx, reservation, book); err != nil {
			s.opts.Logger.Warn("confirmation email failed", "error", err.Error(), "reservation_id", reservation.ID)
			emailStatus = "failed"
		} else {
			emailStatus = "sent"
		}
		cancel()
	}

	logging.LogReservation(s.opts.Logger, reservation.ID, book.BookID, student.StudentID, emailStatus)

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":     true,
		"reservation": reservation,
		"pickupBy":    reservation.PickupBy(),
		"emailStatus": emailStatus,
	})
}

func (s *Server) handleReservationLookup(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	reservations, err := s.orchestrator.Inventory().Reservations(r.Context())
	if err != nil {
		s.opts.Logger.Error("reservation log read failed", "error", err.Error())
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"success": false,
			"error":   "Reservations are temporarily unavailable",
		})
		return
	}

	for _, res := range reservations {
		if res.ID == id {
			writeJSON(w, http.StatusOK, map[string]any{
				"success":     true,
				"reservation": res,
				"pickupBy":    res.PickupBy(),
			})
			return
		}
	}

	writeJSON(w, http.StatusNotFound, map[string]any{
		"success": false,
		"error":   "Reservation not found",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func decodeJSON(r *http.Request, v any) error {
	return sonic.ConfigDefault.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	data, err := sonic.Marshal(v)
	if err != nil {
		return
	}
	_, _ = w.Write(data)
}
