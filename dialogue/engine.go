// Package dialogue implements the reservation state machine. Each call to
// Advance moves a session forward by exactly one turn: opening a flow on
// detected intent, collecting student identity, or settling a pending
// confirmation against a fresh inventory snapshot.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ublc/libchat/core"
	"github.com/ublc/libchat/intent"
	"github.com/ublc/libchat/logging"
)

// Outcome names the terminal result of a settled confirmation.
type Outcome string

const (
	// OutcomeNone means the turn did not end the flow.
	OutcomeNone Outcome = ""
	// OutcomeConfirmed means the reservation landed.
	OutcomeConfirmed Outcome = "confirmed"
	// OutcomeNotFound means the title vanished from the catalog before
	// confirmation.
	OutcomeNotFound Outcome = "not_found"
	// OutcomeUnavailable means no copies were left at confirmation time.
	OutcomeUnavailable Outcome = "unavailable"
)

// Email status values reported after a confirmed reservation.
const (
	EmailSent   = "sent"
	EmailFailed = "failed"
)

// Result is the structured output of a single dialogue turn. The
// orchestrator copies the flags into the transport response and deletes
// the session when ClearSession is set.
type Result struct {
	// Handled is false when the turn is not reservation-related and should
	// go to the general chat responder instead.
	Handled bool

	Reply                string
	RequiresStudentInfo  bool
	RequiresConfirmation bool
	ReservationIntent    bool
	ReservationComplete  bool

	Reservation *core.Reservation
	Book        *core.Book
	Student     *core.StudentInfo

	// EmailStatus is "sent" or "failed" after a confirmed reservation,
	// empty otherwise.
	EmailStatus string

	Outcome      Outcome
	ClearSession bool
}

// Options configures the dialogue engine. Extend via functional options to
// preserve stability.
type Options struct {
	Classifier    intent.Classifier
	Resolver      intent.Resolver
	Notifier      core.Notifier
	Logger        logging.Logger
	NotifyTimeout time.Duration
}

// Engine advances reservation sessions. It is stateless between calls; all
// per-conversation state lives in the session the caller passes in, under
// the session store's lock.
type Engine struct {
	inventory core.InventoryStore
	opts      Options
	now       func() time.Time
}

// NewEngine creates a dialogue engine over the given inventory store.
func NewEngine(inventory core.InventoryStore, optFns ...func(o *Options)) *Engine {
	opts := Options{
		Classifier:    intent.NewKeywordClassifier(),
		Resolver:      intent.NewCatalogResolver(),
		Logger:        logging.NoOpLogger{},
		NotifyTimeout: 10 * time.Second,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Engine{
		inventory: inventory,
		opts:      opts,
		now:       time.Now,
	}
}

// Advance processes one turn. sess is mutated in place and must be held
// under the session store's lock by the caller. student is the optional
// structured identity supplied alongside the message; books is the catalog
// snapshot fetched at the start of the turn (the confirmation path fetches
// its own fresh snapshot before mutating inventory).
func (e *Engine) Advance(ctx context.Context, sess *core.Session, message string, student *core.StudentInfo, books []core.Book) *Result {
	if sess.Flow == core.FlowReservation {
		switch sess.Step {
		case core.StepCollectingInfo:
			return e.collectInfo(sess, message, student)
		case core.StepAwaitingConfirmation:
			return e.settleConfirmation(ctx, sess, message)
		}
	}
	return e.open(sess, message, books)
}

// open checks a non-reservation turn for fresh intent. A resolved,
// available title moves the session to collecting_info; an unresolved one
// asks the user to name a book without recording any state, so the user
// retries from scratch.
func (e *Engine) open(sess *core.Session, message string, books []core.Book) *Result {
	if !e.opts.Classifier.HasReservationIntent(message) {
		return &Result{Handled: false}
	}

	title, ok := e.opts.Resolver.ResolveTitle(message, books)
	if !ok {
		return &Result{
			Handled:           true,
			ReservationIntent: true,
			Reply: "I'd be happy to help you reserve a book! Which book would you like? " +
				"Please tell me the exact title.",
		}
	}

	book, found := core.FindBookByTitle(books, title)
	if !found {
		return &Result{
			Handled:           true,
			ReservationIntent: true,
			Reply: fmt.Sprintf("Sorry, %q is not in our catalog right now. "+
				"Which other book would you like to reserve?", title),
		}
	}
	if book.CopiesAvailable < 1 {
		return &Result{
			Handled:           true,
			ReservationIntent: true,
			Book:              &book,
			Reply: fmt.Sprintf("Sorry, all copies of %q are currently reserved. "+
				"Please check back later or ask about another book.", book.Title),
		}
	}

	sess.Flow = core.FlowReservation
	sess.Step = core.StepCollectingInfo
	sess.Slots = core.Slots{BookTitle: book.Title}

	return &Result{
		Handled:             true,
		ReservationIntent:   true,
		RequiresStudentInfo: true,
		Book:                &book,
		Reply: fmt.Sprintf("Great choice! To reserve %q (%d copies available), I need a few details:\n"+
			"1. Student ID\n2. Full Name\n3. Email Address\n\n"+
			"Please provide them in this format: ID, Full Name, Email", book.Title, book.CopiesAvailable),
	}
}

// collectInfo accepts structured identity fields or parses the free-text
// "ID, Name, Email" format. Incomplete identity self-loops with a re-ask;
// a complete one moves to awaiting_confirmation.
func (e *Engine) collectInfo(sess *core.Session, message string, student *core.StudentInfo) *Result {
	info, ok := resolveStudent(message, student)
	if !ok {
		return &Result{
			Handled:             true,
			RequiresStudentInfo: true,
			Reply: "I still need your Student ID, Full Name and Email Address to reserve " +
				fmt.Sprintf("%q. ", sess.Slots.BookTitle) +
				"Please provide them like: 2220122, Maria Santos, maria@ub.edu.ph",
		}
	}
	if !info.ValidEmail() {
		return &Result{
			Handled:             true,
			RequiresStudentInfo: true,
			Reply: fmt.Sprintf("The email address %q doesn't look right. "+
				"Please send your Student ID, Full Name and Email Address again.", info.Email),
		}
	}

	sess.Slots.Student = &info
	sess.Step = core.StepAwaitingConfirmation

	return &Result{
		Handled:              true,
		RequiresConfirmation: true,
		Student:              &info,
		Reply: fmt.Sprintf("Please confirm your reservation:\n\n"+
			"Book: %s\nStudent ID: %s\nName: %s\nEmail: %s\n\n"+
			"Reply \"yes\" to confirm or \"no\" to re-enter your details.",
			sess.Slots.BookTitle, info.StudentID, info.Name, info.Email),
	}
}

// resolveStudent prefers the caller-supplied structured identity and falls
// back to parsing the message text.
func resolveStudent(message string, student *core.StudentInfo) (core.StudentInfo, bool) {
	if student != nil && student.Complete() {
		return *student, true
	}
	if info, ok := intent.ParseStudentInfo(message); ok && info.Complete() {
		return info, true
	}
	return core.StudentInfo{}, false
}

// Confirmation token policy: an exact trimmed/folded "yes" or containment
// of "confirm"/"correct" is affirmative; an exact "no" or containment of
// "wrong"/"change" is negative. Negative wins when both match, so "that's
// wrong, not correct" is treated as a correction request. Anything else
// re-prompts; it never falls through to general chat.
func isAffirmative(msg string) bool {
	return msg == "yes" || strings.Contains(msg, "confirm") || strings.Contains(msg, "correct")
}

func isNegative(msg string) bool {
	return msg == "no" || strings.Contains(msg, "wrong") || strings.Contains(msg, "change")
}

func (e *Engine) settleConfirmation(ctx context.Context, sess *core.Session, message string) *Result {
	msg := strings.ToLower(strings.TrimSpace(message))

	switch {
	case isNegative(msg):
		sess.Slots.Student = nil
		sess.Step = core.StepCollectingInfo
		return &Result{
			Handled:             true,
			RequiresStudentInfo: true,
			Reply: "No problem, let's try again. Please send your Student ID, " +
				"Full Name and Email Address like: 2220122, Maria Santos, maria@ub.edu.ph",
		}
	case isAffirmative(msg):
		return e.confirm(ctx, sess)
	default:
		return &Result{
			Handled:              true,
			RequiresConfirmation: true,
			Reply: "Please reply \"yes\" to confirm the reservation or \"no\" to " +
				"change your details.",
		}
	}
}

// confirm settles an affirmative against a fresh inventory snapshot. The
// availability check and the decrement are deliberately split: the snapshot
// produces the user-facing terminal outcome, while the store's atomic
// decrement is the final arbiter for a racing last copy.
func (e *Engine) confirm(ctx context.Context, sess *core.Session) *Result {
	title := sess.Slots.BookTitle
	student := sess.Slots.Student

	books, err := e.inventory.Books(ctx)
	if err != nil {
		e.opts.Logger.Error("inventory snapshot failed at confirmation", "error", err.Error(), "session_id", sess.ID)
		return &Result{
			Handled:              true,
			RequiresConfirmation: true,
			Reply: "I'm having trouble reaching the catalog right now. " +
				"Please reply \"yes\" again in a moment to retry.",
		}
	}

	book, found := core.FindBookByTitle(books, title)
	if !found {
		sess.Reset()
		return &Result{
			Handled:      true,
			Outcome:      OutcomeNotFound,
			ClearSession: true,
			Reply: fmt.Sprintf("Sorry, %q is no longer in our catalog. "+
				"Your reservation was not made.", title),
		}
	}
	if book.CopiesAvailable < 1 {
		sess.Reset()
		return &Result{
			Handled:      true,
			Outcome:      OutcomeUnavailable,
			ClearSession: true,
			Book:         &book,
			Reply: fmt.Sprintf("Sorry, all copies of %q were reserved while we were talking. "+
				"Your reservation was not made. Please check back later.", book.Title),
		}
	}

	now := e.now().UTC()
	reservation := core.Reservation{
		ID:        core.NewReservationID(now),
		BookID:    book.BookID,
		BookTitle: book.Title,
		Student:   *student,
		Created:   now,
		Status:    core.StatusReserved,
	}

	if err := e.inventory.Reserve(ctx, book.BookID); err != nil {
		sess.Reset()
		switch {
		case errors.Is(err, core.ErrNoCopies):
			return &Result{
				Handled:      true,
				Outcome:      OutcomeUnavailable,
				ClearSession: true,
				Book:         &book,
				Reply: fmt.Sprintf("Sorry, the last copy of %q was just reserved by someone else. "+
					"Your reservation was not made.", book.Title),
			}
		case errors.Is(err, core.ErrBookNotFound):
			return &Result{
				Handled:      true,
				Outcome:      OutcomeNotFound,
				ClearSession: true,
				Reply: fmt.Sprintf("Sorry, %q is no longer in our catalog. "+
					"Your reservation was not made.", title),
			}
		}
		e.opts.Logger.Error("inventory decrement failed", "error", err.Error(), "book_id", book.BookID)
		return &Result{
			Handled:      true,
			ClearSession: true,
			Reply: "Something went wrong while recording your reservation, so it was not made. " +
				"Please try again in a few minutes.",
		}
	}

	if err := e.inventory.LogReservation(ctx, reservation); err != nil {
		e.opts.Logger.Warn("reservation log append failed", "error", err.Error(), "reservation_id", reservation.ID)
	}

	emailStatus := ""
	if e.opts.Notifier != nil {
		notifyCtx, cancel := context.WithTimeout(ctx, e.opts.NotifyTimeout)
		if err := e.opts.Notifier.SendConfirmation(notifyCtx, reservation, book); err != nil {
			e.opts.Logger.Warn("confirmation email failed", "error", err.Error(), "reservation_id", reservation.ID)
			emailStatus = EmailFailed
		} else {
			emailStatus = EmailSent
		}
		cancel()
	}

	logging.LogReservation(e.opts.Logger, reservation.ID, book.BookID, student.StudentID, emailStatus)

	sess.Reset()

	reply := fmt.Sprintf("Reservation confirmed!\n\n"+
		"Book: %s\nReservation ID: %s\nReserved for: %s\n\n"+
		"Please pick up your book at the front desk by %s.",
		book.Title, reservation.ID, student.Name,
		reservation.PickupBy().Format("Monday, January 2, 2006"))
	if emailStatus == EmailFailed {
		reply += " We couldn't send a confirmation email, so please keep your reservation ID handy."
	}

	book.CopiesAvailable--

	return &Result{
		Handled:             true,
		ReservationComplete: true,
		Outcome:             OutcomeConfirmed,
		ClearSession:        true,
		Reservation:         &reservation,
		Book:                &book,
		Student:             student,
		EmailStatus:         emailStatus,
		Reply:               reply,
	}
}
