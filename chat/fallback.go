package chat

import (
	"fmt"
	"strings"

	"github.com/ublc/libchat/core"
)

// Responder produces rule-based canned replies when the completion provider
// is unavailable. Rules are checked in order; the first keyword hit wins.
type Responder struct{}

// NewResponder creates a fallback responder.
func NewResponder() *Responder { return &Responder{} }

// Reply matches the message against the canned rule set.
func (r *Responder) Reply(message string, books []core.Book) string {
	msg := strings.ToLower(message)

	switch {
	case containsAny(msg, "reserve", "borrow", "check out"):
		return "I can help you reserve a book! Just tell me which book you'd like, " +
			"for example: \"reserve Programming in C\"."

	case containsAny(msg, "programming", "code", "coding"):
		if titles := titlesByCategory(books, "Programming"); titles != "" {
			return "We have these programming books: " + titles + ". Would you like to reserve one?"
		}
		return "We carry several programming books. Ask me to list the catalog to see what's available."

	case containsAny(msg, "hour", "time", "open", "close"):
		return "The library is open 7:00 AM - 9:00 PM Monday to Friday and " +
			"8:00 AM - 5:00 PM on Saturday. We're closed on Sunday."

	case containsAny(msg, "book", "available", "catalog", "category"):
		if listing := catalogListing(books); listing != "" {
			return "Here's what we have right now:\n" + listing + "\nTell me which one you'd like to reserve!"
		}
		return "I'm having trouble reading the catalog right now. Please try again in a moment."

	case containsAny(msg, "rule", "policy", "late", "fine", "return"):
		return "Reserved books are held at the front desk for 3 days. Borrowed books are due " +
			"back in 7 days; late returns incur a small daily fine. Ask the front desk for details."

	default:
		return "Hi! I'm LibBot, the UBLC library assistant. I can help you look up books, " +
			"check library hours, or reserve a book. What would you like to do?"
	}
}

func containsAny(msg string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(msg, kw) {
			return true
		}
	}
	return false
}

func titlesByCategory(books []core.Book, category string) string {
	var titles []string
	for _, b := range books {
		if strings.EqualFold(b.Category, category) {
			titles = append(titles, b.Title)
		}
	}
	return strings.Join(titles, ", ")
}

func catalogListing(books []core.Book) string {
	if len(books) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, b := range books {
		fmt.Fprintf(&sb, "- %s (%d copies available)\n", b.Title, b.CopiesAvailable)
	}
	return strings.TrimRight(sb.String(), "\n")
}
