package core

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrBookNotFound is returned when a book id or title does not exist in
	// the backing catalog.
	ErrBookNotFound = errors.New("book not found")

	// ErrNoCopies is returned by Reserve when the book exists but has no
	// available copies left.
	ErrNoCopies = errors.New("no copies available")

	// ErrReadOnly is returned by stores that can serve catalog reads but
	// cannot accept reservation writes (e.g. a remote catalog mirror).
	ErrReadOnly = errors.New("inventory store is read-only")

	// ErrReservationNotFound is returned when a reservation id is unknown.
	ErrReservationNotFound = errors.New("reservation not found")
)

// InventoryStore is the narrow interface the dialogue engine uses to read
// and mutate the book inventory.
//
// Reserve must be atomic relative to concurrent reservations of the same
// book independent of any session locking: two sessions racing for the last
// copy must see exactly one success and one ErrNoCopies, and the copy count
// must never go negative.
type InventoryStore interface {
	// Books returns a snapshot of the full catalog.
	Books(ctx context.Context) ([]Book, error)

	// Reserve atomically decrements the available copies of a book by one.
	// Returns ErrBookNotFound or ErrNoCopies when the decrement cannot land.
	Reserve(ctx context.Context, bookID string) error

	// LogReservation appends a reservation record. Failures are non-fatal
	// to the reservation itself; callers log and continue.
	LogReservation(ctx context.Context, r Reservation) error

	// Reservations returns logged reservations, oldest first.
	Reservations(ctx context.Context) ([]Reservation, error)
}

// SearchBooks filters a catalog snapshot by a case-insensitive query against
// title, author, exact book id and category.
func SearchBooks(books []Book, query string) []Book {
	if query == "" {
		return nil
	}
	q := strings.ToLower(query)
	var out []Book
	for _, b := range books {
		if strings.Contains(strings.ToLower(b.Title), q) ||
			strings.Contains(strings.ToLower(b.Author), q) ||
			strings.ToLower(b.BookID) == q ||
			strings.Contains(strings.ToLower(b.Category), q) {
			out = append(out, b)
		}
	}
	return out
}
