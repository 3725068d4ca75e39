// Package inventory provides core.InventoryStore implementations: a fixed
// in-memory store used as the fallback catalog, a read-only remote catalog
// mirror, and a failover wrapper that degrades reads to the fixed catalog
// when the primary store is unreachable. A SQL-backed store lives in the
// sqlstore subpackage.
package inventory

import (
	"context"
	"fmt"
	"sync"

	"github.com/ublc/libchat/core"
)

// DefaultCatalog returns the built-in fallback catalog used when no
// external inventory is reachable.
func DefaultCatalog() []core.Book {
	return []core.Book{
		{
			BookID:          "B001",
			Title:           "Programming in C",
			Author:          "Dennis Ritchie",
			CopiesAvailable: 5,
			Location:        "2nd Floor - Section A",
			Category:        "Programming",
		},
		{
			BookID:          "B002",
			Title:           "Data Structures and Algorithms",
			Author:          "Robert Sedgewick",
			CopiesAvailable: 3,
			Location:        "2nd Floor - Section A",
			Category:        "Computer Science",
		},
		{
			BookID:          "B003",
			Title:           "Python Programming",
			Author:          "Mark Lutz",
			CopiesAvailable: 9,
			Location:        "2nd Floor - Section A",
			Category:        "Programming",
		},
	}
}

// FixedStore is an in-memory inventory backed by a fixed catalog. Reserve
// is atomic under the store mutex, so concurrent reservations of the last
// copy resolve to exactly one success.
type FixedStore struct {
	mu           sync.Mutex
	books        []core.Book
	reservations []core.Reservation
}

// NewFixedStore creates a store over a copy of the given catalog. With no
// books it uses DefaultCatalog.
func NewFixedStore(books ...core.Book) *FixedStore {
	if len(books) == 0 {
		books = DefaultCatalog()
	}
	return &FixedStore{books: append([]core.Book(nil), books...)}
}

// Books returns a snapshot of the catalog.
func (s *FixedStore) Books(ctx context.Context) ([]core.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Book(nil), s.books...), nil
}

// Reserve atomically decrements the available copies of a book.
func (s *FixedStore) Reserve(ctx context.Context, bookID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.books {
		if s.books[i].BookID != bookID {
			continue
		}
		if s.books[i].CopiesAvailable < 1 {
			return fmt.Errorf("reserve %s: %w", bookID, core.ErrNoCopies)
		}
		s.books[i].CopiesAvailable--
		return nil
	}
	return fmt.Errorf("reserve %s: %w", bookID, core.ErrBookNotFound)
}

// LogReservation appends the reservation to the in-memory log.
func (s *FixedStore) LogReservation(ctx context.Context, r core.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reservations = append(s.reservations, r)
	return nil
}

// Reservations returns logged reservations, oldest first.
func (s *FixedStore) Reservations(ctx context.Context) ([]core.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Reservation(nil), s.reservations...), nil
}
