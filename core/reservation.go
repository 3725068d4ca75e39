package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StatusReserved is the only reservation status this service emits;
// cancellation and returns are handled elsewhere.
const StatusReserved = "reserved"

// Reservation is the immutable record emitted the instant a confirmation
// succeeds. It is handed to the inventory store (decrement + log) and the
// notifier and never mutated afterwards.
type Reservation struct {
	ID        string      `json:"reservationId" db:"reservation_id"`
	BookID    string      `json:"bookId" db:"book_id"`
	BookTitle string      `json:"bookTitle" db:"book_title"`
	Student   StudentInfo `json:"student" db:"-"`
	Created   time.Time   `json:"created" db:"created"`
	Status    string      `json:"status" db:"status"`
}

// PickupDeadline is how long a reserved book is held at the front desk.
const PickupDeadline = 72 * time.Hour

// PickupBy returns the latest pickup time for the reservation.
func (r Reservation) PickupBy() time.Time { return r.Created.Add(PickupDeadline) }

// NewReservationID generates a reservation identifier unique within the
// process lifetime. The millisecond prefix keeps ids sortable and matches
// the RES-<timestamp> shape front desk staff already know; the uuid fragment
// disambiguates confirmations landing in the same millisecond.
func NewReservationID(now time.Time) string {
	return fmt.Sprintf("RES-%d-%s", now.UnixMilli(), uuid.NewString()[:8])
}

// NewID generates an opaque unique identifier for sessions and turns.
func NewID() string { return uuid.NewString() }
