package core

import "context"

// Notifier delivers a reservation confirmation to the student. Delivery is
// best-effort: a failure is reported to the caller for status metadata but
// must never abort or reverse the reservation.
type Notifier interface {
	SendConfirmation(ctx context.Context, r Reservation, b Book) error
}
