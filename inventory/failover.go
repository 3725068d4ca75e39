package inventory

import (
	"context"

	"github.com/ublc/libchat/core"
	"github.com/ublc/libchat/logging"
)

// Failover reads from a primary store and falls back to a fixed catalog
// when the primary is unreachable. Writes always go to the primary: a
// confirmation-time decrement against a dead primary is a hard failure the
// dialogue reports, never a silent success against the fallback.
type Failover struct {
	primary  core.InventoryStore
	fallback *FixedStore
	logger   logging.Logger
}

// NewFailover wraps primary with a fixed-catalog read fallback.
func NewFailover(primary core.InventoryStore, fallback *FixedStore, logger logging.Logger) *Failover {
	if fallback == nil {
		fallback = NewFixedStore()
	}
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Failover{primary: primary, fallback: fallback, logger: logger}
}

// Books reads from the primary, degrading to the fallback catalog.
func (f *Failover) Books(ctx context.Context) ([]core.Book, error) {
	books, err := f.primary.Books(ctx)
	if err != nil {
		f.logger.Warn("primary inventory unreachable, serving fallback catalog", "error", err.Error())
		return f.fallback.Books(ctx)
	}
	return books, nil
}

// Reserve goes to the primary only.
func (f *Failover) Reserve(ctx context.Context, bookID string) error {
	return f.primary.Reserve(ctx, bookID)
}

// LogReservation goes to the primary only.
func (f *Failover) LogReservation(ctx context.Context, r core.Reservation) error {
	return f.primary.LogReservation(ctx, r)
}

// Reservations goes to the primary only.
func (f *Failover) Reservations(ctx context.Context) ([]core.Reservation, error) {
	return f.primary.Reservations(ctx)
}
