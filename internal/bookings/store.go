package bookings

import "context"

// Tx is the unit of work for one booking submission. Everything done through
// a Tx commits or rolls back together.
type Tx interface {
	ContactStore
	InsertBooking(ctx context.Context, b *Booking) (*Booking, error)
}

// Store persists bookings.
type Store interface {
	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(Tx) error) error
	// TakenSlots returns tour times of non-cancelled bookings in id order.
	TakenSlots(ctx context.Context, building, date string) ([]string, error)
	ListByLead(ctx context.Context, leadID int64) ([]*Booking, error)
}
