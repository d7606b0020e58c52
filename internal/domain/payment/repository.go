package payment

import (
	"context"

	"github.com/google/uuid"
)

// PaymentRepository is the append-only store of payment entries.
type PaymentRepository interface {
	// Append persists a new entry. Entries are never updated.
	Append(ctx context.Context, p *Payment) error

	// Exists reports whether an entry with this ID was already recorded.
	Exists(ctx context.Context, id uuid.UUID) (bool, error)

	// FindByBookingID returns a booking's entries in creation order.
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*Payment, error)
}
