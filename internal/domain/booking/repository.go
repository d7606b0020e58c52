package booking

import (
	"context"

	"github.com/google/uuid"
)

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByNumber retrieves a booking by its human-readable booking number.
	FindByNumber(ctx context.Context, number string) (*Booking, error)

	// FindByCustomerID retrieves bookings belonging to a customer with pagination.
	FindByCustomerID(ctx context.Context, customerID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// ListAll retrieves all bookings with pagination (staff).
	ListAll(ctx context.Context, page, limit int) ([]*Booking, int64, error)

	// ListByStatus retrieves every booking in one of the given statuses.
	ListByStatus(ctx context.Context, statuses ...BookingStatus) ([]*Booking, error)

	// CountByStatus returns booking counts grouped by status (staff).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// Save persists a new booking.
	Save(ctx context.Context, booking *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	// The booking's version must already be incremented.
	Update(ctx context.Context, booking *Booking) error

	// Delete removes a booking.
	Delete(ctx context.Context, id uuid.UUID) error
}
