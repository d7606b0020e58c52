package payment

import (
	"time"

	"github.com/google/uuid"

	"github.com/ja-rental/service-rental/internal/common/apperror"
)

// PlaceholderDescription marks the zero-amount entry created with every booking.
const PlaceholderDescription = "User Booked the Car"

// Payment is an immutable ledger entry recording money received for a booking.
type Payment struct {
	id          uuid.UUID
	bookingID   uuid.UUID
	customerID  uuid.UUID
	amount      int64
	method      string
	paidDate    *time.Time
	description string
	createdAt   time.Time
}

// NewPayment records money received. Amount must be positive.
func NewPayment(id, bookingID, customerID uuid.UUID, amount int64, method string, paidDate *time.Time, description string) (*Payment, error) {
	if bookingID == uuid.Nil {
		return nil, apperror.NewValidationError("booking ID is required")
	}
	if amount <= 0 {
		return nil, apperror.NewValidationError("payment amount must be positive")
	}
	if id == uuid.Nil {
		id = uuid.New()
	}
	if paidDate == nil {
		now := time.Now().UTC()
		paidDate = &now
	}
	return &Payment{
		id:          id,
		bookingID:   bookingID,
		customerID:  customerID,
		amount:      amount,
		method:      method,
		paidDate:    paidDate,
		description: description,
		createdAt:   time.Now().UTC(),
	}, nil
}

// NewPlaceholder creates the zero-amount entry representing the amount owed at booking time.
func NewPlaceholder(bookingID, customerID uuid.UUID) *Payment {
	return &Payment{
		id:          uuid.New(),
		bookingID:   bookingID,
		customerID:  customerID,
		description: PlaceholderDescription,
		createdAt:   time.Now().UTC(),
	}
}

// Reconstruct rebuilds a Payment from persistence.
func Reconstruct(id, bookingID, customerID uuid.UUID, amount int64, method string, paidDate *time.Time, description string, createdAt time.Time) *Payment {
	return &Payment{
		id:          id,
		bookingID:   bookingID,
		customerID:  customerID,
		amount:      amount,
		method:      method,
		paidDate:    paidDate,
		description: description,
		createdAt:   createdAt,
	}
}

func (p *Payment) ID() uuid.UUID { return p.id }
func (p *Payment) BookingID() uuid.UUID { return p.bookingID }
func (p *Payment) CustomerID() uuid.UUID { return p.customerID }
func (p *Payment) Amount() int64 { return p.amount }
func (p *Payment) Method() string { return p.method }
func (p *Payment) PaidDate() *time.Time { return p.paidDate }
func (p *Payment) Description() string { return p.description }
func (p *Payment) CreatedAt() time.Time { return p.createdAt }

// IsPlaceholder reports whether this is the booking-time zero entry.
func (p *Payment) IsPlaceholder() bool {
	return p.amount == 0 && p.description == PlaceholderDescription
}
