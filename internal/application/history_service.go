package application

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ExtensionRecordDTO is an extension audit row.
type ExtensionRecordDTO struct {
	ID         uuid.UUID `json:"id"`
	OldEndDate time.Time `json:"old_end_date"`
	NewEndDate time.Time `json:"new_end_date"`
	RecordedAt time.Time `json:"recorded_at"`
}

// TransactionRecordDTO is a terminal-resolution audit row.
type TransactionRecordDTO struct {
	ID               uuid.UUID  `json:"id"`
	CustomerID       uuid.UUID  `json:"customer_id"`
	VehicleID        uuid.UUID  `json:"vehicle_id"`
	CompletionDate   *time.Time `json:"completion_date,omitempty"`
	CancellationDate *time.Time `json:"cancellation_date,omitempty"`
}

// PaymentDTO is a ledger entry.
type PaymentDTO struct {
	ID          uuid.UUID  `json:"id"`
	Amount      int64      `json:"amount"`
	Method      string     `json:"method,omitempty"`
	PaidDate    *time.Time `json:"paid_date,omitempty"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
}

// BookingHistoryDTO bundles a booking's ledger and audit rows.
type BookingHistoryDTO struct {
	BookingID    uuid.UUID              `json:"booking_id"`
	Payments     []PaymentDTO           `json:"payments"`
	Extensions   []ExtensionRecordDTO   `json:"extensions"`
	Transactions []TransactionRecordDTO `json:"transactions"`
}

// GetBookingHistory returns the payments and audit rows of a booking (staff).
// Rows outlive a deleted booking, so the booking itself is not required.
func (s *BookingService) GetBookingHistory(ctx context.Context, bookingID uuid.UUID) (*BookingHistoryDTO, error) {
	payments, err := s.payments.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	extensions, err := s.history.ListExtensions(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	transactions, err := s.history.ListTransactions(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	result := &BookingHistoryDTO{
		BookingID:    bookingID,
		Payments:     make([]PaymentDTO, len(payments)),
		Extensions:   make([]ExtensionRecordDTO, len(extensions)),
		Transactions: make([]TransactionRecordDTO, len(transactions)),
	}
	for i, p := range payments {
		result.Payments[i] = PaymentDTO{
			ID:          p.ID(),
			Amount:      p.Amount(),
			Method:      p.Method(),
			PaidDate:    p.PaidDate(),
			Description: p.Description(),
			CreatedAt:   p.CreatedAt(),
		}
	}
	for i, e := range extensions {
		result.Extensions[i] = ExtensionRecordDTO{
			ID:         e.ID(),
			OldEndDate: e.OldEndDate(),
			NewEndDate: e.NewEndDate(),
			RecordedAt: e.RecordedAt(),
		}
	}
	for i, t := range transactions {
		result.Transactions[i] = TransactionRecordDTO{
			ID:               t.ID(),
			CustomerID:       t.CustomerID(),
			VehicleID:        t.VehicleID(),
			CompletionDate:   t.CompletionDate(),
			CancellationDate: t.CancellationDate(),
		}
	}
	return result, nil
}
