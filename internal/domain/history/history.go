package history

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TransactionKind names the terminal resolution a transaction row records.
type TransactionKind string

const (
	KindCompletion   TransactionKind = "completion"
	KindCancellation TransactionKind = "cancellation"
)

// IsValid returns true if the kind is recognized.
func (k TransactionKind) IsValid() bool {
	return k == KindCompletion || k == KindCancellation
}

// ExtensionRecord is an immutable audit row written when an extension is approved.
type ExtensionRecord struct {
	id         uuid.UUID
	bookingID  uuid.UUID
	oldEndDate time.Time
	newEndDate time.Time
	recordedAt time.Time
}

// NewExtensionRecord captures the end dates before and after an approved extension.
// recordedAt is operator local time.
func NewExtensionRecord(bookingID uuid.UUID, oldEnd, newEnd, recordedAt time.Time) (*ExtensionRecord, error) {
	if bookingID == uuid.Nil {
		return nil, fmt.Errorf("booking ID is required")
	}
	if !newEnd.After(oldEnd) {
		return nil, fmt.Errorf("new end date must be after old end date")
	}
	return &ExtensionRecord{
		id:         uuid.New(),
		bookingID:  bookingID,
		oldEndDate: oldEnd,
		newEndDate: newEnd,
		recordedAt: recordedAt,
	}, nil
}

// ReconstructExtension rebuilds an ExtensionRecord from persistence.
func ReconstructExtension(id, bookingID uuid.UUID, oldEnd, newEnd, recordedAt time.Time) *ExtensionRecord {
	return &ExtensionRecord{id: id, bookingID: bookingID, oldEndDate: oldEnd, newEndDate: newEnd, recordedAt: recordedAt}
}

// Getters.
func (r *ExtensionRecord) ID() uuid.UUID { return r.id }
func (r *ExtensionRecord) BookingID() uuid.UUID { return r.bookingID }
func (r *ExtensionRecord) OldEndDate() time.Time { return r.oldEndDate }
func (r *ExtensionRecord) NewEndDate() time.Time { return r.newEndDate }
func (r *ExtensionRecord) RecordedAt() time.Time { return r.recordedAt }

// TransactionRecord is an immutable audit row written at terminal resolution.
// Exactly one of CompletionDate and CancellationDate is set.
type TransactionRecord struct {
	id         uuid.UUID
	bookingID  uuid.UUID
	customerID uuid.UUID
	vehicleID  uuid.UUID
	kind       TransactionKind
	occurredAt time.Time
}

// NewTransactionRecord creates a completion or cancellation row. occurredAt is
// operator local civil time and keeps its location.
func NewTransactionRecord(bookingID, customerID, vehicleID uuid.UUID, kind TransactionKind, occurredAt time.Time) (*TransactionRecord, error) {
	if bookingID == uuid.Nil {
		return nil, fmt.Errorf("booking ID is required")
	}
	if !kind.IsValid() {
		return nil, fmt.Errorf("invalid transaction kind: %s", kind)
	}
	return &TransactionRecord{
		id:         uuid.New(),
		bookingID:  bookingID,
		customerID: customerID,
		vehicleID:  vehicleID,
		kind:       kind,
		occurredAt: occurredAt,
	}, nil
}

// ReconstructTransaction rebuilds a TransactionRecord from persistence.
func ReconstructTransaction(id, bookingID, customerID, vehicleID uuid.UUID, kind TransactionKind, occurredAt time.Time) *TransactionRecord {
	return &TransactionRecord{
		id:         id,
		bookingID:  bookingID,
		customerID: customerID,
		vehicleID:  vehicleID,
		kind:       kind,
		occurredAt: occurredAt,
	}
}

func (r *TransactionRecord) ID() uuid.UUID { return r.id }
func (r *TransactionRecord) BookingID() uuid.UUID { return r.bookingID }
func (r *TransactionRecord) CustomerID() uuid.UUID { return r.customerID }
func (r *TransactionRecord) VehicleID() uuid.UUID { return r.vehicleID }
func (r *TransactionRecord) Kind() TransactionKind { return r.kind }
func (r *TransactionRecord) OccurredAt() time.Time { return r.occurredAt }

// CompletionDate returns the completion time, or nil for a cancellation row.
func (r *TransactionRecord) CompletionDate() *time.Time {
	if r.kind != KindCompletion {
		return nil
	}
	t := r.occurredAt
	return &t
}

// CancellationDate returns the cancellation time, or nil for a completion row.
func (r *TransactionRecord) CancellationDate() *time.Time {
	if r.kind != KindCancellation {
		return nil
	}
	t := r.occurredAt
	return &t
}
