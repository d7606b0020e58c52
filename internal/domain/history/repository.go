package history

import (
	"context"

	"github.com/google/uuid"
)

// HistoryRepository appends and lists audit rows. Rows are never updated.
type HistoryRepository interface {
	AppendExtension(ctx context.Context, record *ExtensionRecord) error
	AppendTransaction(ctx context.Context, record *TransactionRecord) error
	ListExtensions(ctx context.Context, bookingID uuid.UUID) ([]*ExtensionRecord, error)
	ListTransactions(ctx context.Context, bookingID uuid.UUID) ([]*TransactionRecord, error)
}
