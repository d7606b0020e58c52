package application

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ja-rental/service-rental/internal/common/apperror"
	bookingDomain "github.com/ja-rental/service-rental/internal/domain/booking"
	"github.com/ja-rental/service-rental/internal/domain/history"
)

// TransactionRecorder appends audit rows after the booking write commits.
// Every timestamp it writes is operator local civil time.
type TransactionRecorder struct {
	repo     history.HistoryRepository
	location *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// NewTransactionRecorder creates a recorder stamping rows in loc.
func NewTransactionRecorder(repo history.HistoryRepository, loc *time.Location, logger *zap.Logger) *TransactionRecorder {
	if loc == nil {
		loc = time.UTC
	}
	return &TransactionRecorder{
		repo:     repo,
		location: loc,
		now:      time.Now,
		logger:   logger,
	}
}

// LocalNow returns the current operator local time.
func (r *TransactionRecorder) LocalNow() time.Time {
	return r.now().In(r.location)
}

// RecordExtension appends the old and new end dates of an approved extension.
func (r *TransactionRecorder) RecordExtension(ctx context.Context, bk *bookingDomain.Booking, oldEnd, newEnd time.Time) error {
	rec, err := history.NewExtensionRecord(bk.ID(), oldEnd, newEnd, r.LocalNow())
	if err != nil {
		return r.fail(bk, "extension", err)
	}
	if err := r.repo.AppendExtension(ctx, rec); err != nil {
		return r.fail(bk, "extension", err)
	}
	return nil
}

// RecordCancellation appends a transaction row with cancellation_date set.
func (r *TransactionRecorder) RecordCancellation(ctx context.Context, bk *bookingDomain.Booking) error {
	return r.recordTransaction(ctx, bk, history.KindCancellation)
}

// RecordCompletion appends a transaction row with completion_date set.
func (r *TransactionRecorder) RecordCompletion(ctx context.Context, bk *bookingDomain.Booking) error {
	return r.recordTransaction(ctx, bk, history.KindCompletion)
}

func (r *TransactionRecorder) recordTransaction(ctx context.Context, bk *bookingDomain.Booking, kind history.TransactionKind) error {
	rec, err := history.NewTransactionRecord(bk.ID(), bk.CustomerID(), bk.VehicleID(), kind, r.LocalNow())
	if err != nil {
		return r.fail(bk, string(kind), err)
	}
	if err := r.repo.AppendTransaction(ctx, rec); err != nil {
		return r.fail(bk, string(kind), err)
	}
	return nil
}

func (r *TransactionRecorder) fail(bk *bookingDomain.Booking, row string, err error) error {
	depErr := apperror.NewDependencyError("failed to append "+row+" audit row", err)
	r.logger.Error("transaction recorder failed",
		zap.String("booking_id", bk.ID().String()),
		zap.String("row", row),
		zap.String("kind", string(depErr.Kind)),
		zap.Error(err),
	)
	return depErr
}
