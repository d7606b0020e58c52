package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ja-rental/service-rental/internal/domain/history"
)

// ExtensionModel is the GORM model for the booking_extensions table.
type ExtensionModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	BookingID  uuid.UUID `gorm:"type:uuid;not null;index"`
	OldEndDate time.Time `gorm:"type:timestamptz;not null"`
	NewEndDate time.Time `gorm:"type:timestamptz;not null"`
	RecordedAt time.Time `gorm:"type:timestamptz;not null"`
	TimeZone   string    `gorm:"type:varchar(64);not null"`
}

// TableName sets the table name.
func (ExtensionModel) TableName() string { return "booking_extensions" }

// TransactionModel is the GORM model for the booking_transactions table.
type TransactionModel struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BookingID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	CustomerID       uuid.UUID  `gorm:"type:uuid;not null"`
	VehicleID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	CompletionDate   *time.Time `gorm:"type:timestamptz"`
	CancellationDate *time.Time `gorm:"type:timestamptz"`
	TimeZone         string     `gorm:"type:varchar(64);not null"`
	CreatedAt        time.Time  `gorm:"not null"`
}

// TableName sets the table name.
func (TransactionModel) TableName() string { return "booking_transactions" }

// GormHistoryRepository stores extension and transaction audit rows. The
// operator zone name is kept next to each instant so rows read back in the
// local time they were recorded in.
type GormHistoryRepository struct {
	db *gorm.DB
}

// NewGormHistoryRepository creates a new GormHistoryRepository.
func NewGormHistoryRepository(db *gorm.DB) *GormHistoryRepository {
	return &GormHistoryRepository{db: db}
}

// AppendExtension persists an extension row.
func (r *GormHistoryRepository) AppendExtension(ctx context.Context, rec *history.ExtensionRecord) error {
	model := ExtensionModel{
		ID:         rec.ID(),
		BookingID:  rec.BookingID(),
		OldEndDate: rec.OldEndDate(),
		NewEndDate: rec.NewEndDate(),
		RecordedAt: rec.RecordedAt(),
		TimeZone:   rec.RecordedAt().Location().String(),
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("failed to append extension record: %w", err)
	}
	return nil
}

// AppendTransaction persists a completion or cancellation row.
func (r *GormHistoryRepository) AppendTransaction(ctx context.Context, rec *history.TransactionRecord) error {
	model := TransactionModel{
		ID:               rec.ID(),
		BookingID:        rec.BookingID(),
		CustomerID:       rec.CustomerID(),
		VehicleID:        rec.VehicleID(),
		CompletionDate:   rec.CompletionDate(),
		CancellationDate: rec.CancellationDate(),
		TimeZone:         rec.OccurredAt().Location().String(),
		CreatedAt:        time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("failed to append transaction record: %w", err)
	}
	return nil
}

// ListExtensions returns a booking's extension rows, oldest first.
func (r *GormHistoryRepository) ListExtensions(ctx context.Context, bookingID uuid.UUID) ([]*history.ExtensionRecord, error) {
	var models []ExtensionModel
	if err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).Order("recorded_at ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list extension records: %w", err)
	}

	records := make([]*history.ExtensionRecord, len(models))
	for i, m := range models {
		loc := zone(m.TimeZone)
		records[i] = history.ReconstructExtension(m.ID, m.BookingID, m.OldEndDate, m.NewEndDate, m.RecordedAt.In(loc))
	}
	return records, nil
}

// ListTransactions returns a booking's transaction rows, oldest first.
func (r *GormHistoryRepository) ListTransactions(ctx context.Context, bookingID uuid.UUID) ([]*history.TransactionRecord, error) {
	var models []TransactionModel
	if err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list transaction records: %w", err)
	}

	records := make([]*history.TransactionRecord, 0, len(models))
	for _, m := range models {
		kind, at := history.KindCompletion, m.CompletionDate
		if m.CancellationDate != nil {
			kind, at = history.KindCancellation, m.CancellationDate
		}
		if at == nil {
			return nil, fmt.Errorf("transaction record %s has no date", m.ID)
		}
		records = append(records, history.ReconstructTransaction(
			m.ID, m.BookingID, m.CustomerID, m.VehicleID, kind, at.In(zone(m.TimeZone)),
		))
	}
	return records, nil
}

func zone(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
