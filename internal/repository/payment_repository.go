package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ja-rental/service-rental/internal/domain/payment"
)

// PaymentModel is the GORM model for the payments table.
type PaymentModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BookingID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	CustomerID  uuid.UUID  `gorm:"type:uuid;not null"`
	Amount      int64      `gorm:"not null"`
	Method      string     `gorm:"type:varchar(30)"`
	PaidDate    *time.Time `gorm:"type:timestamptz"`
	Description string     `gorm:"type:text"`
	CreatedAt   time.Time  `gorm:"not null"`
}

// TableName sets the table name.
func (PaymentModel) TableName() string { return "payments" }

// GormPaymentRepository implements the append-only PaymentRepository using GORM.
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository.
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Append persists a new payment entry.
func (r *GormPaymentRepository) Append(ctx context.Context, p *payment.Payment) error {
	model := toPaymentModel(p)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("failed to append payment: %w", err)
	}
	return nil
}

// Exists reports whether a payment with this ID was already recorded.
func (r *GormPaymentRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&PaymentModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check payment: %w", err)
	}
	return count > 0, nil
}

// FindByBookingID returns all payments for a booking in creation order.
func (r *GormPaymentRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*payment.Payment, error) {
	var models []PaymentModel
	if err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find payments: %w", err)
	}

	payments := make([]*payment.Payment, len(models))
	for i := range models {
		payments[i] = toPaymentDomain(&models[i])
	}
	return payments, nil
}

func toPaymentModel(p *payment.Payment) PaymentModel {
	return PaymentModel{
		ID:          p.ID(),
		BookingID:   p.BookingID(),
		CustomerID:  p.CustomerID(),
		Amount:      p.Amount(),
		Method:      p.Method(),
		PaidDate:    p.PaidDate(),
		Description: p.Description(),
		CreatedAt:   p.CreatedAt(),
	}
}

func toPaymentDomain(m *PaymentModel) *payment.Payment {
	return payment.Reconstruct(
		m.ID,
		m.BookingID,
		m.CustomerID,
		m.Amount,
		m.Method,
		m.PaidDate,
		m.Description,
		m.CreatedAt,
	)
}
