package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ja-rental/service-rental/internal/common/apperror"
	bookingDomain "github.com/ja-rental/service-rental/internal/domain/booking"
	"github.com/ja-rental/service-rental/internal/domain/payment"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID              uuid.UUID                                   `gorm:"type:uuid;primaryKey"`
	BookingNumber   string                                      `gorm:"uniqueIndex;not null;size:20"`
	CustomerID      uuid.UUID                                   `gorm:"type:uuid;index;not null"`
	VehicleID       uuid.UUID                                   `gorm:"type:uuid;index;not null"`
	DriverID        *uuid.UUID                                  `gorm:"type:uuid"`
	Purpose         string                                      `gorm:"size:500"`
	StartDate       time.Time                                   `gorm:"type:timestamptz;not null"`
	EndDate         time.Time                                   `gorm:"type:timestamptz;not null"`
	PickupTime      time.Time                                   `gorm:"type:timestamptz;not null"`
	DropoffTime     time.Time                                   `gorm:"type:timestamptz;not null"`
	Locations       datatypes.JSONType[bookingDomain.Locations] `gorm:"type:jsonb;not null"`
	SelfDrive       bool                                        `gorm:"not null;default:true"`
	Delivery        bool                                        `gorm:"not null;default:false"`
	Status          string                                      `gorm:"not null;size:30;index"`
	PendingKind     string                                      `gorm:"size:20;not null;default:''"`
	ProposedEndDate *time.Time                                  `gorm:"type:timestamptz"`
	PaymentTrigger  bool                                        `gorm:"not null;default:false"`
	TotalAmount     int64                                       `gorm:"not null"`
	Balance         int64                                       `gorm:"not null"`
	PaymentStatus   string                                      `gorm:"not null;size:10"`
	Version         int64                                       `gorm:"not null;default:1"`
	CreatedAt       time.Time                                   `gorm:"not null"`
	UpdatedAt       time.Time                                   `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByNumber retrieves a booking by its booking number.
func (r *GormBookingRepository) FindByNumber(ctx context.Context, number string) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("booking_number = ?", number).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFoundError("Booking", number)
		}
		return nil, fmt.Errorf("failed to find booking by number: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByCustomerID retrieves bookings for a specific customer with pagination.
func (r *GormBookingRepository) FindByCustomerID(ctx context.Context, customerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Where("customer_id = ?", customerID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count customer bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find customer bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// ListAll retrieves all bookings with pagination (staff).
func (r *GormBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// ListByStatus retrieves every booking in one of the given statuses.
func (r *GormBookingRepository) ListByStatus(ctx context.Context, statuses ...bookingDomain.BookingStatus) ([]*bookingDomain.Booking, error) {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}

	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("status IN ?", values).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list bookings by status: %w", err)
	}
	return toDomainBookings(models)
}

// CountByStatus returns booking counts grouped by status (staff).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	if err := r.db.WithContext(ctx).Create(toBookingModel(bk)).Error; err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	// IncrementVersion was already called, so the stored row must be one behind.
	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"driver_id":         model.DriverID,
			"purpose":           model.Purpose,
			"start_date":        model.StartDate,
			"end_date":          model.EndDate,
			"pickup_time":       model.PickupTime,
			"dropoff_time":      model.DropoffTime,
			"locations":         model.Locations,
			"self_drive":        model.SelfDrive,
			"delivery":          model.Delivery,
			"status":            model.Status,
			"pending_kind":      model.PendingKind,
			"proposed_end_date": model.ProposedEndDate,
			"payment_trigger":   model.PaymentTrigger,
			"total_amount":      model.TotalAmount,
			"balance":           model.Balance,
			"payment_status":    model.PaymentStatus,
			"version":           model.Version,
			"updated_at":        model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return apperror.NewConflictError("booking was modified by another transaction")
	}

	return nil
}

// Delete removes a booking.
func (r *GormBookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&BookingModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NewNotFoundError("Booking", id.String())
	}
	return nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	s := bk.Snapshot()
	return &BookingModel{
		ID:              s.ID,
		BookingNumber:   s.BookingNumber,
		CustomerID:      s.CustomerID,
		VehicleID:       s.VehicleID,
		DriverID:        s.DriverID,
		Purpose:         s.Purpose,
		StartDate:       s.StartDate,
		EndDate:         s.EndDate,
		PickupTime:      s.PickupTime,
		DropoffTime:     s.DropoffTime,
		Locations:       datatypes.NewJSONType(s.Locations),
		SelfDrive:       s.SelfDrive,
		Delivery:        s.Delivery,
		Status:          string(s.Status),
		PendingKind:     string(s.Pending.Kind()),
		ProposedEndDate: s.Pending.ProposedEndDate(),
		PaymentTrigger:  s.PaymentTrigger,
		TotalAmount:     s.TotalAmount,
		Balance:         s.Balance,
		PaymentStatus:   string(s.PaymentStatus),
		Version:         s.Version,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}
	pending, err := bookingDomain.ParsePendingRequest(m.PendingKind, m.ProposedEndDate)
	if err != nil {
		return nil, fmt.Errorf("booking %s: %w", m.ID, err)
	}

	return bookingDomain.ReconstructBooking(bookingDomain.State{
		ID:             m.ID,
		BookingNumber:  m.BookingNumber,
		CustomerID:     m.CustomerID,
		VehicleID:      m.VehicleID,
		DriverID:       m.DriverID,
		Purpose:        m.Purpose,
		StartDate:      m.StartDate,
		EndDate:        m.EndDate,
		PickupTime:     m.PickupTime,
		DropoffTime:    m.DropoffTime,
		Locations:      m.Locations.Data(),
		SelfDrive:      m.SelfDrive,
		Delivery:       m.Delivery,
		Status:         status,
		Pending:        pending,
		PaymentTrigger: m.PaymentTrigger,
		TotalAmount:    m.TotalAmount,
		Balance:        m.Balance,
		PaymentStatus:  payment.ParseStatus(m.PaymentStatus),
		Version:        m.Version,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}), nil
}

func toDomainBookings(models []BookingModel) ([]*bookingDomain.Booking, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}
