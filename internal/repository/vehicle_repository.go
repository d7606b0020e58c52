package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ja-rental/service-rental/internal/common/apperror"
	vehicleDomain "github.com/ja-rental/service-rental/internal/domain/vehicle"
)

// VehicleModel is the GORM model for the vehicles table.
type VehicleModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	PlateNumber  string    `gorm:"type:varchar(20);not null;uniqueIndex"`
	Brand        string    `gorm:"type:varchar(100)"`
	Model        string    `gorm:"type:varchar(100)"`
	DailyRate    int64     `gorm:"not null"`
	Availability string    `gorm:"type:varchar(20);not null;default:'Available';index"`
	Version      int64     `gorm:"not null;default:1"`
	CreatedAt    time.Time `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt    time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

func (VehicleModel) TableName() string { return "vehicles" }

// GormVehicleRepository implements VehicleRepository using GORM.
type GormVehicleRepository struct {
	db *gorm.DB
}

func NewGormVehicleRepository(db *gorm.DB) *GormVehicleRepository {
	return &GormVehicleRepository{db: db}
}

func (r *GormVehicleRepository) FindByID(ctx context.Context, id uuid.UUID) (*vehicleDomain.Vehicle, error) {
	var model VehicleModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFoundError("Vehicle", id.String())
		}
		return nil, fmt.Errorf("failed to find vehicle: %w", err)
	}
	return toVehicleDomain(&model), nil
}

func (r *GormVehicleRepository) List(ctx context.Context, onlyAvailable bool) ([]*vehicleDomain.Vehicle, error) {
	q := r.db.WithContext(ctx).Order("plate_number ASC")
	if onlyAvailable {
		q = q.Where("availability = ?", string(vehicleDomain.AvailabilityAvailable))
	}
	var models []VehicleModel
	if err := q.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}
	vehicles := make([]*vehicleDomain.Vehicle, len(models))
	for i := range models {
		vehicles[i] = toVehicleDomain(&models[i])
	}
	return vehicles, nil
}

func (r *GormVehicleRepository) Save(ctx context.Context, v *vehicleDomain.Vehicle) error {
	return r.db.WithContext(ctx).Create(toVehicleModel(v)).Error
}

// Update writes rate and descriptive fields. Availability is owned by SetAvailability.
func (r *GormVehicleRepository) Update(ctx context.Context, v *vehicleDomain.Vehicle) error {
	model := toVehicleModel(v)
	previousVersion := v.Version() - 1

	result := r.db.WithContext(ctx).
		Model(&VehicleModel{}).
		Where("id = ? AND version = ?", model.ID, previousVersion).
		Updates(map[string]interface{}{
			"brand":      model.Brand,
			"model":      model.Model,
			"daily_rate": model.DailyRate,
			"version":    model.Version,
			"updated_at": model.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperror.NewConflictError("vehicle was modified by another transaction")
	}
	return nil
}

// SetAvailability is idempotent and keyed by primary key only, so concurrent
// booking writes never contend on the vehicle row version.
func (r *GormVehicleRepository) SetAvailability(ctx context.Context, id uuid.UUID, availability vehicleDomain.Availability) error {
	result := r.db.WithContext(ctx).
		Model(&VehicleModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"availability": string(availability),
			"updated_at":   time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to set vehicle availability: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NewNotFoundError("Vehicle", id.String())
	}
	return nil
}

// --- Conversions ---

func toVehicleModel(v *vehicleDomain.Vehicle) *VehicleModel {
	return &VehicleModel{
		ID:           v.ID(),
		PlateNumber:  v.PlateNumber(),
		Brand:        v.Brand(),
		Model:        v.Model(),
		DailyRate:    v.DailyRate(),
		Availability: string(v.Availability()),
		Version:      v.Version(),
		CreatedAt:    v.CreatedAt(),
		UpdatedAt:    v.UpdatedAt(),
	}
}

func toVehicleDomain(m *VehicleModel) *vehicleDomain.Vehicle {
	return vehicleDomain.Reconstruct(
		m.ID,
		m.PlateNumber, m.Brand, m.Model,
		m.DailyRate,
		vehicleDomain.Availability(m.Availability),
		m.Version,
		m.CreatedAt, m.UpdatedAt,
	)
}
