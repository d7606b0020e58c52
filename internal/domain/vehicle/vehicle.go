package vehicle

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ja-rental/service-rental/internal/common/apperror"
)

// Availability reports whether a vehicle can be booked.
type Availability string

const (
	AvailabilityAvailable   Availability = "Available"
	AvailabilityUnavailable Availability = "Unavailable"
)

// Vehicle is the directory entry the booking core needs: a daily rate and an availability flag.
type Vehicle struct {
	id           uuid.UUID
	plateNumber  string
	brand        string
	model        string
	dailyRate    int64
	availability Availability
	version      int64
	createdAt    time.Time
	updatedAt    time.Time
}

// NewVehicle creates an available vehicle.
func NewVehicle(plateNumber, brand, model string, dailyRate int64) (*Vehicle, error) {
	plateNumber = strings.ToUpper(strings.TrimSpace(plateNumber))
	if plateNumber == "" {
		return nil, apperror.NewValidationError("plate number is required")
	}
	if dailyRate <= 0 {
		return nil, apperror.NewValidationError("daily rate must be positive")
	}

	now := time.Now().UTC()
	return &Vehicle{
		id:           uuid.New(),
		plateNumber:  plateNumber,
		brand:        brand,
		model:        model,
		dailyRate:    dailyRate,
		availability: AvailabilityAvailable,
		version:      1,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// Reconstruct rebuilds a Vehicle from persistence data (no validation).
func Reconstruct(
	id uuid.UUID,
	plateNumber, brand, model string,
	dailyRate int64,
	availability Availability,
	version int64,
	createdAt, updatedAt time.Time,
) *Vehicle {
	return &Vehicle{
		id:           id,
		plateNumber:  plateNumber,
		brand:        brand,
		model:        model,
		dailyRate:    dailyRate,
		availability: availability,
		version:      version,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

// --- Getters ---

func (v *Vehicle) ID() uuid.UUID { return v.id }
func (v *Vehicle) PlateNumber() string { return v.plateNumber }
func (v *Vehicle) Brand() string { return v.brand }
func (v *Vehicle) Model() string { return v.model }
func (v *Vehicle) DailyRate() int64 { return v.dailyRate }
func (v *Vehicle) Availability() Availability { return v.availability }
func (v *Vehicle) Version() int64 { return v.version }
func (v *Vehicle) CreatedAt() time.Time { return v.createdAt }
func (v *Vehicle) UpdatedAt() time.Time { return v.updatedAt }

// --- Behavior ---

// IsAvailable returns true if no active booking holds the vehicle.
func (v *Vehicle) IsAvailable() bool {
	return v.availability == AvailabilityAvailable
}

// ChangeDailyRate sets a new rate. Pending extensions are re-priced with it on rejection.
func (v *Vehicle) ChangeDailyRate(rate int64) error {
	if rate <= 0 {
		return apperror.NewValidationError("daily rate must be positive")
	}
	v.dailyRate = rate
	v.version++
	v.updatedAt = time.Now().UTC()
	return nil
}
