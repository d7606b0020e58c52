package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	vehicleDomain "github.com/ja-rental/service-rental/internal/domain/vehicle"
)

// CreateVehicleRequest is the request DTO for registering a vehicle.
type CreateVehicleRequest struct {
	PlateNumber string `json:"plate_number" binding:"required"`
	Brand       string `json:"brand"`
	Model       string `json:"model"`
	DailyRate   int64  `json:"daily_rate" binding:"required,gt=0"`
}

// UpdateRateRequest is the request DTO for changing a vehicle's daily rate.
type UpdateRateRequest struct {
	DailyRate int64 `json:"daily_rate" binding:"required,gt=0"`
}

// VehicleDTO is the API response representation of a vehicle.
type VehicleDTO struct {
	ID           uuid.UUID `json:"id"`
	PlateNumber  string    `json:"plate_number"`
	Brand        string    `json:"brand,omitempty"`
	Model        string    `json:"model,omitempty"`
	DailyRate    int64     `json:"daily_rate"`
	Availability string    `json:"availability"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// VehicleService implements the minimal vehicle directory the booking core depends on.
type VehicleService struct {
	repo   vehicleDomain.VehicleRepository
	logger *zap.Logger
}

// NewVehicleService creates a new VehicleService.
func NewVehicleService(repo vehicleDomain.VehicleRepository, logger *zap.Logger) *VehicleService {
	return &VehicleService{repo: repo, logger: logger}
}

// CreateVehicle registers an available vehicle.
func (s *VehicleService) CreateVehicle(ctx context.Context, req CreateVehicleRequest) (*VehicleDTO, error) {
	v, err := vehicleDomain.NewVehicle(req.PlateNumber, req.Brand, req.Model, req.DailyRate)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, v); err != nil {
		s.logger.Error("failed to create vehicle", zap.Error(err))
		return nil, fmt.Errorf("failed to create vehicle: %w", err)
	}

	s.logger.Info("vehicle registered",
		zap.String("vehicle_id", v.ID().String()),
		zap.String("plate_number", v.PlateNumber()),
	)
	result := toVehicleDTO(v)
	return &result, nil
}

// GetVehicle returns a single vehicle.
func (s *VehicleService) GetVehicle(ctx context.Context, id uuid.UUID) (*VehicleDTO, error) {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result := toVehicleDTO(v)
	return &result, nil
}

// ListVehicles returns the directory, optionally only available vehicles.
func (s *VehicleService) ListVehicles(ctx context.Context, onlyAvailable bool) ([]VehicleDTO, error) {
	vehicles, err := s.repo.List(ctx, onlyAvailable)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}
	dtos := make([]VehicleDTO, len(vehicles))
	for i, v := range vehicles {
		dtos[i] = toVehicleDTO(v)
	}
	return dtos, nil
}

// UpdateDailyRate changes the rate used for new bookings and extensions.
func (s *VehicleService) UpdateDailyRate(ctx context.Context, id uuid.UUID, req UpdateRateRequest) (*VehicleDTO, error) {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := v.ChangeDailyRate(req.DailyRate); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, v); err != nil {
		return nil, err
	}
	result := toVehicleDTO(v)
	return &result, nil
}

func toVehicleDTO(v *vehicleDomain.Vehicle) VehicleDTO {
	return VehicleDTO{
		ID:           v.ID(),
		PlateNumber:  v.PlateNumber(),
		Brand:        v.Brand(),
		Model:        v.Model(),
		DailyRate:    v.DailyRate(),
		Availability: string(v.Availability()),
		CreatedAt:    v.CreatedAt(),
		UpdatedAt:    v.UpdatedAt(),
	}
}
