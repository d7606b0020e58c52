package application

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ja-rental/service-rental/internal/common/apperror"
	vehicleDomain "github.com/ja-rental/service-rental/internal/domain/vehicle"
)

// AvailabilityGate keeps a vehicle's availability in lock-step with its booking.
// It runs after the booking write has committed; a failure here leaves a stale
// flag for the reconciliation pass and never fails the caller.
type AvailabilityGate struct {
	vehicles vehicleDomain.VehicleRepository
	logger   *zap.Logger
}

// NewAvailabilityGate creates a new AvailabilityGate.
func NewAvailabilityGate(vehicles vehicleDomain.VehicleRepository, logger *zap.Logger) *AvailabilityGate {
	return &AvailabilityGate{vehicles: vehicles, logger: logger}
}

// OnBookingActivated marks the vehicle unavailable.
func (g *AvailabilityGate) OnBookingActivated(ctx context.Context, vehicleID uuid.UUID) {
	_ = g.Set(ctx, vehicleID, vehicleDomain.AvailabilityUnavailable)
}

// OnBookingResolved marks the vehicle available after cancellation, completion or deletion.
func (g *AvailabilityGate) OnBookingResolved(ctx context.Context, vehicleID uuid.UUID) {
	_ = g.Set(ctx, vehicleID, vehicleDomain.AvailabilityAvailable)
}

// Set writes the flag and returns a DependencyFailure when it could not.
func (g *AvailabilityGate) Set(ctx context.Context, vehicleID uuid.UUID, availability vehicleDomain.Availability) error {
	if err := g.vehicles.SetAvailability(ctx, vehicleID, availability); err != nil {
		depErr := apperror.NewDependencyError("failed to update vehicle availability", err)
		g.logger.Error("availability gate failed",
			zap.String("vehicle_id", vehicleID.String()),
			zap.String("availability", string(availability)),
			zap.String("kind", string(depErr.Kind)),
			zap.Error(err),
		)
		return depErr
	}
	return nil
}
