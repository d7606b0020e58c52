package vehicle

import (
	"context"

	"github.com/google/uuid"
)

// VehicleRepository defines persistence operations for the vehicle directory.
type VehicleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Vehicle, error)
	List(ctx context.Context, onlyAvailable bool) ([]*Vehicle, error)
	Save(ctx context.Context, vehicle *Vehicle) error
	Update(ctx context.Context, vehicle *Vehicle) error
	// SetAvailability writes the flag alone, keyed by primary key.
	SetAvailability(ctx context.Context, id uuid.UUID, availability Availability) error
}
