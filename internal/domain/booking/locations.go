package booking

import "strings"

// DefaultOfficeLocation is used when the customer picks up or returns at the office.
const DefaultOfficeLocation = "JA Car Rental Office"

// Locations is an immutable value object describing where the vehicle changes hands.
type Locations struct {
	Pickup   string `json:"pickup"`
	Dropoff  string `json:"dropoff"`
	Delivery string `json:"delivery,omitempty"`
}

// NewLocations fills blanks with the office and keeps a delivery address only for deliveries.
func NewLocations(pickup, dropoff, delivery string, isDelivery bool) Locations {
	pickup = strings.TrimSpace(pickup)
	dropoff = strings.TrimSpace(dropoff)
	delivery = strings.TrimSpace(delivery)

	if isDelivery && pickup == "" {
		pickup = delivery
	}
	if pickup == "" {
		pickup = DefaultOfficeLocation
	}
	if dropoff == "" {
		dropoff = DefaultOfficeLocation
	}
	if !isDelivery {
		delivery = ""
	} else if delivery == "" {
		delivery = pickup
	}
	return Locations{Pickup: pickup, Dropoff: dropoff, Delivery: delivery}
}
