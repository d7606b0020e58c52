package application

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ja-rental/service-rental/internal/common/apperror"
	bookingDomain "github.com/ja-rental/service-rental/internal/domain/booking"
)

const (
	defaultPickupClock  = "09:00"
	defaultDropoffClock = "17:00"
)

// CreateBookingRequest is the one canonical shape a new booking enters the core with.
type CreateBookingRequest struct {
	VehicleID        uuid.UUID  `json:"vehicle_id"`
	DriverID         *uuid.UUID `json:"driver_id,omitempty"`
	Purpose          string     `json:"purpose"`
	StartDate        string     `json:"start_date"`
	EndDate          string     `json:"end_date"`
	PickupTime       string     `json:"pickup_time"`
	DropoffTime      string     `json:"dropoff_time"`
	PickupLocation   string     `json:"pickup_location"`
	DropoffLocation  string     `json:"dropoff_location"`
	DeliveryLocation string     `json:"delivery_location"`
	SelfDrive        bool       `json:"self_drive"`
	Delivery         bool       `json:"delivery"`
	TotalAmount      int64      `json:"total_amount"`
}

// BookingRequestPayload is what the booking form actually sends. The web client
// uses camelCase aliases for several fields; Normalize folds them into
// CreateBookingRequest, preferring the canonical name when both are present.
type BookingRequestPayload struct {
	VehicleID        string `json:"vehicle_id"`
	CarID            string `json:"carId"`
	DriverID         string `json:"driver_id"`
	DriverIDAlias    string `json:"driverId"`
	Purpose          string `json:"purpose"`
	StartDate        string `json:"start_date"`
	StartDateAlias   string `json:"startDate"`
	EndDate          string `json:"end_date"`
	EndDateAlias     string `json:"endDate"`
	PickupTime       string `json:"pickup_time"`
	PickupTimeAlias  string `json:"pickupTime"`
	DropoffTime      string `json:"dropoff_time"`
	DropoffTimeAlias string `json:"dropoffTime"`
	PickupLocation   string `json:"pickup_location"`
	DropoffLocation  string `json:"dropoff_location"`
	DeliveryLocation string `json:"delivery_location"`
	DeliveryAlias    string `json:"deliveryLocation"`
	SelfDrive        *bool  `json:"self_drive"`
	IsSelfDrive      *bool  `json:"isSelfDrive"`
	Delivery         *bool  `json:"delivery"`
	IsDelivery       *bool  `json:"isDelivery"`
	TotalAmount      *int64 `json:"total_amount"`
	TotalCost        *int64 `json:"totalCost"`
}

// Normalize resolves aliases into the canonical request.
func (p BookingRequestPayload) Normalize() (CreateBookingRequest, error) {
	vehicleRaw := firstNonEmpty(p.VehicleID, p.CarID)
	if vehicleRaw == "" {
		return CreateBookingRequest{}, apperror.NewValidationError("vehicle_id is required")
	}
	vehicleID, err := uuid.Parse(vehicleRaw)
	if err != nil {
		return CreateBookingRequest{}, apperror.NewValidationError("invalid vehicle_id")
	}

	req := CreateBookingRequest{
		VehicleID:        vehicleID,
		Purpose:          strings.TrimSpace(p.Purpose),
		StartDate:        firstNonEmpty(p.StartDate, p.StartDateAlias),
		EndDate:          firstNonEmpty(p.EndDate, p.EndDateAlias),
		PickupTime:       firstNonEmpty(p.PickupTime, p.PickupTimeAlias),
		DropoffTime:      firstNonEmpty(p.DropoffTime, p.DropoffTimeAlias),
		PickupLocation:   p.PickupLocation,
		DropoffLocation:  p.DropoffLocation,
		DeliveryLocation: firstNonEmpty(p.DeliveryLocation, p.DeliveryAlias),
		SelfDrive:        firstBool(p.SelfDrive, p.IsSelfDrive, true),
		Delivery:         firstBool(p.Delivery, p.IsDelivery, false),
	}

	if driverRaw := firstNonEmpty(p.DriverID, p.DriverIDAlias); driverRaw != "" && !req.SelfDrive {
		driverID, err := uuid.Parse(driverRaw)
		if err != nil {
			return CreateBookingRequest{}, apperror.NewValidationError("invalid driver_id")
		}
		req.DriverID = &driverID
	}

	switch {
	case p.TotalAmount != nil:
		req.TotalAmount = *p.TotalAmount
	case p.TotalCost != nil:
		req.TotalAmount = *p.TotalCost
	}
	if req.TotalAmount < 0 {
		return CreateBookingRequest{}, apperror.NewValidationError("total_amount cannot be negative")
	}
	return req, nil
}

// rentalWindow is the resolved time window of a request.
type rentalWindow struct {
	start, end, pickup, dropoff time.Time
}

// resolveWindow parses dates and clock times in loc. A bare date takes the
// default pickup or dropoff time; an RFC 3339 timestamp is used as is.
func resolveWindow(startDate, endDate, pickupClock, dropoffClock string, loc *time.Location) (rentalWindow, error) {
	if pickupClock == "" {
		pickupClock = defaultPickupClock
	}
	if dropoffClock == "" {
		dropoffClock = defaultDropoffClock
	}
	start, err := parseDateTime(startDate, pickupClock, loc)
	if err != nil {
		return rentalWindow{}, apperror.NewValidationError(fmt.Sprintf("invalid start date: %v", err))
	}
	end, err := parseDateTime(endDate, dropoffClock, loc)
	if err != nil {
		return rentalWindow{}, apperror.NewValidationError(fmt.Sprintf("invalid end date: %v", err))
	}
	if !end.After(start) {
		return rentalWindow{}, apperror.NewValidationError("end date must be after start date")
	}
	return rentalWindow{start: start, end: end, pickup: start, dropoff: end}, nil
}

func parseDateTime(date, clock string, loc *time.Location) (time.Time, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	if t, err := time.Parse(time.RFC3339, date); err == nil {
		return t.In(loc), nil
	}
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return time.Time{}, err
	}
	hh, mm, err := parseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hh, mm, 0, 0, loc), nil
}

func parseClock(clock string) (int, int, error) {
	clock = strings.TrimSpace(clock)
	for _, layout := range []string{"15:04", "15:04:05", "3:04 PM", "3:04PM"} {
		if t, err := time.Parse(layout, clock); err == nil {
			return t.Hour(), t.Minute(), nil
		}
	}
	return 0, 0, fmt.Errorf("invalid time of day %q", clock)
}

// ParseEndDate parses a proposed end date. A bare date keeps the booking's
// current dropoff time of day.
func ParseEndDate(value string, current time.Time, loc *time.Location) (time.Time, error) {
	local := current.In(loc)
	t, err := parseDateTime(value, local.Format("15:04"), loc)
	if err != nil {
		return time.Time{}, apperror.NewValidationError(fmt.Sprintf("invalid new end date: %v", err))
	}
	return t, nil
}

func (r CreateBookingRequest) locations() bookingDomain.Locations {
	return bookingDomain.NewLocations(r.PickupLocation, r.DropoffLocation, r.DeliveryLocation, r.Delivery)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func firstBool(a, b *bool, fallback bool) bool {
	if a != nil {
		return *a
	}
	if b != nil {
		return *b
	}
	return fallback
}
