package booking

import (
	"fmt"
	"time"
)

const day = 24 * time.Hour

// PricingStrategy defines the interface for calculating rental prices.
type PricingStrategy interface {
	// Calculate returns the rental price in whole currency units.
	Calculate(params PricingParams) (int64, error)
}

// PricingParams holds the inputs for price calculation.
type PricingParams struct {
	DailyRate int64
	StartDate time.Time
	EndDate   time.Time
}

// DailyRatePricing charges the vehicle's daily rate for every started day.
type DailyRatePricing struct{}

// NewDailyRatePricing creates a new DailyRatePricing.
func NewDailyRatePricing() *DailyRatePricing {
	return &DailyRatePricing{}
}

// Calculate computes rate × days, where a rental shorter than a day is billed as one day.
func (DailyRatePricing) Calculate(params PricingParams) (int64, error) {
	if params.DailyRate < 0 {
		return 0, fmt.Errorf("daily rate cannot be negative")
	}
	if !params.EndDate.After(params.StartDate) {
		return 0, fmt.Errorf("end date must be after start date")
	}
	days := CeilDays(params.StartDate, params.EndDate)
	if days < 1 {
		days = 1
	}
	return days * params.DailyRate, nil
}

// CeilDays returns ceil((to − from) / 24h), or 0 when to is not after from.
func CeilDays(from, to time.Time) int64 {
	d := to.Sub(from)
	if d <= 0 {
		return 0
	}
	return int64((d + day - 1) / day)
}

// ExtensionCost prices moving the end date from currentEnd to newEnd.
func ExtensionCost(currentEnd, newEnd time.Time, dailyRate int64) (days, cost int64) {
	days = CeilDays(currentEnd, newEnd)
	return days, days * dailyRate
}
