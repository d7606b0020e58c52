//go:build integration

package main_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja-rental/service-rental/internal/application"
	"github.com/ja-rental/service-rental/internal/common/auth"
)

// TestPaymentReceived_ConfirmsBooking publishes a verified payment on
// payment.events and expects the booking to settle and be confirmed.
func TestPaymentReceived_ConfirmsBooking(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupRentalStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	ctx := context.Background()
	vehicle, err := stack.Vehicles.CreateVehicle(ctx, application.CreateVehicleRequest{
		PlateNumber: "NCR 4521",
		Brand:       "Toyota",
		Model:       "Innova",
		DailyRate:   1500,
	})
	require.NoError(t, err)

	customerID := uuid.New()
	booking, err := stack.Bookings.CreateBooking(ctx, customerID, application.CreateBookingRequest{
		VehicleID:      vehicle.ID,
		Purpose:        "Family trip",
		StartDate:      "2030-03-01",
		EndDate:        "2030-03-04",
		PickupLocation: "Main office",
		SelfDrive:      true,
	})
	require.NoError(t, err)
	require.Equal(t, "Pending", booking.Status)
	require.Positive(t, booking.TotalAmount)

	// Start the consumer.
	consumerCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = stack.Consumer.Start(consumerCtx) }()
	time.Sleep(3 * time.Second) // Wait for consumer group join.

	paymentID := uuid.New()
	publishTestEvent(t, infra.KafkaBrokers, application.TopicPaymentEvents,
		"service-payment", application.EventPaymentReceived, application.PaymentReceivedEvent{
			PaymentID:  paymentID,
			BookingID:  booking.ID,
			CustomerID: customerID,
			Amount:     booking.TotalAmount,
			Method:     "gcash",
			Reference:  "GC-0001",
		})

	model := waitForBookingStatus(t, infra.DB, booking.ID, "Confirmed", 15*time.Second)
	assert.Equal(t, int64(0), model.Balance)
	assert.Equal(t, "Paid", model.PaymentStatus)
	assert.False(t, model.PaymentTrigger)

	ce := consumeOneEvent(t, infra.KafkaBrokers, application.TopicBookingEvents,
		application.EventBookingConfirmed, 15*time.Second)

	var confirmed application.BookingEvent
	require.NoError(t, ce.ParseData(&confirmed))
	assert.Equal(t, booking.ID, confirmed.BookingID)
	assert.Equal(t, "Confirmed", confirmed.Status)

	history, err := stack.Bookings.GetBookingHistory(ctx, booking.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, history.Payments)

	dto, err := stack.Bookings.GetBooking(ctx, booking.ID, customerID, auth.RoleCustomer)
	require.NoError(t, err)
	require.NotNil(t, dto.TotalPaid)
	assert.Equal(t, booking.TotalAmount, *dto.TotalPaid)
}
