package application

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	bookingDomain "github.com/ja-rental/service-rental/internal/domain/booking"
	"github.com/ja-rental/service-rental/internal/domain/payment"
	vehicleDomain "github.com/ja-rental/service-rental/internal/domain/vehicle"
)

func TestReconciler_RunOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	heldVeh := env.addVehicle(t, 1000)
	freedVeh := env.addVehicle(t, 1000)
	sharedVeh := env.addVehicle(t, 1000)

	active := env.seedBooking(t, uuid.New(), heldVeh.ID(), bookingDomain.StatusConfirmed, 5000)
	env.seedBooking(t, uuid.New(), freedVeh.ID(), bookingDomain.StatusCompleted, 5000)
	env.seedBooking(t, uuid.New(), sharedVeh.ID(), bookingDomain.StatusCancelled, 5000)
	env.seedBooking(t, uuid.New(), sharedVeh.ID(), bookingDomain.StatusPending, 5000)

	// Drift left by failed side effects.
	p, err := payment.NewPayment(uuid.Nil, active.ID(), active.CustomerID(), 1500, "cash", nil, "")
	require.NoError(t, err)
	require.NoError(t, env.payments.Append(ctx, p))
	require.NoError(t, env.vehicles.SetAvailability(ctx, heldVeh.ID(), vehicleDomain.AvailabilityAvailable))

	report, err := NewReconciler(env.svc, env.loc, zap.NewNop()).RunOnce(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, report.ActiveBookings)
	assert.Equal(t, 1, report.BalancesFixed)
	assert.Equal(t, 2, report.VehiclesHeld)
	assert.Equal(t, 1, report.VehiclesReleased)
	assert.Zero(t, report.Failures)

	assert.Equal(t, vehicleDomain.AvailabilityUnavailable, env.vehicles.availability(heldVeh.ID()))
	assert.Equal(t, vehicleDomain.AvailabilityAvailable, env.vehicles.availability(freedVeh.ID()))
	assert.Equal(t, vehicleDomain.AvailabilityUnavailable, env.vehicles.availability(sharedVeh.ID()))
	assert.Equal(t, int64(3500), env.load(t, active.ID()).Balance())
	env.assertLedgerInvariant(t, active.ID())
}

func TestReconciler_CountsAvailabilityFailures(t *testing.T) {
	env := newTestEnv(t)
	veh := env.addVehicle(t, 1000)
	env.seedBooking(t, uuid.New(), veh.ID(), bookingDomain.StatusInProgress, 5000)
	env.vehicles.failFlag = true

	report, err := NewReconciler(env.svc, env.loc, zap.NewNop()).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failures)
	assert.Zero(t, report.VehiclesHeld)
}

func TestReconciler_StartRejectsBadSchedule(t *testing.T) {
	env := newTestEnv(t)
	r := NewReconciler(env.svc, env.loc, zap.NewNop())
	assert.Error(t, r.Start("not a schedule"))
}

func TestVehicleService(t *testing.T) {
	ctx := context.Background()
	repo := newMemVehicleRepo()
	svc := NewVehicleService(repo, zap.NewNop())

	created, err := svc.CreateVehicle(ctx, CreateVehicleRequest{PlateNumber: "nbc 1234", Brand: "Toyota", Model: "Innova", DailyRate: 2500})
	require.NoError(t, err)
	assert.Equal(t, "NBC 1234", created.PlateNumber)
	assert.Equal(t, "Available", created.Availability)

	updated, err := svc.UpdateDailyRate(ctx, created.ID, UpdateRateRequest{DailyRate: 3000})
	require.NoError(t, err)
	assert.Equal(t, int64(3000), updated.DailyRate)

	require.NoError(t, repo.SetAvailability(ctx, created.ID, vehicleDomain.AvailabilityUnavailable))
	available, err := svc.ListVehicles(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, available)

	all, err := svc.ListVehicles(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = svc.GetVehicle(ctx, uuid.New())
	assert.Error(t, err)
}
