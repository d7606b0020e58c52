package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	bookingDomain "github.com/ja-rental/service-rental/internal/domain/booking"
	vehicleDomain "github.com/ja-rental/service-rental/internal/domain/vehicle"
)

// DefaultReconcileSchedule runs the pass every night at 02:00.
const DefaultReconcileSchedule = "0 2 * * *"

// ReconcileReportDTO summarises one reconciliation pass.
type ReconcileReportDTO struct {
	ActiveBookings   int       `json:"active_bookings"`
	BalancesFixed    int       `json:"balances_fixed"`
	VehiclesHeld     int       `json:"vehicles_held"`
	VehiclesReleased int       `json:"vehicles_released"`
	Failures         int       `json:"failures"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
}

// Reconciler is the corrective pass for side effects that failed after a
// booking write: it re-derives balances from the ledger and re-asserts vehicle
// availability.
type Reconciler struct {
	service *BookingService
	cron    *cron.Cron
	timeout time.Duration
	logger  *zap.Logger
}

// NewReconciler creates a Reconciler whose schedule runs in loc.
func NewReconciler(service *BookingService, loc *time.Location, logger *zap.Logger) *Reconciler {
	if loc == nil {
		loc = time.UTC
	}
	return &Reconciler{
		service: service,
		cron:    cron.New(cron.WithLocation(loc)),
		timeout: 5 * time.Minute,
		logger:  logger,
	}
}

// Start schedules the pass. The schedule is a standard five-field cron expression.
func (r *Reconciler) Start(schedule string) error {
	if schedule == "" {
		schedule = DefaultReconcileSchedule
	}
	if _, err := r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		if _, err := r.RunOnce(ctx); err != nil {
			r.logger.Error("scheduled reconciliation failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}
	r.cron.Start()
	r.logger.Info("reconciliation scheduler started", zap.String("schedule", schedule))
	return nil
}

// Stop halts the scheduler and waits for a running pass to finish.
func (r *Reconciler) Stop() {
	<-r.cron.Stop().Done()
}

// RunOnce performs one pass over every booking.
func (r *Reconciler) RunOnce(ctx context.Context) (*ReconcileReportDTO, error) {
	report := &ReconcileReportDTO{StartedAt: time.Now().UTC()}
	s := r.service

	active, err := s.repo.ListByStatus(ctx, bookingDomain.StatusPending, bookingDomain.StatusConfirmed, bookingDomain.StatusInProgress)
	if err != nil {
		return nil, err
	}
	report.ActiveBookings = len(active)

	held := make(map[uuid.UUID]struct{}, len(active))
	for _, bk := range active {
		before := bk.Balance()
		fresh, _, err := s.reconcile(ctx, bk.ID())
		if err != nil {
			report.Failures++
			r.logger.Warn("failed to reconcile booking balance",
				zap.String("booking_id", bk.ID().String()),
				zap.Error(err),
			)
			fresh = bk
		} else if fresh.Balance() != before {
			report.BalancesFixed++
		}

		if _, seen := held[fresh.VehicleID()]; seen {
			continue
		}
		held[fresh.VehicleID()] = struct{}{}
		if err := s.gate.Set(ctx, fresh.VehicleID(), vehicleDomain.AvailabilityUnavailable); err != nil {
			report.Failures++
			continue
		}
		report.VehiclesHeld++
	}

	resolved, err := s.repo.ListByStatus(ctx, bookingDomain.StatusCompleted, bookingDomain.StatusCancelled)
	if err != nil {
		return nil, err
	}
	released := make(map[uuid.UUID]struct{})
	for _, bk := range resolved {
		vehicleID := bk.VehicleID()
		if _, ok := held[vehicleID]; ok {
			continue
		}
		if _, ok := released[vehicleID]; ok {
			continue
		}
		released[vehicleID] = struct{}{}
		if err := s.gate.Set(ctx, vehicleID, vehicleDomain.AvailabilityAvailable); err != nil {
			report.Failures++
			continue
		}
		report.VehiclesReleased++
	}

	report.FinishedAt = time.Now().UTC()
	r.logger.Info("reconciliation pass finished",
		zap.Int("active_bookings", report.ActiveBookings),
		zap.Int("balances_fixed", report.BalancesFixed),
		zap.Int("vehicles_held", report.VehiclesHeld),
		zap.Int("vehicles_released", report.VehiclesReleased),
		zap.Int("failures", report.Failures),
	)
	return report, nil
}
