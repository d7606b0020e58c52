package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ja-rental/service-rental/internal/common/apperror"
	"github.com/ja-rental/service-rental/internal/common/auth"
	bookingDomain "github.com/ja-rental/service-rental/internal/domain/booking"
	"github.com/ja-rental/service-rental/internal/domain/history"
	"github.com/ja-rental/service-rental/internal/domain/payment"
	vehicleDomain "github.com/ja-rental/service-rental/internal/domain/vehicle"
)

// DefaultConfirmationThreshold is the cumulative payment that confirms a Pending booking.
const DefaultConfirmationThreshold int64 = 1000

const maxUpdateAttempts = 3

// errUnchanged lets a mutation skip the write when nothing changed.
var errUnchanged = errors.New("booking unchanged")

// BookingSettings holds the business knobs of the booking core.
type BookingSettings struct {
	ConfirmationThreshold int64
	Location              *time.Location
}

// UpdateBookingRequest holds the fields a customer may change on a Pending booking.
type UpdateBookingRequest struct {
	Purpose          *string    `json:"purpose"`
	StartDate        *string    `json:"start_date"`
	EndDate          *string    `json:"end_date"`
	PickupTime       *string    `json:"pickup_time"`
	DropoffTime      *string    `json:"dropoff_time"`
	PickupLocation   *string    `json:"pickup_location"`
	DropoffLocation  *string    `json:"dropoff_location"`
	DeliveryLocation *string    `json:"delivery_location"`
	SelfDrive        *bool      `json:"self_drive"`
	DriverID         *uuid.UUID `json:"driver_id"`
	TotalAmount      *int64     `json:"total_amount"`
}

// AdminUpdateRequest is a raw field-level correction.
type AdminUpdateRequest struct {
	Status         *string    `json:"status"`
	StartDate      *time.Time `json:"start_date"`
	EndDate        *time.Time `json:"end_date"`
	TotalAmount    *int64     `json:"total_amount"`
	Balance        *int64     `json:"balance"`
	PaymentStatus  *string    `json:"payment_status"`
	PaymentTrigger *bool      `json:"payment_trigger"`
	ClearPending   bool       `json:"clear_pending"`
	Purpose        *string    `json:"purpose"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID               uuid.UUID               `json:"id"`
	BookingNumber    string                  `json:"booking_number"`
	CustomerID       uuid.UUID               `json:"customer_id"`
	VehicleID        uuid.UUID               `json:"vehicle_id"`
	DriverID         *uuid.UUID              `json:"driver_id,omitempty"`
	Purpose          string                  `json:"purpose"`
	StartDate        time.Time               `json:"start_date"`
	EndDate          time.Time               `json:"end_date"`
	PickupTime       time.Time               `json:"pickup_time"`
	DropoffTime      time.Time               `json:"dropoff_time"`
	Locations        bookingDomain.Locations `json:"locations"`
	SelfDrive        bool                    `json:"self_drive"`
	Delivery         bool                    `json:"delivery"`
	Status           string                  `json:"status"`
	PendingRequest   string                  `json:"pending_request,omitempty"`
	ProposedEndDate  *time.Time              `json:"proposed_end_date,omitempty"`
	CancelRequested  bool                    `json:"cancel_requested"`
	ExtendRequested  bool                    `json:"extend_requested"`
	PaymentTrigger   bool                    `json:"payment_confirmed_pending_apply"`
	TotalAmount      int64                   `json:"total_amount"`
	Balance          int64                   `json:"balance"`
	PaymentStatus    string                  `json:"payment_status"`
	TotalPaid        *int64                  `json:"total_paid,omitempty"`
	RemainingBalance *int64                  `json:"remaining_balance,omitempty"`
	Version          int64                   `json:"version"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

// BookingStatsDTO holds booking statistics for the staff dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// BackfillResultDTO reports a placeholder backfill run.
type BackfillResultDTO struct {
	Scanned int `json:"scanned"`
	Created int `json:"created"`
}

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	repo     bookingDomain.BookingRepository
	payments payment.PaymentRepository
	vehicles vehicleDomain.VehicleRepository
	pricing  bookingDomain.PricingStrategy
	gate     *AvailabilityGate
	recorder *TransactionRecorder
	history  history.HistoryRepository
	events   eventBus
	settings BookingSettings
	logger   *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	repo bookingDomain.BookingRepository,
	payments payment.PaymentRepository,
	vehicles vehicleDomain.VehicleRepository,
	historyRepo history.HistoryRepository,
	pricing bookingDomain.PricingStrategy,
	producer EventPublisher,
	settings BookingSettings,
	logger *zap.Logger,
) *BookingService {
	if settings.ConfirmationThreshold <= 0 {
		settings.ConfirmationThreshold = DefaultConfirmationThreshold
	}
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	return &BookingService{
		repo:     repo,
		payments: payments,
		vehicles: vehicles,
		pricing:  pricing,
		gate:     NewAvailabilityGate(vehicles, logger),
		recorder: NewTransactionRecorder(historyRepo, settings.Location, logger),
		history:  historyRepo,
		events:   eventBus{producer: producer, logger: logger},
		settings: settings,
		logger:   logger,
	}
}

// Gate exposes the availability gate for the reconciliation pass.
func (s *BookingService) Gate() *AvailabilityGate { return s.gate }

// CreateBooking creates a Pending booking, its placeholder payment, and takes the vehicle.
func (s *BookingService) CreateBooking(ctx context.Context, customerID uuid.UUID, req CreateBookingRequest) (*BookingDTO, error) {
	veh, err := s.vehicles.FindByID(ctx, req.VehicleID)
	if err != nil {
		return nil, err
	}
	if !veh.IsAvailable() {
		return nil, apperror.NewInvalidStateErrorf("VEHICLE_UNAVAILABLE", "vehicle %s is not available", veh.PlateNumber())
	}

	window, err := resolveWindow(req.StartDate, req.EndDate, req.PickupTime, req.DropoffTime, s.settings.Location)
	if err != nil {
		return nil, err
	}

	total := req.TotalAmount
	if total == 0 {
		total, err = s.pricing.Calculate(bookingDomain.PricingParams{
			DailyRate: veh.DailyRate(),
			StartDate: window.start,
			EndDate:   window.end,
		})
		if err != nil {
			return nil, apperror.NewValidationError(fmt.Sprintf("pricing error: %v", err))
		}
	}

	bk, err := bookingDomain.NewBooking(bookingDomain.NewBookingParams{
		CustomerID:  customerID,
		VehicleID:   veh.ID(),
		DriverID:    req.DriverID,
		Purpose:     req.Purpose,
		StartDate:   window.start,
		EndDate:     window.end,
		PickupTime:  window.pickup,
		DropoffTime: window.dropoff,
		Locations:   req.locations(),
		SelfDrive:   req.SelfDrive,
		Delivery:    req.Delivery,
		TotalAmount: total,
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, bk); err != nil {
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}

	if err := s.payments.Append(ctx, payment.NewPlaceholder(bk.ID(), customerID)); err != nil {
		s.logger.Error("failed to create placeholder payment",
			zap.String("booking_id", bk.ID().String()),
			zap.String("kind", string(apperror.KindDependencyFailure)),
			zap.Error(err),
		)
	}
	s.gate.OnBookingActivated(ctx, bk.VehicleID())
	s.publish(ctx, EventBookingCreated, bk, nil)

	s.logger.Info("booking created",
		zap.String("booking_id", bk.ID().String()),
		zap.String("booking_number", bk.BookingNumber()),
		zap.Int64("total_amount", bk.TotalAmount()),
	)

	result := toBookingDTO(bk)
	return &result, nil
}

// GetBooking retrieves a booking, reconciling its balance against the ledger.
// Customers may only read their own bookings.
func (s *BookingService) GetBooking(ctx context.Context, bookingID, actorID uuid.UUID, role auth.Role) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !role.IsStaff() && !bk.IsOwnedBy(actorID) {
		return nil, apperror.NewForbiddenError("booking does not belong to this user")
	}

	bk, summary, err := s.reconcile(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	result := toBookingDTOWithLedger(bk, summary)
	return &result, nil
}

// GetCustomerBookings retrieves paginated bookings for a customer.
func (s *BookingService) GetCustomerBookings(ctx context.Context, customerID uuid.UUID, page, limit int) ([]BookingDTO, int64, error) {
	bookings, total, err := s.repo.FindByCustomerID(ctx, customerID, page, limit)
	if err != nil {
		return nil, 0, err
	}
	return s.withLedger(ctx, bookings), total, nil
}

// ListAllBookings returns a paginated list of all bookings (staff).
func (s *BookingService) ListAllBookings(ctx context.Context, page, limit int) ([]BookingDTO, int64, error) {
	bookings, total, err := s.repo.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	return s.withLedger(ctx, bookings), total, nil
}

// UpdateBooking applies a customer's edit to their own Pending booking. When the
// window moves and no total is supplied, the total is re-priced at the vehicle rate.
func (s *BookingService) UpdateBooking(ctx context.Context, bookingID, actorID uuid.UUID, req UpdateBookingRequest) (*BookingDTO, error) {
	bk, err := s.mutate(ctx, bookingID, func(bk *bookingDomain.Booking) error {
		upd, err := s.buildDetailsUpdate(ctx, bk, req)
		if err != nil {
			return err
		}
		paid, err := s.totalPaid(ctx, bk.ID())
		if err != nil {
			return err
		}
		return bk.UpdateDetails(actorID, upd, paid)
	})
	if err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

func (s *BookingService) buildDetailsUpdate(ctx context.Context, bk *bookingDomain.Booking, req UpdateBookingRequest) (bookingDomain.DetailsUpdate, error) {
	upd := bookingDomain.DetailsUpdate{
		Purpose:     req.Purpose,
		SelfDrive:   req.SelfDrive,
		DriverID:    req.DriverID,
		TotalAmount: req.TotalAmount,
	}

	if req.StartDate != nil || req.EndDate != nil || req.PickupTime != nil || req.DropoffTime != nil {
		loc := s.settings.Location
		startDate := bk.StartDate().In(loc).Format("2006-01-02")
		endDate := bk.EndDate().In(loc).Format("2006-01-02")
		pickup := bk.PickupTime().In(loc).Format("15:04")
		dropoff := bk.DropoffTime().In(loc).Format("15:04")
		if req.StartDate != nil {
			startDate = *req.StartDate
		}
		if req.EndDate != nil {
			endDate = *req.EndDate
		}
		if req.PickupTime != nil {
			pickup = *req.PickupTime
		}
		if req.DropoffTime != nil {
			dropoff = *req.DropoffTime
		}
		window, err := resolveWindow(startDate, endDate, pickup, dropoff, loc)
		if err != nil {
			return upd, err
		}
		upd.StartDate, upd.EndDate = &window.start, &window.end
		upd.PickupTime, upd.DropoffTime = &window.pickup, &window.dropoff

		if req.TotalAmount == nil {
			veh, err := s.vehicles.FindByID(ctx, bk.VehicleID())
			if err != nil {
				return upd, err
			}
			total, err := s.pricing.Calculate(bookingDomain.PricingParams{
				DailyRate: veh.DailyRate(),
				StartDate: window.start,
				EndDate:   window.end,
			})
			if err != nil {
				return upd, apperror.NewValidationError(fmt.Sprintf("pricing error: %v", err))
			}
			upd.TotalAmount = &total
		}
	}

	if req.PickupLocation != nil || req.DropoffLocation != nil || req.DeliveryLocation != nil {
		cur := bk.Locations()
		pickup, dropoff, delivery := cur.Pickup, cur.Dropoff, cur.Delivery
		if req.PickupLocation != nil {
			pickup = *req.PickupLocation
		}
		if req.DropoffLocation != nil {
			dropoff = *req.DropoffLocation
		}
		if req.DeliveryLocation != nil {
			delivery = *req.DeliveryLocation
		}
		locs := bookingDomain.NewLocations(pickup, dropoff, delivery, bk.Delivery())
		upd.Locations = &locs
	}
	return upd, nil
}

// DeleteBooking removes a booking and releases its vehicle (admin).
func (s *BookingService) DeleteBooking(ctx context.Context, bookingID uuid.UUID) error {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, bookingID); err != nil {
		return err
	}
	if bk.HoldsVehicle() {
		s.gate.OnBookingResolved(ctx, bk.VehicleID())
	}
	s.logger.Info("booking deleted", zap.String("booking_id", bookingID.String()))
	return nil
}

// AdminUpdateBooking writes raw fields. It bypasses every lifecycle and ledger
// invariant and triggers no side effects.
func (s *BookingService) AdminUpdateBooking(ctx context.Context, bookingID, adminID uuid.UUID, req AdminUpdateRequest) (*BookingDTO, error) {
	patch := bookingDomain.AdminPatch{
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		TotalAmount:    req.TotalAmount,
		Balance:        req.Balance,
		PaymentTrigger: req.PaymentTrigger,
		ClearPending:   req.ClearPending,
		Purpose:        req.Purpose,
	}
	if req.Status != nil {
		status := bookingDomain.BookingStatus(*req.Status)
		patch.Status = &status
	}
	if req.PaymentStatus != nil {
		ps := payment.Status(*req.PaymentStatus)
		if ps != payment.StatusPaid && ps != payment.StatusUnpaid {
			return nil, apperror.NewValidationError(fmt.Sprintf("invalid payment status: %s", *req.PaymentStatus))
		}
		patch.PaymentStatus = &ps
	}

	bk, err := s.mutate(ctx, bookingID, func(bk *bookingDomain.Booking) error {
		return bk.ApplyAdminPatch(patch)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Warn("unsafe admin update applied",
		zap.String("booking_id", bookingID.String()),
		zap.String("admin_id", adminID.String()),
	)
	result := toBookingDTO(bk)
	return &result, nil
}

// StartRental hands the vehicle to the customer: Confirmed → In Progress.
func (s *BookingService) StartRental(ctx context.Context, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.mutate(ctx, bookingID, func(bk *bookingDomain.Booking) error {
		return bk.StartRental()
	})
	if err != nil {
		return nil, err
	}
	s.gate.OnBookingActivated(ctx, bk.VehicleID())

	result := toBookingDTO(bk)
	return &result, nil
}

// CompleteRental records the vehicle's return: In Progress → Completed.
func (s *BookingService) CompleteRental(ctx context.Context, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.mutate(ctx, bookingID, func(bk *bookingDomain.Booking) error {
		return bk.CompleteRental()
	})
	if err != nil {
		return nil, err
	}

	s.gate.OnBookingResolved(ctx, bk.VehicleID())
	_ = s.recorder.RecordCompletion(ctx, bk)
	s.publish(ctx, EventBookingCompleted, bk, nil)

	result := toBookingDTO(bk)
	return &result, nil
}

// GetBookingStats returns aggregate booking statistics (staff).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      counts,
	}, nil
}

// BackfillPlaceholderPayments creates the zero-amount entry for every booking missing one.
func (s *BookingService) BackfillPlaceholderPayments(ctx context.Context) (*BackfillResultDTO, error) {
	const pageSize = 100
	result := &BackfillResultDTO{}

	for page := 1; ; page++ {
		bookings, total, err := s.repo.ListAll(ctx, page, pageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to list bookings: %w", err)
		}
		for _, bk := range bookings {
			result.Scanned++
			payments, err := s.payments.FindByBookingID(ctx, bk.ID())
			if err != nil {
				return nil, err
			}
			if payment.HasPlaceholder(payments) {
				continue
			}
			if err := s.payments.Append(ctx, payment.NewPlaceholder(bk.ID(), bk.CustomerID())); err != nil {
				return nil, err
			}
			result.Created++
		}
		if len(bookings) < pageSize || int64(page*pageSize) >= total {
			break
		}
	}

	s.logger.Info("placeholder payment backfill finished",
		zap.Int("scanned", result.Scanned),
		zap.Int("created", result.Created),
	)
	return result, nil
}

// --- Helpers ---

// mutate runs fn against the freshest snapshot and writes it with an
// optimistic version check. On a version conflict the whole closure re-runs
// against a new read, so preconditions are re-checked and deltas re-applied.
func (s *BookingService) mutate(ctx context.Context, bookingID uuid.UUID, fn func(bk *bookingDomain.Booking) error) (*bookingDomain.Booking, error) {
	for attempt := 1; ; attempt++ {
		bk, err := s.repo.FindByID(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		if err := fn(bk); err != nil {
			if errors.Is(err, errUnchanged) {
				return bk, nil
			}
			return nil, err
		}

		bk.IncrementVersion()
		err = s.repo.Update(ctx, bk)
		if err == nil {
			return bk, nil
		}
		if !errors.Is(err, apperror.ErrConflict) || attempt >= maxUpdateAttempts {
			return nil, err
		}
		s.logger.Warn("booking version conflict, retrying",
			zap.String("booking_id", bookingID.String()),
			zap.Int("attempt", attempt),
		)
	}
}

// reconcile re-derives balance and payment status from the ledger and persists drift.
func (s *BookingService) reconcile(ctx context.Context, bookingID uuid.UUID) (*bookingDomain.Booking, payment.Summary, error) {
	var summary payment.Summary
	bk, err := s.mutate(ctx, bookingID, func(bk *bookingDomain.Booking) error {
		payments, err := s.payments.FindByBookingID(ctx, bk.ID())
		if err != nil {
			return err
		}
		summary = payment.Summarize(bk.TotalAmount(), payments)
		if !bk.ApplyLedger(summary) {
			return errUnchanged
		}
		s.logger.Info("booking balance reconciled",
			zap.String("booking_id", bk.ID().String()),
			zap.Int64("balance", summary.Balance),
		)
		return nil
	})
	return bk, summary, err
}

func (s *BookingService) totalPaid(ctx context.Context, bookingID uuid.UUID) (int64, error) {
	payments, err := s.payments.FindByBookingID(ctx, bookingID)
	if err != nil {
		return 0, err
	}
	return payment.TotalPaid(payments), nil
}

func (s *BookingService) withLedger(ctx context.Context, bookings []*bookingDomain.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		payments, err := s.payments.FindByBookingID(ctx, bk.ID())
		if err != nil {
			s.logger.Warn("failed to load payments for listing",
				zap.String("booking_id", bk.ID().String()),
				zap.Error(err),
			)
			dtos[i] = toBookingDTO(bk)
			continue
		}
		dtos[i] = toBookingDTOWithLedger(bk, payment.Summarize(bk.TotalAmount(), payments))
	}
	return dtos
}

func (s *BookingService) publish(ctx context.Context, eventType string, bk *bookingDomain.Booking, extra func(*BookingEvent)) {
	evt := BookingEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		CustomerID:    bk.CustomerID(),
		VehicleID:     bk.VehicleID(),
		Status:        string(bk.Status()),
		TotalAmount:   bk.TotalAmount(),
		Balance:       bk.Balance(),
		OccurredAt:    time.Now().UTC(),
	}
	if extra != nil {
		extra(&evt)
	}
	s.events.publish(ctx, TopicBookingEvents, eventType, bk.ID().String(), evt)
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	pending := bk.Pending()
	return BookingDTO{
		ID:              bk.ID(),
		BookingNumber:   bk.BookingNumber(),
		CustomerID:      bk.CustomerID(),
		VehicleID:       bk.VehicleID(),
		DriverID:        bk.DriverID(),
		Purpose:         bk.Purpose(),
		StartDate:       bk.StartDate(),
		EndDate:         bk.EndDate(),
		PickupTime:      bk.PickupTime(),
		DropoffTime:     bk.DropoffTime(),
		Locations:       bk.Locations(),
		SelfDrive:       bk.SelfDrive(),
		Delivery:        bk.Delivery(),
		Status:          string(bk.Status()),
		PendingRequest:  string(pending.Kind()),
		ProposedEndDate: pending.ProposedEndDate(),
		CancelRequested: pending.IsCancellation(),
		ExtendRequested: pending.IsExtension(),
		PaymentTrigger:  bk.PaymentTrigger(),
		TotalAmount:     bk.TotalAmount(),
		Balance:         bk.Balance(),
		PaymentStatus:   string(bk.PaymentStatus()),
		Version:         bk.Version(),
		CreatedAt:       bk.CreatedAt(),
		UpdatedAt:       bk.UpdatedAt(),
	}
}

func toBookingDTOWithLedger(bk *bookingDomain.Booking, summary payment.Summary) BookingDTO {
	dto := toBookingDTO(bk)
	paid, remaining := summary.TotalPaid, bk.TotalAmount()-summary.TotalPaid
	dto.TotalPaid = &paid
	dto.RemainingBalance = &remaining
	return dto
}
