package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/ja-rental/service-rental/internal/domain/booking"
)

// ExtendBookingRequest carries the proposed end date as a date or RFC 3339 timestamp.
type ExtendBookingRequest struct {
	NewEndDate string `json:"new_end_date" binding:"required"`
}

// ExtensionResultDTO is the booking snapshot plus the money moved by the call.
type ExtensionResultDTO struct {
	Booking         BookingDTO `json:"booking"`
	AdditionalCost  int64      `json:"additional_cost,omitempty"`
	DeductedAmount  int64      `json:"deducted_amount,omitempty"`
	NewTotal        int64      `json:"new_total"`
	PendingApproval bool       `json:"pending_approval"`
}

// RequestExtension proposes a later end date and charges the additional days
// immediately. The authoritative end date moves only on approval.
func (s *BookingService) RequestExtension(ctx context.Context, bookingID, actorID uuid.UUID, req ExtendBookingRequest) (*ExtensionResultDTO, error) {
	var cost int64
	bk, err := s.mutate(ctx, bookingID, func(bk *bookingDomain.Booking) error {
		if err := bk.CanRequestExtension(actorID); err != nil {
			return err
		}
		newEnd, err := ParseEndDate(req.NewEndDate, bk.EndDate(), s.settings.Location)
		if err != nil {
			return err
		}
		veh, err := s.vehicles.FindByID(ctx, bk.VehicleID())
		if err != nil {
			return err
		}
		cost, err = bk.RequestExtension(actorID, newEnd, veh.DailyRate())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, EventBookingExtensionRequested, bk, func(e *BookingEvent) {
		e.Amount = cost
		e.NewEndDate = bk.Pending().ProposedEndDate()
	})
	s.logger.Info("extension requested",
		zap.String("booking_id", bookingID.String()),
		zap.Int64("additional_cost", cost),
	)

	return &ExtensionResultDTO{
		Booking:         toBookingDTO(bk),
		AdditionalCost:  cost,
		NewTotal:        bk.TotalAmount(),
		PendingApproval: true,
	}, nil
}

// ConfirmExtension moves the end date to the proposed date and appends an
// extension audit row (staff). Money was already charged on request.
func (s *BookingService) ConfirmExtension(ctx context.Context, bookingID, staffID uuid.UUID) (*ExtensionResultDTO, error) {
	var oldEnd, newEnd time.Time
	bk, err := s.mutate(ctx, bookingID, func(bk *bookingDomain.Booking) error {
		var err error
		oldEnd, newEnd, err = bk.ConfirmExtension()
		return err
	})
	if err != nil {
		return nil, err
	}

	_ = s.recorder.RecordExtension(ctx, bk, oldEnd, newEnd)
	s.publish(ctx, EventBookingExtended, bk, func(e *BookingEvent) {
		e.OldEndDate = &oldEnd
		e.NewEndDate = &newEnd
	})
	s.logger.Info("extension approved",
		zap.String("booking_id", bookingID.String()),
		zap.String("staff_id", staffID.String()),
		zap.Time("new_end_date", newEnd),
	)

	return &ExtensionResultDTO{
		Booking:  toBookingDTO(bk),
		NewTotal: bk.TotalAmount(),
	}, nil
}

// RejectExtension reverses the charge applied on request (staff). The amount is
// re-derived from the proposed and current end dates at the vehicle's rate.
func (s *BookingService) RejectExtension(ctx context.Context, bookingID, staffID uuid.UUID) (*ExtensionResultDTO, error) {
	var deducted int64
	bk, err := s.mutate(ctx, bookingID, func(bk *bookingDomain.Booking) error {
		var rate int64
		if bk.Pending().IsExtension() {
			veh, err := s.vehicles.FindByID(ctx, bk.VehicleID())
			if err != nil {
				return err
			}
			rate = veh.DailyRate()
		}
		var err error
		deducted, err = bk.RejectExtension(rate)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, EventBookingExtensionRejected, bk, func(e *BookingEvent) {
		e.Amount = deducted
	})
	s.logger.Info("extension rejected",
		zap.String("booking_id", bookingID.String()),
		zap.String("staff_id", staffID.String()),
		zap.Int64("deducted_amount", deducted),
	)

	return &ExtensionResultDTO{
		Booking:        toBookingDTO(bk),
		DeductedAmount: deducted,
		NewTotal:       bk.TotalAmount(),
	}, nil
}
