package application

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/ja-rental/service-rental/internal/domain/booking"
)

// RequestCancellation records the owner's request. The status is left for staff to resolve.
func (s *BookingService) RequestCancellation(ctx context.Context, bookingID, actorID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.mutate(ctx, bookingID, func(bk *bookingDomain.Booking) error {
		return bk.RequestCancellation(actorID)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, EventBookingCancellationRequested, bk, nil)
	s.logger.Info("cancellation requested",
		zap.String("booking_id", bookingID.String()),
		zap.String("customer_id", actorID.String()),
	)

	result := toBookingDTO(bk)
	return &result, nil
}

// ConfirmCancellation approves a pending cancellation (staff).
func (s *BookingService) ConfirmCancellation(ctx context.Context, bookingID, staffID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.mutate(ctx, bookingID, func(bk *bookingDomain.Booking) error {
		return bk.ConfirmCancellation()
	})
	if err != nil {
		return nil, err
	}
	s.afterCancel(ctx, bk, staffID)

	result := toBookingDTO(bk)
	return &result, nil
}

// RejectCancellation drops a pending cancellation (staff).
func (s *BookingService) RejectCancellation(ctx context.Context, bookingID, staffID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.mutate(ctx, bookingID, func(bk *bookingDomain.Booking) error {
		return bk.RejectCancellation()
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("cancellation rejected",
		zap.String("booking_id", bookingID.String()),
		zap.String("staff_id", staffID.String()),
	)
	result := toBookingDTO(bk)
	return &result, nil
}

// AdminCancel cancels a booking without a prior customer request (staff).
func (s *BookingService) AdminCancel(ctx context.Context, bookingID, staffID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.mutate(ctx, bookingID, func(bk *bookingDomain.Booking) error {
		return bk.AdminCancel()
	})
	if err != nil {
		return nil, err
	}
	s.afterCancel(ctx, bk, staffID)

	result := toBookingDTO(bk)
	return &result, nil
}

func (s *BookingService) afterCancel(ctx context.Context, bk *bookingDomain.Booking, staffID uuid.UUID) {
	s.gate.OnBookingResolved(ctx, bk.VehicleID())
	_ = s.recorder.RecordCancellation(ctx, bk)
	s.publish(ctx, EventBookingCancelled, bk, nil)

	s.logger.Info("booking cancelled",
		zap.String("booking_id", bk.ID().String()),
		zap.String("staff_id", staffID.String()),
	)
}
