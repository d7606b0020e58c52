package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ja-rental/service-rental/internal/common/apperror"
	bookingDomain "github.com/ja-rental/service-rental/internal/domain/booking"
	"github.com/ja-rental/service-rental/internal/domain/payment"
)

// PaymentSignalRequest sets or clears the payment-received trigger.
type PaymentSignalRequest struct {
	Received *bool `json:"received" binding:"required"`
}

// RecordPaymentRequest holds a payment taken by staff.
type RecordPaymentRequest struct {
	Amount      int64      `json:"amount" binding:"required,gt=0"`
	Method      string     `json:"method"`
	PaidDate    *time.Time `json:"paid_date"`
	Description string     `json:"description"`
}

// SignalPaymentReceived sets the trigger once an operator has verified money
// changed hands, or clears it (staff).
func (s *BookingService) SignalPaymentReceived(ctx context.Context, bookingID, staffID uuid.UUID, received bool) (*BookingDTO, error) {
	bk, err := s.mutate(ctx, bookingID, func(bk *bookingDomain.Booking) error {
		return bk.SignalPaymentReceived(received)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment trigger set",
		zap.String("booking_id", bookingID.String()),
		zap.String("staff_id", staffID.String()),
		zap.Bool("received", received),
	)
	result := toBookingDTO(bk)
	return &result, nil
}

// ApplyConfirmation consumes the payment trigger and confirms a Pending booking
// whose payments reach the threshold. A replay fails with InvalidState because
// the trigger is cleared in the same write.
func (s *BookingService) ApplyConfirmation(ctx context.Context, bookingID uuid.UUID) (*BookingDTO, error) {
	var advanced bool
	bk, err := s.mutate(ctx, bookingID, func(bk *bookingDomain.Booking) error {
		paid, err := s.totalPaid(ctx, bk.ID())
		if err != nil {
			return err
		}
		advanced, err = bk.ApplyConfirmation(paid, s.settings.ConfirmationThreshold)
		return err
	})
	if err != nil {
		return nil, err
	}

	if advanced {
		s.publish(ctx, EventBookingConfirmed, bk, nil)
		s.logger.Info("booking confirmed", zap.String("booking_id", bookingID.String()))
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// RecordPayment appends a payment taken by staff and re-derives the balance.
func (s *BookingService) RecordPayment(ctx context.Context, bookingID, staffID uuid.UUID, req RecordPaymentRequest) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if bk.Status() == bookingDomain.StatusCancelled {
		return nil, apperror.NewInvalidStateErrorf("BOOKING_CANCELLED", "cannot record a payment on a cancelled booking")
	}

	p, err := payment.NewPayment(uuid.Nil, bk.ID(), bk.CustomerID(), req.Amount, req.Method, req.PaidDate, req.Description)
	if err != nil {
		return nil, err
	}
	if err := s.payments.Append(ctx, p); err != nil {
		return nil, err
	}

	bk, summary, err := s.reconcile(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment recorded",
		zap.String("booking_id", bookingID.String()),
		zap.String("payment_id", p.ID().String()),
		zap.String("staff_id", staffID.String()),
		zap.Int64("amount", p.Amount()),
	)
	result := toBookingDTOWithLedger(bk, summary)
	return &result, nil
}

// HandlePaymentReceived applies a verified payment from the payment collector:
// it appends the payment, re-derives the balance, raises the trigger and
// applies confirmation in one booking write. A redelivered payment ID is not
// appended again, but the booking write still runs so a delivery whose booking
// update failed completes on retry.
func (s *BookingService) HandlePaymentReceived(ctx context.Context, evt PaymentReceivedEvent) error {
	bk, err := s.repo.FindByID(ctx, evt.BookingID)
	if err != nil {
		return err
	}
	if bk.Status() == bookingDomain.StatusCancelled {
		return apperror.NewInvalidStateErrorf("BOOKING_CANCELLED", "cannot record a payment on a cancelled booking")
	}

	duplicate := false
	if evt.PaymentID != uuid.Nil {
		duplicate, err = s.payments.Exists(ctx, evt.PaymentID)
		if err != nil {
			return err
		}
	}
	if duplicate {
		s.logger.Info("payment already recorded; re-applying ledger",
			zap.String("payment_id", evt.PaymentID.String()),
		)
	} else {
		customerID := evt.CustomerID
		if customerID == uuid.Nil {
			customerID = bk.CustomerID()
		}
		description := "Payment received"
		if evt.Reference != "" {
			description = "Payment received: " + evt.Reference
		}
		p, err := payment.NewPayment(evt.PaymentID, bk.ID(), customerID, evt.Amount, evt.Method, evt.PaidAt, description)
		if err != nil {
			return err
		}
		if err := s.payments.Append(ctx, p); err != nil {
			return err
		}
	}

	var advanced bool
	bk, err = s.mutate(ctx, evt.BookingID, func(bk *bookingDomain.Booking) error {
		advanced = false
		payments, err := s.payments.FindByBookingID(ctx, bk.ID())
		if err != nil {
			return err
		}
		summary := payment.Summarize(bk.TotalAmount(), payments)
		changed := bk.ApplyLedger(summary)
		if !bk.Status().AcceptsPayments() {
			if !changed {
				return errUnchanged
			}
			return nil
		}
		if err := bk.SignalPaymentReceived(true); err != nil {
			return err
		}
		advanced, err = bk.ApplyConfirmation(summary.TotalPaid, s.settings.ConfirmationThreshold)
		return err
	})
	if err != nil {
		return err
	}

	if advanced {
		s.publish(ctx, EventBookingConfirmed, bk, nil)
	}
	s.logger.Info("payment event applied",
		zap.String("booking_id", evt.BookingID.String()),
		zap.String("payment_id", evt.PaymentID.String()),
		zap.Int64("amount", evt.Amount),
		zap.Bool("duplicate", duplicate),
		zap.Bool("confirmed", advanced),
	)
	return nil
}

// IsRetryable reports whether a payment event should be redelivered.
func IsRetryable(err error) bool {
	switch apperror.KindOf(err) {
	case apperror.KindNotFound, apperror.KindInvalidArgument, apperror.KindInvalidState, apperror.KindForbidden:
		return false
	}
	return !errors.Is(err, context.Canceled)
}
