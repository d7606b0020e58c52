package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ja-rental/service-rental/internal/common/kafka"
)

const eventSource = "service-rental"

// Kafka topics.
const (
	TopicBookingEvents = "booking.events"
	TopicPaymentEvents = "payment.events"
)

// Event types published on booking.events.
const (
	EventBookingCreated               = "booking.created"
	EventBookingCancellationRequested = "booking.cancellation_requested"
	EventBookingCancelled             = "booking.cancelled"
	EventBookingExtensionRequested    = "booking.extension_requested"
	EventBookingExtended              = "booking.extended"
	EventBookingExtensionRejected     = "booking.extension_rejected"
	EventBookingConfirmed             = "booking.confirmed"
	EventBookingCompleted             = "booking.completed"
)

// EventPaymentReceived is consumed from payment.events.
const EventPaymentReceived = "payment.received"

// EventPublisher is satisfied by *kafka.Producer.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// BookingEvent is the payload of every booking.* event.
type BookingEvent struct {
	BookingID     uuid.UUID  `json:"booking_id"`
	BookingNumber string     `json:"booking_number"`
	CustomerID    uuid.UUID  `json:"customer_id"`
	VehicleID     uuid.UUID  `json:"vehicle_id"`
	Status        string     `json:"status"`
	TotalAmount   int64      `json:"total_amount"`
	Balance       int64      `json:"balance"`
	Amount        int64      `json:"amount,omitempty"`
	OldEndDate    *time.Time `json:"old_end_date,omitempty"`
	NewEndDate    *time.Time `json:"new_end_date,omitempty"`
	OccurredAt    time.Time  `json:"occurred_at"`
}

// PaymentReceivedEvent is published by the payment collector once money is verified.
type PaymentReceivedEvent struct {
	PaymentID  uuid.UUID  `json:"payment_id"`
	BookingID  uuid.UUID  `json:"booking_id"`
	CustomerID uuid.UUID  `json:"customer_id"`
	Amount     int64      `json:"amount"`
	Method     string     `json:"method"`
	PaidAt     *time.Time `json:"paid_at,omitempty"`
	Reference  string     `json:"reference,omitempty"`
}

// eventBus publishes best-effort; failures are logged only.
type eventBus struct {
	producer EventPublisher
	logger   *zap.Logger
}

func (b eventBus) publish(ctx context.Context, topic, eventType, subject string, data interface{}) {
	if b.producer == nil {
		return
	}
	cloudEvent, err := kafka.NewCloudEvent(eventSource, eventType, data)
	if err != nil {
		b.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}
	cloudEvent.Subject = subject

	if err := b.producer.PublishEvent(ctx, topic, cloudEvent); err != nil {
		b.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.String("kind", "DependencyFailure"),
			zap.Error(err),
		)
	}
}
