package events

import (
	"context"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/ja-rental/service-rental/internal/application"
	"github.com/ja-rental/service-rental/internal/common/kafka"
)

// PaymentApplier applies a verified payment to its booking.
type PaymentApplier interface {
	HandlePaymentReceived(ctx context.Context, evt application.PaymentReceivedEvent) error
}

// PaymentEventConsumer listens to payment events and feeds them into the ledger.
type PaymentEventConsumer struct {
	consumer *kafka.Consumer
	service  PaymentApplier
	logger   *zap.Logger
}

// NewPaymentEventConsumer creates a new PaymentEventConsumer.
func NewPaymentEventConsumer(
	brokers []string,
	groupID string,
	service PaymentApplier,
	logger *zap.Logger,
) *PaymentEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, application.TopicPaymentEvents, logger)
	return &PaymentEventConsumer{
		consumer: consumer,
		service:  service,
		logger:   logger,
	}
}

// Start begins consuming payment events. This blocks until the context is cancelled.
func (c *PaymentEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *PaymentEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *PaymentEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	return handlePaymentMessage(ctx, c.service, c.logger, msg.Value)
}

// handlePaymentMessage returns an error only when redelivery could succeed.
func handlePaymentMessage(ctx context.Context, service PaymentApplier, logger *zap.Logger, value []byte) error {
	cloudEvent, err := kafka.ParseCloudEvent(value)
	if err != nil {
		logger.Error("failed to parse cloud event from payment topic",
			zap.Error(err),
			zap.String("raw", string(value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case application.EventPaymentReceived:
		return handlePaymentReceived(ctx, service, logger, cloudEvent)
	default:
		logger.Debug("ignoring unhandled payment event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func handlePaymentReceived(ctx context.Context, service PaymentApplier, logger *zap.Logger, cloudEvent kafka.CloudEvent) error {
	var evt application.PaymentReceivedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		logger.Error("failed to parse PaymentReceivedEvent data",
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	logger.Info("processing payment received event",
		zap.String("booking_id", evt.BookingID.String()),
		zap.String("payment_id", evt.PaymentID.String()),
		zap.Int64("amount", evt.Amount),
	)

	if err := service.HandlePaymentReceived(ctx, evt); err != nil {
		if !application.IsRetryable(err) {
			logger.Warn("dropping payment event",
				zap.String("booking_id", evt.BookingID.String()),
				zap.String("payment_id", evt.PaymentID.String()),
				zap.Error(err),
			)
			return nil
		}
		logger.Error("failed to apply payment event",
			zap.String("booking_id", evt.BookingID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}
