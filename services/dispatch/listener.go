package dispatch

import (
	"context"
	"encoding/json"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/rabbitmq/amqp091-go"

	"github.com/williamcjrogers/VeriCaseJet-sub003/dto"
	"github.com/williamcjrogers/VeriCaseJet-sub003/interfaces"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/enum"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/logger"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/tracing"
)

// ResultListener consumes terminal extraction results from the pipeline and
// applies them to attachment records. Results can arrive duplicated or late;
// the repository's terminal-status guard makes re-application a no-op.
type ResultListener struct {
	url        string
	logger     logger.Logger
	attachRepo interfaces.AttachmentRepository

	connection *amqp091.Connection
	channel    *amqp091.Channel
}

func NewResultListener(rabbitmqURL string, logger logger.Logger, attachRepo interfaces.AttachmentRepository) *ResultListener {
	return &ResultListener{
		url:        rabbitmqURL,
		logger:     logger,
		attachRepo: attachRepo,
	}
}

// Listen blocks consuming the results queue until the context is cancelled.
func (l *ResultListener) Listen(ctx context.Context) error {
	connection, err := amqp091.Dial(l.url)
	if err != nil {
		return errors.Wrap(err, "Failed to connect to RabbitMQ")
	}
	l.connection = connection

	channel, err := connection.Channel()
	if err != nil {
		return errors.Wrap(err, "Failed to open channel")
	}
	l.channel = channel

	deliveries, err := channel.Consume(
		QueueExtractionResults,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return errors.Wrapf(err, "Failed to consume queue %s", QueueExtractionResults)
	}

	l.logger.Infof("listening for extraction results on %s", QueueExtractionResults)

	for {
		select {
		case <-ctx.Done():
			return l.Close()
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("result delivery channel closed")
			}
			l.handleDelivery(ctx, delivery)
		}
	}
}

func (l *ResultListener) handleDelivery(ctx context.Context, delivery amqp091.Delivery) {
	ctx, span := tracing.StartRabbitMQMessageTracerSpanWithHeader(ctx, "ResultListener.handleDelivery", uberTraceID(delivery))
	defer span.Finish()
	tracing.TagComponentListener(span)

	var result dto.ExtractionResult
	if err := json.Unmarshal(delivery.Body, &result); err != nil {
		tracing.TraceErr(span, err)
		l.logger.Errorf("undecodable extraction result: %v", err)
		// Reject without requeue so the message moves to the DLQ.
		_ = delivery.Nack(false, false)
		return
	}

	if err := l.applyResult(ctx, result); err != nil {
		tracing.TraceErr(span, err)
		l.logger.Errorf("failed to apply extraction result for attachment %s: %v", result.AttachmentID, err)
		_ = delivery.Nack(false, true)
		return
	}

	_ = delivery.Ack(false)
}

func (l *ResultListener) applyResult(ctx context.Context, result dto.ExtractionResult) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ResultListener.applyResult")
	defer span.Finish()
	tracing.TagComponentListener(span)
	tracing.TagEntity(span, result.AttachmentID)

	if result.AttachmentID == "" {
		return errors.New("extraction result has no attachment id")
	}

	status := enum.ExtractionStatus(result.Status)
	if !status.Terminal() {
		return errors.Errorf("extraction result carries non-terminal status %q", result.Status)
	}

	return l.attachRepo.MarkExtractionResult(ctx, result.AttachmentID, status, result.Error)
}

func (l *ResultListener) Close() error {
	if l.channel != nil {
		_ = l.channel.Close()
	}
	if l.connection != nil {
		return l.connection.Close()
	}
	return nil
}

func uberTraceID(delivery amqp091.Delivery) string {
	if value, ok := delivery.Headers["uber-trace-id"]; ok {
		if s, ok := value.(string); ok {
			return s
		}
	}
	return ""
}
