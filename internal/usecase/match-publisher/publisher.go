package matchpublisher

import (
	"context"

	matchpublisherv1 "github.com/muhammadchandra19/datafeed/internal/domain/match-publisher/v1"
	"github.com/muhammadchandra19/datafeed/pkg/config"
	"github.com/muhammadchandra19/datafeed/pkg/errors"
	"github.com/muhammadchandra19/datafeed/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher represents a Kafka Publisher for publishing fill events.
type Publisher struct {
	writer MessageWriter
	logger *logger.Logger
}

// NewPublisher creates a new Kafka publisher writing to the fills topic.
func NewPublisher(cfg config.KafkaConfig, log *logger.Logger) *Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.FillsTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}

	return NewPublisherWithWriter(writer, log)
}

// NewPublisherWithWriter creates a publisher on top of an existing writer.
func NewPublisherWithWriter(writer MessageWriter, log *logger.Logger) *Publisher {
	return &Publisher{
		writer: writer,
		logger: log,
	}
}

// PublishFillEvent publishes a fill event keyed by instrument, so fills of one
// instrument stay ordered within a partition.
func (p *Publisher) PublishFillEvent(ctx context.Context, event *matchpublisherv1.FillEvent) error {
	value, err := matchpublisherv1.ToBytes(event)
	if err != nil {
		return errors.NewTracer("fill_event_marshal_error").Wrap(err)
	}

	msg := kafka.Message{
		Key:   []byte(event.Instrument),
		Value: value,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.ErrorContext(ctx, err,
			logger.Field{Key: "instrument", Value: event.Instrument},
			logger.Field{Key: "orderID", Value: event.OrderID},
		)
		return errors.NewTracer("fill_event_publish_error").Wrap(err)
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
