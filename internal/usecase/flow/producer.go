package flow

import (
	"context"
	"encoding/json"
	"io"
	"time"

	orderreaderv1 "github.com/muhammadchandra19/datafeed/internal/domain/order-reader/v1"
	"github.com/muhammadchandra19/datafeed/pkg/config"
	"github.com/muhammadchandra19/datafeed/pkg/errors"
	"github.com/muhammadchandra19/datafeed/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer pushes order flow onto the orders topic.
type Producer struct {
	writer MessageWriter
	logger *logger.Logger
}

// NewProducer creates a producer writing to the configured orders topic.
func NewProducer(cfg config.KafkaConfig, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.OrdersTopic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return NewProducerWithWriter(writer, log)
}

// NewProducerWithWriter creates a producer on top of an existing writer.
func NewProducerWithWriter(writer MessageWriter, log *logger.Logger) *Producer {
	return &Producer{writer: writer, logger: log}
}

// Produce sends up to limit orders from src, waiting delay between messages.
// A limit of 0 or less produces until src is exhausted or ctx is done.
// Malformed source rows are skipped.
func (p *Producer) Produce(ctx context.Context, src orderreaderv1.OrderSource, limit int, delay time.Duration) (int, error) {
	sent := 0
	for limit <= 0 || sent < limit {
		req, err := src.Next(ctx)
		if err == io.EOF {
			break
		}
		if errors.HasCode(err, errors.FeedParseError) {
			p.logger.WarnContext(ctx, "skipping malformed order", logger.Field{Key: "error", Value: err.Error()})
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return sent, nil
			}
			return sent, err
		}

		value, err := json.Marshal(req)
		if err != nil {
			return sent, errors.NewTracer("order_marshal_error").Wrap(err)
		}

		msg := kafka.Message{
			Key:   []byte(req.Instrument),
			Value: value,
		}
		if err := p.writer.WriteMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return sent, nil
			}
			return sent, errors.NewTracer(errors.FeedWriteError.String()).Wrap(err)
		}
		sent++

		if delay > 0 {
			select {
			case <-ctx.Done():
				return sent, nil
			case <-time.After(delay):
			}
		}
	}

	p.logger.InfoContext(ctx, "orders produced", logger.Field{Key: "count", Value: sent})
	return sent, nil
}

// Close flushes and closes the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
