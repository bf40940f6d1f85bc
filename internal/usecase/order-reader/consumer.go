package orderreader

import (
	"context"
	"encoding/json"

	orderbookv1 "github.com/muhammadchandra19/datafeed/internal/domain/orderbook/v1"
	"github.com/muhammadchandra19/datafeed/pkg/config"
	"github.com/muhammadchandra19/datafeed/pkg/errors"
	"github.com/muhammadchandra19/datafeed/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// MessageReader is the part of kafka.Reader the consumer needs.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Reader represents a Kafka Reader for consuming messages from the orders topic.
type Reader struct {
	kafkaReader MessageReader
	logger      *logger.Logger
}

// NewReader creates a Kafka reader on the orders topic within the configured consumer group.
func NewReader(cfg config.KafkaConfig, log *logger.Logger) *Reader {
	kafkaReader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.OrdersTopic,
		GroupID:     cfg.GroupID,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.LastOffset,
	})

	return NewReaderWithMessageReader(kafkaReader, log)
}

// NewReaderWithMessageReader wraps an existing message reader.
func NewReaderWithMessageReader(r MessageReader, log *logger.Logger) *Reader {
	return &Reader{
		kafkaReader: r,
		logger:      log,
	}
}

// logError is a helper method to log errors consistently
func (r *Reader) logError(err error, operation string) {
	r.logger.Error(err,
		logger.Field{Key: "error", Value: err.Error()},
		logger.Field{Key: "operation", Value: operation},
	)
}

// Next reads a message and decodes it as an order request.
func (r *Reader) Next(ctx context.Context) (orderbookv1.OrderRequest, error) {
	msg, err := r.kafkaReader.ReadMessage(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return orderbookv1.OrderRequest{}, ctx.Err()
		}
		r.logError(err, "ReadMessage")
		return orderbookv1.OrderRequest{}, errors.NewTracer(errors.FeedReadError.String()).Wrap(err)
	}

	var req orderbookv1.OrderRequest
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		r.logError(err, "UnmarshalOrder")
		return orderbookv1.OrderRequest{}, errors.NewErrorDetails(err.Error(), errors.FeedParseError.String(), "value")
	}

	r.logger.Debug("ReadMessage",
		logger.Field{Key: "offset", Value: msg.Offset},
		logger.Field{Key: "stock", Value: req.Instrument},
		logger.Field{Key: "side", Value: req.Side},
		logger.Field{Key: "price", Value: req.Price},
		logger.Field{Key: "size", Value: req.Size},
	)

	return req, nil
}

// Close properly closes the Kafka reader.
func (r *Reader) Close() error {
	if err := r.kafkaReader.Close(); err != nil {
		r.logError(err, "Close")
		return err
	}
	return nil
}
