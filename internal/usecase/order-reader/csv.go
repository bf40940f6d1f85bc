package orderreader

import (
	"context"
	"encoding/csv"
	"io"
	"os"

	orderbookv1 "github.com/muhammadchandra19/datafeed/internal/domain/orderbook/v1"
	orderreaderv1 "github.com/muhammadchandra19/datafeed/internal/domain/order-reader/v1"
	"github.com/muhammadchandra19/datafeed/pkg/errors"
	"github.com/muhammadchandra19/datafeed/pkg/logger"
)

// CSVReader replays order flow from a CSV file, one row per call to Next.
type CSVReader struct {
	file   io.Closer
	reader *csv.Reader
	logger *logger.Logger
	line   int
}

// OpenCSV opens path for replay.
func OpenCSV(path string, log *logger.Logger) (*CSVReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewTracer(errors.FeedReadError.String()).Wrap(err)
	}
	return NewCSVReader(f, log), nil
}

// NewCSVReader reads rows from r. r is closed by Close when it is an io.Closer.
func NewCSVReader(r io.Reader, log *logger.Logger) *CSVReader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true
	reader.TrimLeadingSpace = true

	c := &CSVReader{
		reader: reader,
		logger: log,
	}
	if closer, ok := r.(io.Closer); ok {
		c.file = closer
	}
	return c
}

// Next returns the next order. Rows that fail to parse are returned as
// feed_parse_error and the reader stays usable.
func (c *CSVReader) Next(ctx context.Context) (orderbookv1.OrderRequest, error) {
	if err := ctx.Err(); err != nil {
		return orderbookv1.OrderRequest{}, err
	}

	record, err := c.reader.Read()
	if err == io.EOF {
		return orderbookv1.OrderRequest{}, io.EOF
	}
	c.line++
	if err != nil {
		if _, ok := err.(*csv.ParseError); ok {
			return orderbookv1.OrderRequest{}, errors.NewErrorDetails(err.Error(), errors.FeedParseError.String(), "record")
		}
		return orderbookv1.OrderRequest{}, errors.NewTracer(errors.FeedReadError.String()).Wrap(err)
	}

	req, err := orderreaderv1.FromRecord(record)
	if err != nil {
		c.logger.Debug("malformed feed row",
			logger.Field{Key: "line", Value: c.line},
			logger.Field{Key: "error", Value: err.Error()},
		)
		return orderbookv1.OrderRequest{}, err
	}
	return req, nil
}

// Close closes the underlying file.
func (c *CSVReader) Close() error {
	if c.file == nil {
		return nil
	}
	return c.file.Close()
}
