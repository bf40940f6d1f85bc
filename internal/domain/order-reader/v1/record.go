package orderreaderv1

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	orderbookv1 "github.com/muhammadchandra19/datafeed/internal/domain/orderbook/v1"
	"github.com/muhammadchandra19/datafeed/pkg/errors"
	"github.com/shopspring/decimal"
)

// TimestampLayout is the layout ToRecord writes to the timestamp column.
const TimestampLayout = "2006-01-02 15:04:05.000000"

// parseLayout accepts the timestamp column with or without fractional seconds.
const parseLayout = "2006-01-02 15:04:05"

// Columns of a feed row, in file order.
const (
	ColTimestamp = iota
	ColInstrument
	ColSide
	ColPrice
	ColSize

	recordLen
)

// ToRecord formats an order as a feed row. Prices keep two decimals.
func ToRecord(req orderbookv1.OrderRequest) []string {
	record := make([]string, recordLen)
	record[ColTimestamp] = req.Timestamp.Format(TimestampLayout)
	record[ColInstrument] = req.Instrument
	record[ColSide] = string(req.Side)
	record[ColPrice] = req.Price.StringFixed(2)
	record[ColSize] = strconv.FormatInt(req.Size, 10)
	return record
}

// FromRecord parses a feed row. Errors carry the feed_parse_error code and the offending column.
func FromRecord(record []string) (orderbookv1.OrderRequest, error) {
	var req orderbookv1.OrderRequest

	if len(record) != recordLen {
		return req, parseError(fmt.Sprintf("expected %d columns, got %d", recordLen, len(record)), "record")
	}

	ts, err := time.ParseInLocation(parseLayout, strings.TrimSpace(record[ColTimestamp]), time.Local)
	if err != nil {
		return req, parseError(fmt.Sprintf("invalid timestamp %q", record[ColTimestamp]), "timestamp")
	}

	instrument := strings.TrimSpace(record[ColInstrument])
	if instrument == "" {
		return req, parseError("empty instrument", "instrument")
	}

	side, err := orderbookv1.ParseSide(record[ColSide])
	if err != nil {
		return req, parseError(err.Error(), "side")
	}

	price, err := decimal.NewFromString(strings.TrimSpace(record[ColPrice]))
	if err != nil {
		return req, parseError(fmt.Sprintf("invalid price %q", record[ColPrice]), "price")
	}

	size, err := strconv.ParseInt(strings.TrimSpace(record[ColSize]), 10, 64)
	if err != nil {
		return req, parseError(fmt.Sprintf("invalid size %q", record[ColSize]), "size")
	}

	req.Timestamp = ts
	req.Instrument = instrument
	req.Side = side
	req.Price = price
	req.Size = size
	return req, nil
}

func parseError(message, field string) error {
	return errors.NewErrorDetails(message, errors.FeedParseError.String(), field)
}
