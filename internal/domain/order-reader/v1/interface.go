package orderreaderv1

import (
	"context"

	orderbookv1 "github.com/muhammadchandra19/datafeed/internal/domain/orderbook/v1"
)

// OrderSource defines the interface for reading order flow from a source.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=orderreaderv1_mock
type OrderSource interface {
	// Next returns the next order. io.EOF means the source is exhausted.
	// Errors coded feed_parse_error concern one row only; the caller may keep reading.
	Next(ctx context.Context) (orderbookv1.OrderRequest, error)
	// Close closes the source.
	Close() error
}
