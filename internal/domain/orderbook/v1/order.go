package orderbookv1

import (
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

// Side is the side of the book an order rests on.
type Side string

const (
	// Buy is a bid.
	Buy Side = "buy"
	// Sell is an ask.
	Sell Side = "sell"
)

// ParseSide parses "buy" or "sell", ignoring case and surrounding spaces.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToLower(strings.TrimSpace(s))) {
	case Buy:
		return Buy, nil
	case Sell:
		return Sell, nil
	default:
		return "", fmt.Errorf("unknown side %q", s)
	}
}

// Opposite returns the side an order of this side matches against.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// CrossFunc reports whether an incoming price can trade against a resting price.
type CrossFunc func(incoming, resting decimal.Decimal) bool

// Crosses returns the cross predicate for an incoming order on side s.
// A buy crosses an ask priced at or below it, a sell crosses a bid priced at or above it.
func (s Side) Crosses() CrossFunc {
	if s == Buy {
		return func(incoming, resting decimal.Decimal) bool { return incoming.GreaterThanOrEqual(resting) }
	}
	return func(incoming, resting decimal.Decimal) bool { return incoming.LessThanOrEqual(resting) }
}

// Order is a resting or incoming quote.
type Order struct {
	ID      string          `json:"id"`
	Price   decimal.Decimal `json:"price"`
	Size    int64           `json:"size"`
	Age     int             `json:"age"`
	Arrival int64           `json:"arrival"`
}

// NewOrder creates an order with a fresh ULID.
func NewOrder(price decimal.Decimal, size int64, age int) *Order {
	return &Order{
		ID:    ulid.Make().String(),
		Price: price,
		Size:  size,
		Age:   age,
	}
}

// IsFilled checks if the order has nothing left to trade.
func (o *Order) IsFilled() bool {
	return o.Size <= 0
}

// IsExpired checks if the order has outlived its age.
func (o *Order) IsExpired() bool {
	return o.Age <= 0
}

// Quote is a value copy of a price level head, safe to hand out of the engine.
type Quote struct {
	Price decimal.Decimal `json:"price"`
	Size  int64           `json:"size"`
}

// TopOfBook holds the best bid and ask. A nil side means that side is empty.
type TopOfBook struct {
	Bid *Quote `json:"top_bid"`
	Ask *Quote `json:"top_ask"`
}

// IsEmpty reports whether both sides are empty.
func (t TopOfBook) IsEmpty() bool {
	return t.Bid == nil && t.Ask == nil
}

// Equal compares two tops by value.
func (t TopOfBook) Equal(other TopOfBook) bool {
	return quoteEqual(t.Bid, other.Bid) && quoteEqual(t.Ask, other.Ask)
}

func quoteEqual(a, b *Quote) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Size == b.Size && a.Price.Equal(b.Price)
}

// OrderRequest is one arrival of order flow, as read from a CSV row or a Kafka message.
type OrderRequest struct {
	Timestamp  time.Time       `json:"timestamp"`
	Instrument string          `json:"stock"`
	Side       Side            `json:"side"`
	Price      decimal.Decimal `json:"price"`
	Size       int64           `json:"size"`
}
