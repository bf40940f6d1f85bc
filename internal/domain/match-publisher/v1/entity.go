package matchpublisherv1

import (
	"encoding/json"
	"time"

	orderbookv1 "github.com/muhammadchandra19/datafeed/internal/domain/orderbook/v1"
	"github.com/shopspring/decimal"
)

// FillEvent is the fills produced by one submission.
type FillEvent struct {
	Instrument string             `json:"instrument"`
	OrderID    string             `json:"orderID"`
	Timestamp  time.Time          `json:"timestamp"`
	Notional   decimal.Decimal    `json:"notional"`
	Fills      []orderbookv1.Fill `json:"fills"`
}

// CreateFromResult creates a fill event for the order orderID submitted on instrument.
func CreateFromResult(instrument, orderID string, result orderbookv1.ClearResult, at time.Time) *FillEvent {
	return &FillEvent{
		Instrument: instrument,
		OrderID:    orderID,
		Timestamp:  at,
		Notional:   result.Notional,
		Fills:      result.Fills,
	}
}

// ToBytes converts the fill event to JSON.
func ToBytes(event *FillEvent) ([]byte, error) {
	return json.Marshal(event)
}

// FromBytes parses a fill event from JSON.
func FromBytes(data []byte) (*FillEvent, error) {
	var event FillEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
