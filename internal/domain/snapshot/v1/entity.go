package snapshotv1

import "github.com/shopspring/decimal"

// Snapshot represents the state of every book in the engine at a point in time.
type Snapshot struct {
	// Sequence is the number of submissions the engine had applied when the snapshot was taken.
	Sequence int64          `json:"sequence"`
	Books    []BookSnapshot `json:"books"`
}

// BookSnapshot represents the resting orders of one instrument.
type BookSnapshot struct {
	Instrument string      `json:"instrument"`
	Bids       []BookOrder `json:"bids"`
	Asks       []BookOrder `json:"asks"`
}

// BookOrder represents an order in the order book with its details.
type BookOrder struct {
	OrderID string          `json:"orderID"`
	Price   decimal.Decimal `json:"price"`
	Size    int64           `json:"size"`
	Age     int             `json:"age"`
	Arrival int64           `json:"arrival"`
}

// Book returns the snapshot of instrument, or nil.
func (s *Snapshot) Book(instrument string) *BookSnapshot {
	for i := range s.Books {
		if s.Books[i].Instrument == instrument {
			return &s.Books[i]
		}
	}
	return nil
}
