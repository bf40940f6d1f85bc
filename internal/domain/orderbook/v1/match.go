package orderbookv1

import "github.com/shopspring/decimal"

// Fill is one match between an incoming order and a resting order.
// Price is always the resting order's price.
type Fill struct {
	Price      decimal.Decimal `json:"price"`
	Size       int64           `json:"size"`
	RestingID  string          `json:"restingID"`
	IncomingID string          `json:"incomingID"`
	TakerSide  Side            `json:"takerSide"`
}

// Notional returns size times price.
func (f Fill) Notional() decimal.Decimal {
	return f.Price.Mul(decimal.NewFromInt(f.Size))
}

// ClearResult is the outcome of one clearing pass.
type ClearResult struct {
	Remainder int64
	Notional  decimal.Decimal
	Fills     []Fill
}

// Filled returns the total size matched in the pass.
func (r ClearResult) Filled() int64 {
	var total int64
	for _, f := range r.Fills {
		total += f.Size
	}
	return total
}
