package orderbook

import (
	"fmt"
	"sort"

	orderbookv1 "github.com/muhammadchandra19/datafeed/internal/domain/orderbook/v1"
	snapshotv1 "github.com/muhammadchandra19/datafeed/internal/domain/snapshot/v1"
	"github.com/shopspring/decimal"
)

// Orderbook holds the bid and ask queues of one instrument.
// It is not safe for concurrent use; the engine serialises access.
type Orderbook struct {
	instrument string
	bids       *orderbookv1.Queue
	asks       *orderbookv1.Queue
}

// NewOrderbook creates an empty book for instrument.
func NewOrderbook(instrument string) *Orderbook {
	return &Orderbook{
		instrument: instrument,
		bids:       orderbookv1.NewQueue(orderbookv1.Buy),
		asks:       orderbookv1.NewQueue(orderbookv1.Sell),
	}
}

// Instrument returns the instrument id.
func (ob *Orderbook) Instrument() string {
	return ob.instrument
}

// Bids returns the bid queue.
func (ob *Orderbook) Bids() *orderbookv1.Queue {
	return ob.bids
}

// Asks returns the ask queue.
func (ob *Orderbook) Asks() *orderbookv1.Queue {
	return ob.asks
}

func (ob *Orderbook) queue(side orderbookv1.Side) *orderbookv1.Queue {
	if side == orderbookv1.Buy {
		return ob.bids
	}
	return ob.asks
}

// Insert rests order on side, aging the orders already on that side.
// It returns the orders that expired as a result.
func (ob *Orderbook) Insert(order *orderbookv1.Order, side orderbookv1.Side) ([]*orderbookv1.Order, error) {
	return ob.queue(side).Insert(order)
}

// ClearOne matches incoming, arriving on side, against the opposite queue.
// incoming.Size is reduced to the unmatched remainder; resting it is up to the caller.
func (ob *Orderbook) ClearOne(incoming *orderbookv1.Order, side orderbookv1.Side) orderbookv1.ClearResult {
	return ClearOne(incoming, side, ob.queue(side.Opposite()), side.Crosses())
}

// ClearOne walks opposite from its head, filling incoming against each resting
// order that cross accepts, at the resting price. Fully filled resting orders
// are removed; a partially filled head keeps its queue position.
func ClearOne(
	incoming *orderbookv1.Order,
	taker orderbookv1.Side,
	opposite *orderbookv1.Queue,
	cross orderbookv1.CrossFunc,
) orderbookv1.ClearResult {
	result := orderbookv1.ClearResult{
		Remainder: incoming.Size,
		Notional:  decimal.Zero,
	}

	for result.Remainder > 0 {
		top := opposite.Head()
		if top == nil {
			break
		}
		if top.IsFilled() {
			opposite.PopHead()
			continue
		}
		if !cross(incoming.Price, top.Price) {
			break
		}

		filled := min(result.Remainder, top.Size)
		fill := orderbookv1.Fill{
			Price:      top.Price,
			Size:       filled,
			RestingID:  top.ID,
			IncomingID: incoming.ID,
			TakerSide:  taker,
		}
		result.Fills = append(result.Fills, fill)
		result.Notional = result.Notional.Add(fill.Notional())
		result.Remainder -= filled

		top.Size -= filled
		if top.IsFilled() {
			opposite.PopHead()
		}
	}

	incoming.Size = result.Remainder
	return result
}

// ClearBook matches the best bid against the best ask until they no longer
// cross or a side is empty. Fills happen at the ask price.
func (ob *Orderbook) ClearBook() orderbookv1.ClearResult {
	result := orderbookv1.ClearResult{Notional: decimal.Zero}
	crosses := orderbookv1.Buy.Crosses()

	for {
		bid, ask := ob.bids.Head(), ob.asks.Head()
		if bid == nil || ask == nil {
			break
		}
		if bid.IsFilled() {
			ob.bids.PopHead()
			continue
		}
		if ask.IsFilled() {
			ob.asks.PopHead()
			continue
		}
		if !crosses(bid.Price, ask.Price) {
			break
		}

		filled := min(bid.Size, ask.Size)
		fill := orderbookv1.Fill{
			Price:      ask.Price,
			Size:       filled,
			RestingID:  ask.ID,
			IncomingID: bid.ID,
			TakerSide:  orderbookv1.Buy,
		}
		result.Fills = append(result.Fills, fill)
		result.Notional = result.Notional.Add(fill.Notional())

		bid.Size -= filled
		ask.Size -= filled
		if bid.IsFilled() {
			ob.bids.PopHead()
		}
		if ask.IsFilled() {
			ob.asks.PopHead()
		}
	}

	return result
}

// Top returns copies of the best bid and ask.
func (ob *Orderbook) Top() orderbookv1.TopOfBook {
	var top orderbookv1.TopOfBook
	if bid := ob.bids.Head(); bid != nil {
		top.Bid = &orderbookv1.Quote{Price: bid.Price, Size: bid.Size}
	}
	if ask := ob.asks.Head(); ask != nil {
		top.Ask = &orderbookv1.Quote{Price: ask.Price, Size: ask.Size}
	}
	return top
}

// Validate checks both queues and the no-cross invariant.
func (ob *Orderbook) Validate() error {
	if err := ob.bids.Validate(); err != nil {
		return fmt.Errorf("bids: %w", err)
	}
	if err := ob.asks.Validate(); err != nil {
		return fmt.Errorf("asks: %w", err)
	}

	bid, ask := ob.bids.Head(), ob.asks.Head()
	if bid != nil && ask != nil && bid.Price.GreaterThanOrEqual(ask.Price) {
		return fmt.Errorf("crossed book: bid %s >= ask %s", bid.Price, ask.Price)
	}
	return nil
}

// CreateSnapshot copies every resting order of the book.
func (ob *Orderbook) CreateSnapshot() snapshotv1.BookSnapshot {
	return snapshotv1.BookSnapshot{
		Instrument: ob.instrument,
		Bids:       toBookOrders(ob.bids.Orders()),
		Asks:       toBookOrders(ob.asks.Orders()),
	}
}

func toBookOrders(orders []orderbookv1.Order) []snapshotv1.BookOrder {
	bookOrders := make([]snapshotv1.BookOrder, 0, len(orders))
	for _, o := range orders {
		bookOrders = append(bookOrders, snapshotv1.BookOrder{
			OrderID: o.ID,
			Price:   o.Price,
			Size:    o.Size,
			Age:     o.Age,
			Arrival: o.Arrival,
		})
	}
	return bookOrders
}

// RestoreOrderbook replaces the book's contents with snapshot and clears any
// crossed liquidity it contained. Filled or expired orders are skipped.
func (ob *Orderbook) RestoreOrderbook(snapshot snapshotv1.BookSnapshot) (orderbookv1.ClearResult, error) {
	if snapshot.Instrument != ob.instrument {
		return orderbookv1.ClearResult{}, fmt.Errorf("snapshot for %s cannot restore %s", snapshot.Instrument, ob.instrument)
	}

	bids := orderbookv1.NewQueue(orderbookv1.Buy)
	asks := orderbookv1.NewQueue(orderbookv1.Sell)

	if err := restoreQueue(bids, snapshot.Bids); err != nil {
		return orderbookv1.ClearResult{}, fmt.Errorf("restore bids: %w", err)
	}
	if err := restoreQueue(asks, snapshot.Asks); err != nil {
		return orderbookv1.ClearResult{}, fmt.Errorf("restore asks: %w", err)
	}

	ob.bids, ob.asks = bids, asks
	return ob.ClearBook(), nil
}

func restoreQueue(q *orderbookv1.Queue, bookOrders []snapshotv1.BookOrder) error {
	sorted := make([]snapshotv1.BookOrder, len(bookOrders))
	copy(sorted, bookOrders)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Arrival < sorted[j].Arrival
	})

	for _, bo := range sorted {
		if bo.Size == 0 || bo.Age <= 0 {
			continue
		}
		order := &orderbookv1.Order{
			ID:      bo.OrderID,
			Price:   bo.Price,
			Size:    bo.Size,
			Age:     bo.Age,
			Arrival: bo.Arrival,
		}
		if err := q.Push(order); err != nil {
			return fmt.Errorf("order %s: %w", bo.OrderID, err)
		}
	}
	return nil
}
