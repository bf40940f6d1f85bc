package orderbookv1

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrNilOrder     = errors.New("order cannot be nil")
	ErrInvalidPrice = errors.New("price must not be negative")
	ErrInvalidSize  = errors.New("size must not be negative")
	ErrInvalidAge   = errors.New("age must be positive")
)

// Queue is one side of a book: orders kept best price first, then by arrival.
// Bids rank the highest price first, asks the lowest.
// Queue is not safe for concurrent use; the owning book is guarded by the engine.
type Queue struct {
	side   Side
	orders []*Order
}

// NewQueue creates an empty queue for side.
func NewQueue(side Side) *Queue {
	return &Queue{
		side:   side,
		orders: make([]*Order, 0),
	}
}

// Side returns the side this queue holds.
func (q *Queue) Side() Side {
	return q.side
}

// better reports whether a has strictly higher price priority than b.
func (q *Queue) better(a, b *Order) bool {
	if q.side == Buy {
		return a.Price.GreaterThan(b.Price)
	}
	return a.Price.LessThan(b.Price)
}

// Insert ages every resting order by one tick, drops those that reach zero,
// then places order behind all resting orders of equal or better price.
// It returns the orders that expired.
func (q *Queue) Insert(order *Order) ([]*Order, error) {
	if err := Validate(order); err != nil {
		return nil, err
	}

	expired := q.age()
	q.place(order)

	return expired, nil
}

// Push places order by price-time priority without aging its siblings.
func (q *Queue) Push(order *Order) error {
	if err := Validate(order); err != nil {
		return err
	}

	q.place(order)
	return nil
}

func (q *Queue) place(order *Order) {
	i := sort.Search(len(q.orders), func(i int) bool {
		return q.better(order, q.orders[i])
	})

	q.orders = append(q.orders, nil)
	copy(q.orders[i+1:], q.orders[i:])
	q.orders[i] = order
}

// age decrements every resting order and filters out the ones at or below zero.
func (q *Queue) age() []*Order {
	var expired []*Order

	kept := q.orders[:0]
	for _, o := range q.orders {
		o.Age--
		if o.IsExpired() {
			expired = append(expired, o)
			continue
		}
		kept = append(kept, o)
	}

	// release references held past the new length
	for i := len(kept); i < len(q.orders); i++ {
		q.orders[i] = nil
	}
	q.orders = kept

	return expired
}

// Head returns the best order, or nil when the queue is empty.
func (q *Queue) Head() *Order {
	if len(q.orders) == 0 {
		return nil
	}
	return q.orders[0]
}

// PopHead removes and returns the best order.
func (q *Queue) PopHead() *Order {
	head := q.Head()
	if head == nil {
		return nil
	}

	q.orders[0] = nil
	q.orders = q.orders[1:]
	return head
}

// Len returns the number of resting orders.
func (q *Queue) Len() int {
	return len(q.orders)
}

// IsEmpty checks if the queue has no orders.
func (q *Queue) IsEmpty() bool {
	return len(q.orders) == 0
}

// TotalSize returns the sum of resting sizes.
func (q *Queue) TotalSize() int64 {
	var total int64
	for _, o := range q.orders {
		total += o.Size
	}
	return total
}

// Orders returns value copies of the resting orders in priority order.
func (q *Queue) Orders() []Order {
	orders := make([]Order, len(q.orders))
	for i, o := range q.orders {
		orders[i] = *o
	}
	return orders
}

// Validate performs basic validation of the queue's ordering and contents.
func (q *Queue) Validate() error {
	for i, o := range q.orders {
		if err := Validate(o); err != nil {
			return fmt.Errorf("order %d: %w", i, err)
		}
		if o.Size == 0 {
			return fmt.Errorf("order %d: filled order still resting", i)
		}
		if i > 0 && q.better(o, q.orders[i-1]) {
			return fmt.Errorf("order %d: out of price priority", i)
		}
	}
	return nil
}

// Validate checks an order can rest in a queue.
func Validate(order *Order) error {
	if order == nil {
		return ErrNilOrder
	}
	if order.Price.IsNegative() {
		return fmt.Errorf("%w: got %s", ErrInvalidPrice, order.Price)
	}
	if order.Size < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidSize, order.Size)
	}
	if order.Age <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidAge, order.Age)
	}
	return nil
}
