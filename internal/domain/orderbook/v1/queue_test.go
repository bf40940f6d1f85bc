package orderbookv1

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create an order with a fixed id
func createTestOrder(id string, price string, size int64, age int) *Order {
	return &Order{
		ID:    id,
		Price: decimal.RequireFromString(price),
		Size:  size,
		Age:   age,
	}
}

func ids(orders []Order) []string {
	out := make([]string, len(orders))
	for i, o := range orders {
		out[i] = o.ID
	}
	return out
}

func TestNewQueue(t *testing.T) {
	q := NewQueue(Buy)

	assert.NotNil(t, q)
	assert.Equal(t, Buy, q.Side())
	assert.True(t, q.IsEmpty())
	assert.Nil(t, q.Head())
	assert.Nil(t, q.PopHead())
}

func TestQueue_PricePriority(t *testing.T) {
	t.Run("bids highest first", func(t *testing.T) {
		q := NewQueue(Buy)
		require.NoError(t, q.Push(createTestOrder("b1", "99", 10, 10)))
		require.NoError(t, q.Push(createTestOrder("b2", "101", 10, 10)))
		require.NoError(t, q.Push(createTestOrder("b3", "100", 10, 10)))

		assert.Equal(t, []string{"b2", "b3", "b1"}, ids(q.Orders()))
		assert.NoError(t, q.Validate())
	})

	t.Run("asks lowest first", func(t *testing.T) {
		q := NewQueue(Sell)
		require.NoError(t, q.Push(createTestOrder("a1", "101", 10, 10)))
		require.NoError(t, q.Push(createTestOrder("a2", "99", 10, 10)))
		require.NoError(t, q.Push(createTestOrder("a3", "100", 10, 10)))

		assert.Equal(t, []string{"a2", "a3", "a1"}, ids(q.Orders()))
		assert.NoError(t, q.Validate())
	})

	t.Run("equal prices keep arrival order", func(t *testing.T) {
		q := NewQueue(Sell)
		require.NoError(t, q.Push(createTestOrder("first", "100", 10, 10)))
		require.NoError(t, q.Push(createTestOrder("better", "99.5", 10, 10)))
		require.NoError(t, q.Push(createTestOrder("second", "100.00", 10, 10)))

		assert.Equal(t, []string{"better", "first", "second"}, ids(q.Orders()))
	})
}

func TestQueue_InsertAgesSiblings(t *testing.T) {
	q := NewQueue(Buy)

	expired, err := q.Insert(createTestOrder("old", "100", 10, 2))
	require.NoError(t, err)
	assert.Empty(t, expired)

	_, err = q.Insert(createTestOrder("n1", "98", 10, 10))
	require.NoError(t, err)
	assert.Equal(t, 1, q.Orders()[0].Age, "old order aged once")
	assert.Equal(t, 10, q.Orders()[1].Age, "new order is not aged by its own insertion")

	expired, err = q.Insert(createTestOrder("n2", "97", 10, 10))
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "old", expired[0].ID)
	assert.Equal(t, []string{"n1", "n2"}, ids(q.Orders()))
	assert.Equal(t, 9, q.Orders()[0].Age)
}

func TestQueue_InsertAgeOneExpiresOnNextInsert(t *testing.T) {
	q := NewQueue(Sell)

	_, err := q.Insert(createTestOrder("short", "100", 5, 1))
	require.NoError(t, err)

	expired, err := q.Insert(createTestOrder("next", "101", 5, 10))
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, []string{"next"}, ids(q.Orders()))
}

func TestQueue_PushDoesNotAge(t *testing.T) {
	q := NewQueue(Sell)
	require.NoError(t, q.Push(createTestOrder("a1", "100", 5, 1)))
	require.NoError(t, q.Push(createTestOrder("a2", "101", 5, 1)))

	assert.Equal(t, 2, q.Len())
	assert.Equal(t, 1, q.Head().Age)
}

func TestQueue_PopHead(t *testing.T) {
	q := NewQueue(Buy)
	require.NoError(t, q.Push(createTestOrder("b1", "99", 10, 10)))
	require.NoError(t, q.Push(createTestOrder("b2", "100", 7, 10)))

	assert.Equal(t, int64(17), q.TotalSize())

	head := q.PopHead()
	require.NotNil(t, head)
	assert.Equal(t, "b2", head.ID)
	assert.Equal(t, 1, q.Len())
	assert.Equal(t, int64(10), q.TotalSize())
}

func TestQueue_OrdersAreCopies(t *testing.T) {
	q := NewQueue(Buy)
	require.NoError(t, q.Push(createTestOrder("b1", "99", 10, 10)))

	orders := q.Orders()
	orders[0].Size = 1

	assert.Equal(t, int64(10), q.Head().Size)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name  string
		order *Order
		err   error
	}{
		{name: "nil order", order: nil, err: ErrNilOrder},
		{name: "negative price", order: createTestOrder("x", "-1", 1, 1), err: ErrInvalidPrice},
		{name: "negative size", order: createTestOrder("x", "1", -1, 1), err: ErrInvalidSize},
		{name: "zero age", order: createTestOrder("x", "1", 1, 0), err: ErrInvalidAge},
		{name: "valid", order: createTestOrder("x", "1", 1, 1)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.order)
			if tc.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.err)

			q := NewQueue(Buy)
			assert.ErrorIs(t, q.Push(tc.order), tc.err)
			_, err = q.Insert(tc.order)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestQueue_ValidateDetectsFilledOrder(t *testing.T) {
	q := NewQueue(Buy)
	require.NoError(t, q.Push(createTestOrder("b1", "99", 10, 10)))
	q.Head().Size = 0

	assert.Error(t, q.Validate())
}
