package query

import (
	"encoding/json"
	"testing"
	"time"

	orderbookv1 "github.com/muhammadchandra19/datafeed/internal/domain/orderbook/v1"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBooks map[string]orderbookv1.TopOfBook

func (s stubBooks) TopOfBook(instrument string) orderbookv1.TopOfBook {
	return s[instrument]
}

func newTestService(books stubBooks) *Service {
	s := NewService(books)
	s.now = func() time.Time { return time.Date(2024, 1, 2, 0, 30, 0, 123456789, time.UTC) }
	return s
}

func TestService_TopOfBook(t *testing.T) {
	books := stubBooks{
		"ABC": {
			Bid: &orderbookv1.Quote{Price: decimal.RequireFromString("59.75"), Size: 12},
			Ask: &orderbookv1.Quote{Price: decimal.RequireFromString("60.1"), Size: 3},
		},
		"DEF": {
			Ask: &orderbookv1.Quote{Price: decimal.NewFromInt(61), Size: 9},
		},
	}
	s := newTestService(books)

	testCases := []struct {
		name     string
		symbol   string
		expected string
	}{
		{
			name:     "both sides",
			symbol:   "ABC",
			expected: `{"stock":"ABC","timestamp":"2024-01-02T00:30:00.123456789Z","top_bid":{"price":59.75,"size":12},"top_ask":{"price":60.1,"size":3}}`,
		},
		{
			name:     "empty bid side",
			symbol:   "DEF",
			expected: `{"stock":"DEF","timestamp":"2024-01-02T00:30:00.123456789Z","top_bid":null,"top_ask":{"price":61,"size":9}}`,
		},
		{
			name:     "unknown symbol",
			symbol:   "XYZ",
			expected: `{"stock":"XYZ","timestamp":"2024-01-02T00:30:00.123456789Z","top_bid":null,"top_ask":null}`,
		},
		{
			name:     "missing symbol",
			symbol:   "",
			expected: `{"stock":null,"timestamp":"2024-01-02T00:30:00.123456789Z","top_bid":null,"top_ask":null}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			body, err := json.Marshal(s.TopOfBook(tc.symbol))
			require.NoError(t, err)
			assert.JSONEq(t, tc.expected, string(body))
		})
	}
}

func TestResponse_Equal(t *testing.T) {
	s := NewService(stubBooks{"ABC": {Bid: &orderbookv1.Quote{Price: decimal.NewFromInt(10), Size: 1}}})

	first := s.TopOfBook("ABC")
	second := s.TopOfBook("ABC")
	assert.True(t, first.Equal(second))
	assert.False(t, first.Equal(s.TopOfBook("DEF")))
	assert.False(t, first.Equal(s.TopOfBook("")))
}
