package orderreaderv1

import (
	"testing"
	"time"

	orderbookv1 "github.com/muhammadchandra19/datafeed/internal/domain/orderbook/v1"
	"github.com/muhammadchandra19/datafeed/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord(t *testing.T) {
	req := orderbookv1.OrderRequest{
		Timestamp:  time.Date(2024, 1, 2, 0, 30, 12, 500000000, time.Local),
		Instrument: "ABC",
		Side:       orderbookv1.Sell,
		Price:      decimal.RequireFromString("61.2"),
		Size:       87,
	}

	record := ToRecord(req)
	assert.Equal(t, []string{"2024-01-02 00:30:12.500000", "ABC", "sell", "61.20", "87"}, record)

	parsed, err := FromRecord(record)
	require.NoError(t, err)
	assert.True(t, req.Timestamp.Equal(parsed.Timestamp))
	assert.Equal(t, req.Instrument, parsed.Instrument)
	assert.Equal(t, req.Side, parsed.Side)
	assert.True(t, req.Price.Equal(parsed.Price))
	assert.Equal(t, req.Size, parsed.Size)
}

func TestFromRecord_Timestamps(t *testing.T) {
	testCases := []struct {
		value    string
		expected time.Time
	}{
		{"2024-01-02 00:30:12", time.Date(2024, 1, 2, 0, 30, 12, 0, time.Local)},
		{"2024-01-02 00:30:12.000000", time.Date(2024, 1, 2, 0, 30, 12, 0, time.Local)},
		{"2024-01-02 00:30:12.25", time.Date(2024, 1, 2, 0, 30, 12, 250000000, time.Local)},
		{" 2024-01-02 00:30:12.500000 ", time.Date(2024, 1, 2, 0, 30, 12, 500000000, time.Local)},
	}

	for _, tc := range testCases {
		t.Run(tc.value, func(t *testing.T) {
			req, err := FromRecord([]string{tc.value, "ABC", "buy", "59.10", "10"})
			require.NoError(t, err)
			assert.True(t, tc.expected.Equal(req.Timestamp), "got %s", req.Timestamp)
		})
	}
}

func TestFromRecord_Errors(t *testing.T) {
	valid := []string{"2024-01-02 00:30:12.000000", "ABC", "buy", "59.10", "10"}

	testCases := []struct {
		name  string
		col   int
		value string
		field string
	}{
		{name: "bad timestamp", col: ColTimestamp, value: "yesterday", field: "timestamp"},
		{name: "empty instrument", col: ColInstrument, value: " ", field: "instrument"},
		{name: "bad side", col: ColSide, value: "hold", field: "side"},
		{name: "bad price", col: ColPrice, value: "abc", field: "price"},
		{name: "bad size", col: ColSize, value: "1.5", field: "size"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			record := append([]string(nil), valid...)
			record[tc.col] = tc.value

			_, err := FromRecord(record)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.FeedParseError))

			details, ok := err.(*errors.ErrorDetails)
			require.True(t, ok)
			assert.Equal(t, tc.field, details.Field)
		})
	}

	t.Run("wrong column count", func(t *testing.T) {
		_, err := FromRecord(valid[:3])
		assert.True(t, errors.HasCode(err, errors.FeedParseError))
	})
}
