package orderreader

import (
	"context"
	stderrors "errors"
	"testing"

	orderbookv1 "github.com/muhammadchandra19/datafeed/internal/domain/orderbook/v1"
	"github.com/muhammadchandra19/datafeed/pkg/errors"
	"github.com/muhammadchandra19/datafeed/pkg/logger"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessageReader struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeMessageReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if f.err != nil {
		return kafka.Message{}, f.err
	}
	if len(f.msgs) == 0 {
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	msg := f.msgs[0]
	f.msgs = f.msgs[1:]
	return msg, nil
}

func (f *fakeMessageReader) Close() error {
	f.closed = true
	return nil
}

func TestReader_Next(t *testing.T) {
	fake := &fakeMessageReader{msgs: []kafka.Message{
		{Offset: 1, Value: []byte(`{"timestamp":"2024-01-02T00:30:12Z","stock":"DEF","side":"sell","price":"61.5","size":7}`)},
		{Offset: 2, Value: []byte(`{`)},
	}}
	r := NewReaderWithMessageReader(fake, logger.NewNop())
	ctx := context.Background()

	req, err := r.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "DEF", req.Instrument)
	assert.Equal(t, orderbookv1.Sell, req.Side)
	assert.True(t, req.Price.Equal(decimal.RequireFromString("61.5")))
	assert.Equal(t, int64(7), req.Size)

	_, err = r.Next(ctx)
	assert.True(t, errors.HasCode(err, errors.FeedParseError))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = r.Next(cancelled)
	assert.ErrorIs(t, err, context.Canceled)

	require.NoError(t, r.Close())
	assert.True(t, fake.closed)
}

func TestReader_NextReadError(t *testing.T) {
	fake := &fakeMessageReader{err: stderrors.New("broker gone")}
	r := NewReaderWithMessageReader(fake, logger.NewNop())

	_, err := r.Next(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.FeedReadError.String(), err.Error())
	assert.False(t, errors.HasCode(err, errors.FeedParseError))
}
