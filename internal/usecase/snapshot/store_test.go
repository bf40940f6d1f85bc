package snapshot

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	snapshotv1 "github.com/muhammadchandra19/datafeed/internal/domain/snapshot/v1"
	"github.com/muhammadchandra19/datafeed/pkg/logger"
	redis_mock "github.com/muhammadchandra19/datafeed/pkg/redis/mock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() *snapshotv1.Snapshot {
	return &snapshotv1.Snapshot{
		Sequence: 42,
		Books: []snapshotv1.BookSnapshot{{
			Instrument: "ABC",
			Bids: []snapshotv1.BookOrder{{
				OrderID: "b1", Price: decimal.RequireFromString("59.5"), Size: 10, Age: 3, Arrival: 1,
			}},
			Asks: []snapshotv1.BookOrder{},
		}},
	}
}

func TestStore_Store(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := redis_mock.NewMockClient(ctrl)
	store := NewSnapshotStore(client, logger.NewNop())

	t.Run("success", func(t *testing.T) {
		var stored []byte
		client.EXPECT().
			Set(gomock.Any(), Key, gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, value any, _ time.Duration) error {
				stored = value.([]byte)
				return nil
			})

		require.NoError(t, store.Store(context.Background(), sampleSnapshot()))
		assert.Contains(t, string(stored), `"sequence":42`)
		assert.Contains(t, string(stored), `"price":"59.5"`)
	})

	t.Run("redis error", func(t *testing.T) {
		client.EXPECT().Set(gomock.Any(), Key, gomock.Any(), gomock.Any()).Return(stderrors.New("down"))

		err := store.Store(context.Background(), sampleSnapshot())
		require.Error(t, err)
		assert.Equal(t, "snapshot_store_error", err.Error())
	})
}

func TestStore_LoadStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := redis_mock.NewMockClient(ctrl)
	store := NewSnapshotStore(client, logger.NewNop())
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		var stored []byte
		client.EXPECT().
			Set(gomock.Any(), Key, gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, value any, _ time.Duration) error {
				stored = value.([]byte)
				return nil
			})
		require.NoError(t, store.Store(ctx, sampleSnapshot()))

		client.EXPECT().Get(gomock.Any(), Key).Return(string(stored), nil)
		got, err := store.LoadStore(ctx)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, int64(42), got.Sequence)
		book := got.Book("ABC")
		require.NotNil(t, book)
		require.Len(t, book.Bids, 1)
		assert.True(t, book.Bids[0].Price.Equal(decimal.RequireFromString("59.5")))
	})

	t.Run("missing key", func(t *testing.T) {
		client.EXPECT().Get(gomock.Any(), Key).Return("", nil)
		got, err := store.LoadStore(ctx)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("corrupt value", func(t *testing.T) {
		client.EXPECT().Get(gomock.Any(), Key).Return("{", nil)
		_, err := store.LoadStore(ctx)
		require.Error(t, err)
		assert.Equal(t, "snapshot_unmarshal_error", err.Error())
	})

	t.Run("redis error", func(t *testing.T) {
		client.EXPECT().Get(gomock.Any(), Key).Return("", stderrors.New("down"))
		_, err := store.LoadStore(ctx)
		require.Error(t, err)
		assert.Equal(t, "snapshot_load_error", err.Error())
	})
}
