package engine

import (
	"context"
	stderrors "errors"
	"io"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	orderreadermock "github.com/muhammadchandra19/datafeed/internal/domain/order-reader/v1/mock"
	orderbookv1 "github.com/muhammadchandra19/datafeed/internal/domain/orderbook/v1"
	snapshotv1 "github.com/muhammadchandra19/datafeed/internal/domain/snapshot/v1"
	snapshotmock "github.com/muhammadchandra19/datafeed/internal/domain/snapshot/v1/mock"
	"github.com/muhammadchandra19/datafeed/pkg/errors"
	"github.com/muhammadchandra19/datafeed/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test fixtures and helpers
type testFixture struct {
	ctrl              *gomock.Controller
	mockOrderSource   *orderreadermock.MockOrderSource
	mockSnapshotStore *snapshotmock.MockStore
	options           *Options
}

func setupTestFixture(t *testing.T) *testFixture {
	ctrl := gomock.NewController(t)

	opts := DefaultEngineOptions()
	opts.SnapshotInterval = time.Hour

	return &testFixture{
		ctrl:              ctrl,
		mockOrderSource:   orderreadermock.NewMockOrderSource(ctrl),
		mockSnapshotStore: snapshotmock.NewMockStore(ctrl),
		options:           opts,
	}
}

func (f *testFixture) teardown() {
	f.ctrl.Finish()
}

func (f *testFixture) engine() *Engine {
	return NewEngineWithOptions(testInstruments, Dependencies{
		Source:        f.mockOrderSource,
		SnapshotStore: f.mockSnapshotStore,
		Logger:        logger.NewNop(),
	}, f.options)
}

func waitFeed(t *testing.T, e *Engine) {
	t.Helper()
	select {
	case <-e.FeedDone():
	case <-time.After(5 * time.Second):
		t.Fatal("order processor did not finish")
	}
}

func TestEngine_StartProcessesFeed(t *testing.T) {
	f := setupTestFixture(t)
	defer f.teardown()

	gomock.InOrder(
		f.mockSnapshotStore.EXPECT().LoadStore(gomock.Any()).Return(nil, nil),
		f.mockOrderSource.EXPECT().Next(gomock.Any()).Return(request("ABC", orderbookv1.Sell, "99", 30), nil),
		f.mockOrderSource.EXPECT().Next(gomock.Any()).Return(orderbookv1.OrderRequest{}, errors.NewErrorDetails("bad row", errors.FeedParseError.String(), "price")),
		f.mockOrderSource.EXPECT().Next(gomock.Any()).Return(request("XYZ", orderbookv1.Buy, "100", 5), nil),
		f.mockOrderSource.EXPECT().Next(gomock.Any()).Return(request("ABC", orderbookv1.Buy, "100", 50), nil),
		f.mockOrderSource.EXPECT().Next(gomock.Any()).Return(orderbookv1.OrderRequest{}, io.EOF),
		f.mockOrderSource.EXPECT().Close().Return(nil),
	)

	e := f.engine()
	require.NoError(t, e.Start(context.Background()))
	waitFeed(t, e)

	assert.Equal(t, int64(2), e.Sequence())
	top := e.TopOfBook("ABC")
	assertQuote(t, top.Bid, "100", 20)
	assert.Nil(t, top.Ask)

	var stored *snapshotv1.Snapshot
	f.mockSnapshotStore.EXPECT().Store(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, s *snapshotv1.Snapshot) error {
			stored = s
			return nil
		})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, e.Stop(ctx))

	require.NotNil(t, stored)
	assert.Equal(t, int64(2), stored.Sequence)
	assert.Equal(t, int64(2), e.LastSnapshotSequence())
}

func TestEngine_StartRestoresSnapshot(t *testing.T) {
	f := setupTestFixture(t)
	defer f.teardown()

	snapshot := &snapshotv1.Snapshot{
		Sequence: 7,
		Books: []snapshotv1.BookSnapshot{{
			Instrument: "DEF",
			Bids: []snapshotv1.BookOrder{
				{OrderID: "b1", Price: decimal.NewFromInt(60), Size: 5, Age: 3, Arrival: 6},
			},
			Asks: []snapshotv1.BookOrder{
				{OrderID: "a1", Price: decimal.NewFromInt(61), Size: 2, Age: 3, Arrival: 7},
			},
		}},
	}

	f.mockSnapshotStore.EXPECT().LoadStore(gomock.Any()).Return(snapshot, nil)
	f.mockOrderSource.EXPECT().Next(gomock.Any()).Return(orderbookv1.OrderRequest{}, io.EOF)
	f.mockOrderSource.EXPECT().Close().Return(nil)

	e := f.engine()
	require.NoError(t, e.Start(context.Background()))
	waitFeed(t, e)

	top := e.TopOfBook("DEF")
	assertQuote(t, top.Bid, "60", 5)
	assertQuote(t, top.Ask, "61", 2)
	assert.Equal(t, int64(7), e.Sequence())

	// nothing new since the restored snapshot, so Stop stores nothing
	require.NoError(t, e.Stop(context.Background()))
}

func TestEngine_StartLoadError(t *testing.T) {
	f := setupTestFixture(t)
	defer f.teardown()

	f.mockSnapshotStore.EXPECT().LoadStore(gomock.Any()).Return(nil, stderrors.New("redis down"))

	e := f.engine()
	assert.Error(t, e.Start(context.Background()))
}

func TestEngine_ProcessorBacksOffOnReadError(t *testing.T) {
	f := setupTestFixture(t)
	defer f.teardown()

	gomock.InOrder(
		f.mockSnapshotStore.EXPECT().LoadStore(gomock.Any()).Return(nil, nil),
		f.mockOrderSource.EXPECT().Next(gomock.Any()).Return(orderbookv1.OrderRequest{}, stderrors.New("broker gone")),
		f.mockOrderSource.EXPECT().Next(gomock.Any()).Return(request("ABC", orderbookv1.Buy, "10", 1), nil),
		f.mockOrderSource.EXPECT().Next(gomock.Any()).Return(orderbookv1.OrderRequest{}, io.EOF),
		f.mockOrderSource.EXPECT().Close().Return(nil),
	)

	e := f.engine()
	started := time.Now()
	require.NoError(t, e.Start(context.Background()))
	waitFeed(t, e)

	assert.GreaterOrEqual(t, time.Since(started), readBackoff)
	assert.Equal(t, int64(1), e.Sequence())

	f.mockSnapshotStore.EXPECT().Store(gomock.Any(), gomock.Any()).Return(nil)
	require.NoError(t, e.Stop(context.Background()))
}

func TestEngine_StopInterruptsPacing(t *testing.T) {
	f := setupTestFixture(t)
	defer f.teardown()
	f.options.Interval = time.Hour

	called := make(chan struct{})
	f.mockSnapshotStore.EXPECT().LoadStore(gomock.Any()).Return(nil, nil)
	f.mockOrderSource.EXPECT().Next(gomock.Any()).
		Do(func(context.Context) { close(called) }).
		Return(request("ABC", orderbookv1.Buy, "10", 1), nil)
	f.mockOrderSource.EXPECT().Close().Return(nil)

	e := f.engine()
	require.NoError(t, e.Start(context.Background()))

	select {
	case <-called:
	case <-time.After(5 * time.Second):
		t.Fatal("order processor never read from the source")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stopping := time.Now()
	require.NoError(t, e.Stop(ctx))
	assert.Less(t, time.Since(stopping), time.Second)

	waitFeed(t, e)
	assert.Equal(t, int64(0), e.Sequence())
}

func TestEngine_StartWithoutCollaborators(t *testing.T) {
	e := NewEngine(testInstruments, Dependencies{})
	require.NoError(t, e.Start(context.Background()))
	waitFeed(t, e)
	require.NoError(t, e.Stop(context.Background()))
}

func TestEngine_StartTwice(t *testing.T) {
	e := NewEngine(testInstruments, Dependencies{})
	require.NoError(t, e.Start(context.Background()))

	assert.NotPanics(t, func() {
		assert.ErrorIs(t, e.Start(context.Background()), ErrAlreadyStarted)
	})
	waitFeed(t, e)
	require.NoError(t, e.Stop(context.Background()))
}

func TestEngine_StartRetriesAfterFailedRestore(t *testing.T) {
	f := setupTestFixture(t)
	defer f.teardown()

	gomock.InOrder(
		f.mockSnapshotStore.EXPECT().LoadStore(gomock.Any()).Return(nil, assert.AnError),
		f.mockSnapshotStore.EXPECT().LoadStore(gomock.Any()).Return(nil, nil),
	)
	f.mockOrderSource.EXPECT().Next(gomock.Any()).Return(orderbookv1.OrderRequest{}, io.EOF)
	f.mockOrderSource.EXPECT().Close().Return(nil)

	e := f.engine()
	assert.ErrorIs(t, e.Start(context.Background()), assert.AnError)
	require.NoError(t, e.Start(context.Background()))
	waitFeed(t, e)
	require.NoError(t, e.Stop(context.Background()))
}

func TestEngine_Pause(t *testing.T) {
	base := time.Date(2024, 1, 2, 0, 30, 0, 0, time.UTC)

	testCases := []struct {
		name     string
		options  Options
		last     time.Time
		next     time.Time
		expected time.Duration
	}{
		{name: "fixed interval", options: Options{Interval: 5 * time.Millisecond}, last: base, next: base.Add(time.Minute), expected: 5 * time.Millisecond},
		{name: "as fast as possible", options: Options{}, last: base, next: base.Add(time.Minute), expected: 0},
		{name: "realtime first row", options: Options{Realtime: true, Speedup: 1}, next: base, expected: 0},
		{name: "realtime gap", options: Options{Realtime: true, Speedup: 1}, last: base, next: base.Add(12 * time.Second), expected: 12 * time.Second},
		{name: "realtime speedup", options: Options{Realtime: true, Speedup: 4}, last: base, next: base.Add(12 * time.Second), expected: 3 * time.Second},
		{name: "realtime zero speedup", options: Options{Realtime: true}, last: base, next: base.Add(time.Second), expected: time.Second},
		{name: "realtime out of order", options: Options{Realtime: true, Speedup: 1}, last: base, next: base.Add(-time.Second), expected: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opts := tc.options
			e := NewEngineWithOptions(testInstruments, Dependencies{}, &opts)
			assert.Equal(t, tc.expected, e.pause(tc.last, tc.next))
		})
	}
}

func TestEngine_ShouldCreateSnapshot(t *testing.T) {
	e := newTestEngine(nil)
	assert.False(t, e.shouldCreateSnapshot(1))

	mustSubmit(t, e, request("ABC", orderbookv1.Buy, "10", 1))
	mustSubmit(t, e, request("ABC", orderbookv1.Buy, "11", 1))
	assert.True(t, e.shouldCreateSnapshot(2))
	assert.False(t, e.shouldCreateSnapshot(3))
}
