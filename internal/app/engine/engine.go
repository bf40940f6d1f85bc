package engine

import (
	"context"
	"sync"
	"sync/atomic"

	matchpublisherv1 "github.com/muhammadchandra19/datafeed/internal/domain/match-publisher/v1"
	orderreaderv1 "github.com/muhammadchandra19/datafeed/internal/domain/order-reader/v1"
	orderbookv1 "github.com/muhammadchandra19/datafeed/internal/domain/orderbook/v1"
	snapshotv1 "github.com/muhammadchandra19/datafeed/internal/domain/snapshot/v1"
	"github.com/muhammadchandra19/datafeed/internal/metrics"
	"github.com/muhammadchandra19/datafeed/internal/usecase/orderbook"
	"github.com/muhammadchandra19/datafeed/pkg/errors"
	"github.com/muhammadchandra19/datafeed/pkg/logger"
	"github.com/shopspring/decimal"
)

// Dependencies are the optional collaborators of the engine. Nil members are skipped.
type Dependencies struct {
	Source        orderreaderv1.OrderSource
	SnapshotStore snapshotv1.Store
	Publisher     matchpublisherv1.MatchPublisher
	Metrics       *metrics.Recorder
	Logger        *logger.Logger
}

// SubmitResult describes what one submission did to its book.
type SubmitResult struct {
	OrderID string
	// Filled is how much of the incoming order matched on arrival.
	Filled    int64
	Remainder int64
	Notional  decimal.Decimal
	Fills     []orderbookv1.Fill
	Expired   []orderbookv1.Order
}

// Engine owns one order book per configured instrument. Every read and write
// of a book happens under mu; callers only ever see copies.
type Engine struct {
	mu                   sync.Mutex
	books                map[string]*orderbook.Orderbook
	instruments          []string
	arrival              int64
	sequence             int64
	lastSnapshotSequence int64

	source        orderreaderv1.OrderSource
	snapshotStore snapshotv1.Store
	publisher     matchpublisherv1.MatchPublisher
	metrics       *metrics.Recorder
	logger        *logger.Logger
	options       *Options

	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	processorDone chan struct{}
	started       atomic.Bool
}

// NewEngine creates an engine with the default options.
func NewEngine(instruments []string, deps Dependencies) *Engine {
	return NewEngineWithOptions(instruments, deps, DefaultEngineOptions())
}

// NewEngineWithOptions creates a new engine with custom options.
// Duplicate instruments are ignored.
func NewEngineWithOptions(instruments []string, deps Dependencies, options *Options) *Engine {
	if options == nil {
		options = DefaultEngineOptions()
	}
	log := deps.Logger
	if log == nil {
		log = logger.NewNop()
	}

	e := &Engine{
		books:         make(map[string]*orderbook.Orderbook, len(instruments)),
		source:        deps.Source,
		snapshotStore: deps.SnapshotStore,
		publisher:     deps.Publisher,
		metrics:       deps.Metrics,
		logger:        log,
		options:       options,
		processorDone: make(chan struct{}),
	}
	for _, instrument := range instruments {
		if _, ok := e.books[instrument]; ok {
			continue
		}
		e.books[instrument] = orderbook.NewOrderbook(instrument)
		e.instruments = append(e.instruments, instrument)
	}
	return e
}

// Instruments returns the configured instrument ids in configuration order.
func (e *Engine) Instruments() []string {
	out := make([]string, len(e.instruments))
	copy(out, e.instruments)
	return out
}

// Sequence returns the number of submissions applied so far.
func (e *Engine) Sequence() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sequence
}

// TopOfBook returns the best bid and ask of instrument. Unknown instruments
// yield an empty value.
func (e *Engine) TopOfBook(instrument string) orderbookv1.TopOfBook {
	e.mu.Lock()
	defer e.mu.Unlock()

	book, ok := e.books[instrument]
	if !ok {
		return orderbookv1.TopOfBook{}
	}
	return book.Top()
}

// Depth returns the number of resting orders on each side of instrument.
func (e *Engine) Depth(instrument string) (bids, asks int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	book, ok := e.books[instrument]
	if !ok {
		return 0, 0
	}
	return book.Bids().Len(), book.Asks().Len()
}

// Submit matches req against its book and rests any remainder. A zero size is a no-op.
func (e *Engine) Submit(ctx context.Context, req orderbookv1.OrderRequest) (*SubmitResult, error) {
	if err := validateRequest(req); err != nil {
		e.reject(ctx, req, err)
		return nil, err
	}

	e.mu.Lock()
	book, ok := e.books[req.Instrument]
	if !ok {
		e.mu.Unlock()
		err := ErrUnknownInstrument(req.Instrument)
		e.reject(ctx, req, err)
		return nil, err
	}
	if req.Size == 0 {
		e.mu.Unlock()
		return &SubmitResult{Notional: decimal.Zero}, nil
	}

	order := orderbookv1.NewOrder(req.Price, req.Size, e.options.OrderAge)
	if err := orderbookv1.Validate(order); err != nil {
		e.mu.Unlock()
		err = ErrInvalidOrder(err.Error(), "order")
		e.reject(ctx, req, err)
		return nil, err
	}
	e.arrival++
	order.Arrival = e.arrival

	cleared := book.ClearOne(order, req.Side)

	var expired []*orderbookv1.Order
	if order.Size > 0 {
		// cannot fail: the order passed Validate
		expired, _ = book.Insert(order, req.Side)
	}

	swept := book.ClearBook()
	e.sequence++
	bids, asks := book.Bids().Len(), book.Asks().Len()
	e.mu.Unlock()

	result := &SubmitResult{
		OrderID:   order.ID,
		Filled:    cleared.Filled(),
		Remainder: cleared.Remainder,
		Notional:  cleared.Notional.Add(swept.Notional),
		Fills:     append(cleared.Fills, swept.Fills...),
		Expired:   make([]orderbookv1.Order, 0, len(expired)),
	}
	for _, o := range expired {
		result.Expired = append(result.Expired, *o)
	}

	e.afterSubmit(ctx, req, result, bids, asks)
	return result, nil
}

func validateRequest(req orderbookv1.OrderRequest) error {
	if req.Side != orderbookv1.Buy && req.Side != orderbookv1.Sell {
		return ErrInvalidOrder("side must be buy or sell", "side")
	}
	if req.Size < 0 {
		return ErrInvalidOrder("size must not be negative", "size")
	}
	if req.Price.IsNegative() {
		return ErrInvalidOrder("price must not be negative", "price")
	}
	return nil
}

func (e *Engine) reject(ctx context.Context, req orderbookv1.OrderRequest, err error) {
	reason := errors.InvalidOrderError.String()
	if errors.HasCode(err, errors.UnknownInstrumentError) {
		reason = errors.UnknownInstrumentError.String()
	}
	if e.metrics != nil {
		e.metrics.OrderRejected(reason)
	}
	e.logger.WarnContext(ctx, "order rejected",
		logger.Field{Key: "reason", Value: reason},
		logger.Field{Key: "error", Value: err.Error()},
		logger.Field{Key: "stock", Value: req.Instrument},
		logger.Field{Key: "side", Value: req.Side},
	)
}

// afterSubmit runs outside the guard: it only touches the result copy.
func (e *Engine) afterSubmit(ctx context.Context, req orderbookv1.OrderRequest, result *SubmitResult, bids, asks int) {
	var filledSize int64
	for _, f := range result.Fills {
		filledSize += f.Size
	}

	if e.metrics != nil {
		e.metrics.OrderSubmitted(req.Instrument, string(req.Side))
		e.metrics.Filled(req.Instrument, len(result.Fills), filledSize)
		e.metrics.Expired(req.Instrument, len(result.Expired))
		e.metrics.Depth(req.Instrument, bids, asks)
	}

	if len(result.Expired) > 0 {
		e.logger.DebugContext(ctx, "orders expired",
			logger.Field{Key: "stock", Value: req.Instrument},
			logger.Field{Key: "side", Value: req.Side},
			logger.Field{Key: "count", Value: len(result.Expired)},
		)
	}

	if len(result.Fills) == 0 {
		return
	}

	e.logMatches(ctx, req.Instrument, result)

	if e.publisher == nil {
		return
	}
	event := matchpublisherv1.CreateFromResult(req.Instrument, result.OrderID, orderbookv1.ClearResult{
		Remainder: result.Remainder,
		Notional:  result.Notional,
		Fills:     result.Fills,
	}, req.Timestamp)
	if err := e.publisher.PublishFillEvent(ctx, event); err != nil {
		e.logger.ErrorContext(ctx, err, logger.Field{Key: "action", Value: "publish_fill_event"})
	}
}

func (e *Engine) logMatches(ctx context.Context, instrument string, result *SubmitResult) {
	e.logger.InfoContext(ctx, "Matches executed",
		logger.Field{Key: "stock", Value: instrument},
		logger.Field{Key: "orderID", Value: result.OrderID},
		logger.Field{Key: "matchCount", Value: len(result.Fills)},
		logger.Field{Key: "notional", Value: result.Notional.String()},
		logger.Field{Key: "remainder", Value: result.Remainder},
	)

	for i, fill := range result.Fills {
		e.logger.DebugContext(ctx, "Trade executed",
			logger.Field{Key: "matchIndex", Value: i + 1},
			logger.Field{Key: "price", Value: fill.Price.String()},
			logger.Field{Key: "size", Value: fill.Size},
			logger.Field{Key: "takerSide", Value: fill.TakerSide},
			logger.Field{Key: "restingOrderID", Value: fill.RestingID},
			logger.Field{Key: "incomingOrderID", Value: fill.IncomingID},
		)
	}
}

// Snapshot copies every book.
func (e *Engine) Snapshot() *snapshotv1.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() *snapshotv1.Snapshot {
	snapshot := &snapshotv1.Snapshot{
		Sequence: e.sequence,
		Books:    make([]snapshotv1.BookSnapshot, 0, len(e.instruments)),
	}
	for _, instrument := range e.instruments {
		snapshot.Books = append(snapshot.Books, e.books[instrument].CreateSnapshot())
	}
	return snapshot
}

// Restore replaces the books present in snapshot. Books for instruments that
// are no longer configured are dropped.
func (e *Engine) Restore(snapshot *snapshotv1.Snapshot) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, bs := range snapshot.Books {
		book, ok := e.books[bs.Instrument]
		if !ok {
			e.logger.Warn("dropping snapshot of unconfigured instrument", logger.Field{Key: "stock", Value: bs.Instrument})
			continue
		}
		if _, err := book.RestoreOrderbook(bs); err != nil {
			return errors.NewTracer("snapshot_restore_error").Wrap(err)
		}
		for _, side := range [][]snapshotv1.BookOrder{bs.Bids, bs.Asks} {
			for _, o := range side {
				if o.Arrival > e.arrival {
					e.arrival = o.Arrival
				}
			}
		}
	}

	e.sequence = snapshot.Sequence
	e.lastSnapshotSequence = snapshot.Sequence
	return nil
}
