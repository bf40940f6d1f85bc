package engine

import (
	"context"
	"io"
	"time"

	"github.com/muhammadchandra19/datafeed/pkg/errors"
	"github.com/muhammadchandra19/datafeed/pkg/logger"
)

const readBackoff = 100 * time.Millisecond

// Start restores the last snapshot, if a store is configured, and starts the
// order processor and snapshot manager. An engine starts at most once.
func (e *Engine) Start(ctx context.Context) error {
	if !e.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	if err := e.loadSnapshot(ctx); err != nil {
		e.started.Store(false)
		return err
	}

	e.ctx, e.cancel = context.WithCancel(ctx)

	if e.source != nil {
		e.wg.Add(1)
		go e.runOrderProcessor()
	} else {
		close(e.processorDone)
	}

	if e.snapshotStore != nil {
		e.wg.Add(1)
		go e.runSnapshotManager()
	}

	e.logger.Info("engine started", logger.Field{Key: "instruments", Value: e.instruments})
	return nil
}

// Stop gracefully shuts down the engine and stores a final snapshot.
func (e *Engine) Stop(ctx context.Context) error {
	if e.cancel != nil {
		e.cancel()
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		e.logger.Warn("engine stop timeout exceeded")
		return ctx.Err()
	}

	if e.snapshotStore != nil && e.shouldCreateSnapshot(1) {
		e.createAndStoreSnapshot(ctx)
	}

	e.logger.Info("engine stopped gracefully")
	return nil
}

// FeedDone is closed once the order processor has returned, either because
// the source was exhausted or because the engine stopped.
func (e *Engine) FeedDone() <-chan struct{} {
	return e.processorDone
}

// runOrderProcessor reads orders from the source and submits them one at a time.
func (e *Engine) runOrderProcessor() {
	defer e.wg.Done()
	defer close(e.processorDone)
	defer func() {
		if err := e.source.Close(); err != nil {
			e.logger.Error(err, logger.Field{Key: "action", Value: "close_order_source"})
		}
	}()

	e.logger.Info("Starting order processor")

	var last time.Time
	for {
		select {
		case <-e.ctx.Done():
			e.logger.Info("Order processor shutting down")
			return
		default:
		}

		req, err := e.source.Next(e.ctx)
		if err == io.EOF {
			e.logger.Info("order feed exhausted", logger.Field{Key: "sequence", Value: e.Sequence()})
			return
		}
		if err != nil {
			if e.ctx.Err() != nil {
				return
			}
			if errors.HasCode(err, errors.FeedParseError) {
				e.logger.Warn("skipping malformed order", logger.Field{Key: "error", Value: err.Error()})
				if e.metrics != nil {
					e.metrics.OrderRejected(errors.FeedParseError.String())
				}
				continue
			}

			e.logger.ErrorContext(e.ctx, err, logger.Field{Key: "action", Value: "read_order"})
			if !e.sleep(readBackoff) {
				return
			}
			continue
		}

		if !e.sleep(e.pause(last, req.Timestamp)) {
			return
		}
		last = req.Timestamp

		// rejections are logged and counted by Submit
		_, _ = e.Submit(e.ctx, req)
	}
}

// pause returns how long to wait before submitting an order stamped at next.
func (e *Engine) pause(last, next time.Time) time.Duration {
	if !e.options.Realtime {
		return e.options.Interval
	}
	if last.IsZero() || !next.After(last) {
		return 0
	}

	speedup := e.options.Speedup
	if speedup <= 0 {
		speedup = 1
	}
	return time.Duration(float64(next.Sub(last)) / speedup)
}

// sleep waits for d and reports false if the engine stopped first.
func (e *Engine) sleep(d time.Duration) bool {
	if d <= 0 {
		return e.ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-e.ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// runSnapshotManager handles periodic snapshots
func (e *Engine) runSnapshotManager() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.options.SnapshotInterval)
	defer ticker.Stop()

	e.logger.Info("Starting snapshot manager")

	for {
		select {
		case <-e.ctx.Done():
			e.logger.Info("Snapshot manager shutting down")
			return
		case <-ticker.C:
			if e.shouldCreateSnapshot(e.options.SnapshotOffsetDelta) {
				e.createAndStoreSnapshot(e.ctx)
			}
		}
	}
}

// shouldCreateSnapshot reports whether at least delta submissions happened since the last snapshot.
func (e *Engine) shouldCreateSnapshot(delta int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sequence <= 0 {
		return false
	}
	return e.sequence-e.lastSnapshotSequence >= delta
}

func (e *Engine) createAndStoreSnapshot(ctx context.Context) {
	snapshot := e.Snapshot()

	e.logger.Info("Creating snapshot", logger.Field{Key: "sequence", Value: snapshot.Sequence})

	if err := e.snapshotStore.Store(ctx, snapshot); err != nil {
		e.logger.ErrorContext(ctx, err, logger.Field{Key: "action", Value: "store_snapshot"})
		return
	}

	e.mu.Lock()
	if snapshot.Sequence > e.lastSnapshotSequence {
		e.lastSnapshotSequence = snapshot.Sequence
	}
	e.mu.Unlock()
}

// loadSnapshot loads and restores the books from the snapshot store.
func (e *Engine) loadSnapshot(ctx context.Context) error {
	if e.snapshotStore == nil {
		return nil
	}

	snapshot, err := e.snapshotStore.LoadStore(ctx)
	if err != nil {
		return err
	}
	if snapshot == nil {
		return nil
	}

	if err := e.Restore(snapshot); err != nil {
		return err
	}

	e.logger.Info("Orderbook restored from snapshot", logger.Field{Key: "sequence", Value: snapshot.Sequence})
	return nil
}

// LastSnapshotSequence returns the sequence of the last stored or restored snapshot.
func (e *Engine) LastSnapshotSequence() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastSnapshotSequence
}
