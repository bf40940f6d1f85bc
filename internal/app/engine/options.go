package engine

import (
	"time"

	"github.com/muhammadchandra19/datafeed/pkg/config"
)

// Options represents configuration options for the Engine.
type Options struct {
	// OrderAge is the number of same-side insertions an order survives.
	OrderAge            int
	SnapshotInterval    time.Duration
	SnapshotOffsetDelta int64

	// Realtime paces the feed by the gaps between row timestamps, divided by Speedup.
	Realtime bool
	Speedup  float64
	// Interval is a fixed pause between orders when Realtime is off.
	Interval time.Duration
}

// DefaultEngineOptions returns the default engine options.
func DefaultEngineOptions() *Options {
	return &Options{
		OrderAge:            10,
		SnapshotInterval:    30 * time.Second,
		SnapshotOffsetDelta: 1000,
		Speedup:             1,
	}
}

// OptionsFromConfig builds engine options from the application config.
func OptionsFromConfig(cfg *config.Config) *Options {
	opts := DefaultEngineOptions()
	if cfg.App.OrderAge > 0 {
		opts.OrderAge = cfg.App.OrderAge
	}
	if cfg.Snapshot.Interval > 0 {
		opts.SnapshotInterval = cfg.Snapshot.Interval
	}
	if cfg.Snapshot.OffsetDelta > 0 {
		opts.SnapshotOffsetDelta = cfg.Snapshot.OffsetDelta
	}
	opts.Realtime = cfg.Feed.Realtime
	if cfg.Feed.Speedup > 0 {
		opts.Speedup = cfg.Feed.Speedup
	}
	opts.Interval = cfg.Feed.Interval
	return opts
}
