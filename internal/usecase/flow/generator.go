package flow

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	orderbookv1 "github.com/muhammadchandra19/datafeed/internal/domain/orderbook/v1"
	"github.com/muhammadchandra19/datafeed/pkg/config"
	"github.com/shopspring/decimal"
)

// MarketOpen returns 00:30 on the day of now.
func MarketOpen(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 30, 0, 0, now.Location())
}

// Generator produces an endless stream of synthetic orders.
// Sells are centred half a spread above the base price and buys half a spread
// below it, with enough dispersion that the two sides overlap and trade.
type Generator struct {
	cfg         config.GeneratorConfig
	instruments []string
	rng         *rand.Rand
	clock       time.Time
}

// ErrNoInstruments is returned by NewGenerator for an empty instrument set.
var ErrNoInstruments = errors.New("generator needs at least one instrument")

// NewGenerator creates a generator whose first timestamp follows start.
// A zero seed picks one from the wall clock.
func NewGenerator(cfg config.GeneratorConfig, instruments []string, start time.Time) (*Generator, error) {
	if len(instruments) == 0 {
		return nil, ErrNoInstruments
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if cfg.FreqMax < cfg.FreqMin {
		cfg.FreqMax = cfg.FreqMin
	}
	if cfg.Overlap == 0 {
		cfg.Overlap = 1
	}

	return &Generator{
		cfg:         cfg,
		instruments: instruments,
		rng:         rand.New(rand.NewSource(seed)),
		clock:       start,
	}, nil
}

// Generate returns the next order.
func (g *Generator) Generate() orderbookv1.OrderRequest {
	step := g.cfg.FreqMin + g.rng.Intn(g.cfg.FreqMax-g.cfg.FreqMin+1)
	g.clock = g.clock.Add(time.Duration(step) * time.Second)

	instrument := g.instruments[g.rng.Intn(len(g.instruments))]

	side, d := orderbookv1.Buy, -2.0
	if g.rng.Float64() > 0.5 {
		side, d = orderbookv1.Sell, 2.0
	}

	mean := g.cfg.BasePrice + g.cfg.Spread/d
	price := g.normal(mean, g.cfg.Spread/g.cfg.Overlap)
	size := int64(math.Abs(g.normal(0, g.cfg.SizeSigma)))

	return orderbookv1.OrderRequest{
		Timestamp:  g.clock,
		Instrument: instrument,
		Side:       side,
		Price:      decimal.NewFromFloat(price).Round(2),
		Size:       size,
	}
}

func (g *Generator) normal(mean, stddev float64) float64 {
	return g.rng.NormFloat64()*stddev + mean
}

// Next implements the order source contract; the stream never ends.
func (g *Generator) Next(ctx context.Context) (orderbookv1.OrderRequest, error) {
	if err := ctx.Err(); err != nil {
		return orderbookv1.OrderRequest{}, err
	}
	return g.Generate(), nil
}

// Close is a no-op.
func (g *Generator) Close() error {
	return nil
}
