package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "datafeed"

// Recorder collects engine metrics on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	ordersSubmitted *prometheus.CounterVec
	ordersRejected  *prometheus.CounterVec
	fills           *prometheus.CounterVec
	filledSize      *prometheus.CounterVec
	ordersExpired   *prometheus.CounterVec
	bookDepth       *prometheus.GaugeVec
}

// New creates a Recorder with the Go and process collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		ordersSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_submitted_total",
			Help:      "Orders accepted by the matching engine.",
		}, []string{"instrument", "side"}),
		ordersRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_rejected_total",
			Help:      "Orders rejected before matching.",
		}, []string{"reason"}),
		fills: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fills_total",
			Help:      "Matches between an incoming and a resting order.",
		}, []string{"instrument"}),
		filledSize: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filled_size_total",
			Help:      "Quantity matched.",
		}, []string{"instrument"}),
		ordersExpired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_expired_total",
			Help:      "Resting orders removed by aging.",
		}, []string{"instrument"}),
		bookDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "book_depth",
			Help:      "Resting orders per side.",
		}, []string{"instrument", "side"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.ordersSubmitted,
		r.ordersRejected,
		r.fills,
		r.filledSize,
		r.ordersExpired,
		r.bookDepth,
	)
	return r
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// OrderSubmitted counts an accepted order.
func (r *Recorder) OrderSubmitted(instrument, side string) {
	r.ordersSubmitted.WithLabelValues(instrument, side).Inc()
}

// OrderRejected counts a rejected order by error code.
func (r *Recorder) OrderRejected(reason string) {
	r.ordersRejected.WithLabelValues(reason).Inc()
}

// Filled counts fills and their total size.
func (r *Recorder) Filled(instrument string, fills int, size int64) {
	if fills == 0 {
		return
	}
	r.fills.WithLabelValues(instrument).Add(float64(fills))
	r.filledSize.WithLabelValues(instrument).Add(float64(size))
}

// Expired counts orders removed by aging.
func (r *Recorder) Expired(instrument string, n int) {
	if n == 0 {
		return
	}
	r.ordersExpired.WithLabelValues(instrument).Add(float64(n))
}

// Depth records the number of resting orders per side.
func (r *Recorder) Depth(instrument string, bids, asks int) {
	r.bookDepth.WithLabelValues(instrument, "buy").Set(float64(bids))
	r.bookDepth.WithLabelValues(instrument, "sell").Set(float64(asks))
}
