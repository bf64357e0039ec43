package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dashsync"

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetches          *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	staleDrops       *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
	lastPrice        *prometheus.GaugeVec
	latency          *prometheus.HistogramVec
	subscriberDrops  prometheus.Counter
	stateTransitions *prometheus.CounterVec
}

// New registers the recorder's collectors on reg. Pass prometheus.DefaultRegisterer
// in production and prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		fetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "feed_fetches_total",
				Help:      "Feed fetches by feed and outcome (ok, network, auth, datashape)",
			},
			[]string{"feed", "outcome"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of errors encountered",
			},
			[]string{"type"},
		),
		staleDrops: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "feed_stale_results_total",
				Help:      "Fetch results dropped because their generation was superseded",
			},
			[]string{"feed"},
		),
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Cache lookups by cache and result",
			},
			[]string{"cache", "result"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_price_usd",
				Help:      "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of operations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		subscriberDrops: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "subscriber_drops_total",
				Help:      "Updates dropped because a subscriber channel was full",
			},
		),
		stateTransitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "engine_state_transitions_total",
				Help:      "Engine state transitions by target state",
			},
			[]string{"state"},
		),
	}
}

// RecordFetch counts one completed fetch.
func (r *Recorder) RecordFetch(feed, outcome string) {
	r.fetches.WithLabelValues(feed, outcome).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordStaleDrop(feed string) {
	r.staleDrops.WithLabelValues(feed).Inc()
}

func (r *Recorder) RecordCacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(cache, result).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

func (r *Recorder) RecordSubscriberDrop() {
	r.subscriberDrops.Inc()
}

func (r *Recorder) RecordStateTransition(state string) {
	r.stateTransitions.WithLabelValues(state).Inc()
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordFetch(string, string)      {}
func (Nop) RecordLatency(string, float64)   {}
func (Nop) RecordStaleDrop(string)          {}
func (Nop) RecordCacheLookup(string, bool)  {}
func (Nop) RecordLastPrice(string, float64) {}
func (Nop) RecordSubscriberDrop()           {}
func (Nop) RecordStateTransition(string)    {}
func (Nop) RecordError(string)              {}
