package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"MarketPulse/internal/domain/models"
)

const namespace = "marketpulse"

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	cyclesTotal  *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	sourceStatus *prometheus.CounterVec
	lastPrice    *prometheus.GaugeVec
	fearGreed    prometheus.Gauge
	latency      *prometheus.HistogramVec
}

// New creates a recorder registered with reg, or the default registerer when reg is nil.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		cyclesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "digest_cycles_total",
				Help:      "Digest cycles by outcome",
			},
			[]string{"status"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of errors encountered",
			},
			[]string{"type"},
		),
		sourceStatus: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "source_fetch_total",
				Help:      "Upstream fetch outcomes per source",
			},
			[]string{"source", "status"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_price_usd",
				Help:      "Last recorded price for a watch-list symbol",
			},
			[]string{"symbol"},
		),
		fearGreed: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "fear_greed_index",
				Help:      "Last fear/greed index value used in a digest",
			},
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
	}
}

// RecordCycle counts a finished digest cycle.
func (r *Recorder) RecordCycle(status string) {
	r.cyclesTotal.WithLabelValues(status).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordSource(source string, status models.SourceStatus) {
	r.sourceStatus.WithLabelValues(source, string(status)).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

func (r *Recorder) RecordSentiment(value int) {
	r.fearGreed.Set(float64(value))
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
