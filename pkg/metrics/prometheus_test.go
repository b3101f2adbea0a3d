package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"MarketPulse/internal/domain/models"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordCycle(models.CycleOK)
	r.RecordCycle(models.CycleOK)
	r.RecordCycle(models.CycleFailed)
	r.RecordSource("sentiment", models.SourceDefaulted)
	r.RecordLastPrice("BTC", 67000)
	r.RecordSentiment(42)
	r.RecordError("deliver")
	r.RecordLatency("collect", 0.25)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.cyclesTotal.WithLabelValues(models.CycleOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cyclesTotal.WithLabelValues(models.CycleFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.sourceStatus.WithLabelValues("sentiment", "defaulted")))
	assert.Equal(t, 67000.0, testutil.ToFloat64(r.lastPrice.WithLabelValues("BTC")))
	assert.Equal(t, 42.0, testutil.ToFloat64(r.fearGreed))
	assert.Equal(t, 1, testutil.CollectAndCount(r.latency))
}
