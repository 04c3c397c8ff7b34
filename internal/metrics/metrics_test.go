package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"econstats/internal/cache"
)

func TestCacheCollector(t *testing.T) {
	c := cache.New[int](time.Hour, 10, cache.WithName("routing"))
	c.Set("a", 1)
	c.Get("a")
	c.Get("b")

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(NewCacheCollector(c)))

	families, err := reg.Gather()
	require.NoError(t, err)

	values := make(map[string]float64)
	for _, f := range families {
		for _, m := range f.GetMetric() {
			require.Equal(t, "routing", m.GetLabel()[0].GetValue())
			if m.GetCounter() != nil {
				values[f.GetName()] = m.GetCounter().GetValue()
			} else {
				values[f.GetName()] = m.GetGauge().GetValue()
			}
		}
	}
	assert.Equal(t, 1.0, values["econstats_cache_entries"])
	assert.Equal(t, 1.0, values["econstats_cache_hits_total"])
	assert.Equal(t, 1.0, values["econstats_cache_misses_total"])
	assert.Equal(t, 0.0, values["econstats_cache_evictions_total"])
}

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)

	r.routes.WithLabelValues("exact").Inc()
	r.routes.WithLabelValues("exact").Inc()
	r.overrides.WithLabelValues("demographic").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(r.routes.WithLabelValues("exact")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.overrides.WithLabelValues("demographic")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.topicMismatch))
}

func TestRecordWithoutInitIsNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordRoute("exact")
		RecordOverride("state")
		RecordTopicMismatch()
		RecordLLMCall("router", "ok")
		RecordEnrichFailure("fed_guidance")
		RecordFetchFailure()
	})
}
