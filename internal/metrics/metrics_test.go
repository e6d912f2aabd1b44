package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersAllCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	require.NotNil(t, m)
	families, err := registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestRecordRebuild_IncrementsByResult(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.RecordRebuild(true, 5*time.Millisecond)
	m.RecordRebuild(false, time.Millisecond)

	assert.Equal(t, float64(1), counterValue(t, m.TreeRebuildsTotal.WithLabelValues("success")))
	assert.Equal(t, float64(1), counterValue(t, m.TreeRebuildsTotal.WithLabelValues("failure")))
}

func TestRecordProcess_IncrementsByStatus(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.RecordProcess("Matched", time.Microsecond)
	m.RecordProcess("Matched", time.Microsecond)
	m.RecordProcess("NotMatched", time.Microsecond)

	assert.Equal(t, float64(2), counterValue(t, m.RuleEvaluationsTotal.WithLabelValues("Matched")))
	assert.Equal(t, float64(1), counterValue(t, m.RuleEvaluationsTotal.WithLabelValues("NotMatched")))
}

func TestRecordDispatchAndDropped(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.RecordDispatch("page")
	m.RecordDispatch("page")
	m.RecordDropped()

	assert.Equal(t, float64(2), counterValue(t, m.DispatchedActionsTotal.WithLabelValues("page")))
	assert.Equal(t, float64(1), counterValue(t, m.DispatchDroppedTotal))
}

func TestSetWorkerQueueDepthAndPanics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.SetWorkerQueueDepth(42)
	m.RecordWorkerPanic()
	m.RecordEventProcessed()

	assert.Equal(t, float64(42), gaugeValue(t, m.WorkerQueueDepth))
	assert.Equal(t, float64(1), counterValue(t, m.WorkerPanicsTotal))
	assert.Equal(t, float64(1), counterValue(t, m.EventsProcessedTotal))
}

func TestNilMetrics_RecordMethodsAreNoops(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordRebuild(true, time.Millisecond)
		m.RecordProcess("Matched", time.Millisecond)
		m.RecordDispatch("page")
		m.RecordDropped()
		m.SetWorkerQueueDepth(1)
		m.RecordWorkerPanic()
		m.RecordEventProcessed()
	})
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var metric dto.Metric
	require.NoError(t, c.Write(&metric))
	return metric.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var metric dto.Metric
	require.NoError(t, g.Write(&metric))
	return metric.GetGauge().GetValue()
}
