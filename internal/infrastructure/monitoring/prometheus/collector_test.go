package prometheus

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/dockview/internal/infrastructure/monitoring/logging"
)

func newTestCollector(t *testing.T) MetricsCollector {
	t.Helper()
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "test", Subsystem: "unit"}, logging.NewNopLogger())
	require.NoError(t, err)
	return c
}

func scrape(t *testing.T, c MetricsCollector) string {
	t.Helper()
	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestNewMetricsCollector_RequiresNamespace(t *testing.T) {
	_, err := NewMetricsCollector(CollectorConfig{Subsystem: "unit"}, nil)
	assert.Error(t, err)
}

func TestNewMetricsCollector_ProcessMetrics(t *testing.T) {
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "test", EnableProcessMetrics: true}, nil)
	require.NoError(t, err)
	assert.Contains(t, scrape(t, c), "test_process_")
}

func TestRegisterCounter_WithLabels(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterCounter("requests_total", "help", "method").WithLabelValues("GET").Add(5)

	assert.Contains(t, scrape(t, c), `test_unit_requests_total{method="GET"} 5`)
}

func TestRegisterCounter_DuplicateSharesVector(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterCounter("dup_total", "help").WithLabelValues().Inc()
	c.RegisterCounter("dup_total", "help").WithLabelValues().Inc()

	assert.Contains(t, scrape(t, c), "test_unit_dup_total 2")
}

func TestRegisterGauge(t *testing.T) {
	c := newTestCollector(t)
	g := c.RegisterGauge("in_flight", "help").WithLabelValues()
	g.Set(3)
	g.Dec()

	assert.Contains(t, scrape(t, c), "test_unit_in_flight 2")
}

func TestRegisterHistogram_DefaultBuckets(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterHistogram("latency_seconds", "help", nil).WithLabelValues().Observe(0.1)

	out := scrape(t, c)
	assert.Contains(t, out, `test_unit_latency_seconds_bucket{le="0.1"} 1`)
	assert.Contains(t, out, "test_unit_latency_seconds_count 1")
}

func TestRegister_KindMismatchFallsBackToNoop(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterCounter("conflict", "help").WithLabelValues().Inc()

	assert.NotPanics(t, func() {
		c.RegisterGauge("conflict", "help").WithLabelValues().Set(10)
		c.RegisterHistogram("conflict", "help", nil).WithLabelValues().Observe(1)
	})
	assert.Contains(t, scrape(t, c), "# TYPE test_unit_conflict counter")
}

func TestRegister_Concurrent(t *testing.T) {
	c := newTestCollector(t)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RegisterCounter("concurrent_total", "help", "id").WithLabelValues("1").Inc()
		}()
	}
	wg.Wait()

	n, err := testutil.GatherAndCount(c.Gatherer(), "test_unit_concurrent_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, scrape(t, c), `test_unit_concurrent_total{id="1"} 50`)
}

func TestMustRegisterAndUnregister(t *testing.T) {
	c := newTestCollector(t)
	pc := prometheus.NewCounter(prometheus.CounterOpts{Name: "custom_total"})
	c.MustRegister(pc)
	pc.Inc()
	assert.Contains(t, scrape(t, c), "custom_total 1")

	assert.True(t, c.Unregister(pc))
	assert.NotContains(t, scrape(t, c), "custom_total")
}

func TestTimer_ObserveDuration(t *testing.T) {
	c := newTestCollector(t)
	timer := NewTimer(c.RegisterHistogram("timer_seconds", "help", nil).WithLabelValues())
	time.Sleep(5 * time.Millisecond)
	d := timer.ObserveDuration()

	assert.GreaterOrEqual(t, d, 5*time.Millisecond)
	assert.Contains(t, scrape(t, c), "test_unit_timer_seconds_count 1")
}

func TestTimer_NilHistogram(t *testing.T) {
	assert.NotPanics(t, func() { NewTimer(nil).ObserveDuration() })
}
