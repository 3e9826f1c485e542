package prometheus

import (
	"strconv"
	"time"
)

// Bucket layouts.
var (
	HTTPDurationBuckets    = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DockingDurationBuckets = []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 300}
	RecordCountBuckets     = []float64{0, 1, 5, 10, 50, 100, 500, 1000}
)

// AppMetrics is the metric set exported by dockview processes.
type AppMetrics struct {
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec

	GRPCRequestsTotal   CounterVec
	GRPCRequestDuration HistogramVec

	ExtractionsTotal       CounterVec
	ExtractionBlocks       HistogramVec
	ExtractedRecords       HistogramVec
	ExtractionSkippedTotal CounterVec

	DockingRunsTotal    CounterVec
	DockingRunDuration  HistogramVec
	DockingJobsInFlight GaugeVec

	SessionOpsTotal CounterVec
	CacheLookups    CounterVec

	MessagesTotal CounterVec
}

// NewAppMetrics registers every dockview metric on collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	return &AppMetrics{
		HTTPRequestsTotal:   collector.RegisterCounter("http_requests_total", "HTTP requests served", "method", "route", "status"),
		HTTPRequestDuration: collector.RegisterHistogram("http_request_duration_seconds", "HTTP request latency", HTTPDurationBuckets, "method", "route"),

		GRPCRequestsTotal:   collector.RegisterCounter("grpc_requests_total", "gRPC calls served", "service", "method", "code"),
		GRPCRequestDuration: collector.RegisterHistogram("grpc_request_duration_seconds", "gRPC call latency", HTTPDurationBuckets, "service", "method"),

		ExtractionsTotal:       collector.RegisterCounter("ligand_extractions_total", "SDF extractions performed", "source"),
		ExtractionBlocks:       collector.RegisterHistogram("ligand_extraction_blocks", "Candidate blocks per extraction", RecordCountBuckets),
		ExtractedRecords:       collector.RegisterHistogram("ligand_extraction_records", "Records kept per extraction", RecordCountBuckets),
		ExtractionSkippedTotal: collector.RegisterCounter("ligand_extraction_skipped_total", "Blocks skipped during extraction", "reason"),

		DockingRunsTotal:    collector.RegisterCounter("docking_runs_total", "Docking engine runs", "engine", "status"),
		DockingRunDuration:  collector.RegisterHistogram("docking_run_duration_seconds", "Docking engine run latency", DockingDurationBuckets, "engine"),
		DockingJobsInFlight: collector.RegisterGauge("docking_jobs_in_flight", "Rescore jobs being processed", "engine"),

		SessionOpsTotal: collector.RegisterCounter("session_operations_total", "Session operations", "operation", "result"),
		CacheLookups:    collector.RegisterCounter("session_cache_lookups_total", "Session store lookups", "result"),

		MessagesTotal: collector.RegisterCounter("messages_total", "Job messages handled", "topic", "result"),
	}
}

// RecordHTTPRequest counts one served request.
func (m *AppMetrics) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordGRPCRequest counts one finished gRPC call.
func (m *AppMetrics) RecordGRPCRequest(service, method, code string, d time.Duration) {
	m.GRPCRequestsTotal.WithLabelValues(service, method, code).Inc()
	m.GRPCRequestDuration.WithLabelValues(service, method).Observe(d.Seconds())
}

// RecordExtraction records the shape of one extraction. skipped maps skip
// reasons to counts.
func (m *AppMetrics) RecordExtraction(source string, blocks, records int, skipped map[string]int) {
	m.ExtractionsTotal.WithLabelValues(source).Inc()
	m.ExtractionBlocks.WithLabelValues().Observe(float64(blocks))
	m.ExtractedRecords.WithLabelValues().Observe(float64(records))
	for reason, n := range skipped {
		m.ExtractionSkippedTotal.WithLabelValues(reason).Add(float64(n))
	}
}

// RecordDockingRun counts one engine run. status is "succeeded" or a failure reason.
func (m *AppMetrics) RecordDockingRun(engine, status string, d time.Duration) {
	m.DockingRunsTotal.WithLabelValues(engine, status).Inc()
	m.DockingRunDuration.WithLabelValues(engine).Observe(d.Seconds())
}

// RecordSessionOp counts one session operation.
func (m *AppMetrics) RecordSessionOp(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.SessionOpsTotal.WithLabelValues(op, result).Inc()
}

// RecordCacheLookup counts a session store hit or miss.
func (m *AppMetrics) RecordCacheLookup(hit bool) {
	if hit {
		m.CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.CacheLookups.WithLabelValues("miss").Inc()
}

// RecordMessage counts one consumed job message.
func (m *AppMetrics) RecordMessage(topic string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.MessagesTotal.WithLabelValues(topic, result).Inc()
}

// TrackJob marks one rescore job in flight for engine and returns the func
// that ends it.
func (m *AppMetrics) TrackJob(engine string) func() {
	g := m.DockingJobsInFlight.WithLabelValues(engine)
	g.Inc()
	return g.Dec
}
