package prometheus

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAppMetrics(t *testing.T) (*AppMetrics, MetricsCollector) {
	t.Helper()
	c := newTestCollector(t)
	m := NewAppMetrics(c)
	require.NotNil(t, m)
	return m, c
}

func TestRecordHTTPRequest(t *testing.T) {
	m, c := newTestAppMetrics(t)
	m.RecordHTTPRequest(http.MethodPost, "/sessions/{id}/ligands", http.StatusCreated, 40*time.Millisecond)

	out := scrape(t, c)
	assert.Contains(t, out, `test_unit_http_requests_total{method="POST",route="/sessions/{id}/ligands",status="201"} 1`)
	assert.Contains(t, out, `test_unit_http_request_duration_seconds_count{method="POST",route="/sessions/{id}/ligands"} 1`)
}

func TestRecordGRPCRequest(t *testing.T) {
	m, c := newTestAppMetrics(t)
	m.RecordGRPCRequest("dockview.v1.LigandService", "Extract", "OK", 3*time.Millisecond)
	m.RecordGRPCRequest("dockview.v1.LigandService", "Extract", "InvalidArgument", time.Millisecond)

	out := scrape(t, c)
	assert.Contains(t, out, `test_unit_grpc_requests_total{code="OK",method="Extract",service="dockview.v1.LigandService"} 1`)
	assert.Contains(t, out, `test_unit_grpc_request_duration_seconds_count{method="Extract",service="dockview.v1.LigandService"} 2`)
}

func TestRecordExtraction(t *testing.T) {
	m, c := newTestAppMetrics(t)
	m.RecordExtraction("upload", 6, 4, map[string]int{"too_short": 1, "parse_error": 1})

	out := scrape(t, c)
	assert.Contains(t, out, `test_unit_ligand_extractions_total{source="upload"} 1`)
	assert.Contains(t, out, "test_unit_ligand_extraction_blocks_sum 6")
	assert.Contains(t, out, "test_unit_ligand_extraction_records_sum 4")
	assert.Contains(t, out, `test_unit_ligand_extraction_skipped_total{reason="too_short"} 1`)
	assert.Contains(t, out, `test_unit_ligand_extraction_skipped_total{reason="parse_error"} 1`)
}

func TestRecordDockingRun(t *testing.T) {
	m, c := newTestAppMetrics(t)
	m.RecordDockingRun("vina", "succeeded", 2*time.Second)
	m.RecordDockingRun("vina", "timeout", 5*time.Second)
	m.RecordDockingRun("vina", "succeeded", time.Second)

	out := scrape(t, c)
	assert.Contains(t, out, `test_unit_docking_runs_total{engine="vina",status="succeeded"} 2`)
	assert.Contains(t, out, `test_unit_docking_runs_total{engine="vina",status="timeout"} 1`)
	assert.Contains(t, out, `test_unit_docking_run_duration_seconds_sum{engine="vina"} 8`)
}

func TestRecordSessionOpAndMessages(t *testing.T) {
	m, c := newTestAppMetrics(t)
	m.RecordSessionOp("next", nil)
	m.RecordSessionOp("select", errors.New("out of range"))
	m.RecordMessage("dockview.rescore.requested", nil)

	out := scrape(t, c)
	assert.Contains(t, out, `test_unit_session_operations_total{operation="next",result="ok"} 1`)
	assert.Contains(t, out, `test_unit_session_operations_total{operation="select",result="error"} 1`)
	assert.Contains(t, out, `test_unit_messages_total{result="ok",topic="dockview.rescore.requested"} 1`)
}

func TestRecordCacheLookup(t *testing.T) {
	m, c := newTestAppMetrics(t)
	m.RecordCacheLookup(true)
	m.RecordCacheLookup(true)
	m.RecordCacheLookup(false)

	out := scrape(t, c)
	assert.Contains(t, out, `test_unit_session_cache_lookups_total{result="hit"} 2`)
	assert.Contains(t, out, `test_unit_session_cache_lookups_total{result="miss"} 1`)
}

func TestTrackJob(t *testing.T) {
	m, c := newTestAppMetrics(t)
	doneA := m.TrackJob("vina")
	doneB := m.TrackJob("vina")
	assert.Contains(t, scrape(t, c), `test_unit_docking_jobs_in_flight{engine="vina"} 2`)

	doneA()
	doneB()
	assert.Contains(t, scrape(t, c), `test_unit_docking_jobs_in_flight{engine="vina"} 0`)
}
