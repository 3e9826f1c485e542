package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/turtacn/dockview/internal/infrastructure/monitoring/logging"
)

type recordedRequest struct {
	method, route string
	status        int
}

type fakeObserver struct{ got []recordedRequest }

func (f *fakeObserver) RecordHTTPRequest(method, route string, status int, _ time.Duration) {
	f.got = append(f.got, recordedRequest{method, route, status})
}

func newLoggedRouter(t *testing.T, obs *fakeObserver) (http.Handler, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	cfg := DefaultLoggingConfig()
	cfg.Observer = obs

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(RequestLogging(logging.NewLoggerFromCore(core), cfg))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/sessions/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, logging.RequestIDFromContext(r.Context()))
		w.WriteHeader(http.StatusNotFound)
	})
	r.Post("/boom", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) })
	return r, logs
}

func TestRequestLogging_LevelsAndFields(t *testing.T) {
	obs := &fakeObserver{}
	router, logs := newLoggedRouter(t, obs)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/sessions/abc", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/boom", nil))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "/sessions/{sessionID}", ctx["route"])
	assert.Equal(t, "abc", ctx[logging.FieldSessionID])
	assert.NotEmpty(t, ctx[logging.FieldRequestID])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
}

func TestRequestLogging_SkipsProbesButCountsThem(t *testing.T) {
	obs := &fakeObserver{}
	router, logs := newLoggedRouter(t, obs)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, 1, logs.Len(), "only the unmatched request is logged")
	require.Len(t, obs.got, 2)
	assert.Equal(t, recordedRequest{http.MethodGet, "/healthz", http.StatusOK}, obs.got[0])
	assert.Equal(t, recordedRequest{http.MethodGet, "unmatched", http.StatusNotFound}, obs.got[1])
}
