package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler_Liveness(t *testing.T) {
	h := NewHealthHandler("1.2.3", NewCheck("redis", func(context.Context) error {
		t.Fatal("liveness must not probe dependencies")
		return nil
	}))
	rec := httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp LivenessResponse
	decode(t, rec, &resp)
	assert.Equal(t, "alive", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
}

func TestHealthHandler_Readiness(t *testing.T) {
	healthy := NewCheck("redis", func(context.Context) error { return nil })
	broken := NewCheck("postgres", func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name     string
		checkers []HealthChecker
		status   int
		body     string
	}{
		{"no dependencies", nil, http.StatusOK, "ready"},
		{"all healthy", []HealthChecker{healthy}, http.StatusOK, "ready"},
		{"one broken", []HealthChecker{healthy, broken}, http.StatusServiceUnavailable, "not_ready"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler("test", tt.checkers...)
			rec := httptest.NewRecorder()
			h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			require.Equal(t, tt.status, rec.Code)
			var resp ReadinessResponse
			decode(t, rec, &resp)
			assert.Equal(t, tt.body, resp.Status)
			if len(tt.checkers) > 1 {
				assert.Equal(t, "healthy", resp.Components["redis"].Status)
				assert.Equal(t, "unhealthy", resp.Components["postgres"].Status)
				assert.Equal(t, "connection refused", resp.Components["postgres"].Error)
			}
		})
	}
}

func TestHealthHandler_OptionalCheckDegrades(t *testing.T) {
	redis := NewCheck("redis", func(context.Context) error { return nil })
	vina := NewOptionalCheck("vina", func(context.Context) error { return errors.New("vina not found in PATH") })

	h := NewHealthHandler("test", redis, vina)
	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ReadinessResponse
	decode(t, rec, &resp)
	assert.Equal(t, StatusDegraded, resp.Status)
	assert.True(t, resp.Components["vina"].Optional)
	assert.Equal(t, "unhealthy", resp.Components["vina"].Status)
	assert.False(t, resp.Components["redis"].Optional)
}

func TestHealthHandler_RequiredFailureWinsOverOptional(t *testing.T) {
	vina := NewOptionalCheck("vina", func(context.Context) error { return errors.New("missing") })
	pg := NewCheck("postgres", func(context.Context) error { return errors.New("down") })

	h := NewHealthHandler("test", vina, pg)
	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp ReadinessResponse
	decode(t, rec, &resp)
	assert.Equal(t, StatusNotReady, resp.Status)
}

func TestWriteAppError_MasksInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	writeAppError(rec, errors.New("pq: password authentication failed"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
}
