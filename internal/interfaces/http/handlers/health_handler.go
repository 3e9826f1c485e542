package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Readiness states.
const (
	StatusReady    = "ready"
	StatusDegraded = "degraded"
	StatusNotReady = "not_ready"
)

// HealthChecker is implemented by dependencies that can report their health.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}

// CheckFunc adapts a probe function such as redis Client.Ping to HealthChecker.
type CheckFunc struct {
	name     string
	check    func(ctx context.Context) error
	optional bool
}

// NewCheck names a required probe. A failing required probe makes the
// instance not ready.
func NewCheck(name string, check func(ctx context.Context) error) CheckFunc {
	return CheckFunc{name: name, check: check}
}

// NewOptionalCheck names a probe whose failure only degrades readiness.
// Docking tools are optional: extraction and viewing work without them.
func NewOptionalCheck(name string, check func(ctx context.Context) error) CheckFunc {
	return CheckFunc{name: name, check: check, optional: true}
}

func (c CheckFunc) Name() string                    { return c.name }
func (c CheckFunc) Check(ctx context.Context) error { return c.check(ctx) }

// Optional reports whether the probe is optional.
func (c CheckFunc) Optional() bool { return c.optional }

type optionalChecker interface {
	Optional() bool
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	checkers []HealthChecker
	version  string
	timeout  time.Duration
	startAt  time.Time
}

// NewHealthHandler creates a HealthHandler. Readiness runs every checker.
func NewHealthHandler(version string, checkers ...HealthChecker) *HealthHandler {
	return &HealthHandler{
		checkers: checkers,
		version:  version,
		timeout:  5 * time.Second,
		startAt:  time.Now(),
	}
}

type LivenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

type ReadinessResponse struct {
	Status     string                    `json:"status"`
	Components map[string]ComponentCheck `json:"components,omitempty"`
}

// ComponentCheck is the health of a single dependency.
type ComponentCheck struct {
	Status   string `json:"status"`
	Optional bool   `json:"optional,omitempty"`
	Latency  string `json:"latency,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Liveness handles GET /healthz. It never touches dependencies.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LivenessResponse{
		Status:  "alive",
		Version: h.version,
		Uptime:  time.Since(h.startAt).Truncate(time.Second).String(),
	})
}

// Readiness handles GET /readyz. A failing required dependency yields 503;
// a failing optional one reports "degraded" with 200.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if len(h.checkers) == 0 {
		writeJSON(w, http.StatusOK, ReadinessResponse{Status: StatusReady})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp := ReadinessResponse{Status: StatusReady, Components: h.checkAll(ctx)}
	for _, c := range resp.Components {
		if c.Status == "healthy" {
			continue
		}
		if !c.Optional {
			resp.Status = StatusNotReady
			break
		}
		resp.Status = StatusDegraded
	}

	code := http.StatusOK
	if resp.Status == StatusNotReady {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

// checkAll runs the checkers concurrently. Probe errors are recorded, never
// returned, so one slow backend does not cancel the others.
func (h *HealthHandler) checkAll(ctx context.Context) map[string]ComponentCheck {
	var (
		mu      sync.Mutex
		results = make(map[string]ComponentCheck, len(h.checkers))
		g       errgroup.Group
	)
	for _, checker := range h.checkers {
		checker := checker
		g.Go(func() error {
			start := time.Now()
			err := checker.Check(ctx)
			cc := ComponentCheck{
				Status:  "healthy",
				Latency: time.Since(start).Truncate(time.Microsecond).String(),
			}
			if oc, ok := checker.(optionalChecker); ok {
				cc.Optional = oc.Optional()
			}
			if err != nil {
				cc.Status = "unhealthy"
				cc.Error = err.Error()
			}
			mu.Lock()
			results[checker.Name()] = cc
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}
