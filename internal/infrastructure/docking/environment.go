package docking

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/turtacn/dockview/internal/domain/docking"
	"github.com/turtacn/dockview/internal/infrastructure/monitoring/logging"
)

// DefaultEnvCheckTimeout bounds each probe of CheckEnvironment.
const DefaultEnvCheckTimeout = 10 * time.Second

// EnvironmentChecker probes whether the external tools can be started.
type EnvironmentChecker struct {
	vina     VinaConfig
	openDock OpenDockConfig
	timeout  time.Duration
	logger   logging.Logger
	group    singleflight.Group
}

// NewEnvironmentChecker creates a checker. Zero timeout selects DefaultEnvCheckTimeout.
func NewEnvironmentChecker(vina VinaConfig, openDock OpenDockConfig, timeout time.Duration, log logging.Logger) *EnvironmentChecker {
	if vina.Executable == "" {
		vina.Executable = "vina"
	}
	if openDock.CondaExecutable == "" {
		openDock.CondaExecutable = "conda"
	}
	if openDock.EnvName == "" {
		openDock.EnvName = "opendock"
	}
	if timeout <= 0 {
		timeout = DefaultEnvCheckTimeout
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &EnvironmentChecker{vina: vina, openDock: openDock, timeout: timeout, logger: log}
}

// Check runs `vina --help` and `conda env list`. Concurrent callers share one
// probe. A probe failure is reported as false, never as an error.
func (c *EnvironmentChecker) Check(ctx context.Context) docking.EnvironmentStatus {
	v, _, _ := c.group.Do("environment", func() (interface{}, error) {
		return docking.EnvironmentStatus{
			docking.StatusVina:        c.vinaAvailable(ctx),
			docking.StatusOpenDockEnv: c.condaEnvExists(ctx),
		}, nil
	})
	status := v.(docking.EnvironmentStatus)
	out := make(docking.EnvironmentStatus, len(status))
	for k, ok := range status {
		out[k] = ok
	}
	return out
}

func (c *EnvironmentChecker) probe(ctx context.Context, name string, args ...string) (string, error) {
	r := newRunner(RunnerConfig{Timeout: c.timeout}, c.logger)
	return r.run(ctx, "environment", name, args, "")
}

func (c *EnvironmentChecker) vinaAvailable(ctx context.Context) bool {
	_, err := c.probe(ctx, c.vina.Executable, "--help")
	if err != nil {
		c.logger.Warn("vina is not available", logging.Err(err))
		return false
	}
	return true
}

func (c *EnvironmentChecker) condaEnvExists(ctx context.Context) bool {
	out, err := c.probe(ctx, c.openDock.CondaExecutable, "env", "list")
	if err != nil {
		c.logger.Warn("conda is not available", logging.Err(err))
		return false
	}
	return HasCondaEnv(out, c.openDock.EnvName)
}

// HasCondaEnv reports whether `conda env list` output names env, either as the
// first column or as the last element of an environment path.
func HasCondaEnv(listing, env string) bool {
	for _, line := range strings.Split(listing, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if fields[0] == env {
			return true
		}
		if last := fields[len(fields)-1]; filepath.Base(last) == env {
			return true
		}
	}
	return false
}
