package docking

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/turtacn/dockview/internal/domain/docking"
	"github.com/turtacn/dockview/internal/infrastructure/monitoring/logging"
)

// execCommand is replaced in tests to run a helper process instead of the tool.
var execCommand = exec.CommandContext

// RunnerConfig is shared by every subprocess engine.
type RunnerConfig struct {
	// Timeout bounds a single run. The caller's deadline still applies.
	Timeout time.Duration
	// WorkDir is the parent of per-run temp directories; empty means os.TempDir.
	WorkDir string
	// KeepWorkDir leaves run directories on disk for debugging.
	KeepWorkDir bool
}

type runner struct {
	rc     RunnerConfig
	logger logging.Logger
}

func newRunner(cfg RunnerConfig, log logging.Logger) runner {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return runner{rc: cfg, logger: log}
}

// workspace creates a fresh directory for one run. Runs never share files.
func (r runner) workspace(engine string) (string, func(), error) {
	dir, err := os.MkdirTemp(r.rc.WorkDir, "dockview-"+engine+"-")
	if err != nil {
		return "", nil, docking.NewFailure(engine, docking.ReasonIO, err)
	}
	cleanup := func() {
		if r.rc.KeepWorkDir {
			return
		}
		if err := os.RemoveAll(dir); err != nil {
			r.logger.Warn("failed to remove work dir", logging.String("dir", dir), logging.Err(err))
		}
	}
	return dir, cleanup, nil
}

func writeFiles(engine, dir string, files map[string]string) error {
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			return docking.NewFailure(engine, docking.ReasonIO, err)
		}
	}
	return nil
}

// run executes one tool invocation and classifies its failure.
func (r runner) run(ctx context.Context, engine, name string, args []string, dir string) (string, error) {
	if r.rc.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.rc.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := execCommand(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	logging.LogToolInvocation(r.logger, name, args, time.Since(start), err)
	if err == nil {
		return stdout.String(), nil
	}

	switch {
	case ctx.Err() != nil:
		return "", docking.NewFailure(engine, docking.ReasonTimeout, ctx.Err())
	case errors.Is(err, exec.ErrNotFound):
		return "", docking.NewFailure(engine, docking.ReasonToolMissing, err)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return "", docking.NewFailure(engine, docking.ReasonExitStatus,
			fmt.Errorf("exit code %d: %s", exitErr.ExitCode(), tail(stderr.String(), 512)))
	}
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return "", docking.NewFailure(engine, docking.ReasonToolMissing, err)
	}
	return "", docking.NewFailure(engine, docking.ReasonExitStatus, err)
}

// tail keeps the last n bytes of s, which hold the tool's final error message.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
