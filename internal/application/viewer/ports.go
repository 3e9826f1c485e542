package viewer

import (
	"context"
	"time"

	"github.com/turtacn/dockview/internal/domain/docking"
)

// Archive keeps a copy of every uploaded file.
type Archive interface {
	Store(ctx context.Context, sessionID, kind, name string, content []byte) (string, error)
}

// RunRecorder stores the history of engine runs.
type RunRecorder interface {
	Record(ctx context.Context, run docking.Run) error
}

// JobPublisher hands rescoring work to the worker.
type JobPublisher interface {
	PublishRescoreJob(ctx context.Context, job docking.RescoreJob) error
	PublishRescoreCompleted(ctx context.Context, done docking.RescoreCompleted) error
}

// EnvironmentChecker reports which external tools are usable.
type EnvironmentChecker interface {
	Check(ctx context.Context) docking.EnvironmentStatus
}

// Observer receives operational measurements.
type Observer interface {
	RecordExtraction(source string, blocks, records int, skipped map[string]int)
	RecordDockingRun(engine, status string, d time.Duration)
	RecordSessionOp(op string, err error)
}

// BatchFunc runs requests through an engine with bounded parallelism.
type BatchFunc func(ctx context.Context, engine docking.Engine, reqs []docking.Request, parallelism int) []docking.BatchItem

type nopObserver struct{}

func (nopObserver) RecordExtraction(string, int, int, map[string]int) {}
func (nopObserver) RecordDockingRun(string, string, time.Duration)    {}
func (nopObserver) RecordSessionOp(string, error)                      {}
