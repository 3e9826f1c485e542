package docking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/turtacn/dockview/internal/domain/protein"
)

// ErrNoResult signals that an engine produced no usable score. Runners wrap a
// missing executable, a non-zero exit, a timeout and unparseable output in it.
var ErrNoResult = errors.New("docking produced no result")

// Engine names.
const (
	EngineVina     = "vina"
	EngineOpenDock = "opendock"
)

// Mode selects between scoring a fixed pose and searching for new poses.
type Mode string

const (
	ModeScoreOnly Mode = "score_only"
	ModeDock      Mode = "dock"
)

// Request is the input of one engine run.
type Request struct {
	// Receptor is PDB text.
	Receptor string
	// Ligand is a mol block. OpenDock prefers SMILES when given.
	Ligand string
	SMILES string
	Site   protein.BindingSite
	Mode   Mode
	// Options are passed to the engine as extra command line flags.
	Options map[string]string
	// Label identifies the request in logs and batch results.
	Label string
}

// Validate checks the fields every engine needs.
func (r Request) Validate() error {
	if r.Receptor == "" {
		return fmt.Errorf("docking request: receptor is empty")
	}
	if r.Ligand == "" && r.SMILES == "" {
		return fmt.Errorf("docking request: ligand is empty")
	}
	return r.Site.Validate()
}

// Result is the outcome of one engine run.
type Result struct {
	Engine   string        `json:"engine"`
	Score    float64       `json:"score"`
	Poses    string        `json:"poses,omitempty"`
	Stdout   string        `json:"-"`
	Duration time.Duration `json:"duration"`
}

// Engine runs an external docking or scoring program.
type Engine interface {
	Name() string
	Rescore(ctx context.Context, req Request) (*Result, error)
}

// Failure describes why a run produced no result. It unwraps to ErrNoResult.
type Failure struct {
	Engine string
	Reason string
	Err    error
}

// Failure reasons.
const (
	ReasonToolMissing = "tool_missing"
	ReasonExitStatus  = "exit_status"
	ReasonTimeout     = "timeout"
	ReasonBadOutput   = "bad_output"
	ReasonIO          = "io"
)

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Engine, f.Reason, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Engine, f.Reason)
}

// Is makes errors.Is(err, ErrNoResult) hold for every failure.
func (f *Failure) Is(target error) bool {
	return target == ErrNoResult
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// NewFailure wraps err as a no-result failure of engine.
func NewFailure(engine, reason string, err error) error {
	return &Failure{Engine: engine, Reason: reason, Err: err}
}

// FailureReason returns the reason recorded in err, or "" when err is not a Failure.
func FailureReason(err error) string {
	var f *Failure
	if errors.As(err, &f) {
		return f.Reason
	}
	return ""
}

// BatchItem is the per-request outcome of a batch run.
type BatchItem struct {
	Index  int
	Label  string
	Result *Result
	Err    error
}

// Succeeded reports whether the item carries a result.
func (b BatchItem) Succeeded() bool {
	return b.Err == nil && b.Result != nil
}

// EnvironmentStatus reports which external tools are usable.
type EnvironmentStatus map[string]bool

// Environment status keys.
const (
	StatusVina        = "vina"
	StatusOpenDockEnv = "opendock_env"
)

// Ready reports whether the named tool is usable.
func (s EnvironmentStatus) Ready(key string) bool {
	return s[key]
}
