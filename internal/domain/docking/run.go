package docking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Run statuses.
const (
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// Run is the history record of one engine invocation.
type Run struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	LigandIndex int       `json:"ligand_index"`
	LigandName  string    `json:"ligand_name"`
	Engine      string    `json:"engine"`
	Mode        Mode      `json:"mode"`
	Status      string    `json:"status"`
	Score       *float64  `json:"score,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	DurationMS  int64     `json:"duration_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewRun builds the history record for a finished invocation. err decides the
// status; res may be nil on failure.
func NewRun(sessionID string, ligandIndex int, ligandName, engine string, mode Mode, res *Result, err error, elapsed time.Duration, now time.Time) Run {
	r := Run{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		LigandIndex: ligandIndex,
		LigandName:  ligandName,
		Engine:      engine,
		Mode:        mode,
		DurationMS:  elapsed.Milliseconds(),
		CreatedAt:   now,
	}
	if err != nil || res == nil {
		r.Status = RunFailed
		r.Reason = FailureReason(err)
		if r.Reason == "" && err != nil {
			r.Reason = err.Error()
		}
		return r
	}
	score := res.Score
	r.Status = RunSucceeded
	r.Score = &score
	return r
}

// RunRepository stores docking run history.
type RunRepository interface {
	Record(ctx context.Context, run Run) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]Run, error)
}
