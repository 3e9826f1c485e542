package docking

import (
	"time"

	"github.com/google/uuid"
)

// RescoreJob asks a worker to rescore ligands of a session. Empty Indices
// means every ligand.
type RescoreJob struct {
	JobID       string    `json:"job_id"`
	SessionID   string    `json:"session_id"`
	Indices     []int     `json:"indices,omitempty"`
	Parallelism int       `json:"parallelism,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewRescoreJob creates a job with a fresh ID.
func NewRescoreJob(sessionID string, indices []int, now time.Time) RescoreJob {
	return RescoreJob{
		JobID:       uuid.NewString(),
		SessionID:   sessionID,
		Indices:     indices,
		RequestedAt: now,
	}
}

// RescoreCompleted reports the outcome of a RescoreJob.
type RescoreCompleted struct {
	JobID       string          `json:"job_id"`
	SessionID   string          `json:"session_id"`
	Scores      map[int]float64 `json:"scores"`
	Failures    map[int]string  `json:"failures,omitempty"`
	CompletedAt time.Time       `json:"completed_at"`
}
