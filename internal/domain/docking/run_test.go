package docking

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRun_Succeeded(t *testing.T) {
	now := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	r := NewRun("s1", 3, "Ligand_4", EngineVina, ModeScoreOnly, &Result{Score: -7.5}, nil, 1500*time.Millisecond, now)

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, RunSucceeded, r.Status)
	require.NotNil(t, r.Score)
	assert.InDelta(t, -7.5, *r.Score, 1e-9)
	assert.Equal(t, int64(1500), r.DurationMS)
	assert.Empty(t, r.Reason)
}

func TestNewRun_Failed(t *testing.T) {
	now := time.Now()
	r := NewRun("s1", 0, "x", EngineVina, ModeScoreOnly, nil, NewFailure(EngineVina, ReasonTimeout, nil), time.Second, now)
	assert.Equal(t, RunFailed, r.Status)
	assert.Nil(t, r.Score)
	assert.Equal(t, ReasonTimeout, r.Reason)

	r = NewRun("s1", 0, "x", EngineVina, ModeScoreOnly, nil, errors.New("boom"), time.Second, now)
	assert.Equal(t, "boom", r.Reason)
}

func TestNewRescoreJob(t *testing.T) {
	a := NewRescoreJob("s1", nil, time.Now())
	b := NewRescoreJob("s1", []int{1}, time.Now())
	assert.NotEqual(t, a.JobID, b.JobID)
	assert.Equal(t, []int{1}, b.Indices)
}
