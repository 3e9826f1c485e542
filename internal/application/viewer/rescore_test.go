package viewer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/dockview/internal/domain/docking"
	"github.com/turtacn/dockview/internal/domain/protein"
	apperrors "github.com/turtacn/dockview/pkg/errors"
)

func labelled(name string) interface{} {
	return mock.MatchedBy(func(r docking.Request) bool { return r.Label == name })
}

func TestRescore_StoresVinaScore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.loaded(t)
	site, err := f.svc.SetBindingSite(ctx, id, SiteRequest{Preset: "5n9r"})
	require.NoError(t, err)

	f.vina.On("Rescore", mock.Anything, mock.MatchedBy(func(r docking.Request) bool {
		return r.Label == "benzene" && r.Site == site && r.Mode == docking.ModeScoreOnly &&
			strings.Contains(r.Receptor, "ATOM") && strings.Contains(r.Ligand, "M  END")
	})).Return(&docking.Result{Engine: docking.EngineVina, Score: -8.1, Duration: time.Second}, nil).Once()
	f.runs.On("Record", mock.Anything, mock.MatchedBy(func(r docking.Run) bool {
		return r.Status == docking.RunSucceeded && r.LigandName == "benzene" && r.SessionID == id && *r.Score == -8.1
	})).Return(nil).Once()

	res, err := f.svc.Rescore(ctx, id, -1)
	require.NoError(t, err)
	assert.Equal(t, -8.1, res.VinaScore)
	assert.Equal(t, 0, res.Position)
	require.NotNil(t, res.Ligand.VinaScore)

	view, err := f.svc.Current(ctx, id)
	require.NoError(t, err)
	require.True(t, view.Ligand.HasVinaScore())
	assert.Equal(t, -8.1, *view.Ligand.VinaScore)
	assert.Equal(t, -9.5, view.Ligand.Score, "original score is kept")

	f.vina.AssertExpectations(t)
	f.runs.AssertExpectations(t)
}

func TestRescore_ExplicitPositionUsesDefaultSite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.loaded(t)

	f.vina.On("Rescore", mock.Anything, mock.MatchedBy(func(r docking.Request) bool {
		return r.Label == "acetic_acid" && r.Site == protein.DefaultBindingSite
	})).Return(&docking.Result{Score: -5.5}, nil).Once()
	f.runs.On("Record", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()

	res, err := f.svc.Rescore(ctx, id, 2)
	require.NoError(t, err, "run history failures are not fatal")
	assert.Equal(t, "acetic_acid", res.Ligand.Name)

	_, err = f.svc.Rescore(ctx, id, 9)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeLigandIndexInvalid))
}

func TestRescore_ToolFailureLeavesSessionUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.loaded(t)

	f.vina.On("Rescore", mock.Anything, mock.Anything).
		Return(nil, docking.NewFailure(docking.EngineVina, docking.ReasonTimeout, context.DeadlineExceeded)).Once()
	f.runs.On("Record", mock.Anything, mock.MatchedBy(func(r docking.Run) bool {
		return r.Status == docking.RunFailed && r.Reason == docking.ReasonTimeout && r.Score == nil
	})).Return(nil).Once()

	before, err := f.svc.Get(ctx, id)
	require.NoError(t, err)

	_, err = f.svc.Rescore(ctx, id, -1)
	require.Error(t, err)
	assert.ErrorIs(t, err, docking.ErrNoResult)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeDockingTimeout))

	after, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
	assert.False(t, after.Ligands[0].HasVinaScore())
	f.runs.AssertExpectations(t)
}

func TestRescore_MissingInputs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess, err := f.svc.Create(ctx)
	require.NoError(t, err)

	_, err = f.svc.Rescore(ctx, sess.ID, -1)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeSessionNoProtein))

	f.archive.On("Store", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("k", nil)
	_, err = f.svc.LoadProtein(ctx, sess.ID, "site.pdb", readTestdata(t, "site.pdb"))
	require.NoError(t, err)
	_, err = f.svc.RescoreAll(ctx, sess.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeSessionNoLigands))
	f.vina.AssertNotCalled(t, "Rescore", mock.Anything, mock.Anything)
}

func TestDockingError_Codes(t *testing.T) {
	tests := []struct {
		reason string
		want   apperrors.ErrorCode
	}{
		{docking.ReasonToolMissing, apperrors.ErrCodeDockingToolMissing},
		{docking.ReasonTimeout, apperrors.ErrCodeDockingTimeout},
		{docking.ReasonBadOutput, apperrors.ErrCodeDockingOutputInvalid},
		{docking.ReasonExitStatus, apperrors.ErrCodeDockingNoResult},
	}
	for _, tt := range tests {
		t.Run(tt.reason, func(t *testing.T) {
			err := dockingError(docking.NewFailure("vina", tt.reason, nil), "lig")
			assert.True(t, apperrors.IsCode(err, tt.want))
			assert.ErrorIs(t, err, docking.ErrNoResult)
		})
	}
}

func TestRescoreAll_PartialFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.loaded(t)

	f.vina.On("Rescore", mock.Anything, labelled("benzene")).Return(&docking.Result{Score: -9.9}, nil)
	f.vina.On("Rescore", mock.Anything, labelled("ethanol")).Return(&docking.Result{Score: -4.2}, nil)
	f.vina.On("Rescore", mock.Anything, labelled("acetic_acid")).
		Return(nil, docking.NewFailure(docking.EngineVina, docking.ReasonExitStatus, errors.New("exit status 1")))
	f.vina.On("Rescore", mock.Anything, labelled("Ligand_2")).Return(&docking.Result{Score: -1.0}, nil)
	f.runs.On("Record", mock.Anything, mock.Anything).Return(nil).Times(4)

	res, err := f.svc.RescoreAll(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, map[int]float64{4: -9.9, 0: -4.2, 1: -1.0}, res.Scores)
	assert.Equal(t, map[int]string{2: docking.ReasonExitStatus}, res.Failures)

	sess, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	for _, rec := range sess.Ligands {
		if rec.Index == 2 {
			assert.False(t, rec.HasVinaScore())
			continue
		}
		require.True(t, rec.HasVinaScore(), rec.Name)
		assert.Equal(t, res.Scores[rec.Index], *rec.VinaScore)
	}
	f.runs.AssertExpectations(t)
}

func TestDock_WithSMILES(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.loaded(t)

	f.openDock.On("Rescore", mock.Anything, mock.MatchedBy(func(r docking.Request) bool {
		return r.SMILES == "c1ccccc1O" && r.Mode == docking.ModeDock && r.Ligand == ""
	})).Return(&docking.Result{Engine: docking.EngineOpenDock, Score: -7.7, Poses: "pose-data"}, nil).Once()
	f.runs.On("Record", mock.Anything, mock.MatchedBy(func(r docking.Run) bool {
		return r.Engine == docking.EngineOpenDock && r.LigandIndex == -1
	})).Return(nil).Once()

	before, err := f.svc.Get(ctx, id)
	require.NoError(t, err)

	res, err := f.svc.Dock(ctx, id, "c1ccccc1O")
	require.NoError(t, err)
	assert.Equal(t, -7.7, res.Score)

	after, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before.Ligands, after.Ligands)
	f.archive.AssertCalled(t, "Store", mock.Anything, id, KindPoses, "smiles.sdf", []byte("pose-data"))
	f.openDock.AssertExpectations(t)
}

func TestDock_CurrentLigand(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.loaded(t)
	_, err := f.svc.Select(ctx, id, 1)
	require.NoError(t, err)

	f.openDock.On("Rescore", mock.Anything, mock.MatchedBy(func(r docking.Request) bool {
		return r.Label == "ethanol" && r.SMILES == "CCO" && r.Ligand != ""
	})).Return(&docking.Result{Score: -3.3}, nil).Once()
	f.runs.On("Record", mock.Anything, mock.Anything).Return(nil)

	res, err := f.svc.Dock(ctx, id, "")
	require.NoError(t, err)
	assert.Equal(t, -3.3, res.Score)
}

func TestDock_NotConfigured(t *testing.T) {
	f := newFixture(t)
	f.svc.openDock = nil
	_, err := f.svc.Dock(context.Background(), "any", "C")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeServiceUnavailable))
}

func TestEnvironment(t *testing.T) {
	f := newFixture(t)
	status := f.svc.Environment(context.Background())
	assert.True(t, status.Ready(docking.StatusVina))
	assert.False(t, status.Ready(docking.StatusOpenDockEnv))

	f.svc.env = nil
	status = f.svc.Environment(context.Background())
	assert.Len(t, status, 2)
	assert.False(t, status.Ready(docking.StatusVina))
}
