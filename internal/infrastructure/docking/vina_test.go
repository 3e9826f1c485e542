package docking

import (
	"context"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/dockview/internal/domain/docking"
	"github.com/turtacn/dockview/internal/domain/protein"
)

func vinaRequest(x float64) docking.Request {
	return docking.Request{
		Receptor: "ATOM      1  CA  ALA A 200       1.000   2.000   3.000  1.00 20.00           C\n",
		Ligand:   "lig\n\n\n  0  0  0  0  0  0  0  0  0  0999 V2000\nM  END\n",
		Site:     protein.BindingSite{Center: [3]float64{x, 0, 0}, Size: [3]float64{20, 20, 20}},
	}
}

func TestVinaEngine_ScoreOnly(t *testing.T) {
	fakeExec(t, "vina_score")
	workDir := t.TempDir()
	e := NewVinaEngine(VinaConfig{}, RunnerConfig{WorkDir: workDir}, nil)

	res, err := e.Rescore(context.Background(), vinaRequest(-7.5))
	require.NoError(t, err)
	assert.Equal(t, docking.EngineVina, e.Name())
	assert.Equal(t, docking.EngineVina, res.Engine)
	assert.Equal(t, -7.5, res.Score)
	assert.Contains(t, res.Stdout, "Affinity")

	entries, err := os.ReadDir(workDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "run directory must be removed")
}

func TestVinaEngine_KeepWorkDir(t *testing.T) {
	fakeExec(t, "vina_score")
	workDir := t.TempDir()
	e := NewVinaEngine(VinaConfig{}, RunnerConfig{WorkDir: workDir, KeepWorkDir: true}, nil)

	_, err := e.Rescore(context.Background(), vinaRequest(-1))
	require.NoError(t, err)

	entries, err := os.ReadDir(workDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestVinaEngine_DockMode(t *testing.T) {
	fakeExec(t, "vina_dock")
	e := NewVinaEngine(VinaConfig{Exhaustiveness: 8, NumModes: 9, EnergyRange: 3}, RunnerConfig{WorkDir: t.TempDir()}, nil)

	req := vinaRequest(0)
	req.Mode = docking.ModeDock
	res, err := e.Rescore(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, -9.1, res.Score)
	assert.Equal(t, "MODEL 1\nENDMDL\n", res.Poses)
}

func TestVinaEngine_Args(t *testing.T) {
	e := NewVinaEngine(VinaConfig{Exhaustiveness: 8, NumModes: 9, EnergyRange: 3}, RunnerConfig{}, nil)
	req := vinaRequest(1.25)
	req.Options = map[string]string{"cpu": "2", "--seed": "42"}

	args := e.args("/w", req)
	assert.Equal(t, []string{
		"--receptor", "/w/protein.pdb",
		"--ligand", "/w/ligand.sdf",
		"--center_x", "1.25", "--center_y", "0", "--center_z", "0",
		"--size_x", "20", "--size_y", "20", "--size_z", "20",
		"--score_only",
		"--out", "/w/vina_output.pdbqt",
		"--seed", "42", "--cpu", "2",
	}, args)

	req.Mode = docking.ModeDock
	req.Options = nil
	args = e.args("/w", req)
	assert.Contains(t, args, "--exhaustiveness")
	assert.Contains(t, args, "--energy_range")
	assert.NotContains(t, args, "--score_only")
}

func TestVinaEngine_Failures(t *testing.T) {
	tests := []struct {
		name      string
		behaviour string
		timeout   time.Duration
		reason    string
	}{
		{name: "non_zero_exit", behaviour: "fail", reason: docking.ReasonExitStatus},
		{name: "unparseable_output", behaviour: "garbage", reason: docking.ReasonBadOutput},
		{name: "timeout", behaviour: "sleep", timeout: 200 * time.Millisecond, reason: docking.ReasonTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakeExec(t, tt.behaviour)
			e := NewVinaEngine(VinaConfig{}, RunnerConfig{WorkDir: t.TempDir(), Timeout: tt.timeout}, nil)

			res, err := e.Rescore(context.Background(), vinaRequest(0))
			assert.Nil(t, res)
			require.Error(t, err)
			assert.ErrorIs(t, err, docking.ErrNoResult)
			assert.Equal(t, tt.reason, docking.FailureReason(err))
		})
	}
}

func TestVinaEngine_ToolMissing(t *testing.T) {
	orig := execCommand
	execCommand = func(ctx context.Context, _ string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "dockview-no-such-binary-for-tests", args...)
	}
	t.Cleanup(func() { execCommand = orig })

	e := NewVinaEngine(VinaConfig{}, RunnerConfig{WorkDir: t.TempDir()}, nil)
	_, err := e.Rescore(context.Background(), vinaRequest(0))
	assert.ErrorIs(t, err, docking.ErrNoResult)
	assert.Equal(t, docking.ReasonToolMissing, docking.FailureReason(err))
}

func TestVinaEngine_InvalidRequest(t *testing.T) {
	e := NewVinaEngine(VinaConfig{}, RunnerConfig{}, nil)
	_, err := e.Rescore(context.Background(), docking.Request{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, docking.ErrNoResult)

	smilesOnly := vinaRequest(0)
	smilesOnly.Ligand, smilesOnly.SMILES = "", "CCO"
	_, err = e.Rescore(context.Background(), smilesOnly)
	assert.Error(t, err)
}

func TestParseVinaScore(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		want    float64
		wantErr bool
	}{
		{name: "affinity_line", out: "Affinity: -6.734 (kcal/mol)\n", want: -6.734},
		{name: "free_energy", out: "Estimated Free Energy of Binding   : -7.120 (kcal/mol) [=(1)+(2)]", want: -7.12},
		{name: "mode_table", out: "-----+----\n   1       -10.2      0.000      0.000\n", want: -10.2},
		{name: "nothing", out: "Reading input ... done.", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseVinaScore(tt.out)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTail(t *testing.T) {
	assert.Equal(t, "abc", tail("abc", 5))
	assert.Equal(t, "...cde", tail("abcde", 3))
}
