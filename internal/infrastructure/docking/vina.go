package docking

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/turtacn/dockview/internal/domain/docking"
	"github.com/turtacn/dockview/internal/infrastructure/monitoring/logging"
)

// File names inside a Vina run directory.
const (
	vinaReceptorFile = "protein.pdb"
	vinaLigandFile   = "ligand.sdf"
	vinaOutputFile   = "vina_output.pdbqt"
)

// VinaConfig holds AutoDock Vina parameters.
type VinaConfig struct {
	Executable     string
	Exhaustiveness int
	NumModes       int
	EnergyRange    float64
}

// VinaEngine scores or docks a ligand with the vina executable.
type VinaEngine struct {
	runner
	cfg VinaConfig
}

// NewVinaEngine creates a Vina engine. An empty executable means "vina" on PATH.
func NewVinaEngine(cfg VinaConfig, rc RunnerConfig, log logging.Logger) *VinaEngine {
	if cfg.Executable == "" {
		cfg.Executable = "vina"
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &VinaEngine{runner: newRunner(rc, log.Named("vina")), cfg: cfg}
}

// Name implements docking.Engine.
func (e *VinaEngine) Name() string { return docking.EngineVina }

// Rescore implements docking.Engine. Each call gets its own directory so
// concurrent calls never observe each other's files. Failures are not retried.
func (e *VinaEngine) Rescore(ctx context.Context, req docking.Request) (*docking.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Ligand == "" {
		return nil, fmt.Errorf("vina: ligand mol block is required")
	}
	dir, cleanup, err := e.workspace(docking.EngineVina)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if err := writeFiles(docking.EngineVina, dir, map[string]string{
		vinaReceptorFile: req.Receptor,
		vinaLigandFile:   req.Ligand,
	}); err != nil {
		return nil, err
	}

	start := time.Now()
	stdout, err := e.run(ctx, docking.EngineVina, e.cfg.Executable, e.args(dir, req), dir)
	if err != nil {
		return nil, err
	}
	score, err := ParseVinaScore(stdout)
	if err != nil {
		return nil, docking.NewFailure(docking.EngineVina, docking.ReasonBadOutput, err)
	}

	res := &docking.Result{
		Engine:   docking.EngineVina,
		Score:    score,
		Stdout:   stdout,
		Duration: time.Since(start),
	}
	if poses, err := os.ReadFile(filepath.Join(dir, vinaOutputFile)); err == nil {
		res.Poses = string(poses)
	}
	return res, nil
}

func (e *VinaEngine) args(dir string, req docking.Request) []string {
	site := req.Site
	args := []string{
		"--receptor", filepath.Join(dir, vinaReceptorFile),
		"--ligand", filepath.Join(dir, vinaLigandFile),
		"--center_x", formatFloat(site.Center[0]),
		"--center_y", formatFloat(site.Center[1]),
		"--center_z", formatFloat(site.Center[2]),
		"--size_x", formatFloat(site.Size[0]),
		"--size_y", formatFloat(site.Size[1]),
		"--size_z", formatFloat(site.Size[2]),
	}
	if req.Mode == docking.ModeDock {
		if e.cfg.Exhaustiveness > 0 {
			args = append(args, "--exhaustiveness", strconv.Itoa(e.cfg.Exhaustiveness))
		}
		if e.cfg.NumModes > 0 {
			args = append(args, "--num_modes", strconv.Itoa(e.cfg.NumModes))
		}
		if e.cfg.EnergyRange > 0 {
			args = append(args, "--energy_range", formatFloat(e.cfg.EnergyRange))
		}
	} else {
		args = append(args, "--score_only")
	}
	args = append(args, "--out", filepath.Join(dir, vinaOutputFile))
	return append(args, optionArgs(req.Options)...)
}

// optionArgs renders extra options as sorted --key value pairs.
func optionArgs(opts map[string]string) []string {
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var out []string
	for _, k := range keys {
		out = append(out, "--"+strings.TrimPrefix(k, "--"))
		if v := opts[k]; v != "" {
			out = append(out, v)
		}
	}
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var (
	affinityLine    = regexp.MustCompile(`(?i)affinity:\s*(-?\d+(?:\.\d+)?)`)
	freeEnergyLine  = regexp.MustCompile(`(?i)estimated free energy of binding\s*:\s*(-?\d+(?:\.\d+)?)`)
	firstModeRowRex = regexp.MustCompile(`(?m)^\s*1\s+(-?\d+(?:\.\d+)?)\s+\d`)
)

// ParseVinaScore extracts the binding affinity from Vina's standard output.
// Score-only runs print an "Affinity:" or "Estimated Free Energy" line; docking
// runs print a mode table whose first row holds the best affinity.
func ParseVinaScore(stdout string) (float64, error) {
	for _, re := range []*regexp.Regexp{affinityLine, freeEnergyLine, firstModeRowRex} {
		if m := re.FindStringSubmatch(stdout); m != nil {
			return strconv.ParseFloat(m[1], 64)
		}
	}
	return 0, fmt.Errorf("no affinity in vina output")
}
