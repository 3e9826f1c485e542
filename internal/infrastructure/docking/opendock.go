package docking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/turtacn/dockview/internal/domain/docking"
	"github.com/turtacn/dockview/internal/infrastructure/monitoring/logging"
)

// OpenDockConfig locates the conda environment that hosts OpenDock.
type OpenDockConfig struct {
	CondaExecutable string
	EnvName         string
	// Path is appended to sys.path so the opendock package can be imported.
	Path   string
	Python string
}

const (
	openDockReceptorFile = "protein.pdb"
	openDockLigandFile   = "ligand.sdf"
)

// openDockScript runs inside the conda environment and prints one JSON line.
var openDockScript = template.Must(template.New("opendock").Funcs(template.FuncMap{
	"py": pyString,
}).Parse(`import json
import sys
{{- if .Path}}
sys.path.append({{py .Path}})
{{- end}}
from opendock import dock_ligand

protein_file = {{py .ProteinFile}}
{{- if .SMILES}}
ligand = {{py .SMILES}}
{{- else}}
ligand = {{py .LigandFile}}
{{- end}}
result = dock_ligand(protein_file, ligand, center={{.Center}}, size={{.Size}})
if isinstance(result, dict):
    payload = {"score": float(result.get("score")), "poses": result.get("poses", "")}
else:
    payload = {"score": float(result[0]), "poses": result[1] if len(result) > 1 else ""}
print(json.dumps(payload))
`))

type openDockScriptData struct {
	Path        string
	ProteinFile string
	LigandFile  string
	SMILES      string
	Center      string
	Size        string
}

// pyString quotes s as a Python string literal. JSON string syntax is a subset
// of Python's.
func pyString(s string) (string, error) {
	b, err := json.Marshal(s)
	return string(b), err
}

func pyTuple(v [3]float64) string {
	return fmt.Sprintf("(%s, %s, %s)", formatFloat(v[0]), formatFloat(v[1]), formatFloat(v[2]))
}

// OpenDockEngine docks a ligand through `conda run` inside the OpenDock env.
type OpenDockEngine struct {
	runner
	cfg OpenDockConfig
}

// NewOpenDockEngine creates an OpenDock engine.
func NewOpenDockEngine(cfg OpenDockConfig, rc RunnerConfig, log logging.Logger) *OpenDockEngine {
	if cfg.CondaExecutable == "" {
		cfg.CondaExecutable = "conda"
	}
	if cfg.EnvName == "" {
		cfg.EnvName = "opendock"
	}
	if cfg.Python == "" {
		cfg.Python = "python"
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &OpenDockEngine{runner: newRunner(rc, log.Named("opendock")), cfg: cfg}
}

// Name implements docking.Engine.
func (e *OpenDockEngine) Name() string { return docking.EngineOpenDock }

// Rescore implements docking.Engine. The ligand is passed as SMILES when the
// request has one, otherwise as an SDF file.
func (e *OpenDockEngine) Rescore(ctx context.Context, req docking.Request) (*docking.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	dir, cleanup, err := e.workspace(docking.EngineOpenDock)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	files := map[string]string{openDockReceptorFile: req.Receptor}
	if req.SMILES == "" {
		files[openDockLigandFile] = req.Ligand
	}
	if err := writeFiles(docking.EngineOpenDock, dir, files); err != nil {
		return nil, err
	}

	script, err := e.renderScript(dir, req)
	if err != nil {
		return nil, docking.NewFailure(docking.EngineOpenDock, docking.ReasonIO, err)
	}
	args := []string{"run", "-n", e.cfg.EnvName, e.cfg.Python, "-c", script}

	start := time.Now()
	stdout, err := e.run(ctx, docking.EngineOpenDock, e.cfg.CondaExecutable, args, dir)
	if err != nil {
		return nil, err
	}
	res, err := ParseOpenDockOutput(stdout)
	if err != nil {
		return nil, docking.NewFailure(docking.EngineOpenDock, docking.ReasonBadOutput, err)
	}
	res.Stdout = stdout
	res.Duration = time.Since(start)
	return res, nil
}

func (e *OpenDockEngine) renderScript(dir string, req docking.Request) (string, error) {
	data := openDockScriptData{
		Path:        e.cfg.Path,
		ProteinFile: filepath.Join(dir, openDockReceptorFile),
		LigandFile:  filepath.Join(dir, openDockLigandFile),
		SMILES:      req.SMILES,
		Center:      pyTuple(req.Site.Center),
		Size:        pyTuple(req.Site.Size),
	}
	var buf bytes.Buffer
	if err := openDockScript.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type openDockOutput struct {
	Score *float64 `json:"score"`
	Poses string   `json:"poses"`
}

// ParseOpenDockOutput reads the last JSON object printed by the script.
// conda may print banners before it, so earlier lines are ignored.
func ParseOpenDockOutput(stdout string) (*docking.Result, error) {
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var out openDockOutput
		if err := json.Unmarshal([]byte(line), &out); err != nil {
			return nil, fmt.Errorf("decode opendock output: %w", err)
		}
		if out.Score == nil {
			return nil, fmt.Errorf("opendock output has no score")
		}
		return &docking.Result{Engine: docking.EngineOpenDock, Score: *out.Score, Poses: out.Poses}, nil
	}
	return nil, fmt.Errorf("no JSON object in opendock output")
}
