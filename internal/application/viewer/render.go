package viewer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/turtacn/dockview/internal/config"
	"github.com/turtacn/dockview/pkg/errors"
)

// RenderOptions style the 3Dmol.js page.
type RenderOptions struct {
	Width             int
	Height            int
	ScriptURL         string
	ProteinColor      string
	ProteinOpacity    float64
	LigandColorScheme string
	StickRadius       float64
	SurfaceColor      string
	SurfaceOpacity    float64
	// SurfaceResidues is the inclusive residue range covered by the VDW
	// surface; a zero range disables the surface.
	SurfaceResidues [2]int
	Spin            bool
}

// DefaultRenderOptions matches the viewer section of config.Default.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		Width:             config.DefaultViewerWidth,
		Height:            config.DefaultViewerHeight,
		ScriptURL:         config.DefaultViewerScriptURL,
		ProteinColor:      "lightblue",
		ProteinOpacity:    0.8,
		LigandColorScheme: "default",
		StickRadius:       0.2,
		SurfaceColor:      "white",
		SurfaceOpacity:    0.3,
		SurfaceResidues:   [2]int{config.DefaultResidueStart, config.DefaultResidueEnd},
	}
}

var pageTemplate = template.Must(template.New("viewer").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="{{.Opts.ScriptURL}}"></script>
</head>
<body>
<h3>{{.Title}}</h3>
{{- if .Caption}}
<p>{{.Caption}}</p>
{{- end}}
<div id="viewer" style="width: {{.Opts.Width}}px; height: {{.Opts.Height}}px; position: relative;"></div>
<script>
(function () {
  var viewer = $3Dmol.createViewer(document.getElementById("viewer"), {backgroundColor: "white"});
  var receptor = {{.Protein}};
  if (receptor) {
    var pm = viewer.addModel(receptor, "pdb");
    pm.setStyle({}, {cartoon: {color: {{.Opts.ProteinColor}}, opacity: {{.Opts.ProteinOpacity}}}});
    {{- if .Surface}}
    viewer.addSurface($3Dmol.SurfaceType.VDW, {opacity: {{.Opts.SurfaceOpacity}}, color: {{.Opts.SurfaceColor}}}, {model: pm, resi: {{.Surface}}});
    {{- end}}
  }
  var pose = {{.Ligand}};
  if (pose) {
    var lm = viewer.addModel(pose, "sdf");
    lm.setStyle({}, {stick: {colorscheme: {{.Opts.LigandColorScheme}}, radius: {{.Opts.StickRadius}}}});
  }
  viewer.zoomTo();
  viewer.render();
  viewer.spin({{.Spin}});
})();
</script>
</body>
</html>
`))

type pageData struct {
	Title   string
	Caption string
	Opts    RenderOptions
	Protein string
	Ligand  string
	Surface string
	Spin    bool
}

// Render returns an HTML page showing the session protein and the ligand
// under the cursor. spin overrides the configured rotation when non-nil.
func (s *Service) Render(ctx context.Context, id string, spin *bool) ([]byte, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	data := pageData{
		Title:   "DockView",
		Opts:    s.opts.Render,
		Protein: sess.Protein,
		Spin:    s.opts.Render.Spin,
	}
	if spin != nil {
		data.Spin = *spin
	}
	if r := data.Opts.SurfaceResidues; r[1] > r[0] {
		data.Surface = fmt.Sprintf("%d-%d", r[0], r[1])
	}
	if rec, ok := sess.Current(); ok {
		data.Ligand = rec.MolBlock()
		data.Title = rec.Name
		data.Caption = fmt.Sprintf("Ligand %d of %d, score %.2f", sess.CurrentIdx+1, len(sess.Ligands), rec.Score)
		if rec.VinaScore != nil {
			data.Caption += fmt.Sprintf(", Vina %.2f", *rec.VinaScore)
		}
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to render viewer page")
	}
	return buf.Bytes(), nil
}
