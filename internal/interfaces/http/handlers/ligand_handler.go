package handlers

import (
	"net/http"

	"github.com/turtacn/dockview/internal/domain/docking"
	"github.com/turtacn/dockview/internal/domain/ligand"
	"github.com/turtacn/dockview/internal/domain/protein"
	"github.com/turtacn/dockview/pkg/errors"
)

// LigandHandler serves the stateless endpoints: extraction, tool status
// and protein presets.
type LigandHandler struct {
	viewer    Viewer
	maxUpload int64
}

// NewLigandHandler creates a LigandHandler.
func NewLigandHandler(v Viewer, maxUpload int64) *LigandHandler {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUpload
	}
	return &LigandHandler{viewer: v, maxUpload: maxUpload}
}

// ExtractResponse is returned by POST /ligands/extract.
type ExtractResponse struct {
	Name    string            `json:"name,omitempty"`
	Blocks  int               `json:"blocks"`
	Count   int               `json:"count"`
	Records []ligand.Record   `json:"records"`
	Skipped []ligand.Skipped  `json:"skipped,omitempty"`
	Order   ligand.ScoreOrder `json:"order"`
}

// EnvironmentResponse is returned by GET /environment.
type EnvironmentResponse struct {
	Tools docking.EnvironmentStatus `json:"tools"`
	Ready bool                      `json:"ready"`
}

// PresetsResponse is returned by GET /presets.
type PresetsResponse struct {
	Presets []protein.Preset `json:"presets"`
}

// Extract handles POST /ligands/extract. The SDF text is the raw body or a
// multipart "file" part; ?order=ascending|descending overrides the configured order.
func (h *LigandHandler) Extract(w http.ResponseWriter, r *http.Request) {
	var order ligand.ScoreOrder
	if v := r.URL.Query().Get("order"); v != "" {
		o, err := ligand.ParseScoreOrder(v)
		if err != nil {
			writeAppError(w, errors.Wrap(err, errors.ErrCodeSortOrderInvalid, "invalid order"))
			return
		}
		order = o
	}

	up, err := readUpload(r, h.maxUpload)
	if err != nil {
		writeAppError(w, err)
		return
	}
	ex := h.viewer.Extract(up.Content, order)

	resp := ExtractResponse{
		Name:    up.Name,
		Blocks:  ex.Blocks,
		Count:   len(ex.Records),
		Records: ex.Records,
		Skipped: ex.Skipped,
		Order:   ex.Order,
	}
	if resp.Records == nil {
		resp.Records = []ligand.Record{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Environment handles GET /environment. It always answers 200; Ready is
// true only when the Vina executable is usable.
func (h *LigandHandler) Environment(w http.ResponseWriter, r *http.Request) {
	status := h.viewer.Environment(r.Context())
	writeJSON(w, http.StatusOK, EnvironmentResponse{
		Tools: status,
		Ready: status.Ready(docking.StatusVina),
	})
}

// Presets handles GET /presets.
func (h *LigandHandler) Presets(w http.ResponseWriter, r *http.Request) {
	presets := h.viewer.Presets()
	if presets == nil {
		presets = []protein.Preset{}
	}
	writeJSON(w, http.StatusOK, PresetsResponse{Presets: presets})
}
