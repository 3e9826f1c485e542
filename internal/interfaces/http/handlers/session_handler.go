package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/dockview/internal/application/viewer"
	"github.com/turtacn/dockview/internal/domain/docking"
	"github.com/turtacn/dockview/internal/domain/ligand"
	"github.com/turtacn/dockview/internal/domain/protein"
	"github.com/turtacn/dockview/internal/domain/session"
	"github.com/turtacn/dockview/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/dockview/pkg/errors"
)

// Viewer is the application surface used by the HTTP layer.
// *viewer.Service satisfies it.
type Viewer interface {
	Create(ctx context.Context) (*session.Session, error)
	Delete(ctx context.Context, id string) error
	Current(ctx context.Context, id string) (*viewer.View, error)
	LoadProtein(ctx context.Context, id, name, text string) (*viewer.ProteinInfo, error)
	LoadLigands(ctx context.Context, id, name, text string) (*viewer.LoadResult, error)
	Next(ctx context.Context, id string) (*viewer.View, error)
	Previous(ctx context.Context, id string) (*viewer.View, error)
	Select(ctx context.Context, id string, pos int) (*viewer.View, error)
	SortByScore(ctx context.Context, id, order string) (*viewer.View, error)
	SetBindingSite(ctx context.Context, id string, req viewer.SiteRequest) (protein.BindingSite, error)
	Rescore(ctx context.Context, id string, position int) (*viewer.RescoreResult, error)
	RescoreAll(ctx context.Context, id string) (*viewer.BatchResult, error)
	SubmitRescoreJob(ctx context.Context, id string, indices []int) (*docking.RescoreJob, error)
	Dock(ctx context.Context, id, smiles string) (*docking.Result, error)
	Render(ctx context.Context, id string, spin *bool) ([]byte, error)
	Extract(text string, order ligand.ScoreOrder) ligand.Extraction
	Environment(ctx context.Context) docking.EnvironmentStatus
	Presets() []protein.Preset
}

// SessionHandler serves the /sessions resource.
type SessionHandler struct {
	viewer    Viewer
	logger    logging.Logger
	maxUpload int64
}

// NewSessionHandler creates a SessionHandler. maxUpload <= 0 selects DefaultMaxUpload.
func NewSessionHandler(v Viewer, logger logging.Logger, maxUpload int64) *SessionHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUpload
	}
	return &SessionHandler{viewer: v, logger: logger.Named("http.sessions"), maxUpload: maxUpload}
}

// CreateSessionResponse is returned by POST /sessions.
type CreateSessionResponse struct {
	ID string `json:"id"`
}

// NavigateRequest is the body of POST /sessions/{id}/navigate.
type NavigateRequest struct {
	Action string `json:"action"`
	Index  int    `json:"index"`
}

// SortRequest is the body of POST /sessions/{id}/sort.
type SortRequest struct {
	Order string `json:"order"`
}

// SiteRequest is the body of PUT /sessions/{id}/site. Exactly one selector
// is expected; the preset wins when several are given.
type SiteRequest struct {
	Preset   string    `json:"preset,omitempty"`
	Center   []float64 `json:"center,omitempty"`
	Size     []float64 `json:"size,omitempty"`
	Residues []int     `json:"residues,omitempty"`
}

// SiteResponse echoes the active binding site.
type SiteResponse struct {
	Site protein.BindingSite `json:"site"`
}

// DockRequest is the body of POST /sessions/{id}/dock.
type DockRequest struct {
	SMILES string `json:"smiles,omitempty"`
}

// Create handles POST /sessions.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess, err := h.viewer.Create(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateSessionResponse{ID: sess.ID})
}

// Get handles GET /sessions/{id}.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.viewer.Current(r.Context(), sessionID(r))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Delete handles DELETE /sessions/{id}.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.viewer.Delete(r.Context(), sessionID(r)); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LoadProtein handles PUT /sessions/{id}/protein.
func (h *SessionHandler) LoadProtein(w http.ResponseWriter, r *http.Request) {
	up, err := readUpload(r, h.maxUpload)
	if err != nil {
		writeAppError(w, err)
		return
	}
	if up.Name == "" {
		up.Name = "protein.pdb"
	}
	info, err := h.viewer.LoadProtein(r.Context(), sessionID(r), up.Name, up.Content)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// LoadLigands handles PUT /sessions/{id}/ligands.
func (h *SessionHandler) LoadLigands(w http.ResponseWriter, r *http.Request) {
	up, err := readUpload(r, h.maxUpload)
	if err != nil {
		writeAppError(w, err)
		return
	}
	if up.Name == "" {
		up.Name = "ligands.sdf"
	}
	res, err := h.viewer.LoadLigands(r.Context(), sessionID(r), up.Name, up.Content)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Navigate handles POST /sessions/{id}/navigate.
func (h *SessionHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	var req NavigateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, err)
		return
	}

	var (
		view *viewer.View
		err  error
		id   = sessionID(r)
	)
	switch req.Action {
	case "next":
		view, err = h.viewer.Next(r.Context(), id)
	case "previous", "prev":
		view, err = h.viewer.Previous(r.Context(), id)
	case "select":
		view, err = h.viewer.Select(r.Context(), id, req.Index)
	default:
		err = errors.InvalidParam("action must be one of next, previous, select")
	}
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Sort handles POST /sessions/{id}/sort.
func (h *SessionHandler) Sort(w http.ResponseWriter, r *http.Request) {
	var req SortRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, err)
		return
	}
	view, err := h.viewer.SortByScore(r.Context(), sessionID(r), req.Order)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// SetSite handles PUT /sessions/{id}/site.
func (h *SessionHandler) SetSite(w http.ResponseWriter, r *http.Request) {
	var req SiteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, err)
		return
	}
	site, err := h.viewer.SetBindingSite(r.Context(), sessionID(r), viewer.SiteRequest{
		Preset:   req.Preset,
		Center:   req.Center,
		Size:     req.Size,
		Residues: req.Residues,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SiteResponse{Site: site})
}

// Rescore handles POST /sessions/{id}/rescore.
//
//	?all=true    rescore every ligand in the session
//	?async=true  publish a job covering every ligand instead of running inline
//	?index=n     rescore the ligand at position n instead of the current one
func (h *SessionHandler) Rescore(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	position := -1
	if v := r.URL.Query().Get("index"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeAppError(w, errors.InvalidParam("index must be a non-negative integer"))
			return
		}
		position = n
	}

	switch {
	case queryBool(r, "async", false):
		job, err := h.viewer.SubmitRescoreJob(r.Context(), id, nil)
		if err != nil {
			writeAppError(w, err)
			return
		}
		h.logger.Info("rescore job accepted",
			logging.String(logging.FieldSessionID, id),
			logging.String("job_id", job.JobID))
		writeJSON(w, http.StatusAccepted, job)
	case queryBool(r, "all", false):
		res, err := h.viewer.RescoreAll(r.Context(), id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	default:
		res, err := h.viewer.Rescore(r.Context(), id, position)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// Dock handles POST /sessions/{id}/dock.
func (h *SessionHandler) Dock(w http.ResponseWriter, r *http.Request) {
	var req DockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, err)
		return
	}
	res, err := h.viewer.Dock(r.Context(), sessionID(r), req.SMILES)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// View handles GET /sessions/{id}/view and returns the 3Dmol.js page.
func (h *SessionHandler) View(w http.ResponseWriter, r *http.Request) {
	var spin *bool
	if v := r.URL.Query().Get("spin"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeAppError(w, errors.InvalidParam("spin must be a boolean"))
			return
		}
		spin = &b
	}
	page, err := h.viewer.Render(r.Context(), sessionID(r), spin)
	if err != nil {
		writeAppError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

func sessionID(r *http.Request) string {
	return chi.URLParam(r, "sessionID")
}
