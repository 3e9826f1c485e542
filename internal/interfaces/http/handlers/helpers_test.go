package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/dockview/internal/application/viewer"
	"github.com/turtacn/dockview/internal/domain/docking"
	"github.com/turtacn/dockview/internal/domain/protein"
	"github.com/turtacn/dockview/internal/infrastructure/database/memory"
	"github.com/turtacn/dockview/internal/infrastructure/monitoring/logging"
)

type stubEngine struct {
	name  string
	score float64
	err   error
}

func (e *stubEngine) Name() string { return e.name }

func (e *stubEngine) Rescore(_ context.Context, req docking.Request) (*docking.Result, error) {
	if e.err != nil {
		return nil, e.err
	}
	return &docking.Result{Engine: e.name, Score: e.score, Poses: "poses for " + req.Label}, nil
}

type stubEnvironment docking.EnvironmentStatus

func (s stubEnvironment) Check(context.Context) docking.EnvironmentStatus {
	return docking.EnvironmentStatus(s)
}

type recordingJobs struct {
	mu   sync.Mutex
	jobs []docking.RescoreJob
}

func (r *recordingJobs) PublishRescoreJob(_ context.Context, job docking.RescoreJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job)
	return nil
}

func (r *recordingJobs) PublishRescoreCompleted(context.Context, docking.RescoreCompleted) error {
	return nil
}

type testServer struct {
	router   chi.Router
	vina     *stubEngine
	openDock *stubEngine
	jobs     *recordingJobs
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		vina:     &stubEngine{name: docking.EngineVina, score: -8.4},
		openDock: &stubEngine{name: docking.EngineOpenDock, score: -6.9},
		jobs:     &recordingJobs{},
	}
	opts := viewer.DefaultOptions()
	opts.Catalog = protein.NewCatalog(protein.Preset{
		ID:   "5n9r",
		Name: "USP7",
		Site: protein.BindingSite{Center: [3]float64{18.5, 5.2, -7.8}, Size: [3]float64{25, 25, 25}},
	})
	svc, err := viewer.NewService(viewer.Deps{
		Sessions:    memory.NewSessionStore(time.Hour),
		Vina:        ts.vina,
		OpenDock:    ts.openDock,
		Environment: stubEnvironment{docking.StatusVina: true, docking.StatusOpenDockEnv: false},
		Jobs:        ts.jobs,
		Logger:      logging.NewNopLogger(),
	}, opts)
	require.NoError(t, err)

	sessions := NewSessionHandler(svc, logging.NewNopLogger(), 0)
	ligands := NewLigandHandler(svc, 0)

	r := chi.NewRouter()
	r.Post("/sessions", sessions.Create)
	r.Route("/sessions/{sessionID}", func(item chi.Router) {
		item.Get("/", sessions.Get)
		item.Delete("/", sessions.Delete)
		item.Put("/protein", sessions.LoadProtein)
		item.Put("/ligands", sessions.LoadLigands)
		item.Post("/navigate", sessions.Navigate)
		item.Post("/sort", sessions.Sort)
		item.Put("/site", sessions.SetSite)
		item.Post("/rescore", sessions.Rescore)
		item.Post("/dock", sessions.Dock)
		item.Get("/view", sessions.View)
	})
	r.Post("/ligands/extract", ligands.Extract)
	r.Get("/environment", ligands.Environment)
	r.Get("/presets", ligands.Presets)
	ts.router = r
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) doJSON(t *testing.T, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	return ts.do(t, method, path, body, "application/json")
}

// loadedSession creates a session holding site.pdb and poses.sdf.
func (ts *testServer) loadedSession(t *testing.T) string {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/sessions", nil, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var created CreateSessionResponse
	decode(t, rec, &created)

	rec = ts.do(t, http.MethodPut, "/sessions/"+created.ID+"/protein?name=site.pdb",
		bytes.NewReader(testdata(t, "site.pdb")), "chemical/x-pdb")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body, ct := multipartFile(t, "poses.sdf", testdata(t, "poses.sdf"))
	rec = ts.do(t, http.MethodPut, "/sessions/"+created.ID+"/ligands", body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return created.ID
}

func testdata(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return b
}

func multipartFile(t *testing.T, name string, content []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	decode(t, rec, &resp)
	return resp.Code
}
