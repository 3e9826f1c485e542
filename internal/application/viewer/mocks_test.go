package viewer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/dockview/internal/domain/docking"
	"github.com/turtacn/dockview/internal/domain/protein"
	"github.com/turtacn/dockview/internal/infrastructure/database/memory"
	"github.com/turtacn/dockview/internal/infrastructure/monitoring/logging"
)

type mockEngine struct {
	mock.Mock
	name string
}

func (m *mockEngine) Name() string { return m.name }

func (m *mockEngine) Rescore(ctx context.Context, req docking.Request) (*docking.Result, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*docking.Result)
	return res, args.Error(1)
}

type mockArchive struct{ mock.Mock }

func (m *mockArchive) Store(ctx context.Context, sessionID, kind, name string, content []byte) (string, error) {
	args := m.Called(ctx, sessionID, kind, name, content)
	return args.String(0), args.Error(1)
}

type mockRecorder struct{ mock.Mock }

func (m *mockRecorder) Record(ctx context.Context, run docking.Run) error {
	return m.Called(ctx, run).Error(0)
}

type mockJobs struct{ mock.Mock }

func (m *mockJobs) PublishRescoreJob(ctx context.Context, job docking.RescoreJob) error {
	return m.Called(ctx, job).Error(0)
}

func (m *mockJobs) PublishRescoreCompleted(ctx context.Context, done docking.RescoreCompleted) error {
	return m.Called(ctx, done).Error(0)
}

type stubEnvironment docking.EnvironmentStatus

func (s stubEnvironment) Check(context.Context) docking.EnvironmentStatus {
	return docking.EnvironmentStatus(s)
}

type fixture struct {
	svc      *Service
	store    *memory.SessionStore
	vina     *mockEngine
	openDock *mockEngine
	archive  *mockArchive
	runs     *mockRecorder
	jobs     *mockJobs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    memory.NewSessionStore(time.Hour),
		vina:     &mockEngine{name: docking.EngineVina},
		openDock: &mockEngine{name: docking.EngineOpenDock},
		archive:  &mockArchive{},
		runs:     &mockRecorder{},
		jobs:     &mockJobs{},
	}
	opts := DefaultOptions()
	opts.Catalog = protein.NewCatalog(protein.Preset{
		ID:   "5n9r",
		Name: "USP7",
		Site: protein.BindingSite{Center: [3]float64{18.5, 5.2, -7.8}, Size: [3]float64{25, 25, 25}},
	})
	svc, err := NewService(Deps{
		Sessions:    f.store,
		Vina:        f.vina,
		OpenDock:    f.openDock,
		Environment: stubEnvironment{docking.StatusVina: true, docking.StatusOpenDockEnv: false},
		Archive:     f.archive,
		Runs:        f.runs,
		Jobs:        f.jobs,
		Logger:      logging.NewNopLogger(),
	}, opts)
	require.NoError(t, err)
	f.svc = svc
	return f
}

func readTestdata(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(b)
}

// loaded returns a session holding site.pdb and poses.sdf.
func (f *fixture) loaded(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	f.archive.On("Store", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("sessions/key", nil).Maybe()

	sess, err := f.svc.Create(ctx)
	require.NoError(t, err)
	_, err = f.svc.LoadProtein(ctx, sess.ID, "site.pdb", readTestdata(t, "site.pdb"))
	require.NoError(t, err)
	_, err = f.svc.LoadLigands(ctx, sess.ID, "poses.sdf", readTestdata(t, "poses.sdf"))
	require.NoError(t, err)
	return sess.ID
}
