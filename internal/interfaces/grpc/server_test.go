package grpc

import (
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"github.com/turtacn/dockview/internal/config"
	"github.com/turtacn/dockview/internal/domain/docking"
	"github.com/turtacn/dockview/internal/domain/ligand"
	"github.com/turtacn/dockview/internal/domain/protein"
	"github.com/turtacn/dockview/internal/interfaces/grpc/services"
)

type metricsRecord struct {
	service, method, code string
}

type recordingMetrics struct {
	mu      sync.Mutex
	records []metricsRecord
}

func (m *recordingMetrics) RecordGRPCRequest(service, method, code string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, metricsRecord{service: service, method: method, code: code})
}

func (m *recordingMetrics) snapshot() []metricsRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]metricsRecord(nil), m.records...)
}

type fakeApp struct{}

func (fakeApp) Extract(text string, order ligand.ScoreOrder) ligand.Extraction {
	return ligand.Extraction{
		Blocks:  1,
		Records: []ligand.Record{{Index: 0, Name: strings.TrimSpace(text), Score: -7.1}},
	}
}

func (fakeApp) Environment(context.Context) docking.EnvironmentStatus {
	return docking.EnvironmentStatus{docking.StatusVina: true}
}

func (fakeApp) Presets() []protein.Preset { return nil }

// startBufServer serves the ligand service on an in-memory listener.
func startBufServer(t *testing.T, opts ...Option) (*Server, *grpc.ClientConn) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv, err := NewServer(&config.GRPCConfig{}, append(opts, WithListener(lis))...)
	require.NoError(t, err)
	srv.RegisterService(&services.LigandServiceDesc, services.NewLigandService(fakeApp{}, nil))

	go func() { _ = srv.Start() }()
	t.Cleanup(func() { _ = srv.Stop(context.Background()) })

	conn, err := grpc.DialContext(context.Background(), "bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return srv, conn
}

func TestNewServer_NilConfig(t *testing.T) {
	_, err := NewServer(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config must not be nil")
}

func TestNewServer_ConfigOverridesDefaults(t *testing.T) {
	cfg := &config.GRPCConfig{MaxRecvMsgSize: 1 << 20, GracefulTimeout: 3 * time.Second}
	srv, err := NewServer(cfg, WithListener(bufconn.Listen(1024)), WithRequestTimeout(-1))
	require.NoError(t, err)
	defer srv.Stop(context.Background())

	assert.Equal(t, 1<<20, srv.opts.maxMsgSize)
	assert.Equal(t, 3*time.Second, srv.opts.gracefulTimeout)
	assert.Equal(t, defaultRequestTimeout, srv.opts.requestTimeout)
}

func TestNewServer_BindsPort(t *testing.T) {
	srv, err := NewServer(&config.GRPCConfig{Port: 0})
	require.NoError(t, err)
	defer srv.Stop(context.Background())

	_, port, err := net.SplitHostPort(srv.Addr())
	require.NoError(t, err)
	assert.NotEqual(t, "0", port)
}

func TestServer_ExtractAndMetrics(t *testing.T) {
	metrics := &recordingMetrics{}
	_, conn := startBufServer(t, WithMetrics(metrics))
	client := services.NewLigandServiceClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out, err := client.Extract(ctx, "ZINC000001", "")
	require.NoError(t, err)
	assert.Equal(t, float64(1), out.AsMap()["count"])

	records := metrics.snapshot()
	require.Len(t, records, 1)
	assert.Equal(t, metricsRecord{service: services.LigandServiceName, method: "Extract", code: "OK"}, records[0])
}

func TestServer_HealthServing(t *testing.T) {
	_, conn := startBufServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: services.LigandServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestServer_DoubleStart(t *testing.T) {
	srv, conn := startBufServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := services.NewLigandServiceClient(conn).Presets(ctx)
	require.NoError(t, err)

	err = srv.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already started")
}

func TestServer_StopReportsNotServing(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	srv, err := NewServer(&config.GRPCConfig{}, WithListener(lis))
	require.NoError(t, err)
	go func() { _ = srv.Start() }()

	conn, err := grpc.DialContext(context.Background(), "bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{}, grpc.WaitForReady(true))
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	require.NoError(t, srv.Stop(context.Background()))
	resp, err = srv.health.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}

func TestServer_StopBeforeStart(t *testing.T) {
	srv, err := NewServer(&config.GRPCConfig{}, WithListener(bufconn.Listen(1024)))
	require.NoError(t, err)
	assert.NoError(t, srv.Stop(context.Background()))
}

