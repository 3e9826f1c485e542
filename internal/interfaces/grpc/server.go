// Package grpc serves the stateless DockView operations over gRPC.
package grpc

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"

	"github.com/turtacn/dockview/internal/config"
	"github.com/turtacn/dockview/internal/infrastructure/monitoring/logging"
)

const (
	// SDF payloads of a few thousand poses run to tens of megabytes.
	defaultMaxMsgSize      = 64 << 20
	defaultGracefulTimeout = 10 * time.Second
	// Calls without a client deadline get this one.
	defaultRequestTimeout = 2 * time.Minute
)

// RequestObserver receives one call per finished RPC.
type RequestObserver interface {
	RecordGRPCRequest(service, method, code string, d time.Duration)
}

// Option configures the Server.
type Option func(*serverOptions)

type serverOptions struct {
	logger          logging.Logger
	metrics         RequestObserver
	listener        net.Listener
	maxMsgSize      int
	gracefulTimeout time.Duration
	requestTimeout  time.Duration
}

func WithLogger(l logging.Logger) Option {
	return func(o *serverOptions) {
		o.logger = l
	}
}

// WithMetrics sets the per-RPC observer.
func WithMetrics(m RequestObserver) Option {
	return func(o *serverOptions) {
		o.metrics = m
	}
}

// WithListener serves on ln instead of binding cfg.Port. Tests pass a bufconn listener.
func WithListener(ln net.Listener) Option {
	return func(o *serverOptions) {
		o.listener = ln
	}
}

// WithRequestTimeout bounds calls that arrive without a deadline. Zero or
// negative values keep the default.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *serverOptions) {
		if d > 0 {
			o.requestTimeout = d
		}
	}
}

// Server wraps a grpc.Server with health reporting and graceful shutdown.
type Server struct {
	grpcServer *grpc.Server
	listener   net.Listener
	opts       *serverOptions
	health     *health.Server

	mu      sync.Mutex
	started bool
}

// NewServer binds the listener and registers the health service.
// Reflection is registered when cfg.Reflection is set.
func NewServer(cfg *config.GRPCConfig, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("grpc config must not be nil")
	}

	sopts := &serverOptions{
		maxMsgSize:      defaultMaxMsgSize,
		gracefulTimeout: defaultGracefulTimeout,
		requestTimeout:  defaultRequestTimeout,
	}
	if cfg.MaxRecvMsgSize > 0 {
		sopts.maxMsgSize = cfg.MaxRecvMsgSize
	}
	if cfg.GracefulTimeout > 0 {
		sopts.gracefulTimeout = cfg.GracefulTimeout
	}
	for _, o := range opts {
		o(sopts)
	}
	if sopts.logger == nil {
		sopts.logger = logging.NewNopLogger()
	}
	sopts.logger = sopts.logger.Named("grpc")

	lis := sopts.listener
	if lis == nil {
		addr := fmt.Sprintf(":%d", cfg.Port)
		var err error
		if lis, err = net.Listen("tcp", addr); err != nil {
			return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
		}
	}

	// Responses echo the extracted records, so the send limit follows the receive limit.
	gs := grpc.NewServer(
		grpc.MaxRecvMsgSize(sopts.maxMsgSize),
		grpc.MaxSendMsgSize(sopts.maxMsgSize),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle: 15 * time.Minute,
			Time:              5 * time.Minute,
			Timeout:           time.Second,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.ChainUnaryInterceptor(
			recoveryInterceptor(sopts.logger),
			observeInterceptor(sopts.logger, sopts.metrics),
			deadlineInterceptor(sopts.requestTimeout),
		),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)

	if cfg.Reflection {
		reflection.Register(gs)
		sopts.logger.Debug("grpc reflection enabled")
	}

	return &Server{
		grpcServer: gs,
		listener:   lis,
		opts:       sopts,
		health:     hs,
	}, nil
}

// RegisterService registers impl and reports it SERVING. Call before Start.
func (s *Server) RegisterService(desc *grpc.ServiceDesc, impl interface{}) {
	s.grpcServer.RegisterService(desc, impl)
	s.health.SetServingStatus(desc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	s.opts.logger.Info("grpc service registered", logging.String("service", desc.ServiceName))
}

// Start serves until Stop is called. The overall health status flips to
// SERVING here so probes do not pass before the listener accepts.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("grpc server already started")
	}
	s.started = true
	s.mu.Unlock()

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.opts.logger.Info("grpc server listening", logging.String("address", s.Addr()))
	return s.grpcServer.Serve(s.listener)
}

// Stop drains in-flight calls. A docking call that outlives the graceful
// timeout is cut off.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return s.listener.Close()
	}

	s.health.Shutdown()

	ctx, cancel := context.WithTimeout(ctx, s.opts.gracefulTimeout)
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		s.opts.logger.Info("grpc server stopped")
	case <-ctx.Done():
		s.opts.logger.Warn("grpc graceful stop timed out, forcing stop")
		s.grpcServer.Stop()
	}
	return nil
}

// Addr returns the listen address, which resolves port 0.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}
