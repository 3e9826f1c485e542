// API server entry point for DockView.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/turtacn/dockview/internal/bootstrap"
	"github.com/turtacn/dockview/internal/config"
	"github.com/turtacn/dockview/internal/infrastructure/monitoring/logging"
	grpcserver "github.com/turtacn/dockview/internal/interfaces/grpc"
	"github.com/turtacn/dockview/internal/interfaces/grpc/services"
	httpserver "github.com/turtacn/dockview/internal/interfaces/http"
	"github.com/turtacn/dockview/internal/interfaces/http/handlers"
	"github.com/turtacn/dockview/internal/interfaces/http/middleware"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	gitCommit = "unknown"
)

const (
	defaultConfigPath = "configs/config.yaml"
	rateLimitIdle     = 10 * time.Minute
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	httpPort := flag.Int("http-port", 0, "HTTP server port (overrides config)")
	grpcPort := flag.Int("grpc-port", 0, "gRPC server port (overrides config)")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *httpPort > 0 {
		cfg.Server.Port = *httpPort
	}
	if *grpcPort > 0 {
		cfg.GRPC.Port = *grpcPort
	}

	logger, err := bootstrap.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("api server exited with error", logging.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger logging.Logger) error {
	logger.Info("starting DockView API server",
		logging.String("version", version),
		logging.String("commit", gitCommit),
		logging.Int("http_port", cfg.Server.Port),
		logging.Bool("grpc", cfg.GRPC.Enabled))

	comps, err := bootstrap.Build(cfg, logger, "dockview-apiserver")
	if err != nil {
		return err
	}
	defer func() {
		if err := comps.Close(); err != nil {
			logger.Error("failed to close components", logging.Err(err))
		}
	}()

	httpSrv := httpserver.NewServer(cfg.Server, newRouter(comps), logger)

	var grpcSrv *grpcserver.Server
	if cfg.GRPC.Enabled {
		opts := []grpcserver.Option{grpcserver.WithLogger(logger)}
		if comps.Metrics != nil {
			opts = append(opts, grpcserver.WithMetrics(comps.Metrics))
		}
		if grpcSrv, err = grpcserver.NewServer(&cfg.GRPC, opts...); err != nil {
			return err
		}
		grpcSrv.RegisterService(&services.LigandServiceDesc, services.NewLigandService(comps.Viewer, logger))
	}

	errCh := make(chan error, 2)
	go func() { errCh <- httpSrv.Start() }()
	if grpcSrv != nil {
		go func() { errCh <- grpcSrv.Start() }()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", logging.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", logging.Err(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout+cfg.GRPC.GracefulTimeout)
	defer cancel()
	if err := httpSrv.Stop(ctx); err != nil {
		logger.Error("HTTP server shutdown error", logging.Err(err))
	}
	if grpcSrv != nil {
		if err := grpcSrv.Stop(ctx); err != nil {
			logger.Error("gRPC server shutdown error", logging.Err(err))
		}
	}

	logger.Info("servers stopped")
	return nil
}

func newRouter(comps *bootstrap.Components) http.Handler {
	cfg := comps.Config
	maxUpload := cfg.Server.MaxBodySize

	routerCfg := httpserver.RouterConfig{
		SessionHandler:   handlers.NewSessionHandler(comps.Viewer, comps.Logger, maxUpload),
		LigandHandler:    handlers.NewLigandHandler(comps.Viewer, maxUpload),
		HealthHandler:    handlers.NewHealthHandler(version, healthCheckers(comps)...),
		Logger:           comps.Logger,
		MetricsCollector: comps.Collector,
	}
	if comps.Metrics != nil {
		routerCfg.Metrics = comps.Metrics
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		cors := middleware.DefaultCORSConfig()
		cors.AllowedOrigins = cfg.Server.CORSOrigins
		routerCfg.CORS = &cors
	}
	if cfg.Server.DockingRateLimit > 0 {
		routerCfg.DockingLimiter = middleware.NewTokenBucketLimiter(cfg.Server.DockingRateLimit, cfg.Server.DockingBurst, rateLimitIdle)
	}
	return httpserver.NewRouter(routerCfg)
}
