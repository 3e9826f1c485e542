// Background worker entry point for DockView. It consumes queued rescore jobs
// from Kafka, runs them against the shared Redis session store and publishes
// the completion events.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/turtacn/dockview/internal/bootstrap"
	"github.com/turtacn/dockview/internal/config"
	"github.com/turtacn/dockview/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/dockview/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/dockview/internal/interfaces/http"
	"github.com/turtacn/dockview/internal/interfaces/http/handlers"
)

var version = "dev"

const (
	defaultWorkerConfigPath = "configs/config.yaml"
	retryBackoff            = time.Second
	healthShutdownTimeout   = 5 * time.Second
)

func main() {
	configPath := flag.String("config", defaultWorkerConfigPath, "path to configuration file")
	workerCount := flag.Int("workers", 0, "parallel docking runs per job (overrides worker.concurrency)")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *workerCount > 0 {
		cfg.Worker.Concurrency = *workerCount
	}

	logger, err := bootstrap.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("worker exited with error", logging.Err(err))
		os.Exit(1)
	}
}

// checkWorkerConfig rejects configurations a worker cannot run with.
func checkWorkerConfig(cfg *config.Config) error {
	if cfg.Redis.Addr == "" {
		return fmt.Errorf("worker: redis.addr is required, jobs reference sessions held by the API server")
	}
	if !cfg.Kafka.Enabled || len(cfg.Kafka.Brokers) == 0 {
		return fmt.Errorf("worker: kafka must be enabled with at least one broker")
	}
	return nil
}

func run(cfg *config.Config, logger logging.Logger) error {
	if err := checkWorkerConfig(cfg); err != nil {
		return err
	}
	logger.Info("starting DockView worker",
		logging.String("version", version),
		logging.Int("concurrency", cfg.Worker.Concurrency),
		logging.Strings("brokers", cfg.Kafka.Brokers))

	comps, err := bootstrap.Build(cfg, logger, "dockview-worker")
	if err != nil {
		return err
	}
	defer func() {
		if err := comps.Close(); err != nil {
			logger.Error("failed to close components", logging.Err(err))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ensureTopics(ctx, cfg, logger)

	consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers:      cfg.Kafka.Brokers,
		GroupID:      cfg.Kafka.GroupID,
		Topics:       []string{kafka.TopicRescoreRequested},
		MaxRetries:   cfg.Kafka.MaxRetries,
		RetryBackoff: retryBackoff,
		EnableDLQ:    cfg.Kafka.EnableDLQ,
	}, comps.Producer, logger)
	if err != nil {
		return err
	}
	defer consumer.Close()

	h := &rescoreHandler{
		runner:      comps.Viewer,
		timeout:     cfg.Worker.HandlerTimeout,
		parallelism: cfg.Worker.Concurrency,
		logger:      logger.Named("rescore"),
	}
	if comps.Metrics != nil {
		h.metrics = comps.Metrics
	}
	consumer.Subscribe(kafka.TopicRescoreRequested, h.handle)

	healthSrv := newHealthServer(comps, logger)
	go func() {
		if err := healthSrv.Start(); err != nil {
			logger.Error("health server error", logging.Err(err))
		}
	}()

	if err := consumer.Start(ctx); err != nil {
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("received shutdown signal", logging.String("signal", sig.String()))

	// Close waits for the message in flight.
	cancel()
	if err := consumer.Close(); err != nil {
		logger.Error("consumer close error", logging.Err(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), healthShutdownTimeout)
	defer shutdownCancel()
	if err := healthSrv.Stop(shutdownCtx); err != nil {
		logger.Error("health server shutdown error", logging.Err(err))
	}

	logger.Info("DockView worker stopped")
	return nil
}

// ensureTopics creates the job topics. Failure is logged, not fatal, since
// brokers may disallow topic creation.
func ensureTopics(ctx context.Context, cfg *config.Config, logger logging.Logger) {
	tm, err := kafka.NewTopicManager(cfg.Kafka.Brokers, logger)
	if err != nil {
		logger.Warn("topic manager unavailable", logging.Err(err))
		return
	}
	defer tm.Close()
	if err := tm.EnsureTopics(ctx, kafka.DefaultTopics()); err != nil {
		logger.Warn("failed to ensure topics", logging.Err(err))
	}
}

// newHealthServer serves /healthz, /readyz and /metrics on the worker health port.
func newHealthServer(comps *bootstrap.Components, logger logging.Logger) *httpserver.Server {
	probes := comps.Probes()
	checks := make([]handlers.HealthChecker, 0, len(probes))
	for _, p := range probes {
		checks = append(checks, handlers.NewCheck(p.Name, p.Check))
	}

	router := httpserver.NewRouter(httpserver.RouterConfig{
		HealthHandler:    handlers.NewHealthHandler(version, checks...),
		Logger:           logger,
		MetricsCollector: comps.Collector,
	})
	return httpserver.NewServer(config.ServerConfig{
		Port:            comps.Config.Worker.HealthPort,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: healthShutdownTimeout,
	}, router, logger)
}
