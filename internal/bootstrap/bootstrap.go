// Package bootstrap assembles the viewer service and the infrastructure it
// needs from a loaded configuration. Optional backends stay nil when their
// section is disabled.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/turtacn/dockview/internal/application/viewer"
	"github.com/turtacn/dockview/internal/config"
	"github.com/turtacn/dockview/internal/domain/session"
	"github.com/turtacn/dockview/internal/infrastructure/database/memory"
	"github.com/turtacn/dockview/internal/infrastructure/database/postgres"
	"github.com/turtacn/dockview/internal/infrastructure/database/redis"
	dockrun "github.com/turtacn/dockview/internal/infrastructure/docking"
	"github.com/turtacn/dockview/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/dockview/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/dockview/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/dockview/internal/infrastructure/storage/minio"
)

// Components holds everything a dockview process runs on.
type Components struct {
	Config *config.Config
	Logger logging.Logger

	Collector prometheus.MetricsCollector
	Metrics   *prometheus.AppMetrics

	Redis    *redis.Client
	Postgres *postgres.Connection
	MinIO    *minio.Client
	Producer *kafka.Producer

	Engines Engines
	Viewer  *viewer.Service

	closers []func() error
}

// Engines are the subprocess-backed docking tools.
type Engines struct {
	Vina        *dockrun.VinaEngine
	OpenDock    *dockrun.OpenDockEngine
	Environment *dockrun.EnvironmentChecker
}

// NewLogger builds the process logger from the log section.
func NewLogger(cfg config.LogConfig) (logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewLogger(logging.LogConfig{
		Level:       level,
		Format:      cfg.Format,
		OutputPaths: cfg.OutputPaths,
	})
}

// NewEngines maps the docking section onto the Vina and OpenDock runners.
func NewEngines(cfg config.DockingConfig, logger logging.Logger) Engines {
	rc := dockrun.RunnerConfig{Timeout: cfg.Timeout, WorkDir: cfg.WorkDir, KeepWorkDir: cfg.KeepWorkDir}
	vinaCfg := dockrun.VinaConfig{
		Executable:     cfg.Vina.Executable,
		Exhaustiveness: cfg.Vina.Exhaustiveness,
		NumModes:       cfg.Vina.NumModes,
		EnergyRange:    cfg.Vina.EnergyRange,
	}
	odCfg := dockrun.OpenDockConfig{
		CondaExecutable: cfg.OpenDock.CondaExecutable,
		EnvName:         cfg.OpenDock.EnvName,
		Path:            cfg.OpenDock.Path,
		Python:          cfg.OpenDock.Python,
	}
	return Engines{
		Vina:        dockrun.NewVinaEngine(vinaCfg, rc, logger),
		OpenDock:    dockrun.NewOpenDockEngine(odCfg, rc, logger),
		Environment: dockrun.NewEnvironmentChecker(vinaCfg, odCfg, cfg.Vina.EnvCheckTimeout, logger),
	}
}

// Build connects every enabled backend and constructs the viewer service.
// source names the process in published job events. On error, everything
// opened so far is closed.
func Build(cfg *config.Config, logger logging.Logger, source string) (c *Components, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config must not be nil")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	c = &Components{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			_ = c.Close()
			c = nil
		}
	}()

	if cfg.Metrics.Enabled {
		c.Collector, err = prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			EnableGoMetrics:      cfg.Metrics.GoMetrics,
			EnableProcessMetrics: cfg.Metrics.ProcessMetric,
		}, logger)
		if err != nil {
			return c, fmt.Errorf("bootstrap: metrics: %w", err)
		}
		c.Metrics = prometheus.NewAppMetrics(c.Collector)
	}

	sessions, err := c.sessionStore()
	if err != nil {
		return c, err
	}

	deps := viewer.Deps{
		Sessions: sessions,
		Batch:    dockrun.BatchRescore,
		Logger:   logger,
	}
	c.Engines = NewEngines(cfg.Docking, logger)
	deps.Vina = c.Engines.Vina
	deps.OpenDock = c.Engines.OpenDock
	deps.Environment = c.Engines.Environment
	if c.Metrics != nil {
		deps.Metrics = c.Metrics
	}

	if cfg.MinIO.Enabled {
		if c.MinIO, err = minio.NewClient(&minio.Config{
			Endpoint:      cfg.MinIO.Endpoint,
			AccessKey:     cfg.MinIO.AccessKey,
			SecretKey:     cfg.MinIO.SecretKey,
			UseSSL:        cfg.MinIO.UseSSL,
			Region:        cfg.MinIO.Region,
			Bucket:        cfg.MinIO.Bucket,
			RetentionDays: cfg.MinIO.RetentionDays,
		}, logger); err != nil {
			return c, fmt.Errorf("bootstrap: minio: %w", err)
		}
		c.closers = append(c.closers, c.MinIO.Close)
		deps.Archive = minio.NewArchive(c.MinIO, logger)
	}

	if cfg.Database.Enabled {
		if c.Postgres, err = postgres.NewConnection(postgres.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			Database:        cfg.Database.DBName,
			Username:        cfg.Database.User,
			Password:        cfg.Database.Password,
			SSLMode:         cfg.Database.SSLMode,
			MaxOpenConns:    cfg.Database.MaxConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		}, logger); err != nil {
			return c, fmt.Errorf("bootstrap: postgres: %w", err)
		}
		c.closers = append(c.closers, c.Postgres.Close)
		if err = postgres.NewMigrator(c.Postgres, cfg.Database.MigrationPath).Up(); err != nil {
			return c, fmt.Errorf("bootstrap: migrate: %w", err)
		}
		deps.Runs = postgres.NewRunRepository(c.Postgres, logger)
	}

	if cfg.Kafka.Enabled {
		if c.Producer, err = kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			Acks:         "all",
			MaxRetries:   3,
			BatchSize:    cfg.Kafka.BatchSize,
			BatchTimeout: cfg.Kafka.BatchTimeout,
		}, logger); err != nil {
			return c, fmt.Errorf("bootstrap: kafka producer: %w", err)
		}
		c.closers = append(c.closers, c.Producer.Close)
		deps.Jobs = kafka.NewJobPublisher(c.Producer, source)
	}

	opts, err := viewer.OptionsFromConfig(cfg)
	if err != nil {
		return c, err
	}
	if c.Viewer, err = viewer.NewService(deps, opts); err != nil {
		return c, err
	}

	logger.Info("components ready",
		logging.Bool("redis", c.Redis != nil),
		logging.Bool("postgres", c.Postgres != nil),
		logging.Bool("minio", c.MinIO != nil),
		logging.Bool("kafka", c.Producer != nil),
		logging.Bool("metrics", c.Metrics != nil))
	return c, nil
}

func (c *Components) sessionStore() (session.Repository, error) {
	cfg := c.Config
	if cfg.Redis.Addr == "" {
		return memory.NewSessionStore(cfg.Session.TTL), nil
	}

	client, err := redis.NewClient(&redis.Config{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		KeyPrefix:    cfg.Redis.KeyPrefix,
	}, c.Logger)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: redis: %w", err)
	}
	c.Redis = client
	c.closers = append(c.closers, client.Close)

	opts := []redis.StoreOption{
		redis.WithTTL(cfg.Session.TTL),
		redis.WithSessionLockTTL(cfg.Session.LockTTL),
	}
	if c.Metrics != nil {
		opts = append(opts, redis.WithLookupObserver(c.Metrics.RecordCacheLookup))
	}
	return redis.NewSessionStore(client, c.Logger, opts...), nil
}

// Probe is a named backend health check.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// Probes lists one check per connected backend.
func (c *Components) Probes() []Probe {
	var probes []Probe
	if c.Redis != nil {
		probes = append(probes, Probe{Name: "redis", Check: c.Redis.Ping})
	}
	if c.Postgres != nil {
		probes = append(probes, Probe{Name: "postgres", Check: c.Postgres.HealthCheck})
	}
	if c.MinIO != nil {
		probes = append(probes, Probe{Name: "minio", Check: c.MinIO.HealthCheck})
	}
	return probes
}

// Close releases backends in reverse order of opening.
func (c *Components) Close() error {
	var err error
	for i := len(c.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, c.closers[i]())
	}
	c.closers = nil
	return err
}
