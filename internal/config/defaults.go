// Package config provides configuration loading, defaults, and validation for
// DockView.
package config

import "time"

// Score orderings accepted by ligand.sort_order.
const (
	SortAscending  = "ascending"
	SortDescending = "descending"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerPort      = 8080
	DefaultGRPCPort        = 9090
	DefaultMaxBodySize     = 64 << 20
	DefaultShutdownTimeout = 30 * time.Second
	DefaultDockingBurst    = 4

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultSortOrder  = SortAscending
	DefaultMaxLigands = 1000

	DefaultFilterMaxMW    = 800
	DefaultFilterMaxLogP  = 5
	DefaultFilterMinScore = -15
	DefaultFilterMaxScore = 0

	DefaultResidueStart = 200
	DefaultResidueEnd   = 250
	DefaultSiteBuffer   = 10.0
	DefaultBoxEdge      = 20.0

	DefaultDockingTimeout     = 5 * time.Minute
	DefaultDockingParallelism = 4
	DefaultVinaExecutable     = "vina"
	DefaultVinaExhaustiveness = 8
	DefaultVinaNumModes       = 9
	DefaultVinaEnergyRange    = 3
	DefaultEnvCheckTimeout    = 10 * time.Second
	DefaultCondaExecutable    = "conda"
	DefaultOpenDockEnv        = "opendock"
	DefaultOpenDockPython     = "python"

	DefaultViewerWidth     = 900
	DefaultViewerHeight    = 700
	DefaultViewerScriptURL = "https://3Dmol.org/build/3Dmol-min.js"

	DefaultSessionTTL = 24 * time.Hour
	DefaultLockTTL    = 30 * time.Second

	DefaultRedisKeyPrefix = "dockview:"

	DefaultDBHost        = "localhost"
	DefaultDBPort        = 5432
	DefaultDBName        = "dockview"
	DefaultDBMaxConns    = 10
	DefaultMigrationPath = "migrations"

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "dockview-uploads"

	DefaultKafkaBroker  = "localhost:9092"
	DefaultKafkaGroupID = "dockview-worker"

	DefaultWorkerConcurrency = 2
	DefaultHandlerTimeout    = 30 * time.Minute
	DefaultWorkerHealthPort  = 8081

	DefaultMetricsNamespace = "dockview"
)

// DefaultScoreProperties is the ordered list of SD keys tried for a score.
var DefaultScoreProperties = []string{"docking_score", "score", "vina_score", "affinity", "binding_energy"}

// DefaultPresets returns the built-in protein presets.
func DefaultPresets() map[string]ProteinPresetConfig {
	return map[string]ProteinPresetConfig{
		"5n9r": {
			Name:        "USP7 Ubiquitin-specific peptidase 7",
			Description: "Deubiquitinating enzyme, drug target",
			BindingSite: BindingSiteConfig{
				Center: []float64{18.5, 5.2, -7.8},
				Size:   []float64{25, 25, 25},
			},
			KeyResidues: []int{219, 262, 275, 276, 277, 278},
		},
	}
}

// Default returns a Config with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-value fields in cfg with the defaults. Explicit
// values are left unchanged. Booleans cannot be distinguished from "unset" and
// keep their zero value.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultDockingTimeout + 30*time.Second
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = DefaultMaxBodySize
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.DockingRateLimit > 0 && cfg.Server.DockingBurst == 0 {
		cfg.Server.DockingBurst = DefaultDockingBurst
	}
	if cfg.GRPC.Port == 0 {
		cfg.GRPC.Port = DefaultGRPCPort
	}
	if cfg.GRPC.GracefulTimeout == 0 {
		cfg.GRPC.GracefulTimeout = 10 * time.Second
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// ── Ligand ────────────────────────────────────────────────────────────────
	if len(cfg.Ligand.ScoreProperties) == 0 {
		cfg.Ligand.ScoreProperties = append([]string(nil), DefaultScoreProperties...)
	}
	if cfg.Ligand.SortOrder == "" {
		cfg.Ligand.SortOrder = DefaultSortOrder
	}
	if cfg.Ligand.MaxLigands == 0 {
		cfg.Ligand.MaxLigands = DefaultMaxLigands
	}
	f := &cfg.Ligand.Filters
	if f.MaxMW == 0 {
		f.MaxMW = DefaultFilterMaxMW
	}
	if f.MaxLogP == 0 {
		f.MaxLogP = DefaultFilterMaxLogP
	}
	if f.MinScore == 0 && f.MaxScore == 0 {
		f.MinScore = DefaultFilterMinScore
		f.MaxScore = DefaultFilterMaxScore
	}

	// ── Protein ───────────────────────────────────────────────────────────────
	if len(cfg.Protein.DefaultSite.Center) == 0 {
		cfg.Protein.DefaultSite.Center = []float64{0, 0, 0}
	}
	if len(cfg.Protein.DefaultSite.Size) == 0 {
		cfg.Protein.DefaultSite.Size = []float64{DefaultBoxEdge, DefaultBoxEdge, DefaultBoxEdge}
	}
	if cfg.Protein.DefaultResidueStart == 0 && cfg.Protein.DefaultResidueEnd == 0 {
		cfg.Protein.DefaultResidueStart = DefaultResidueStart
		cfg.Protein.DefaultResidueEnd = DefaultResidueEnd
	}
	if cfg.Protein.SiteBuffer == 0 {
		cfg.Protein.SiteBuffer = DefaultSiteBuffer
	}
	if cfg.Protein.Presets == nil {
		cfg.Protein.Presets = DefaultPresets()
	}

	// ── Docking ───────────────────────────────────────────────────────────────
	if cfg.Docking.Timeout == 0 {
		cfg.Docking.Timeout = DefaultDockingTimeout
	}
	if cfg.Docking.Parallelism == 0 {
		cfg.Docking.Parallelism = DefaultDockingParallelism
	}
	v := &cfg.Docking.Vina
	if v.Executable == "" {
		v.Executable = DefaultVinaExecutable
	}
	if v.Exhaustiveness == 0 {
		v.Exhaustiveness = DefaultVinaExhaustiveness
	}
	if v.NumModes == 0 {
		v.NumModes = DefaultVinaNumModes
	}
	if v.EnergyRange == 0 {
		v.EnergyRange = DefaultVinaEnergyRange
	}
	if v.EnvCheckTimeout == 0 {
		v.EnvCheckTimeout = DefaultEnvCheckTimeout
	}
	od := &cfg.Docking.OpenDock
	if od.CondaExecutable == "" {
		od.CondaExecutable = DefaultCondaExecutable
	}
	if od.EnvName == "" {
		od.EnvName = DefaultOpenDockEnv
	}
	if od.Python == "" {
		od.Python = DefaultOpenDockPython
	}

	// ── Viewer ────────────────────────────────────────────────────────────────
	vw := &cfg.Viewer
	if vw.Width == 0 {
		vw.Width = DefaultViewerWidth
	}
	if vw.Height == 0 {
		vw.Height = DefaultViewerHeight
	}
	if vw.ScriptURL == "" {
		vw.ScriptURL = DefaultViewerScriptURL
	}
	if vw.ProteinColor == "" {
		vw.ProteinColor = "lightblue"
	}
	if vw.ProteinOpacity == 0 {
		vw.ProteinOpacity = 0.8
	}
	if vw.LigandColorScheme == "" {
		vw.LigandColorScheme = "default"
	}
	if vw.StickRadius == 0 {
		vw.StickRadius = 0.2
	}
	if vw.SurfaceColor == "" {
		vw.SurfaceColor = "white"
	}
	if vw.SurfaceOpacity == 0 {
		vw.SurfaceOpacity = 0.3
	}
	if vw.SurfaceResidues == nil {
		vw.SurfaceResidues = []int{DefaultResidueStart, DefaultResidueEnd}
	}

	// ── Session ───────────────────────────────────────────────────────────────
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = DefaultSessionTTL
	}
	if cfg.Session.LockTTL == 0 {
		cfg.Session.LockTTL = DefaultLockTTL
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = 10
	}
	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = 5 * time.Second
	}

	// ── Database ──────────────────────────────────────────────────────────────
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MigrationPath == "" {
		cfg.Database.MigrationPath = DefaultMigrationPath
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.BatchSize == 0 {
		cfg.Kafka.BatchSize = 100
	}
	if cfg.Kafka.BatchTimeout == 0 {
		cfg.Kafka.BatchTimeout = time.Second
	}

	// ── Worker ────────────────────────────────────────────────────────────────
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
	if cfg.Worker.HandlerTimeout == 0 {
		cfg.Worker.HandlerTimeout = DefaultHandlerTimeout
	}
	if cfg.Worker.HealthPort == 0 {
		cfg.Worker.HealthPort = DefaultWorkerHealthPort
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
}
