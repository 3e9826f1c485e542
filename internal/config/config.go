// Package config defines the configuration structures for DockView. No I/O
// lives here, only plain data types and validation.
package config

import (
	"fmt"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// CORSOrigins lists browser origins allowed to call the API; "*" allows any.
	CORSOrigins []string `mapstructure:"cors_origins"`
	// DockingRateLimit bounds rescore and dock requests per client per second;
	// zero disables the limit.
	DockingRateLimit float64 `mapstructure:"docking_rate_limit"`
	DockingBurst     int     `mapstructure:"docking_burst"`
}

// GRPCConfig holds gRPC server tunables.
type GRPCConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Port            int           `mapstructure:"port"`
	MaxRecvMsgSize  int           `mapstructure:"max_recv_msg_size"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
	Reflection      bool          `mapstructure:"reflection"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level       string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format      string   `mapstructure:"format"` // "json" | "console"
	OutputPaths []string `mapstructure:"output_paths"`
}

// MolecularFilterConfig bounds which ligands are shown when filtering is on.
type MolecularFilterConfig struct {
	Enabled  bool    `mapstructure:"enabled"`
	MaxMW    float64 `mapstructure:"max_mw"`
	MaxLogP  float64 `mapstructure:"max_logp"`
	MinScore float64 `mapstructure:"min_score"`
	MaxScore float64 `mapstructure:"max_score"`
}

// LigandConfig controls SDF extraction.
type LigandConfig struct {
	// ScoreProperties is the ordered list of SD data keys tried for the score.
	ScoreProperties []string `mapstructure:"score_properties"`
	// SortOrder is "ascending" (lower is better) or "descending".
	SortOrder  string `mapstructure:"sort_order"`
	MaxLigands int    `mapstructure:"max_ligands"`

	Filters MolecularFilterConfig `mapstructure:"filters"`
}

// BindingSiteConfig is a docking box.
type BindingSiteConfig struct {
	Center []float64 `mapstructure:"center"`
	Size   []float64 `mapstructure:"size"`
}

// ProteinPresetConfig describes a known target.
type ProteinPresetConfig struct {
	Name        string            `mapstructure:"name"`
	Description string            `mapstructure:"description"`
	BindingSite BindingSiteConfig `mapstructure:"binding_site"`
	KeyResidues []int             `mapstructure:"key_residues"`
}

// ProteinConfig controls binding-site derivation.
type ProteinConfig struct {
	DefaultSite BindingSiteConfig `mapstructure:"default_site"`

	// DefaultResidueStart and DefaultResidueEnd bound the residue range
	// [start, end) used when no residues are given.
	DefaultResidueStart int     `mapstructure:"default_residue_start"`
	DefaultResidueEnd   int     `mapstructure:"default_residue_end"`
	SiteBuffer          float64 `mapstructure:"site_buffer"`

	Presets map[string]ProteinPresetConfig `mapstructure:"presets"`
}

// VinaConfig holds AutoDock Vina invocation parameters.
type VinaConfig struct {
	Executable      string        `mapstructure:"executable"`
	Exhaustiveness  int           `mapstructure:"exhaustiveness"`
	NumModes        int           `mapstructure:"num_modes"`
	EnergyRange     float64       `mapstructure:"energy_range"`
	EnvCheckTimeout time.Duration `mapstructure:"env_check_timeout"`
}

// OpenDockConfig holds the conda-hosted OpenDock invocation parameters.
type OpenDockConfig struct {
	CondaExecutable string `mapstructure:"conda_executable"`
	EnvName         string `mapstructure:"env_name"`
	Path            string `mapstructure:"path"`
	Python          string `mapstructure:"python"`
}

// DockingConfig controls external docking and scoring tools.
type DockingConfig struct {
	Timeout     time.Duration  `mapstructure:"timeout"`
	Parallelism int            `mapstructure:"parallelism"`
	WorkDir     string         `mapstructure:"work_dir"`
	KeepWorkDir bool           `mapstructure:"keep_work_dir"`
	Vina        VinaConfig     `mapstructure:"vina"`
	OpenDock    OpenDockConfig `mapstructure:"opendock"`
}

// ViewerConfig holds 3D viewer rendering parameters.
type ViewerConfig struct {
	Width             int     `mapstructure:"width"`
	Height            int     `mapstructure:"height"`
	ScriptURL         string  `mapstructure:"script_url"`
	ProteinColor      string  `mapstructure:"protein_color"`
	ProteinOpacity    float64 `mapstructure:"protein_opacity"`
	LigandColorScheme string  `mapstructure:"ligand_color_scheme"`
	StickRadius       float64 `mapstructure:"stick_radius"`
	SurfaceColor      string  `mapstructure:"surface_color"`
	SurfaceOpacity    float64 `mapstructure:"surface_opacity"`
	SurfaceResidues   []int   `mapstructure:"surface_residues"`
	EnableSpin        bool    `mapstructure:"enable_spin"`
}

// SessionConfig controls viewer session lifetime.
type SessionConfig struct {
	TTL     time.Duration `mapstructure:"ttl"`
	LockTTL time.Duration `mapstructure:"lock_ttl"`
}

// RedisConfig holds Redis connection parameters. An empty Addr keeps sessions
// in process memory.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// DatabaseConfig holds PostgreSQL connection parameters for run history.
type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// MinIOConfig holds object-storage parameters for the upload archive.
type MinIOConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`

	// RetentionDays expires archived uploads; 0 keeps them forever.
	RetentionDays int `mapstructure:"retention_days"`
}

// KafkaConfig holds Kafka producer/consumer parameters.
type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	GroupID      string        `mapstructure:"group_id"`
	BatchSize    int           `mapstructure:"batch_size"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`

	// MaxRetries applies to message handling. Docking tools themselves are
	// never re-invoked; a retry here only re-reads the session.
	MaxRetries int  `mapstructure:"max_retries"`
	EnableDLQ  bool `mapstructure:"enable_dlq"`
}

// WorkerConfig holds background-worker execution parameters.
type WorkerConfig struct {
	Concurrency    int           `mapstructure:"concurrency"`
	HandlerTimeout time.Duration `mapstructure:"handler_timeout"`
	HealthPort     int           `mapstructure:"health_port"`
}

// MetricsConfig holds Prometheus parameters.
type MetricsConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Namespace     string `mapstructure:"namespace"`
	GoMetrics     bool   `mapstructure:"go_metrics"`
	ProcessMetric bool   `mapstructure:"process_metrics"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	GRPC     GRPCConfig     `mapstructure:"grpc"`
	Log      LogConfig      `mapstructure:"log"`
	Ligand   LigandConfig   `mapstructure:"ligand"`
	Protein  ProteinConfig  `mapstructure:"protein"`
	Docking  DockingConfig  `mapstructure:"docking"`
	Viewer   ViewerConfig   `mapstructure:"viewer"`
	Session  SessionConfig  `mapstructure:"session"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of a defaulted Config and returns the
// first problem found.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	if c.Server.DockingRateLimit < 0 {
		return fmt.Errorf("config: server.docking_rate_limit must not be negative")
	}
	if c.GRPC.Enabled && (c.GRPC.Port < 1 || c.GRPC.Port > 65535) {
		return fmt.Errorf("config: grpc.port %d is out of range [1, 65535]", c.GRPC.Port)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	// Ligand
	switch c.Ligand.SortOrder {
	case SortAscending, SortDescending:
	default:
		return fmt.Errorf("config: ligand.sort_order %q is invalid; expected ascending|descending", c.Ligand.SortOrder)
	}
	if len(c.Ligand.ScoreProperties) == 0 {
		return fmt.Errorf("config: ligand.score_properties must not be empty")
	}
	if c.Ligand.MaxLigands < 0 {
		return fmt.Errorf("config: ligand.max_ligands must be >= 0, got %d", c.Ligand.MaxLigands)
	}
	if f := c.Ligand.Filters; f.Enabled && f.MinScore > f.MaxScore {
		return fmt.Errorf("config: ligand.filters.min_score %.2f exceeds max_score %.2f", f.MinScore, f.MaxScore)
	}

	// Protein
	if err := validateSite("protein.default_site", c.Protein.DefaultSite); err != nil {
		return err
	}
	if c.Protein.DefaultResidueEnd <= c.Protein.DefaultResidueStart {
		return fmt.Errorf("config: protein.default_residue_end %d must exceed default_residue_start %d",
			c.Protein.DefaultResidueEnd, c.Protein.DefaultResidueStart)
	}
	for id, p := range c.Protein.Presets {
		if err := validateSite("protein.presets."+id+".binding_site", p.BindingSite); err != nil {
			return err
		}
	}

	// Docking
	if c.Docking.Timeout <= 0 {
		return fmt.Errorf("config: docking.timeout must be positive")
	}
	if c.Docking.Parallelism < 1 {
		return fmt.Errorf("config: docking.parallelism must be >= 1, got %d", c.Docking.Parallelism)
	}
	if c.Docking.Vina.Executable == "" {
		return fmt.Errorf("config: docking.vina.executable is required")
	}
	if c.Docking.OpenDock.EnvName == "" {
		return fmt.Errorf("config: docking.opendock.env_name is required")
	}

	// Viewer
	if c.Viewer.Width <= 0 || c.Viewer.Height <= 0 {
		return fmt.Errorf("config: viewer.width and viewer.height must be positive")
	}
	if len(c.Viewer.SurfaceResidues) != 0 && len(c.Viewer.SurfaceResidues) != 2 {
		return fmt.Errorf("config: viewer.surface_residues must be [first, last]")
	}

	// Optional backends
	if c.Database.Enabled && c.Database.Host == "" {
		return fmt.Errorf("config: database.host is required when database is enabled")
	}
	if c.MinIO.Enabled && c.MinIO.Bucket == "" {
		return fmt.Errorf("config: minio.bucket is required when minio is enabled")
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
		}
		if c.Kafka.GroupID == "" {
			return fmt.Errorf("config: kafka.group_id is required")
		}
		if c.Kafka.MaxRetries < 0 {
			return fmt.Errorf("config: kafka.max_retries must be >= 0, got %d", c.Kafka.MaxRetries)
		}
	}
	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("config: worker.concurrency must be >= 1, got %d", c.Worker.Concurrency)
	}
	return nil
}

func validateSite(key string, s BindingSiteConfig) error {
	if len(s.Center) != 3 || len(s.Size) != 3 {
		return fmt.Errorf("config: %s needs 3 center and 3 size values", key)
	}
	for _, v := range s.Size {
		if v <= 0 {
			return fmt.Errorf("config: %s.size values must be positive", key)
		}
	}
	return nil
}
