// Package cli implements the dockview command-line tool. Commands run the
// viewer service in process against an in-memory session store.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/turtacn/dockview/internal/application/viewer"
	"github.com/turtacn/dockview/internal/bootstrap"
	"github.com/turtacn/dockview/internal/config"
	"github.com/turtacn/dockview/internal/domain/docking"
	"github.com/turtacn/dockview/internal/domain/ligand"
	"github.com/turtacn/dockview/internal/domain/protein"
	"github.com/turtacn/dockview/internal/domain/session"
	"github.com/turtacn/dockview/internal/infrastructure/database/memory"
	dockrun "github.com/turtacn/dockview/internal/infrastructure/docking"
	"github.com/turtacn/dockview/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/dockview/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Output formats accepted by --output.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

type cliContextKey struct{}

// Viewer is the part of the viewer service the commands drive.
type Viewer interface {
	Extract(text string, order ligand.ScoreOrder) ligand.Extraction
	Create(ctx context.Context) (*session.Session, error)
	LoadProtein(ctx context.Context, id, name, text string) (*viewer.ProteinInfo, error)
	LoadLigands(ctx context.Context, id, name, text string) (*viewer.LoadResult, error)
	SetBindingSite(ctx context.Context, id string, req viewer.SiteRequest) (protein.BindingSite, error)
	Rescore(ctx context.Context, id string, position int) (*viewer.RescoreResult, error)
	RescoreAll(ctx context.Context, id string) (*viewer.BatchResult, error)
	Environment(ctx context.Context) docking.EnvironmentStatus
}

// ViewerFactory builds the Viewer used by a command.
type ViewerFactory func(cfg *config.Config, logger logging.Logger) (Viewer, error)

// RootOptions holds the global flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
	Verbose      bool
	NoColor      bool
	Timeout      time.Duration
}

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Config       *config.Config
	Logger       logging.Logger
	OutputFormat string
	Timeout      time.Duration

	factory ViewerFactory
}

// Viewer builds a viewer from the current configuration. Commands adjust
// Config before calling it.
func (c *CLIContext) Viewer() (Viewer, error) {
	return c.factory(c.Config, c.Logger)
}

// NewRootCommand creates the root command using the local viewer wiring.
func NewRootCommand() *cobra.Command {
	return newRootCommand(NewLocalViewer)
}

func newRootCommand(factory ViewerFactory) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "dockview",
		Short: "Inspect docking results: extract poses, derive binding sites, rescore with Vina",
		Long: "dockview reads SDF pose files and PDB proteins, ranks ligands by docking score,\n" +
			"derives binding-site boxes and rescores poses with AutoDock Vina.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts, factory)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./dockview.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", FormatTable, "output format (table, json)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable debug logging")
	pf.BoolVar(&opts.NoColor, "no-color", false, "disable colored output")
	pf.DurationVar(&opts.Timeout, "timeout", 0, "overall timeout (default: docking.timeout per run)")

	cmd.AddCommand(
		newExtractCmd(),
		newSiteCmd(),
		newRescoreCmd(),
		newEnvCmd(),
		newVersionCmd(),
	)
	return cmd
}

func persistentPreRun(cmd *cobra.Command, opts *RootOptions, factory ViewerFactory) error {
	switch strings.ToLower(opts.OutputFormat) {
	case FormatTable, FormatJSON:
	default:
		return errors.InvalidParam(fmt.Sprintf("unsupported output format %q", opts.OutputFormat))
	}
	if opts.NoColor {
		color.NoColor = true
	}

	cfg, err := initConfig(opts)
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}
	logger, err := initLogger(opts)
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}

	cliCtx := &CLIContext{
		Config:       cfg,
		Logger:       logger,
		OutputFormat: strings.ToLower(opts.OutputFormat),
		Timeout:      opts.Timeout,
		factory:      factory,
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, cliContextKey{}, cliCtx))
	return nil
}

// initConfig loads --config, else the first file found on the search path,
// else environment overrides on top of defaults.
func initConfig(opts *RootOptions) (*config.Config, error) {
	if opts.ConfigPath != "" {
		return config.Load(opts.ConfigPath)
	}

	searchPaths := []string{"./dockview.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(home, ".dockview", "config.yaml"))
	}
	for _, p := range searchPaths {
		if _, err := os.Stat(p); err == nil {
			return config.Load(p)
		}
	}
	return config.LoadFromEnv()
}

// initLogger writes console logs to stderr so stdout stays parseable.
func initLogger(opts *RootOptions) (logging.Logger, error) {
	level, err := logging.ParseLevel(opts.LogLevel)
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		level = logging.LevelDebug
	}
	return logging.NewLogger(logging.LogConfig{
		Level:            level,
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
}

// GetCLIContext extracts the CLIContext stored by the root command.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.InvalidParam("command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.InvalidParam("CLIContext not found in command context")
	}
	return cliCtx, nil
}

// commandContext applies --timeout to the command context.
func commandContext(cmd *cobra.Command, cliCtx *CLIContext) (context.Context, context.CancelFunc) {
	if cliCtx.Timeout > 0 {
		return context.WithTimeout(cmd.Context(), cliCtx.Timeout)
	}
	return context.WithCancel(cmd.Context())
}

// NewLocalViewer wires a viewer service with an in-memory session store and
// the subprocess docking engines.
func NewLocalViewer(cfg *config.Config, logger logging.Logger) (Viewer, error) {
	opts, err := viewer.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	engines := bootstrap.NewEngines(cfg.Docking, logger)
	return viewer.NewService(viewer.Deps{
		Sessions:    memory.NewSessionStore(cfg.Session.TTL),
		Vina:        engines.Vina,
		OpenDock:    engines.OpenDock,
		Environment: engines.Environment,
		Batch:       dockrun.BatchRescore,
		Logger:      logger,
	}, opts)
}

// Execute runs the root command and prints any error to stderr.
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		PrintError(rootCmd, err)
		return err
	}
	return nil
}

func printJSON(cmd *cobra.Command, data interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// PrintError writes err to stderr, showing the code of application errors.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", color.RedString("Error [%s]:", appErr.Code), appErr.Message)
		if appErr.Detail != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", appErr.Detail)
		}
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", color.RedString("Error:"), err.Error())
}

func readInput(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeBadRequest, "cannot read input file").WithDetail(path)
	}
	return string(b), nil
}

// scoreString colors a score green when it is in the favorable range.
func scoreString(score float64) string {
	s := fmt.Sprintf("%.2f", score)
	switch {
	case score <= -9:
		return color.GreenString(s)
	case score <= -7:
		return color.YellowString(s)
	default:
		return s
	}
}

func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
