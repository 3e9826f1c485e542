package cli

import (
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/turtacn/dockview/internal/domain/docking"
)

// EnvReport is the result of the env command.
type EnvReport struct {
	Tools docking.EnvironmentStatus `json:"tools"`
	Ready bool                      `json:"ready"`
}

func newEnvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Check that the docking tools are installed",
		Args:  cobra.NoArgs,
		RunE:  runEnv,
	}
}

func runEnv(cmd *cobra.Command, _ []string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	v, err := cliCtx.Viewer()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd, cliCtx)
	defer cancel()

	st := v.Environment(ctx)
	report := EnvReport{Tools: st, Ready: st.Ready(docking.StatusVina)}
	if cliCtx.OutputFormat == FormatJSON {
		return printJSON(cmd, report)
	}

	names := make([]string, 0, len(st))
	for name := range st {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf strings.Builder
	table := tablewriter.NewWriter(&buf)
	table.Header([]string{"Tool", "Status"})
	for _, name := range names {
		status := color.RedString("missing")
		if st[name] {
			status = color.GreenString("available")
		}
		table.Append([]string{name, status})
	}
	table.Render()
	if !report.Ready {
		buf.WriteString(color.YellowString("vina is required for rescoring and docking") + "\n")
	}
	fmt.Fprint(cmd.OutOrStdout(), buf.String())
	return nil
}

// VersionInfo is the result of the version command.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := VersionInfo{Version: Version, Commit: GitCommit, BuildDate: BuildDate, GoVersion: runtime.Version()}
			if cliCtx, err := GetCLIContext(cmd); err == nil && cliCtx.OutputFormat == FormatJSON {
				return printJSON(cmd, info)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "dockview %s (commit: %s, built: %s, %s)\n",
				info.Version, info.Commit, info.BuildDate, info.GoVersion)
			return nil
		},
	}
}
