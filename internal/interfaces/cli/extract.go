package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/turtacn/dockview/internal/domain/ligand"
	"github.com/turtacn/dockview/pkg/errors"
)

type extractOptions struct {
	order  string
	filter bool
	limit  int
}

func newExtractCmd() *cobra.Command {
	opts := &extractOptions{}
	cmd := &cobra.Command{
		Use:   "extract <file.sdf>",
		Short: "List the ligands of an SDF file ranked by docking score",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.order, "order", "", "score order: ascending or descending (default: ligand.sort_order)")
	cmd.Flags().BoolVar(&opts.filter, "filter", false, "apply the molecular property filter from ligand.filters")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "show at most this many ligands (0 shows all)")
	return cmd
}

func runExtract(cmd *cobra.Command, path string, opts *extractOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}

	var order ligand.ScoreOrder
	if opts.order != "" {
		order, err = ligand.ParseScoreOrder(opts.order)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSortOrderInvalid, "invalid --order")
		}
	}
	if opts.limit < 0 {
		return errors.InvalidParam("--limit must not be negative")
	}

	text, err := readInput(path)
	if err != nil {
		return err
	}
	if opts.filter {
		cliCtx.Config.Ligand.Filters.Enabled = true
	}
	v, err := cliCtx.Viewer()
	if err != nil {
		return err
	}

	ex := v.Extract(text, order)
	if opts.limit > 0 && len(ex.Records) > opts.limit {
		ex.Records = ex.Records[:opts.limit]
	}
	if ex.Records == nil {
		ex.Records = []ligand.Record{}
	}

	if cliCtx.OutputFormat == FormatJSON {
		return printJSON(cmd, ex)
	}
	fmt.Fprint(cmd.OutOrStdout(), formatExtraction(filepath.Base(path), ex))
	return nil
}

func formatExtraction(name string, ex ligand.Extraction) string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "\n=== %s ===\n\n", name)

	table := tablewriter.NewWriter(&buf)
	table.Header([]string{"Rank", "Block", "Name", "Score", "Source", "MW", "LogP", "Atoms", "Formula"})
	for i, r := range ex.Records {
		table.Append([]string{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%d", r.Index),
			truncateString(r.Name, 30),
			scoreString(r.Score),
			r.ScoreSource,
			fmt.Sprintf("%.1f", r.MolecularWeight),
			fmt.Sprintf("%.2f", r.LogP),
			fmt.Sprintf("%d", r.AtomCount),
			r.Formula,
		})
	}
	table.Render()

	fmt.Fprintf(&buf, "\nBlocks: %d  Ligands: %d  Skipped: %d\n", ex.Blocks, len(ex.Records), len(ex.Skipped))
	for _, sk := range ex.Skipped {
		line := fmt.Sprintf("  block %d: %s", sk.Index, sk.Reason)
		if sk.Message != "" {
			line += " (" + sk.Message + ")"
		}
		buf.WriteString(color.YellowString(line) + "\n")
	}
	return buf.String()
}
