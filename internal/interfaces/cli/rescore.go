package cli

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/turtacn/dockview/internal/application/viewer"
	"github.com/turtacn/dockview/pkg/errors"
)

type rescoreOptions struct {
	site  siteOptions
	index int
	all   bool
}

// RescoreReport is the result of the rescore command. Exactly one of Single
// and Batch is set.
type RescoreReport struct {
	Load   *viewer.LoadResult    `json:"load"`
	Single *viewer.RescoreResult `json:"single,omitempty"`
	Batch  *viewer.BatchResult   `json:"batch,omitempty"`
}

func newRescoreCmd() *cobra.Command {
	opts := &rescoreOptions{}
	cmd := &cobra.Command{
		Use:   "rescore <file.pdb> <file.sdf>",
		Short: "Rescore ligand poses against a protein with AutoDock Vina",
		Long: "Rescore loads the protein and poses, sets the binding site and runs Vina in\n" +
			"score-only mode on the top-ranked pose, the pose at --index or every pose (--all).",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRescore(cmd, args[0], args[1], opts)
		},
	}
	opts.site.register(cmd)
	cmd.Flags().IntVar(&opts.index, "index", -1, "rank position of the pose to rescore (0 is the best score)")
	cmd.Flags().BoolVar(&opts.all, "all", false, "rescore every pose")
	cmd.MarkFlagsMutuallyExclusive("index", "all")
	return cmd
}

func runRescore(cmd *cobra.Command, pdbPath, sdfPath string, opts *rescoreOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("index") && opts.index < 0 {
		return errors.New(errors.ErrCodeLigandIndexInvalid, "--index must not be negative")
	}
	siteReq, err := opts.site.request()
	if err != nil {
		return err
	}
	pdb, err := readInput(pdbPath)
	if err != nil {
		return err
	}
	sdf, err := readInput(sdfPath)
	if err != nil {
		return err
	}
	v, err := cliCtx.Viewer()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd, cliCtx)
	defer cancel()

	sess, err := v.Create(ctx)
	if err != nil {
		return err
	}
	if _, err := v.LoadProtein(ctx, sess.ID, filepath.Base(pdbPath), pdb); err != nil {
		return err
	}
	load, err := v.LoadLigands(ctx, sess.ID, filepath.Base(sdfPath), sdf)
	if err != nil {
		return err
	}
	if _, err := v.SetBindingSite(ctx, sess.ID, siteReq); err != nil {
		return err
	}

	report := RescoreReport{Load: load}
	if opts.all {
		report.Batch, err = v.RescoreAll(ctx, sess.ID)
	} else {
		report.Single, err = v.Rescore(ctx, sess.ID, opts.index)
	}
	if err != nil {
		return err
	}

	if cliCtx.OutputFormat == FormatJSON {
		return printJSON(cmd, report)
	}
	fmt.Fprint(cmd.OutOrStdout(), formatRescore(report))
	return nil
}

func formatRescore(r RescoreReport) string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "\nLoaded %d of %d blocks from %s\n\n", r.Load.Loaded, r.Load.Blocks, r.Load.File)

	table := tablewriter.NewWriter(&buf)
	if r.Single != nil {
		table.Header([]string{"Position", "Block", "Name", "File Score", "Vina Score"})
		table.Append([]string{
			fmt.Sprintf("%d", r.Single.Position),
			fmt.Sprintf("%d", r.Single.Ligand.Index),
			truncateString(r.Single.Ligand.Name, 30),
			fmt.Sprintf("%.2f", r.Single.Ligand.Score),
			scoreString(r.Single.VinaScore),
		})
		table.Render()
		return buf.String()
	}

	blocks := make([]int, 0, len(r.Batch.Scores)+len(r.Batch.Failures))
	for idx := range r.Batch.Scores {
		blocks = append(blocks, idx)
	}
	for idx := range r.Batch.Failures {
		if _, ok := r.Batch.Scores[idx]; !ok {
			blocks = append(blocks, idx)
		}
	}
	sort.Ints(blocks)

	table.Header([]string{"Block", "Vina Score", "Status"})
	for _, idx := range blocks {
		if score, ok := r.Batch.Scores[idx]; ok {
			table.Append([]string{fmt.Sprintf("%d", idx), scoreString(score), color.GreenString("ok")})
			continue
		}
		table.Append([]string{fmt.Sprintf("%d", idx), "-", color.RedString(r.Batch.Failures[idx])})
	}
	table.Render()
	fmt.Fprintf(&buf, "\nScored: %d  Failed: %d\n", len(r.Batch.Scores), len(r.Batch.Failures))
	return buf.String()
}
