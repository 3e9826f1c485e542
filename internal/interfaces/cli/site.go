package cli

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/turtacn/dockview/internal/application/viewer"
	"github.com/turtacn/dockview/internal/domain/protein"
	"github.com/turtacn/dockview/pkg/errors"
)

type siteOptions struct {
	residues string
	preset   string
	center   []float64
	size     []float64
}

// SiteReport is the result of the site command.
type SiteReport struct {
	Protein *viewer.ProteinInfo `json:"protein"`
	Site    protein.BindingSite `json:"site"`
}

func (o *siteOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.residues, "residues", "", "residues defining the site: start-end (end exclusive) or a comma list")
	cmd.Flags().StringVar(&o.preset, "preset", "", "use a configured protein preset box")
	cmd.Flags().Float64SliceVar(&o.center, "center", nil, "explicit box center x,y,z")
	cmd.Flags().Float64SliceVar(&o.size, "size", nil, "explicit box size x,y,z")
}

// request builds the site request. An empty request means the configured
// default residues.
func (o *siteOptions) request() (viewer.SiteRequest, error) {
	req := viewer.SiteRequest{Preset: o.preset, Center: o.center, Size: o.size}
	if o.residues != "" {
		residues, err := parseResidues(o.residues)
		if err != nil {
			return req, err
		}
		req.Residues = residues
	}
	return req, nil
}

func newSiteCmd() *cobra.Command {
	opts := &siteOptions{}
	cmd := &cobra.Command{
		Use:   "site <file.pdb>",
		Short: "Derive the docking box of a protein from residues or a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSite(cmd, args[0], opts)
		},
	}
	opts.register(cmd)
	return cmd
}

func runSite(cmd *cobra.Command, path string, opts *siteOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	req, err := opts.request()
	if err != nil {
		return err
	}
	text, err := readInput(path)
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
	info, err := v.LoadProtein(ctx, sess.ID, filepath.Base(path), text)
	if err != nil {
		return err
	}
	site, err := v.SetBindingSite(ctx, sess.ID, req)
	if err != nil {
		return err
	}

	report := SiteReport{Protein: info, Site: site}
	if cliCtx.OutputFormat == FormatJSON {
		return printJSON(cmd, report)
	}
	fmt.Fprint(cmd.OutOrStdout(), formatSite(report))
	return nil
}

func formatSite(r SiteReport) string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "\nProtein: %s  atoms: %d  residues: %d  chains: %s\n\n",
		r.Protein.Name, r.Protein.Atoms, r.Protein.Residues, strings.Join(r.Protein.Chains, ","))

	table := tablewriter.NewWriter(&buf)
	table.Header([]string{"Axis", "Center", "Size"})
	for i, axis := range []string{"x", "y", "z"} {
		table.Append([]string{
			axis,
			fmt.Sprintf("%.3f", r.Site.Center[i]),
			fmt.Sprintf("%.3f", r.Site.Size[i]),
		})
	}
	table.Render()
	return buf.String()
}

// parseResidues accepts "200-250" (end exclusive) or "219,262,275".
func parseResidues(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if start, end, ok := strings.Cut(s, "-"); ok && !strings.Contains(s, ",") && start != "" {
		lo, err1 := strconv.Atoi(strings.TrimSpace(start))
		hi, err2 := strconv.Atoi(strings.TrimSpace(end))
		if err1 != nil || err2 != nil || hi <= lo {
			return nil, errors.New(errors.ErrCodeBindingSiteInvalid, "invalid residue range").WithDetail(s)
		}
		return protein.ResidueRange(lo, hi), nil
	}

	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, errors.New(errors.ErrCodeBindingSiteInvalid, "invalid residue number").WithDetail(part)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, errors.New(errors.ErrCodeBindingSiteInvalid, "no residues given")
	}
	return out, nil
}
