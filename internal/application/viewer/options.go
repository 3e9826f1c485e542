package viewer

import (
	"fmt"

	"github.com/turtacn/dockview/internal/config"
	"github.com/turtacn/dockview/internal/domain/ligand"
	"github.com/turtacn/dockview/internal/domain/protein"
)

// Options are the tunables of a Service.
type Options struct {
	Extract     ligand.Options
	Filter      ligand.MolecularFilter
	Site        protein.SiteOptions
	Catalog     *protein.Catalog
	Parallelism int
	Render      RenderOptions
}

// DefaultOptions mirrors config.Default.
func DefaultOptions() Options {
	return Options{
		Extract:     ligand.DefaultOptions(),
		Site:        protein.DefaultSiteOptions(),
		Catalog:     protein.NewCatalog(),
		Parallelism: config.DefaultDockingParallelism,
		Render:      DefaultRenderOptions(),
	}
}

// OptionsFromConfig translates a defaulted configuration.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	order, err := ligand.ParseScoreOrder(cfg.Ligand.SortOrder)
	if err != nil {
		return Options{}, err
	}
	fallback, err := protein.NewBindingSite(cfg.Protein.DefaultSite.Center, cfg.Protein.DefaultSite.Size)
	if err != nil {
		return Options{}, fmt.Errorf("protein.default_site: %w", err)
	}

	presets := make([]protein.Preset, 0, len(cfg.Protein.Presets))
	for id, p := range cfg.Protein.Presets {
		site, err := protein.NewBindingSite(p.BindingSite.Center, p.BindingSite.Size)
		if err != nil {
			return Options{}, fmt.Errorf("protein.presets.%s: %w", id, err)
		}
		presets = append(presets, protein.Preset{
			ID:          id,
			Name:        p.Name,
			Description: p.Description,
			Site:        site,
			KeyResidues: p.KeyResidues,
		})
	}

	f := cfg.Ligand.Filters
	vw := cfg.Viewer
	render := RenderOptions{
		Width:             vw.Width,
		Height:            vw.Height,
		ScriptURL:         vw.ScriptURL,
		ProteinColor:      vw.ProteinColor,
		ProteinOpacity:    vw.ProteinOpacity,
		LigandColorScheme: vw.LigandColorScheme,
		StickRadius:       vw.StickRadius,
		SurfaceColor:      vw.SurfaceColor,
		SurfaceOpacity:    vw.SurfaceOpacity,
		Spin:              vw.EnableSpin,
	}
	if len(vw.SurfaceResidues) == 2 {
		render.SurfaceResidues = [2]int{vw.SurfaceResidues[0], vw.SurfaceResidues[1]}
	}

	return Options{
		Extract: ligand.Options{
			ScoreKeys:  append([]string(nil), cfg.Ligand.ScoreProperties...),
			Order:      order,
			MaxRecords: cfg.Ligand.MaxLigands,
		},
		Filter: ligand.MolecularFilter{
			Enabled:  f.Enabled,
			MaxMW:    f.MaxMW,
			MaxLogP:  f.MaxLogP,
			MinScore: f.MinScore,
			MaxScore: f.MaxScore,
		},
		Site: protein.SiteOptions{
			Buffer:          cfg.Protein.SiteBuffer,
			Fallback:        fallback,
			DefaultResidues: protein.ResidueRange(cfg.Protein.DefaultResidueStart, cfg.Protein.DefaultResidueEnd),
		},
		Catalog:     protein.NewCatalog(presets...),
		Parallelism: cfg.Docking.Parallelism,
		Render:      render,
	}, nil
}
