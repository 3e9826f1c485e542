package protein

import (
	"errors"
	"sort"
	"strings"
)

// ErrPresetNotFound is returned for an unknown preset name.
var ErrPresetNotFound = errors.New("protein preset not found")

// Preset is a known target with a curated binding site.
type Preset struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Site        BindingSite `json:"binding_site"`
	KeyResidues []int       `json:"key_residues,omitempty"`
}

// Catalog is a read-only set of presets keyed by lower-case ID.
type Catalog struct {
	presets map[string]Preset
}

// NewCatalog indexes presets by ID. Later duplicates replace earlier ones.
func NewCatalog(presets ...Preset) *Catalog {
	c := &Catalog{presets: make(map[string]Preset, len(presets))}
	for _, p := range presets {
		c.presets[strings.ToLower(p.ID)] = p
	}
	return c
}

// Get looks a preset up case-insensitively.
func (c *Catalog) Get(id string) (Preset, error) {
	p, ok := c.presets[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return Preset{}, ErrPresetNotFound
	}
	return p, nil
}

// IDs returns the preset identifiers in sorted order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.presets))
	for id := range c.presets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// List returns all presets sorted by ID.
func (c *Catalog) List() []Preset {
	out := make([]Preset, 0, len(c.presets))
	for _, id := range c.IDs() {
		out = append(out, c.presets[id])
	}
	return out
}
