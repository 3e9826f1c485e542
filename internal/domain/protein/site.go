package protein

import (
	"fmt"
	"math"
)

// BindingSite is an axis aligned docking box in Ångström.
type BindingSite struct {
	Center [3]float64 `json:"center"`
	Size   [3]float64 `json:"size"`
}

// DefaultBindingSite is used when nothing better is known.
var DefaultBindingSite = BindingSite{
	Center: [3]float64{0, 0, 0},
	Size:   [3]float64{20, 20, 20},
}

// Validate checks that every edge of the box is positive and finite.
func (b BindingSite) Validate() error {
	for i, v := range b.Size {
		if v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
			return fmt.Errorf("binding site size[%d] must be positive, got %v", i, v)
		}
	}
	for i, v := range b.Center {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return fmt.Errorf("binding site center[%d] is not finite", i)
		}
	}
	return nil
}

// NewBindingSite builds a site from slices as found in requests and config.
func NewBindingSite(center, size []float64) (BindingSite, error) {
	var b BindingSite
	if len(center) != 3 || len(size) != 3 {
		return b, fmt.Errorf("binding site needs 3 center and 3 size values, got %d and %d", len(center), len(size))
	}
	copy(b.Center[:], center)
	copy(b.Size[:], size)
	return b, b.Validate()
}

// SiteOptions tune SiteFromResidues.
type SiteOptions struct {
	// Buffer is added to the extent of the selected atoms on every axis.
	Buffer float64
	// Fallback is returned when no atom matches.
	Fallback BindingSite
	// DefaultResidues is used when the caller passes no residues.
	DefaultResidues []int
}

// DefaultSiteOptions returns a 10 Å buffer over residues 200..249.
func DefaultSiteOptions() SiteOptions {
	return SiteOptions{
		Buffer:          10,
		Fallback:        DefaultBindingSite,
		DefaultResidues: ResidueRange(200, 250),
	}
}

// ResidueRange returns the residue numbers in [start, end).
func ResidueRange(start, end int) []int {
	if end <= start {
		return nil
	}
	out := make([]int, 0, end-start)
	for r := start; r < end; r++ {
		out = append(out, r)
	}
	return out
}

// SiteFromResidues centres a box on the ATOM records of the given residues.
// The centre is the mean coordinate and each edge is the extent plus
// opts.Buffer, both rounded to two decimals.
func SiteFromResidues(s *Structure, residues []int, opts SiteOptions) BindingSite {
	if len(residues) == 0 {
		residues = opts.DefaultResidues
	}
	wanted := make(map[int]bool, len(residues))
	for _, r := range residues {
		wanted[r] = true
	}

	var (
		n        int
		sum      [3]float64
		min, max [3]float64
	)
	if s != nil {
		for _, a := range s.Atoms {
			if a.Record != RecordAtom || !wanted[a.ResSeq] {
				continue
			}
			p := [3]float64{a.X, a.Y, a.Z}
			for k := range p {
				sum[k] += p[k]
				if n == 0 || p[k] < min[k] {
					min[k] = p[k]
				}
				if n == 0 || p[k] > max[k] {
					max[k] = p[k]
				}
			}
			n++
		}
	}
	if n == 0 {
		return opts.Fallback
	}

	var site BindingSite
	for k := 0; k < 3; k++ {
		site.Center[k] = round2(sum[k] / float64(n))
		site.Size[k] = round2(max[k] - min[k] + opts.Buffer)
	}
	return site
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
