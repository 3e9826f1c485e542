package ligand

// MolecularFilter bounds the records shown to a user.
type MolecularFilter struct {
	Enabled  bool    `json:"enabled"`
	MaxMW    float64 `json:"max_mw"`
	MaxLogP  float64 `json:"max_logp"`
	MinScore float64 `json:"min_score"`
	MaxScore float64 `json:"max_score"`
}

// Accept reports whether r lies within every bound of the filter.
func (f MolecularFilter) Accept(r Record) bool {
	if !f.Enabled {
		return true
	}
	return r.MolecularWeight <= f.MaxMW &&
		r.LogP <= f.MaxLogP &&
		r.Score >= f.MinScore &&
		r.Score <= f.MaxScore
}

// Filter returns the records accepted by f, preserving order. The input slice
// is not modified.
func Filter(records []Record, f MolecularFilter) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if f.Accept(r) {
			out = append(out, r)
		}
	}
	return out
}

// ApplyFilter moves the records rejected by f into ex.Skipped with reason
// ReasonFiltered. Record order is preserved.
func ApplyFilter(ex Extraction, f MolecularFilter) Extraction {
	if !f.Enabled {
		return ex
	}
	kept := make([]Record, 0, len(ex.Records))
	skipped := append([]Skipped(nil), ex.Skipped...)
	for _, r := range ex.Records {
		if f.Accept(r) {
			kept = append(kept, r)
			continue
		}
		skipped = append(skipped, Skipped{Index: r.Index, Reason: ReasonFiltered})
	}
	ex.Records, ex.Skipped = kept, skipped
	return ex
}

// SkipCounts tallies ex.Skipped by reason.
func SkipCounts(skipped []Skipped) map[string]int {
	out := make(map[string]int)
	for _, s := range skipped {
		out[s.Reason]++
	}
	return out
}
