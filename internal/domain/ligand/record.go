package ligand

import (
	"fmt"
	"strings"
)

// ScoreOrder is the direction in which records are ranked by score.
type ScoreOrder string

const (
	// OrderAscending ranks lower (more favourable) binding energies first.
	OrderAscending  ScoreOrder = "ascending"
	OrderDescending ScoreOrder = "descending"
)

// IsValid checks if the order is supported.
func (o ScoreOrder) IsValid() bool {
	return o == OrderAscending || o == OrderDescending
}

func (o ScoreOrder) String() string {
	return string(o)
}

// ParseScoreOrder accepts the canonical names and their asc/desc short forms.
// An empty string selects OrderAscending.
func ParseScoreOrder(s string) (ScoreOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ascending", "asc":
		return OrderAscending, nil
	case "descending", "desc":
		return OrderDescending, nil
	default:
		return "", fmt.Errorf("invalid score order: %s", s)
	}
}

// Score sources reported in Record.ScoreSource.
const (
	ScoreSourceText    = "text"
	ScoreSourceDefault = "default"
	scoreSourceProp    = "property:"
)

// DefaultScoreKeys are the data item names probed for a docking score.
var DefaultScoreKeys = []string{"docking_score", "score", "vina_score", "affinity", "binding_energy"}

// DefaultMaxRecords bounds the number of records kept per extraction.
const DefaultMaxRecords = 1000

// Record is one ligand pose extracted from a multi-record SDF.
type Record struct {
	RawBlock        string            `json:"raw_block"`
	Index           int               `json:"index"`
	Score           float64           `json:"score"`
	ScoreSource     string            `json:"score_source"`
	Name            string            `json:"name"`
	Properties      map[string]string `json:"properties,omitempty"`
	MolecularWeight float64           `json:"molecular_weight"`
	LogP            float64           `json:"logp"`
	AtomCount       int               `json:"atom_count"`
	BondCount       int               `json:"bond_count"`
	Formula         string            `json:"formula,omitempty"`
	VinaScore       *float64          `json:"vina_score,omitempty"`
}

// MolBlock returns the record text with its mol block header restored.
func (r Record) MolBlock() string {
	return NormalizeMolBlock(r.RawBlock)
}

// HasVinaScore reports whether the record has been rescored.
func (r Record) HasVinaScore() bool {
	return r.VinaScore != nil
}

// SMILES returns a SMILES data item if the record carries one.
func (r Record) SMILES() string {
	for _, key := range []string{"SMILES", "smiles", "Smiles", "canonical_smiles"} {
		if v, ok := r.Properties[key]; ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Reasons recorded in Skipped.
const (
	ReasonTooShort   = "too_short"
	ReasonParseError = "parse_error"
	ReasonLimit      = "limit"
	ReasonFiltered   = "filtered"
)

// Skipped describes a candidate block that produced no record.
type Skipped struct {
	Index   int    `json:"index"`
	Reason  string `json:"reason"`
	Message string `json:"message,omitempty"`
	Err     error  `json:"-"`
}

// Extraction is the full outcome of one Extract call.
type Extraction struct {
	Records []Record  `json:"records"`
	Skipped []Skipped `json:"skipped,omitempty"`
	// Blocks is the number of candidate blocks produced by the split.
	Blocks int `json:"blocks"`
	// Order is the order Records were sorted in.
	Order ScoreOrder `json:"order"`
}

// Options control score lookup, ordering and truncation.
type Options struct {
	ScoreKeys  []string
	Order      ScoreOrder
	MaxRecords int
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		ScoreKeys:  append([]string(nil), DefaultScoreKeys...),
		Order:      OrderAscending,
		MaxRecords: DefaultMaxRecords,
	}
}

func (o Options) withDefaults() Options {
	if len(o.ScoreKeys) == 0 {
		o.ScoreKeys = DefaultScoreKeys
	}
	if !o.Order.IsValid() {
		o.Order = OrderAscending
	}
	return o
}
