package ligand

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// RecordDelimiter separates records in an SD file.
	RecordDelimiter = "$$$$"
	// minBlockLines is the smallest line count a mol block can have.
	minBlockLines = 5
	nameProperty  = "_Name"
)

// Extract splits an SD file into records, resolves a score and a name for
// each one, computes descriptors and returns them ordered by score. Blocks
// that cannot be used are reported in Extraction.Skipped; Extract never fails.
func Extract(text string, opts Options) Extraction {
	opts = opts.withDefaults()
	out := Extraction{Order: opts.Order}
	if strings.TrimSpace(text) == "" {
		return out
	}

	blocks := strings.Split(text, RecordDelimiter)
	out.Blocks = len(blocks)
	for i, raw := range blocks {
		block := strings.TrimSpace(raw)
		if block == "" || len(strings.Split(block, "\n")) < minBlockLines {
			out.Skipped = append(out.Skipped, Skipped{Index: i, Reason: ReasonTooShort})
			continue
		}
		rec, err := NewRecord(block, i, opts.ScoreKeys)
		if err != nil {
			out.Skipped = append(out.Skipped, Skipped{Index: i, Reason: ReasonParseError, Message: err.Error(), Err: err})
			continue
		}
		out.Records = append(out.Records, *rec)
	}

	Sort(out.Records, opts.Order)
	if opts.MaxRecords > 0 && len(out.Records) > opts.MaxRecords {
		for _, r := range out.Records[opts.MaxRecords:] {
			out.Skipped = append(out.Skipped, Skipped{
				Index:   r.Index,
				Reason:  ReasonLimit,
				Message: fmt.Sprintf("exceeds limit of %d records", opts.MaxRecords),
			})
		}
		out.Records = out.Records[:opts.MaxRecords]
	}
	return out
}

// NewRecord builds a record from one trimmed block at candidate position index.
func NewRecord(block string, index int, scoreKeys []string) (*Record, error) {
	mol, err := ParseMolBlock(block)
	if err != nil {
		return nil, err
	}
	score, source := ResolveScore(mol.Properties, block, scoreKeys)
	d := Describe(mol)
	return &Record{
		RawBlock:        block,
		Index:           index,
		Score:           score,
		ScoreSource:     source,
		Name:            recordName(mol, index),
		Properties:      mol.Properties,
		MolecularWeight: d.MolecularWeight,
		LogP:            d.LogP,
		AtomCount:       d.HeavyAtoms,
		BondCount:       d.HeavyBonds,
		Formula:         d.Formula,
	}, nil
}

// ResolveScore returns the first score found by, in order, the data items
// named in keys, a text scan for lines mentioning "score", and 0.0.
func ResolveScore(props map[string]string, block string, keys []string) (float64, string) {
	for _, key := range keys {
		if v, ok := props[key]; ok {
			if f, ok := parseScore(v); ok {
				return f, scoreSourceProp + key
			}
		}
	}
	for _, line := range strings.Split(block, "\n") {
		if !strings.Contains(strings.ToLower(line), "score") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if f, ok := parseScore(fields[len(fields)-1]); ok {
			return f, ScoreSourceText
		}
	}
	return 0.0, ScoreSourceDefault
}

func parseScore(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func recordName(mol *Molecule, index int) string {
	if v, ok := mol.Properties[nameProperty]; ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	if mol.Title != "" {
		return mol.Title
	}
	return fmt.Sprintf("Ligand_%d", index+1)
}
