package protein

import (
	"errors"
	"fmt"
	"strings"

	chem "github.com/rmera/gochem"
)

// ErrEmptyStructure is returned when a PDB upload has no content.
var ErrEmptyStructure = errors.New("empty protein structure")

// Record types read from a PDB file.
const (
	RecordAtom   = "ATOM"
	RecordHetAtm = "HETATM"
)

// Atom is one ATOM or HETATM record.
type Atom struct {
	Record  string
	Serial  int
	Name    string
	ResName string
	Chain   string
	ResSeq  int
	X, Y, Z float64
	Element string
}

// Structure is a parsed PDB file. Raw keeps the text as uploaded so it can be
// handed to viewers and docking tools unchanged.
type Structure struct {
	Raw   string
	Atoms []Atom

	atomLines int
}

// AtomCount returns the number of lines starting with ATOM, malformed or not.
func (s *Structure) AtomCount() int {
	return s.atomLines
}

// Residues returns the distinct residue numbers of ATOM records in file order.
func (s *Structure) Residues() []int {
	seen := make(map[int]bool)
	var out []int
	for _, a := range s.Atoms {
		if a.Record != RecordAtom || seen[a.ResSeq] {
			continue
		}
		seen[a.ResSeq] = true
		out = append(out, a.ResSeq)
	}
	return out
}

// Chains returns the distinct chain identifiers in file order.
func (s *Structure) Chains() []string {
	seen := make(map[string]bool)
	var out []string
	for _, a := range s.Atoms {
		if seen[a.Chain] {
			continue
		}
		seen[a.Chain] = true
		out = append(out, a.Chain)
	}
	return out
}

// Parse reads the ATOM and HETATM records through gochem. Records the reader
// rejects are skipped; the rest of the file is kept.
func Parse(text string) (*Structure, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyStructure
	}
	s := &Structure{Raw: text}

	var records []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.HasPrefix(line, RecordAtom) {
			s.atomLines++
		}
		if !strings.HasPrefix(line, RecordAtom) && !strings.HasPrefix(line, RecordHetAtm) {
			continue
		}
		if rec, ok := normalizeAtomLine(line); ok {
			records = append(records, rec)
		}
	}
	if len(records) == 0 {
		return s, nil
	}

	atoms, err := readAtoms(records)
	if err != nil {
		// gochem fails the whole read on one bad record, so isolate them.
		atoms = atoms[:0]
		for _, rec := range records {
			if a, err := readAtoms([]string{rec}); err == nil {
				atoms = append(atoms, a...)
			}
		}
	}
	s.Atoms = atoms
	return s, nil
}

// atomLineWidth is the column count gochem needs to read the element symbol.
const atomLineWidth = 80

// normalizeAtomLine pads a record to full width and fills blank occupancy and
// B-factor columns, which docking tools often leave out. Records too short to
// carry coordinates are rejected.
func normalizeAtomLine(line string) (string, bool) {
	if len(line) < 54 {
		return "", false
	}
	if len(line) < atomLineWidth {
		line += strings.Repeat(" ", atomLineWidth-len(line))
	}
	if strings.TrimSpace(line[54:60]) == "" {
		line = line[:54] + "  1.00" + line[60:]
	}
	if strings.TrimSpace(line[60:66]) == "" {
		line = line[:60] + "  0.00" + line[66:]
	}
	return line, true
}

// readAtoms converts records into Atoms with a single gochem read.
func readAtoms(records []string) (atoms []Atom, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read pdb records: %v", r)
		}
	}()

	mol, err := chem.PDBRead(strings.NewReader(strings.Join(records, "\n")+"\n"), true)
	if err != nil {
		return nil, err
	}
	if len(mol.Coords) == 0 {
		return nil, fmt.Errorf("read pdb records: no coordinates")
	}
	coords := mol.Coords[0]

	atoms = make([]Atom, 0, mol.Len())
	for i := 0; i < mol.Len(); i++ {
		at := mol.Atom(i)
		record := RecordAtom
		if at.Het {
			record = RecordHetAtm
		}
		atoms = append(atoms, Atom{
			Record:  record,
			Serial:  at.ID,
			Name:    strings.TrimSpace(at.Name),
			ResName: strings.TrimSpace(at.MolName),
			Chain:   strings.TrimSpace(at.Chain),
			ResSeq:  at.MolID,
			X:       coords.At(i, 0),
			Y:       coords.At(i, 1),
			Z:       coords.At(i, 2),
			Element: strings.ToUpper(at.Symbol),
		})
	}
	return atoms, nil
}
