package ligand

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedMolBlock is returned (wrapped with line context) when a record
// cannot be read as an MDL mol block.
var ErrMalformedMolBlock = errors.New("malformed mol block")

// CTAB versions recognised on the counts line.
const (
	VersionV2000 = "V2000"
	VersionV3000 = "V3000"
)

// Bond types as written in the bond block.
const (
	BondSingle   = 1
	BondDouble   = 2
	BondTriple   = 3
	BondAromatic = 4
)

// Atom is one entry of the atom block.
type Atom struct {
	Symbol   string
	X, Y, Z  float64
	Charge   int
	MassDiff int
}

// IsDummy reports whether the atom is a query or attachment placeholder.
func (a Atom) IsDummy() bool {
	return dummySymbols[a.Symbol]
}

// Bond is one entry of the bond block. From and To are zero-based atom indices.
type Bond struct {
	From, To int
	Type     int
	Stereo   int
}

// valence is the contribution of the bond to the explicit valence of its atoms.
func (b Bond) valence() float64 {
	switch b.Type {
	case BondDouble:
		return 2
	case BondTriple:
		return 3
	case BondAromatic:
		return 1.5
	default:
		return 1
	}
}

// Molecule is a parsed mol block plus its SD data items.
type Molecule struct {
	Title   string
	Program string
	Comment string
	Version string
	Atoms   []Atom
	Bonds   []Bond
	// Properties holds SD data items keyed by field name.
	Properties map[string]string
	// PropertyKeys preserves the order in which data items appeared.
	PropertyKeys []string
}

// Property returns the value of a data item and whether it was present.
func (m *Molecule) Property(key string) (string, bool) {
	v, ok := m.Properties[key]
	return v, ok
}

func malformed(line int, format string, args ...interface{}) error {
	return fmt.Errorf("%w: line %d: %s", ErrMalformedMolBlock, line+1, fmt.Sprintf(format, args...))
}

// ParseMolBlock parses one SD record (mol block optionally followed by data
// items). Leading header lines lost to trimming are tolerated: the counts line
// is located by its version tag within the first four lines.
func ParseMolBlock(block string) (*Molecule, error) {
	lines := splitLines(block)
	countsIdx, version, err := locateCountsLine(lines)
	if err != nil {
		return nil, err
	}

	mol := &Molecule{Version: version, Properties: make(map[string]string)}
	if countsIdx >= 3 {
		mol.Title = strings.TrimSpace(lines[countsIdx-3])
	}
	if countsIdx >= 2 {
		mol.Program = strings.TrimSpace(lines[countsIdx-2])
	}
	if countsIdx >= 1 {
		mol.Comment = strings.TrimSpace(lines[countsIdx-1])
	}

	var end int
	if version == VersionV3000 {
		end, err = parseV3000(mol, lines, countsIdx+1)
	} else {
		end, err = parseV2000(mol, lines, countsIdx)
	}
	if err != nil {
		return nil, err
	}

	parseDataItems(mol, lines[end+1:])
	return mol, nil
}

// NormalizeMolBlock restores blank header lines so the counts line is the
// fourth line again, which strict readers (3Dmol.js, Vina) require.
func NormalizeMolBlock(block string) string {
	lines := splitLines(block)
	idx, _, err := locateCountsLine(lines)
	if err != nil || idx >= 3 {
		return block
	}
	pad := strings.Repeat("\n", 3-idx)
	counts := padCountsLine(lines[idx])
	lines[idx] = counts
	return pad + strings.Join(lines, "\n")
}

func splitLines(block string) []string {
	block = strings.ReplaceAll(block, "\r\n", "\n")
	return strings.Split(block, "\n")
}

func locateCountsLine(lines []string) (int, string, error) {
	limit := len(lines)
	if limit > 4 {
		limit = 4
	}
	for i := 0; i < limit; i++ {
		tag := strings.TrimRight(lines[i], " \t")
		switch {
		case strings.HasSuffix(tag, VersionV3000):
			return i, VersionV3000, nil
		case strings.HasSuffix(tag, VersionV2000):
			return i, VersionV2000, nil
		}
	}
	// Old writers omit the version tag; fall back to the canonical position.
	if len(lines) > 3 {
		if _, _, err := parseCounts(lines[3]); err == nil {
			return 3, VersionV2000, nil
		}
	}
	return 0, "", malformed(0, "counts line not found")
}

// padCountsLine re-aligns a counts line whose leading blanks were trimmed.
func padCountsLine(line string) string {
	line = strings.TrimRight(line, " \t")
	const width = 39
	if len(line) < width && (strings.HasSuffix(line, VersionV2000) || strings.HasSuffix(line, VersionV3000)) {
		return strings.Repeat(" ", width-len(line)) + line
	}
	return line
}

func parseCounts(line string) (atoms, bonds int, err error) {
	line = padCountsLine(line)
	if len(line) < 6 {
		return 0, 0, fmt.Errorf("counts line too short")
	}
	atoms, err = strconv.Atoi(strings.TrimSpace(line[0:3]))
	if err != nil {
		return 0, 0, fmt.Errorf("atom count: %v", err)
	}
	bonds, err = strconv.Atoi(strings.TrimSpace(line[3:6]))
	if err != nil {
		return 0, 0, fmt.Errorf("bond count: %v", err)
	}
	if atoms < 0 || bonds < 0 {
		return 0, 0, fmt.Errorf("negative counts")
	}
	return atoms, bonds, nil
}

// ─── V2000 ──────────────────────────────────────────────────────────────────

func parseV2000(mol *Molecule, lines []string, countsIdx int) (int, error) {
	nAtoms, nBonds, err := parseCounts(lines[countsIdx])
	if err != nil {
		return 0, malformed(countsIdx, "%v", err)
	}
	if countsIdx+nAtoms+nBonds >= len(lines) {
		return 0, malformed(countsIdx, "expected %d atoms and %d bonds, block has %d lines", nAtoms, nBonds, len(lines))
	}

	i := countsIdx + 1
	mol.Atoms = make([]Atom, 0, nAtoms)
	for n := 0; n < nAtoms; n, i = n+1, i+1 {
		atom, err := parseV2000Atom(lines[i])
		if err != nil {
			return 0, malformed(i, "%v", err)
		}
		mol.Atoms = append(mol.Atoms, atom)
	}

	mol.Bonds = make([]Bond, 0, nBonds)
	for n := 0; n < nBonds; n, i = n+1, i+1 {
		bond, err := parseV2000Bond(lines[i], nAtoms)
		if err != nil {
			return 0, malformed(i, "%v", err)
		}
		mol.Bonds = append(mol.Bonds, bond)
	}

	chargesReset := false
	for ; i < len(lines); i++ {
		line := lines[i]
		switch {
		case strings.HasPrefix(line, "M  END"):
			return i, nil
		case strings.HasPrefix(line, "M  CHG"):
			// M  CHG supersedes every charge given in the atom block.
			if !chargesReset {
				for a := range mol.Atoms {
					mol.Atoms[a].Charge = 0
				}
				chargesReset = true
			}
			if err := applyChargeLine(mol, line); err != nil {
				return 0, malformed(i, "%v", err)
			}
		case strings.HasPrefix(line, "> ") || line == ">":
			return 0, malformed(i, "data item before M  END")
		}
	}
	return 0, malformed(len(lines)-1, "M  END missing")
}

// chargeCodes maps the atom block ccc field to a formal charge.
var chargeCodes = map[int]int{0: 0, 1: 3, 2: 2, 3: 1, 4: 0, 5: -1, 6: -2, 7: -3}

func parseV2000Atom(line string) (Atom, error) {
	var atom Atom
	if len(line) >= 34 {
		coords := [3]string{line[0:10], line[10:20], line[20:30]}
		for k, raw := range coords {
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return atom, fmt.Errorf("atom coordinate: %v", err)
			}
			setCoord(&atom, k, v)
		}
		atom.Symbol = strings.TrimSpace(line[31:34])
		if len(line) >= 36 {
			atom.MassDiff, _ = strconv.Atoi(strings.TrimSpace(line[34:36]))
		}
		if len(line) >= 39 {
			code, err := strconv.Atoi(strings.TrimSpace(line[36:39]))
			if err == nil {
				atom.Charge = chargeCodes[code]
			}
		}
	} else {
		fields := strings.Fields(line)
		if len(fields) < 4 {
			return atom, fmt.Errorf("atom line has %d fields", len(fields))
		}
		for k := 0; k < 3; k++ {
			v, err := strconv.ParseFloat(fields[k], 64)
			if err != nil {
				return atom, fmt.Errorf("atom coordinate: %v", err)
			}
			setCoord(&atom, k, v)
		}
		atom.Symbol = fields[3]
	}
	if err := checkSymbol(atom.Symbol); err != nil {
		return atom, err
	}
	return atom, nil
}

func setCoord(a *Atom, k int, v float64) {
	switch k {
	case 0:
		a.X = v
	case 1:
		a.Y = v
	default:
		a.Z = v
	}
}

func checkSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("empty element symbol")
	}
	if _, ok := lookupElement(symbol); ok || dummySymbols[symbol] {
		return nil
	}
	return fmt.Errorf("unknown element %q", symbol)
}

func parseV2000Bond(line string, nAtoms int) (Bond, error) {
	var raw []string
	if len(line) >= 9 {
		raw = []string{line[0:3], line[3:6], line[6:9]}
		if len(line) >= 12 {
			raw = append(raw, line[9:12])
		}
	} else {
		raw = strings.Fields(line)
		if len(raw) < 3 {
			return Bond{}, fmt.Errorf("bond line has %d fields", len(raw))
		}
	}
	vals := make([]int, len(raw))
	for k, r := range raw {
		v, err := strconv.Atoi(strings.TrimSpace(r))
		if err != nil {
			if k == 3 {
				continue
			}
			return Bond{}, fmt.Errorf("bond field %d: %v", k+1, err)
		}
		vals[k] = v
	}
	return newBond(vals[0], vals[1], vals[2], nAtoms, stereoOf(vals))
}

func stereoOf(vals []int) int {
	if len(vals) > 3 {
		return vals[3]
	}
	return 0
}

func newBond(from, to, typ, nAtoms, stereo int) (Bond, error) {
	if from < 1 || from > nAtoms || to < 1 || to > nAtoms {
		return Bond{}, fmt.Errorf("bond references atom outside 1..%d", nAtoms)
	}
	if from == to {
		return Bond{}, fmt.Errorf("bond from atom %d to itself", from)
	}
	if typ < 1 || typ > 8 {
		return Bond{}, fmt.Errorf("unsupported bond type %d", typ)
	}
	return Bond{From: from - 1, To: to - 1, Type: typ, Stereo: stereo}, nil
}

func applyChargeLine(mol *Molecule, line string) error {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return fmt.Errorf("short M  CHG line")
	}
	n, err := strconv.Atoi(fields[2])
	if err != nil || len(fields) < 3+2*n {
		return fmt.Errorf("bad M  CHG entry count")
	}
	for k := 0; k < n; k++ {
		idx, err1 := strconv.Atoi(fields[3+2*k])
		chg, err2 := strconv.Atoi(fields[4+2*k])
		if err1 != nil || err2 != nil {
			return fmt.Errorf("bad M  CHG pair")
		}
		if idx < 1 || idx > len(mol.Atoms) {
			return fmt.Errorf("M  CHG atom %d out of range", idx)
		}
		mol.Atoms[idx-1].Charge = chg
	}
	return nil
}

// ─── V3000 ──────────────────────────────────────────────────────────────────

func parseV3000(mol *Molecule, lines []string, start int) (int, error) {
	var (
		section   string
		pending   string
		wantAtoms = -1
		wantBonds = -1
		atomIndex = make(map[int]int)
		bondLines []string
		bondAt    []int
	)
	for i := start; i < len(lines); i++ {
		line := lines[i]
		if strings.HasPrefix(line, "M  END") {
			if wantAtoms < 0 {
				return 0, malformed(i, "V3000 COUNTS line missing")
			}
			for k, bl := range bondLines {
				bond, err := parseV3000Bond(bl, atomIndex)
				if err != nil {
					return 0, malformed(bondAt[k], "%v", err)
				}
				mol.Bonds = append(mol.Bonds, bond)
			}
			if len(mol.Atoms) != wantAtoms || len(mol.Bonds) != wantBonds {
				return 0, malformed(i, "V3000 counts %d/%d, found %d atoms %d bonds", wantAtoms, wantBonds, len(mol.Atoms), len(mol.Bonds))
			}
			return i, nil
		}
		if !strings.HasPrefix(line, "M  V30 ") {
			continue
		}
		body := strings.TrimSpace(line[len("M  V30 "):])
		if strings.HasSuffix(body, "-") {
			pending += strings.TrimSuffix(body, "-")
			continue
		}
		body = pending + body
		pending = ""

		fields := strings.Fields(body)
		if len(fields) == 0 {
			continue
		}
		switch {
		case fields[0] == "BEGIN" && len(fields) > 1:
			section = fields[1]
			continue
		case fields[0] == "END":
			section = ""
			continue
		case fields[0] == "COUNTS":
			if len(fields) < 3 {
				return 0, malformed(i, "short COUNTS line")
			}
			a, err1 := strconv.Atoi(fields[1])
			b, err2 := strconv.Atoi(fields[2])
			if err1 != nil || err2 != nil {
				return 0, malformed(i, "bad COUNTS values")
			}
			wantAtoms, wantBonds = a, b
			continue
		}

		switch section {
		case "ATOM":
			idx, atom, err := parseV3000Atom(fields)
			if err != nil {
				return 0, malformed(i, "%v", err)
			}
			atomIndex[idx] = len(mol.Atoms)
			mol.Atoms = append(mol.Atoms, atom)
		case "BOND":
			bondLines = append(bondLines, body)
			bondAt = append(bondAt, i)
		}
	}
	return 0, malformed(len(lines)-1, "M  END missing")
}

func parseV3000Atom(fields []string) (int, Atom, error) {
	var atom Atom
	if len(fields) < 5 {
		return 0, atom, fmt.Errorf("atom line has %d fields", len(fields))
	}
	idx, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, atom, fmt.Errorf("atom index: %v", err)
	}
	atom.Symbol = fields[1]
	for k := 0; k < 3; k++ {
		v, err := strconv.ParseFloat(fields[2+k], 64)
		if err != nil {
			return 0, atom, fmt.Errorf("atom coordinate: %v", err)
		}
		setCoord(&atom, k, v)
	}
	for _, f := range fields[5:] {
		if strings.HasPrefix(f, "CHG=") {
			atom.Charge, _ = strconv.Atoi(strings.TrimPrefix(f, "CHG="))
		}
	}
	if err := checkSymbol(atom.Symbol); err != nil {
		return 0, atom, err
	}
	return idx, atom, nil
}

func parseV3000Bond(body string, atomIndex map[int]int) (Bond, error) {
	fields := strings.Fields(body)
	if len(fields) < 4 {
		return Bond{}, fmt.Errorf("bond line has %d fields", len(fields))
	}
	typ, err := strconv.Atoi(fields[1])
	if err != nil {
		return Bond{}, fmt.Errorf("bond type: %v", err)
	}
	a1, err1 := strconv.Atoi(fields[2])
	a2, err2 := strconv.Atoi(fields[3])
	if err1 != nil || err2 != nil {
		return Bond{}, fmt.Errorf("bond atoms are not integers")
	}
	from, ok1 := atomIndex[a1]
	to, ok2 := atomIndex[a2]
	if !ok1 || !ok2 {
		return Bond{}, fmt.Errorf("bond references unknown atom")
	}
	return newBond(from+1, to+1, typ, len(atomIndex), 0)
}

// ─── SD data items ──────────────────────────────────────────────────────────

func parseDataItems(mol *Molecule, lines []string) {
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if !strings.HasPrefix(line, ">") {
			continue
		}
		key, ok := dataItemKey(line)
		var values []string
		for i+1 < len(lines) && strings.TrimSpace(lines[i+1]) != "" {
			i++
			values = append(values, strings.TrimRight(lines[i], " \t"))
		}
		if !ok {
			continue
		}
		if _, seen := mol.Properties[key]; !seen {
			mol.PropertyKeys = append(mol.PropertyKeys, key)
		}
		mol.Properties[key] = strings.Join(values, "\n")
	}
}

func dataItemKey(header string) (string, bool) {
	open := strings.IndexByte(header, '<')
	if open < 0 {
		return "", false
	}
	end := strings.IndexByte(header[open+1:], '>')
	if end < 0 {
		return "", false
	}
	key := header[open+1 : open+1+end]
	return key, key != ""
}
