package ligand

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Descriptors are the computed properties attached to every record.
type Descriptors struct {
	MolecularWeight float64
	LogP            float64
	// HeavyAtoms and HeavyBonds exclude hydrogens, explicit or implicit.
	HeavyAtoms int
	HeavyBonds int
	Formula    string
}

// Describe computes all descriptors of mol in one pass over its graph.
func Describe(mol *Molecule) Descriptors {
	g := newMolGraph(mol)
	return Descriptors{
		MolecularWeight: g.molecularWeight(),
		LogP:            g.logP(),
		HeavyAtoms:      g.heavyAtoms(),
		HeavyBonds:      g.heavyBonds(),
		Formula:         g.formula(),
	}
}

// MolecularWeight returns the average molecular weight including implicit hydrogens.
func MolecularWeight(mol *Molecule) float64 {
	return newMolGraph(mol).molecularWeight()
}

// LogP returns a Wildman-Crippen atom contribution estimate of logP.
func LogP(mol *Molecule) float64 {
	return newMolGraph(mol).logP()
}

// Formula returns the molecular formula in Hill order.
func Formula(mol *Molecule) string {
	return newMolGraph(mol).formula()
}

// ImplicitHydrogens returns the implicit hydrogen count of every atom.
func ImplicitHydrogens(mol *Molecule) []int {
	return newMolGraph(mol).implicitH
}

// ─── Graph ──────────────────────────────────────────────────────────────────

type neighbor struct {
	atom int
	bond int
}

type molGraph struct {
	mol          *Molecule
	nbrs         [][]neighbor
	implicitH    []int
	aromaticAtom []bool
	aromaticBond []bool
}

func newMolGraph(mol *Molecule) *molGraph {
	g := &molGraph{
		mol:          mol,
		nbrs:         make([][]neighbor, len(mol.Atoms)),
		implicitH:    make([]int, len(mol.Atoms)),
		aromaticAtom: make([]bool, len(mol.Atoms)),
		aromaticBond: make([]bool, len(mol.Bonds)),
	}
	for i, b := range mol.Bonds {
		g.nbrs[b.From] = append(g.nbrs[b.From], neighbor{atom: b.To, bond: i})
		g.nbrs[b.To] = append(g.nbrs[b.To], neighbor{atom: b.From, bond: i})
		if b.Type == BondAromatic {
			g.aromaticBond[i] = true
			g.aromaticAtom[b.From] = true
			g.aromaticAtom[b.To] = true
		}
	}
	for i := range mol.Atoms {
		g.implicitH[i] = g.computeImplicitH(i)
	}
	g.perceiveAromaticity()
	return g
}

func (g *molGraph) symbol(i int) string { return g.mol.Atoms[i].Symbol }

func (g *molGraph) isHydrogen(i int) bool { return g.symbol(i) == "H" }

// computeImplicitH fills the lowest allowed valence that fits the explicit one.
func (g *molGraph) computeImplicitH(i int) int {
	atom := g.mol.Atoms[i]
	el, ok := lookupElement(atom.Symbol)
	if !ok || len(el.valences) == 0 {
		return 0
	}
	sum := 0.0
	for _, n := range g.nbrs[i] {
		sum += g.mol.Bonds[n.bond].valence()
	}
	explicit := int(math.Ceil(sum))
	for _, v := range el.valences {
		target := chargedValence(atom.Symbol, v, atom.Charge)
		if target >= explicit {
			return target - explicit
		}
	}
	return 0
}

func chargedValence(symbol string, valence, charge int) int {
	switch symbol {
	case "C", "Si", "H":
		if charge < 0 {
			charge = -charge
		}
		return valence - charge
	case "B":
		return valence - charge
	default:
		return valence + charge
	}
}

// totalH counts implicit hydrogens plus explicit hydrogen neighbours.
func (g *molGraph) totalH(i int) int {
	h := g.implicitH[i]
	for _, n := range g.nbrs[i] {
		if g.isHydrogen(n.atom) {
			h++
		}
	}
	return h
}

func (g *molGraph) heavyAtoms() int {
	n := 0
	for i := range g.mol.Atoms {
		if !g.isHydrogen(i) {
			n++
		}
	}
	return n
}

func (g *molGraph) heavyBonds() int {
	n := 0
	for _, b := range g.mol.Bonds {
		if !g.isHydrogen(b.From) && !g.isHydrogen(b.To) {
			n++
		}
	}
	return n
}

func (g *molGraph) molecularWeight() float64 {
	total := 0.0
	for i, a := range g.mol.Atoms {
		if el, ok := lookupElement(a.Symbol); ok {
			total += el.weight
		}
		total += float64(g.implicitH[i]) * hydrogenWeight
	}
	return total
}

func (g *molGraph) formula() string {
	counts := make(map[string]int)
	for i, a := range g.mol.Atoms {
		if a.IsDummy() {
			continue
		}
		counts[a.Symbol]++
		if g.implicitH[i] > 0 {
			counts["H"] += g.implicitH[i]
		}
	}
	if len(counts) == 0 {
		return ""
	}

	symbols := make([]string, 0, len(counts))
	for s := range counts {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	if counts["C"] > 0 {
		ordered := []string{"C"}
		if counts["H"] > 0 {
			ordered = append(ordered, "H")
		}
		for _, s := range symbols {
			if s != "C" && s != "H" {
				ordered = append(ordered, s)
			}
		}
		symbols = ordered
	}

	var b strings.Builder
	for _, s := range symbols {
		b.WriteString(s)
		if counts[s] > 1 {
			fmt.Fprintf(&b, "%d", counts[s])
		}
	}
	return b.String()
}

// ─── Aromaticity ────────────────────────────────────────────────────────────

// perceiveAromaticity marks Kekulé five and six membered rings as aromatic.
// Fused systems are resolved by iterating until no ring changes state.
func (g *molGraph) perceiveAromaticity() {
	rings := g.smallRings()
	done := make([]bool, len(rings))
	for changed := true; changed; {
		changed = false
		for r, ring := range rings {
			if done[r] || !g.ringIsAromatic(ring) {
				continue
			}
			done[r] = true
			changed = true
			for k, a := range ring {
				g.aromaticAtom[a] = true
				if b := g.bondBetween(a, ring[(k+1)%len(ring)]); b >= 0 {
					g.aromaticBond[b] = true
				}
			}
		}
	}
}

func (g *molGraph) bondBetween(a, b int) int {
	for _, n := range g.nbrs[a] {
		if n.atom == b {
			return n.bond
		}
	}
	return -1
}

// smallRings enumerates simple cycles of five or six heavy atoms.
func (g *molGraph) smallRings() [][]int {
	var rings [][]int
	seen := make(map[string]bool)
	path := make([]int, 0, 6)
	onPath := make([]bool, len(g.mol.Atoms))

	var walk func(start, cur int)
	walk = func(start, cur int) {
		for _, n := range g.nbrs[cur] {
			next := n.atom
			if g.isHydrogen(next) {
				continue
			}
			if next == start && len(path) >= 5 {
				key := ringKey(path)
				if !seen[key] {
					seen[key] = true
					rings = append(rings, append([]int(nil), path...))
				}
				continue
			}
			if next <= start || onPath[next] || len(path) == 6 {
				continue
			}
			path = append(path, next)
			onPath[next] = true
			walk(start, next)
			onPath[next] = false
			path = path[:len(path)-1]
		}
	}

	for s := range g.mol.Atoms {
		if g.isHydrogen(s) {
			continue
		}
		path = append(path[:0], s)
		onPath[s] = true
		walk(s, s)
		onPath[s] = false
	}
	return rings
}

func ringKey(path []int) string {
	sorted := append([]int(nil), path...)
	sort.Ints(sorted)
	return fmt.Sprint(sorted)
}

func (g *molGraph) ringIsAromatic(ring []int) bool {
	inRing := make(map[int]bool, len(ring))
	for _, a := range ring {
		inRing[a] = true
	}
	// piAtoms have a double or aromatic bond inside the ring, or a double
	// bond into an already aromatic neighbour (fused systems).
	lonePair := -1
	for _, a := range ring {
		if g.hasPiBond(a, inRing) {
			continue
		}
		if lonePair >= 0 || len(ring) != 5 || !g.canDonateLonePair(a) {
			return false
		}
		lonePair = a
	}
	if len(ring) == 6 {
		for _, a := range ring {
			if s := g.symbol(a); s != "C" && s != "N" {
				return false
			}
		}
		return true
	}
	return lonePair >= 0 || g.allAromatic(ring)
}

func (g *molGraph) allAromatic(ring []int) bool {
	for _, a := range ring {
		if !g.aromaticAtom[a] {
			return false
		}
	}
	return true
}

func (g *molGraph) hasPiBond(a int, inRing map[int]bool) bool {
	for _, n := range g.nbrs[a] {
		b := g.mol.Bonds[n.bond]
		switch {
		case inRing[n.atom] && (b.Type == BondDouble || g.aromaticBond[n.bond]):
			return true
		case !inRing[n.atom] && b.Type == BondDouble && g.aromaticAtom[n.atom]:
			return true
		}
	}
	return false
}

func (g *molGraph) canDonateLonePair(a int) bool {
	switch g.symbol(a) {
	case "O", "S", "Se":
		return true
	case "N":
		return g.mol.Atoms[a].Charge == 0 && len(g.nbrs[a])+g.implicitH[a] == 3
	}
	return false
}

// ─── Crippen logP ───────────────────────────────────────────────────────────

// Atom type contributions from Wildman and Crippen, J. Chem. Inf. Comput.
// Sci. 1999, 39, 868-873.
const (
	crippenC1  = 0.1441
	crippenC2  = 0.0
	crippenC3  = -0.2035
	crippenC4  = -0.2051
	crippenC5  = -0.2783
	crippenC6  = 0.1551
	crippenC7  = 0.0017
	crippenC8  = 0.08452
	crippenC9  = -0.1444
	crippenC10 = -0.0516
	crippenC11 = 0.1193
	crippenC12 = -0.0967
	crippenC13 = -0.5443
	crippenC14 = 0.0
	crippenC15 = 0.245
	crippenC16 = 0.198
	crippenC17 = 0.0
	crippenC18 = 0.1581
	crippenC19 = 0.2955
	crippenC20 = 0.2713
	crippenC21 = 0.136
	crippenC22 = 0.4619
	crippenC23 = 0.5437
	crippenC24 = 0.1893
	crippenC25 = -0.8186
	crippenC26 = 0.264
	crippenC27 = 0.2148

	crippenH1 = 0.123
	crippenH2 = -0.2677
	crippenH3 = 0.2142
	crippenH4 = 0.298
	crippenHS = 0.1125

	crippenN1  = -1.019
	crippenN2  = -0.7096
	crippenN3  = -1.027
	crippenN4  = -0.5188
	crippenN5  = 0.08387
	crippenN6  = 0.1836
	crippenN7  = -0.3187
	crippenN8  = -0.4458
	crippenN9  = 0.01508
	crippenN10 = -1.950
	crippenN11 = -0.3239
	crippenN12 = -1.119
	crippenN13 = -0.3396
	crippenNS  = -0.4806

	crippenO1  = 0.1552
	crippenO2  = -0.2893
	crippenO3  = -0.0684
	crippenO4  = -0.4195
	crippenO5  = 0.0335
	crippenO6  = -0.3339
	crippenO7  = -1.189
	crippenO8  = 0.1788
	crippenO9  = -0.1526
	crippenO10 = 0.1129
	crippenO11 = 0.4833
	crippenO12 = -1.326
	crippenOS  = -0.1188

	crippenF  = 0.4202
	crippenCl = 0.6895
	crippenBr = 0.8456
	crippenI  = 0.8857
	crippenP  = 0.8612
	crippenS1 = 0.6482
	crippenS2 = -0.0024
	crippenS3 = 0.6237
)

var heteroForCarbon = map[string]bool{"N": true, "O": true, "P": true, "S": true, "F": true, "Cl": true, "Br": true, "I": true}

func (g *molGraph) logP() float64 {
	total := 0.0
	for i := range g.mol.Atoms {
		if g.isHydrogen(i) {
			heavy := -1
			for _, n := range g.nbrs[i] {
				if !g.isHydrogen(n.atom) {
					heavy = n.atom
					break
				}
			}
			total += g.hydrogenContribution(heavy)
			continue
		}
		total += g.heavyContribution(i)
		total += float64(g.implicitH[i]) * g.hydrogenContribution(i)
	}
	return total
}

func (g *molGraph) hydrogenContribution(heavy int) float64 {
	if heavy < 0 {
		return crippenH1
	}
	switch g.symbol(heavy) {
	case "C":
		return crippenH1
	case "N":
		return crippenH3
	case "O":
		for _, n := range g.nbrs[heavy] {
			if g.symbol(n.atom) == "C" && g.hasDoubleTo(n.atom, "O", "N", "S") {
				return crippenH4
			}
		}
		return crippenH2
	default:
		return crippenHS
	}
}

// hasDoubleTo reports a non-aromatic double bond from a to any of symbols.
func (g *molGraph) hasDoubleTo(a int, symbols ...string) bool {
	for _, n := range g.nbrs[a] {
		if g.mol.Bonds[n.bond].Type != BondDouble || g.aromaticBond[n.bond] {
			continue
		}
		for _, s := range symbols {
			if g.symbol(n.atom) == s {
				return true
			}
		}
	}
	return false
}

type bondSummary struct {
	double, triple   []int
	aromaticNeighbor bool
	aromaticCarbon   bool
}

func (g *molGraph) summarize(i int) bondSummary {
	var s bondSummary
	for _, n := range g.nbrs[i] {
		if g.isHydrogen(n.atom) {
			continue
		}
		if g.aromaticBond[n.bond] {
			continue
		}
		switch g.mol.Bonds[n.bond].Type {
		case BondDouble:
			s.double = append(s.double, n.atom)
		case BondTriple:
			s.triple = append(s.triple, n.atom)
		}
		if g.aromaticAtom[n.atom] {
			s.aromaticNeighbor = true
			if g.symbol(n.atom) == "C" {
				s.aromaticCarbon = true
			}
		}
	}
	return s
}

func (g *molGraph) heavyContribution(i int) float64 {
	atom := g.mol.Atoms[i]
	switch atom.Symbol {
	case "C":
		if g.aromaticAtom[i] {
			return g.aromaticCarbon(i)
		}
		return g.aliphaticCarbon(i)
	case "N":
		return g.nitrogen(i)
	case "O":
		return g.oxygen(i)
	case "S":
		switch {
		case g.aromaticAtom[i]:
			return crippenS3
		case atom.Charge != 0:
			return crippenS2
		}
		return crippenS1
	case "F":
		return crippenF
	case "Cl":
		return crippenCl
	case "Br":
		return crippenBr
	case "I":
		return crippenI
	case "P":
		return crippenP
	}
	return 0
}

func (g *molGraph) aliphaticCarbon(i int) float64 {
	s := g.summarize(i)
	h := g.totalH(i)
	switch {
	case len(s.triple) > 0:
		return crippenC7
	case len(s.double) > 0:
		for _, p := range s.double {
			if g.symbol(p) != "C" {
				return crippenC5
			}
		}
		if s.aromaticNeighbor {
			return crippenC26
		}
		return crippenC6
	case s.aromaticNeighbor:
		switch h {
		case 3:
			if s.aromaticCarbon {
				return crippenC8
			}
			return crippenC9
		case 2:
			return crippenC10
		case 1:
			return crippenC11
		}
		return crippenC12
	}

	hetero, other := false, false
	for _, n := range g.nbrs[i] {
		sym := g.symbol(n.atom)
		switch {
		case sym == "C" || sym == "H":
		case heteroForCarbon[sym]:
			hetero = true
		default:
			other = true
		}
	}
	switch {
	case hetero && h >= 2:
		return crippenC3
	case hetero:
		return crippenC4
	case other:
		return crippenC27
	case h >= 2:
		return crippenC1
	}
	return crippenC2
}

func (g *molGraph) aromaticCarbon(i int) float64 {
	if g.totalH(i) > 0 {
		return crippenC18
	}
	for _, n := range g.nbrs[i] {
		if g.aromaticBond[n.bond] || g.isHydrogen(n.atom) {
			continue
		}
		sym := g.symbol(n.atom)
		if g.mol.Bonds[n.bond].Type == BondDouble {
			if sym == "C" || sym == "N" || sym == "O" {
				return crippenC25
			}
			return crippenC13
		}
		if g.aromaticAtom[n.atom] {
			return crippenC20
		}
		switch sym {
		case "C":
			return crippenC21
		case "N":
			return crippenC22
		case "O":
			return crippenC23
		case "S":
			return crippenC24
		case "F":
			return crippenC14
		case "Cl":
			return crippenC15
		case "Br":
			return crippenC16
		case "I":
			return crippenC17
		}
		return crippenC13
	}
	return crippenC19
}

func (g *molGraph) nitrogen(i int) float64 {
	charge := g.mol.Atoms[i].Charge
	h := g.totalH(i)
	if g.aromaticAtom[i] {
		if charge > 0 {
			return crippenN12
		}
		return crippenN11
	}
	switch {
	case charge > 0 && h > 0:
		return crippenN10
	case charge > 0:
		return crippenN13
	case charge < 0:
		return crippenNS
	}

	s := g.summarize(i)
	switch {
	case len(s.triple) > 0:
		return crippenN9
	case len(s.double) > 0:
		return crippenN5
	}
	aromatic := 0
	for _, n := range g.nbrs[i] {
		if g.aromaticAtom[n.atom] {
			aromatic++
		}
	}
	switch {
	case h >= 2 && aromatic > 0:
		return crippenN3
	case h >= 2:
		return crippenN1
	case h == 1 && aromatic > 0:
		return crippenN4
	case h == 1:
		return crippenN2
	case aromatic == 0:
		return crippenN6
	case aromatic == 1:
		return crippenN7
	}
	return crippenN8
}

func (g *molGraph) oxygen(i int) float64 {
	if g.aromaticAtom[i] {
		return crippenO1
	}
	var heavy []neighbor
	for _, n := range g.nbrs[i] {
		if !g.isHydrogen(n.atom) {
			heavy = append(heavy, n)
		}
	}

	if g.mol.Atoms[i].Charge < 0 && len(heavy) == 1 {
		switch g.symbol(heavy[0].atom) {
		case "N":
			return crippenO5
		case "S":
			return crippenO6
		case "P":
			return crippenO7
		case "C":
			return crippenO12
		}
		return crippenOS
	}

	for _, n := range heavy {
		if g.mol.Bonds[n.bond].Type != BondDouble {
			continue
		}
		p := n.atom
		switch sym := g.symbol(p); {
		case sym == "N" || sym == "O":
			return crippenO5
		case sym != "C":
			return crippenOS
		case g.aromaticAtom[p]:
			return crippenO8
		}
		heteroSubstituents, aromaticSubstituent := 0, false
		for _, pn := range g.nbrs[p] {
			if pn.atom == i || g.isHydrogen(pn.atom) {
				continue
			}
			if g.aromaticAtom[pn.atom] {
				aromaticSubstituent = true
			}
			if g.symbol(pn.atom) != "C" {
				heteroSubstituents++
			}
		}
		switch {
		case aromaticSubstituent:
			return crippenO10
		case heteroSubstituents >= 2:
			return crippenO11
		}
		return crippenO9
	}

	if g.totalH(i) > 0 {
		return crippenO2
	}
	for _, n := range heavy {
		if g.aromaticAtom[n.atom] {
			return crippenO4
		}
	}
	return crippenO3
}
