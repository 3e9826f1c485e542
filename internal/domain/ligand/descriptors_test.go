package ligand

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, block string) *Molecule {
	t.Helper()
	mol, err := ParseMolBlock(block)
	require.NoError(t, err)
	return mol
}

func fixtureRecords(t *testing.T, name string) []string {
	t.Helper()
	var blocks []string
	for _, b := range strings.Split(readFixture(t, name), RecordDelimiter) {
		if b = strings.TrimSpace(b); b != "" {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

func TestDescribe(t *testing.T) {
	blocks := fixtureRecords(t, "poses.sdf")
	pyridine := fixtureRecords(t, "pyridine_v3000.sdf")[0]

	tests := []struct {
		name    string
		block   string
		mw      float64
		logP    float64
		formula string
		atoms   int
		bonds   int
	}{
		{name: "ethanol", block: blocks[0], mw: 46.069, logP: -0.0014, formula: "C2H6O", atoms: 3, bonds: 2},
		{name: "methane", block: blocks[1], mw: 16.043, logP: 0.6361, formula: "CH4", atoms: 1, bonds: 0},
		{name: "acetic_acid", block: blocks[2], mw: 60.052, logP: 0.0909, formula: "C2H4O2", atoms: 4, bonds: 3},
		{name: "kekule_benzene", block: blocks[4], mw: 78.114, logP: 1.6866, formula: "C6H6", atoms: 6, bonds: 6},
		{name: "aromatic_pyridine", block: pyridine, mw: 79.102, logP: 1.0816, formula: "C5H5N", atoms: 6, bonds: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Describe(mustParse(t, tt.block))
			assert.InDelta(t, tt.mw, d.MolecularWeight, 1e-3)
			assert.InDelta(t, tt.logP, d.LogP, 1e-4)
			assert.Equal(t, tt.formula, d.Formula)
			assert.Equal(t, tt.atoms, d.HeavyAtoms)
			assert.Equal(t, tt.bonds, d.HeavyBonds)
		})
	}
}

func TestImplicitHydrogens_Charged(t *testing.T) {
	block := strings.Join([]string{
		"methylammonium", "", "",
		"  2  1  0  0  0  0  0  0  0  0999 V2000",
		"    0.0000    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0",
		"    1.4700    0.0000    0.0000 N   0  0  0  0  0  0  0  0  0  0  0  0",
		"  1  2  1  0",
		"M  CHG  1   2   1",
		"M  END",
	}, "\n")
	mol := mustParse(t, block)

	assert.Equal(t, []int{3, 3}, ImplicitHydrogens(mol))
	assert.Equal(t, "CH6N", Formula(mol))
}

func TestImplicitHydrogens_ExplicitHydrogens(t *testing.T) {
	block := strings.Join([]string{
		"water", "", "",
		"  3  2  0  0  0  0  0  0  0  0999 V2000",
		"    0.0000    0.0000    0.0000 O   0  0  0  0  0  0  0  0  0  0  0  0",
		"    0.9600    0.0000    0.0000 H   0  0  0  0  0  0  0  0  0  0  0  0",
		"   -0.2400    0.9300    0.0000 H   0  0  0  0  0  0  0  0  0  0  0  0",
		"  1  2  1  0",
		"  1  3  1  0",
		"M  END",
	}, "\n")
	mol := mustParse(t, block)

	assert.Equal(t, []int{0, 0, 0}, ImplicitHydrogens(mol))
	assert.InDelta(t, 18.015, MolecularWeight(mol), 1e-3)
	assert.Equal(t, "H2O", Formula(mol))

	d := Describe(mol)
	assert.Equal(t, 1, d.HeavyAtoms)
	assert.Equal(t, 0, d.HeavyBonds)
}

func TestFormula_HillOrderWithoutCarbon(t *testing.T) {
	block := strings.Join([]string{
		"hcl", "", "",
		"  1  0  0  0  0  0  0  0  0  0999 V2000",
		"    0.0000    0.0000    0.0000 Cl  0  0  0  0  0  0  0  0  0  0  0  0",
		"M  END",
	}, "\n")
	assert.Equal(t, "ClH", Formula(mustParse(t, block)))
}

func TestLogP_KetoneIsNotAromatic(t *testing.T) {
	// Cyclohexa-2,5-dien-1,4-dione: two ring double bonds plus exocyclic C=O.
	block := strings.Join([]string{
		"benzoquinone", "", "",
		"  8  8  0  0  0  0  0  0  0  0999 V2000",
		"    1.3900    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0",
		"    0.6950    1.2038    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0",
		"   -0.6950    1.2038    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0",
		"   -1.3900    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0",
		"   -0.6950   -1.2038    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0",
		"    0.6950   -1.2038    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0",
		"    2.6100    0.0000    0.0000 O   0  0  0  0  0  0  0  0  0  0  0  0",
		"   -2.6100    0.0000    0.0000 O   0  0  0  0  0  0  0  0  0  0  0  0",
		"  1  2  1  0",
		"  2  3  2  0",
		"  3  4  1  0",
		"  4  5  1  0",
		"  5  6  2  0",
		"  6  1  1  0",
		"  1  7  2  0",
		"  4  8  2  0",
		"M  END",
	}, "\n")
	g := newMolGraph(mustParse(t, block))
	for i := 0; i < 6; i++ {
		assert.False(t, g.aromaticAtom[i], "atom %d", i)
	}
	assert.Equal(t, "C6H4O2", g.formula())
}
