package ligand

// element describes the properties the descriptor code needs per symbol.
type element struct {
	weight float64
	// valences lists allowed neutral valences in ascending order. Empty means
	// the element never receives implicit hydrogens.
	valences []int
}

// elements holds average atomic weights (IUPAC, 4-5 significant digits).
var elements = map[string]element{
	"H":  {1.008, []int{1}},
	"He": {4.003, nil},
	"Li": {6.941, nil},
	"B":  {10.812, []int{3}},
	"C":  {12.011, []int{4}},
	"N":  {14.007, []int{3, 5}},
	"O":  {15.999, []int{2}},
	"F":  {18.998, []int{1}},
	"Na": {22.990, nil},
	"Mg": {24.305, nil},
	"Al": {26.982, nil},
	"Si": {28.086, []int{4}},
	"P":  {30.974, []int{3, 5, 7}},
	"S":  {32.067, []int{2, 4, 6}},
	"Cl": {35.453, []int{1}},
	"K":  {39.098, nil},
	"Ca": {40.078, nil},
	"Mn": {54.938, nil},
	"Fe": {55.845, nil},
	"Co": {58.933, nil},
	"Ni": {58.693, nil},
	"Cu": {63.546, nil},
	"Zn": {65.390, nil},
	"As": {74.922, []int{3, 5}},
	"Se": {78.960, []int{2, 4, 6}},
	"Br": {79.904, []int{1}},
	"Pt": {195.08, nil},
	"Sn": {118.71, nil},
	"I":  {126.904, []int{1, 3, 5}},
	"Hg": {200.59, nil},
}

// dummySymbols are accepted placeholder atoms (attachment points, R-groups).
var dummySymbols = map[string]bool{"*": true, "R": true, "R#": true, "A": true, "Q": true, "L": true}

func lookupElement(symbol string) (element, bool) {
	e, ok := elements[symbol]
	return e, ok
}

// hydrogenWeight is the average mass of an implicit hydrogen.
const hydrogenWeight = 1.008
