package client

import "time"

// Score orders accepted by Sort and Extract.
const (
	OrderAscending  = "ascending"
	OrderDescending = "descending"
)

// Ligand is one extracted SDF record.
type Ligand struct {
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

// SkippedBlock reports an SDF block that produced no ligand.
type SkippedBlock struct {
	Index   int    `json:"index"`
	Reason  string `json:"reason"`
	Message string `json:"message,omitempty"`
}

// BindingSite is a docking search box in Angstrom.
type BindingSite struct {
	Center [3]float64 `json:"center"`
	Size   [3]float64 `json:"size"`
}

// Preset is a known protein target with a default binding site.
type Preset struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Site        BindingSite `json:"binding_site"`
	KeyResidues []int       `json:"key_residues,omitempty"`
}

// View is the state of a session around its cursor.
type View struct {
	SessionID    string       `json:"session_id"`
	ProteinName  string       `json:"protein_name,omitempty"`
	ProteinAtoms int          `json:"protein_atoms"`
	LigandFile   string       `json:"ligand_file,omitempty"`
	Position     int          `json:"position"`
	Total        int          `json:"total"`
	HasPrevious  bool         `json:"has_previous"`
	HasNext      bool         `json:"has_next"`
	Order        string       `json:"order"`
	Ligand       *Ligand      `json:"ligand,omitempty"`
	Site         *BindingSite `json:"site,omitempty"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// ProteinInfo summarizes a loaded receptor.
type ProteinInfo struct {
	Name       string   `json:"name"`
	Atoms      int      `json:"atoms"`
	Residues   int      `json:"residues"`
	Chains     []string `json:"chains"`
	ArchiveKey string   `json:"archive_key,omitempty"`
}

// LoadResult is returned after uploading a ligand file.
type LoadResult struct {
	File       string         `json:"file"`
	Blocks     int            `json:"blocks"`
	Loaded     int            `json:"loaded"`
	Skipped    []SkippedBlock `json:"skipped,omitempty"`
	ArchiveKey string         `json:"archive_key,omitempty"`
	View       *View          `json:"view"`
}

// DockingResult is the output of one docking or scoring run.
type DockingResult struct {
	Engine   string        `json:"engine"`
	Score    float64       `json:"score"`
	Poses    string        `json:"poses,omitempty"`
	Duration time.Duration `json:"duration"`
}

// RescoreResult is returned by Rescore.
type RescoreResult struct {
	Position  int            `json:"position"`
	Ligand    *Ligand        `json:"ligand"`
	VinaScore float64        `json:"vina_score"`
	Result    *DockingResult `json:"result"`
}

// BatchResult maps ligand positions to scores or failure messages.
type BatchResult struct {
	Scores   map[int]float64 `json:"scores"`
	Failures map[int]string  `json:"failures,omitempty"`
}

// RescoreJob is an accepted asynchronous rescore request.
type RescoreJob struct {
	JobID       string    `json:"job_id"`
	SessionID   string    `json:"session_id"`
	Indices     []int     `json:"indices,omitempty"`
	Parallelism int       `json:"parallelism,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// Extraction is the result of a stateless SDF extraction.
type Extraction struct {
	Name    string         `json:"name,omitempty"`
	Blocks  int            `json:"blocks"`
	Count   int            `json:"count"`
	Records []Ligand       `json:"records"`
	Skipped []SkippedBlock `json:"skipped,omitempty"`
	Order   string         `json:"order,omitempty"`
}

// Environment reports which docking tools the server can run.
type Environment struct {
	Tools map[string]bool `json:"tools"`
	Ready bool            `json:"ready"`
}

// SiteRequest selects a binding site. Set exactly one of Preset,
// Center with Size, or Residues.
type SiteRequest struct {
	Preset   string    `json:"preset,omitempty"`
	Center   []float64 `json:"center,omitempty"`
	Size     []float64 `json:"size,omitempty"`
	Residues []int     `json:"residues,omitempty"`
}
