// Package session holds the state of one viewer session: the uploaded protein,
// the extracted ligand list and the navigation cursor.
package session

import (
	"fmt"
	"time"

	"github.com/turtacn/dockview/internal/domain/ligand"
	"github.com/turtacn/dockview/internal/domain/protein"
)

// Session is the aggregate persisted by a Repository. A new session has no
// protein, no ligands and cursor 0.
type Session struct {
	ID           string               `json:"id"`
	ProteinName  string               `json:"protein_name,omitempty"`
	Protein      string               `json:"protein,omitempty"`
	ProteinAtoms int                  `json:"protein_atoms"`
	LigandFile   string               `json:"ligand_file,omitempty"`
	Ligands      []ligand.Record      `json:"ligands"`
	Skipped      []ligand.Skipped     `json:"skipped,omitempty"`
	CurrentIdx   int                  `json:"current_idx"`
	Order        ligand.ScoreOrder    `json:"order"`
	Site         *protein.BindingSite `json:"site,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// New creates an empty session.
func New(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		Ligands:   []ligand.Record{},
		Order:     ligand.OrderAscending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasProtein reports whether a protein has been uploaded.
func (s *Session) HasProtein() bool { return s.Protein != "" }

// HasLigands reports whether the ligand list is non-empty.
func (s *Session) HasLigands() bool { return len(s.Ligands) > 0 }

// SetProtein replaces the protein. The binding site is kept: it was chosen
// explicitly and may still apply to the new structure.
func (s *Session) SetProtein(name, text string, atoms int, now time.Time) {
	s.ProteinName = name
	s.Protein = text
	s.ProteinAtoms = atoms
	s.UpdatedAt = now
}

// ReplaceLigands swaps the whole ligand list and resets the cursor.
func (s *Session) ReplaceLigands(file string, ex ligand.Extraction, order ligand.ScoreOrder, now time.Time) {
	s.LigandFile = file
	s.Ligands = ex.Records
	if s.Ligands == nil {
		s.Ligands = []ligand.Record{}
	}
	s.Skipped = ex.Skipped
	s.Order = order
	s.CurrentIdx = 0
	s.UpdatedAt = now
}

// Next moves the cursor forward. It reports false at the last ligand.
func (s *Session) Next(now time.Time) bool {
	if s.CurrentIdx+1 >= len(s.Ligands) {
		return false
	}
	s.CurrentIdx++
	s.UpdatedAt = now
	return true
}

// Previous moves the cursor back. It reports false at the first ligand.
func (s *Session) Previous(now time.Time) bool {
	if s.CurrentIdx == 0 {
		return false
	}
	s.CurrentIdx--
	s.UpdatedAt = now
	return true
}

// Select moves the cursor to position i of the current ordering.
func (s *Session) Select(i int, now time.Time) error {
	if i < 0 || i >= len(s.Ligands) {
		return fmt.Errorf("ligand position %d out of range [0, %d)", i, len(s.Ligands))
	}
	s.CurrentIdx = i
	s.UpdatedAt = now
	return nil
}

// Sort reorders the ligands and resets the cursor.
func (s *Session) Sort(order ligand.ScoreOrder, now time.Time) {
	ligand.Sort(s.Ligands, order)
	s.Order = order
	s.CurrentIdx = 0
	s.UpdatedAt = now
}

// Current returns the ligand under the cursor.
func (s *Session) Current() (*ligand.Record, bool) {
	if s.CurrentIdx < 0 || s.CurrentIdx >= len(s.Ligands) {
		return nil, false
	}
	return &s.Ligands[s.CurrentIdx], true
}

// Position returns the list position of the ligand extracted from block
// index, or -1.
func (s *Session) Position(index int) int {
	for i, r := range s.Ligands {
		if r.Index == index {
			return i
		}
	}
	return -1
}

// SetVinaScore stores a rescoring result on the ligand with block index.
func (s *Session) SetVinaScore(index int, score float64, now time.Time) bool {
	pos := s.Position(index)
	if pos < 0 {
		return false
	}
	v := score
	s.Ligands[pos].VinaScore = &v
	s.UpdatedAt = now
	return true
}

// SetSite replaces the binding site.
func (s *Session) SetSite(site protein.BindingSite, now time.Time) {
	s.Site = &site
	s.UpdatedAt = now
}
