package viewer

import (
	"time"

	"github.com/turtacn/dockview/internal/domain/ligand"
	"github.com/turtacn/dockview/internal/domain/protein"
	"github.com/turtacn/dockview/internal/domain/session"
)

// View is what a client shows for a session. Position is zero-based.
type View struct {
	SessionID    string               `json:"session_id"`
	ProteinName  string               `json:"protein_name,omitempty"`
	ProteinAtoms int                  `json:"protein_atoms"`
	LigandFile   string               `json:"ligand_file,omitempty"`
	Position     int                  `json:"position"`
	Total        int                  `json:"total"`
	HasPrevious  bool                 `json:"has_previous"`
	HasNext      bool                 `json:"has_next"`
	Order        ligand.ScoreOrder    `json:"order"`
	Ligand       *ligand.Record       `json:"ligand,omitempty"`
	Site         *protein.BindingSite `json:"site,omitempty"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

func newView(sess *session.Session) *View {
	v := &View{
		SessionID:    sess.ID,
		ProteinName:  sess.ProteinName,
		ProteinAtoms: sess.ProteinAtoms,
		LigandFile:   sess.LigandFile,
		Position:     sess.CurrentIdx,
		Total:        len(sess.Ligands),
		Order:        sess.Order,
		Site:         sess.Site,
		UpdatedAt:    sess.UpdatedAt,
	}
	if rec, ok := sess.Current(); ok {
		cp := *rec
		v.Ligand = &cp
		v.HasPrevious = sess.CurrentIdx > 0
		v.HasNext = sess.CurrentIdx+1 < len(sess.Ligands)
	}
	return v
}
