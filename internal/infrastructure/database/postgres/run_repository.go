package postgres

import (
	"context"
	"database/sql"

	"github.com/turtacn/dockview/internal/domain/docking"
	"github.com/turtacn/dockview/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/dockview/pkg/errors"
)

// RunRepository stores docking runs in the docking_runs table.
type RunRepository struct {
	conn   *Connection
	logger logging.Logger
}

// NewRunRepository returns a docking.RunRepository.
func NewRunRepository(conn *Connection, log logging.Logger) *RunRepository {
	return &RunRepository{conn: conn, logger: log}
}

var _ docking.RunRepository = (*RunRepository)(nil)

const insertRun = `
INSERT INTO docking_runs
	(id, session_id, ligand_index, ligand_name, engine, mode, status, score, reason, duration_ms, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

const selectRunsBySession = `
SELECT id, session_id, ligand_index, ligand_name, engine, mode, status, score, reason, duration_ms, created_at
FROM docking_runs
WHERE session_id = $1
ORDER BY created_at DESC
LIMIT $2`

// Record inserts one run.
func (r *RunRepository) Record(ctx context.Context, run docking.Run) error {
	var score sql.NullFloat64
	if run.Score != nil {
		score = sql.NullFloat64{Float64: *run.Score, Valid: true}
	}
	_, err := r.conn.DB().ExecContext(ctx, insertRun,
		run.ID, run.SessionID, run.LigandIndex, run.LigandName, run.Engine, string(run.Mode),
		run.Status, score, run.Reason, run.DurationMS, run.CreatedAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to record docking run").WithDetail(run.ID)
	}
	return nil
}

// ListBySession returns the newest runs of a session. limit <= 0 means 100.
func (r *RunRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]docking.Run, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.conn.DB().QueryContext(ctx, selectRunsBySession, sessionID, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list docking runs")
	}
	defer rows.Close()

	var out []docking.Run
	for rows.Next() {
		var (
			run   docking.Run
			mode  string
			score sql.NullFloat64
		)
		if err := rows.Scan(&run.ID, &run.SessionID, &run.LigandIndex, &run.LigandName, &run.Engine,
			&mode, &run.Status, &score, &run.Reason, &run.DurationMS, &run.CreatedAt); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan docking run")
		}
		run.Mode = docking.Mode(mode)
		if score.Valid {
			v := score.Float64
			run.Score = &v
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate docking runs")
	}
	return out, nil
}
