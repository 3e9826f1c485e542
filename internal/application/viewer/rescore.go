package viewer

import (
	"context"
	"fmt"
	"time"

	"github.com/turtacn/dockview/internal/domain/docking"
	"github.com/turtacn/dockview/internal/domain/ligand"
	"github.com/turtacn/dockview/internal/domain/session"
	"github.com/turtacn/dockview/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/dockview/pkg/errors"
)

// RescoreResult is the outcome of rescoring one ligand.
type RescoreResult struct {
	Position  int             `json:"position"`
	Ligand    ligand.Record   `json:"ligand"`
	VinaScore float64         `json:"vina_score"`
	Result    *docking.Result `json:"result"`
}

// BatchResult is the outcome of rescoring many ligands. Keys are ligand
// block indices.
type BatchResult struct {
	Scores   map[int]float64 `json:"scores"`
	Failures map[int]string  `json:"failures,omitempty"`
}

// Rescore scores one ligand with Vina against the session binding site. A
// negative position selects the ligand under the cursor. The engine runs
// without the session lock; the score is written back under it. A tool
// failure leaves the session untouched and unwraps to docking.ErrNoResult.
func (s *Service) Rescore(ctx context.Context, id string, position int) (*RescoreResult, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireInputs(sess); err != nil {
		return nil, err
	}
	if position < 0 {
		position = sess.CurrentIdx
	}
	if position >= len(sess.Ligands) {
		return nil, errors.Wrap(errors.InvalidParam("ligand position out of range"), errors.ErrCodeLigandIndexInvalid, "ligand position out of range").
			WithDetail(fmt.Sprintf("position=%d total=%d", position, len(sess.Ligands)))
	}
	rec := sess.Ligands[position]

	res, err := s.runEngine(ctx, s.vina, sess.ID, rec.Index, rec.Name, docking.Request{
		Receptor: sess.Protein,
		Ligand:   rec.MolBlock(),
		Site:     s.siteOf(sess),
		Mode:     docking.ModeScoreOnly,
		Label:    rec.Name,
	})
	if err != nil {
		return nil, dockingError(err, rec.Name)
	}

	sess, err = s.mutate(ctx, id, "rescore", func(sess *session.Session) error {
		if !sess.SetVinaScore(rec.Index, res.Score, s.now().UTC()) {
			return errors.New(errors.ErrCodeLigandNotFound, "ligand was replaced while rescoring").WithDetail(rec.Name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	pos := sess.Position(rec.Index)
	return &RescoreResult{
		Position:  pos,
		Ligand:    sess.Ligands[pos],
		VinaScore: res.Score,
		Result:    res,
	}, nil
}

// RescoreAll scores every ligand of the session in parallel and stores each
// successful score. Individual failures are reported, not returned.
func (s *Service) RescoreAll(ctx context.Context, id string) (*BatchResult, error) {
	return s.rescoreIndices(ctx, id, nil, s.opts.Parallelism)
}

// rescoreIndices rescores the ligands with the given block indices, or every
// ligand when indices is empty.
func (s *Service) rescoreIndices(ctx context.Context, id string, indices []int, parallelism int) (*BatchResult, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireInputs(sess); err != nil {
		return nil, err
	}
	if parallelism < 1 {
		parallelism = s.opts.Parallelism
	}

	out := &BatchResult{Scores: make(map[int]float64), Failures: make(map[int]string)}
	var targets []ligand.Record
	if len(indices) == 0 {
		targets = sess.Ligands
	} else {
		for _, idx := range indices {
			pos := sess.Position(idx)
			if pos < 0 {
				out.Failures[idx] = "ligand not found"
				continue
			}
			targets = append(targets, sess.Ligands[pos])
		}
	}

	site := s.siteOf(sess)
	reqs := make([]docking.Request, len(targets))
	for i, rec := range targets {
		reqs[i] = docking.Request{
			Receptor: sess.Protein,
			Ligand:   rec.MolBlock(),
			Site:     site,
			Mode:     docking.ModeScoreOnly,
			Label:    rec.Name,
		}
	}

	started := s.now()
	items := s.batch(ctx, s.vina, reqs, parallelism)
	for _, item := range items {
		rec := targets[item.Index]
		var d time.Duration
		if item.Result != nil {
			d = item.Result.Duration
		}
		s.observeRun(ctx, sess.ID, rec.Index, rec.Name, s.vina.Name(), docking.ModeScoreOnly, item.Result, item.Err, d)
		if item.Succeeded() {
			out.Scores[rec.Index] = item.Result.Score
			continue
		}
		reason := docking.FailureReason(item.Err)
		if reason == "" && item.Err != nil {
			reason = item.Err.Error()
		}
		out.Failures[rec.Index] = reason
	}

	if len(out.Scores) > 0 {
		_, err = s.mutate(ctx, id, "rescore_all", func(sess *session.Session) error {
			now := s.now().UTC()
			for idx, score := range out.Scores {
				if !sess.SetVinaScore(idx, score, now) {
					out.Failures[idx] = "ligand was replaced while rescoring"
					delete(out.Scores, idx)
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	s.logger.Info("batch rescore finished",
		logging.String(logging.FieldSessionID, id),
		logging.Int("scored", len(out.Scores)),
		logging.Int("failed", len(out.Failures)),
		logging.Duration("elapsed", s.now().Sub(started)))
	return out, nil
}

// Dock runs OpenDock for smiles, or for the ligand under the cursor when
// smiles is empty. The ligand list is not modified.
func (s *Service) Dock(ctx context.Context, id, smiles string) (*docking.Result, error) {
	if s.openDock == nil {
		return nil, errors.Unavailable("opendock engine is not configured")
	}
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sess.HasProtein() {
		return nil, errors.New(errors.ErrCodeSessionNoProtein, "no protein loaded").WithDetail(sess.ID)
	}

	req := docking.Request{
		Receptor: sess.Protein,
		SMILES:   smiles,
		Site:     s.siteOf(sess),
		Mode:     docking.ModeDock,
		Label:    "smiles",
	}
	index, name := -1, "smiles"
	if smiles == "" {
		rec, ok := sess.Current()
		if !ok {
			return nil, errors.New(errors.ErrCodeSessionNoLigands, "no ligand selected and no SMILES given").WithDetail(sess.ID)
		}
		req.Ligand, req.SMILES, req.Label = rec.MolBlock(), rec.SMILES(), rec.Name
		index, name = rec.Index, rec.Name
	}

	res, err := s.runEngine(ctx, s.openDock, sess.ID, index, name, req)
	if err != nil {
		return nil, dockingError(err, name)
	}
	if res.Poses != "" {
		s.store(ctx, sess.ID, KindPoses, name+".sdf", res.Poses)
	}
	return res, nil
}

// Environment reports which docking tools are usable.
func (s *Service) Environment(ctx context.Context) docking.EnvironmentStatus {
	if s.env == nil {
		return docking.EnvironmentStatus{docking.StatusVina: false, docking.StatusOpenDockEnv: false}
	}
	return s.env.Check(ctx)
}

func (s *Service) runEngine(ctx context.Context, engine docking.Engine, sessionID string, index int, name string, req docking.Request) (*docking.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDockingPrerequisite, "docking request is incomplete")
	}
	started := s.now()
	res, err := engine.Rescore(ctx, req)
	elapsed := s.now().Sub(started)
	s.observeRun(ctx, sessionID, index, name, engine.Name(), req.Mode, res, err, elapsed)
	return res, err
}

// observeRun logs, counts and records one engine run. Recording failures
// are logged only.
func (s *Service) observeRun(ctx context.Context, sessionID string, index int, name, engine string, mode docking.Mode, res *docking.Result, err error, elapsed time.Duration) {
	run := docking.NewRun(sessionID, index, name, engine, mode, res, err, elapsed, s.now().UTC())

	status := run.Status
	if run.Status == docking.RunFailed {
		status = docking.FailureReason(err)
		if status == "" {
			status = docking.RunFailed
		}
		s.logger.Warn("docking run failed",
			logging.String(logging.FieldSessionID, sessionID),
			logging.String(logging.FieldEngine, engine),
			logging.Int(logging.FieldLigandIndex, index),
			logging.Err(err))
	} else {
		s.logger.Debug("docking run succeeded",
			logging.String(logging.FieldSessionID, sessionID),
			logging.String(logging.FieldEngine, engine),
			logging.Int(logging.FieldLigandIndex, index),
			logging.Float64("score", res.Score))
	}
	s.metrics.RecordDockingRun(engine, status, elapsed)

	if s.runs == nil {
		return
	}
	if rerr := s.runs.Record(ctx, run); rerr != nil {
		s.logger.Warn("failed to record docking run", logging.String("run_id", run.ID), logging.Err(rerr))
	}
}

func requireInputs(sess *session.Session) error {
	if !sess.HasProtein() {
		return errors.New(errors.ErrCodeSessionNoProtein, "no protein loaded").WithDetail(sess.ID)
	}
	if !sess.HasLigands() {
		return errors.New(errors.ErrCodeSessionNoLigands, "no ligands loaded").WithDetail(sess.ID)
	}
	return nil
}

// dockingError maps a runner failure to an application code. The original
// error stays in the chain so errors.Is(err, docking.ErrNoResult) holds.
func dockingError(err error, ligandName string) error {
	if errors.GetCode(err) != errors.CodeUnknown {
		return err
	}
	code := errors.ErrCodeDockingNoResult
	switch docking.FailureReason(err) {
	case docking.ReasonToolMissing:
		code = errors.ErrCodeDockingToolMissing
	case docking.ReasonTimeout:
		code = errors.ErrCodeDockingTimeout
	case docking.ReasonBadOutput:
		code = errors.ErrCodeDockingOutputInvalid
	}
	return errors.Wrap(err, code, "docking produced no result").WithDetail(ligandName)
}
