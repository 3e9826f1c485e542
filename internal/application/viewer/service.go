// Package viewer is the application service behind every DockView surface.
// It owns session state transitions: uploads, navigation, binding-site
// selection, rescoring and rendering.
package viewer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/dockview/internal/domain/docking"
	"github.com/turtacn/dockview/internal/domain/ligand"
	"github.com/turtacn/dockview/internal/domain/protein"
	"github.com/turtacn/dockview/internal/domain/session"
	dockrun "github.com/turtacn/dockview/internal/infrastructure/docking"
	"github.com/turtacn/dockview/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/dockview/pkg/errors"
)

// Archive object kinds.
const (
	KindProtein = "protein"
	KindLigands = "ligands"
	KindPoses   = "poses"
)

// Deps are the collaborators of a Service. Sessions and Vina are required;
// the rest may be nil.
type Deps struct {
	Sessions    session.Repository
	Vina        docking.Engine
	OpenDock    docking.Engine
	Environment EnvironmentChecker
	Archive     Archive
	Runs        RunRecorder
	Jobs        JobPublisher
	Metrics     Observer
	Batch       BatchFunc
	Logger      logging.Logger
}

// Service implements the viewer use cases.
type Service struct {
	sessions session.Repository
	vina     docking.Engine
	openDock docking.Engine
	env      EnvironmentChecker
	archive  Archive
	runs     RunRecorder
	jobs     JobPublisher
	metrics  Observer
	batch    BatchFunc
	logger   logging.Logger
	opts     Options
	now      func() time.Time
}

// NewService wires a Service.
func NewService(deps Deps, opts Options) (*Service, error) {
	if deps.Sessions == nil {
		return nil, fmt.Errorf("viewer: session repository is required")
	}
	if deps.Vina == nil {
		return nil, fmt.Errorf("viewer: vina engine is required")
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}
	if deps.Metrics == nil {
		deps.Metrics = nopObserver{}
	}
	if deps.Batch == nil {
		deps.Batch = dockrun.BatchRescore
	}
	if opts.Catalog == nil {
		opts.Catalog = protein.NewCatalog()
	}
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	if opts.Render.Width == 0 {
		opts.Render = DefaultRenderOptions()
	}
	return &Service{
		sessions: deps.Sessions,
		vina:     deps.Vina,
		openDock: deps.OpenDock,
		env:      deps.Environment,
		archive:  deps.Archive,
		runs:     deps.Runs,
		jobs:     deps.Jobs,
		metrics:  deps.Metrics,
		batch:    deps.Batch,
		logger:   deps.Logger.Named("viewer"),
		opts:     opts,
		now:      time.Now,
	}, nil
}

// Presets lists the configured protein presets.
func (s *Service) Presets() []protein.Preset { return s.opts.Catalog.List() }

// Create starts an empty session.
func (s *Service) Create(ctx context.Context) (*session.Session, error) {
	sess := session.New(uuid.NewString(), s.now().UTC())
	err := s.sessions.Save(ctx, sess)
	s.metrics.RecordSessionOp("create", err)
	if err != nil {
		return nil, err
	}
	s.logger.Info("session created", logging.String(logging.FieldSessionID, sess.ID))
	return sess, nil
}

// Get returns the stored session.
func (s *Service) Get(ctx context.Context, id string) (*session.Session, error) {
	return s.sessions.Get(ctx, id)
}

// Delete drops a session.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.sessions.Delete(ctx, id)
	s.metrics.RecordSessionOp("delete", err)
	return err
}

// ProteinInfo summarises an uploaded structure.
type ProteinInfo struct {
	Name       string   `json:"name"`
	Atoms      int      `json:"atoms"`
	Residues   int      `json:"residues"`
	Chains     []string `json:"chains"`
	ArchiveKey string   `json:"archive_key,omitempty"`
}

// LoadProtein replaces the session protein.
func (s *Service) LoadProtein(ctx context.Context, id, name, text string) (*ProteinInfo, error) {
	st, err := protein.Parse(text)
	if err != nil {
		s.metrics.RecordSessionOp("load_protein", err)
		return nil, errors.Wrap(err, errors.ErrCodeProteinEmpty, "protein upload is empty").WithDetail(name)
	}
	info := &ProteinInfo{
		Name:     name,
		Atoms:    st.AtomCount(),
		Residues: len(st.Residues()),
		Chains:   st.Chains(),
	}

	_, err = s.mutate(ctx, id, "load_protein", func(sess *session.Session) error {
		sess.SetProtein(name, text, info.Atoms, s.now().UTC())
		return nil
	})
	if err != nil {
		return nil, err
	}
	info.ArchiveKey = s.store(ctx, id, KindProtein, name, text)

	s.logger.Info("protein loaded",
		logging.String(logging.FieldSessionID, id),
		logging.String("file", name),
		logging.Int("atoms", info.Atoms))
	return info, nil
}

// LoadResult summarises a ligand upload.
type LoadResult struct {
	File       string           `json:"file"`
	Blocks     int              `json:"blocks"`
	Loaded     int              `json:"loaded"`
	Skipped    []ligand.Skipped `json:"skipped,omitempty"`
	ArchiveKey string           `json:"archive_key,omitempty"`
	View       *View            `json:"view"`
}

// Extract runs the configured extraction without touching any session.
// An empty order keeps the configured one.
func (s *Service) Extract(text string, order ligand.ScoreOrder) ligand.Extraction {
	opts := s.opts.Extract
	if order != "" {
		opts.Order = order
	}
	ex := ligand.ApplyFilter(ligand.Extract(text, opts), s.opts.Filter)
	for _, sk := range ex.Skipped {
		s.logger.Warn("ligand block skipped",
			logging.Int("index", sk.Index),
			logging.String("reason", sk.Reason),
			logging.String("message", sk.Message))
	}
	s.metrics.RecordExtraction("extract", ex.Blocks, len(ex.Records), ligand.SkipCounts(ex.Skipped))
	return ex
}

// LoadLigands replaces the session ligand list wholesale and resets the cursor.
func (s *Service) LoadLigands(ctx context.Context, id, name, text string) (*LoadResult, error) {
	ex := s.Extract(text, "")

	sess, err := s.mutate(ctx, id, "load_ligands", func(sess *session.Session) error {
		sess.ReplaceLigands(name, ex, s.opts.Extract.Order, s.now().UTC())
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &LoadResult{
		File:       name,
		Blocks:     ex.Blocks,
		Loaded:     len(ex.Records),
		Skipped:    ex.Skipped,
		ArchiveKey: s.store(ctx, id, KindLigands, name, text),
		View:       newView(sess),
	}
	s.logger.Info("ligands loaded",
		logging.String(logging.FieldSessionID, id),
		logging.String("file", name),
		logging.Int("loaded", res.Loaded),
		logging.Int("skipped", len(res.Skipped)))
	return res, nil
}

// Next advances the cursor; it stays put on the last ligand.
func (s *Service) Next(ctx context.Context, id string) (*View, error) {
	return s.navigate(ctx, id, "next", func(sess *session.Session) error {
		sess.Next(s.now().UTC())
		return nil
	})
}

// Previous moves the cursor back; it stays put on the first ligand.
func (s *Service) Previous(ctx context.Context, id string) (*View, error) {
	return s.navigate(ctx, id, "previous", func(sess *session.Session) error {
		sess.Previous(s.now().UTC())
		return nil
	})
}

// Select moves the cursor to position pos of the current ordering.
func (s *Service) Select(ctx context.Context, id string, pos int) (*View, error) {
	return s.navigate(ctx, id, "select", func(sess *session.Session) error {
		if err := sess.Select(pos, s.now().UTC()); err != nil {
			return errors.Wrap(errors.InvalidParam(err.Error()), errors.ErrCodeLigandIndexInvalid, "ligand position out of range").
				WithDetail(fmt.Sprintf("position=%d total=%d", pos, len(sess.Ligands)))
		}
		return nil
	})
}

// SortByScore re-sorts the ligands and resets the cursor.
func (s *Service) SortByScore(ctx context.Context, id, order string) (*View, error) {
	o, err := ligand.ParseScoreOrder(order)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSortOrderInvalid, "invalid score order").WithDetail(order)
	}
	return s.navigate(ctx, id, "sort", func(sess *session.Session) error {
		sess.Sort(o, s.now().UTC())
		return nil
	})
}

// Current describes the ligand under the cursor.
func (s *Service) Current(ctx context.Context, id string) (*View, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return newView(sess), nil
}

func (s *Service) navigate(ctx context.Context, id, op string, fn func(*session.Session) error) (*View, error) {
	sess, err := s.mutate(ctx, id, op, func(sess *session.Session) error {
		if !sess.HasLigands() {
			return errors.New(errors.ErrCodeSessionNoLigands, "no ligands loaded").WithDetail(sess.ID)
		}
		return fn(sess)
	})
	if err != nil {
		return nil, err
	}
	return newView(sess), nil
}

// SiteRequest selects how a binding site is chosen. Preset wins over an
// explicit box, which wins over residues. Empty residues select the default
// residue range.
type SiteRequest struct {
	Preset   string    `json:"preset,omitempty"`
	Center   []float64 `json:"center,omitempty"`
	Size     []float64 `json:"size,omitempty"`
	Residues []int     `json:"residues,omitempty"`
}

// SetBindingSite stores the docking box used by later runs.
func (s *Service) SetBindingSite(ctx context.Context, id string, req SiteRequest) (protein.BindingSite, error) {
	var site protein.BindingSite
	_, err := s.mutate(ctx, id, "set_site", func(sess *session.Session) error {
		var err error
		site, err = s.resolveSite(sess, req)
		if err != nil {
			return err
		}
		sess.SetSite(site, s.now().UTC())
		return nil
	})
	if err != nil {
		return protein.BindingSite{}, err
	}
	s.logger.Info("binding site set",
		logging.String(logging.FieldSessionID, id),
		logging.Float64s("center", site.Center[:]),
		logging.Float64s("size", site.Size[:]))
	return site, nil
}

func (s *Service) resolveSite(sess *session.Session, req SiteRequest) (protein.BindingSite, error) {
	switch {
	case req.Preset != "":
		p, err := s.opts.Catalog.Get(req.Preset)
		if err != nil {
			return protein.BindingSite{}, errors.Wrap(err, errors.ErrCodeProteinPresetNotFound, "unknown protein preset").WithDetail(req.Preset)
		}
		return p.Site, nil
	case len(req.Center) > 0 || len(req.Size) > 0:
		site, err := protein.NewBindingSite(req.Center, req.Size)
		if err != nil {
			return protein.BindingSite{}, errors.Wrap(err, errors.ErrCodeBindingSiteInvalid, "invalid binding site")
		}
		return site, nil
	default:
		if !sess.HasProtein() {
			return protein.BindingSite{}, errors.New(errors.ErrCodeSessionNoProtein, "no protein loaded").WithDetail(sess.ID)
		}
		st, err := protein.Parse(sess.Protein)
		if err != nil {
			return protein.BindingSite{}, errors.Wrap(err, errors.ErrCodeProteinParseFailed, "stored protein is unreadable")
		}
		return protein.SiteFromResidues(st, req.Residues, s.opts.Site), nil
	}
}

// siteOf returns the session site or the configured fallback.
func (s *Service) siteOf(sess *session.Session) protein.BindingSite {
	if sess.Site != nil {
		return *sess.Site
	}
	return s.opts.Site.Fallback
}

// mutate applies fn to the stored session under the session lock and saves
// the result. fn errors abort without saving.
func (s *Service) mutate(ctx context.Context, id, op string, fn func(*session.Session) error) (sess *session.Session, err error) {
	defer func() { s.metrics.RecordSessionOp(op, err) }()

	unlock, err := s.sessions.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer func() {
		if uerr := unlock(context.WithoutCancel(ctx)); uerr != nil {
			s.logger.Warn("session unlock failed", logging.String(logging.FieldSessionID, id), logging.Err(uerr))
		}
	}()

	sess, err = s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err = fn(sess); err != nil {
		return nil, err
	}
	if err = s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// store archives an upload. Archive failures are logged; the upload itself
// already succeeded.
func (s *Service) store(ctx context.Context, id, kind, name, content string) string {
	if s.archive == nil {
		return ""
	}
	key, err := s.archive.Store(ctx, id, kind, name, []byte(content))
	if err != nil {
		s.logger.Warn("archive upload failed",
			logging.String(logging.FieldSessionID, id),
			logging.String("kind", kind),
			logging.Err(err))
		return ""
	}
	return key
}
