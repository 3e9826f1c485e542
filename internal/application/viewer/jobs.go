package viewer

import (
	"context"

	"github.com/turtacn/dockview/internal/domain/docking"
	"github.com/turtacn/dockview/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/dockview/pkg/errors"
)

// SubmitRescoreJob queues a rescore of the given ligand block indices, or of
// every ligand when indices is empty, for the worker.
func (s *Service) SubmitRescoreJob(ctx context.Context, id string, indices []int) (*docking.RescoreJob, error) {
	if s.jobs == nil {
		return nil, errors.Unavailable("job queue is not configured")
	}
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireInputs(sess); err != nil {
		return nil, err
	}

	job := docking.NewRescoreJob(sess.ID, indices, s.now().UTC())
	job.Parallelism = s.opts.Parallelism
	if err := s.jobs.PublishRescoreJob(ctx, job); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMessagingError, "failed to queue rescore job").WithDetail(job.JobID)
	}
	s.logger.Info("rescore job queued",
		logging.String(logging.FieldSessionID, sess.ID),
		logging.String("job_id", job.JobID),
		logging.Int("ligands", len(indices)))
	return &job, nil
}

// HandleRescoreJob runs a queued job and publishes its completion. Tool
// failures are part of the completion event, not errors.
func (s *Service) HandleRescoreJob(ctx context.Context, job docking.RescoreJob) (*docking.RescoreCompleted, error) {
	res, err := s.rescoreIndices(ctx, job.SessionID, job.Indices, job.Parallelism)
	if err != nil {
		return nil, err
	}
	done := docking.RescoreCompleted{
		JobID:       job.JobID,
		SessionID:   job.SessionID,
		Scores:      res.Scores,
		Failures:    res.Failures,
		CompletedAt: s.now().UTC(),
	}
	if s.jobs != nil {
		if err := s.jobs.PublishRescoreCompleted(ctx, done); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeMessagingError, "failed to publish job completion").WithDetail(job.JobID)
		}
	}
	return &done, nil
}
