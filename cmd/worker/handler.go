package main

import (
	"context"
	"time"

	"github.com/turtacn/dockview/internal/domain/docking"
	"github.com/turtacn/dockview/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/dockview/internal/infrastructure/monitoring/logging"
)

// jobRunner executes a queued rescore job.
type jobRunner interface {
	HandleRescoreJob(ctx context.Context, job docking.RescoreJob) (*docking.RescoreCompleted, error)
}

// jobObserver receives per-message metrics. It may be nil.
type jobObserver interface {
	RecordMessage(topic string, err error)
	TrackJob(engine string) func()
}

type rescoreHandler struct {
	runner      jobRunner
	timeout     time.Duration
	parallelism int
	metrics     jobObserver
	logger      logging.Logger
}

// handle decodes one rescore request and runs it. Jobs without a parallelism
// use the worker concurrency.
func (h *rescoreHandler) handle(ctx context.Context, msg *kafka.Message) (err error) {
	start := time.Now()
	if h.metrics != nil {
		defer h.metrics.TrackJob(docking.EngineVina)()
		defer func() { h.metrics.RecordMessage(msg.Topic, err) }()
	}

	job, err := kafka.DecodeRescoreJob(msg)
	if err != nil {
		h.logger.Error("undecodable rescore job",
			logging.String("topic", msg.Topic),
			logging.Int64("offset", msg.Offset),
			logging.Err(err))
		return err
	}
	if job.Parallelism <= 0 {
		job.Parallelism = h.parallelism
	}

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	log := h.logger.With(
		logging.String("job_id", job.JobID),
		logging.String(logging.FieldSessionID, job.SessionID))
	done, err := h.runner.HandleRescoreJob(ctx, job)
	if err != nil {
		log.Warn("rescore job failed", logging.Err(err), logging.Duration("duration", time.Since(start)))
		return err
	}
	log.Info("rescore job completed",
		logging.Int("scored", len(done.Scores)),
		logging.Int("failed", len(done.Failures)),
		logging.Duration("duration", time.Since(start)))
	return nil
}
