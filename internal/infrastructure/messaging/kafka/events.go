package kafka

import (
	"context"

	"github.com/turtacn/dockview/internal/domain/docking"
)

// JobPublisher publishes rescoring jobs and their outcomes.
type JobPublisher struct {
	producer Publisher
	source   string
}

// NewJobPublisher wraps a producer. source names the publishing service.
func NewJobPublisher(producer Publisher, source string) *JobPublisher {
	return &JobPublisher{producer: producer, source: source}
}

// PublishRescoreJob publishes job keyed by session so one session's jobs stay
// ordered.
func (p *JobPublisher) PublishRescoreJob(ctx context.Context, job docking.RescoreJob) error {
	return p.publish(ctx, TopicRescoreRequested, EventRescoreRequested, job.SessionID, job)
}

// PublishRescoreCompleted reports a finished job.
func (p *JobPublisher) PublishRescoreCompleted(ctx context.Context, done docking.RescoreCompleted) error {
	return p.publish(ctx, TopicRescoreCompleted, EventRescoreCompleted, done.SessionID, done)
}

func (p *JobPublisher) publish(ctx context.Context, topic, eventType, key string, payload interface{}) error {
	env, err := NewEventEnvelope(eventType, p.source, payload)
	if err != nil {
		return err
	}
	msg, err := env.ToMessage(topic, key)
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}

// DecodeRescoreJob extracts a RescoreJob from a consumed message.
func DecodeRescoreJob(msg *Message) (docking.RescoreJob, error) {
	var job docking.RescoreJob
	env, err := MessageToEventEnvelope(msg)
	if err != nil {
		return job, err
	}
	err = env.DecodePayload(&job)
	return job, err
}
