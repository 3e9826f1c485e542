package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/dockview/internal/domain/session"
	"github.com/turtacn/dockview/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/dockview/pkg/errors"
)

// SessionStore keeps sessions as JSON values with a sliding TTL.
type SessionStore struct {
	client  *Client
	ttl     time.Duration
	lockTTL time.Duration
	logger  logging.Logger
	group   singleflight.Group

	// onLookup observes Get outcomes for hit/miss metrics.
	onLookup func(hit bool)
}

// StoreOption tunes a SessionStore.
type StoreOption func(*SessionStore)

// WithTTL sets how long an idle session is kept.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *SessionStore) { s.ttl = ttl }
}

// WithSessionLockTTL sets the expiry of per-session write locks.
func WithSessionLockTTL(ttl time.Duration) StoreOption {
	return func(s *SessionStore) { s.lockTTL = ttl }
}

// WithLookupObserver registers a callback invoked after each Get.
func WithLookupObserver(fn func(hit bool)) StoreOption {
	return func(s *SessionStore) { s.onLookup = fn }
}

// NewSessionStore returns a session.Repository backed by client.
func NewSessionStore(client *Client, log logging.Logger, opts ...StoreOption) *SessionStore {
	s := &SessionStore{
		client:  client,
		ttl:     session.DefaultTTL,
		lockTTL: 30 * time.Second,
		logger:  log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ session.Repository = (*SessionStore)(nil)

func (s *SessionStore) key(id string) string {
	return s.client.Key("session", id)
}

// Get loads a session. Concurrent loads of the same ID share one round trip.
func (s *SessionStore) Get(ctx context.Context, id string) (*session.Session, error) {
	v, err, _ := s.group.Do(id, func() (interface{}, error) {
		return s.client.Get(ctx, s.key(id)).Bytes()
	})
	if err == redis.Nil {
		s.observe(false)
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session not found").WithDetail(id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "failed to load session")
	}
	s.observe(true)

	var out session.Session
	if err := json.Unmarshal(v.([]byte), &out); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode session")
	}
	return &out, nil
}

// Save writes the session and refreshes its TTL.
func (s *SessionStore) Save(ctx context.Context, sess *session.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode session")
	}
	if err := s.client.Set(ctx, s.key(sess.ID), data, s.ttl).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to save session")
	}
	s.logger.Debug("session saved",
		logging.String(logging.FieldSessionID, sess.ID),
		logging.Int("bytes", len(data)))
	return nil
}

// Delete removes the session.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to delete session")
	}
	return nil
}

// Lock acquires the write lock of one session.
func (s *SessionStore) Lock(ctx context.Context, id string) (func(context.Context) error, error) {
	m := NewMutex(s.client, "session:"+id, s.logger, WithLockTTL(s.lockTTL))
	if err := m.Lock(ctx); err != nil {
		return nil, err
	}
	return m.Unlock, nil
}

func (s *SessionStore) observe(hit bool) {
	if s.onLookup != nil {
		s.onLookup(hit)
	}
}
