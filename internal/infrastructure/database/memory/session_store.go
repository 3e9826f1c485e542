// Package memory keeps sessions in process memory. It serves single-instance
// deployments that run without Redis, and tests.
package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/turtacn/dockview/internal/domain/session"
	"github.com/turtacn/dockview/pkg/errors"
)

type entry struct {
	data      []byte
	expiresAt time.Time
}

// SessionStore is a session.Repository over a map. Values are stored as JSON
// so callers never share mutable state with the store.
type SessionStore struct {
	mu    sync.Mutex
	items map[string]entry
	locks map[string]chan struct{}
	ttl   time.Duration
	now   func() time.Time
}

// NewSessionStore returns an empty store. ttl <= 0 uses session.DefaultTTL.
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}
	return &SessionStore{
		items: make(map[string]entry),
		locks: make(map[string]chan struct{}),
		ttl:   ttl,
		now:   time.Now,
	}
}

var _ session.Repository = (*SessionStore)(nil)

func (s *SessionStore) Get(_ context.Context, id string) (*session.Session, error) {
	s.mu.Lock()
	e, ok := s.items[id]
	if ok && s.now().After(e.expiresAt) {
		delete(s.items, id)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session not found").WithDetail(id)
	}

	var out session.Session
	if err := json.Unmarshal(e.data, &out); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode session")
	}
	return &out, nil
}

func (s *SessionStore) Save(_ context.Context, sess *session.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode session")
	}
	s.mu.Lock()
	s.items[sess.ID] = entry{data: data, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
	return nil
}

// Lock blocks until the session lock is free or ctx is done.
func (s *SessionStore) Lock(ctx context.Context, id string) (func(context.Context) error, error) {
	for {
		s.mu.Lock()
		held, busy := s.locks[id]
		if !busy {
			release := make(chan struct{})
			s.locks[id] = release
			s.mu.Unlock()
			var once sync.Once
			return func(context.Context) error {
				once.Do(func() {
					s.mu.Lock()
					delete(s.locks, id)
					s.mu.Unlock()
					close(release)
				})
				return nil
			}, nil
		}
		s.mu.Unlock()

		select {
		case <-held:
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), errors.ErrCodeSessionLocked, "failed to acquire lock").WithDetail(id)
		}
	}
}

// Len returns the number of stored sessions, expired ones included.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
