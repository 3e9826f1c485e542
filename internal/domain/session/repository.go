package session

import (
	"context"
	"time"
)

// Repository persists sessions.
type Repository interface {
	// Get returns errors.CodeSessionNotFound if the session does not exist.
	Get(ctx context.Context, id string) (*Session, error)

	// Save stores the session and refreshes its expiry.
	Save(ctx context.Context, s *Session) error

	// Delete removes the session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// Lock serialises writers of one session. The returned function releases
	// the lock. Returns errors.ErrCodeSessionLocked if it cannot be acquired.
	Lock(ctx context.Context, id string) (func(context.Context) error, error)
}

// DefaultTTL is how long an idle session is kept.
const DefaultTTL = 24 * time.Hour
