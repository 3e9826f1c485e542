package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/dockview/internal/domain/ligand"
	"github.com/turtacn/dockview/internal/domain/session"
	"github.com/turtacn/dockview/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/dockview/pkg/errors"
)

func TestSessionStore_SaveGet(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	var hits, misses int
	store := NewSessionStore(client, logging.NewNopLogger(),
		WithTTL(time.Hour),
		WithLookupObserver(func(hit bool) {
			if hit {
				hits++
			} else {
				misses++
			}
		}))

	now := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	s := session.New("s1", now)
	s.ReplaceLigands("poses.sdf", ligand.Extraction{Records: []ligand.Record{
		{Index: 0, Name: "a", Score: -7.1},
		{Index: 2, Name: "b", Score: -5.0},
	}}, ligand.OrderAscending, now)
	s.Next(now)
	require.True(t, s.SetVinaScore(2, -6.6, now))

	require.NoError(t, store.Save(ctx, s))
	assert.Equal(t, time.Hour, mr.TTL("dockview:session:s1"))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentIdx)
	require.Len(t, got.Ligands, 2)
	require.NotNil(t, got.Ligands[1].VinaScore)
	assert.InDelta(t, -6.6, *got.Ligands[1].VinaScore, 1e-9)
	assert.True(t, got.CreatedAt.Equal(now))

	_, err = store.Get(ctx, "missing")
	assert.True(t, errors.IsCode(err, errors.ErrCodeSessionNotFound))
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)
}

func TestSessionStore_StoredAsJSON(t *testing.T) {
	client, mr := newTestClient(t)
	store := NewSessionStore(client, logging.NewNopLogger())
	require.NoError(t, store.Save(context.Background(), session.New("s2", time.Now())))

	raw, err := mr.Get("dockview:session:s2")
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	assert.Equal(t, "s2", m["id"])
	assert.Equal(t, session.DefaultTTL, mr.TTL("dockview:session:s2"))
}

func TestSessionStore_CorruptValue(t *testing.T) {
	client, mr := newTestClient(t)
	store := NewSessionStore(client, logging.NewNopLogger())
	require.NoError(t, mr.Set("dockview:session:bad", "{not json"))

	_, err := store.Get(context.Background(), "bad")
	assert.True(t, errors.IsCode(err, errors.ErrCodeSerialization))
}

func TestSessionStore_Delete(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()
	store := NewSessionStore(client, logging.NewNopLogger())

	require.NoError(t, store.Save(ctx, session.New("s3", time.Now())))
	require.NoError(t, store.Delete(ctx, "s3"))
	assert.False(t, mr.Exists("dockview:session:s3"))
	require.NoError(t, store.Delete(ctx, "s3"))
}

func TestSessionStore_Lock(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()
	store := NewSessionStore(client, logging.NewNopLogger(), WithSessionLockTTL(5*time.Second))

	unlock, err := store.Lock(ctx, "s4")
	require.NoError(t, err)
	assert.True(t, mr.Exists("dockview:lock:session:s4"))
	assert.Equal(t, 5*time.Second, mr.TTL("dockview:lock:session:s4"))

	short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = store.Lock(short, "s4")
	assert.Error(t, err)

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("dockview:lock:session:s4"))
}
