package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirillkom/document-inbox/internal/core/catalog"
	"github.com/kirillkom/document-inbox/internal/core/classify"
	"github.com/kirillkom/document-inbox/internal/core/domain"
	"github.com/kirillkom/document-inbox/internal/core/ports"
	coresession "github.com/kirillkom/document-inbox/internal/core/session"
	"github.com/kirillkom/document-inbox/internal/infrastructure/scheduler"
)

func newTestStore(clock *scheduler.Manual, opts Options) *MemoryStore {
	picker := ports.CategoryPickerFunc(func() domain.Category { return domain.CategoryOther })
	build := func(id string) *coresession.Session {
		cat := catalog.New(clock)
		sim := classify.NewSimulator(cat, clock, picker, classify.Config{}, nil)
		return coresession.New(id, clock.Now(), cat, sim, domain.ThemeSystem)
	}
	return NewMemoryStore(build, clock, opts, nil)
}

func TestMemoryStoreOpenGetClose(t *testing.T) {
	clock := scheduler.NewManual(time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC))
	store := newTestStore(clock, Options{})
	ctx := context.Background()

	sess, err := store.Open(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, got)

	require.NoError(t, store.Close(ctx, sess.ID))
	assert.Zero(t, store.Len())

	_, err = store.Get(ctx, sess.ID)
	assert.True(t, domain.IsKind(err, domain.ErrSessionNotFound))
	err = store.Close(ctx, sess.ID)
	assert.True(t, domain.IsKind(err, domain.ErrSessionNotFound))
}

func TestMemoryStoreSessionLimit(t *testing.T) {
	clock := scheduler.NewManual(time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC))
	store := newTestStore(clock, Options{MaxSessions: 1})

	_, err := store.Open(context.Background())
	require.NoError(t, err)

	_, err = store.Open(context.Background())
	assert.True(t, domain.IsKind(err, domain.ErrTemporary))
}

func TestMemoryStoreCloseDiscardsPendingClassification(t *testing.T) {
	clock := scheduler.NewManual(time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC))
	store := newTestStore(clock, Options{})
	ctx := context.Background()

	sess, err := store.Open(ctx)
	require.NoError(t, err)
	docs, err := sess.Catalog.Append([]domain.FileDescriptor{{Name: "a.pdf", SizeBytes: 10}})
	require.NoError(t, err)
	sess.Simulator.Classify([]string{docs[0].ID})
	require.Equal(t, 1, clock.Pending())

	require.NoError(t, store.Close(ctx, sess.ID))
	assert.Zero(t, clock.Pending())

	clock.Advance(classify.DefaultDelay)
	assert.Equal(t, 1, sess.Catalog.CountAnalyzing())
}

func TestMemoryStoreSweepClosesIdleSessions(t *testing.T) {
	clock := scheduler.NewManual(time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC))
	store := newTestStore(clock, Options{IdleTTL: time.Minute})
	ctx := context.Background()

	idle, err := store.Open(ctx)
	require.NoError(t, err)
	active, err := store.Open(ctx)
	require.NoError(t, err)

	clock.Advance(45 * time.Second)
	_, err = store.Get(ctx, active.ID)
	require.NoError(t, err)
	clock.Advance(30 * time.Second)

	assert.Equal(t, 1, store.Sweep(clock.Now()))
	_, err = store.Get(ctx, idle.ID)
	assert.True(t, domain.IsKind(err, domain.ErrSessionNotFound))
	_, err = store.Get(ctx, active.ID)
	assert.NoError(t, err)
}

func TestMemoryStoreRunClosesEverythingOnShutdown(t *testing.T) {
	clock := scheduler.NewManual(time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC))
	store := newTestStore(clock, Options{SweepInterval: time.Hour})

	_, err := store.Open(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop")
	}
	assert.Zero(t, store.Len())
}
