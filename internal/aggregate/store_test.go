package aggregate

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_unisearch/internal/engine"
)

func newTestStore(t *testing.T, maxEntries int) *TieredStore {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	s := NewTieredStore(ctx, "", time.Minute, maxEntries, time.Minute)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestTieredStoreRoundTrip(t *testing.T) {
	s := newTestStore(t, 100)
	ctx := context.Background()

	_, err := s.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	st := NewState()
	st.Query = "golang"
	st.HasRun = true
	st.Web = []engine.WebResult{{Title: "Go", Link: "https://go.dev"}}
	require.NoError(t, s.Save(ctx, "s1", st))

	got, err := s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "golang", got.Query)
	assert.Equal(t, st.Web, got.Web)

	hits, misses := s.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestTieredStoreEviction(t *testing.T) {
	s := newTestStore(t, 3)
	ctx := context.Background()

	for i := range 5 {
		require.NoError(t, s.Save(ctx, fmt.Sprintf("s%d", i), NewState()))
		time.Sleep(time.Millisecond)
	}

	n := 0
	s.l1.Range(func(_, _ any) bool {
		n++
		return true
	})
	assert.LessOrEqual(t, n, 3)

	_, err := s.Load(ctx, "s4")
	assert.NoError(t, err, "newest entry survives eviction")
}

func TestRegistryRestoresFromStore(t *testing.T) {
	store := newTestStore(t, 100)
	ctx := context.Background()

	o := NewOrchestrator(fixedAdapters(
		[]engine.WebResult{{Title: "w"}},
		[]engine.VideoResult{{VideoID: "v", ViewCount: 3}},
		nil,
	), nil, time.Second)

	first := NewRegistry(store)
	sess, created := first.GetOrCreate(ctx, "")
	require.True(t, created)
	_, err := o.Run(ctx, sess, "persisted query")
	require.NoError(t, err)
	sess.SetCategory(ctx, engine.CategoryVideo)

	// A second registry sharing the store stands in for a restarted process.
	second := NewRegistry(store)
	restored, ok := second.Get(ctx, sess.ID)
	require.True(t, ok)

	st := restored.Snapshot()
	assert.Equal(t, "persisted query", st.Query)
	assert.Equal(t, engine.CategoryVideo, st.Category)
	assert.True(t, st.HasRun)
	assert.False(t, st.IsLoading)
	assert.Len(t, st.Web, 1)
	assert.Len(t, st.Videos, 1)
	assert.NotNil(t, st.Articles)
}

func TestRestoreClearsLoading(t *testing.T) {
	store := newTestStore(t, 100)
	ctx := context.Background()

	st := NewState()
	st.Query = "interrupted"
	st.HasRun = true
	st.IsLoading = true
	st.Providers[0].Status = StatusPending
	require.NoError(t, store.Save(ctx, "crashed", st))

	sess, ok := NewRegistry(store).Get(ctx, "crashed")
	require.True(t, ok)
	got := sess.Snapshot()
	assert.False(t, got.IsLoading)
	assert.Equal(t, StatusIdle, got.Providers[0].Status)
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(nil)

	_, ok := r.Get(ctx, "nope")
	assert.False(t, ok)

	s1, created := r.GetOrCreate(ctx, "")
	require.True(t, created)
	assert.NotEmpty(t, s1.ID)

	s2, created := r.GetOrCreate(ctx, s1.ID)
	assert.False(t, created)
	assert.Same(t, s1, s2)

	named, created := r.GetOrCreate(ctx, "client-chosen")
	assert.True(t, created)
	assert.Equal(t, "client-chosen", named.ID)
	assert.Equal(t, 2, r.Len())

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 2, r.Sweep(time.Millisecond))
	assert.Zero(t, r.Len())
}

func TestNewStateDefaults(t *testing.T) {
	st := NewState()
	assert.Equal(t, engine.CategoryWeb, st.Category)
	assert.False(t, st.IsLoading)
	assert.False(t, st.HasRun)
	assert.NotNil(t, st.Web)
	assert.NotNil(t, st.Videos)
	assert.NotNil(t, st.Articles)
	require.Len(t, st.Providers, 3)
	for _, ps := range st.Providers {
		assert.Equal(t, StatusIdle, ps.Status)
	}

	c := st.Clone()
	c.Web = append(c.Web, engine.WebResult{Title: "x"})
	assert.Empty(t, st.Web, "clone does not share backing arrays")
}
