package aggregate

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/anatolykoptev/go_unisearch/internal/engine"
)

// Session owns exactly one State. Writes go through begin/apply/finish (the
// Orchestrator) and SetCategory; everything else reads snapshots.
//
// Every run takes a new generation. Outcomes of a run are applied only while that
// run is the latest one submitted, so a slow superseded run can never overwrite the
// results of a newer query, and only the latest run clears IsLoading.
type Session struct {
	ID string

	mu       sync.Mutex
	state    State
	gen      uint64
	version  uint64
	lastUsed time.Time

	store   Store // nil = memory only
	saveMu  sync.Mutex
	savedAt uint64
}

func newSession(id string, st State, store Store) *Session {
	return &Session{ID: id, state: st, gen: st.Generation, store: store, lastUsed: time.Now()}
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = time.Now()
	return s.state.Clone()
}

// SetCategory switches the displayed list. It never triggers a fetch.
func (s *Session) SetCategory(ctx context.Context, c engine.Category) State {
	snap, _ := s.mutate(ctx, func(st *State) bool {
		st.Category = c
		return true
	})
	return snap
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// begin starts a run for query and returns its generation.
func (s *Session) begin(ctx context.Context, query string) uint64 {
	var gen uint64
	s.mutate(ctx, func(st *State) bool {
		s.gen++
		gen = s.gen
		st.Query = query
		st.HasRun = true
		st.IsLoading = true
		st.Generation = gen
		for i := range st.Providers {
			st.Providers[i] = ProviderStatus{Provider: st.Providers[i].Provider, Status: StatusPending}
		}
		return true
	})
	return gen
}

// apply runs fn against the state if gen is still the latest run.
func (s *Session) apply(ctx context.Context, gen uint64, fn func(st *State)) bool {
	_, ok := s.mutate(ctx, func(st *State) bool {
		if gen != s.gen {
			return false
		}
		fn(st)
		return true
	})
	return ok
}

// finish clears IsLoading if gen is still the latest run.
func (s *Session) finish(ctx context.Context, gen uint64) bool {
	return s.apply(ctx, gen, func(st *State) {
		st.IsLoading = false
	})
}

// mutate applies fn under the lock and persists the resulting snapshot.
// fn returns false to leave the state untouched.
func (s *Session) mutate(ctx context.Context, fn func(st *State) bool) (State, bool) {
	s.mu.Lock()
	s.lastUsed = time.Now()
	if !fn(&s.state) {
		snap := s.state.Clone()
		s.mu.Unlock()
		return snap, false
	}
	s.state.UpdatedAt = time.Now().UTC()
	s.version++
	v := s.version
	snap := s.state.Clone()
	s.mu.Unlock()

	s.persist(ctx, snap, v)
	return snap, true
}

// persist writes snap unless a newer version has already been saved.
func (s *Session) persist(ctx context.Context, snap State, version uint64) {
	if s.store == nil {
		return
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if version <= s.savedAt {
		return
	}
	if err := s.store.Save(ctx, s.ID, snap); err != nil {
		slog.Warn("session: persist failed", slog.String("session", s.ID), slog.Any("error", err))
		return
	}
	s.savedAt = version
}
