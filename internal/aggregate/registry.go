package aggregate

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/anatolykoptev/go_unisearch/internal/engine"
)

// Registry maps session ids to live sessions. A session missing from memory is
// restored from the Store when one is configured.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	store    Store
}

// NewRegistry creates a registry. store may be nil.
func NewRegistry(store Store) *Registry {
	return &Registry{sessions: make(map[string]*Session), store: store}
}

// Get returns the session for id. The second result is false if the session is
// neither live nor restorable.
func (r *Registry) Get(ctx context.Context, id string) (*Session, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, false
	}

	r.mu.Lock()
	if s, ok := r.sessions[id]; ok {
		r.mu.Unlock()
		return s, true
	}
	r.mu.Unlock()

	st, ok := r.restore(ctx, id)
	if !ok {
		return nil, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s, true
	}
	s := newSession(id, st, r.store)
	r.sessions[id] = s
	engine.IncrSessionsRestored()
	slog.Info("session: restored", slog.String("session", id), slog.String("query", st.Query))
	return s, true
}

// GetOrCreate returns the session for id, creating a fresh one when id is empty
// or unknown. The bool result reports whether a new session was created.
func (r *Registry) GetOrCreate(ctx context.Context, id string) (*Session, bool) {
	if s, ok := r.Get(ctx, id); ok {
		return s, false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		id = uuid.NewString()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s, false
	}
	s := newSession(id, NewState(), r.store)
	r.sessions[id] = s
	engine.IncrSessionsCreated()
	slog.Debug("session: created", slog.String("session", id))
	return s, true
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// restore loads a persisted state. A restored session is never loading: the run
// that set IsLoading died with the process that started it.
func (r *Registry) restore(ctx context.Context, id string) (State, bool) {
	if r.store == nil {
		return State{}, false
	}
	st, err := r.store.Load(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.Warn("session: restore failed", slog.String("session", id), slog.Any("error", err))
		}
		return State{}, false
	}
	st.IsLoading = false
	for i := range st.Providers {
		if st.Providers[i].Status == StatusPending {
			st.Providers[i].Status = StatusIdle
		}
	}
	if len(st.Providers) == 0 {
		st.Providers = NewState().Providers
	}
	if st.Web == nil {
		st.Web = []engine.WebResult{}
	}
	if st.Videos == nil {
		st.Videos = []engine.VideoResult{}
	}
	if st.Articles == nil {
		st.Articles = []engine.ArticleResult{}
	}
	if st.Category == "" {
		st.Category = engine.CategoryWeb
	}
	return st, true
}

// Sweep drops sessions idle for longer than maxIdle from memory. Persisted
// state is untouched, so a swept session can still be restored.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// SweepLoop runs Sweep every interval until ctx is done.
func (r *Registry) SweepLoop(ctx context.Context, interval, maxIdle time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(maxIdle); n > 0 {
				slog.Debug("session: swept idle sessions", slog.Int("count", n))
			}
		}
	}
}
