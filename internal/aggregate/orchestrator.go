package aggregate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/anatolykoptev/go_unisearch/internal/diagnostics"
	"github.com/anatolykoptev/go_unisearch/internal/engine"
	"github.com/anatolykoptev/go_unisearch/internal/engine/sources"
)

// ErrEmptyQuery is returned for empty or whitespace-only queries. No adapter is called.
var ErrEmptyQuery = errors.New("query is required")

// Adapters are the three provider searches. Each must be safe for concurrent use.
type Adapters struct {
	Web     func(ctx context.Context, query string) ([]engine.WebResult, error)
	Video   func(ctx context.Context, query string) ([]engine.VideoResult, error)
	Article func(ctx context.Context, query string) ([]engine.ArticleResult, error)
}

// DefaultAdapters wires the live provider adapters.
func DefaultAdapters() Adapters {
	return Adapters{
		Web:     sources.SearchWeb,
		Video:   sources.SearchVideos,
		Article: sources.SearchArticles,
	}
}

// Orchestrator fans one query out to the three adapters and folds their outcomes
// into a Session.
type Orchestrator struct {
	adapters Adapters
	recorder diagnostics.Recorder
	timeout  time.Duration
}

// NewOrchestrator builds an orchestrator. timeout bounds each adapter call (0 = none);
// recorder may be nil.
func NewOrchestrator(a Adapters, recorder diagnostics.Recorder, timeout time.Duration) *Orchestrator {
	if recorder == nil {
		recorder = diagnostics.LogRecorder{}
	}
	return &Orchestrator{adapters: a, recorder: recorder, timeout: timeout}
}

// Run executes one search for sess and blocks until all three adapters settled.
// Adapter failures never surface as an error: the failed category becomes empty,
// its provider status is "failed" and a diagnostic is recorded.
// The returned state is the session snapshot after this run settled.
func (o *Orchestrator) Run(ctx context.Context, sess *Session, query string) (State, error) {
	q := engine.NormQuery(query)
	if q == "" {
		engine.IncrSearchRejected()
		return sess.Snapshot(), ErrEmptyQuery
	}

	engine.IncrSearchRun()
	gen := sess.begin(ctx, q)
	slog.Info("search: run started",
		slog.String("session", sess.ID), slog.String("query", q), slog.Uint64("generation", gen))

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		res, err := callAdapter(ctx, o.timeout, engine.ProviderWeb, q, o.adapters.Web)
		o.settle(ctx, sess, gen, engine.ProviderWeb, q, len(res), err, func(st *State) {
			st.Web = res
		})
	}()

	go func() {
		defer wg.Done()
		res, err := callAdapter(ctx, o.timeout, engine.ProviderVideo, q, o.adapters.Video)
		o.settle(ctx, sess, gen, engine.ProviderVideo, q, len(res), err, func(st *State) {
			st.Videos = res
		})
	}()

	go func() {
		defer wg.Done()
		res, err := callAdapter(ctx, o.timeout, engine.ProviderArticle, q, o.adapters.Article)
		o.settle(ctx, sess, gen, engine.ProviderArticle, q, len(res), err, func(st *State) {
			st.Articles = res
		})
	}()

	wg.Wait()

	if sess.finish(ctx, gen) {
		snap := sess.Snapshot()
		slog.Info("search: run settled",
			slog.String("session", sess.ID),
			slog.Uint64("generation", gen),
			slog.Int("web", len(snap.Web)),
			slog.Int("videos", len(snap.Videos)),
			slog.Int("articles", len(snap.Articles)))
		return snap, nil
	}

	engine.IncrSearchSuperseded()
	slog.Info("search: run superseded, results discarded",
		slog.String("session", sess.ID), slog.Uint64("generation", gen))
	return sess.Snapshot(), nil
}

// settle stores one adapter outcome. On failure the list is replaced with an empty one.
func (o *Orchestrator) settle(ctx context.Context, sess *Session, gen uint64, p engine.Provider,
	query string, n int, err error, store func(st *State)) {
	status := ProviderStatus{Provider: p, Status: StatusOK, Count: n}
	if err != nil {
		engine.IncrProviderErrors()
		status = ProviderStatus{Provider: p, Status: StatusFailed, Error: err.Error()}
		slog.Warn("search: provider failed",
			slog.String("session", sess.ID), slog.String("provider", string(p)), slog.Any("error", err))
		o.record(ctx, sess.ID, query, p, err)
	}

	sess.apply(ctx, gen, func(st *State) {
		store(st)
		st.setStatus(status)
	})
}

func (o *Orchestrator) record(ctx context.Context, sessionID, query string, p engine.Provider, err error) {
	d := diagnostics.Diagnostic{
		SessionID: sessionID,
		Query:     query,
		Provider:  string(p),
		Kind:      engine.ErrorKind(err),
		Message:   err.Error(),
		At:        time.Now().UTC(),
	}
	var pe *engine.ProviderError
	if errors.As(err, &pe) {
		d.StatusCode = pe.StatusCode
	}
	// The run context may already be done (that is often why the provider failed).
	recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if rerr := o.recorder.Record(recCtx, d); rerr != nil {
		slog.Warn("search: diagnostic not recorded", slog.Any("error", rerr))
	}
}

// callAdapter runs fn under the per-adapter timeout and turns every failure,
// panics included, into a *engine.ProviderError. Success never returns a nil slice.
func callAdapter[T any](ctx context.Context, timeout time.Duration, p engine.Provider, query string,
	fn func(context.Context, string) ([]T, error)) (out []T, err error) {
	if fn == nil {
		return []T{}, engine.WrapProvider(p, errors.New("adapter not configured"))
	}

	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			out, err = []T{}, engine.WrapProvider(p, fmt.Errorf("adapter panic: %v", r))
		}
	}()

	err = engine.TrackOperation(callCtx, string(p)+"_search", func(c context.Context) error {
		var ferr error
		out, ferr = fn(c, query)
		return ferr
	})
	if err != nil {
		return []T{}, engine.WrapProvider(p, err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}
