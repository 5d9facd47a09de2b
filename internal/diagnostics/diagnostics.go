// Package diagnostics records provider failures so that an empty result list can
// be told apart from a failed provider after the fact.
package diagnostics

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Diagnostic is one recorded provider failure.
type Diagnostic struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	Query      string    `json:"query"`
	Provider   string    `json:"provider"`
	Kind       string    `json:"kind"`
	StatusCode int       `json:"status_code,omitempty"`
	Message    string    `json:"message"`
	At         time.Time `json:"at"`
}

// Recorder stores diagnostics.
type Recorder interface {
	Record(ctx context.Context, d Diagnostic) error
}

// Lister returns the most recent diagnostics, newest first.
type Lister interface {
	Recent(ctx context.Context, limit int) ([]Diagnostic, error)
}

// DefaultLimit applies when Recent is called with limit <= 0.
const DefaultLimit = 20

// MaxLimit caps any Recent call.
const MaxLimit = 500

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// LogRecorder writes diagnostics to slog only.
type LogRecorder struct{}

func (LogRecorder) Record(_ context.Context, d Diagnostic) error {
	slog.Warn("diagnostic",
		slog.String("session", d.SessionID),
		slog.String("provider", d.Provider),
		slog.String("kind", d.Kind),
		slog.Int("status", d.StatusCode),
		slog.String("message", d.Message))
	return nil
}

// Ring keeps the last N diagnostics in memory.
type Ring struct {
	mu     sync.Mutex
	buf    []Diagnostic
	next   int
	full   bool
	nextID int64
}

// NewRing creates a ring holding up to size entries (default 100).
func NewRing(size int) *Ring {
	if size <= 0 {
		size = 100
	}
	return &Ring{buf: make([]Diagnostic, size)}
}

func (r *Ring) Record(_ context.Context, d Diagnostic) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	d.ID = r.nextID
	r.buf[r.next] = d
	r.next = (r.next + 1) % len(r.buf)
	if r.next == 0 {
		r.full = true
	}
	return nil
}

func (r *Ring) Recent(_ context.Context, limit int) ([]Diagnostic, error) {
	limit = clampLimit(limit)
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.next
	if r.full {
		n = len(r.buf)
	}
	if limit > n {
		limit = n
	}
	out := make([]Diagnostic, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (r.next - i + len(r.buf)) % len(r.buf)
		out = append(out, r.buf[idx])
	}
	return out, nil
}

// Multi fans a diagnostic out to several recorders. Recent is served by the
// first recorder that implements Lister.
type Multi []Recorder

func (m Multi) Record(ctx context.Context, d Diagnostic) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Record(ctx, d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Recent(ctx context.Context, limit int) ([]Diagnostic, error) {
	for _, r := range m {
		if l, ok := r.(Lister); ok {
			return l.Recent(ctx, limit)
		}
	}
	return []Diagnostic{}, nil
}
