package engine

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func initTestEngine(t *testing.T) {
	t.Helper()
	prevRetry := DefaultFetchRetry
	prevCfg := cfg
	DefaultFetchRetry = FetchRetry{
		MaxTries:        3,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		MaxElapsed:      time.Second,
	}
	Init(Config{HTTPClient: &http.Client{Timeout: 2 * time.Second}})
	t.Cleanup(func() {
		DefaultFetchRetry = prevRetry
		Init(prevCfg)
	})
}

func TestGetJSON(t *testing.T) {
	initTestEngine(t)

	t.Run("decodes body and sends headers", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("User-Agent"); got != UserAgentBot {
				t.Errorf("User-Agent = %q, want %q", got, UserAgentBot)
			}
			if got := r.Header.Get("Accept"); got != "application/json" {
				t.Errorf("Accept = %q", got)
			}
			w.Write([]byte(`{"name":"ok"}`))
		}))
		defer srv.Close()

		var out struct{ Name string }
		if err := GetJSON(context.Background(), ProviderWeb, srv.URL, &out); err != nil {
			t.Fatalf("GetJSON: %v", err)
		}
		if out.Name != "ok" {
			t.Errorf("Name = %q, want ok", out.Name)
		}
	})

	t.Run("retries transient status", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		var out map[string]any
		if err := GetJSON(context.Background(), ProviderVideo, srv.URL, &out); err != nil {
			t.Fatalf("GetJSON: %v", err)
		}
		if n := calls.Load(); n != 3 {
			t.Errorf("calls = %d, want 3", n)
		}
	})

	t.Run("gives up after max tries", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		var out map[string]any
		err := GetJSON(context.Background(), ProviderVideo, srv.URL, &out)
		var se *StatusError
		if !errors.As(err, &se) || se.StatusCode != http.StatusServiceUnavailable {
			t.Fatalf("err = %v, want StatusError 503", err)
		}
		if n := calls.Load(); n != 3 {
			t.Errorf("calls = %d, want 3", n)
		}
	})

	t.Run("client error is not retried", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			http.Error(w, "no such thing", http.StatusNotFound)
		}))
		defer srv.Close()

		var out map[string]any
		err := GetJSON(context.Background(), ProviderArticle, srv.URL, &out)
		var se *StatusError
		if !errors.As(err, &se) || se.StatusCode != http.StatusNotFound {
			t.Fatalf("err = %v, want StatusError 404", err)
		}
		if n := calls.Load(); n != 1 {
			t.Errorf("calls = %d, want 1", n)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{not json`))
		}))
		defer srv.Close()

		var out map[string]any
		if err := GetJSON(context.Background(), ProviderWeb, srv.URL, &out); err == nil {
			t.Fatal("expected decode error")
		}
	})

	t.Run("connection refused is a network error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		u := srv.URL
		srv.Close()

		var out map[string]any
		err := GetJSON(context.Background(), ProviderWeb, u, &out)
		var ne *NetworkError
		if !errors.As(err, &ne) {
			t.Fatalf("err = %v, want NetworkError", err)
		}
		if kind := ErrorKind(err); kind != "network" {
			t.Errorf("ErrorKind = %q, want network", kind)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		var out map[string]any
		if err := GetJSON(ctx, ProviderWeb, srv.URL, &out); !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	})
}
