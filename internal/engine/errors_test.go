package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestWrapProvider(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		if err := WrapProvider(ProviderWeb, nil); err != nil {
			t.Errorf("got %v, want nil", err)
		}
	})

	t.Run("copies status code", func(t *testing.T) {
		err := WrapProvider(ProviderVideo, fmt.Errorf("stats: %w", &StatusError{StatusCode: 403}))
		var pe *ProviderError
		if !errors.As(err, &pe) {
			t.Fatalf("not a ProviderError: %v", err)
		}
		if pe.Provider != ProviderVideo || pe.StatusCode != 403 {
			t.Errorf("got provider=%s status=%d", pe.Provider, pe.StatusCode)
		}
	})

	t.Run("does not double wrap", func(t *testing.T) {
		inner := WrapProvider(ProviderWeb, errors.New("boom"))
		outer := WrapProvider(ProviderArticle, inner)
		if outer != inner {
			t.Errorf("rewrapped: %v", outer)
		}
	})
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"config", WrapProvider(ProviderWeb, &ConfigError{Provider: ProviderWeb, Field: "GOOGLE_CX"}), "config"},
		{"timeout", WrapProvider(ProviderVideo, context.DeadlineExceeded), "timeout"},
		{"network", WrapProvider(ProviderArticle, &NetworkError{Op: "GET", Err: errors.New("reset")}), "network"},
		{"status", WrapProvider(ProviderWeb, &StatusError{StatusCode: 500}), "provider"},
		{"decode", WrapProvider(ProviderWeb, errors.New("decode web response: EOF")), "provider"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorKind(tt.err); got != tt.want {
				t.Errorf("ErrorKind(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestConfigErrorUnwrapsToMissingCredential(t *testing.T) {
	err := WrapProvider(ProviderVideo, &ConfigError{Provider: ProviderVideo, Field: "YOUTUBE_API_KEY"})
	if !errors.Is(err, ErrMissingCredential) {
		t.Errorf("errors.Is(%v, ErrMissingCredential) = false", err)
	}
}
