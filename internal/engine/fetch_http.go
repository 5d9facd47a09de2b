package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// FetchRetry controls transport-level retries of provider GETs.
type FetchRetry struct {
	MaxTries        uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsed      time.Duration
}

// DefaultFetchRetry is used by GetJSON. Tests shrink the intervals.
var DefaultFetchRetry = FetchRetry{
	MaxTries:        3,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     5 * time.Second,
	MaxElapsed:      20 * time.Second,
}

// GetJSON performs a GET against a provider endpoint and decodes the JSON body into out.
// Retries transient failures (network errors, 429, 5xx) with exponential backoff.
// Errors are *NetworkError, *StatusError or a decode error; callers wrap them with
// WrapProvider.
func GetJSON(ctx context.Context, p Provider, rawURL string, out any) error {
	operation := func() (*http.Response, error) {
		if err := limiterFor(p).Wait(ctx); err != nil {
			return nil, backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", UserAgentBot)

		resp, err := Cfg.HTTPClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			nerr := &NetworkError{Op: "GET " + string(p), Err: err}
			if isNetworkError(err) {
				return nil, nerr
			}
			return nil, backoff.Permanent(nerr)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		serr := &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
		if IsRetryableStatus(resp.StatusCode) {
			return nil, serr
		}
		return nil, backoff.Permanent(serr)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = DefaultFetchRetry.InitialInterval
	bo.MaxInterval = DefaultFetchRetry.MaxInterval

	notify := func(err error, wait time.Duration) {
		slog.Debug("retrying provider request",
			slog.String("provider", string(p)), slog.Duration("wait", wait), slog.Any("error", err))
	}

	resp, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(DefaultFetchRetry.MaxTries),
		backoff.WithMaxElapsedTime(DefaultFetchRetry.MaxElapsed),
		backoff.WithNotify(notify),
	)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", p, err)
	}
	return nil
}
