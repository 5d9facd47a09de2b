package engine

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrMissingCredential is wrapped by every ConfigError.
var ErrMissingCredential = errors.New("missing provider credential")

// NetworkError is a transport-level failure: dial, DNS, timeout, connection reset.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ConfigError reports a missing or invalid credential for one provider.
type ConfigError struct {
	Provider Provider
	Field    string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s provider not authorized: %s is not set", e.Provider, e.Field)
}

func (e *ConfigError) Unwrap() error { return ErrMissingCredential }

// ProviderError is returned by every adapter failure. Err carries the cause:
// a *NetworkError, a *ConfigError, a *StatusError, or a decode error.
type ProviderError struct {
	Provider   Provider
	StatusCode int // 0 when no HTTP response was received
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s provider: HTTP %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s provider: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// StatusError is a non-success HTTP response. Body holds a short prefix for logs.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", http.StatusText(e.StatusCode), e.Body)
}

// WrapProvider converts any adapter error into a *ProviderError for p.
// Existing ProviderErrors are returned untouched.
func WrapProvider(p Provider, err error) error {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	out := &ProviderError{Provider: p, Err: err}
	var se *StatusError
	if errors.As(err, &se) {
		out.StatusCode = se.StatusCode
	}
	return out
}

// ErrorKind classifies an error for diagnostics: "config", "network", "timeout"
// or "provider".
func ErrorKind(err error) string {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return "config"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return "network"
	}
	return "provider"
}

// isNetworkError reports transport errors: dial failures, DNS, timeouts.
func isNetworkError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
