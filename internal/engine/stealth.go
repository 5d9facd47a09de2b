package engine

import (
	stealth "github.com/anatolykoptev/go-stealth"
)

// IsRetryableStatus re-exports the stealth classification of transient HTTP statuses
// (429, 5xx gateway errors).
func IsRetryableStatus(code int) bool { return stealth.IsRetryableStatus(code) }
