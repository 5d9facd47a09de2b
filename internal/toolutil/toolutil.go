// Package toolutil provides shared input helpers for MCP tools.
package toolutil

import (
	"fmt"
	"strings"
)

// Require returns an error naming field when value is empty or whitespace.
func Require(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

// NormLimit normalises a limit field: <= 0 → def, above maxLimit → maxLimit.
func NormLimit(limit, def, maxLimit int) int {
	if limit <= 0 {
		return def
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
