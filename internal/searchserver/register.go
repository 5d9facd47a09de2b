// Package searchserver exposes the unified search as MCP tools.
package searchserver

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_unisearch/internal/aggregate"
	"github.com/anatolykoptev/go_unisearch/internal/diagnostics"
)

// Deps are the collaborators the tools need.
type Deps struct {
	Registry     *aggregate.Registry
	Orchestrator *aggregate.Orchestrator
	Diagnostics  diagnostics.Lister // nil disables provider_diagnostics
}

// RegisterTools registers unified_search, set_category, search_state and,
// when a diagnostics lister is configured, provider_diagnostics.
// It returns the number of registered tools.
func RegisterTools(server *mcp.Server, d Deps) int {
	registerUnifiedSearch(server, d)
	registerSetCategory(server, d)
	registerSearchState(server, d)
	n := 3
	if d.Diagnostics != nil {
		registerProviderDiagnostics(server, d)
		n++
	}
	return n
}
