package searchserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_unisearch/internal/engine"
	"github.com/anatolykoptev/go_unisearch/internal/toolutil"
)

func registerUnifiedSearch(server *mcp.Server, d Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "unified_search",
		Description: "Search Google web results, YouTube videos and CrossRef articles in parallel for one query. Videos are ranked by view count and videos without likes or views are dropped. A failing provider yields an empty list and a failed provider status; the other lists are still returned. Returns the session state with the list for the selected category in 'active'.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input UnifiedSearchInput) (*mcp.CallToolResult, StateView, error) {
		if err := toolutil.Require("query", input.Query); err != nil {
			return nil, StateView{}, err
		}
		sess, _ := d.Registry.GetOrCreate(ctx, input.SessionID)
		st, err := d.Orchestrator.Run(ctx, sess, input.Query)
		if err != nil {
			return nil, StateView{}, err
		}
		return nil, newStateView(sess.ID, st), nil
	})
}

func registerSetCategory(server *mcp.Server, d Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_category",
		Description: "Switch which result list a session displays: web, video or article. Never runs a search; the stored results are returned as they are.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input SetCategoryInput) (*mcp.CallToolResult, StateView, error) {
		if err := toolutil.Require("session_id", input.SessionID); err != nil {
			return nil, StateView{}, err
		}
		c, err := engine.ParseCategory(input.Category)
		if err != nil {
			return nil, StateView{}, err
		}
		sess, ok := d.Registry.Get(ctx, input.SessionID)
		if !ok {
			return nil, StateView{}, fmt.Errorf("unknown session %q", input.SessionID)
		}
		return nil, newStateView(sess.ID, sess.SetCategory(ctx, c)), nil
	})
}

func registerSearchState(server *mcp.Server, d Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_state",
		Description: "Return the current state of a search session: query, selected category, loading flag, all three result lists and per-provider status.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input SearchStateInput) (*mcp.CallToolResult, StateView, error) {
		if err := toolutil.Require("session_id", input.SessionID); err != nil {
			return nil, StateView{}, err
		}
		sess, ok := d.Registry.Get(ctx, input.SessionID)
		if !ok {
			return nil, StateView{}, fmt.Errorf("unknown session %q", input.SessionID)
		}
		return nil, newStateView(sess.ID, sess.Snapshot()), nil
	})
}

func registerProviderDiagnostics(server *mcp.Server, d Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "provider_diagnostics",
		Description: "List recent provider failures, newest first: provider, error kind (config, network, timeout, provider), HTTP status and message. Use it to tell a failed provider from one that found nothing.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input DiagnosticsInput) (*mcp.CallToolResult, DiagnosticsOutput, error) {
		list, err := d.Diagnostics.Recent(ctx, toolutil.NormLimit(input.Limit, 20, 500))
		if err != nil {
			return nil, DiagnosticsOutput{}, err
		}
		return nil, DiagnosticsOutput{Failures: newFailureViews(list), Total: len(list)}, nil
	})
}
