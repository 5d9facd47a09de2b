package searchserver

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_unisearch/internal/aggregate"
	"github.com/anatolykoptev/go_unisearch/internal/diagnostics"
	"github.com/anatolykoptev/go_unisearch/internal/engine"
)

func testDeps(t *testing.T) Deps {
	t.Helper()
	adapters := aggregate.Adapters{
		Web: func(context.Context, string) ([]engine.WebResult, error) {
			return []engine.WebResult{{Title: "w1"}, {Title: "w2"}}, nil
		},
		Video: func(context.Context, string) ([]engine.VideoResult, error) {
			return nil, engine.WrapProvider(engine.ProviderVideo,
				&engine.ConfigError{Provider: engine.ProviderVideo, Field: "YOUTUBE_API_KEY"})
		},
		Article: func(context.Context, string) ([]engine.ArticleResult, error) {
			return []engine.ArticleResult{{Title: "a1"}}, nil
		},
	}
	ring := diagnostics.NewRing(10)
	return Deps{
		Registry:     aggregate.NewRegistry(nil),
		Orchestrator: aggregate.NewOrchestrator(adapters, ring, time.Second),
		Diagnostics:  ring,
	}
}

func connect(t *testing.T, d Deps) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	server := mcp.NewServer(&mcp.Implementation{Name: "test", Version: "v0"}, nil)
	require.Equal(t, 4, RegisterTools(server, d))

	st, ct := mcp.NewInMemoryTransports()
	_, err := server.Connect(ctx, st, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "v0"}, nil)
	cs, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func call[T any](t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) (T, error) {
	t.Helper()
	var out T
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return out, err
	}
	if res.IsError {
		return out, errors.New("tool error")
	}
	raw, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &out))
	return out, nil
}

func TestUnifiedSearchFlow(t *testing.T) {
	cs := connect(t, testDeps(t))

	view, err := call[StateView](t, cs, "unified_search", map[string]any{"query": "climate change"})
	require.NoError(t, err)
	require.NotEmpty(t, view.SessionID)
	assert.Equal(t, "climate change", view.Query)
	assert.True(t, view.HasRun)
	assert.False(t, view.IsLoading)
	assert.Equal(t, engine.CategoryWeb, view.Category)
	assert.Equal(t, 2, view.ActiveCount)
	assert.Len(t, view.Web, 2)
	assert.Empty(t, view.Videos)
	assert.Len(t, view.Articles, 1)
	assert.Equal(t, aggregate.StatusFailed, view.Providers[1].Status)

	view, err = call[StateView](t, cs, "set_category",
		map[string]any{"session_id": view.SessionID, "category": "article"})
	require.NoError(t, err)
	assert.Equal(t, engine.CategoryArticle, view.Category)
	assert.Equal(t, 1, view.ActiveCount)

	state, err := call[StateView](t, cs, "search_state", map[string]any{"session_id": view.SessionID})
	require.NoError(t, err)
	assert.Equal(t, engine.CategoryArticle, state.Category)
	assert.Equal(t, "climate change", state.Query)

	diag, err := call[DiagnosticsOutput](t, cs, "provider_diagnostics", map[string]any{})
	require.NoError(t, err)
	require.Equal(t, 1, diag.Total)
	assert.Equal(t, "video", diag.Failures[0].Provider)
	assert.Equal(t, "config", diag.Failures[0].Kind)
}

func TestToolErrors(t *testing.T) {
	cs := connect(t, testDeps(t))

	_, err := call[StateView](t, cs, "unified_search", map[string]any{"query": "   "})
	assert.Error(t, err)

	_, err = call[StateView](t, cs, "search_state", map[string]any{"session_id": "unknown"})
	assert.Error(t, err)

	view, err := call[StateView](t, cs, "unified_search", map[string]any{"query": "q"})
	require.NoError(t, err)
	_, err = call[StateView](t, cs, "set_category",
		map[string]any{"session_id": view.SessionID, "category": "images"})
	assert.Error(t, err)
}

func TestNewStateViewActive(t *testing.T) {
	st := aggregate.NewState()
	st.Web = []engine.WebResult{{Title: "w"}}
	st.Videos = []engine.VideoResult{{VideoID: "a"}, {VideoID: "b"}}

	v := newStateView("s", st)
	assert.Equal(t, st.Web, v.Active)

	st.Category = engine.CategoryVideo
	v = newStateView("s", st)
	assert.Equal(t, st.Videos, v.Active)
	assert.Equal(t, 2, v.ActiveCount)
}
