package searchserver

import (
	"time"

	"github.com/anatolykoptev/go_unisearch/internal/aggregate"
	"github.com/anatolykoptev/go_unisearch/internal/diagnostics"
	"github.com/anatolykoptev/go_unisearch/internal/engine"
)

// UnifiedSearchInput is the input for unified_search.
type UnifiedSearchInput struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"Session to run the query in. Omit to start a new session; the new id is returned."`
	Query     string `json:"query" jsonschema:"Free-text query sent to web, video and article search"`
}

// SetCategoryInput is the input for set_category.
type SetCategoryInput struct {
	SessionID string `json:"session_id" jsonschema:"Session id returned by unified_search"`
	Category  string `json:"category" jsonschema:"Result list to display: web, video or article"`
}

// SearchStateInput is the input for search_state.
type SearchStateInput struct {
	SessionID string `json:"session_id" jsonschema:"Session id returned by unified_search"`
}

// DiagnosticsInput is the input for provider_diagnostics.
type DiagnosticsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Max entries to return (default 20, max 500)"`
}

// DiagnosticsOutput is the output for provider_diagnostics.
type DiagnosticsOutput struct {
	Failures []FailureView `json:"failures"`
	Total    int           `json:"total"`
}

// FailureView is one provider failure with an RFC 3339 timestamp.
type FailureView struct {
	SessionID  string `json:"session_id"`
	Query      string `json:"query"`
	Provider   string `json:"provider"`
	Kind       string `json:"kind"`
	StatusCode int    `json:"status_code,omitempty"`
	Message    string `json:"message"`
	At         string `json:"at"`
}

func newFailureViews(list []diagnostics.Diagnostic) []FailureView {
	out := make([]FailureView, 0, len(list))
	for _, d := range list {
		out = append(out, FailureView{
			SessionID:  d.SessionID,
			Query:      d.Query,
			Provider:   d.Provider,
			Kind:       d.Kind,
			StatusCode: d.StatusCode,
			Message:    d.Message,
			At:         d.At.UTC().Format(time.RFC3339),
		})
	}
	return out
}

// StateView is the session state as shown to a client: the full state plus the
// list for the selected category.
type StateView struct {
	SessionID   string                     `json:"session_id"`
	Query       string                     `json:"query"`
	Category    engine.Category            `json:"category"`
	IsLoading   bool                       `json:"is_loading"`
	HasRun      bool                       `json:"has_run"`
	ActiveCount int                        `json:"active_count"`
	Active      any                        `json:"active"`
	Web         []engine.WebResult         `json:"web"`
	Videos      []engine.VideoResult       `json:"videos"`
	Articles    []engine.ArticleResult     `json:"articles"`
	Providers   []aggregate.ProviderStatus `json:"providers"`
	UpdatedAt   string                     `json:"updated_at,omitempty"`
}

func newStateView(sessionID string, st aggregate.State) StateView {
	v := StateView{
		SessionID:   sessionID,
		Query:       st.Query,
		Category:    st.Category,
		IsLoading:   st.IsLoading,
		HasRun:      st.HasRun,
		ActiveCount: st.ActiveCount(),
		Web:         st.Web,
		Videos:      st.Videos,
		Articles:    st.Articles,
		Providers:   st.Providers,
	}
	if !st.UpdatedAt.IsZero() {
		v.UpdatedAt = st.UpdatedAt.UTC().Format(time.RFC3339)
	}
	switch st.Category {
	case engine.CategoryVideo:
		v.Active = st.Videos
	case engine.CategoryArticle:
		v.Active = st.Articles
	default:
		v.Active = st.Web
	}
	return v
}
