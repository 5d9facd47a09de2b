package aggregate

import (
	"time"

	"github.com/anatolykoptev/go_unisearch/internal/engine"
)

// Provider status values.
const (
	StatusIdle    = "idle"
	StatusPending = "pending"
	StatusOK      = "ok"
	StatusFailed  = "failed"
)

// ProviderStatus tells "provider failed" apart from "provider found nothing",
// which the result lists alone cannot.
type ProviderStatus struct {
	Provider engine.Provider `json:"provider"`
	Status   string          `json:"status"`
	Count    int             `json:"count"`
	Error    string          `json:"error,omitempty"`
}

// State is the aggregation state of one presentation session.
// Only the Orchestrator writes it; readers get copies via Session.Snapshot.
type State struct {
	Query      string                 `json:"query"`
	Category   engine.Category        `json:"category"`
	Web        []engine.WebResult     `json:"web_results"`
	Videos     []engine.VideoResult   `json:"video_results"`
	Articles   []engine.ArticleResult `json:"article_results"`
	IsLoading  bool                   `json:"is_loading"`
	HasRun     bool                   `json:"has_run"`
	Providers  []ProviderStatus       `json:"providers"`
	Generation uint64                 `json:"generation"`
	UpdatedAt  time.Time              `json:"updated_at"`
}

// NewState returns the session-start state: empty lists, not loading, WEB selected.
func NewState() State {
	st := State{
		Category:  engine.CategoryWeb,
		Web:       []engine.WebResult{},
		Videos:    []engine.VideoResult{},
		Articles:  []engine.ArticleResult{},
		Providers: make([]ProviderStatus, len(engine.Providers)),
		UpdatedAt: time.Now().UTC(),
	}
	for i, p := range engine.Providers {
		st.Providers[i] = ProviderStatus{Provider: p, Status: StatusIdle}
	}
	return st
}

// Clone deep-copies the result lists so callers cannot alias session memory.
func (s State) Clone() State {
	s.Web = append([]engine.WebResult{}, s.Web...)
	s.Videos = append([]engine.VideoResult{}, s.Videos...)
	s.Articles = append([]engine.ArticleResult{}, s.Articles...)
	s.Providers = append([]ProviderStatus{}, s.Providers...)
	return s
}

// ActiveCount returns the size of the list for the selected category.
func (s State) ActiveCount() int {
	switch s.Category {
	case engine.CategoryVideo:
		return len(s.Videos)
	case engine.CategoryArticle:
		return len(s.Articles)
	default:
		return len(s.Web)
	}
}

func (s *State) setStatus(ps ProviderStatus) {
	for i := range s.Providers {
		if s.Providers[i].Provider == ps.Provider {
			s.Providers[i] = ps
			return
		}
	}
	s.Providers = append(s.Providers, ps)
}
