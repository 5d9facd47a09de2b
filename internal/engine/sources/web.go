package sources

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/anatolykoptev/go_unisearch/internal/engine"
)

// SearchWeb queries the Google Custom Search JSON API.
// Provider ranking is returned verbatim; a payload without items is an empty result.
func SearchWeb(ctx context.Context, query string) ([]engine.WebResult, error) {
	if engine.Cfg.GoogleAPIKey == "" {
		return nil, engine.WrapProvider(engine.ProviderWeb,
			&engine.ConfigError{Provider: engine.ProviderWeb, Field: "GOOGLE_API_KEY"})
	}
	if engine.Cfg.GoogleCX == "" {
		return nil, engine.WrapProvider(engine.ProviderWeb,
			&engine.ConfigError{Provider: engine.ProviderWeb, Field: "GOOGLE_CX"})
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("key", engine.Cfg.GoogleAPIKey)
	params.Set("cx", engine.Cfg.GoogleCX)
	u, err := buildURL(engine.Cfg.WebSearchURL, params)
	if err != nil {
		return nil, engine.WrapProvider(engine.ProviderWeb, err)
	}

	engine.IncrWebRequests()
	var data cseResponse
	if err := engine.GetJSON(ctx, engine.ProviderWeb, u, &data); err != nil {
		return nil, engine.WrapProvider(engine.ProviderWeb, err)
	}

	results := normalizeWeb(data.Items)
	slog.Debug("web: search complete", slog.String("query", query), slog.Int("results", len(results)))
	return results, nil
}
