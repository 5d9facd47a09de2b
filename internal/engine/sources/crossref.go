package sources

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/anatolykoptev/go_unisearch/internal/engine"
)

// SearchArticles queries the CrossRef works API. No credential is needed;
// CROSSREF_MAILTO opts into the polite pool when set.
func SearchArticles(ctx context.Context, query string) ([]engine.ArticleResult, error) {
	params := url.Values{}
	params.Set("query", query)
	if engine.Cfg.ArticleRows > 0 {
		params.Set("rows", strconv.Itoa(engine.Cfg.ArticleRows))
	}
	if engine.Cfg.CrossrefMailto != "" {
		params.Set("mailto", engine.Cfg.CrossrefMailto)
	}
	u, err := buildURL(engine.Cfg.CrossrefURL, params)
	if err != nil {
		return nil, engine.WrapProvider(engine.ProviderArticle, err)
	}

	engine.IncrArticleRequests()
	var data crossrefResponse
	if err := engine.GetJSON(ctx, engine.ProviderArticle, u, &data); err != nil {
		return nil, engine.WrapProvider(engine.ProviderArticle, err)
	}

	results := normalizeArticles(data)
	slog.Debug("crossref: search complete", slog.String("query", query), slog.Int("results", len(results)))
	return results, nil
}
