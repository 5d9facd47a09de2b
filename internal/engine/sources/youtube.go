package sources

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go_unisearch/internal/engine"
)

// YouTube search runs in two sequential calls against the Data API v3:
//   search?part=snippet    titles, descriptions, thumbnails (no engagement)
//   videos?part=statistics like/view counts for the whole id batch in one call
// The two are joined by video id, zero-engagement videos are dropped and the rest
// are ordered by view count.

const (
	ytMaxResults     = 50 // API cap for both search and videos?id=
	ytDefaultResults = 50
)

// SearchVideos returns engaged videos for query, most viewed first.
// A failed statistics call fails the whole search; partial video data is never returned.
func SearchVideos(ctx context.Context, query string) ([]engine.VideoResult, error) {
	apiKey := engine.Cfg.YouTubeAPIKey
	if apiKey == "" {
		return nil, engine.WrapProvider(engine.ProviderVideo,
			&engine.ConfigError{Provider: engine.ProviderVideo, Field: "YOUTUBE_API_KEY"})
	}

	videos, err := searchVideoSnippets(ctx, query, apiKey)
	if err != nil {
		return nil, engine.WrapProvider(engine.ProviderVideo, err)
	}
	if len(videos) == 0 {
		slog.Info("youtube: no results", slog.String("query", query))
		return []engine.VideoResult{}, nil
	}

	stats, err := fetchVideoStatistics(ctx, videoIDs(videos), apiKey)
	if err != nil {
		return nil, engine.WrapProvider(engine.ProviderVideo, err)
	}

	joined := joinStatistics(videos, stats)
	kept := filterEngaged(joined)
	sortByViews(kept)

	if dropped := len(joined) - len(kept); dropped > 0 {
		engine.AddVideosDropped(dropped)
		slog.Debug("youtube: dropped zero-engagement videos", slog.Int("dropped", dropped))
	}
	slog.Debug("youtube: search complete", slog.String("query", query), slog.Int("results", len(kept)))
	return kept, nil
}

func videoMaxResults() int {
	n := engine.Cfg.VideoMaxResults
	if n <= 0 {
		return ytDefaultResults
	}
	if n > ytMaxResults {
		return ytMaxResults
	}
	return n
}

func searchVideoSnippets(ctx context.Context, query, apiKey string) ([]engine.VideoResult, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("maxResults", strconv.Itoa(videoMaxResults()))
	params.Set("q", query)
	params.Set("key", apiKey)
	u, err := buildURL(strings.TrimRight(engine.Cfg.YouTubeAPIBase, "/")+"/search", params)
	if err != nil {
		return nil, err
	}

	engine.IncrYouTubeSearch()
	var data ytSearchResp
	if err := engine.GetJSON(ctx, engine.ProviderVideo, u, &data); err != nil {
		return nil, err
	}
	return normalizeSnippets(data.Items), nil
}

func fetchVideoStatistics(ctx context.Context, ids []string, apiKey string) (map[string]ytStatistics, error) {
	params := url.Values{}
	params.Set("part", "statistics")
	params.Set("id", strings.Join(ids, ","))
	params.Set("key", apiKey)
	u, err := buildURL(strings.TrimRight(engine.Cfg.YouTubeAPIBase, "/")+"/videos", params)
	if err != nil {
		return nil, err
	}

	engine.IncrYouTubeStats()
	var data ytStatsResp
	if err := engine.GetJSON(ctx, engine.ProviderVideo, u, &data); err != nil {
		return nil, err
	}
	return statisticsByID(data.Items), nil
}
