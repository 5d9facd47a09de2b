package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	SearchRuns           atomic.Int64
	SearchRunsRejected   atomic.Int64
	SearchRunsSuperseded atomic.Int64
	WebRequests          atomic.Int64
	YouTubeSearchReqs    atomic.Int64
	YouTubeStatsReqs     atomic.Int64
	ArticleRequests      atomic.Int64
	ProviderErrors       atomic.Int64
	VideosDropped        atomic.Int64
	SessionsCreated      atomic.Int64
	SessionsRestored     atomic.Int64
}

// GetMetrics returns a snapshot of all metrics.
func GetMetrics() map[string]int64 {
	return map[string]int64{
		"search_runs":             metrics.SearchRuns.Load(),
		"search_runs_rejected":    metrics.SearchRunsRejected.Load(),
		"search_runs_superseded":  metrics.SearchRunsSuperseded.Load(),
		"web_requests":            metrics.WebRequests.Load(),
		"youtube_search_requests": metrics.YouTubeSearchReqs.Load(),
		"youtube_stats_requests":  metrics.YouTubeStatsReqs.Load(),
		"article_requests":        metrics.ArticleRequests.Load(),
		"provider_errors":         metrics.ProviderErrors.Load(),
		"videos_dropped":          metrics.VideosDropped.Load(),
		"sessions_created":        metrics.SessionsCreated.Load(),
		"sessions_restored":       metrics.SessionsRestored.Load(),
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	keys := []string{
		"search_runs", "search_runs_rejected", "search_runs_superseded",
		"web_requests", "youtube_search_requests", "youtube_stats_requests", "article_requests",
		"provider_errors", "videos_dropped",
		"sessions_created", "sessions_restored",
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for sources/ and aggregate/ sub-packages.
func IncrSearchRun()           { metrics.SearchRuns.Add(1) }
func IncrSearchRejected()      { metrics.SearchRunsRejected.Add(1) }
func IncrSearchSuperseded()    { metrics.SearchRunsSuperseded.Add(1) }
func IncrWebRequests()         { metrics.WebRequests.Add(1) }
func IncrYouTubeSearch()       { metrics.YouTubeSearchReqs.Add(1) }
func IncrYouTubeStats()        { metrics.YouTubeStatsReqs.Add(1) }
func IncrArticleRequests()     { metrics.ArticleRequests.Add(1) }
func IncrProviderErrors()      { metrics.ProviderErrors.Add(1) }
func AddVideosDropped(n int)   { metrics.VideosDropped.Add(int64(n)) }
func IncrSessionsCreated()     { metrics.SessionsCreated.Add(1) }
func IncrSessionsRestored()    { metrics.SessionsRestored.Add(1) }

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > 5*time.Second {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
