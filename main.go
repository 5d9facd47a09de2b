// go_unisearch: unified web, video and article search MCP server.
//
// Exposes four MCP tools: unified_search, set_category, search_state,
// provider_diagnostics. One query fans out to Google Custom Search, YouTube
// Data API and CrossRef; results are kept per session.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_unisearch/internal/aggregate"
	"github.com/anatolykoptev/go_unisearch/internal/diagnostics"
	"github.com/anatolykoptev/go_unisearch/internal/engine"
	"github.com/anatolykoptev/go_unisearch/internal/searchserver"
)

var (
	version = "dev"
	mcpPort = env.Str("MCP_PORT", "8893")
)

func main() {
	ctx := context.Background()
	initEngine()

	store := aggregate.NewTieredStore(ctx,
		env.Str("REDIS_URL", ""),
		env.Duration("SESSION_TTL", 24*time.Hour),
		env.Int("SESSION_MAX_ENTRIES", 1000),
		env.Duration("SESSION_CLEANUP_INTERVAL", 5*time.Minute))
	defer store.Close()

	registry := aggregate.NewRegistry(store)
	go registry.SweepLoop(ctx, 5*time.Minute, env.Duration("SESSION_IDLE", 30*time.Minute))

	recorder, lister, closeDiag := initDiagnostics(ctx)
	defer closeDiag()

	orch := aggregate.NewOrchestrator(aggregate.DefaultAdapters(), recorder, engine.Cfg.ProviderTimeout)

	slog.Info("starting go_unisearch",
		slog.String("port", mcpPort),
		slog.Bool("web", engine.Cfg.GoogleAPIKey != "" && engine.Cfg.GoogleCX != ""),
		slog.Bool("video", engine.Cfg.YouTubeAPIKey != ""),
	)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_unisearch",
		Version: version,
	}, nil)

	n := searchserver.RegisterTools(server, searchserver.Deps{
		Registry:     registry,
		Orchestrator: orch,
		Diagnostics:  lister,
	})
	slog.Info("tools registered", slog.Int("count", n))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_unisearch",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 120 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}

func initEngine() {
	engine.Init(engine.Config{
		GoogleAPIKey:    env.Str("GOOGLE_API_KEY", ""),
		GoogleCX:        env.Str("GOOGLE_CX", ""),
		YouTubeAPIKey:   env.Str("YOUTUBE_API_KEY", ""),
		CrossrefMailto:  env.Str("CROSSREF_MAILTO", ""),
		WebSearchURL:    env.Str("WEB_SEARCH_URL", engine.DefaultWebSearchURL),
		YouTubeAPIBase:  env.Str("YOUTUBE_API_BASE", engine.DefaultYouTubeAPIBase),
		CrossrefURL:     env.Str("CROSSREF_URL", engine.DefaultCrossrefURL),
		VideoMaxResults: env.Int("VIDEO_MAX_RESULTS", 50),
		ArticleRows:     env.Int("ARTICLE_ROWS", 20),
		ProviderTimeout: env.Duration("PROVIDER_TIMEOUT", 15*time.Second),
		ProviderRPS:     env.Float("PROVIDER_RPS", 5),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	})
}

// initDiagnostics picks the failure recorder: Postgres when DATABASE_URL is set,
// otherwise the local SQLite file, falling back to an in-memory ring.
// Failures always go to the log as well.
func initDiagnostics(ctx context.Context) (diagnostics.Recorder, diagnostics.Lister, func()) {
	if dsn := env.Str("DATABASE_URL", ""); dsn != "" {
		pg, err := diagnostics.ConnectPostgres(ctx, dsn)
		if err != nil {
			slog.Warn("diagnostics postgres init failed", slog.Any("error", err))
		} else {
			m := diagnostics.Multi{diagnostics.LogRecorder{}, pg}
			return m, m, pg.Close
		}
	}

	path := env.Str("DIAGNOSTICS_DB", filepath.Join(os.Getenv("HOME"), ".go_unisearch", "diagnostics.db"))
	if path != "" {
		db, err := diagnostics.OpenSQLite(path)
		if err != nil {
			slog.Warn("diagnostics sqlite init failed", slog.Any("error", err))
		} else {
			slog.Info("diagnostics sqlite opened", slog.String("path", path))
			m := diagnostics.Multi{diagnostics.LogRecorder{}, db}
			return m, m, func() { _ = db.Close() }
		}
	}

	m := diagnostics.Multi{diagnostics.LogRecorder{}, diagnostics.NewRing(200)}
	return m, m, func() {}
}
