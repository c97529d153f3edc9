// go_hoover: technical entity extraction from YouTube videos, as an MCP server.
//
// Exposes four MCP tools: analyze_video, analyze_batch, extract_entities,
// list_categories. Runs as HTTP MCP server or stdio transport.
package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_hoover/internal/engine"
	"github.com/anatolykoptev/go_hoover/internal/engine/analysis"
	"github.com/anatolykoptev/go_hoover/internal/engine/extract"
	"github.com/anatolykoptev/go_hoover/internal/engine/sources"
	"github.com/anatolykoptev/go_hoover/internal/hooverserver"
)

var (
	version = "dev"
	mcpPort = env.Str("MCP_PORT", "8893")
)

func main() {
	engine.InitLogging(env.Str("LOG_LEVEL", "info"), env.Str("LOG_FILE", ""))
	initEngine()

	o, err := newOrchestrator()
	if err != nil {
		slog.Error("init failed", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("starting go_hoover",
		slog.String("port", mcpPort),
		slog.Bool("youtube_api", engine.Cfg.YouTubeAPIKey != ""),
	)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_hoover",
		Version: version,
	}, nil)

	hooverserver.RegisterTools(server, o)
	slog.Info("tools registered", slog.Int("count", hooverserver.ToolCount))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_hoover",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 600 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}

func initEngine() {
	c := engine.ConfigFromEnv()
	c.HTTPClient = &http.Client{
		Timeout: 15 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     60 * time.Second,
		},
	}
	engine.Init(c)
	engine.InitCache(env.Str("REDIS_URL", ""), c.CacheTTL, c.CacheMaxEntries, c.CacheCleanupInterval)
}

func newOrchestrator() (*analysis.Orchestrator, error) {
	cat, err := loadCatalog(engine.Cfg.CatalogFile)
	if err != nil {
		return nil, err
	}
	slog.Info("catalog loaded", slog.Int("entries", cat.Len()))

	player := sources.NewPlayerClient()
	var meta analysis.MetadataSource = player
	if engine.Cfg.YouTubeAPIKey != "" {
		meta = sources.NewYouTubeClient()
	} else {
		slog.Warn("YOUTUBE_API_KEY not set, reading metadata from the innertube player")
	}

	opts := analysis.OptionsFromConfig(engine.Cfg)
	opts.Quota = analysis.NewQuotaFromConfig(engine.Cfg)
	opts.Cache = engine.MetadataCache{}

	ex := extract.NewExtractor(cat, analysis.ScoringFromConfig(engine.Cfg))
	return analysis.New(meta, player, ex, opts), nil
}

func loadCatalog(path string) (*extract.Catalog, error) {
	if path == "" {
		return extract.LoadCatalog()
	}
	return extract.LoadCatalogFile(path)
}
