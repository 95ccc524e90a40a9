package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/robfig/cron/v3"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "trendpulse/docs"
	"trendpulse/internal/collector"
	"trendpulse/internal/config"
	"trendpulse/internal/enricher"
	"trendpulse/internal/extractor"
	httphandler "trendpulse/internal/handler/http"
	"trendpulse/internal/handler/http/middleware"
	"trendpulse/internal/handler/http/trigger"
	pgRepo "trendpulse/internal/infra/adapter/persistence/postgres"
	source "trendpulse/internal/infra/adapter/source"
	"trendpulse/internal/infra/db"
	"trendpulse/internal/infra/summarizer"
	"trendpulse/internal/orchestrator"
	"trendpulse/internal/reusecache"
)

// triggerRateLimit bounds how often one IP may invoke the expensive
// pipeline-run trigger per minute.
const triggerRateLimit = 5

func waitForMigrations(logger *slog.Logger, database *sql.DB) {
	const probe = "SELECT 1 FROM snapshots LIMIT 1"
	for i := 0; i < 10; i++ {
		if _, err := database.Exec(probe); err == nil {
			return
		}
		logger.Info("waiting for migrations, retrying in 3s", slog.Int("attempt", i+1))
		time.Sleep(3 * time.Second)
	}
	logger.Error("migrations did not complete in time")
	os.Exit(1)
}

func main() {
	logger := initLogger()
	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	if err := db.MigrateUp(database); err != nil {
		logger.Error("migration failed", slog.Any("error", err))
		os.Exit(1)
	}
	waitForMigrations(logger, database)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipelineCfg := config.LoadPipelineConfig(logger)
	sourcesPath := getEnvString("SOURCES_CONFIG_PATH", "config/sources.yaml")
	sourcesCfg, err := config.LoadSourcesConfig(sourcesPath)
	if err != nil {
		logger.Error("failed to load sources configuration", slog.Any("error", err))
		os.Exit(1)
	}

	orch := buildOrchestrator(logger, database, pipelineCfg, sourcesCfg)

	healthPort := getEnvInt("HEALTH_PORT", 8080)
	startHTTPServer(ctx, logger, database, orch, pipelineCfg, healthPort)

	startCronWorker(logger, orch, pipelineCfg)
}

// initLogger initializes and returns a structured logger based on environment configuration.
func initLogger() *slog.Logger {
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// initDatabase opens the database connection pool.
func initDatabase(logger *slog.Logger) *sql.DB {
	database := db.Open()
	return database
}

// buildOrchestrator wires every pipeline phase's collaborators from the
// loaded configuration: adapters, extractor LLM client, enricher search /
// summarization / translation clients, the reuse cache, and the three
// postgres repositories.
func buildOrchestrator(logger *slog.Logger, database *sql.DB, pipelineCfg *config.PipelineConfig, sourcesCfg *config.SourcesConfig) *orchestrator.Orchestrator {
	adapters := buildAdapters(logger, sourcesCfg, pipelineCfg.GitHubToken)

	extractorClient := buildExtractorClient(logger, pipelineCfg)
	extr := extractor.New(extractorClient, logger)

	coll := collector.New(logger)

	summarizerKo := buildSummarizer(logger, pipelineCfg)
	search := enricher.NewTavilyClient(pipelineCfg.TavilyAPIKey, logger)
	translator := enricher.NewClaudeTitleTranslator(os.Getenv("ANTHROPIC_API_KEY"), "", logger)
	contentFetcher := enricher.NewReadabilityContentFetcher(logger)

	enr := enricher.New(search, summarizerKo, translator, contentFetcher, pipelineCfg.EnableEnSummary, pipelineCfg.SummaryContextLimit, logger)

	snapshots := pgRepo.NewSnapshotRepo(database)
	keywords := pgRepo.NewKeywordRepo(database)
	sources := pgRepo.NewSourceRepo(database)
	aliases := pgRepo.NewAliasRepo(database)
	searchCounts := pgRepo.NewSearchCountRepo(database)

	reuse := reusecache.New(snapshots, keywords, sources, pipelineCfg.ReuseWindowSnapshots, logger)

	cfg := orchestrator.Config{
		TopR:                   pipelineCfg.RankedKeywords,
		TopD:                   pipelineCfg.DetailedKeywords,
		KeywordConcurrency:     pipelineCfg.KeywordConcurrency,
		LightweightConcurrency: pipelineCfg.LightweightConcurrency,
		ReuseWindowSnapshots:   pipelineCfg.ReuseWindowSnapshots,
	}

	return orchestrator.New(coll, adapters, extr, enr, reuse, snapshots, keywords, sources, aliases, searchCounts, cfg, logger)
}

// buildAdapters constructs one collector.Adapter per configured source
// family. A family with an empty target list is simply omitted: adapters
// are stateless fan-out over a fixed registry, not required participants.
func buildAdapters(logger *slog.Logger, cfg *config.SourcesConfig, githubToken string) []collector.Adapter {
	var adapters []collector.Adapter

	if len(cfg.RSSFeeds) > 0 {
		adapters = append(adapters, source.NewRSSAdapter(cfg.RSSFeeds, logger))
	}
	if len(cfg.GitHubMarkdown) > 0 {
		adapters = append(adapters, source.NewGitHubMarkdownAdapter(cfg.GitHubMarkdown, cfg.SocialDomains, githubToken, logger))
	}
	if len(cfg.GitHubReleases) > 0 {
		adapters = append(adapters, source.NewGitHubReleasesAdapter(cfg.GitHubReleases, githubToken, logger))
	}
	if len(cfg.Changelogs) > 0 {
		adapters = append(adapters, source.NewChangelogAdapter(cfg.Changelogs, logger))
	}
	if len(cfg.YouTubeChannels) > 0 {
		adapters = append(adapters, source.NewYouTubeAdapter(cfg.YouTubeChannels, logger))
	}

	adapters = append(adapters, source.NewHNAdapter(logger))
	adapters = append(adapters, source.NewGDELTAdapter("artificial intelligence", logger))
	adapters = append(adapters, source.NewGitHubSearchAdapter("AI", githubToken, logger))

	logger.Info("source adapters initialized", slog.Int("count", len(adapters)))
	return adapters
}

// buildExtractorClient selects the keyword-extraction LLM client based on
// EXTRACTOR_PROVIDER (default claude), matching this codebase's
// credential-presence-driven provider selection style.
func buildExtractorClient(logger *slog.Logger, cfg *config.PipelineConfig) extractor.KeywordExtractorClient {
	provider := getEnvString("EXTRACTOR_PROVIDER", "claude")
	switch provider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			logger.Error("OPENAI_API_KEY is required when EXTRACTOR_PROVIDER=openai")
			os.Exit(1)
		}
		logger.Info("using OpenAI for keyword extraction", slog.String("model", cfg.OpenAIModel))
		return extractor.NewOpenAIExtractorClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, logger)
	case "claude":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			logger.Error("ANTHROPIC_API_KEY is required when EXTRACTOR_PROVIDER=claude")
			os.Exit(1)
		}
		logger.Info("using Claude for keyword extraction")
		return extractor.NewClaudeExtractorClient(apiKey, "", logger)
	default:
		logger.Error("invalid EXTRACTOR_PROVIDER", slog.String("provider", provider), slog.String("expected", "claude or openai"))
		os.Exit(1)
		return nil
	}
}

// buildSummarizer selects the Korean-language summarizer based on
// SUMMARIZER_TYPE (default claude), falling back to a no-op summarizer
// when no credential is configured rather than failing startup — keyword
// rows still persist with an empty summary per spec §7's degrade rules.
func buildSummarizer(logger *slog.Logger, cfg *config.PipelineConfig) summarizer.Summarizer {
	summarizerType := getEnvString("SUMMARIZER_TYPE", "claude")

	switch summarizerType {
	case "claude":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			logger.Warn("ANTHROPIC_API_KEY not set, summarization disabled")
			return summarizer.NewNoOp()
		}
		logger.Info("using Claude API for summarization")
		return summarizer.NewClaude(apiKey)
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			logger.Warn("OPENAI_API_KEY not set, summarization disabled")
			return summarizer.NewNoOp()
		}
		openaiCfg, err := summarizer.LoadOpenAIConfig()
		if err != nil {
			logger.Warn("failed to load OpenAI configuration, summarization disabled", slog.Any("error", err))
			return summarizer.NewNoOp()
		}
		logger.Info("using OpenAI API for summarization")
		return summarizer.NewOpenAI(cfg.OpenAIAPIKey, openaiCfg)
	case "noop":
		return summarizer.NewNoOp()
	default:
		logger.Warn("unrecognized SUMMARIZER_TYPE, summarization disabled", slog.String("type", summarizerType))
		return summarizer.NewNoOp()
	}
}

// startHTTPServer mounts the health, metrics and trigger endpoints behind
// the shared request-logging/recovery middleware chain and serves them in
// the background.
func startHTTPServer(ctx context.Context, logger *slog.Logger, database *sql.DB, orch *orchestrator.Orchestrator, pipelineCfg *config.PipelineConfig, port int) {
	mux := http.NewServeMux()
	mux.Handle("/healthz", &httphandler.HealthHandler{DB: database, Version: "dev"})
	mux.Handle("/metrics", httphandler.MetricsHandler())

	triggerLimiter := middleware.NewRateLimiter(triggerRateLimit, time.Minute, &middleware.RemoteAddrExtractor{})
	mux.Handle("/trigger", triggerLimiter.Middleware(trigger.Handler{
		Runner:     orch,
		Schedule:   pipelineCfg,
		CronSecret: pipelineCfg.CronSecret,
		Logger:     logger,
	}))
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	handler := httphandler.Logging(logger)(mux)
	handler = httphandler.Recover(logger)(handler)

	addr := fmt.Sprintf(":%d", port)
	server := &http.Server{Addr: addr, Handler: handler}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	go func() {
		logger.Info("http server started", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", slog.Any("error", err))
		}
	}()
}

// startCronWorker schedules one pipeline run per PIPELINE_SCHEDULE_UTC slot
// and blocks forever, matching spec §4.8's 4x/day (or configured) cadence.
func startCronWorker(logger *slog.Logger, orch *orchestrator.Orchestrator, cfg *config.PipelineConfig) {
	c := cron.New(cron.WithLocation(time.UTC))

	for _, slot := range cfg.ScheduleUTC {
		spec := fmt.Sprintf("%d %d * * *", slot.Minute, slot.Hour)
		if _, err := c.AddFunc(spec, func() { runPipeline(logger, orch, cfg) }); err != nil {
			logger.Error("failed to add cron job", slog.String("spec", spec), slog.Any("error", err))
			os.Exit(1)
		}
	}
	c.Start()

	logger.Info("worker started", slog.Int("scheduled_slots", len(cfg.ScheduleUTC)))
	select {}
}

// runPipeline executes a single pipeline run with a generous timeout,
// logging the resulting summary counters.
func runPipeline(logger *slog.Logger, orch *orchestrator.Orchestrator, cfg *config.PipelineConfig) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	logger.Info("pipeline run started")
	summary, err := orch.Run(ctx, cfg)
	if err != nil {
		logger.Error("pipeline run failed", slog.Any("error", err))
		return
	}

	logger.Info("pipeline run completed",
		slog.String("snapshot_id", summary.SnapshotID),
		slog.Int("keyword_count", summary.KeywordCount),
		slog.Int("reused_count", summary.ReusedCount),
		slog.Int("new_count", summary.NewCount),
		slog.Int64("elapsed_ms", summary.ElapsedMs))
}

func getEnvString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
