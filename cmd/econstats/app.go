package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"econstats/internal/cache"
	"econstats/internal/catalog"
	"econstats/internal/config"
	"econstats/internal/enrich"
	"econstats/internal/grouping"
	"econstats/internal/jobs"
	"econstats/internal/llm"
	"econstats/internal/llmrouter"
	"econstats/internal/metrics"
	"econstats/internal/models"
	"econstats/internal/narrative"
	"econstats/internal/plancatalog"
	"econstats/internal/registry"
	"econstats/internal/router"
	"econstats/internal/search"
	"econstats/internal/sources"
	"econstats/internal/transform"
)

// app holds the wired collaborators shared by the subcommands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *registry.Registry
	plans    *plancatalog.Catalog
	series   *catalog.Catalog
	router   *router.Router
	search   *search.Service
	caches   []metrics.StatsSource
	sweepers []jobs.Sweeper
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var handler slog.Handler
	if cfg.IsDev() {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// loadConfig reads env and YAML configuration and installs the default logger.
func loadConfig() (*config.Config, *config.YAMLConfig, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ycfg, err := config.LoadYAMLConfig(cfg.ConfigFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load yaml config: %w", err)
	}
	if ycfg == nil {
		logger.Debug("No YAML config file, using defaults", "path", cfg.ConfigFile)
	}
	return cfg, ycfg, logger, nil
}

// buildApp wires the registry, models, data source and pipeline.
func buildApp(cfg *config.Config, ycfg *config.YAMLConfig, logger *slog.Logger) (*app, error) {
	series := catalog.Default()

	reg, err := registry.NewDefault(registry.WithCatalog(series), registry.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("load built-in plans: %w", err)
	}
	if cfg.PlansDir != "" {
		n, err := reg.LoadDir(cfg.PlansDir)
		if err != nil {
			return nil, fmt.Errorf("load plans dir: %w", err)
		}
		logger.Info("Loaded plans", "dir", cfg.PlansDir, "plans", n)
	}
	if ycfg != nil {
		for _, path := range ycfg.PlanFiles {
			n, err := reg.LoadFile(path)
			if err != nil {
				return nil, fmt.Errorf("load plan file: %w", err)
			}
			logger.Info("Loaded plans", "file", path, "plans", n)
		}
	}
	plans := plancatalog.Build(reg, plancatalog.WithLogger(logger))

	retry := llm.DefaultRetryConfig()
	retry.MaxAttempts = cfg.LLMMaxAttempts

	routingCache := cache.New[models.RoutingResult](cfg.RoutingCacheTTL, cfg.RoutingCacheSize, cache.WithName("routing"))
	dataCache := cache.New[models.SeriesData](cfg.DataCacheTTL, cfg.DataCacheSize, cache.WithName("data"))
	summaryCache := cache.New[string](cfg.SummaryCacheTTL, cfg.SummaryCacheSize, cache.WithName("summaries"))
	decisionCache := llmrouter.NewDecisionCache()

	opts := []router.Option{
		router.WithCache(routingCache),
		router.WithLogger(logger),
	}
	if t := ycfg.PlanFuzzyThreshold(); t > 0 {
		opts = append(opts, router.WithFuzzyThreshold(t))
	}

	// Summaries prefer the secondary model and fall back to the primary.
	var writer llm.Completer
	if cfg.HasPrimaryLLM() {
		gemini := llm.NewGemini(cfg.GeminiKey(),
			llm.WithModel(cfg.GeminiModel),
			llm.WithTimeout(cfg.LLMTimeout),
			llm.WithRetryConfig(retry),
			llm.WithLogger(logger),
		)
		writer = gemini
		opts = append(opts, router.WithLLM(llmrouter.New(gemini, plans,
			llmrouter.WithCache(decisionCache),
			llmrouter.WithLogger(logger),
		)))
	} else {
		logger.Warn("No routing model configured, only deterministic stages will run")
	}
	if cfg.HasFallbackLLM() {
		claude := llm.NewAnthropic(cfg.AnthropicAPIKey,
			llm.WithModel(cfg.AnthropicModel),
			llm.WithTimeout(cfg.LLMTimeout),
			llm.WithRetryConfig(retry),
			llm.WithLogger(logger),
		)
		writer = claude
		opts = append(opts, router.WithFallback(llmrouter.NewClassifier(claude, reg.AllPlanKeys(), logger)))
	}

	var fetcher sources.Fetcher
	if cfg.HasDataSource() {
		fetcher = sources.NewCachedFetcher(
			sources.NewFRED(cfg.FREDAPIKey, sources.WithFREDCatalog(series), sources.WithFREDLogger(logger)),
			dataCache,
		)
	} else {
		logger.Warn("FRED_API_KEY not set, searches will not fetch data")
	}

	table, err := ycfg.Projections()
	if err != nil {
		return nil, fmt.Errorf("load fed projections: %w", err)
	}
	opts = append(opts, router.WithEnrichers(
		enrich.NewFedGuidance(table, fetcher, logger),
		enrich.NewRecessionScorecard(fetcher, series, logger),
		enrich.NewEquityValuation(ycfg.CAPEReading()),
		enrich.MarketQuery{},
	))

	r := router.New(reg, opts...)

	svc := search.New(r, fetcher,
		search.WithTransform(transform.New(series)),
		search.WithGrouper(grouping.New(series, ycfg.GroupingOptions(), logger)),
		search.WithSummarizer(narrative.New(writer, summaryCache, logger)),
		search.WithYears(cfg.DefaultYears),
		search.WithLogger(logger),
	)

	a := &app{
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		plans:    plans,
		series:   series,
		router:   r,
		search:   svc,
	}
	for _, c := range []interface {
		metrics.StatsSource
		jobs.Sweeper
	}{routingCache, decisionCache, dataCache, summaryCache} {
		a.caches = append(a.caches, c)
		a.sweepers = append(a.sweepers, c)
	}

	logger.Info("Pipeline ready",
		"plans", reg.Len(),
		"series", series.Len(),
		"capabilities", cfg.Capabilities(),
	)
	return a, nil
}

// ready reports whether the router can serve queries.
func (a *app) ready() error {
	if a.registry.Len() == 0 {
		return errors.New("no plans loaded")
	}
	return nil
}
