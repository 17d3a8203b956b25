package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"slideflow/internal/adapter/repo"
	"slideflow/internal/batch"
	"slideflow/internal/http/handlers"
	httpapi "slideflow/internal/http/httpapi"
	"slideflow/internal/infra"
	"slideflow/internal/infra/geoip"
	"slideflow/internal/middleware"
	"slideflow/internal/providers/genai"
	"slideflow/internal/storage"
)

const janitorInterval = time.Hour

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// One HTTP client for every render call.
	httpClient := &http.Client{Timeout: cfg.LLMTimeout}
	renderer, err := genai.NewClient(genai.Options{
		APIKey:     cfg.LLMAPIKey,
		BaseURL:    cfg.LLMAPIBase,
		Model:      cfg.LLMImageModel,
		HTTPClient: httpClient,
		Logger:     &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create image client")
	}
	if renderer.Synthetic() {
		logger.Warn().Msg("LLM_API_KEY not set; rendering synthetic placeholder images")
	}

	store, err := storage.NewFileStore(cfg.ImageOutputDir)
	if err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.ImageOutputDir).Msg("failed to prepare image directory")
	}

	var (
		archiver batch.Archiver
		history  handlers.History
	)
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		batches := repo.NewBatchRepository(infra.NewSQLRunner(pool, logger))
		if err := batches.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare batch archive")
		}
		archiver, history = batches, batches
		logger.Info().Msg("batch archive enabled")
	}

	var lookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		defer resolver.Close()
		lookup = resolver.CountryCode
	}

	executor := batch.NewExecutor(renderer, store, logger)
	orchestrator := batch.New(executor, batch.Options{
		DefaultWorkers:    cfg.BatchDefaultWorkers,
		MaxWorkers:        cfg.BatchMaxWorkers,
		MaxConcurrent:     cfg.BatchMaxConcurrent,
		DefaultTextLocale: cfg.DefaultTextLocale,
		Archiver:          archiver,
		Logger:            &logger,
	})
	go orchestrator.RunJanitor(ctx, janitorInterval, cfg.CleanupAge())

	app := handlers.NewApp(handlers.Options{
		Batches: orchestrator,
		Slides:  executor,
		Assets:  store,
		History: history,
		Limits: batch.Limits{
			DefaultWorkers: cfg.BatchDefaultWorkers,
			MaxWorkers:     cfg.BatchMaxWorkers,
			MaxConcurrent:  cfg.BatchMaxConcurrent,
			CleanupHours:   cfg.BatchCleanupHours,
		},
		WaitTimeout: cfg.BatchWaitTimeout,
		Logger:      &logger,
	})

	router := httpapi.NewRouter(app, httpapi.RouterConfig{
		APIPrefix:         cfg.APIPrefix,
		AssetDir:          store.BasePath(),
		AllowedOrigins:    cfg.AllowedOrigins,
		DefaultTextLocale: cfg.DefaultTextLocale,
		RateLimitPerMin:   cfg.RateLimitPerMin,
		CountryLookup:     lookup,
		Logger:            logger,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().
			Str("addr", server.Addr()).
			Str("model", renderer.Model()).
			Int("max_workers", cfg.BatchMaxWorkers).
			Msg("API listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	if err := orchestrator.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("batches still running at shutdown")
	}
	logger.Info().Msg("server stopped")
}
