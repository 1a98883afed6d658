// Package main wires together the cloner service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"sitecloner/internal/api"
	"sitecloner/internal/clock/system"
	"sitecloner/internal/clone"
	"sitecloner/internal/config"
	"sitecloner/internal/generator"
	generatoropenai "sitecloner/internal/generator/openai"
	"sitecloner/internal/id/uuid"
	"sitecloner/internal/logging"
	"sitecloner/internal/metrics"
	"sitecloner/internal/orchestrator"
	"sitecloner/internal/progress"
	scraperchromedp "sitecloner/internal/scraper/chromedp"
	"sitecloner/internal/storage/memory"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Missing .env is fine; viper reads the process environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := system.New()
	idGen := uuid.NewGenerator()
	jobStore := memory.NewJobStore(idGen, clock)
	registry := progress.NewRegistry(logger.Named("progress"))

	retry := clone.NewRetryPolicy()
	retry.MaxAttempts = cfg.Scraper.MaxAttempts
	retry.BaseDelay = cfg.Scraper.BackoffBase()
	scraper := scraperchromedp.New(scraperchromedp.Config{
		UserAgent:         cfg.Scraper.UserAgent,
		NavigationTimeout: cfg.Scraper.NavTimeout(),
		MaxStructureBytes: cfg.Scraper.MaxStructureBytes,
		Retry:             retry,
	}, logger.Named("scraper"),
		scraperchromedp.WithRetryHook(metrics.ObserveScrapeRetry),
	)

	gen := generator.NewService(
		buildGeneratorClient(cfg.Generator, logger),
		logger.Named("generator"),
		generator.WithFallbackHook(metrics.ObserveGenerationFallback),
	)

	orch := orchestrator.New(jobStore, registry, scraper, gen, orchestrator.Config{
		SubscriberWait: cfg.Orchestrator.SubscriberWait(),
	}, logger.Named("orchestrator"))

	apiServer := api.NewServer(jobStore, registry, orch, cfg, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

// buildGeneratorClient returns nil when no API key is available, which keeps
// the service on the deterministic fallback path.
func buildGeneratorClient(cfg config.GeneratorConfig, logger *zap.Logger) generator.Client {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	client, err := generatoropenai.NewClient(apiKey, cfg.Model, cfg.Timeout())
	if err != nil {
		logger.Warn("generation backend disabled, using fallback synthesis", zap.Error(err))
		return nil
	}
	logger.Info("generation backend ready", zap.String("model", cfg.Model))
	return client
}
