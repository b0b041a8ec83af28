package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"assistant-workers/internal/assistant/intent"
	"assistant-workers/internal/assistant/mutation"
	"assistant-workers/internal/assistant/pending"
	"assistant-workers/internal/common/camunda"
	"assistant-workers/internal/common/config"
	"assistant-workers/internal/common/database"
	"assistant-workers/internal/common/genai"
	"assistant-workers/internal/common/logger"
	"assistant-workers/internal/common/observability"
	"assistant-workers/internal/shop"

	cpa "assistant-workers/internal/workers/assistant/commit-pending-action"
	dci "assistant-workers/internal/workers/assistant/detect-chat-intent"
	dpa "assistant-workers/internal/workers/assistant/discard-pending-action"
	pm "assistant-workers/internal/workers/assistant/propose-mutation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs, err := observability.New("assistant-workers", prometheus.DefaultRegisterer)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}

	onRetry := func(name string) func(int, error, time.Duration) {
		return func(attempt int, err error, wait time.Duration) {
			zapLog.Warn(name+" failed, retrying...",
				zap.Error(err),
				zap.Int("attempt", attempt),
				zap.Duration("nextRetryIn", wait),
			)
		}
	}

	// --- Zeebe ---
	var zeebeClient zbc.Client
	err = camunda.RetryWithBackoff(ctx, camunda.DefaultRetryConfig, func(ctx context.Context) error {
		zeebeClient, err = camunda.Connect(ctx, cfg.Camunda)
		return err
	}, onRetry("Zeebe connection"))
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	pgRetry := camunda.DefaultRetryConfig
	pgRetry.MaxAttempts = 15
	err = camunda.RetryWithBackoff(ctx, pgRetry, func(ctx context.Context) error {
		if pg == nil {
			if pg, err = database.NewPostgres(cfg.Database.Postgres); err != nil {
				return err
			}
		}
		return pg.Ping(ctx)
	}, onRetry("PostgreSQL connection"))
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	deps := map[string]database.Pinger{"postgres": pg}

	// --- Pending-action store ---
	ttl := config.GetDuration(cfg.Assistant.PendingTTL)
	var store pending.Store
	switch cfg.Assistant.PendingBackend {
	case config.PendingBackendRedis:
		rdb := database.NewRedis(cfg.Database.Redis)
		defer rdb.Close()
		err = camunda.RetryWithBackoff(ctx, camunda.DefaultRetryConfig, rdb.Ping, onRetry("Redis connection"))
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		store = pending.NewRedisStore(rdb.Client, cfg.Assistant.PendingKeyPrefix, ttl, time.Now)
		deps["redis"] = rdb
		zapLog.Info("Pending actions stored in Redis", zap.Duration("ttl", ttl))
	default:
		store = pending.NewMemoryStore(ttl, time.Now)
		zapLog.Info("Pending actions stored in memory", zap.Duration("ttl", ttl))
	}

	// --- Product lookup ---
	repo := shop.NewRepository(pg.DB)
	var index shop.ProductSearcher
	if cfg.Assistant.ProductIndexEnabled {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			zapLog.Fatal("elasticsearch client init failed", zap.Error(err))
		}
		if err := es.Ping(ctx); err != nil {
			// The index is an optional tier; lookups degrade to a miss until it answers.
			zapLog.Warn("Elasticsearch not reachable at startup", zap.Error(err))
		}
		index = shop.NewProductIndex(es.Client, cfg.Assistant.ProductIndex)
		deps["elasticsearch"] = es
	}
	data := shop.NewStore(repo, shop.NewProductFinder(repo, index, log, obs))

	// --- Core ---
	gen := genai.NewClient(cfg.APIs.GenAI.BaseURL, cfg.APIs.GenAI.APIKey, config.GetDuration(cfg.APIs.GenAI.Timeout))
	classifier := intent.NewClassifier(gen, intent.DefaultCatalog(), intent.ClassifierOptions{
		Temperature: cfg.Assistant.ClassifierTemperature,
		MaxTokens:   cfg.Assistant.ClassifierMaxTokens,
		Timeout:     config.GetDuration(cfg.Assistant.ClassifierTimeout),
	}, log, obs)
	detector := intent.NewDetector(classifier, log, obs)
	orchestrator := mutation.NewOrchestrator(data, store, log, mutation.WithRecorder(obs))

	// --- Workers ---
	workers := camunda.NewWorkerSet(zeebeClient, log)

	detectHandler, err := dci.NewHandler(dci.HandlerOptions{
		Config:   dci.ConfigFromApp(cfg),
		Detector: detector,
		Pending:  orchestrator,
		Logger:   log,
	})
	if err != nil {
		zapLog.Fatal("failed to create detect-chat-intent handler", zap.Error(err))
	}
	workers.Start(dci.TaskType, config.GetWorkerConfig(cfg, dci.TaskType), detectHandler.Handle)

	proposeHandler, err := pm.NewHandler(pm.HandlerOptions{
		Config:   pm.ConfigFromApp(cfg),
		Proposer: orchestrator,
		Logger:   log,
	})
	if err != nil {
		zapLog.Fatal("failed to create propose-mutation handler", zap.Error(err))
	}
	workers.Start(pm.TaskType, config.GetWorkerConfig(cfg, pm.TaskType), proposeHandler.Handle)

	commitHandler, err := cpa.NewHandler(cpa.HandlerOptions{
		Config:    cpa.ConfigFromApp(cfg),
		Committer: orchestrator,
		Logger:    log,
	})
	if err != nil {
		zapLog.Fatal("failed to create commit-pending-action handler", zap.Error(err))
	}
	workers.Start(cpa.TaskType, config.GetWorkerConfig(cfg, cpa.TaskType), commitHandler.Handle)

	discardHandler, err := dpa.NewHandler(dpa.HandlerOptions{
		Config:    dpa.ConfigFromApp(cfg),
		Discarder: orchestrator,
		Logger:    log,
	})
	if err != nil {
		zapLog.Fatal("failed to create discard-pending-action handler", zap.Error(err))
	}
	workers.Start(dpa.TaskType, config.GetWorkerConfig(cfg, dpa.TaskType), discardHandler.Handle)

	zapLog.Info("Workers registered", zap.Strings("taskTypes", workers.TaskTypes()))

	// --- Health & Metrics Server ---
	deps["zeebe"] = zeebePinger{client: zeebeClient, timeout: config.GetDuration(cfg.Camunda.RequestTimeout)}
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           newServeMux(deps, 3*time.Second),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	workers.Close(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error flushing metrics", zap.Error(err))
	}
	if err := zeebeClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}
