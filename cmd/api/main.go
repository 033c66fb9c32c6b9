package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Aquil1401/resume-reviewer/internal/config"
	"github.com/Aquil1401/resume-reviewer/internal/handlers"
	"github.com/Aquil1401/resume-reviewer/internal/logger"
	"github.com/Aquil1401/resume-reviewer/internal/repositories"
	"github.com/Aquil1401/resume-reviewer/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("❌ Invalid configuration", zap.Error(err))
	}
	log.Info("✅ Config loaded successfully", zap.String("env", cfg.Server.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Gemini AI
	geminiService, err := services.NewGeminiService(ctx, cfg.Gemini, log)
	if err != nil {
		log.Fatal("❌ Failed to initialize Gemini AI", zap.Error(err))
	}
	log.Info("✅ Gemini AI initialized successfully", zap.String("model", cfg.Gemini.Model))

	retry := services.NewRetryController(
		services.RetryPolicy{
			MaxRetries:   cfg.Retry.MaxRetries,
			InitialDelay: cfg.Retry.InitialDelay,
		},
		services.ContextSleep,
		log,
	)

	// Optional result cache
	var (
		cache       services.ResultCache
		redisClient *redis.Client
	)
	if cfg.CacheEnabled() {
		redisClient, err = services.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn("⚠️ Redis unavailable, caching disabled", zap.Error(err))
		} else {
			cache = services.NewResultCache(redisClient, cfg.Redis.CacheTTL, log)
			log.Info("✅ Result cache initialized", zap.String("addr", cfg.Redis.Addr))
		}
	}

	// Optional ATS guidance retrieval
	var (
		guidance    services.GuidanceRetriever
		vectorStore services.GuidanceStore
	)
	if cfg.GuidanceEnabled() {
		vectorStore, err = initGuidanceStore(ctx, cfg.Qdrant, log)
		if err != nil {
			log.Warn("⚠️ Qdrant unavailable, guidance disabled", zap.Error(err))
		} else {
			guidance = services.NewGuidanceRetriever(geminiService, vectorStore, cfg.Qdrant.TopK, log)
			log.Info("✅ Guidance retrieval initialized", zap.String("collection", cfg.Qdrant.Collection))
		}
	}

	reviewer := services.NewReviewerService(
		geminiService,
		retry,
		services.NewResponseParser(nil, log),
		services.NewResultAssembler(),
		services.NewTextExtractor(log),
		cache,
		guidance,
		log,
	)
	log.Info("✅ Reviewer service initialized")

	// Optional analysis history
	var (
		historyRepo     repositories.ResumeRepository
		historyRecorder services.HistoryRecorder
	)
	if cfg.History.Enabled {
		db, err := config.InitDatabase(cfg, log)
		if err != nil {
			log.Fatal("❌ Failed to initialize database", zap.Error(err))
		}

		storageService, err := services.NewStorageService(ctx, cfg.Storage)
		if err != nil {
			log.Fatal("❌ Failed to initialize storage", zap.Error(err))
		}

		historyRepo = repositories.NewResumeRepository(db)
		historyRecorder = services.NewHistoryRecorder(
			historyRepo,
			storageService,
			cfg.History.Workers,
			cfg.History.QueueSize,
			log,
		)
		historyRecorder.Start(ctx)
		log.Info("✅ History recorder started", zap.String("storage", cfg.Storage.Driver))
	}

	resumeHandler := handlers.NewResumeHandler(
		reviewer,
		historyRecorder,
		cfg.Storage.MaxFileSize,
		cfg.Server.RequestTimeout,
		log,
	)
	historyHandler := handlers.NewHistoryHandler(historyRepo, log)
	log.Info("✅ Handlers initialized")

	app := handlers.NewApp(handlers.AppConfig{
		MaxFileSize:  cfg.Storage.MaxFileSize,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Server.RequestTimeout + 30*time.Second,
		AccessLog:    true,
	}, resumeHandler, historyHandler)

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		log.Info("🛑 Shutting down server...")
		if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
			log.Error("❌ Server forced to shutdown", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Info("🚀 Server starting", zap.String("addr", addr))

	if err := app.Listen(addr); err != nil {
		log.Error("❌ Failed to start server", zap.Error(err))
		os.Exit(1)
	}

	if historyRecorder != nil {
		historyRecorder.Stop()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if vectorStore != nil {
		_ = vectorStore.Close()
	}
	log.Info("✅ Server stopped")
}

func initGuidanceStore(ctx context.Context, cfg config.QdrantConfig, log *zap.Logger) (services.GuidanceStore, error) {
	store, err := services.NewQdrantStore(cfg.URL, cfg.APIKey, cfg.Collection, log)
	if err != nil {
		return nil, err
	}
	if err := store.InitCollection(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}
