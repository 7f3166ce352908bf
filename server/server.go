package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"CortexFM/cache"
	"CortexFM/config"
	"CortexFM/core/feed"
	"CortexFM/core/hunter"
	"CortexFM/core/librarian"
	"CortexFM/db"
	"CortexFM/logger"
	"CortexFM/model"
	"CortexFM/repository"
	"CortexFM/storage"
)

// Start wires the full pipeline and runs the HTTP server until SIGINT or
// SIGTERM arrives.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogOutput,
	})

	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer db.CloseDB()

	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("Failed to connect gorm", logger.ErrorField(err))
	}
	defer db.CloseGormDB()
	if err := db.AutoMigrateModels(
		&model.Artist{}, &model.License{}, &model.Track{}, &model.TrackEmbedding{},
	); err != nil {
		logger.Fatal("Failed to migrate schema", logger.ErrorField(err))
	}

	if err := db.ConnectRedis(cfg); err != nil {
		logger.Fatal("Failed to connect to Redis", logger.ErrorField(err))
	}
	defer db.CloseRedis()

	store, err := storage.NewAudioStore(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize MinIO", logger.ErrorField(err))
	}

	if err := os.MkdirAll(cfg.DownloadDir, 0755); err != nil {
		logger.Fatal("Failed to create download directory",
			logger.String("dir", cfg.DownloadDir), logger.ErrorField(err))
	}

	trackRepo := repository.NewMySQLTrackRepository(db.DB)
	artistRepo := repository.NewMySQLArtistRepository(db.DB)
	licenseRepo := repository.NewMySQLLicenseRepository(db.DB)
	embeddingRepo := repository.NewMySQLTrackEmbeddingRepository(db.DB)

	if seeded, err := licenseRepo.SeedDefaultLicenses(); err != nil {
		logger.Fatal("Failed to seed licenses", logger.ErrorField(err))
	} else if seeded > 0 {
		logger.Info("Seeded licenses", logger.Int("count", seeded))
	}

	seenCache := cache.NewSourceURLCache(db.RedisClient, cache.DefaultSeenTTL)
	feedClient := feed.NewClient(cfg.FetchTimeout)
	fetcher := hunter.NewHTTPFetcher(cfg.DownloadDir, cfg.FetchTimeout)
	h := hunter.New(cfg, feedClient, fetcher, store, trackRepo, artistRepo, licenseRepo, seenCache)

	l := librarian.New(trackRepo, artistRepo, embeddingRepo,
		newClassifier(cfg),
		librarian.NewHTTPEmbedder(cfg.EmbeddingURL, cfg.EmbeddingModel, cfg.EmbeddingDimension))

	apiHandler := NewAPIHandler(trackRepo, licenseRepo, h, l, cfg.HunterBatchSize, cfg.LibrarianBatchSize)
	router := NewRouter(apiHandler)

	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.ServerAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}
	logger.Info("Server stopped")
}

// newClassifier selects the classification capability once at startup. With
// no API key configured the deterministic keyword classifier is primary.
func newClassifier(cfg *config.Config) librarian.Classifier {
	if cfg.LLMAPIKey == "" {
		logger.Info("No LLM API key configured, using keyword classifier")
		return librarian.NewKeywordClassifier()
	}
	return librarian.NewLLMClassifier(&librarian.LLMClassifierConfig{
		APIBaseURL: cfg.LLMAPIBaseURL,
		APIKey:     cfg.LLMAPIKey,
		Model:      cfg.LLMModel,
	})
}
