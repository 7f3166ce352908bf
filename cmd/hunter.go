package cmd

import (
	"context"
	"os"

	"CortexFM/cache"
	"CortexFM/core/feed"
	"CortexFM/core/hunter"
	"CortexFM/db"
	"CortexFM/logger"
	"CortexFM/repository"
	"CortexFM/storage"

	"github.com/spf13/cobra"
)

var hunterMax int

var hunterCmd = &cobra.Command{
	Use:   "hunter",
	Short: "Run one ingestion batch against the configured feed",
	Long: `Fetches the configured RSS feed, filters entries by license and
duration, downloads accepted audio and registers new tracks at
pending_enrichment. Already-known source URLs are skipped.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := bootstrap()
		defer teardown()

		if err := db.ConnectRedis(cfg); err != nil {
			// The dedup cache is a fast path only; the unique index still holds.
			logger.Warn("Redis unavailable, continuing without dedup cache", logger.ErrorField(err))
		} else {
			defer db.CloseRedis()
		}

		store, err := storage.NewAudioStore(cfg)
		if err != nil {
			logger.Fatal("Failed to initialize MinIO", logger.ErrorField(err))
		}
		if err := os.MkdirAll(cfg.DownloadDir, 0755); err != nil {
			logger.Fatal("Failed to create download directory", logger.ErrorField(err))
		}

		trackRepo := repository.NewMySQLTrackRepository(db.DB)
		artistRepo := repository.NewMySQLArtistRepository(db.DB)
		licenseRepo := repository.NewMySQLLicenseRepository(db.DB)

		if _, err := licenseRepo.SeedDefaultLicenses(); err != nil {
			logger.Fatal("Failed to seed licenses", logger.ErrorField(err))
		}

		seenCache := cache.NewSourceURLCache(db.RedisClient, cache.DefaultSeenTTL)
		feedClient := feed.NewClient(cfg.FetchTimeout)
		fetcher := hunter.NewHTTPFetcher(cfg.DownloadDir, cfg.FetchTimeout)
		h := hunter.New(cfg, feedClient, fetcher, store, trackRepo, artistRepo, licenseRepo, seenCache)

		max := hunterMax
		if max <= 0 {
			max = cfg.HunterBatchSize
		}
		accepted, err := h.IngestBatch(context.Background(), max)
		if err != nil {
			logger.Fatal("Ingestion batch failed", logger.ErrorField(err))
		}
		logger.Info("Ingestion batch done", logger.Int("accepted", accepted))
	},
}

func init() {
	rootCmd.AddCommand(hunterCmd)
	hunterCmd.Flags().IntVarP(&hunterMax, "max", "m", 0, "maximum feed entries to process (default from config)")
}
