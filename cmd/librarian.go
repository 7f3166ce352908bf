package cmd

import (
	"context"

	"CortexFM/config"
	"CortexFM/core/librarian"
	"CortexFM/db"
	"CortexFM/logger"
	"CortexFM/repository"

	"github.com/spf13/cobra"
)

var librarianMax int

var librarianCmd = &cobra.Command{
	Use:   "librarian",
	Short: "Run one enrichment batch",
	Long: `Classifies and embeds tracks waiting at pending_enrichment and
advances them to pending_compliance. Failed tracks stay pending and are
picked up again on the next run.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := bootstrap()
		defer teardown()

		trackRepo := repository.NewMySQLTrackRepository(db.DB)
		artistRepo := repository.NewMySQLArtistRepository(db.DB)
		embeddingRepo := repository.NewMySQLTrackEmbeddingRepository(db.DB)

		l := librarian.New(trackRepo, artistRepo, embeddingRepo,
			newClassifier(cfg),
			librarian.NewHTTPEmbedder(cfg.EmbeddingURL, cfg.EmbeddingModel, cfg.EmbeddingDimension))

		max := librarianMax
		if max <= 0 {
			max = cfg.LibrarianBatchSize
		}
		processed, err := l.EnrichBatch(context.Background(), max)
		if err != nil {
			logger.Fatal("Enrichment batch failed", logger.ErrorField(err))
		}
		logger.Info("Enrichment batch done", logger.Int("processed", processed))
	},
}

// newClassifier mirrors the server's startup selection for one-shot runs.
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

func init() {
	rootCmd.AddCommand(librarianCmd)
	librarianCmd.Flags().IntVarP(&librarianMax, "max", "m", 0, "maximum tracks to enrich (default from config)")
}
