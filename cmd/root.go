package cmd

import (
	"fmt"
	"os"

	"CortexFM/config"
	"CortexFM/db"
	"CortexFM/logger"
	"CortexFM/model"
	"CortexFM/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cortexfm",
	Short: "CortexFM is a CC-licensed music acquisition and enrichment pipeline.",
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads config, initializes logging and connects the databases.
// Used by the one-shot commands; the server does its own wiring.
func bootstrap() *config.Config {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogOutput,
	})

	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("Failed to connect gorm", logger.ErrorField(err))
	}
	if err := db.AutoMigrateModels(
		&model.Artist{}, &model.License{}, &model.Track{}, &model.TrackEmbedding{},
	); err != nil {
		logger.Fatal("Failed to migrate schema", logger.ErrorField(err))
	}
	return cfg
}

func teardown() {
	db.CloseGormDB()
	db.CloseDB()
}
