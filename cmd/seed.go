package cmd

import (
	"CortexFM/db"
	"CortexFM/logger"
	"CortexFM/repository"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the schema and seed the license table",
	Long: `Runs the schema migration and inserts the default Creative Commons
license set. Idempotent; existing rows are left untouched.`,
	Run: func(cmd *cobra.Command, args []string) {
		bootstrap()
		defer teardown()

		licenseRepo := repository.NewMySQLLicenseRepository(db.DB)
		seeded, err := licenseRepo.SeedDefaultLicenses()
		if err != nil {
			logger.Fatal("Failed to seed licenses", logger.ErrorField(err))
		}
		logger.Info("License seed done", logger.Int("inserted", seeded))
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
