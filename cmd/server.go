package cmd

import (
	"CortexFM/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the CortexFM HTTP server",
	Long:  `Runs the API server with the ingestion and enrichment pipeline attached.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
