package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "neoctl",
	Short: "Operator tool for the NEO feed sync",
	Long: `Run NASA NeoWs synchronization by hand against the configured database.

Configuration is read from the same environment variables (and .env file)
as the server. Ctrl+C stops a backfill between chunks.`,
	SilenceUsage: true,
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
