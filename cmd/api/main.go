package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	serve := serveCmd()
	rootCmd := &cobra.Command{
		Use:          "api",
		Short:        "WanderLust listings and reviews site",
		SilenceUsage: true,
		RunE:         serve.RunE,
	}
	rootCmd.AddCommand(serve, seedCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
