package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/wanderlust/wanderlust-go/internal/config"
	"github.com/wanderlust/wanderlust-go/internal/model"
)

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace all listings with sample data",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			owner, _ := cmd.Flags().GetString("owner")

			return seed(cmd.Context(), file, owner)
		},
	}

	cmd.Flags().String("file", "data/listings.json", "JSON array of listings to load")
	cmd.Flags().String("owner", "", "username that will own the seeded listings")
	cmd.MarkFlagRequired("owner")
	return cmd
}

func seed(ctx context.Context, file, owner string) error {
	raw, err := os.ReadFile(file)
	if err != nil {
		return err
	}

	var listings []model.Listing
	if err := json.Unmarshal(raw, &listings); err != nil {
		return fmt.Errorf("parsing %s: %w", file, err)
	}

	a, err := openApp(ctx, config.Load())
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	removed, err := a.listings.Seed(ctx, owner, listings)
	if err != nil {
		return err
	}

	slog.Info("data was initialized", "removed", removed, "inserted", len(listings), "owner", owner)
	return nil
}
