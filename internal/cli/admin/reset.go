package admin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cloo-solutions/agrovisor/internal/config"
	"github.com/cloo-solutions/agrovisor/internal/database"
	"github.com/cloo-solutions/agrovisor/internal/index"
	"github.com/spf13/cobra"
)

// ResetCmd returns the reset command
func ResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every indexed chunk and the ingest manifest",
		Long:  "Empties the vector index and removes the ingest manifest so the next ingest starts clean.",
		RunE:  runReset,
	}

	cmd.Flags().Bool("yes", false, "Confirm the reset without prompting")

	return cmd
}

func runReset(cmd *cobra.Command, args []string) error {
	yes, _ := cmd.Flags().GetBool("yes")
	if !yes {
		return fmt.Errorf("reset deletes all indexed data; re-run with --yes to confirm")
	}

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := index.NewPGVector(pool).Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset index: %w", err)
	}

	manifestPath := filepath.Join(cfg.DataDir, "manifest.json")
	if err := os.Remove(manifestPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove ingest manifest: %w", err)
	}

	fmt.Println("index emptied and manifest removed")
	return nil
}
