package admin

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/cloo-solutions/agrovisor/internal/config"
	"github.com/cloo-solutions/agrovisor/internal/database"
	"github.com/cloo-solutions/agrovisor/internal/index"
	"github.com/cloo-solutions/agrovisor/internal/ingest"
	"github.com/cloo-solutions/agrovisor/internal/openai"
	"github.com/cloo-solutions/agrovisor/internal/storage"
	"github.com/spf13/cobra"
)

// IngestCmd returns the ingest command
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [document-ref...]",
		Short: "Ingest advisory documents into the vector index",
		Long: `Ingest one or more documents (local paths, http(s) URLs, or s3://bucket/key
references) into the vector index. Without arguments the configured
DOCUMENT_SOURCES are ingested. Unchanged documents are skipped by content hash.`,
		RunE: runIngest,
	}

	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if !cfg.HasOpenAI() {
		return fmt.Errorf("ingestion requires OPENAI_API_KEY")
	}

	refs := args
	if len(refs) == 0 {
		refs = cfg.DocumentSources
	}
	if len(refs) == 0 {
		return fmt.Errorf("no documents given and DOCUMENT_SOURCES is empty")
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	var objects ingest.ObjectStore
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		objects = s3Client
	}

	manifest, err := ingest.LoadManifest(filepath.Join(cfg.DataDir, "manifest.json"))
	if err != nil {
		return fmt.Errorf("failed to load ingest manifest: %w", err)
	}

	aiClient := openai.NewClientWithConfig(openai.Config{
		APIKey:         cfg.OpenAIAPIKey,
		EmbeddingModel: cfg.EmbeddingModel,
		ChatModel:      cfg.ChatModel,
	})
	fetcher := ingest.NewFetcher(filepath.Join(cfg.DataDir, "cache"), objects)
	pipeline := ingest.NewPipeline(fetcher, aiClient, index.NewPGVector(pool), manifest)

	stats := pipeline.IngestAll(ctx, refs)
	for _, s := range stats {
		switch {
		case s.Skipped:
			fmt.Printf("%-24s unchanged (%d chunks)\n", s.Name, s.Chunks)
		case s.Warning != "":
			fmt.Printf("%-24s %d chunks, %d embedded (warning: %s)\n", s.Name, s.Chunks, s.Embedded, s.Warning)
		default:
			fmt.Printf("%-24s %d chunks, %d embedded\n", s.Name, s.Chunks, s.Embedded)
		}
	}

	if len(stats) < len(refs) {
		return fmt.Errorf("%d of %d documents failed to ingest (see log)", len(refs)-len(stats), len(refs))
	}
	return nil
}
