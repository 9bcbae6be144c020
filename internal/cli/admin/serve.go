package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cloo-solutions/agrovisor/internal/aggregate"
	"github.com/cloo-solutions/agrovisor/internal/api/handlers"
	"github.com/cloo-solutions/agrovisor/internal/compose"
	"github.com/cloo-solutions/agrovisor/internal/config"
	"github.com/cloo-solutions/agrovisor/internal/database"
	"github.com/cloo-solutions/agrovisor/internal/domain"
	"github.com/cloo-solutions/agrovisor/internal/index"
	"github.com/cloo-solutions/agrovisor/internal/ingest"
	"github.com/cloo-solutions/agrovisor/internal/jobs"
	"github.com/cloo-solutions/agrovisor/internal/openai"
	"github.com/cloo-solutions/agrovisor/internal/profile"
	"github.com/cloo-solutions/agrovisor/internal/repository"
	"github.com/cloo-solutions/agrovisor/internal/retrieve"
	"github.com/cloo-solutions/agrovisor/internal/router"
	"github.com/cloo-solutions/agrovisor/internal/server"
	"github.com/cloo-solutions/agrovisor/internal/service"
	"github.com/cloo-solutions/agrovisor/internal/storage"
	"github.com/cloo-solutions/agrovisor/internal/telemetry"
	"github.com/cloo-solutions/agrovisor/internal/tools"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the advisory API server",
		Long:  "Start the agrovisor API server with the background re-ingest worker",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.HasSentry() {
		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if cfg.Environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	vectorIndex := index.NewPGVector(pool)
	queryLogs := repository.NewQueryLogRepository(pool)

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
		log.Println("S3 document source configured")
	}

	manifestPath := filepath.Join(cfg.DataDir, "manifest.json")
	fetcher := ingest.NewFetcher(filepath.Join(cfg.DataDir, "cache"), objects)

	queryRouter := router.Router(router.NewKeywordRouter())
	composer := compose.NewComposer(nil)
	retriever := aggregate.ChunkRetriever(&unavailableRetriever{})

	var ingestWorker *jobs.IngestWorker
	if cfg.HasOpenAI() {
		aiClient := openai.NewClientWithConfig(openai.Config{
			APIKey:         cfg.OpenAIAPIKey,
			EmbeddingModel: cfg.EmbeddingModel,
			ChatModel:      cfg.ChatModel,
		})

		retriever = retrieve.NewRetriever(aiClient, vectorIndex, retrieve.Config{
			K:        cfg.RetrievalK,
			MinScore: float32(cfg.RetrievalMinScore),
		})
		composer = compose.NewComposer(aiClient)
		if cfg.UseLLMRouter() {
			queryRouter = router.NewLLMRouter(aiClient)
			log.Println("using LLM-assisted query router")
		}

		if len(cfg.DocumentSources) > 0 {
			manifest, err := ingest.LoadManifest(manifestPath)
			if err != nil {
				return fmt.Errorf("failed to load ingest manifest: %w", err)
			}
			pipeline := ingest.NewPipeline(fetcher, aiClient, vectorIndex, manifest)
			ingestWorker = jobs.NewIngestWorker(pipeline, cfg.DocumentSources, cfg.ReingestInterval)
			go ingestWorker.Start(ctx)
		}
	} else {
		log.Println("OPENAI_API_KEY not set: retrieval and composition run degraded")
	}

	fpos, err := tools.LoadFPODirectory(cfg.FPODataPath)
	if err != nil {
		return fmt.Errorf("failed to load FPO directory: %w", err)
	}
	if fpos.FromSample() {
		log.Printf("FPO directory: using built-in sample data (%d entries)", fpos.Len())
	}

	geocoder := tools.NewGeocoder(cfg.OpenWeatherAPIKey, cfg.VisualCrossingAPIKey)
	weather := tools.NewWeatherClient(cfg.OpenWeatherAPIKey, cfg.VisualCrossingAPIKey)
	places := tools.NewPlacesClient(cfg.GeoapifyAPIKey)
	profiles := profile.NewStore(filepath.Join(cfg.DataDir, "profile.json"))

	aggregator := aggregate.NewAggregator(retriever, geocoder, weather, places, fpos)
	advisory := service.NewAdvisoryService(queryRouter, aggregator, composer, profiles, queryLogs)

	routerCfg := server.RouterConfig{
		QueryHandler:     handlers.NewQueryHandler(advisory),
		SearchHandler:    handlers.NewSearchHandler(retriever),
		DocumentsHandler: handlers.NewDocumentsHandler(vectorIndex, manifestPath),
		HealthHandler:    handlers.NewHealthHandler(pool, queryLogs),
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.NewRouter(routerCfg),
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if ingestWorker != nil {
		ingestWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// unavailableRetriever stands in when no embedding provider is configured.
// The aggregator degrades its error to an empty retrieval contribution; the
// search endpoint surfaces it as 503.
type unavailableRetriever struct{}

func (unavailableRetriever) Retrieve(ctx context.Context, query string) ([]domain.ScoredChunk, error) {
	return nil, domain.ErrEmbedderUnavailable
}

func runMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else {
		log.Printf("migrations: at version %d", version)
	}

	return nil
}
