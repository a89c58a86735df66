package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/portola-retreat/concierge/internal/api/handlers"
	"github.com/portola-retreat/concierge/internal/config"
	"github.com/portola-retreat/concierge/internal/database"
	"github.com/portola-retreat/concierge/internal/index"
	"github.com/portola-retreat/concierge/internal/jobs"
	"github.com/portola-retreat/concierge/internal/openai"
	"github.com/portola-retreat/concierge/internal/repository"
	"github.com/portola-retreat/concierge/internal/schedule"
	"github.com/portola-retreat/concierge/internal/server"
	"github.com/portola-retreat/concierge/internal/service"
	"github.com/portola-retreat/concierge/internal/storage"
	"github.com/portola-retreat/concierge/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the concierge API server on the specified port",
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

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	applyPortFlag(cmd, cfg)

	scheduleRepo, err := schedule.LoadFile(cfg.SchedulePath)
	if err != nil {
		return fmt.Errorf("failed to load schedule: %w", err)
	}
	log.Printf("schedule loaded: %d items across %d days", len(scheduleRepo.All()), len(scheduleRepo.Dates()))

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	source, cleanup, err := buildIndexSource(ctx, cfg, !noMigrate)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	store := index.NewStore()
	reloader := jobs.NewIndexReloader(source, store)
	if err := reloader.Refresh(ctx); err != nil {
		// The server still starts: deterministic schedule answers need no
		// index, and a later reload poll can recover.
		log.Printf("initial index load failed: %v", err)
	} else {
		log.Printf("index loaded: %d chunks", len(store.Snapshot().Chunks))
	}

	var reloadPoller *jobs.Poller
	if cfg.ReloadInterval > 0 {
		reloadPoller = jobs.NewPoller(reloader, cfg.ReloadInterval)
		go reloadPoller.Start(ctx)
	}

	var embedder service.Embedder
	var completer service.Completer
	if cfg.HasOpenAI() {
		client := openai.NewClient(cfg.OpenAIAPIKey)
		embedder = client
		completer = client
	} else {
		log.Println("OPENAI_API_KEY not set: generative answers disabled")
	}

	answerCfg := service.AnswerConfig{
		TopK:             cfg.TopK,
		Threshold:        cfg.ConfidenceThreshold,
		MinFallbackCount: cfg.MinFallbackCount,
	}
	answerSvc := service.NewAnswerService(store, scheduleRepo, cfg.DayMap, embedder, completer, answerCfg)

	routerCfg := server.RouterConfig{
		ChatHandler:   handlers.NewChatHandler(answerSvc),
		AgendaHandler: handlers.NewAgendaHandler(scheduleRepo),
		IndexHandler:  handlers.NewIndexHandler(store),
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
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

	if reloadPoller != nil {
		reloadPoller.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// applyPortFlag overrides the configured port only when the flag was set
// explicitly, so -p 8080 beats CONCIERGE_PORT even though 8080 is the
// flag default.
func applyPortFlag(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("port") {
		cfg.Port, _ = cmd.Flags().GetString("port")
	}
}

// buildIndexSource picks the index source from config: database over
// object storage over local file.
func buildIndexSource(ctx context.Context, cfg *config.Config, migrateDB bool) (index.Source, func(), error) {
	if cfg.HasDatabase() {
		pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		log.Println("connected to database")

		if migrateDB {
			if err := runMigrations(cfg.DatabaseURL); err != nil {
				pool.Close()
				return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		chunkRepo := repository.NewChunkRepository(pool)
		return index.NewDatabaseSource(chunkRepo), pool.Close, nil
	}

	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create S3 client: %w", err)
		}
		log.Printf("index source: s3 bucket '%s' key '%s'", cfg.S3Bucket, cfg.IndexKey)
		return index.NewObjectSource(s3Client, cfg.IndexKey), nil, nil
	}

	log.Printf("index source: file %s", cfg.IndexPath)
	return index.NewFileSource(cfg.IndexPath), nil, nil
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	// Create postgres driver instance
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Create migrate instance with file source
	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	// Run migrations
	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	// Get migration version and status
	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
