package admin

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/portola-retreat/concierge/internal/config"
	"github.com/portola-retreat/concierge/internal/database"
	"github.com/portola-retreat/concierge/internal/ingest"
	"github.com/portola-retreat/concierge/internal/openai"
	"github.com/portola-retreat/concierge/internal/repository"
	"github.com/portola-retreat/concierge/internal/schedule"
	"github.com/portola-retreat/concierge/internal/storage"
)

// IndexCmd returns the index command group
func IndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the semantic index",
	}

	cmd.AddCommand(indexBuildCmd())
	cmd.AddCommand(indexInspectCmd())

	return cmd
}

func indexBuildCmd() *cobra.Command {
	var (
		faqPath    string
		guestsPath string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the semantic index from source data",
		Long:  "Embeds the FAQ, agenda and guest collections and writes the index artifact to the configured destination.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndexBuild(faqPath, guestsPath)
		},
	}

	cmd.Flags().StringVar(&faqPath, "faq", "data/faq.json", "Path to faq.json")
	cmd.Flags().StringVar(&guestsPath, "guests", "data/guests.json", "Path to guests.json")

	return cmd
}

func runIndexBuild(faqPath, guestsPath string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.HasOpenAI() {
		return fmt.Errorf("OPENAI_API_KEY is required to build the index")
	}

	faqs, err := ingest.LoadFAQFile(faqPath)
	if err != nil {
		return err
	}
	guests, err := ingest.LoadGuestsFile(guestsPath)
	if err != nil {
		return err
	}
	scheduleRepo, err := schedule.LoadFile(cfg.SchedulePath)
	if err != nil {
		return fmt.Errorf("failed to load schedule: %w", err)
	}

	builder := ingest.NewBuilder(openai.NewClient(cfg.OpenAIAPIKey))
	idx, err := builder.Build(ctx, ingest.BuildInput{
		FAQs:     faqs,
		Schedule: scheduleRepo.All(),
		Guests:   guests,
	})
	if err != nil {
		return err
	}
	log.Printf("built index: %d chunks (%d dims)", len(idx.Chunks), idx.Dimensions())

	if cfg.HasDatabase() {
		pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		if err := repository.NewChunkRepository(pool).ReplaceAll(ctx, idx); err != nil {
			return fmt.Errorf("failed to store index in database: %w", err)
		}
		log.Println("index stored in database")
		return nil
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
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}

		data, err := ingest.Encode(idx)
		if err != nil {
			return err
		}
		if err := s3Client.PutObject(ctx, cfg.IndexKey, "application/json", bytes.NewReader(data)); err != nil {
			return fmt.Errorf("failed to upload index: %w", err)
		}
		log.Printf("index uploaded to s3 bucket '%s' key '%s'", cfg.S3Bucket, cfg.IndexKey)
		return nil
	}

	if err := ingest.WriteFile(cfg.IndexPath, idx); err != nil {
		return fmt.Errorf("failed to write index file: %w", err)
	}
	log.Printf("index written to %s", cfg.IndexPath)
	return nil
}

func indexInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Inspect the stored index",
		Long:  "Fetches the index from the configured source and prints what it holds.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndexInspect()
		},
	}
}

func runIndexInspect() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	source, cleanup, err := buildIndexSource(ctx, cfg, false)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	idx, err := source.Fetch(ctx)
	if err != nil {
		return err
	}

	byType := make(map[string]int)
	for _, c := range idx.Chunks {
		byType[string(c.Type)]++
	}

	fmt.Printf("created: %s\n", idx.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("chunks:  %d (%d dims)\n", len(idx.Chunks), idx.Dimensions())
	for chunkType, count := range byType {
		fmt.Printf("  %s: %d\n", chunkType, count)
	}

	return nil
}
