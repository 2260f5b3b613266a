package admin

import (
	"context"
	"fmt"

	"github.com/civic-pulse/pulsecore/internal/config"
	"github.com/civic-pulse/pulsecore/internal/repository"
	"github.com/civic-pulse/pulsecore/internal/service"
	"github.com/civic-pulse/pulsecore/internal/storage"
	"github.com/spf13/cobra"
)

func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest reference documents from S3",
		Long:  "Fetch reference documents from the configured S3 bucket and upsert them into the reference store",
		RunE:  runIngest,
	}

	cmd.Flags().String("prefix", "", "Only ingest objects under this key prefix")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	prefix, _ := cmd.Flags().GetString("prefix")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.HasS3() {
		return fmt.Errorf("PULSE_S3_ENDPOINT required")
	}

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

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

	// Index the documents too when an embedding provider is configured,
	// otherwise just fill the reference store.
	var events service.ReferenceEvents = &noOpLifecycle{}
	if cfg.HasOpenAI() {
		svc, idxPool, err := getIndexService(ctx)
		if err != nil {
			return err
		}
		defer idxPool.Close()
		events = service.NewLifecycleService(svc)
	}

	ingestSvc := service.NewIngestService(s3Client, repository.NewReferenceRepository(pool), events)

	n, err := ingestSvc.IngestAll(ctx, prefix)
	if err != nil {
		return fmt.Errorf("failed to ingest documents: %w", err)
	}

	fmt.Printf("Ingested %d reference documents\n", n)
	return nil
}
