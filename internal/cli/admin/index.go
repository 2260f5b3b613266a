package admin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/civic-pulse/pulsecore/internal/config"
	"github.com/civic-pulse/pulsecore/internal/database"
	"github.com/civic-pulse/pulsecore/internal/openai"
	"github.com/civic-pulse/pulsecore/internal/repository"
	"github.com/civic-pulse/pulsecore/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	goopenai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"
)

func IndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the vector index",
		Long:  "Inspect and rebuild the shared vector index",
	}

	cmd.AddCommand(IndexStatsCmd())
	cmd.AddCommand(IndexRebuildCmd())

	return cmd
}

func IndexStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show index entry counts",
		Long:  "Show total and stale entry counts for the vector index",
		RunE:  runIndexStats,
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runIndexStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	outputFormat, _ := cmd.Flags().GetString("output")

	svc, pool, err := getIndexService(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	total, err := svc.Count(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to count entries: %w", err)
	}
	stale, err := svc.StaleCount(ctx)
	if err != nil {
		return fmt.Errorf("failed to count stale entries: %w", err)
	}

	if outputFormat == "json" {
		data := map[string]interface{}{
			"entries":       total,
			"stale_entries": stale,
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Printf("Entries: %d (stale: %d)\n", total, stale)
	}

	return nil
}

func IndexRebuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild the vector index",
		Long:  "Re-embed every active organization, verified issue, and reference document, then swap the index atomically",
		RunE:  runIndexRebuild,
	}

	return cmd
}

func runIndexRebuild(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	svc, pool, err := getIndexService(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	n, err := svc.Rebuild(ctx)
	if err != nil {
		return fmt.Errorf("failed to rebuild index: %w", err)
	}

	fmt.Printf("Index rebuilt: %d entries\n", n)
	return nil
}

func getIndexService(ctx context.Context) (*service.IndexService, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.HasOpenAI() {
		return nil, nil, fmt.Errorf("PULSE_OPENAI_API_KEY required")
	}

	pool, err := getDBPool(ctx)
	if err != nil {
		return nil, nil, err
	}

	embeddingClient := openai.NewClientWithConfig(openai.Config{
		APIKey:         cfg.OpenAIAPIKey,
		EmbeddingModel: goopenai.EmbeddingModel(cfg.EmbeddingModel),
		ChatModel:      cfg.ChatModel,
	})

	sources := &rebuildSources{
		orgs:   repository.NewOrgRepository(pool),
		issues: repository.NewIssueRepository(pool),
		refs:   repository.NewReferenceRepository(pool),
	}
	svc := service.NewIndexService(
		repository.NewEntryRepository(pool),
		repository.NewTxRunner(pool),
		embeddingClient,
		sources,
	)

	return svc, pool, nil
}

func getDBPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return pool, nil
}
