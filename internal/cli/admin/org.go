package admin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/civic-pulse/pulsecore/internal/api/handlers"
	"github.com/civic-pulse/pulsecore/internal/config"
	"github.com/civic-pulse/pulsecore/internal/domain"
	"github.com/civic-pulse/pulsecore/internal/repository"
	"github.com/civic-pulse/pulsecore/internal/service"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func OrgCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "org",
		Short: "Manage organizations",
		Long:  "Create, list, and deactivate responding organizations",
	}

	cmd.AddCommand(OrgCreateCmd())
	cmd.AddCommand(OrgListCmd())
	cmd.AddCommand(OrgDeactivateCmd())

	return cmd
}

func OrgCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new organization",
		Long:  "Create a new active organization and index it when an embedding provider is configured",
		Args:  cobra.ExactArgs(1),
		RunE:  runOrgCreate,
	}

	cmd.Flags().String("description", "", "What the organization handles")
	cmd.Flags().StringSlice("categories", nil, "Issue categories the organization responds to")
	cmd.Flags().String("city", "", "City the organization operates in")
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runOrgCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	outputFormat, _ := cmd.Flags().GetString("output")
	description, _ := cmd.Flags().GetString("description")
	categories, _ := cmd.Flags().GetStringSlice("categories")
	city, _ := cmd.Flags().GetString("city")

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	org := &domain.Organization{
		ID:          uuid.NewString(),
		Name:        args[0],
		Description: description,
		Categories:  categories,
		Address:     domain.Address{City: city},
		Active:      true,
	}
	if err := domain.ValidateOrganization(org); err != nil {
		return err
	}

	orgRepo := repository.NewOrgRepository(pool)
	if err := orgRepo.Create(ctx, org); err != nil {
		return fmt.Errorf("failed to create organization: %w", err)
	}

	lifecycle, closeLifecycle, err := getOrgLifecycle(ctx)
	if err != nil {
		return err
	}
	defer closeLifecycle()
	if err := lifecycle.OrganizationCreated(ctx, org); err != nil {
		return fmt.Errorf("failed to index organization: %w", err)
	}

	if outputFormat == "json" {
		data := map[string]interface{}{
			"id":         org.ID,
			"name":       org.Name,
			"created_at": org.CreatedAt,
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Printf("Organization created: %s (%s)\n", org.Name, org.ID)
	}

	return nil
}

func OrgListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all organizations",
		Long:  "List all organizations, active and inactive",
		RunE:  runOrgList,
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runOrgList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	outputFormat, _ := cmd.Flags().GetString("output")

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	orgs, err := repository.NewOrgRepository(pool).List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list organizations: %w", err)
	}

	if outputFormat == "json" {
		items := make([]map[string]interface{}, 0, len(orgs))
		for _, org := range orgs {
			items = append(items, map[string]interface{}{
				"id":         org.ID,
				"name":       org.Name,
				"categories": org.Categories,
				"active":     org.Active,
			})
		}
		jsonBytes, _ := json.MarshalIndent(items, "", "  ")
		fmt.Println(string(jsonBytes))
		return nil
	}

	for _, org := range orgs {
		state := "active"
		if !org.Active {
			state = "inactive"
		}
		fmt.Printf("%s  %s  (%s)\n", org.ID, org.Name, state)
	}
	return nil
}

func OrgDeactivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <id>",
		Short: "Deactivate an organization",
		Long:  "Mark an organization inactive and remove it from the match index",
		Args:  cobra.ExactArgs(1),
		RunE:  runOrgDeactivate,
	}
}

func runOrgDeactivate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	id := args[0]

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := repository.NewOrgRepository(pool).SetActive(ctx, id, false); err != nil {
		return fmt.Errorf("failed to deactivate organization: %w", err)
	}

	lifecycle, closeLifecycle, err := getOrgLifecycle(ctx)
	if err != nil {
		return err
	}
	defer closeLifecycle()
	if err := lifecycle.OrganizationDeactivated(ctx, id); err != nil {
		return fmt.Errorf("failed to remove organization from index: %w", err)
	}

	fmt.Printf("Organization deactivated: %s\n", id)
	return nil
}

// getOrgLifecycle returns the index-backed lifecycle when an embedding
// provider is configured, otherwise a no-op.
func getOrgLifecycle(ctx context.Context) (handlers.OrganizationLifecycle, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.HasOpenAI() {
		return &noOpLifecycle{}, func() {}, nil
	}

	svc, pool, err := getIndexService(ctx)
	if err != nil {
		return nil, nil, err
	}
	return service.NewLifecycleService(svc), func() { pool.Close() }, nil
}
