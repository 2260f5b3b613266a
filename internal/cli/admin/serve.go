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

	"github.com/civic-pulse/pulsecore/internal/api/handlers"
	"github.com/civic-pulse/pulsecore/internal/config"
	"github.com/civic-pulse/pulsecore/internal/database"
	"github.com/civic-pulse/pulsecore/internal/domain"
	"github.com/civic-pulse/pulsecore/internal/jobs"
	"github.com/civic-pulse/pulsecore/internal/openai"
	"github.com/civic-pulse/pulsecore/internal/repository"
	"github.com/civic-pulse/pulsecore/internal/server"
	"github.com/civic-pulse/pulsecore/internal/service"
	"github.com/civic-pulse/pulsecore/internal/storage"
	"github.com/civic-pulse/pulsecore/internal/telemetry"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	goopenai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the pulsecore API server and the background match worker",
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

	orgRepo := repository.NewOrgRepository(pool)
	issueRepo := repository.NewIssueRepository(pool)
	refRepo := repository.NewReferenceRepository(pool)
	entryRepo := repository.NewEntryRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	sources := &rebuildSources{orgs: orgRepo, issues: issueRepo, refs: refRepo}

	var orgLifecycle handlers.OrganizationLifecycle
	var issueLifecycle handlers.IssueLifecycle
	var refLifecycle handlers.ReferenceLifecycle
	var refEvents service.ReferenceEvents
	var matchHandler *handlers.MatchHandler
	var answerHandler *handlers.AnswerHandler
	var indexHandler *handlers.IndexHandler
	var matchWorker *jobs.Worker

	if cfg.HasOpenAI() {
		embeddingClient := openai.NewClientWithConfig(openai.Config{
			APIKey:         cfg.OpenAIAPIKey,
			EmbeddingModel: goopenai.EmbeddingModel(cfg.EmbeddingModel),
			ChatModel:      cfg.ChatModel,
		})

		indexSvc := service.NewIndexService(entryRepo, txRunner, embeddingClient, sources)
		matcherSvc := service.NewMatcherService(embeddingClient, indexSvc, service.MatchConfig{
			Policy:           service.MatchPolicy(cfg.MatchPolicy),
			Threshold:        cfg.MatchThreshold,
			SevereSeverity:   cfg.MatchSevereSeverity,
			SevereAdjustment: cfg.MatchSevereAdjustment,
			Candidates:       cfg.MatchCandidates,
		})
		contextSvc := service.NewContextService(embeddingClient, indexSvc)
		answerSvc := service.NewAnswerService(contextSvc, embeddingClient, service.AnswerConfig{
			TopK:              cfg.AnswerTopK,
			ContextMaxChars:   cfg.ContextMaxChars,
			GenerationTimeout: cfg.GenerationTimeout,
		})
		lifecycleSvc := service.NewLifecycleService(indexSvc)

		orgLifecycle = lifecycleSvc
		issueLifecycle = lifecycleSvc
		refLifecycle = lifecycleSvc
		refEvents = lifecycleSvc
		matchHandler = handlers.NewMatchHandler(matcherSvc, issueRepo)
		answerHandler = handlers.NewAnswerHandler(answerSvc)
		indexHandler = handlers.NewIndexHandler(indexSvc)

		scheduler := service.NewPriorityScheduler(issueRepo)
		matchProcessor := jobs.NewMatchWorker(scheduler, matcherSvc, issueRepo, cfg.MatchBatchSize)
		matchWorker = jobs.NewWorker(matchProcessor, cfg.MatchPollInterval)
		go matchWorker.Start(ctx)
		log.Println("match worker started")
	} else {
		log.Println("PULSE_OPENAI_API_KEY not set: indexing, matching, and chat are disabled")
		noop := &noOpLifecycle{}
		orgLifecycle = noop
		issueLifecycle = noop
		refLifecycle = noop
		refEvents = noop
		matchHandler = handlers.NewMatchHandler(&noOpMatcherService{}, issueRepo)
		answerHandler = handlers.NewAnswerHandler(&noOpAnswerService{})
		indexHandler = handlers.NewIndexHandler(&noOpIndexService{})
	}

	if cfg.HasS3() {
		s3Config := storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		}
		s3Client, err := storage.NewS3Client(ctx, s3Config)
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)

		ingestSvc := service.NewIngestService(s3Client, refRepo, refEvents)
		go func() {
			n, err := ingestSvc.IngestAll(ctx, "")
			if err != nil {
				log.Printf("reference ingest failed: %v", err)
				return
			}
			log.Printf("reference ingest: %d documents", n)
		}()
	}

	routerCfg := server.RouterConfig{
		OrganizationHandler: handlers.NewOrganizationHandler(orgRepo, orgLifecycle),
		IssueHandler:        handlers.NewIssueHandler(issueRepo, issueLifecycle),
		MatchHandler:        matchHandler,
		AnswerHandler:       answerHandler,
		ReferenceHandler:    handlers.NewReferenceHandler(refRepo, refLifecycle),
		IndexHandler:        indexHandler,
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

	if matchWorker != nil {
		matchWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// rebuildSources bridges the repositories to the index rebuild.
type rebuildSources struct {
	orgs   *repository.OrgRepository
	issues *repository.IssueRepository
	refs   *repository.ReferenceRepository
}

func (s *rebuildSources) ListActiveOrganizations(ctx context.Context) ([]*domain.Organization, error) {
	return s.orgs.ListActive(ctx)
}

func (s *rebuildSources) ListVerifiedIssues(ctx context.Context) ([]*domain.IssueReport, error) {
	return s.issues.ListVerified(ctx)
}

func (s *rebuildSources) ListReferenceDocs(ctx context.Context) ([]*domain.ReferenceDoc, error) {
	return s.refs.List(ctx)
}

// noOpLifecycle swallows index events when no embedding provider is
// configured, so record CRUD keeps working without a search index.
type noOpLifecycle struct{}

func (l *noOpLifecycle) OrganizationCreated(ctx context.Context, org *domain.Organization) error {
	return nil
}

func (l *noOpLifecycle) OrganizationUpdated(ctx context.Context, org *domain.Organization) error {
	return nil
}

func (l *noOpLifecycle) OrganizationDeactivated(ctx context.Context, orgID string) error {
	return nil
}

func (l *noOpLifecycle) IssueVerified(ctx context.Context, issue *domain.IssueReport) error {
	return nil
}

func (l *noOpLifecycle) IssueResolved(ctx context.Context, issueID string) error {
	return nil
}

func (l *noOpLifecycle) ReferenceUpserted(ctx context.Context, doc *domain.ReferenceDoc) error {
	return nil
}

func (l *noOpLifecycle) ReferenceDeleted(ctx context.Context, docID string) error {
	return nil
}

var errNoEmbeddingProvider = fmt.Errorf("%w: PULSE_OPENAI_API_KEY required", domain.ErrModelUnavailable)

type noOpMatcherService struct{}

func (s *noOpMatcherService) SearchCandidates(ctx context.Context, issue *domain.IssueReport, k int) ([]service.Candidate, error) {
	return nil, errNoEmbeddingProvider
}

func (s *noOpMatcherService) Match(ctx context.Context, issue *domain.IssueReport) (*domain.MatchResult, error) {
	return nil, errNoEmbeddingProvider
}

type noOpAnswerService struct{}

func (s *noOpAnswerService) Answer(ctx context.Context, question string, topK int, filter map[string]any) (*service.AnswerResult, error) {
	return nil, errNoEmbeddingProvider
}

type noOpIndexService struct{}

func (s *noOpIndexService) Count(ctx context.Context, filter map[string]any) (int64, error) {
	return 0, errNoEmbeddingProvider
}

func (s *noOpIndexService) StaleCount(ctx context.Context) (int64, error) {
	return 0, errNoEmbeddingProvider
}

func (s *noOpIndexService) Rebuild(ctx context.Context) (int, error) {
	return 0, errNoEmbeddingProvider
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
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
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
