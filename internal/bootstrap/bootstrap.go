package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/kirillkom/study-library/internal/config"
	"github.com/kirillkom/study-library/internal/core/domain"
	"github.com/kirillkom/study-library/internal/core/ports"
	"github.com/kirillkom/study-library/internal/core/usecase"
	"github.com/kirillkom/study-library/internal/infrastructure/extractor/pdfinfo"
	"github.com/kirillkom/study-library/internal/infrastructure/queue/nats"
	"github.com/kirillkom/study-library/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/study-library/internal/infrastructure/resilience"
	"github.com/kirillkom/study-library/internal/infrastructure/storage/localfs"
)

type Options struct {
	// Service names the process in NATS connection metadata.
	Service string
	// Prepare runs migrations and the one-time seed. Only the API does this.
	Prepare bool
	// BreakerObserver receives circuit breaker transitions of the event publisher.
	BreakerObserver resilience.StateObserver
}

type App struct {
	Config config.Config

	Events      ports.DocumentEvents
	Catalog     ports.Catalog
	Uploader    ports.DocumentUploader
	Annotations ports.Annotations
	Gate        ports.Authorizer
	Pages       ports.PageIndexer

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	docs := postgres.NewDocumentRepository(db)
	taxonomy := postgres.NewTaxonomyRepository(db)
	users := postgres.NewUserRepository(db)
	annotations := postgres.NewAnnotationRepository(db)
	credential := domain.NewCredential(cfg.AdminAuthCode)

	if opts.Prepare {
		if err := prepare(ctx, db, cfg, usecase.NewSeeder(taxonomy, users), credential); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	storage, err := localfs.New(cfg.ServiceRoot, cfg.UploadsDir)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init file storage: %w", err)
	}

	events, closeEvents, err := newEvents(cfg, opts)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	validator := usecase.NewUploadValidator(taxonomy, users, storage)
	return &App{
		Config: cfg,

		Events:      events,
		Catalog:     usecase.NewCatalogUseCase(docs, taxonomy, storage),
		Uploader:    usecase.NewUploadUseCase(validator, docs, storage, events),
		Annotations: usecase.NewAnnotationUseCase(annotations),
		Gate:        usecase.NewAccessGate(credential),
		Pages:       usecase.NewPageIndexUseCase(docs, storage, pdfinfo.NewCounter(cfg.MaxUploadBytes)),

		closeFn: func() {
			closeEvents()
			_ = db.Close()
		},
	}, nil
}

func prepare(ctx context.Context, db *sql.DB, cfg config.Config, seeder *usecase.Seeder, credential domain.Credential) error {
	if err := postgres.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	taxonomy, err := config.LoadTaxonomy(cfg.SeedFile)
	if err != nil {
		return fmt.Errorf("load seed taxonomy: %w", err)
	}
	if err := seeder.Seed(ctx, taxonomy, credential); err != nil {
		return fmt.Errorf("seed store: %w", err)
	}
	return nil
}

func newEvents(cfg config.Config, opts Options) (ports.DocumentEvents, func(), error) {
	if !cfg.EventsEnabled() {
		slog.Info("document_events_disabled", "reason", "NATS_URL is empty")
		return nats.Disabled{}, func() {}, nil
	}

	policy := resilience.DefaultPolicy()
	policy.Retry.MaxAttempts = cfg.NATSRetryMaxAttempts
	policy.Retry.InitialBackoff = cfg.NATSRetryInitialBackoff
	policy.Breaker.Enabled = cfg.NATSBreakerEnabled
	policy.Breaker.OpenTimeout = cfg.NATSBreakerOpenTimeout

	events, err := nats.Connect(cfg.NATSURL, cfg.NATSSubject, opts.Service, nats.Options{
		Executor: resilience.NewExecutor("nats.publish", policy, nats.Classify, opts.BreakerObserver),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init document events: %w", err)
	}
	return events, events.Close, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
