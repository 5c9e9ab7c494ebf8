// Package container builds the application's dependency graph from the
// configuration and owns the lifecycle of its resources.
package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/garyjia/basket-allowance/internal/columns"
	"github.com/garyjia/basket-allowance/internal/config"
	"github.com/garyjia/basket-allowance/internal/report"
	"github.com/garyjia/basket-allowance/internal/repository"
	"github.com/garyjia/basket-allowance/internal/review"
	"github.com/garyjia/basket-allowance/internal/service"
	"github.com/garyjia/basket-allowance/internal/spreadsheet"
	"github.com/garyjia/basket-allowance/internal/storage"
	"github.com/garyjia/basket-allowance/internal/worker"
	"github.com/garyjia/basket-allowance/migrations"
	"github.com/garyjia/basket-allowance/pkg/database"
	"go.uber.org/zap"
)

// Container holds every long-lived component
type Container struct {
	config *config.Config
	logger *zap.Logger

	db           *database.DB
	repositories *RepositoryBundle
	storage      storage.ReportStorage
	sessions     *review.Manager
	services     *ServiceBundle
	workers      *worker.Manager

	mu     sync.Mutex
	ready  atomic.Bool
	closed atomic.Bool
}

// RepositoryBundle groups the repositories
type RepositoryBundle struct {
	Category *repository.CategoryRepository
	Export   *repository.ExportRepository
}

// ServiceBundle groups the application services
type ServiceBundle struct {
	Calculation *service.CalculationService
	Review      *service.ReviewService
	Export      *service.ExportService
	Category    *service.CategoryService
}

// HealthStatus reports the state of each component
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth is the state of one component
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer validates cfg and returns an unstarted container
func NewContainer(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start opens the database, applies migrations and builds the services
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	if err := c.initDatabase(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database initialized")

	c.storage = storage.NewLocalFileStorage(c.config.Report.OutputDir, c.logger)
	c.logger.Info("Storage initialized", zap.String("output_dir", c.config.Report.OutputDir))

	if err := c.initServices(); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	c.logger.Info("Application services initialized")

	if err := c.initWorkers(ctx); err != nil {
		return fmt.Errorf("failed to initialize workers: %w", err)
	}
	c.logger.Info("Workers initialized and started", zap.Int("count", c.workers.Count()))

	c.ready.Store(true)
	c.logger.Info("Container started successfully")
	return nil
}

func (c *Container) initDatabase(ctx context.Context) error {
	db, err := database.Open(ctx, database.Config{
		Path:            c.config.Database.Path,
		MaxOpenConns:    c.config.Database.MaxOpenConns,
		MaxIdleConns:    c.config.Database.MaxIdleConns,
		ConnMaxLifetime: c.config.Database.ConnMaxLifetime,
	}, c.logger)
	if err != nil {
		return err
	}

	applied, err := database.NewMigrator(db, c.logger).Run(ctx, migrations.FS)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	c.logger.Info("Database migrations checked", zap.Int("applied", applied))

	c.db = db
	c.repositories = &RepositoryBundle{
		Category: repository.NewCategoryRepository(db.DB, columns.Fold, c.logger),
		Export:   repository.NewExportRepository(db.DB, c.logger),
	}
	return nil
}

func (c *Container) initServices() error {
	rules, err := c.config.Rules.ToRules()
	if err != nil {
		return err
	}

	reader := spreadsheet.NewReader(c.logger)
	c.sessions = review.NewManager(c.config.Review.SessionTTL, c.logger)

	c.services = &ServiceBundle{
		Calculation: service.NewCalculationService(
			reader,
			c.repositories.Category,
			rules,
			c.config.Normalizer.Keywords,
			c.sessions,
			c.logger,
		),
		Review: service.NewReviewService(c.sessions, rules.AmountCeiling, c.logger),
		Export: service.NewExportService(
			c.sessions,
			report.NewAggregator(c.logger),
			spreadsheet.NewWriter(c.config.Report.CompanyTaxID, c.logger),
			c.storage,
			c.repositories.Export,
			c.db,
			c.logger,
		),
		Category: service.NewCategoryService(c.repositories.Category, c.db, reader, c.logger),
	}
	return nil
}

func (c *Container) initWorkers(ctx context.Context) error {
	c.workers = worker.NewManager(c.logger)
	if c.config.Review.SessionTTL > 0 && c.config.Review.CleanupInterval > 0 {
		c.workers.Register(worker.NewSessionJanitor(c.sessions, c.config.Review.CleanupInterval, c.logger))
	}
	return c.workers.Start(ctx)
}

// Close stops the workers and releases the database. A closed container cannot be restarted.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	if c.workers != nil {
		c.workers.Stop()
	}

	var closeErr error
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			closeErr = fmt.Errorf("close database: %w", err)
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if closeErr == nil {
		c.logger.Info("Container closed successfully")
	}
	return closeErr
}

// Ready reports whether Start completed
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health checks the database and the report directory
func (c *Container) Health(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	if c.db == nil {
		status.Components["database"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		status.Overall = false
	} else if err := c.db.PingContext(ctx); err != nil {
		status.Components["database"] = ComponentHealth{Healthy: false, Message: fmt.Sprintf("ping failed: %v", err)}
		status.Overall = false
	} else {
		status.Components["database"] = ComponentHealth{Healthy: true}
	}

	if c.storage == nil {
		status.Components["storage"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		status.Overall = false
	} else if _, err := c.storage.ListReports(); err != nil {
		status.Components["storage"] = ComponentHealth{Healthy: false, Message: err.Error()}
		status.Overall = false
	} else {
		status.Components["storage"] = ComponentHealth{Healthy: true}
	}

	if c.sessions != nil {
		status.Components["review"] = ComponentHealth{
			Healthy: true,
			Message: fmt.Sprintf("open sessions: %d", len(c.sessions.List())),
		}
	}

	if c.workers != nil {
		status.Components["workers"] = ComponentHealth{
			Healthy: c.workers.Running() || c.workers.Count() == 0,
			Message: fmt.Sprintf("worker count: %d", c.workers.Count()),
		}
	}

	return status
}

// Services returns the application services; nil before Start
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Config returns the configuration the container was built with
func (c *Container) Config() *config.Config {
	return c.config
}
