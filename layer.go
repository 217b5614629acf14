// Package francosphere is the embedded transactional data layer for the
// FrancoSphere facilities app. Open wires storage, schema, auth, the
// inventory ledger, tasks, and the update broadcaster into one handle the
// host application owns for its lifetime.
package francosphere

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/thekingleo527/FrancoSphere-sub016/internal/auth"
	"github.com/thekingleo527/FrancoSphere-sub016/internal/buildings"
	"github.com/thekingleo527/FrancoSphere-sub016/internal/inventory"
	"github.com/thekingleo527/FrancoSphere-sub016/internal/tasks"
	"github.com/thekingleo527/FrancoSphere-sub016/internal/workers"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/config"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/db"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/events"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/logger"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/metrics"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/migrate"
)

// Layer is an open data layer. All services share one SQLite handle and one
// write lane; the handle is safe for concurrent use across goroutines.
type Layer struct {
	DB        *db.Client
	Bus       *events.Broadcaster
	Auth      *auth.Service
	Inventory *inventory.Service
	Tasks     *tasks.Service
	Buildings *buildings.Repository
	Workers   *workers.Repository

	logg *logger.Logger
}

// Open boots the data layer: connects storage, brings the schema up to date,
// seeds first-boot data when enabled, and wires every service. A schema
// failure is fatal; the layer never runs against a partial schema. The
// registry may be nil to disable metrics.
func Open(ctx context.Context, cfg *config.Config, logg *logger.Logger, registry prometheus.Registerer) (*Layer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := migrate.EnsureSchema(ctx, dbClient, logg); err != nil {
		return nil, multierr.Append(fmt.Errorf("ensuring schema: %w", err), dbClient.Close())
	}

	bus := events.NewBroadcaster(cfg.Eventing.SubscriberBuffer, logg, metrics.NewEventMetrics(registry))
	workerRepo := workers.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		Client:     dbClient,
		WorkerRepo: workerRepo,
		AuthConfig: cfg.Auth,
		PWConfig:   cfg.Password,
		Logger:     logg,
		Metrics:    metrics.NewAuthMetrics(registry),
	})
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("creating auth service: %w", err), dbClient.Close())
	}

	ledger, err := inventory.NewService(inventory.ServiceParams{
		Client:  dbClient,
		Repo:    inventory.NewRepository(dbClient.DB()),
		Config:  cfg.Inventory,
		Logger:  logg,
		Metrics: metrics.NewLedgerMetrics(registry),
		Bus:     bus,
	})
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("creating inventory service: %w", err), dbClient.Close())
	}

	taskService, err := tasks.NewService(tasks.ServiceParams{
		Client: dbClient,
		Ledger: ledger,
		Logger: logg,
		Bus:    bus,
	})
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("creating task service: %w", err), dbClient.Close())
	}

	if err := buildings.Seed(ctx, dbClient, workerRepo, cfg.Seed, cfg.Password, logg); err != nil {
		return nil, multierr.Append(fmt.Errorf("seeding database: %w", err), dbClient.Close())
	}

	return &Layer{
		DB:        dbClient,
		Bus:       bus,
		Auth:      authService,
		Inventory: ledger,
		Tasks:     taskService,
		Buildings: buildings.NewRepository(dbClient.DB()),
		Workers:   workerRepo,
		logg:      logg,
	}, nil
}

// Close tears the layer down: the broadcaster first so subscribers drain,
// then the database handle.
func (l *Layer) Close() error {
	l.Bus.Close()
	return l.DB.Close()
}
