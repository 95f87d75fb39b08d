// Package app wires configuration into the harvest pipeline and owns the
// run lifecycle: seed, drain, summarize, shut down.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/pubsub"
	gcstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/api"
	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/assemble"
	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/clock/system"
	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/config"
	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/dispatcher"
	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/extract"
	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/fetch"
	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/flow"
	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/hash/sha256"
	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/id/uuid"
	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/identity"
	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/metrics"
	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/paginate"
	pubsubpub "github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/publisher/pubsub"
	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/queue/memory"
	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/scrape"
	gcsstore "github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/storage/gcs"
	localstorage "github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/storage/local"
	storagemem "github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/storage/memory"
	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/storage/postgres"
	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/worker"
)

// App holds one run's wired components.
type App struct {
	cfg    config.Config
	logger *zap.Logger
	runID  string

	controller  *flow.Controller
	coordinator *dispatcher.Coordinator
	pool        *dispatcher.Pool
	publisher   scrape.Publisher
	clock       scrape.Clock
	httpServer  *http.Server

	closers []func()
}

// New builds every component from configuration. It fails fast when any
// backend cannot be initialized.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()

	ids := uuid.New()
	runID, err := ids.NewID()
	if err != nil {
		return nil, fmt.Errorf("generate run id: %w", err)
	}
	clk := system.New()

	idPool := identity.NewPool(identity.Config{
		Capacity:      cfg.Identity.Capacity,
		MaxUsage:      cfg.Identity.MaxUsage,
		MaxErrorScore: cfg.Identity.MaxErrorScore,
		MaxAge:        cfg.Identity.MaxAge(),
	}, clk, logger.Named("identity"))

	gateway, err := fetch.NewGateway(idPool, fetch.Config{
		Timeout:         cfg.HTTP.Timeout(),
		ListingDelayMin: cfg.Politeness.ListingDelayMin(),
		ListingDelayMax: cfg.Politeness.ListingDelayMax(),
		DetailDelayMin:  cfg.Politeness.DetailDelayMin(),
		DetailDelayMax:  cfg.Politeness.DetailDelayMax(),
		MinBodyBytes:    cfg.HTTP.MinBodyBytes,
		EmptyBodyBytes:  cfg.HTTP.EmptyBodyBytes,
		BackoffBase:     cfg.HTTP.BackoffInitial(),
		BackoffMax:      cfg.HTTP.BackoffMax(),
		GlobalRPS:       cfg.HTTP.GlobalRPS,
		ProxyURL:        cfg.HTTP.ProxyURL,
	}, logger.Named("fetch"))
	if err != nil {
		return nil, fmt.Errorf("build fetch gateway: %w", err)
	}

	app := &App{
		cfg:    cfg,
		logger: logger,
		runID:  runID,
		clock:  clk,
	}

	sink, err := app.buildRecordSink(ctx)
	if err != nil {
		return nil, err
	}
	blobStore, err := app.buildBlobStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := app.buildPublisher(ctx); err != nil {
		return nil, err
	}

	// Queue depth at least the task budget keeps enqueues from ever blocking
	// the workers that must also drain the queue.
	taskBudget := cfg.Flow.TargetRecords * cfg.Workers.TaskBudgetMultiplier
	depth := cfg.Workers.QueueDepth
	if depth < taskBudget {
		depth = taskBudget
	}
	taskQueue := memory.NewQueue(depth)
	app.coordinator = dispatcher.NewCoordinator(taskQueue, taskBudget, logger.Named("dispatcher"))
	app.controller = flow.NewController(flow.Config{
		TargetRecords: cfg.Flow.TargetRecords,
		MaxPages:      cfg.Flow.MaxPages,
	})
	resolver := paginate.NewResolver()
	cascade := extract.NewCascade(logger.Named("extract"))
	assembler := assemble.New(clk)
	hasher := sha256.New()

	topic := ""
	if cfg.PubSub.Enabled {
		topic = cfg.PubSub.Topic
	}
	poolSize := cfg.Workers.PoolSize()
	workers := make([]*worker.Worker, 0, poolSize)
	for i := 0; i < poolSize; i++ {
		workers = append(workers, worker.New(
			taskQueue, app.coordinator, gateway, cascade, resolver,
			app.controller, assembler, sink, blobStore, app.publisher,
			hasher, clk, ids,
			worker.Config{
				MaxAttempts: cfg.Workers.MaxAttempts,
				Topic:       topic,
				BlobPrefix:  cfg.Storage.Prefix,
			},
			logger.Named("worker"),
		))
	}
	app.pool = dispatcher.NewPool(workers)

	server := api.NewServer(runID, cfg.Search, app.controller, app.coordinator, idPool, clk, logger.Named("api"))
	app.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return app, nil
}

// RunID returns the generated run identifier.
func (a *App) RunID() string {
	return a.runID
}

// Run seeds the queue and blocks until the run drains or ctx ends. A record
// shortfall is not an error; only an unusable query is.
func (a *App) Run(ctx context.Context) error {
	go func() {
		a.logger.Info("status server listening", zap.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("status server failed", zap.Error(err))
		}
	}()
	defer a.shutdownServer()

	seeds, err := scrape.SeedURLs(a.cfg.Search)
	if err != nil {
		return fmt.Errorf("build seeds: %w", err)
	}

	ids := uuid.New()
	for _, seed := range seeds {
		taskID, err := ids.NewID()
		if err != nil {
			return fmt.Errorf("generate seed task id: %w", err)
		}
		if !a.coordinator.Submit(ctx, scrape.Task{ID: taskID, Kind: scrape.TaskListing, URL: seed}) {
			return fmt.Errorf("seed submission rejected for %s", seed)
		}
	}
	a.logger.Info("run started",
		zap.String("run_id", a.runID),
		zap.Int("seeds", len(seeds)),
		zap.Int("target_records", a.cfg.Flow.TargetRecords),
		zap.Int("max_pages", a.cfg.Flow.MaxPages),
	)

	a.pool.Run(ctx)

	snap := a.controller.Snapshot()
	a.logger.Info("run finished",
		zap.String("run_id", a.runID),
		zap.Int("persisted", snap.Persisted),
		zap.Int("target", snap.TargetRecords),
		zap.Int("pages_visited", snap.PagesVisited),
		zap.Bool("target_met", snap.Terminal),
	)
	a.publishSummary(snap)
	return nil
}

// Close releases backends. Safe to call once after Run.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func (a *App) shutdownServer() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("status server shutdown failed", zap.Error(err))
	}
}

func (a *App) buildRecordSink(ctx context.Context) (scrape.RecordSink, error) {
	switch a.cfg.Storage.RecordsBackend {
	case config.RecordsBackendPostgres:
		store, err := postgres.NewRecordStore(ctx, postgres.RecordStoreConfig{
			DSN:             a.cfg.DB.DSN,
			Table:           a.cfg.DB.Table,
			MaxConns:        a.cfg.DB.MaxConns,
			MinConns:        a.cfg.DB.MinConns,
			MaxConnLifetime: a.cfg.DB.MaxConnLifetime(),
		})
		if err != nil {
			return nil, fmt.Errorf("build postgres record store: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		a.logger.Info("records backend: postgres", zap.String("table", a.cfg.DB.Table))
		return store, nil
	default:
		a.logger.Info("records backend: memory")
		return storagemem.NewRecordStore(), nil
	}
}

func (a *App) buildBlobStore(ctx context.Context) (scrape.BlobStore, error) {
	switch a.cfg.Storage.BlobsBackend {
	case config.BlobsBackendLocal:
		store, err := localstorage.New(localstorage.Config{BaseDir: a.cfg.Storage.LocalDir})
		if err != nil {
			return nil, fmt.Errorf("build local blob store: %w", err)
		}
		a.logger.Info("blobs backend: local", zap.String("dir", a.cfg.Storage.LocalDir))
		return store, nil
	case config.BlobsBackendMemory:
		a.logger.Info("blobs backend: memory")
		return storagemem.NewBlobStore(), nil
	case config.BlobsBackendGCS:
		client, err := gcstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("build gcs client: %w", err)
		}
		a.closers = append(a.closers, func() {
			if err := client.Close(); err != nil {
				a.logger.Warn("gcs client close failed", zap.Error(err))
			}
		})
		store, err := gcsstore.New(client, gcsstore.Config{Bucket: a.cfg.Storage.GCSBucket})
		if err != nil {
			return nil, fmt.Errorf("build gcs blob store: %w", err)
		}
		a.logger.Info("blobs backend: gcs", zap.String("bucket", a.cfg.Storage.GCSBucket))
		return store, nil
	default:
		return nil, nil
	}
}

func (a *App) buildPublisher(ctx context.Context) error {
	if !a.cfg.PubSub.Enabled {
		return nil
	}
	client, err := pubsub.NewClient(ctx, a.cfg.PubSub.ProjectID)
	if err != nil {
		return fmt.Errorf("build pubsub client: %w", err)
	}
	pub, err := pubsubpub.New(client)
	if err != nil {
		return fmt.Errorf("build pubsub publisher: %w", err)
	}
	a.closers = append(a.closers, func() {
		pub.Close()
		if err := client.Close(); err != nil {
			a.logger.Warn("pubsub client close failed", zap.Error(err))
		}
	})
	a.publisher = pub
	a.logger.Info("pubsub publisher enabled", zap.String("topic", a.cfg.PubSub.Topic))
	return nil
}

// publishSummary emits one run-summary event after the queue drains.
func (a *App) publishSummary(snap flow.Snapshot) {
	if a.publisher == nil || a.cfg.PubSub.Topic == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	payload := map[string]any{
		"event":         "run_summary",
		"run_id":        a.runID,
		"keywords":      a.cfg.Search.Keywords,
		"persisted":     snap.Persisted,
		"target":        snap.TargetRecords,
		"pages_visited": snap.PagesVisited,
		"target_met":    snap.Terminal,
		"completed_at":  a.clock.Now().UTC().Format(time.RFC3339),
	}
	if _, err := a.publisher.Publish(ctx, a.cfg.PubSub.Topic, payload); err != nil {
		a.logger.Warn("run summary publish failed", zap.Error(err))
	}
}
