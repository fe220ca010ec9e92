// Package bootstrap assembles OmniMind from settings: it opens the
// configured stores, wraps them with the resilience policy and builds the
// core services on top. Every handle it opens is released by App.Close.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/omnimind/internal/adapters/driven/ai"
	memcache "github.com/custodia-labs/omnimind/internal/adapters/driven/cache/memory"
	rediscache "github.com/custodia-labs/omnimind/internal/adapters/driven/cache/redis"
	"github.com/custodia-labs/omnimind/internal/adapters/driven/idgen"
	"github.com/custodia-labs/omnimind/internal/adapters/driven/resilient"
	"github.com/custodia-labs/omnimind/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/omnimind/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/omnimind/internal/adapters/driven/storage/sqlite"
	memvector "github.com/custodia-labs/omnimind/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/omnimind/internal/adapters/driven/vector/pgvector"
	"github.com/custodia-labs/omnimind/internal/adapters/driven/vector/qdrant"
	"github.com/custodia-labs/omnimind/internal/core/domain"
	"github.com/custodia-labs/omnimind/internal/core/ports/driven"
	"github.com/custodia-labs/omnimind/internal/core/services"
	"github.com/custodia-labs/omnimind/internal/logger"
)

// pgvectorTable holds the vectors when the pgvector backend is selected.
const pgvectorTable = "document_vectors"

// App holds the wired services and the driven adapters behind them.
type App struct {
	Settings domain.Settings

	Documents *services.DocumentService
	Search    *services.SearchService
	Reconcile *services.ReconcileService
	Health    *services.HealthService
	Scheduler *services.Scheduler

	DocStore       driven.DocumentStore
	VectorIndex    driven.VectorIndex
	Cache          driven.ResultCache
	Embedder       driven.EmbeddingService
	LLM            driven.LLMService
	SchedulerStore driven.SchedulerStore

	closers []func() error
}

// Options overrides pieces of the wiring. Tests use it to inject doubles.
type Options struct {
	IDs       driven.IDGenerator
	Annotator driven.Annotator
}

// New opens every configured dependency and builds the services. On error,
// anything already opened is closed.
func New(ctx context.Context, settings domain.Settings, opts Options) (_ *App, err error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	app := &App{Settings: settings}
	defer func() {
		if err != nil {
			_ = app.Close()
		}
	}()

	policy := resilient.PolicyFrom(settings.Resilience)

	if err := app.openStores(ctx, settings, policy); err != nil {
		return nil, err
	}

	embedder, err := ai.CreateEmbeddingService(settings.Embedding, policy)
	if err != nil {
		return nil, fmt.Errorf("embedding: %w", err)
	}
	app.Embedder = embedder
	app.closers = append(app.closers, embedder.Close)

	if err := app.openCache(settings); err != nil {
		return nil, err
	}

	ids := opts.IDs
	if ids == nil {
		ids = idgen.UUID{}
	}
	annotator := opts.Annotator
	if annotator == nil {
		llm, err := ai.CreateLLMService(settings.Annotator, policy)
		if err != nil {
			return nil, fmt.Errorf("annotator: %w", err)
		}
		if llm != nil {
			app.LLM = llm
			app.closers = append(app.closers, llm.Close)
		}
		annotator = ai.CreateAnnotator(llm)
	}

	docCfg := services.DefaultDocumentServiceConfig()
	docCfg.CacheTTL = settings.Cache.TTL

	app.Documents = services.NewDocumentService(
		app.DocStore, app.VectorIndex, app.Cache, app.Embedder, annotator, ids, docCfg)
	app.Search = services.NewSearchService(app.DocStore, app.VectorIndex, app.Embedder)
	app.Reconcile = services.NewReconcileService(app.DocStore, app.VectorIndex, app.Embedder, 0)

	deps := map[string]services.Pinger{
		domain.DependencyDocumentStore: app.DocStore,
		domain.DependencyVectorIndex:   app.VectorIndex,
		domain.DependencyEmbedder:      app.Embedder,
	}
	if app.Cache != nil {
		deps[domain.DependencyCache] = app.Cache
	}
	if app.LLM != nil {
		deps[domain.DependencyAnnotator] = app.LLM
	}
	app.Health = services.NewHealthService(0, deps)
	app.Scheduler = services.NewScheduler(settings.Scheduler, app.SchedulerStore,
		services.ReconcileTask(app.Reconcile),
		services.HealthProbeTask(app.Health))

	logger.Debug("Wired store=%s vector=%s cache=%s embedder=%s (%d dims)",
		settings.Store.Backend, settings.Vector.Backend, settings.Cache.Backend,
		app.Embedder.ModelName(), app.Embedder.Dimensions())
	return app, nil
}

func (a *App) openStores(ctx context.Context, settings domain.Settings, policy resilient.Policy) error {
	dims := settings.Embedding.Dimensions

	var (
		docStore    driven.DocumentStore
		vectorIndex driven.VectorIndex
		sqliteStore *sqlite.Store
		pgStore     *postgres.DocumentStore
	)

	switch settings.Store.Backend {
	case domain.StoreSQLite:
		store, err := sqlite.NewStore(settings.Store.DataDir)
		if err != nil {
			return fmt.Errorf("sqlite store: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		sqliteStore = store
		docStore = store.DocumentStore()
		a.SchedulerStore = store.SchedulerStore()

	case domain.StorePostgres:
		store, err := postgres.Open(ctx, settings.Store.PostgresDSN)
		if err != nil {
			return fmt.Errorf("postgres store: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		pgStore = store
		docStore = store

	case domain.StoreMemory:
		docStore = memory.NewDocumentStore()
	}

	// Postgres and memory deployments keep scheduler state in process.
	if a.SchedulerStore == nil {
		a.SchedulerStore = memory.NewSchedulerStore()
	}

	switch settings.Vector.Backend {
	case domain.VectorMemory:
		vectorIndex = memvector.NewIndex(dims)

	case domain.VectorSQLite:
		if sqliteStore == nil {
			return errors.New("sqlite vector index requires the sqlite store")
		}
		vectorIndex = sqliteStore.VectorIndex(dims)

	case domain.VectorQdrant:
		index, err := qdrant.NewIndex(ctx, qdrant.Config{
			URL:        settings.Vector.QdrantURL,
			APIKey:     settings.Vector.QdrantAPIKey,
			Collection: settings.Vector.Collection,
			Timeout:    policy.Timeout,
		}, dims)
		if err != nil {
			return fmt.Errorf("qdrant index: %w", err)
		}
		a.closers = append(a.closers, index.Close)
		vectorIndex = index

	case domain.VectorPGVector:
		if pgStore == nil {
			store, err := postgres.Open(ctx, settings.Store.PostgresDSN)
			if err != nil {
				return fmt.Errorf("pgvector: %w", err)
			}
			a.closers = append(a.closers, store.Close)
			pgStore = store
		}
		index, err := pgvector.NewIndex(ctx, pgStore.DB(), pgvectorTable, dims)
		if err != nil {
			return fmt.Errorf("pgvector index: %w", err)
		}
		vectorIndex = index
	}

	a.DocStore = resilient.NewDocumentStore(docStore, policy)
	a.VectorIndex = resilient.NewVectorIndex(vectorIndex, policy)
	return nil
}

func (a *App) openCache(settings domain.Settings) error {
	switch settings.Cache.Backend {
	case domain.CacheMemory:
		c := memcache.NewCache()
		a.Cache = c
		a.closers = append(a.closers, c.Close)
	case domain.CacheRedis:
		c := rediscache.NewCache(rediscache.Config{
			Addr:     settings.Cache.RedisAddr,
			Password: settings.Cache.RedisPassword,
			DB:       settings.Cache.RedisDB,
		})
		a.Cache = c
		a.closers = append(a.closers, c.Close)
	case domain.CacheNone:
	default:
		return fmt.Errorf("unknown cache backend %q", settings.Cache.Backend)
	}
	return nil
}

// Close releases every handle in reverse opening order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
