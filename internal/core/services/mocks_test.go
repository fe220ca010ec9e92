package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/omnimind/internal/adapters/driven/annotator/keyword"
	memcache "github.com/custodia-labs/omnimind/internal/adapters/driven/cache/memory"
	"github.com/custodia-labs/omnimind/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/omnimind/internal/adapters/driven/idgen"
	"github.com/custodia-labs/omnimind/internal/adapters/driven/storage/memory"
	memvector "github.com/custodia-labs/omnimind/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/omnimind/internal/core/domain"
	"github.com/custodia-labs/omnimind/internal/core/ports/driven"
)

var errInjected = errors.New("injected failure")

// faultyIndex wraps a vector index and fails the operations whose error
// is set. Errors can be swapped while tests run.
type faultyIndex struct {
	driven.VectorIndex
	upsertErr atomic.Pointer[error]
	queryErr  atomic.Pointer[error]
	deleteErr atomic.Pointer[error]
	deletes   atomic.Int32
}

func setErr(p *atomic.Pointer[error], err error) {
	if err == nil {
		p.Store(nil)
		return
	}
	p.Store(&err)
}

func loadErr(p *atomic.Pointer[error]) error {
	if e := p.Load(); e != nil {
		return *e
	}
	return nil
}

func (f *faultyIndex) Upsert(ctx context.Context, entry domain.IndexEntry) error {
	if err := loadErr(&f.upsertErr); err != nil {
		return err
	}
	return f.VectorIndex.Upsert(ctx, entry)
}

func (f *faultyIndex) QueryTopK(ctx context.Context, vector []float32, k int) ([]domain.VectorHit, error) {
	if err := loadErr(&f.queryErr); err != nil {
		return nil, err
	}
	return f.VectorIndex.QueryTopK(ctx, vector, k)
}

func (f *faultyIndex) Delete(ctx context.Context, id string) error {
	f.deletes.Add(1)
	if err := loadErr(&f.deleteErr); err != nil {
		return err
	}
	return f.VectorIndex.Delete(ctx, id)
}

// faultyEmbedder wraps an embedder and fails while err is set.
type faultyEmbedder struct {
	driven.EmbeddingService
	err atomic.Pointer[error]
}

func (f *faultyEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := loadErr(&f.err); err != nil {
		return nil, err
	}
	return f.EmbeddingService.Embed(ctx, text)
}

// faultyCache fails every write.
type faultyCache struct {
	driven.ResultCache
	putErr        error
	invalidateErr error
}

func (f *faultyCache) Put(ctx context.Context, s domain.DocumentSummary, ttl time.Duration) error {
	if f.putErr != nil {
		return f.putErr
	}
	return f.ResultCache.Put(ctx, s, ttl)
}

func (f *faultyCache) Invalidate(ctx context.Context, id string) error {
	if f.invalidateErr != nil {
		return f.invalidateErr
	}
	return f.ResultCache.Invalidate(ctx, id)
}

// failingAnnotator always fails.
type failingAnnotator struct{}

func (failingAnnotator) Annotate(context.Context, string, string) (domain.Annotation, error) {
	return domain.Annotation{}, errInjected
}

// cancellingStore cancels the caller's context right after a successful
// insert, simulating a client that disconnects after the commit.
type cancellingStore struct {
	driven.DocumentStore
	cancel context.CancelFunc
}

func (c *cancellingStore) InsertWithTags(ctx context.Context, doc *domain.Document) error {
	err := c.DocumentStore.InsertWithTags(ctx, doc)
	c.cancel()
	return err
}

// steppingClock returns increasing timestamps, one second apart.
type steppingClock struct {
	mu  sync.Mutex
	now time.Time
}

func newSteppingClock() *steppingClock {
	return &steppingClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

// fixture wires the coordinator, search and reconcile services over
// in-memory adapters with fault injection points.
type fixture struct {
	store     *memory.DocumentStore
	rawIndex  *memvector.Index
	index     *faultyIndex
	embedder  *faultyEmbedder
	cache     *memcache.Cache
	docs      *DocumentService
	search    *SearchService
	reconcile *ReconcileService
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	store     driven.DocumentStore
	cache     driven.ResultCache
	annotator driven.Annotator
	ids       driven.IDGenerator
}

func withIDs(ids driven.IDGenerator) fixtureOption {
	return func(c *fixtureConfig) { c.ids = ids }
}

func withAnnotator(a driven.Annotator) fixtureOption {
	return func(c *fixtureConfig) { c.annotator = a }
}

func withCache(cache driven.ResultCache) fixtureOption {
	return func(c *fixtureConfig) { c.cache = cache }
}

func withStore(store driven.DocumentStore) fixtureOption {
	return func(c *fixtureConfig) { c.store = store }
}

const testDims = 256

func newFixture(opts ...fixtureOption) *fixture {
	f := &fixture{
		store:    memory.NewDocumentStore(),
		rawIndex: memvector.NewIndex(testDims),
		cache:    memcache.NewCache(),
	}
	f.index = &faultyIndex{VectorIndex: f.rawIndex}
	f.embedder = &faultyEmbedder{EmbeddingService: hashing.NewEmbeddingService(testDims)}

	cfg := fixtureConfig{
		store:     f.store,
		cache:     f.cache,
		annotator: keyword.New(),
		ids:       idgen.UUID{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	clock := newSteppingClock()
	f.docs = NewDocumentService(cfg.store, f.index, cfg.cache, f.embedder, cfg.annotator, cfg.ids,
		DocumentServiceConfig{Clock: clock.Now})
	f.search = NewSearchService(f.store, f.index, f.embedder)
	f.reconcile = NewReconcileService(f.store, f.index, f.embedder, 0)
	return f
}
