package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// StoreBackend selects the document store implementation.
type StoreBackend string

// Available document stores.
const (
	// StoreSQLite is an embedded SQLite database file.
	StoreSQLite StoreBackend = "sqlite"

	// StorePostgres is a PostgreSQL server.
	StorePostgres StoreBackend = "postgres"

	// StoreMemory keeps documents in process memory.
	StoreMemory StoreBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StoreBackend) IsValid() bool {
	switch b {
	case StoreSQLite, StorePostgres, StoreMemory:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b StoreBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b StoreBackend) Description() string {
	switch b {
	case StoreSQLite:
		return "SQLite (embedded file)"
	case StorePostgres:
		return "PostgreSQL"
	case StoreMemory:
		return "In-memory (not durable)"
	default:
		return unknownDescription
	}
}

// VectorBackend selects the vector index implementation.
type VectorBackend string

// Available vector indexes.
const (
	VectorMemory   VectorBackend = "memory"
	VectorSQLite   VectorBackend = "sqlite"
	VectorQdrant   VectorBackend = "qdrant"
	VectorPGVector VectorBackend = "pgvector"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	switch b {
	case VectorMemory, VectorSQLite, VectorQdrant, VectorPGVector:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b VectorBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b VectorBackend) Description() string {
	switch b {
	case VectorMemory:
		return "In-memory brute force"
	case VectorSQLite:
		return "SQLite brute force (persistent)"
	case VectorQdrant:
		return "Qdrant"
	case VectorPGVector:
		return "PostgreSQL pgvector"
	default:
		return unknownDescription
	}
}

// CacheBackend selects the result cache implementation.
type CacheBackend string

// Available caches.
const (
	CacheMemory CacheBackend = "memory"
	CacheRedis  CacheBackend = "redis"
	CacheNone   CacheBackend = "none"
)

// IsValid returns true if the backend is recognised.
func (b CacheBackend) IsValid() bool {
	switch b {
	case CacheMemory, CacheRedis, CacheNone:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b CacheBackend) String() string {
	return string(b)
}

// EmbeddingProvider selects the embedder implementation.
type EmbeddingProvider string

// Available embedding providers.
const (
	// EmbeddingHashing is a local feature-hashing embedder with no network calls.
	EmbeddingHashing EmbeddingProvider = "hashing"

	// EmbeddingOllama uses a local Ollama server.
	EmbeddingOllama EmbeddingProvider = "ollama"

	// EmbeddingOpenAI uses the OpenAI embeddings API.
	EmbeddingOpenAI EmbeddingProvider = "openai"
)

// IsValid returns true if the provider is recognised.
func (p EmbeddingProvider) IsValid() bool {
	switch p {
	case EmbeddingHashing, EmbeddingOllama, EmbeddingOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p EmbeddingProvider) RequiresAPIKey() bool {
	return p == EmbeddingOpenAI
}

// String returns the string representation.
func (p EmbeddingProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p EmbeddingProvider) Description() string {
	switch p {
	case EmbeddingHashing:
		return "Hashing (local, no model)"
	case EmbeddingOllama:
		return "Ollama (local)"
	case EmbeddingOpenAI:
		return "OpenAI"
	default:
		return unknownDescription
	}
}

// AnnotatorProvider selects how tags and summaries are derived.
type AnnotatorProvider string

// Available annotators.
const (
	// AnnotatorKeyword is the local keyword heuristic.
	AnnotatorKeyword AnnotatorProvider = "keyword"

	AnnotatorOpenAI    AnnotatorProvider = "openai"
	AnnotatorAnthropic AnnotatorProvider = "anthropic"
	AnnotatorOllama    AnnotatorProvider = "ollama"
)

// IsValid returns true if the provider is recognised.
func (p AnnotatorProvider) IsValid() bool {
	switch p {
	case AnnotatorKeyword, AnnotatorOpenAI, AnnotatorAnthropic, AnnotatorOllama:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AnnotatorProvider) RequiresAPIKey() bool {
	return p == AnnotatorOpenAI || p == AnnotatorAnthropic
}

// UsesModel returns true if annotations come from a language model.
func (p AnnotatorProvider) UsesModel() bool {
	return p != AnnotatorKeyword && p != ""
}

// String returns the string representation.
func (p AnnotatorProvider) String() string {
	return string(p)
}

// Settings is the full runtime configuration.
type Settings struct {
	Server     ServerSettings
	Store      StoreSettings
	Vector     VectorSettings
	Cache      CacheSettings
	Embedding  EmbeddingSettings
	Annotator  AnnotatorSettings
	Resilience ResilienceSettings
	Scheduler  SchedulerConfig

	// LogLevel is one of debug, info, warn, error.
	LogLevel string
}

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	Addr string
}

// StoreSettings configures the document store.
type StoreSettings struct {
	Backend StoreBackend

	// DataDir holds the SQLite database file.
	DataDir string

	// PostgresDSN is used by the postgres store and the pgvector index.
	PostgresDSN string
}

// VectorSettings configures the vector index.
type VectorSettings struct {
	Backend      VectorBackend
	QdrantURL    string
	QdrantAPIKey string
	Collection   string
}

// CacheSettings configures the result cache.
type CacheSettings struct {
	Backend       CacheBackend
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
}

// EmbeddingSettings configures the embedder.
type EmbeddingSettings struct {
	Provider   EmbeddingProvider
	Model      string
	BaseURL    string
	APIKey     string
	Dimensions int

	// RatePerSecond limits embedder calls; zero disables limiting.
	RatePerSecond float64
	Burst         int
}

// AnnotatorSettings configures the annotator. Model, BaseURL and APIKey
// only apply to LLM providers; empty values select provider defaults.
type AnnotatorSettings struct {
	Provider AnnotatorProvider
	Model    string
	BaseURL  string
	APIKey   string
}

// ResilienceSettings bounds calls to external dependencies.
type ResilienceSettings struct {
	// Timeout bounds a single attempt.
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// InitialBackoff is the delay before the first retry.
	InitialBackoff time.Duration
}

// Default values.
const (
	DefaultHTTPAddr       = ":8000"
	DefaultCollection     = "documents"
	DefaultCacheTTL       = time.Hour
	DefaultCallTimeout    = 10 * time.Second
	DefaultMaxRetries     = 2
	DefaultInitialBackoff = 200 * time.Millisecond
	DefaultDimensions     = 384
)

// DefaultSettings returns settings that run fully offline: SQLite store,
// in-memory vector index and cache, and the hashing embedder.
func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{Addr: DefaultHTTPAddr},
		Store:  StoreSettings{Backend: StoreSQLite},
		Vector: VectorSettings{
			Backend:    VectorSQLite,
			QdrantURL:  "http://localhost:6333",
			Collection: DefaultCollection,
		},
		Cache: CacheSettings{
			Backend:   CacheMemory,
			RedisAddr: "localhost:6379",
			TTL:       DefaultCacheTTL,
		},
		Embedding: EmbeddingSettings{
			Provider:   EmbeddingHashing,
			Dimensions: DefaultDimensions,
		},
		Annotator: AnnotatorSettings{Provider: AnnotatorKeyword},
		Resilience: ResilienceSettings{
			Timeout:        DefaultCallTimeout,
			MaxRetries:     DefaultMaxRetries,
			InitialBackoff: DefaultInitialBackoff,
		},
		Scheduler: DefaultSchedulerConfig(),
		LogLevel:  "info",
	}
}

// Validate checks that the settings are usable.
func (s *Settings) Validate() error {
	if !s.Store.Backend.IsValid() {
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalidInput, s.Store.Backend)
	}
	if !s.Vector.Backend.IsValid() {
		return fmt.Errorf("%w: unknown vector backend %q", ErrInvalidInput, s.Vector.Backend)
	}
	if !s.Cache.Backend.IsValid() {
		return fmt.Errorf("%w: unknown cache backend %q", ErrInvalidInput, s.Cache.Backend)
	}
	if !s.Embedding.Provider.IsValid() {
		return fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidInput, s.Embedding.Provider)
	}
	if s.Embedding.Provider.RequiresAPIKey() && s.Embedding.APIKey == "" {
		return fmt.Errorf("%w: %s requires an API key", ErrInvalidInput, s.Embedding.Provider)
	}
	if !s.Annotator.Provider.IsValid() {
		return fmt.Errorf("%w: unknown annotator %q", ErrInvalidInput, s.Annotator.Provider)
	}
	if s.Annotator.Provider.RequiresAPIKey() && s.Annotator.APIKey == "" {
		return fmt.Errorf("%w: %s annotator requires an API key", ErrInvalidInput, s.Annotator.Provider)
	}
	needsPostgres := s.Store.Backend == StorePostgres || s.Vector.Backend == VectorPGVector
	if needsPostgres && s.Store.PostgresDSN == "" {
		return fmt.Errorf("%w: postgres DSN is required", ErrInvalidInput)
	}
	if s.Vector.Backend == VectorSQLite && s.Store.Backend != StoreSQLite {
		return fmt.Errorf("%w: sqlite vector index requires the sqlite store", ErrInvalidInput)
	}
	if s.Resilience.MaxRetries < 0 {
		return fmt.Errorf("%w: max retries must not be negative", ErrInvalidInput)
	}
	return nil
}
