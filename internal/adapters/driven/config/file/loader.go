package file

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/omnimind/internal/core/domain"
)

// DefaultFileName is the config file looked up in the config directory.
const DefaultFileName = "config.toml"

// Options controls where settings are read from.
type Options struct {
	// Path is the config file. Empty selects DefaultPath, which may be absent.
	Path string

	// EnvFile is a dotenv file to load. Empty selects ".env"; a missing
	// file is ignored.
	EnvFile string

	// Getenv reads environment variables. Defaults to os.Getenv.
	Getenv func(string) string
}

// DefaultPath returns ~/.omnimind/config.toml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultFileName
	}
	return filepath.Join(home, ".omnimind", DefaultFileName)
}

// fileConfig mirrors the config file. Pointer fields distinguish "unset"
// from zero values so the file only overrides what it names.
type fileConfig struct {
	LogLevel   *string           `toml:"log_level" yaml:"log_level"`
	Server     serverSection     `toml:"server" yaml:"server"`
	Store      storeSection      `toml:"store" yaml:"store"`
	Vector     vectorSection     `toml:"vector" yaml:"vector"`
	Cache      cacheSection      `toml:"cache" yaml:"cache"`
	Embedding  embeddingSection  `toml:"embedding" yaml:"embedding"`
	Annotator  annotatorSection  `toml:"annotator" yaml:"annotator"`
	Resilience resilienceSection `toml:"resilience" yaml:"resilience"`
	Scheduler  schedulerSection  `toml:"scheduler" yaml:"scheduler"`
}

type serverSection struct {
	Addr *string `toml:"addr" yaml:"addr"`
}

type storeSection struct {
	Backend     *string `toml:"backend" yaml:"backend"`
	DataDir     *string `toml:"data_dir" yaml:"data_dir"`
	PostgresDSN *string `toml:"postgres_dsn" yaml:"postgres_dsn"`
}

type vectorSection struct {
	Backend      *string `toml:"backend" yaml:"backend"`
	QdrantURL    *string `toml:"qdrant_url" yaml:"qdrant_url"`
	QdrantAPIKey *string `toml:"qdrant_api_key" yaml:"qdrant_api_key"`
	Collection   *string `toml:"collection" yaml:"collection"`
}

type cacheSection struct {
	Backend       *string `toml:"backend" yaml:"backend"`
	RedisAddr     *string `toml:"redis_addr" yaml:"redis_addr"`
	RedisPassword *string `toml:"redis_password" yaml:"redis_password"`
	RedisDB       *int    `toml:"redis_db" yaml:"redis_db"`
	TTL           *string `toml:"ttl" yaml:"ttl"`
}

type embeddingSection struct {
	Provider      *string  `toml:"provider" yaml:"provider"`
	Model         *string  `toml:"model" yaml:"model"`
	BaseURL       *string  `toml:"base_url" yaml:"base_url"`
	APIKey        *string  `toml:"api_key" yaml:"api_key"`
	Dimensions    *int     `toml:"dimensions" yaml:"dimensions"`
	RatePerSecond *float64 `toml:"rate_per_second" yaml:"rate_per_second"`
	Burst         *int     `toml:"burst" yaml:"burst"`
}

type annotatorSection struct {
	Provider *string `toml:"provider" yaml:"provider"`
	Model    *string `toml:"model" yaml:"model"`
	BaseURL  *string `toml:"base_url" yaml:"base_url"`
	APIKey   *string `toml:"api_key" yaml:"api_key"`
}

type resilienceSection struct {
	Timeout        *string `toml:"timeout" yaml:"timeout"`
	MaxRetries     *int    `toml:"max_retries" yaml:"max_retries"`
	InitialBackoff *string `toml:"initial_backoff" yaml:"initial_backoff"`
}

type schedulerSection struct {
	Enabled           *bool   `toml:"enabled" yaml:"enabled"`
	ReconcileInterval *string `toml:"reconcile_interval" yaml:"reconcile_interval"`
	HealthInterval    *string `toml:"health_interval" yaml:"health_interval"`
}

// Load builds validated settings from defaults, the config file and the
// environment.
func Load(opts Options) (domain.Settings, error) {
	settings := domain.DefaultSettings()

	path := opts.Path
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	cfg, err := readFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist) && !explicit:
	case err != nil:
		return domain.Settings{}, err
	default:
		if err := cfg.apply(&settings); err != nil {
			return domain.Settings{}, fmt.Errorf("%s: %w", path, err)
		}
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return domain.Settings{}, fmt.Errorf("loading %s: %w", envFile, err)
	}

	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if err := applyEnv(&settings, getenv); err != nil {
		return domain.Settings{}, err
	}

	if err := settings.Validate(); err != nil {
		return domain.Settings{}, err
	}
	return settings, nil
}

// readFile decodes path as YAML for .yaml/.yml and TOML otherwise.
func readFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = toml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *fileConfig) apply(s *domain.Settings) error {
	setString(&s.LogLevel, c.LogLevel)
	setString(&s.Server.Addr, c.Server.Addr)

	if c.Store.Backend != nil {
		s.Store.Backend = domain.StoreBackend(*c.Store.Backend)
	}
	setString(&s.Store.DataDir, c.Store.DataDir)
	setString(&s.Store.PostgresDSN, c.Store.PostgresDSN)

	if c.Vector.Backend != nil {
		s.Vector.Backend = domain.VectorBackend(*c.Vector.Backend)
	}
	setString(&s.Vector.QdrantURL, c.Vector.QdrantURL)
	setString(&s.Vector.QdrantAPIKey, c.Vector.QdrantAPIKey)
	setString(&s.Vector.Collection, c.Vector.Collection)

	if c.Cache.Backend != nil {
		s.Cache.Backend = domain.CacheBackend(*c.Cache.Backend)
	}
	setString(&s.Cache.RedisAddr, c.Cache.RedisAddr)
	setString(&s.Cache.RedisPassword, c.Cache.RedisPassword)
	if c.Cache.RedisDB != nil {
		s.Cache.RedisDB = *c.Cache.RedisDB
	}
	if err := setDuration(&s.Cache.TTL, c.Cache.TTL, "cache.ttl"); err != nil {
		return err
	}

	if c.Embedding.Provider != nil {
		s.Embedding.Provider = domain.EmbeddingProvider(*c.Embedding.Provider)
	}
	setString(&s.Embedding.Model, c.Embedding.Model)
	setString(&s.Embedding.BaseURL, c.Embedding.BaseURL)
	setString(&s.Embedding.APIKey, c.Embedding.APIKey)
	if c.Embedding.Dimensions != nil {
		s.Embedding.Dimensions = *c.Embedding.Dimensions
	}
	if c.Embedding.RatePerSecond != nil {
		s.Embedding.RatePerSecond = *c.Embedding.RatePerSecond
	}
	if c.Embedding.Burst != nil {
		s.Embedding.Burst = *c.Embedding.Burst
	}

	if c.Annotator.Provider != nil {
		s.Annotator.Provider = domain.AnnotatorProvider(*c.Annotator.Provider)
	}
	setString(&s.Annotator.Model, c.Annotator.Model)
	setString(&s.Annotator.BaseURL, c.Annotator.BaseURL)
	setString(&s.Annotator.APIKey, c.Annotator.APIKey)

	if err := setDuration(&s.Resilience.Timeout, c.Resilience.Timeout, "resilience.timeout"); err != nil {
		return err
	}
	if c.Resilience.MaxRetries != nil {
		s.Resilience.MaxRetries = *c.Resilience.MaxRetries
	}
	if err := setDuration(&s.Resilience.InitialBackoff, c.Resilience.InitialBackoff, "resilience.initial_backoff"); err != nil {
		return err
	}

	if c.Scheduler.Enabled != nil {
		s.Scheduler.Enabled = *c.Scheduler.Enabled
	}
	if err := setInterval(&s.Scheduler, domain.TaskIDReconcileIndex, c.Scheduler.ReconcileInterval, "scheduler.reconcile_interval"); err != nil {
		return err
	}
	if err := setInterval(&s.Scheduler, domain.TaskIDHealthProbe, c.Scheduler.HealthInterval, "scheduler.health_interval"); err != nil {
		return err
	}
	return nil
}

// applyEnv applies environment overrides. The unprefixed names are the
// ones the original docker-compose deployment used.
func applyEnv(s *domain.Settings, getenv func(string) string) error {
	if dsn := postgresDSN(getenv); dsn != "" {
		s.Store.PostgresDSN = dsn
	}
	if host := getenv("REDIS_HOST"); host != "" {
		s.Cache.RedisAddr = net.JoinHostPort(host, valueOr(getenv("REDIS_PORT"), "6379"))
	}
	if host := getenv("CHROMADB_HOST"); host != "" {
		s.Vector.QdrantURL = "http://" + net.JoinHostPort(host, valueOr(getenv("CHROMADB_PORT"), "6333"))
	}
	envString(&s.Embedding.Model, getenv("MODEL_NAME"))
	envString(&s.Embedding.APIKey, getenv("OPENAI_API_KEY"))

	envString(&s.Server.Addr, getenv("OMNIMIND_ADDR"))
	envString(&s.LogLevel, getenv("OMNIMIND_LOG_LEVEL"))
	envString(&s.Store.DataDir, getenv("OMNIMIND_DATA_DIR"))
	envString(&s.Store.PostgresDSN, getenv("OMNIMIND_POSTGRES_DSN"))
	envString(&s.Vector.QdrantURL, getenv("OMNIMIND_QDRANT_URL"))
	envString(&s.Vector.QdrantAPIKey, getenv("OMNIMIND_QDRANT_API_KEY"))
	envString(&s.Cache.RedisAddr, getenv("OMNIMIND_REDIS_ADDR"))
	envString(&s.Cache.RedisPassword, getenv("OMNIMIND_REDIS_PASSWORD"))
	envString(&s.Embedding.Model, getenv("OMNIMIND_EMBEDDING_MODEL"))
	envString(&s.Embedding.BaseURL, getenv("OMNIMIND_EMBEDDING_URL"))

	if v := getenv("OMNIMIND_STORE_BACKEND"); v != "" {
		s.Store.Backend = domain.StoreBackend(v)
	}
	if v := getenv("OMNIMIND_VECTOR_BACKEND"); v != "" {
		s.Vector.Backend = domain.VectorBackend(v)
	}
	if v := getenv("OMNIMIND_CACHE_BACKEND"); v != "" {
		s.Cache.Backend = domain.CacheBackend(v)
	}
	if v := getenv("OMNIMIND_EMBEDDING_PROVIDER"); v != "" {
		s.Embedding.Provider = domain.EmbeddingProvider(v)
	}
	if v := getenv("OMNIMIND_ANNOTATOR_PROVIDER"); v != "" {
		s.Annotator.Provider = domain.AnnotatorProvider(v)
	}
	envString(&s.Annotator.Model, getenv("OMNIMIND_ANNOTATOR_MODEL"))
	envString(&s.Annotator.BaseURL, getenv("OMNIMIND_ANNOTATOR_URL"))
	annotatorKey := getenv("OMNIMIND_ANNOTATOR_API_KEY")
	switch {
	case annotatorKey != "":
	case s.Annotator.Provider == domain.AnnotatorAnthropic:
		annotatorKey = getenv("ANTHROPIC_API_KEY")
	case s.Annotator.Provider == domain.AnnotatorOpenAI:
		annotatorKey = getenv("OPENAI_API_KEY")
	}
	envString(&s.Annotator.APIKey, annotatorKey)
	if v := getenv("OMNIMIND_EMBEDDING_DIMENSIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("OMNIMIND_EMBEDDING_DIMENSIONS: %w", err)
		}
		s.Embedding.Dimensions = n
	}
	return nil
}

// postgresDSN builds a URL from POSTGRES_* variables, or returns "" when
// POSTGRES_HOST is unset.
func postgresDSN(getenv func(string) string) string {
	host := getenv("POSTGRES_HOST")
	if host == "" {
		return ""
	}
	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(host, valueOr(getenv("POSTGRES_PORT"), "5432")),
		Path:     "/" + valueOr(getenv("POSTGRES_DB"), "omnimind"),
		RawQuery: "sslmode=disable",
	}
	user := valueOr(getenv("POSTGRES_USER"), "postgres")
	if pw := getenv("POSTGRES_PASSWORD"); pw != "" {
		u.User = url.UserPassword(user, pw)
	} else {
		u.User = url.User(user)
	}
	return u.String()
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *string, name string) error {
	if v == nil {
		return nil
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = d
	return nil
}

// setInterval overrides a task interval; intervals must be positive.
func setInterval(cfg *domain.SchedulerConfig, taskID string, v *string, name string) error {
	if v == nil {
		return nil
	}
	interval, err := time.ParseDuration(*v)
	if err != nil || interval <= 0 {
		return fmt.Errorf("%s: invalid duration %q", name, *v)
	}
	cfg.SetTaskInterval(taskID, interval)
	return nil
}

func envString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
