// Package cli provides the omnimind command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/omnimind/internal/adapters/driven/config/file"
	"github.com/custodia-labs/omnimind/internal/bootstrap"
	"github.com/custodia-labs/omnimind/internal/core/domain"
	"github.com/custodia-labs/omnimind/internal/core/ports/driving"
	"github.com/custodia-labs/omnimind/internal/logger"
)

// version is overridden at build time with -ldflags "-X".
var version = "dev"

// skipServices marks commands that run without opening any store.
const skipServices = "omnimind/skip-services"

var (
	configPath string
	envFile    string
	verbose    bool
)

// Services are the driving ports the commands talk to.
type Services struct {
	Documents driving.DocumentService
	Search    driving.SearchService
	Health    driving.HealthService
	Reconcile driving.Reconciler
	Scheduler driving.Scheduler
	Settings  domain.Settings
}

var (
	services *Services
	injected bool
	app      *bootstrap.App
)

var rootCmd = &cobra.Command{
	Use:   "omnimind",
	Short: "Store, tag and semantically search documents",
	Long: `OmniMind stores uploaded documents, tags them with keywords and a
summary, and indexes them for semantic search.

Documents live in SQLite or PostgreSQL, vectors in SQLite, Qdrant or
pgvector, and recent uploads are cached in Redis when configured.`,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  setupServices,
	PersistentPostRunE: teardownServices,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file (default ~/.omnimind/config.toml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load (default .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetVersion sets the version reported by the version command and the API.
func SetVersion(v string) {
	version = v
}

// SetServices injects services and disables config loading. Passing nil
// restores the default behaviour.
func SetServices(s *Services) {
	services = s
	injected = s != nil
}

// Execute runs the root command. Services opened for the command are
// closed even when it fails.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	return errors.Join(err, closeServices())
}

func loadOptions() file.Options {
	return file.Options{Path: configPath, EnvFile: envFile}
}

func setupServices(cmd *cobra.Command, _ []string) error {
	if verbose {
		logger.SetVerbose(true)
	}
	if cmd.Annotations[skipServices] == "true" || injected {
		return nil
	}

	settings, err := file.Load(loadOptions())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if !verbose {
		level, ok := logger.ParseLevel(settings.LogLevel)
		if !ok {
			logger.Warn("unknown log level %q, using info", settings.LogLevel)
		}
		logger.SetLevel(level)
	}

	app, err = bootstrap.New(cmd.Context(), settings, bootstrap.Options{})
	if err != nil {
		return fmt.Errorf("starting omnimind: %w", err)
	}
	services = &Services{
		Documents: app.Documents,
		Search:    app.Search,
		Health:    app.Health,
		Reconcile: app.Reconcile,
		Scheduler: app.Scheduler,
		Settings:  app.Settings,
	}
	return nil
}

func teardownServices(_ *cobra.Command, _ []string) error {
	return closeServices()
}

func closeServices() error {
	if app == nil {
		return nil
	}
	err := app.Close()
	app = nil
	if !injected {
		services = nil
	}
	return err
}

// errNotConfigured is returned when a command runs without services.
var errNotConfigured = errors.New("services not configured")

func requireServices() (*Services, error) {
	if services == nil {
		return nil, errNotConfigured
	}
	return services, nil
}
