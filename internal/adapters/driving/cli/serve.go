package cli

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/omnimind/internal/adapters/driven/config/file"
	"github.com/custodia-labs/omnimind/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/omnimind/internal/adapters/driving/mcp"
	"github.com/custodia-labs/omnimind/internal/core/domain"
	"github.com/custodia-labs/omnimind/internal/logger"
)

var (
	serveAddr string
	serveMCP  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Runs the HTTP API together with the background scheduler, which
re-indexes documents whose indexing failed.

The config file is watched while serving. Log level changes apply
immediately; other changes take effect after a restart.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "listen address (overrides server.addr)")
	serveCmd.Flags().BoolVar(&serveMCP, "mcp", false, "also serve the MCP streamable HTTP transport at /mcp")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}

	addr := svc.Settings.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	ports := &httpapi.Ports{
		Documents: svc.Documents,
		Search:    svc.Search,
		Health:    svc.Health,
	}
	if serveMCP {
		mcpServer, err := mcp.NewServer(&mcp.Ports{Search: svc.Search, Document: svc.Documents})
		if err != nil {
			return fmt.Errorf("creating MCP server: %w", err)
		}
		ports.MCP = mcpServer.Handler()
	}

	server, err := httpapi.NewServer(ports, version)
	if err != nil {
		return fmt.Errorf("creating HTTP server: %w", err)
	}

	logger.SetTimestamps(true)
	defer logger.SetTimestamps(false)

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		return server.Run(ctx, addr)
	})

	if svc.Settings.Scheduler.Enabled && svc.Scheduler != nil {
		g.Go(func() error {
			if err := svc.Scheduler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("scheduler: %w", err)
			}
			return nil
		})
		defer func() {
			if err := svc.Scheduler.Stop(); err != nil {
				logger.Warn("scheduler stop: %v", err)
			}
		}()
	}

	if !injected {
		watcher, err := file.NewWatcher(loadOptions(), file.DefaultDebounce, settingsChanged(svc.Settings))
		if err != nil {
			logger.Warn("config watcher disabled: %v", err)
		} else {
			g.Go(func() error {
				return watcher.Run(ctx)
			})
		}
	}

	return g.Wait()
}

// settingsChanged returns the watcher callback. The watcher applies the log
// level itself; anything else is reported as needing a restart.
func settingsChanged(current domain.Settings) func(domain.Settings) {
	return func(next domain.Settings) {
		a, b := current, next
		a.LogLevel, b.LogLevel = "", ""
		if !reflect.DeepEqual(a, b) {
			logger.Warn("config changed; restart omnimind to apply changes other than log_level")
		}
	}
}
