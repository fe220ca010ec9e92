package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/omnimind/internal/bootstrap"
	"github.com/custodia-labs/omnimind/internal/core/domain"
	"github.com/custodia-labs/omnimind/internal/logger"
)

// resetFlags restores flag variables; cobra keeps them between executions.
func resetFlags() {
	configPath, envFile, verbose = "", "", false
	documentJSON, documentContent = false, false
	documentMime, documentName = "", ""
	searchLimit, searchJSON = domain.DefaultSearchLimit, false
	statusJSON = false
	tasksJSON, tasksHistory = false, 3
	serveAddr, serveMCP = "", false
	logger.SetVerbose(false)
	clearContexts(rootCmd)
}

// clearContexts drops the context cobra kept on each command from the
// previous execution, so the next ExecuteContext propagates its own.
func clearContexts(cmd *cobra.Command) {
	cmd.SetContext(nil) //nolint:staticcheck // nil lets cobra inherit the root context
	for _, child := range cmd.Commands() {
		clearContexts(child)
	}
}

// execute runs the root command with args and returns its combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeContext(t, context.Background(), args...)
}

func executeContext(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := Execute(ctx)
	return buf.String(), err
}

// setupTestServices injects services backed by in-memory adapters.
func setupTestServices(t *testing.T) *bootstrap.App {
	t.Helper()
	s := domain.DefaultSettings()
	s.Store.Backend = domain.StoreMemory
	s.Vector.Backend = domain.VectorMemory
	s.Cache.Backend = domain.CacheNone
	s.Scheduler.Enabled = false

	a, err := bootstrap.New(context.Background(), s, bootstrap.Options{})
	require.NoError(t, err)

	SetServices(&Services{
		Documents: a.Documents,
		Search:    a.Search,
		Health:    a.Health,
		Reconcile: a.Reconcile,
		Scheduler: a.Scheduler,
		Settings:  a.Settings,
	})
	t.Cleanup(func() {
		SetServices(nil)
		_ = a.Close()
	})
	return a
}
