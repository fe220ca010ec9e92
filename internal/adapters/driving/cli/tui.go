package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/omnimind/internal/adapters/driving/tui"
	"github.com/custodia-labs/omnimind/internal/logger"
)

// errNotTerminal is returned when tui runs without a terminal on stdout.
var errNotTerminal = errors.New("tui requires an interactive terminal")

// isTerminal is replaced in tests.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stdin.Fd()))
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface.

Controls:
  tab      - Switch between search and documents
  ↑/k, ↓/j - Navigate
  enter    - Search / Open
  /        - New search
  d, y     - Delete document
  esc      - Back
  ?        - Toggle help
  q        - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	if !isTerminal() {
		return errNotTerminal
	}
	svc, err := requireServices()
	if err != nil {
		return err
	}

	app, err := tui.NewApp(&tui.Ports{
		Search:   svc.Search,
		Document: svc.Documents,
		Health:   svc.Health,
	})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	// Log lines would corrupt the alternate screen.
	logger.SetOutput(io.Discard)
	defer logger.SetOutput(os.Stderr)

	if svc.Settings.Scheduler.Enabled && svc.Scheduler != nil {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		go func() {
			if err := svc.Scheduler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				fmt.Fprintf(os.Stderr, "scheduler stopped: %v\n", err)
			}
		}()
		defer func() {
			if err := svc.Scheduler.Stop(); err != nil {
				fmt.Fprintf(os.Stderr, "scheduler stop error: %v\n", err)
			}
		}()
	}

	if err := app.WithContext(cmd.Context()).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
