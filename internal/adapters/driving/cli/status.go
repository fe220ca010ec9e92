package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/omnimind/internal/core/domain"
)

var statusJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show document and tag counts",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check connectivity to every dependency",
	Long: `Probes the document store, vector index, cache and embedding provider.
Exits with an error when any dependency is unavailable.`,
	Args: cobra.NoArgs,
	RunE: runHealth,
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Index documents whose indexing failed",
	Long: `Re-embeds and re-indexes every document marked index-pending. The
scheduler runs the same task periodically while serve or tui is running.`,
	Args: cobra.NoArgs,
	RunE: runReconcile,
}

func init() {
	statsCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
	healthCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(reconcileCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}

	stats, err := svc.Documents.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}
	if statusJSON {
		return printJSON(cmd, stats)
	}

	cmd.Printf("Documents:     %d\n", stats.Documents)
	cmd.Printf("Tags:          %d\n", stats.Tags)
	cmd.Printf("Index pending: %d\n", stats.IndexPending)
	return nil
}

// errDegraded is returned by health when a dependency is down.
var errDegraded = errors.New("service degraded")

func runHealth(cmd *cobra.Command, _ []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}

	report := svc.Health.Check(cmd.Context())

	if statusJSON {
		deps := make(map[string]string, len(report.Dependencies))
		for _, d := range report.Dependencies {
			deps[d.Name] = d.Status()
		}
		if err := printJSON(cmd, map[string]any{
			"status":    report.State,
			"services":  deps,
			"timestamp": report.CheckedAt,
		}); err != nil {
			return err
		}
	} else {
		cmd.Printf("Status: %s\n\n", report.State)
		for _, d := range report.Dependencies {
			cmd.Printf("  %-14s %s (%s)\n", d.Name, d.Status(), d.Latency.Round(time.Microsecond))
		}
	}

	if report.State != domain.HealthHealthy {
		return errDegraded
	}
	return nil
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}
	if svc.Reconcile == nil {
		return fmt.Errorf("reconcile: %w", errNotConfigured)
	}

	report, err := svc.Reconcile.Reconcile(cmd.Context())
	if err != nil {
		return fmt.Errorf("reconcile failed: %w", err)
	}
	cmd.Printf("Scanned %d, repaired %d, still pending %d\n", report.Scanned, report.Repaired, report.Failed)
	return nil
}
