package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/omnimind/internal/core/domain"
)

var (
	tasksJSON    bool
	tasksHistory int
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Show background task state and recent runs",
	Long: `Lists the scheduler's tasks (index reconciliation and the health probe)
with their interval, last outcome and next due time. Tasks appear after
serve or tui has run the scheduler at least once against this store.`,
	Args: cobra.NoArgs,
	RunE: runTasks,
}

func init() {
	tasksCmd.Flags().BoolVar(&tasksJSON, "json", false, "output as JSON")
	tasksCmd.Flags().IntVar(&tasksHistory, "history", 3, "number of recent runs to show per task")
	rootCmd.AddCommand(tasksCmd)
}

func runTasks(cmd *cobra.Command, _ []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}
	if svc.Scheduler == nil {
		return fmt.Errorf("tasks: %w", errNotConfigured)
	}

	statuses, err := svc.Scheduler.Status(cmd.Context(), tasksHistory)
	if err != nil {
		return fmt.Errorf("failed to read tasks: %w", err)
	}
	if tasksJSON {
		if statuses == nil {
			statuses = []domain.TaskStatus{}
		}
		return printJSON(cmd, statuses)
	}

	if len(statuses) == 0 {
		cmd.Println("No scheduled tasks recorded.")
		return nil
	}
	for i, st := range statuses {
		if i > 0 {
			cmd.Println()
		}
		printTask(cmd, st)
	}
	return nil
}

func printTask(cmd *cobra.Command, st domain.TaskStatus) {
	task := st.Task
	state := "enabled"
	if !task.Enabled {
		state = "disabled"
	}
	cmd.Printf("%s (%s), every %s, %s\n", task.ID, task.Name, task.Interval, state)

	if task.LastRun.IsZero() {
		cmd.Println("  Last run: never")
	} else {
		cmd.Printf("  Last run: %s\n", task.LastRun.Local().Format(time.DateTime))
	}
	if task.LastError != "" {
		cmd.Printf("  Error:    %s\n", task.LastError)
	}
	if task.Enabled {
		cmd.Printf("  Next run: %s\n", nextRun(task))
	}
	for _, r := range st.Recent {
		outcome := "ok"
		if !r.Success {
			outcome = "failed"
		}
		cmd.Printf("    %s  %-6s %d items in %s\n",
			r.StartedAt.Local().Format(time.DateTime), outcome, r.ItemsProcessed, r.Duration().Round(time.Millisecond))
	}
}

func nextRun(task domain.ScheduledTask) string {
	if task.Due(time.Now()) {
		return "due"
	}
	return task.NextRun.Local().Format(time.DateTime)
}
