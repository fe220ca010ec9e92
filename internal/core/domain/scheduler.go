package domain

import "time"

// Task IDs for built-in tasks.
const (
	// TaskIDReconcileIndex re-indexes documents left index-pending by a
	// degraded create.
	TaskIDReconcileIndex = "reconcile-index"

	// TaskIDHealthProbe checks every dependency and logs degradations.
	TaskIDHealthProbe = "health-probe"
)

// Default task intervals.
const (
	DefaultReconcileInterval   = 5 * time.Minute
	DefaultHealthProbeInterval = time.Minute
)

// ScheduledTask is the persisted state of a recurring background task.
type ScheduledTask struct {
	ID       string
	Name     string
	Interval time.Duration
	Enabled  bool

	// LastRun is when the most recent run started.
	LastRun time.Time

	// NextRun is when the task is next due. Zero means due now.
	NextRun time.Time

	// LastError is the error of the most recent run, or empty.
	LastError string

	// LastSuccess is when a run last completed without error.
	LastSuccess time.Time
}

// Due reports whether the task should run at now.
func (t *ScheduledTask) Due(now time.Time) bool {
	return t.Enabled && (t.NextRun.IsZero() || !t.NextRun.After(now))
}

// TaskResult records one execution of a task.
type TaskResult struct {
	TaskID    string
	StartedAt time.Time
	EndedAt   time.Time
	Success   bool
	Error     string

	// ItemsProcessed is what the task handled: documents repaired for
	// reconcile, dependencies probed for the health probe.
	ItemsProcessed int
}

// Duration returns how long the run took.
func (r TaskResult) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// TaskStatus is a task together with its most recent results.
type TaskStatus struct {
	Task   ScheduledTask
	Recent []TaskResult
}

// SchedulerConfig holds scheduler configuration.
type SchedulerConfig struct {
	// Enabled is the master switch for the scheduler.
	Enabled bool

	// TaskConfigs holds per-task configuration keyed by task ID.
	TaskConfigs map[string]TaskConfig
}

// TaskConfig holds configuration for a single task.
type TaskConfig struct {
	Enabled  bool
	Interval time.Duration
}

// GetTaskConfig returns the configuration for taskID, or a zero
// (disabled) TaskConfig when it is not configured.
func (c *SchedulerConfig) GetTaskConfig(taskID string) TaskConfig {
	if c.TaskConfigs == nil {
		return TaskConfig{}
	}
	return c.TaskConfigs[taskID]
}

// SetTaskInterval sets the interval of taskID, keeping its enabled flag.
func (c *SchedulerConfig) SetTaskInterval(taskID string, interval time.Duration) {
	if c.TaskConfigs == nil {
		c.TaskConfigs = make(map[string]TaskConfig)
	}
	cfg := c.TaskConfigs[taskID]
	cfg.Interval = interval
	c.TaskConfigs[taskID] = cfg
}

// DefaultSchedulerConfig enables reconciliation every five minutes and a
// health probe every minute.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled: true,
		TaskConfigs: map[string]TaskConfig{
			TaskIDReconcileIndex: {Enabled: true, Interval: DefaultReconcileInterval},
			TaskIDHealthProbe:    {Enabled: true, Interval: DefaultHealthProbeInterval},
		},
	}
}
