package driven

import (
	"context"

	"github.com/custodia-labs/omnimind/internal/core/domain"
)

// SchedulerStore keeps background task state and run history across
// restarts. SQLite persists it; the memory store serves postgres and tests.
type SchedulerStore interface {
	// GetTask returns the task, or nil and no error when it was never saved.
	GetTask(ctx context.Context, taskID string) (*domain.ScheduledTask, error)

	ListTasks(ctx context.Context) ([]domain.ScheduledTask, error)

	// SaveTask upserts by task ID.
	SaveTask(ctx context.Context, task *domain.ScheduledTask) error

	// DeleteTask is a no-op for unknown IDs.
	DeleteTask(ctx context.Context, taskID string) error

	RecordResult(ctx context.Context, result *domain.TaskResult) error

	// GetTaskHistory returns up to limit results, newest first.
	GetTaskHistory(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error)

	// PruneHistory keeps the newest keep results of each task.
	PruneHistory(ctx context.Context, keep int) error
}
