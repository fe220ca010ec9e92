package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/omnimind/internal/core/domain"
)

func TestSchedulerStore_SaveAndGetTask(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	scheduler := store.SchedulerStore()

	now := time.Now().UTC().Truncate(time.Microsecond)
	task := &domain.ScheduledTask{
		ID:          domain.TaskIDReconcileIndex,
		Name:        "Index Reconciliation",
		Interval:    5 * time.Minute,
		LastRun:     now.Add(-5 * time.Minute),
		NextRun:     now,
		LastSuccess: now.Add(-5 * time.Minute),
		Enabled:     true,
	}
	require.NoError(t, scheduler.SaveTask(ctx, task))

	got, err := scheduler.GetTask(ctx, domain.TaskIDReconcileIndex)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, task.Name, got.Name)
	assert.Equal(t, task.Interval, got.Interval)
	assert.True(t, got.Enabled)
	assert.True(t, task.LastRun.Equal(got.LastRun))
	assert.True(t, task.NextRun.Equal(got.NextRun))
	assert.True(t, task.LastSuccess.Equal(got.LastSuccess))
	assert.Empty(t, got.LastError)
}

func TestSchedulerStore_GetTask_NotFound(t *testing.T) {
	store := setupTestStore(t)

	got, err := store.SchedulerStore().GetTask(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestSchedulerStore_SaveTask_Update(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	scheduler := store.SchedulerStore()

	task := &domain.ScheduledTask{ID: "t", Name: "Task", Interval: time.Minute, Enabled: true}
	require.NoError(t, scheduler.SaveTask(ctx, task))

	task.LastError = "index unavailable"
	task.Enabled = false
	task.Interval = time.Hour
	require.NoError(t, scheduler.SaveTask(ctx, task))

	got, err := scheduler.GetTask(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, "index unavailable", got.LastError)
	assert.False(t, got.Enabled)
	assert.Equal(t, time.Hour, got.Interval)
	assert.True(t, got.LastRun.IsZero())
}

func TestSchedulerStore_NilArguments(t *testing.T) {
	store := setupTestStore(t)
	scheduler := store.SchedulerStore()

	assert.ErrorIs(t, scheduler.SaveTask(context.Background(), nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, scheduler.RecordResult(context.Background(), nil), domain.ErrInvalidInput)
}

func TestSchedulerStore_ListAndDeleteTasks(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	scheduler := store.SchedulerStore()

	tasks, err := scheduler.ListTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	require.NoError(t, scheduler.SaveTask(ctx, &domain.ScheduledTask{ID: "b", Name: "B", Interval: time.Minute}))
	require.NoError(t, scheduler.SaveTask(ctx, &domain.ScheduledTask{ID: "a", Name: "A", Interval: time.Minute}))

	tasks, err = scheduler.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "a", tasks[0].ID)

	require.NoError(t, scheduler.DeleteTask(ctx, "a"))
	require.NoError(t, scheduler.DeleteTask(ctx, "missing"))

	tasks, err = scheduler.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "b", tasks[0].ID)
}

func TestSchedulerStore_History(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	scheduler := store.SchedulerStore()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		result := &domain.TaskResult{
			TaskID:         domain.TaskIDReconcileIndex,
			StartedAt:      base.Add(time.Duration(i) * time.Minute),
			EndedAt:        base.Add(time.Duration(i)*time.Minute + time.Second),
			Success:        i%2 == 0,
			ItemsProcessed: i,
		}
		if !result.Success {
			result.Error = "embedding failed"
		}
		require.NoError(t, scheduler.RecordResult(ctx, result))
	}
	require.NoError(t, scheduler.RecordResult(ctx, &domain.TaskResult{TaskID: "other", StartedAt: base, EndedAt: base, Success: true}))

	history, err := scheduler.GetTaskHistory(ctx, domain.TaskIDReconcileIndex, 3)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 4, history[0].ItemsProcessed)
	assert.True(t, history[0].Success)
	assert.Equal(t, "embedding failed", history[1].Error)
	assert.True(t, base.Add(4*time.Minute).Equal(history[0].StartedAt))

	require.NoError(t, scheduler.PruneHistory(ctx, 2))

	history, err = scheduler.GetTaskHistory(ctx, domain.TaskIDReconcileIndex, 10)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	other, err := scheduler.GetTaskHistory(ctx, "other", 10)
	require.NoError(t, err)
	assert.Len(t, other, 1)
}
