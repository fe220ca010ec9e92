package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/omnimind/internal/core/domain"
	"github.com/custodia-labs/omnimind/internal/core/ports/driven"
	"github.com/custodia-labs/omnimind/internal/core/ports/driving"
	"github.com/custodia-labs/omnimind/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// historyRetention is the number of results kept per task.
const historyRetention = 100

// defaultTick is how often the scheduler looks for due tasks.
const defaultTick = time.Minute

// Task is a unit of background work. Run reports how many items it handled.
type Task struct {
	ID   string
	Name string
	Run  func(ctx context.Context) (int, error)
}

// ReconcileTask repairs index-pending documents.
func ReconcileTask(r driving.Reconciler) Task {
	return Task{
		ID:   domain.TaskIDReconcileIndex,
		Name: "Index reconciliation",
		Run: func(ctx context.Context) (int, error) {
			report, err := r.Reconcile(ctx)
			if err == nil && report.Failed > 0 {
				logger.Warn("reconcile: %d of %d pending documents still unindexed", report.Failed, report.Scanned)
			}
			return report.Repaired, err
		},
	}
}

// HealthProbeTask checks every dependency. A degraded report fails the run
// so the outage shows up in the task history.
func HealthProbeTask(h driving.HealthService) Task {
	return Task{
		ID:   domain.TaskIDHealthProbe,
		Name: "Health probe",
		Run: func(ctx context.Context) (int, error) {
			report := h.Check(ctx)
			if report.State == domain.HealthHealthy {
				return len(report.Dependencies), nil
			}
			var down []string
			for _, d := range report.Dependencies {
				if !d.Healthy {
					down = append(down, d.Name+" ("+d.Status()+")")
				}
			}
			logger.Warn("health: degraded: %s", strings.Join(down, ", "))
			return len(report.Dependencies), fmt.Errorf("degraded: %s", strings.Join(down, ", "))
		},
	}
}

// Scheduler runs registered tasks on their configured intervals. Task
// state and results are persisted so intervals survive restarts.
type Scheduler struct {
	config domain.SchedulerConfig
	store  driven.SchedulerStore
	tasks  map[string]Task
	tick   time.Duration

	mu       sync.Mutex
	running  bool
	inFlight map[string]bool
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewScheduler creates a scheduler for tasks.
func NewScheduler(config domain.SchedulerConfig, store driven.SchedulerStore, tasks ...Task) *Scheduler {
	registry := make(map[string]Task, len(tasks))
	for _, t := range tasks {
		registry[t.ID] = t
	}
	return &Scheduler{
		config:   config,
		store:    store,
		tasks:    registry,
		tick:     defaultTick,
		inFlight: make(map[string]bool),
	}
}

// Start runs the scheduler loop. It blocks until Stop is called or ctx is
// cancelled, returning ctx.Err() in the latter case.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	if err := s.syncTasks(ctx); err != nil {
		logger.Error("scheduler: failed to initialise tasks: %v", err)
	}

	return s.run(ctx, stopCh)
}

// Stop ends the loop and waits for running tasks.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// Status lists persisted tasks with their recent results, newest first.
func (s *Scheduler) Status(ctx context.Context, limit int) ([]domain.TaskStatus, error) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	out := make([]domain.TaskStatus, 0, len(tasks))
	for _, task := range tasks {
		status := domain.TaskStatus{Task: task}
		if limit > 0 {
			status.Recent, err = s.store.GetTaskHistory(ctx, task.ID, limit)
			if err != nil {
				return nil, fmt.Errorf("history for %s: %w", task.ID, err)
			}
		}
		out = append(out, status)
	}
	return out, nil
}

// syncTasks saves every registered task with its configured interval and
// enabled flag, and drops stored tasks nothing registers any more.
// Unconfigured tasks are stored disabled so Status still shows them.
func (s *Scheduler) syncTasks(ctx context.Context) error {
	var errs []error
	for id, t := range s.tasks {
		if err := s.ensureTask(ctx, id, t.Name, s.config.GetTaskConfig(id)); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
		}
	}

	stored, err := s.store.ListTasks(ctx)
	if err != nil {
		return errors.Join(append(errs, fmt.Errorf("list tasks: %w", err))...)
	}
	for _, task := range stored {
		if _, ok := s.tasks[task.ID]; ok {
			continue
		}
		logger.Info("scheduler: removing retired task %s", task.ID)
		if err := s.store.DeleteTask(ctx, task.ID); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", task.ID, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Scheduler) ensureTask(ctx context.Context, id, name string, cfg domain.TaskConfig) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	if task == nil {
		// A fresh task is due immediately so pending work from a previous
		// process is repaired at startup.
		task = &domain.ScheduledTask{ID: id, Name: name}
	} else if task.Interval != cfg.Interval {
		task.NextRun = time.Now().Add(cfg.Interval)
	}
	task.Interval = cfg.Interval
	task.Enabled = cfg.Enabled && cfg.Interval > 0

	return s.store.SaveTask(ctx, task)
}

func (s *Scheduler) run(ctx context.Context, stopCh <-chan struct{}) error {
	s.runDueTasks(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			s.runDueTasks(ctx)
		}
	}
}

func (s *Scheduler) runDueTasks(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		logger.Error("scheduler: failed to list tasks: %v", err)
		return
	}

	now := time.Now()
	for i := range tasks {
		if tasks[i].Due(now) {
			s.runTask(ctx, tasks[i])
		}
	}
}

// runTask executes task in the background. A task still running from a
// previous tick is not started again, and nothing starts once Stop began.
func (s *Scheduler) runTask(ctx context.Context, task domain.ScheduledTask) {
	def, ok := s.tasks[task.ID]
	if !ok {
		logger.Warn("scheduler: unknown task ID: %s", task.ID)
		return
	}

	// Add under the lock so Stop's Wait never races a new run.
	s.mu.Lock()
	if !s.running || s.inFlight[task.ID] {
		s.mu.Unlock()
		return
	}
	s.inFlight[task.ID] = true
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.inFlight, task.ID)
			s.mu.Unlock()
		}()

		result := &domain.TaskResult{TaskID: task.ID, StartedAt: time.Now()}
		items, err := def.Run(ctx)
		result.EndedAt = time.Now()
		result.ItemsProcessed = items

		if err != nil {
			result.Error = err.Error()
			task.LastError = err.Error()
		} else {
			result.Success = true
			task.LastError = ""
			task.LastSuccess = result.EndedAt
		}
		task.LastRun = result.StartedAt
		task.NextRun = result.EndedAt.Add(task.Interval)
		logger.Debug("scheduler: %s finished in %s (items=%d, err=%v)", task.ID, result.Duration(), items, err)

		if err := s.store.SaveTask(ctx, &task); err != nil {
			logger.Error("scheduler: failed to save task %s: %v", task.ID, err)
		}
		if err := s.store.RecordResult(ctx, result); err != nil {
			logger.Error("scheduler: failed to record result for %s: %v", task.ID, err)
		}
		if err := s.store.PruneHistory(ctx, historyRetention); err != nil {
			logger.Error("scheduler: failed to prune history: %v", err)
		}
	}()
}
