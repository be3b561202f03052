// Package maintenance runs low-rate, I/O-bound upkeep tasks outside the
// render thread's hot path, per SPEC_FULL.md §5: "no component holds a
// lock across I/O." It is a generalization of the teacher's
// engine.Scheduler (internal/engine/scheduler.go) from flow-triggering
// to arbitrary named periodic tasks, backed by the same
// github.com/robfig/cron/v3 engine.
package maintenance

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Runner drives a set of named periodic tasks on a shared cron engine.
type Runner struct {
	cron *cron.Cron
	log  *zap.Logger

	mu    sync.Mutex
	tasks map[string]cron.EntryID
}

// NewRunner constructs a Runner. Call Start to begin executing scheduled
// tasks; it is safe to call AddTask before or after Start.
func NewRunner(log *zap.Logger) *Runner {
	return &Runner{
		cron:  cron.New(),
		log:   log,
		tasks: make(map[string]cron.EntryID),
	}
}

// AddTask schedules fn to run every interval under name. Errors returned
// by fn are logged, never propagated: a failed flush or publish must not
// stop the scheduler from retrying on the next tick.
func (r *Runner) AddTask(name string, interval time.Duration, fn func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tasks[name]; exists {
		return fmt.Errorf("maintenance: task %q already scheduled", name)
	}

	spec := fmt.Sprintf("@every %s", interval)
	entryID, err := r.cron.AddFunc(spec, func() {
		if err := fn(); err != nil {
			r.log.Warn("maintenance task failed", zap.String("task", name), zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("maintenance: schedule %q: %w", name, err)
	}

	r.tasks[name] = entryID
	return nil
}

// RemoveTask cancels a previously scheduled task.
func (r *Runner) RemoveTask(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entryID, exists := r.tasks[name]
	if !exists {
		return fmt.Errorf("maintenance: no task %q scheduled", name)
	}
	r.cron.Remove(entryID)
	delete(r.tasks, name)
	return nil
}

// Start begins executing scheduled tasks on their own goroutine.
func (r *Runner) Start() {
	r.cron.Start()
}

// Stop cancels the scheduler and blocks until any in-flight task
// invocation returns.
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}
