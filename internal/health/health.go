// Package health runs periodic liveness checks against the pieces the
// render loop depends on — the pattern store, the attached controller
// board, free disk/memory — and exposes a rolled-up status for
// internal/status's HTTP endpoint (spec.md §6).
package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/edgeflow/ledcore/internal/hal"
)

// Status is the result of one health check.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Check is one registered health check and its most recent result.
type Check struct {
	Name      string                                  `json:"name"`
	Status    Status                                  `json:"status"`
	Message   string                                  `json:"message"`
	LastCheck time.Time                                `json:"last_check"`
	CheckFunc func(context.Context) (Status, string) `json:"-"`
	Interval  time.Duration                           `json:"-"`
}

// HealthChecker owns a registry of named checks and their latest
// results, safe for concurrent use by the status endpoint and the
// periodic-check goroutines StartPeriodicChecks spawns.
type HealthChecker struct {
	checks map[string]*Check
	mu     sync.RWMutex
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		checks: make(map[string]*Check),
	}
}

// RegisterCheck adds name to the registry, unstarted (StatusHealthy,
// "Not checked yet") until RunChecks or StartPeriodicChecks invokes it.
func (h *HealthChecker) RegisterCheck(name string, checkFunc func(context.Context) (Status, string), interval time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.checks[name] = &Check{
		Name:      name,
		Status:    StatusHealthy,
		Message:   "Not checked yet",
		LastCheck: time.Time{},
		CheckFunc: checkFunc,
		Interval:  interval,
	}
}

// RunChecks runs every registered check synchronously and returns a
// snapshot of the results; it also updates the registry in place so a
// subsequent GetOverallStatus reflects this run.
func (h *HealthChecker) RunChecks(ctx context.Context) map[string]*Check {
	h.mu.Lock()
	defer h.mu.Unlock()

	results := make(map[string]*Check)

	for name, check := range h.checks {
		status, message := check.CheckFunc(ctx)

		check.Status = status
		check.Message = message
		check.LastCheck = time.Now()

		results[name] = &Check{
			Name:      check.Name,
			Status:    check.Status,
			Message:   check.Message,
			LastCheck: check.LastCheck,
		}
	}

	return results
}

// GetOverallStatus rolls up every check's last-known status: any
// unhealthy check wins over any degraded check, which wins over all
// checks being healthy (or there being none registered at all).
func (h *HealthChecker) GetOverallStatus() Status {
	h.mu.RLock()
	defer h.mu.RUnlock()

	hasUnhealthy := false
	hasDegraded := false

	for _, check := range h.checks {
		switch check.Status {
		case StatusUnhealthy:
			hasUnhealthy = true
		case StatusDegraded:
			hasDegraded = true
		}
	}

	if hasUnhealthy {
		return StatusUnhealthy
	}
	if hasDegraded {
		return StatusDegraded
	}
	return StatusHealthy
}

// GetCheckResults formats the registry for JSON serving: overall
// status, a flattened per-check list, and the time it was assembled.
func (h *HealthChecker) GetCheckResults() map[string]interface{} {
	h.mu.RLock()

	results := make(map[string]interface{})
	checks := make([]map[string]interface{}, 0, len(h.checks))

	for _, check := range h.checks {
		checks = append(checks, map[string]interface{}{
			"name":       check.Name,
			"status":     check.Status,
			"message":    check.Message,
			"last_check": check.LastCheck,
		})
	}
	h.mu.RUnlock()

	results["status"] = h.GetOverallStatus()
	results["checks"] = checks
	results["timestamp"] = time.Now()

	return results
}

// StartPeriodicChecks spawns one ticking goroutine per registered
// check, each firing at its own Interval until ctx is canceled.
func (h *HealthChecker) StartPeriodicChecks(ctx context.Context) {
	h.mu.RLock()
	checks := make([]*Check, 0, len(h.checks))
	for _, check := range h.checks {
		checks = append(checks, check)
	}
	h.mu.RUnlock()

	for _, check := range checks {
		check := check
		go func() {
			ticker := time.NewTicker(check.Interval)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					status, message := check.CheckFunc(ctx)

					h.mu.Lock()
					check.Status = status
					check.Message = message
					check.LastCheck = time.Now()
					h.mu.Unlock()
				}
			}
		}()
	}
}

// DatabaseHealthCheck probes the pattern/config store with a 5s
// timeout derived from the caller's context, so a hung store holds a
// check run for at most 5s; a shorter deadline already on ctx still
// applies.
func DatabaseHealthCheck(pingFunc func(context.Context) error) func(context.Context) (Status, string) {
	return func(ctx context.Context) (Status, string) {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := pingFunc(ctx); err != nil {
			return StatusUnhealthy, "Database connection failed: " + err.Error()
		}
		return StatusHealthy, "Database is healthy"
	}
}

// DiskSpaceHealthCheck flags the disk the pattern store and logs live
// on: unhealthy past 95% used, degraded past 85%.
func DiskSpaceHealthCheck(getUsageFunc func() (used, total uint64)) func(context.Context) (Status, string) {
	return func(ctx context.Context) (Status, string) {
		used, total := getUsageFunc()
		if total == 0 {
			return StatusUnhealthy, "Could not determine disk usage"
		}

		usagePercent := float64(used) / float64(total) * 100

		if usagePercent >= 95 {
			return StatusUnhealthy, fmt.Sprintf("Disk usage critical: %.1f%%", usagePercent)
		}
		if usagePercent >= 85 {
			return StatusDegraded, fmt.Sprintf("Disk usage high: %.1f%%", usagePercent)
		}
		return StatusHealthy, fmt.Sprintf("Disk usage normal: %.1f%%", usagePercent)
	}
}

// MemoryHealthCheck flags process/system memory pressure that could
// start stealing CPU time from the render loop's per-tick deadline.
func MemoryHealthCheck(getMemoryFunc func() (used, total uint64)) func(context.Context) (Status, string) {
	return func(ctx context.Context) (Status, string) {
		used, total := getMemoryFunc()
		if total == 0 {
			return StatusDegraded, "Could not determine memory usage"
		}

		usagePercent := float64(used) / float64(total) * 100

		if usagePercent >= 90 {
			return StatusDegraded, fmt.Sprintf("Memory usage high: %.1f%%", usagePercent)
		}
		return StatusHealthy, fmt.Sprintf("Memory usage normal: %.1f%%", usagePercent)
	}
}

// GoroutineHealthCheck flags a goroutine leak (e.g. a worker-pool job
// that never returns) before it exhausts the process.
func GoroutineHealthCheck(getCountFunc func() int, maxGoroutines int) func(context.Context) (Status, string) {
	return func(ctx context.Context) (Status, string) {
		count := getCountFunc()

		if count >= maxGoroutines {
			return StatusDegraded, fmt.Sprintf("High number of goroutines: %d", count)
		}
		return StatusHealthy, fmt.Sprintf("Goroutine count normal: %d", count)
	}
}

// HardwareHealthCheck flags the controller board HAL being
// unreachable — the SPI/GPIO handle every LocalDriver sink and the
// calibration button depend on. getHAL is normally hal.GetGlobalHAL.
func HardwareHealthCheck(getHAL func() (hal.HAL, error)) func(context.Context) (Status, string) {
	return func(ctx context.Context) (Status, string) {
		h, err := getHAL()
		if err != nil {
			return StatusUnhealthy, "HAL unavailable: " + err.Error()
		}
		return StatusHealthy, "HAL initialized: " + h.Info().Name
	}
}
