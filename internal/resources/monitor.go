package resources

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sync"
	"time"
)

// ResourceStats represents the system resource status
type ResourceStats struct {
	MemoryTotal     uint64    `json:"memory_total"`
	MemoryUsed      uint64    `json:"memory_used"`
	MemoryAvailable uint64    `json:"memory_available"`
	MemoryPercent   float64   `json:"memory_percent"`
	DiskTotal       uint64    `json:"disk_total"`
	DiskUsed        uint64    `json:"disk_used"`
	DiskAvailable   uint64    `json:"disk_available"`
	DiskPercent     float64   `json:"disk_percent"`
	CPUCores        int       `json:"cpu_cores"`
	GoroutineCount  int       `json:"goroutine_count"`
	Timestamp       time.Time `json:"timestamp"`

	// System hardware information
	SysInfo SystemInfo `json:"sys_info"`
}

// ResourceLimits defines resource limits
type ResourceLimits struct {
	MemoryLimit            uint64 `json:"memory_limit"`
	MemoryHardLimit        uint64 `json:"memory_hard_limit"`
	DiskLimit              uint64 `json:"disk_limit"`
	LowMemoryThreshold     uint64 `json:"low_memory_threshold"`
	AutoDisableOnLowMemory bool   `json:"auto_disable_on_low_memory"`
}

// Monitor is the resource monitoring system. The render loop consults it
// to decide whether the Pi can sustain the configured group set, and
// falls back to disabling the least essential groups under memory
// pressure rather than letting the process thrash or get OOM-killed.
type Monitor struct {
	limits       ResourceLimits
	currentStats ResourceStats
	mu           sync.RWMutex

	// Callbacks for automatic actions
	onLowMemory  func()
	onHighMemory func()
	onDiskFull   func()

	// disablePriority lists group names in the order they should be
	// disabled under memory pressure, least essential first.
	disablePriority []string

	// Active render groups
	enabledGroups map[string]bool
	groupsMu      sync.RWMutex
}

// NewMonitor creates a new monitor instance
func NewMonitor(limits ResourceLimits) *Monitor {
	return &Monitor{
		limits:        limits,
		enabledGroups: make(map[string]bool),
	}
}

// SetDisablePriority sets the order in which groups are auto-disabled
// under sustained low memory, least essential first.
func (m *Monitor) SetDisablePriority(groupNames []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disablePriority = append([]string(nil), groupNames...)
}

// Start starts periodic monitoring
func (m *Monitor) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Update()
			m.checkLimits()
		}
	}
}

// Update updates the current stats
func (m *Monitor) Update() {
	stats := m.getSystemStats()

	m.mu.Lock()
	m.currentStats = stats
	m.mu.Unlock()
}

// GetStats returns the current stats
func (m *Monitor) GetStats() ResourceStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentStats
}

// getSystemStats returns system stats
func (m *Monitor) getSystemStats() ResourceStats {
	// Get system hardware information (platform-specific)
	sysInfo := GetSystemInfo()

	stats := ResourceStats{
		Timestamp:      time.Now(),
		CPUCores:       runtime.NumCPU(),
		GoroutineCount: runtime.NumGoroutine(),
		SysInfo:        sysInfo,
	}

	// OS memory (actual)
	if sysInfo.OSMemTotal > 0 {
		stats.MemoryTotal = sysInfo.OSMemTotal
		stats.MemoryUsed = sysInfo.OSMemUsed
		stats.MemoryAvailable = sysInfo.OSMemAvailable
		stats.MemoryPercent = sysInfo.OSMemPercent
	} else {
		// Fallback to Go memory
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)
		stats.MemoryUsed = memStats.Alloc
		stats.MemoryTotal = memStats.Sys
		if stats.MemoryTotal > 0 {
			stats.MemoryPercent = float64(stats.MemoryUsed) / float64(stats.MemoryTotal) * 100
		}
	}

	// Actual disk usage
	diskStats := GetDiskUsage("/")
	if diskStats.Total > 0 {
		stats.DiskTotal = diskStats.Total
		stats.DiskUsed = diskStats.Used
		stats.DiskAvailable = diskStats.Available
		stats.DiskPercent = diskStats.Percent
	}

	return stats
}

// DiskStats holds disk usage statistics
type DiskStats struct {
	Total     uint64
	Used      uint64
	Available uint64
	Percent   float64
}

// checkLimits checks limits and takes automatic action
func (m *Monitor) checkLimits() {
	stats := m.GetStats()

	// Check for low memory
	if m.limits.AutoDisableOnLowMemory && stats.MemoryAvailable < m.limits.LowMemoryThreshold {
		log.Printf("[WARN] Low memory detected: %dMB available (threshold: %dMB)",
			stats.MemoryAvailable/1024/1024,
			m.limits.LowMemoryThreshold/1024/1024)

		if m.onLowMemory != nil {
			m.onLowMemory()
		} else {
			m.autoDisableLeastEssentialGroup()
		}
	}

	// Check for high memory (return to normal state)
	if stats.MemoryAvailable > m.limits.LowMemoryThreshold*2 {
		if m.onHighMemory != nil {
			m.onHighMemory()
		}
	}

	// Check for disk full
	if stats.DiskPercent > 95 {
		log.Printf("[WARN] Disk nearly full: %.1f%% used", stats.DiskPercent)
		if m.onDiskFull != nil {
			m.onDiskFull()
		}
	}

	// Check hard memory limit
	if m.limits.MemoryHardLimit > 0 && stats.MemoryUsed > m.limits.MemoryHardLimit {
		log.Printf("[CRITICAL] Hard memory limit exceeded: %dMB used (limit: %dMB)",
			stats.MemoryUsed/1024/1024,
			m.limits.MemoryHardLimit/1024/1024)

		// Force garbage collection
		runtime.GC()
	}
}

// autoDisableLeastEssentialGroup disables the next group in the
// configured disable priority, freeing the output buffers and pattern
// state that render loop's group pool holds for it.
func (m *Monitor) autoDisableLeastEssentialGroup() {
	stats := m.GetStats()
	availableMB := stats.MemoryAvailable / 1024 / 1024

	log.Printf("[ACTION] Auto-disabling least essential group (available: %dMB)", availableMB)

	m.mu.RLock()
	priority := append([]string(nil), m.disablePriority...)
	m.mu.RUnlock()

	for _, group := range priority {
		if m.IsGroupEnabled(group) {
			m.DisableGroup(group)
			log.Printf("[ACTION] Disabled group: %s", group)

			// Force GC after disabling
			runtime.GC()

			// Re-check
			newStats := m.getSystemStats()
			if newStats.MemoryAvailable >= m.limits.LowMemoryThreshold {
				log.Printf("[ACTION] Memory recovered: %dMB available", newStats.MemoryAvailable/1024/1024)
			}
			return
		}
	}
}

// CanEnableGroup checks whether a group with the given output buffer
// footprint can be brought up without exceeding configured limits.
func (m *Monitor) CanEnableGroup(groupName string, requiredMemory uint64) (bool, string) {
	stats := m.GetStats()

	// Check sufficient memory
	if stats.MemoryAvailable < requiredMemory {
		return false, fmt.Sprintf(
			"insufficient memory: need %dMB, have %dMB",
			requiredMemory/1024/1024,
			stats.MemoryAvailable/1024/1024,
		)
	}

	// Check overall limit
	if m.limits.MemoryLimit > 0 {
		projectedUsage := stats.MemoryUsed + requiredMemory
		if projectedUsage > m.limits.MemoryLimit {
			return false, fmt.Sprintf(
				"would exceed memory limit: projected %dMB, limit %dMB",
				projectedUsage/1024/1024,
				m.limits.MemoryLimit/1024/1024,
			)
		}
	}

	return true, ""
}

// EnableGroup enables a group
func (m *Monitor) EnableGroup(groupName string) {
	m.groupsMu.Lock()
	defer m.groupsMu.Unlock()
	m.enabledGroups[groupName] = true
	log.Printf("[RESOURCE] Group enabled: %s", groupName)
}

// DisableGroup disables a group
func (m *Monitor) DisableGroup(groupName string) {
	m.groupsMu.Lock()
	defer m.groupsMu.Unlock()
	m.enabledGroups[groupName] = false
	log.Printf("[RESOURCE] Group disabled: %s", groupName)
}

// IsGroupEnabled checks whether a group is enabled
func (m *Monitor) IsGroupEnabled(groupName string) bool {
	m.groupsMu.RLock()
	defer m.groupsMu.RUnlock()
	enabled, exists := m.enabledGroups[groupName]
	return exists && enabled
}

// GetEnabledGroups returns the list of enabled groups
func (m *Monitor) GetEnabledGroups() []string {
	m.groupsMu.RLock()
	defer m.groupsMu.RUnlock()

	groups := make([]string, 0, len(m.enabledGroups))
	for name, enabled := range m.enabledGroups {
		if enabled {
			groups = append(groups, name)
		}
	}
	return groups
}

// SetOnLowMemory sets the low memory callback
func (m *Monitor) SetOnLowMemory(callback func()) {
	m.onLowMemory = callback
}

// SetOnHighMemory sets the high memory callback
func (m *Monitor) SetOnHighMemory(callback func()) {
	m.onHighMemory = callback
}

// SetOnDiskFull sets the disk full callback
func (m *Monitor) SetOnDiskFull(callback func()) {
	m.onDiskFull = callback
}

// ForceGC runs forced garbage collection
func (m *Monitor) ForceGC() {
	before := m.GetStats()

	runtime.GC()

	time.Sleep(100 * time.Millisecond)
	after := m.getSystemStats()

	freed := int64(before.MemoryUsed) - int64(after.MemoryUsed)
	log.Printf("[GC] Garbage collection: freed %dMB", freed/1024/1024)
}

// GetMemoryProfile returns the memory profile
func (m *Monitor) GetMemoryProfile() map[string]interface{} {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return map[string]interface{}{
		"alloc_mb":        memStats.Alloc / 1024 / 1024,
		"total_alloc_mb":  memStats.TotalAlloc / 1024 / 1024,
		"sys_mb":          memStats.Sys / 1024 / 1024,
		"num_gc":          memStats.NumGC,
		"gc_cpu_fraction": memStats.GCCPUFraction,
		"heap_alloc_mb":   memStats.HeapAlloc / 1024 / 1024,
		"heap_sys_mb":     memStats.HeapSys / 1024 / 1024,
		"heap_objects":    memStats.HeapObjects,
		"goroutines":      runtime.NumGoroutine(),
	}
}

// GetResourceReport returns the full resource report
func (m *Monitor) GetResourceReport() map[string]interface{} {
	stats := m.GetStats()

	return map[string]interface{}{
		"timestamp": stats.Timestamp,
		"memory": map[string]interface{}{
			"total_mb":     stats.MemoryTotal / 1024 / 1024,
			"used_mb":      stats.MemoryUsed / 1024 / 1024,
			"available_mb": stats.MemoryAvailable / 1024 / 1024,
			"percent":      fmt.Sprintf("%.1f%%", stats.MemoryPercent),
		},
		"disk": map[string]interface{}{
			"total_mb":     stats.DiskTotal / 1024 / 1024,
			"used_mb":      stats.DiskUsed / 1024 / 1024,
			"available_mb": stats.DiskAvailable / 1024 / 1024,
			"percent":      fmt.Sprintf("%.1f%%", stats.DiskPercent),
		},
		"cpu": map[string]interface{}{
			"cores":      stats.CPUCores,
			"goroutines": stats.GoroutineCount,
		},
		"limits": map[string]interface{}{
			"memory_limit_mb":         m.limits.MemoryLimit / 1024 / 1024,
			"memory_hard_limit_mb":    m.limits.MemoryHardLimit / 1024 / 1024,
			"low_memory_threshold_mb": m.limits.LowMemoryThreshold / 1024 / 1024,
		},
		"groups": map[string]interface{}{
			"enabled": m.GetEnabledGroups(),
		},
	}
}
