package metrics

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Metrics is the observability surface spec.md §6 requires as a
// minimum: tick/overrun/artnet counters, per-group last error, per-sink
// drop counters, and the last TimeSync timestamp, plus the process-level
// system stats the teacher's status endpoint has always exposed.
type Metrics struct {
	mu sync.RWMutex

	TicksTotal         int64
	OverrunsTotal      int64
	ArtnetPacketsTotal int64
	ArtnetDropsTotal   int64

	patternErrors map[string]int64
	lastGroupErr  map[string]string
	sinkDrops     map[string]int64

	lastSyncTimestamp time.Time

	Uptime         int64   `json:"uptime_seconds"`
	CPUUsage       float64 `json:"cpu_usage_percent"`
	MemoryUsed     uint64  `json:"memory_used_bytes"`
	MemoryTotal    uint64  `json:"memory_total_bytes"`
	GoroutineCount int     `json:"goroutine_count"`

	startTime time.Time
}

// NewMetrics constructs an empty Metrics with its uptime clock started.
func NewMetrics() *Metrics {
	return &Metrics{
		startTime:     time.Now(),
		patternErrors: make(map[string]int64),
		lastGroupErr:  make(map[string]string),
		sinkDrops:     make(map[string]int64),
	}
}

// IncrementTicks records one completed render tick.
func (m *Metrics) IncrementTicks() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TicksTotal++
}

// IncrementOverruns records one tick that ran long and dropped to the
// next aligned slot (spec.md §4.9 Pacing).
func (m *Metrics) IncrementOverruns() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OverrunsTotal++
}

// RecordArtnetPacket records one accepted ArtNet/sACN packet.
func (m *Metrics) RecordArtnetPacket() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArtnetPacketsTotal++
}

// RecordArtnetDrop records one malformed or off-universe packet
// (spec.md §7 ReceiverProtocol).
func (m *Metrics) RecordArtnetDrop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArtnetDropsTotal++
}

// RecordPatternError increments pattern_errors_total{group} and sets the
// group's last error string (spec.md §7 PatternCompile/PatternRuntime).
func (m *Metrics) RecordPatternError(group, errMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patternErrors[group]++
	m.lastGroupErr[group] = errMsg
}

// RecordSinkDrop increments sink_drops_total{sink} (spec.md §7
// SinkTransient/SinkFatal).
func (m *Metrics) RecordSinkDrop(sinkName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sinkDrops[sinkName]++
}

// RecordSync updates the last-sync timestamp observed from TimeSync.
func (m *Metrics) RecordSync(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastSyncTimestamp = t
}

// UpdateSystemMetrics refreshes the process-level gauges.
func (m *Metrics) UpdateSystemMetrics() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Uptime = int64(time.Since(m.startTime).Seconds())

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	m.MemoryUsed = memStats.Alloc
	m.MemoryTotal = memStats.Sys
	m.GoroutineCount = runtime.NumGoroutine()
}

// Snapshot returns a JSON-friendly map of every counter, suitable for
// the status endpoint.
func (m *Metrics) Snapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	patternErrors := make(map[string]int64, len(m.patternErrors))
	for k, v := range m.patternErrors {
		patternErrors[k] = v
	}
	lastGroupErr := make(map[string]string, len(m.lastGroupErr))
	for k, v := range m.lastGroupErr {
		lastGroupErr[k] = v
	}
	sinkDrops := make(map[string]int64, len(m.sinkDrops))
	for k, v := range m.sinkDrops {
		sinkDrops[k] = v
	}

	return map[string]interface{}{
		"ticks_total":          m.TicksTotal,
		"overruns_total":       m.OverrunsTotal,
		"artnet_packets_total": m.ArtnetPacketsTotal,
		"artnet_drops_total":   m.ArtnetDropsTotal,
		"pattern_errors_total": patternErrors,
		"last_group_error":     lastGroupErr,
		"sink_drops_total":     sinkDrops,
		"last_sync_timestamp":  m.lastSyncTimestamp,
		"system": map[string]interface{}{
			"uptime_seconds":     m.Uptime,
			"memory_used_bytes":  m.MemoryUsed,
			"memory_total_bytes": m.MemoryTotal,
			"goroutines":         m.GoroutineCount,
		},
	}
}

// PrometheusFormat renders every counter in Prometheus text exposition
// format.
func (m *Metrics) PrometheusFormat() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := `# HELP ledcore_ticks_total Total render ticks completed
# TYPE ledcore_ticks_total counter
ledcore_ticks_total ` + formatInt64(m.TicksTotal) + `

# HELP ledcore_overruns_total Ticks that exceeded the target period
# TYPE ledcore_overruns_total counter
ledcore_overruns_total ` + formatInt64(m.OverrunsTotal) + `

# HELP ledcore_artnet_packets_total Accepted ArtNet/sACN packets
# TYPE ledcore_artnet_packets_total counter
ledcore_artnet_packets_total ` + formatInt64(m.ArtnetPacketsTotal) + `

# HELP ledcore_artnet_drops_total Malformed or off-universe packets dropped
# TYPE ledcore_artnet_drops_total counter
ledcore_artnet_drops_total ` + formatInt64(m.ArtnetDropsTotal) + `

# HELP ledcore_uptime_seconds Process uptime in seconds
# TYPE ledcore_uptime_seconds gauge
ledcore_uptime_seconds ` + formatInt64(m.Uptime) + `

# HELP ledcore_memory_used_bytes Memory used in bytes
# TYPE ledcore_memory_used_bytes gauge
ledcore_memory_used_bytes ` + formatUint64(m.MemoryUsed) + `

# HELP ledcore_goroutines Number of goroutines
# TYPE ledcore_goroutines gauge
ledcore_goroutines ` + formatInt(m.GoroutineCount) + `
`
	for group, count := range m.patternErrors {
		out += fmt.Sprintf("ledcore_pattern_errors_total{group=%q} %s\n", group, formatInt64(count))
	}
	for sinkName, count := range m.sinkDrops {
		out += fmt.Sprintf("ledcore_sink_drops_total{sink=%q} %s\n", sinkName, formatInt64(count))
	}
	return out
}

// MetricsMiddleware wraps fiber routes, matching the teacher's
// status-server instrumentation pattern; it passes each request through
// and records no request count in m.
func MetricsMiddleware(m *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		_ = time.Since(start)
		return err
	}
}

func formatInt64(n int64) string  { return fmt.Sprintf("%d", n) }
func formatUint64(n uint64) string { return fmt.Sprintf("%d", n) }
func formatInt(n int) string       { return fmt.Sprintf("%d", n) }
