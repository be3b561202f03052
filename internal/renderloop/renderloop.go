package renderloop

import (
	"context"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/edgeflow/ledcore/internal/artnet"
	"github.com/edgeflow/ledcore/internal/colormath"
	"github.com/edgeflow/ledcore/internal/config"
	"github.com/edgeflow/ledcore/internal/group"
	"github.com/edgeflow/ledcore/internal/logger"
	"github.com/edgeflow/ledcore/internal/metrics"
	"github.com/edgeflow/ledcore/internal/pattern"
	"github.com/edgeflow/ledcore/internal/sink"
	"github.com/edgeflow/ledcore/internal/smoothing"
	"github.com/edgeflow/ledcore/internal/storage"
	"github.com/edgeflow/ledcore/internal/timesync"
)

// groupJob is one unit of fan-out work for the group worker pool.
type groupJob struct {
	g        group.Group
	animTime float64
	out      []colormath.RGB
	prev     []colormath.RGB
	done     chan struct{}
}

// Loop is the RenderLoop orchestrator of spec.md §4.9: it owns the
// authoritative frame buffers, the group worker pool, the ArtNet/
// SmoothingFilter overlay, the global pipeline stage, and the per-sink
// mailbox workers.
type Loop struct {
	registry *pattern.Registry
	store    storage.PatternStore
	metrics  *metrics.Metrics
	clock    *timesync.Clock
	log      *zap.Logger

	sinks     map[string]sink.Sink
	mailboxes map[string]*mailbox

	artnetRx *artnet.Receiver
	temporal *smoothing.Temporal
	spatial  *smoothing.Spatial

	jobs chan groupJob

	mu       sync.Mutex
	cfg      *config.Config
	snap     *snapshot
	pending  *config.Config
	frameCur []colormath.RGB
	framePre []colormath.RGB
}

// NewLoop constructs a Loop bound to the given sinks (keyed by the name
// groups reference via SinkBinding) and starts its group worker pool,
// sized to runtime.NumCPU() per spec.md §5/§9.
func NewLoop(cfg *config.Config, registry *pattern.Registry, store storage.PatternStore, m *metrics.Metrics, clock *timesync.Clock, sinks map[string]sink.Sink) *Loop {
	l := &Loop{
		registry:  registry,
		store:     store,
		metrics:   m,
		clock:     clock,
		log:       logger.Get(),
		sinks:     sinks,
		mailboxes: make(map[string]*mailbox, len(sinks)),
		jobs:      make(chan groupJob, runtime.NumCPU()),
	}

	for name := range sinks {
		l.mailboxes[name] = newMailbox()
	}

	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		go l.groupWorker()
	}

	if cfg.ArtNet.Enabled {
		l.artnetRx = artnet.NewReceiver(artnet.Config{
			Enabled:         true,
			Universe:        cfg.ArtNet.Universe,
			ChannelOffset:   cfg.ArtNet.ChannelOffset,
			LedsPerPixel:    maxInt(cfg.ArtNet.GroupSize, 1),
			LedCount:        cfg.LedCount,
			StalenessPeriod: 2 * time.Second,
			OnPacket:        m.RecordArtnetPacket,
			OnDrop:          m.RecordArtnetDrop,
		})
		tMode := smoothing.TemporalNone
		if cfg.ArtNet.FrameInterpolation {
			tMode = smoothing.TemporalAverage
		}
		sKernel := smoothing.SpatialNone
		if cfg.ArtNet.SpatialSmoothing {
			sKernel = smoothing.SpatialAverage
		}
		l.temporal = smoothing.NewTemporal(tMode, maxInt(cfg.ArtNet.FrameInterpSize, 1), cfg.LedCount)
		l.spatial = smoothing.NewSpatial(sKernel, maxInt(cfg.ArtNet.SpatialSize, 1), cfg.LedCount)
	}

	l.cfg = cfg
	l.snap = buildSnapshot(cfg, registry, store, l.onPatternError)
	l.frameCur = make([]colormath.RGB, cfg.LedCount)
	l.framePre = make([]colormath.RGB, cfg.LedCount)

	return l
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func (l *Loop) groupWorker() {
	for j := range l.jobs {
		j.g.Eval(j.animTime, j.out, j.prev)
		close(j.done)
	}
}

func (l *Loop) onPatternError(groupName, msg string) {
	l.metrics.RecordPatternError(groupName, msg)
	l.log.Warn("pattern compile failed", zap.String("group", groupName), zap.String("error", msg))
}

// ApplyConfig enqueues a new configuration to take effect at the start
// of the next tick (spec.md §4.9 step 2 / §5 "configuration applier").
// A pending configuration not yet consumed is replaced, not queued.
func (l *Loop) ApplyConfig(cfg *config.Config) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = cfg
}

// Run executes ticks at cfg.TargetFPS until stop fires, per the pacing
// rule of spec.md §4.9: sleep max(0, T-elapsed); on overrun, drop to the
// next slot rather than catching up.
func (l *Loop) Run(stop <-chan struct{}) error {
	period := time.Second
	if l.cfg.TargetFPS > 0 {
		period = time.Duration(float64(time.Second) / l.cfg.TargetFPS)
	}

	for {
		select {
		case <-stop:
			return nil
		default:
		}

		tickStart := time.Now()
		l.drainPendingConfig()

		animTime := l.clock.AnimTime()
		l.tick(animTime, tickStart.Add(time.Duration(float64(period)*0.8)))
		l.metrics.IncrementTicks()

		elapsed := time.Since(tickStart)
		sleep := period - elapsed
		if sleep <= 0 {
			l.metrics.IncrementOverruns()
			continue
		}
		select {
		case <-stop:
			return nil
		case <-time.After(sleep):
		}
	}
}

func (l *Loop) drainPendingConfig() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pending == nil {
		return
	}
	l.cfg = l.pending
	l.pending = nil
	l.snap = buildSnapshot(l.cfg, l.registry, l.store, l.onPatternError)
	if len(l.frameCur) != l.snap.ledCount {
		l.frameCur = make([]colormath.RGB, l.snap.ledCount)
		l.framePre = make([]colormath.RGB, l.snap.ledCount)
	}
}

// tick runs one full render cycle: group fan-out/join, ArtNet overlay,
// global pipeline, and sink dispatch (spec.md §4.9 steps 3-5).
func (l *Loop) tick(animTime float64, deadline time.Time) {
	l.mu.Lock()
	snap := l.snap
	l.mu.Unlock()

	if len(l.frameCur) != snap.ledCount {
		return
	}

	global := snap.global
	if global.Calibration {
		fillNeutralWhite(l.frameCur)
		// Full brightness, undesaturated, by spec.md §4.1: the operator
		// is tuning channel_correction_rgb, so that gain triple (and
		// gamma/RGBW conversion) still runs, but patterns and the
		// global brightness/saturation knobs are bypassed.
		global.Brightness = 1
		global.Saturation = 1
	} else {
		l.evalGroups(snap, animTime, deadline)

		if l.artnetRx != nil {
			l.overlayArtnet(snap)
		}
	}

	frameBytes := runPipeline(l.frameCur, global)
	bpp := snap.global.Order.BytesPerPixel()

	for name, indices := range snap.sinkIndices {
		mb, ok := l.mailboxes[name]
		if !ok {
			continue
		}
		mb.put(sliceForSink(frameBytes, indices, bpp))
	}

	l.frameCur, l.framePre = l.framePre, l.frameCur
}

// evalGroups fans each group's evaluation out to the worker pool and
// joins with a soft deadline (spec.md §5 "0.8*T"): groups that have not
// finished by the deadline are abandoned to black for this tick and
// flagged as a pattern-runtime error.
func (l *Loop) evalGroups(snap *snapshot, animTime float64, deadline time.Time) {
	ctx, cancel := context.WithDeadline(context.Background(), deadline)
	defer cancel()

	jobs := make([]groupJob, 0, len(snap.groups))
	for _, g := range snap.groups {
		start, end := clampRange(g.Config.RangeStart, g.Config.RangeEnd, len(l.frameCur))
		if start >= end {
			continue
		}
		// Eval requires len(out) == Config.Len(); reflect any clamping
		// in a private copy so an out-of-range config (caught earlier
		// as ConfigInvalid in a well-behaved caller) can never panic
		// the worker pool.
		clamped := g
		clamped.Config.RangeStart = start
		clamped.Config.RangeEnd = end

		out := l.frameCur[start:end]
		var prev []colormath.RGB
		if len(l.framePre) >= end {
			prev = l.framePre[start:end]
		}
		j := groupJob{g: clamped, animTime: animTime, out: out, prev: prev, done: make(chan struct{})}
		jobs = append(jobs, j)
		l.jobs <- j
	}

	for _, j := range jobs {
		select {
		case <-j.done:
			continue
		default:
		}
		select {
		case <-j.done:
		case <-ctx.Done():
			for i := range j.out {
				j.out[i] = colormath.RGB{}
			}
			l.metrics.RecordPatternError(j.g.Config.Name, "render deadline exceeded")
		}
	}
}

// fillNeutralWhite overwrites frame with full-intensity white, the flat
// reference field calibration_mode emits in place of pattern output
// (spec.md §4.1).
func fillNeutralWhite(frame []colormath.RGB) {
	for i := range frame {
		frame[i] = colormath.RGB{R: 1, G: 1, B: 1}
	}
}

func clampRange(start, end, n int) (int, int) {
	if start < 0 {
		start = 0
	}
	if end > n {
		end = n
	}
	if start > end {
		start = end
	}
	return start, end
}

// overlayArtnet replaces the computed frame with the most recent ArtNet/
// sACN frame (smoothed), per spec.md §4.6/§4.9: a stale publication
// (no packet within the staleness timeout) leaves patterns' own output
// in place rather than forcing black.
func (l *Loop) overlayArtnet(snap *snapshot) {
	published := l.artnetRx.Published()
	if published.Stale || len(published.Pixels) != snap.ledCount {
		return
	}

	smoothedTemporal := make([]colormath.RGBW, snap.ledCount)
	l.temporal.Apply(published.Pixels, smoothedTemporal)
	smoothedSpatial := make([]colormath.RGBW, snap.ledCount)
	l.spatial.Apply(smoothedTemporal, smoothedSpatial)

	for i, px := range smoothedSpatial {
		l.frameCur[i] = colormath.RGB{R: px.R, G: px.G, B: px.B}
	}
}

// StartSinkWorkers launches the per-sink mailbox workers; call once
// before Run.
func (l *Loop) StartSinkWorkers(stop <-chan struct{}) {
	for name, s := range l.sinks {
		mb := l.mailboxes[name]
		go sinkWorker(name, s, mb, l.metrics, l.log, stop)
	}
}

// StartArtnet launches the ArtNet/sACN receiver task if configured.
func (l *Loop) StartArtnet(stop <-chan struct{}) error {
	if l.artnetRx == nil {
		return nil
	}
	return l.artnetRx.Start(stop)
}
