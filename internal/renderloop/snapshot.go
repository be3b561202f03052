package renderloop

import (
	"sort"

	"github.com/edgeflow/ledcore/internal/colormath"
	"github.com/edgeflow/ledcore/internal/config"
	"github.com/edgeflow/ledcore/internal/group"
	"github.com/edgeflow/ledcore/internal/palette"
	"github.com/edgeflow/ledcore/internal/pattern"
	"github.com/edgeflow/ledcore/internal/sink"
	"github.com/edgeflow/ledcore/internal/storage"
)

// blackPattern is the fallback for a group whose pattern has never
// compiled successfully, in this process or in PatternStore (spec.md
// §7.2 PatternCompile: "falls back ... or black if none").
func blackPattern(pattern.Input) pattern.Output {
	return pattern.Output{Color: colormath.RGB{}}
}

var defaultPalette = palette.NewImmutable(colormath.HSV{H: 0, S: 0, V: 1})

// snapshot is the copy-on-write configuration view a tick evaluates
// against (spec.md §4.9 step 2 / §5 "configuration is copy-on-write;
// readers see immutable snapshots").
type snapshot struct {
	ledCount int
	order    sink.ChannelOrder
	global   GlobalSettings

	groups []group.Group

	// sinkIndices maps a sink name to the ascending LED indices bound to
	// it, precomputed once per snapshot so the pipeline stage does not
	// rescan group bindings every tick.
	sinkIndices map[string][]int
}

// buildSnapshot compiles cfg's groups, palettes, and patterns into an
// immutable snapshot. Pattern compile failures fall back to the last
// persisted good source in store, then to black, and a group whose
// pattern ID is unknown renders black; each failure is reported through
// onPatternError.
func buildSnapshot(cfg *config.Config, registry *pattern.Registry, store storage.PatternStore, onPatternError func(groupName, msg string)) *snapshot {
	loadPatterns(cfg, registry, store, onPatternError)
	palettes := buildPalettes(cfg)

	names := make([]string, 0, len(cfg.Groups))
	for name := range cfg.Groups {
		names = append(names, name)
	}
	sort.Strings(names)

	groups := make([]group.Group, 0, len(names))
	sinkIndices := make(map[string][]int)

	for _, name := range names {
		gc := cfg.Groups[name]
		conf := group.Config{
			Name:        name,
			RangeStart:  gc.RangeStart,
			RangeEnd:    gc.RangeEnd,
			LedCount:    cfg.LedCount,
			Brightness:  gc.Brightness,
			Saturation:  gc.Saturation,
			Speed:       gc.Speed,
			Scale:       gc.Scale,
			PatternID:   gc.PatternID,
			PaletteID:   gc.PaletteID,
			SinkBinding: gc.SinkBinding,
		}

		fn, ok := registry.Lookup(gc.PatternID)
		if !ok {
			fn = blackPattern
			if onPatternError != nil {
				onPatternError(name, "unknown pattern: "+gc.PatternID)
			}
		}

		pal, ok := palettes[gc.PaletteID]
		if !ok {
			pal = defaultPalette
		}

		groups = append(groups, group.Group{Config: conf, Pattern: fn, Palette: pal})

		if gc.SinkBinding == "" {
			continue
		}
		for i := gc.RangeStart; i < gc.RangeEnd; i++ {
			sinkIndices[gc.SinkBinding] = append(sinkIndices[gc.SinkBinding], i)
		}
	}
	for _, idx := range sinkIndices {
		sort.Ints(idx)
	}

	order := sink.ChannelOrder(cfg.LedPixelOrder)
	switch order {
	case sink.OrderRGB, sink.OrderGRB, sink.OrderRGBW, sink.OrderGRBW:
	default:
		order = sink.OrderGRB
	}

	return &snapshot{
		ledCount: cfg.LedCount,
		order:    order,
		global: GlobalSettings{
			Brightness:      cfg.GlobalBrightness,
			Saturation:      cfg.GlobalSaturation,
			ColorTempK:      cfg.GlobalColorTemp,
			GainR:           float64(cfg.GlobalColorR) / 255,
			GainG:           float64(cfg.GlobalColorG) / 255,
			GainB:           float64(cfg.GlobalColorB) / 255,
			UseWhiteChannel: cfg.UseWhiteChannel,
			RGBWAlgorithm:   colormath.RGBWAlgorithm(cfg.RGBWAlgorithm),
			WhiteLEDTempK:   cfg.WhiteLEDTemp,
			Gamma:           cfg.Gamma,
			Order:           order,
			Calibration:     cfg.Calibration,
		},
		groups:      groups,
		sinkIndices: sinkIndices,
	}
}

// loadPatterns installs every configured pattern source into registry.
// A failed compile is reported and, if a last-known-good source exists
// in store, that source is installed instead so the group is not left
// on an even older in-memory Fn. A successful compile is persisted to
// store as the new last-known-good source.
func loadPatterns(cfg *config.Config, registry *pattern.Registry, store storage.PatternStore, onPatternError func(groupName, msg string)) {
	for id, source := range cfg.Patterns {
		res := registry.Set(id, source)
		if res.OK() {
			if store != nil {
				_ = store.SavePattern(&storage.CompiledPattern{ID: id, Source: source})
			}
			continue
		}

		msg := "compile failed"
		if len(res.Errors) > 0 {
			msg = res.Errors[0]
		}
		if onPatternError != nil {
			onPatternError(id, msg)
		}

		if store == nil {
			continue
		}
		if fallback, err := store.GetPattern(id); err == nil {
			registry.Set(id, fallback.Source)
		}
	}
}

// buildPalettes converts the configuration's stop lists into Palette
// values, skipping (and letting the caller fall back to defaultPalette
// for) any palette with fewer than two stops.
func buildPalettes(cfg *config.Config) map[string]palette.Palette {
	out := make(map[string]palette.Palette, len(cfg.Palettes))
	for id, pc := range cfg.Palettes {
		stops := make([]colormath.HSV, 0, len(pc.Stops))
		for _, s := range pc.Stops {
			stops = append(stops, colormath.HSV{H: s[0], S: s[1], V: s[2]})
		}
		pal, err := palette.NewEditable(stops...)
		if err != nil {
			continue
		}
		out[id] = pal
	}
	return out
}
