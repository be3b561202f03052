package pattern

import "github.com/edgeflow/ledcore/internal/colormath"

type builtinFn func(env *evalEnv, args []value) value

// arg returns the i'th argument as a scalar, or def if the pattern
// omitted it. Builtins are forgiving about arity: a missing argument
// degrades to its default rather than aborting the whole expression.
func arg(args []value, i int, def float64) float64 {
	if i >= len(args) {
		return def
	}
	return args[i].asScalar()
}

// builtins is the fixed vocabulary a compiled pattern may call: the
// waveform and noise primitives from colormath, color constructors, a
// palette-position marker, and a handful of scalar helpers. It is
// consulted both at parse time (unknown-function rejection) and at
// eval time, so it must never be mutated after package init.
var builtins = map[string]builtinFn{
	"sine": func(env *evalEnv, args []value) value {
		return scalar(colormath.Sine(arg(args, 0, 0)))
	},
	"triangle": func(env *evalEnv, args []value) value {
		return scalar(colormath.Triangle(arg(args, 0, 0)))
	},
	"cubic": func(env *evalEnv, args []value) value {
		return scalar(colormath.Cubic(arg(args, 0, 0)))
	},
	"pulse": func(env *evalEnv, args []value) value {
		return scalar(colormath.Pulse(arg(args, 0, 0), arg(args, 1, 0.5)))
	},
	"plasma": func(env *evalEnv, args []value) value {
		c := colormath.PlasmaCoeffs{Fx1: 1.2, Fy1: 1.6, Fx2: 2.3, Fy2: 0.8}
		return scalar(colormath.Plasma(arg(args, 0, 0), arg(args, 1, 0), arg(args, 2, 0), c))
	},
	"noise": func(env *evalEnv, args []value) value {
		return scalar(colormath.Perlin3(arg(args, 0, 0), arg(args, 1, 0), arg(args, 2, 0)))
	},
	"fbm": func(env *evalEnv, args []value) value {
		octaves := int(arg(args, 3, 4))
		return scalar(colormath.Fbm3(arg(args, 0, 0), arg(args, 1, 0), arg(args, 2, 0), octaves, 2.0, 0.5))
	},
	// palette(p) marks a palette position; the renderer resolves it
	// against the group's bound palette after the pattern returns,
	// rather than the DSL resolving it itself, so a pattern can be
	// reused across groups with different palettes.
	"palette": func(env *evalEnv, args []value) value {
		return palettePos(wrap01(arg(args, 0, 0)))
	},
	// palette_sample(p) resolves against the bound palette immediately,
	// for patterns that need to mix a palette color into arithmetic
	// (e.g. blending it toward prev_color) rather than just returning it.
	"palette_sample": func(env *evalEnv, args []value) value {
		c := env.in.Palette.Sample(arg(args, 0, 0))
		return colorValue(c)
	},
	"rgb": func(env *evalEnv, args []value) value {
		return colorValue(colormath.RGB{R: arg(args, 0, 0), G: arg(args, 1, 0), B: arg(args, 2, 0)})
	},
	"hsv": func(env *evalEnv, args []value) value {
		c := colormath.HSVToRGB(colormath.HSV{H: arg(args, 0, 0), S: arg(args, 1, 1), V: arg(args, 2, 1)})
		return colorValue(c)
	},
	"mix": func(env *evalEnv, args []value) value {
		a := arg(args, 0, 0)
		b := arg(args, 1, 0)
		f := colormath.Clamp01(arg(args, 2, 0.5))
		return scalar(a + (b-a)*f)
	},
	"clamp": func(env *evalEnv, args []value) value {
		return scalar(colormath.Clamp01(arg(args, 0, 0)))
	},
	"abs": func(env *evalEnv, args []value) value {
		v := arg(args, 0, 0)
		if v < 0 {
			v = -v
		}
		return scalar(v)
	},
	"min": func(env *evalEnv, args []value) value {
		a := arg(args, 0, 0)
		b := arg(args, 1, 0)
		if a < b {
			return scalar(a)
		}
		return scalar(b)
	},
	"max": func(env *evalEnv, args []value) value {
		a := arg(args, 0, 0)
		b := arg(args, 1, 0)
		if a > b {
			return scalar(a)
		}
		return scalar(b)
	},
}

func wrap01(p float64) float64 {
	p -= float64(int(p))
	if p < 0 {
		p++
	}
	return p
}
