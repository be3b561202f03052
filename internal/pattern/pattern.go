// Package pattern implements the PatternRegistry and the sandboxed
// tree-walking evaluator a compiled pattern runs against, per spec.md
// §4.4 and the "dynamic pattern execution" design note in §9: the
// embedded scripting language itself is out of scope, but the core must
// invoke a compiled pattern as a pure pixel function.
package pattern

import (
	"fmt"

	"github.com/edgeflow/ledcore/internal/colormath"
	"github.com/edgeflow/ledcore/internal/palette"
)

// Output is what a pattern produces for one pixel: either a direct color
// or a palette position to be sampled by the caller, per spec.md §4.5.3.
type Output struct {
	IsPalettePosition bool
	Color             colormath.RGB
	PalettePosition   float64
}

// Input bundles the three arguments a pattern is invoked with, per
// spec.md §3's Pattern definition: f(t, x, prev_color) -> color.
type Input struct {
	T         float64
	X         float64
	PrevColor colormath.RGB
	Palette   palette.Palette
}

// Fn is a compiled pattern's executable form: pure, side-effect free,
// invoked once per pixel per frame.
type Fn func(in Input) Output

// CompileResult is returned by Compile.
type CompileResult struct {
	Fn     Fn
	Errors []string
}

// OK reports whether compilation succeeded.
func (r CompileResult) OK() bool { return len(r.Errors) == 0 && r.Fn != nil }

// Compile parses a pattern's editable source string into its executable
// form. The vocabulary is the fixed set in builtins.go: waveforms, noise,
// palette sampling, coordinates, time, and previous color. Compile itself
// never panics; a malformed source yields a CompileResult with Errors set
// and a nil Fn, surfacing as the PatternCompile error kind (spec.md §7.2)
// at the caller.
func Compile(source string) CompileResult {
	toks, err := lex(source)
	if err != nil {
		return CompileResult{Errors: []string{err.Error()}}
	}
	p := newParser(toks)
	expr, err := p.parseExpr()
	if err != nil {
		return CompileResult{Errors: []string{err.Error()}}
	}
	if !p.atEnd() {
		return CompileResult{Errors: []string{fmt.Sprintf("unexpected trailing input at token %d", p.pos)}}
	}

	fn := func(in Input) (out Output) {
		defer func() {
			if r := recover(); r != nil {
				out = Output{Color: colormath.RGB{}}
			}
		}()
		env := &evalEnv{in: in}
		v := expr.eval(env)
		return v.toOutput()
	}

	return CompileResult{Fn: fn}
}
