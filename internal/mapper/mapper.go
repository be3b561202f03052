// Package mapper provides the pure, configuration-derived mapping from a
// physical LED index to the normalized coordinate patterns evaluate
// against.
package mapper

// LinearMapper maps LED index i in [0, Count) to x = i/(Count-1) for
// one-dimensional strips. It is stateless given Count and invariant
// across frames, as required by spec.md §4.2.
type LinearMapper struct {
	Count int
}

// NewLinearMapper constructs a mapper for a strip of the given LED count.
func NewLinearMapper(count int) LinearMapper {
	return LinearMapper{Count: count}
}

// X returns the normalized coordinate for LED index i. For a single-LED
// strip (Count == 1) the sole pixel maps to x = 0.
func (m LinearMapper) X(i int) float64 {
	if m.Count <= 1 {
		return 0
	}
	return float64(i) / float64(m.Count-1)
}
