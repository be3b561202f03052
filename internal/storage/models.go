package storage

import "time"

// CompiledPattern is the persisted last-known-good form of one pattern
// ID, per SPEC_FULL.md §3's PatternStore: source text plus enough
// metadata to report staleness, so a PatternCompile failure (spec.md
// §7.2) can fall back across a process restart, not just within the
// running process's memory.
type CompiledPattern struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	UpdatedAt time.Time `json:"updated_at"`
}
