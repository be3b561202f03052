package storage

// PatternStore defines the interface for persisting compiled-pattern
// fallback state, narrower than a full configuration store: only the
// last successfully compiled source per pattern ID survives a restart.
type PatternStore interface {
	// SavePattern persists the last-known-good compiled form of p.
	SavePattern(p *CompiledPattern) error
	// GetPattern retrieves the persisted fallback for id, if any.
	GetPattern(id string) (*CompiledPattern, error)
	// ListPatterns returns every persisted fallback.
	ListPatterns() ([]*CompiledPattern, error)
	// DeletePattern removes a pattern's persisted fallback.
	DeletePattern(id string) error

	// Close closes the storage connection.
	Close() error
}

// New creates a SQLite-backed PatternStore at dbPath. SQLite is the
// only backend: the PatternStore is a narrow, single-process fallback
// cache, not a shared configuration database (spec.md §1 non-goal).
func New(dbPath string) (PatternStore, error) {
	return NewSQLiteStore(dbPath)
}
