package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore implements PatternStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based PatternStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}

	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS compiled_patterns (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// SavePattern persists p's source as the last-known-good form for its ID.
func (s *SQLiteStore) SavePattern(p *CompiledPattern) error {
	query := `
		INSERT INTO compiled_patterns (id, source, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			source = excluded.source,
			updated_at = CURRENT_TIMESTAMP
	`

	_, err := s.db.Exec(query, p.ID, p.Source)
	if err != nil {
		return fmt.Errorf("failed to save pattern: %w", err)
	}

	return nil
}

// GetPattern retrieves the persisted fallback for id.
func (s *SQLiteStore) GetPattern(id string) (*CompiledPattern, error) {
	query := `SELECT id, source, updated_at FROM compiled_patterns WHERE id = ?`

	var p CompiledPattern
	err := s.db.QueryRow(query, id).Scan(&p.ID, &p.Source, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("pattern not found: %s", id)
		}
		return nil, fmt.Errorf("failed to query pattern: %w", err)
	}

	return &p, nil
}

// ListPatterns returns every persisted fallback, most recently updated
// first.
func (s *SQLiteStore) ListPatterns() ([]*CompiledPattern, error) {
	query := `SELECT id, source, updated_at FROM compiled_patterns ORDER BY updated_at DESC`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query patterns: %w", err)
	}
	defer rows.Close()

	patterns := []*CompiledPattern{}

	for rows.Next() {
		var p CompiledPattern
		if err := rows.Scan(&p.ID, &p.Source, &p.UpdatedAt); err != nil {
			continue
		}
		patterns = append(patterns, &p)
	}

	return patterns, nil
}

// DeletePattern removes a pattern's persisted fallback.
func (s *SQLiteStore) DeletePattern(id string) error {
	query := `DELETE FROM compiled_patterns WHERE id = ?`

	result, err := s.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete pattern: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("pattern not found: %s", id)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
