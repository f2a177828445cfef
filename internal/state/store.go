package state

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Store persists grid expansion states
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the store at path
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	// Create schema
	_, err = db.Exec(schemaSQL)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Save replaces the stored states of a grid
func (s *Store) Save(ctx context.Context, gridID string, states map[string]bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM expansion_states WHERE grid_id = ?`, gridID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO expansion_states (grid_id, row_key, expanded, updated_at)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC().Format("2006-01-02 15:04:05")
	for key, expanded := range states {
		if _, err := stmt.ExecContext(ctx, gridID, key, expanded, now); err != nil {
			return fmt.Errorf("failed to save state of %s: %w", key, err)
		}
	}

	return tx.Commit()
}

// Load returns the stored states of a grid. Unknown grids yield an empty map.
func (s *Store) Load(ctx context.Context, gridID string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT row_key, expanded
		FROM expansion_states
		WHERE grid_id = ?`, gridID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	states := make(map[string]bool)
	for rows.Next() {
		var key string
		var expanded bool
		if err := rows.Scan(&key, &expanded); err != nil {
			return nil, err
		}
		states[key] = expanded
	}

	return states, rows.Err()
}

// Clear removes the stored states of a grid
func (s *Store) Clear(ctx context.Context, gridID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM expansion_states WHERE grid_id = ?`, gridID)
	return err
}

// Grids lists grid IDs with stored states, most recently saved first
func (s *Store) Grids(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT grid_id
		FROM expansion_states
		GROUP BY grid_id
		ORDER BY MAX(updated_at) DESC, grid_id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
