package source

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rebeliceyang/lazygrid/internal/filter"
	"github.com/rebeliceyang/lazygrid/internal/models"
)

// SQLiteLoader reads rows from a SQLite database
type SQLiteLoader struct {
	Path   string
	Query  Query
	Logger *slog.Logger
}

// Load opens the database, runs the query and closes the database
func (l *SQLiteLoader) Load(ctx context.Context) ([]models.Row, error) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}

	stmt, args, err := l.Query.build(filter.SQLite, logger)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", l.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", l.Path, err)
	}
	defer func() { _ = db.Close() }()

	logger.Debug("loading rows", "source", "sqlite", "path", l.Path, "query", stmt)

	rows, err := db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", l.Path, err)
	}
	defer func() { _ = rows.Close() }()

	return scanRows(rows)
}

// scanRows reads database/sql rows into maps
func scanRows(rows *sql.Rows) ([]models.Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []models.Row
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(models.Row, len(columns))
		for i, name := range columns {
			row[name] = normalizeDriverValue(values[i])
		}
		results = append(results, row)
	}

	return results, rows.Err()
}
