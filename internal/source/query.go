package source

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rebeliceyang/lazygrid/internal/conditions"
	"github.com/rebeliceyang/lazygrid/internal/filter"
	"github.com/rebeliceyang/lazygrid/internal/hierarchy"
	"github.com/rebeliceyang/lazygrid/internal/models"
)

// Query selects the rows of a SQL source
type Query struct {
	Table string // Loaded as SELECT * when SQL is empty
	SQL   string

	// Pushdown filter. Rendered into a WHERE clause when possible; the
	// grid filters in memory either way.
	Filter *models.FilteringExpressionsTree
	Types  map[string]conditions.DataType

	// Keys of the tree built from the rows. In foreign-key mode the
	// pushed-down filter also selects every ancestor of a matching row;
	// in child-data mode nothing is pushed down.
	Keys hierarchy.Keys
}

// build renders the statement and its arguments
func (q Query) build(dialect filter.Dialect, logger *slog.Logger) (string, []interface{}, error) {
	var base string
	switch {
	case q.SQL != "":
		base = fmt.Sprintf("SELECT * FROM (%s) AS src", q.SQL)
	case q.Table != "":
		base = "SELECT * FROM " + filter.QuoteIdentifier(q.Table)
	default:
		return "", nil, errors.New("query needs a table or SQL")
	}

	if models.Empty(q.Filter) {
		return base, nil, nil
	}
	if q.Keys.Mode() == hierarchy.ModeChildData {
		logger.Info("filter not pushed down, child rows are nested", "child_data_key", q.Keys.ChildDataKey)
		return base, nil, nil
	}

	where, args, err := filter.NewBuilder(dialect, q.Types).BuildWhere(q.Filter)
	if errors.Is(err, filter.ErrUnsupportedCondition) || errors.Is(err, filter.ErrUnknownCondition) {
		logger.Info("filter not pushed down, loading all rows", "reason", err)
		return base, nil, nil
	}
	if err != nil {
		return "", nil, err
	}
	if where == "" {
		return base, nil, nil
	}

	if q.Keys.Mode() == hierarchy.ModeForeignKey {
		return withAncestors(base, where, args, q.Keys, dialect)
	}
	return base + " " + where, args, nil
}

// withAncestors wraps base in a recursive query that returns the rows
// matching where plus all of their ancestors, so filtered-out parents
// still reach the tree. UNION drops repeated (key, parent) pairs, which
// ends the recursion on cycles.
func withAncestors(base, where string, args []interface{}, keys hierarchy.Keys, dialect filter.Dialect) (string, []interface{}, error) {
	pk := filter.QuoteIdentifier(keys.PrimaryKey)
	fk := filter.QuoteIdentifier(keys.ForeignKey)
	cond := strings.TrimPrefix(where, "WHERE ")

	var sb strings.Builder
	sb.WriteString("WITH RECURSIVE grid_rows AS (" + base + "), ")
	sb.WriteString("grid_ancestors(pk, fk) AS (")
	sb.WriteString(fmt.Sprintf("SELECT %s, %s FROM grid_rows WHERE %s", pk, fk, cond))
	sb.WriteString(" UNION ")
	sb.WriteString(fmt.Sprintf("SELECT r.%s, r.%s FROM grid_rows r JOIN grid_ancestors a ON r.%s = a.fk", pk, fk, pk))
	sb.WriteString(") ")
	// Matching rows without a key value cannot be ancestors but still match
	sb.WriteString(fmt.Sprintf("SELECT * FROM grid_rows WHERE %s IN (SELECT pk FROM grid_ancestors) OR (%s IS NULL AND (%s))", pk, pk, cond))

	// Postgres placeholders are numbered and can be repeated; SQLite binds
	// ? in order, so its arguments are passed twice
	if dialect == filter.SQLite {
		args = append(append([]interface{}{}, args...), args...)
	}
	return sb.String(), args, nil
}
