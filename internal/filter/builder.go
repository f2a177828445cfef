package filter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rebeliceyang/lazygrid/internal/conditions"
	"github.com/rebeliceyang/lazygrid/internal/models"
)

// ErrUnsupportedCondition is returned when a condition has no SQL rendering
var ErrUnsupportedCondition = errors.New("condition cannot be pushed down to SQL")

// Dialect selects placeholder syntax
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

// Builder generates SQL WHERE clauses from filter trees. Rendered clauses
// never drop rows the in-memory strategies would keep.
type Builder struct {
	dialect Dialect
	types   map[string]conditions.DataType
}

// NewBuilder creates a builder. types maps field names to data types;
// unlisted fields are strings.
func NewBuilder(dialect Dialect, types map[string]conditions.DataType) *Builder {
	return &Builder{dialect: dialect, types: types}
}

// BuildWhere generates a WHERE clause from a filter tree
func (b *Builder) BuildWhere(tree *models.FilteringExpressionsTree) (string, []interface{}, error) {
	if models.Empty(tree) {
		return "", nil, nil
	}

	clause, args, err := b.buildGroup(tree, 1)
	if err != nil {
		return "", nil, err
	}

	return "WHERE " + clause, args, nil
}

// buildGroup recursively builds a filter group
func (b *Builder) buildGroup(tree *models.FilteringExpressionsTree, paramIndex int) (string, []interface{}, error) {
	if models.Empty(tree) {
		return "1=1", nil, nil
	}

	var clauses []string
	var args []interface{}
	currentParam := paramIndex

	for _, operand := range tree.Operands {
		var clause string
		var opArgs []interface{}
		var err error

		switch op := operand.(type) {
		case *models.FilteringExpressionsTree:
			clause, opArgs, err = b.buildGroup(op, currentParam)
			clause = "(" + clause + ")"
		case *models.FilteringExpression:
			clause, opArgs, err = b.buildCondition(op, currentParam)
		default:
			err = fmt.Errorf("unsupported filtering operand %T", operand)
		}
		if err != nil {
			return "", nil, err
		}

		clauses = append(clauses, clause)
		args = append(args, opArgs...)
		currentParam += len(opArgs)
	}

	return strings.Join(clauses, " "+tree.Operator.String()+" "), args, nil
}

func (b *Builder) placeholder(index int) string {
	if b.dialect == SQLite {
		return "?"
	}
	return fmt.Sprintf("$%d", index)
}

// buildCondition builds a single filter condition
func (b *Builder) buildCondition(expr *models.FilteringExpression, paramIndex int) (string, []interface{}, error) {
	if expr.Condition == nil {
		return "", nil, fmt.Errorf("%w: no condition set for field '%s'", ErrUnknownCondition, expr.FieldName)
	}

	column := QuoteIdentifier(expr.FieldName)
	name := expr.Condition.Name

	switch name {
	case "null":
		return column + " IS NULL", nil, nil
	case "notNull":
		return column + " IS NOT NULL", nil, nil
	}

	dataType := conditions.DataTypeString
	if t, ok := b.types[expr.FieldName]; ok {
		dataType = t
	}

	switch dataType {
	case conditions.DataTypeNumber:
		return b.numberCondition(column, name, expr.SearchVal, paramIndex)
	case conditions.DataTypeBoolean:
		return booleanCondition(column, name)
	case conditions.DataTypeDate:
		return dateCondition(column, name)
	default:
		return b.stringCondition(column, expr, paramIndex)
	}
}

var numberOperators = map[string]string{
	"equals":               "=",
	"greaterThan":          ">",
	"lessThan":             "<",
	"greaterThanOrEqualTo": ">=",
	"lessThanOrEqualTo":    "<=",
}

func (b *Builder) numberCondition(column, name string, searchVal interface{}, paramIndex int) (string, []interface{}, error) {
	switch name {
	case "empty":
		return column + " IS NULL", nil, nil
	case "notEmpty":
		return column + " IS NOT NULL", nil, nil
	case "equals":
		if searchVal == nil {
			return column + " IS NULL", nil, nil
		}
	case "doesNotEqual":
		if searchVal == nil {
			return column + " IS NOT NULL", nil, nil
		}
		return fmt.Sprintf("(%s IS NULL OR %s <> %s)", column, column, b.placeholder(paramIndex)), []interface{}{searchVal}, nil
	}

	op, ok := numberOperators[name]
	if !ok {
		return "", nil, fmt.Errorf("%w: number condition '%s'", ErrUnsupportedCondition, name)
	}
	if searchVal == nil {
		return "", nil, fmt.Errorf("%w: '%s' without a value", ErrUnsupportedCondition, name)
	}
	return fmt.Sprintf("%s %s %s", column, op, b.placeholder(paramIndex)), []interface{}{searchVal}, nil
}

func booleanCondition(column, name string) (string, []interface{}, error) {
	switch name {
	case "all":
		return "1=1", nil, nil
	case "true":
		return column + " IS TRUE", nil, nil
	case "false":
		return column + " IS NOT TRUE", nil, nil
	case "empty":
		return column + " IS NULL", nil, nil
	case "notEmpty":
		return column + " IS NOT NULL", nil, nil
	default:
		return "", nil, fmt.Errorf("%w: boolean condition '%s'", ErrUnsupportedCondition, name)
	}
}

// dateCondition renders only presence checks; day and relative comparisons
// depend on the local clock and stay in memory.
func dateCondition(column, name string) (string, []interface{}, error) {
	switch name {
	case "empty":
		return column + " IS NULL", nil, nil
	case "notEmpty":
		return column + " IS NOT NULL", nil, nil
	default:
		return "", nil, fmt.Errorf("%w: date condition '%s'", ErrUnsupportedCondition, name)
	}
}

func (b *Builder) stringCondition(column string, expr *models.FilteringExpression, paramIndex int) (string, []interface{}, error) {
	switch expr.Condition.Name {
	case "empty":
		return fmt.Sprintf("(%s IS NULL OR %s = '')", column, column), nil, nil
	case "notEmpty":
		return fmt.Sprintf("(%s IS NOT NULL AND %s <> '')", column, column), nil, nil
	}

	search := ""
	if expr.SearchVal != nil {
		search = fmt.Sprint(expr.SearchVal)
	}

	target := column
	param := b.placeholder(paramIndex)
	if expr.IgnoreCase {
		target = "LOWER(" + column + ")"
		param = "LOWER(" + param + ")"
	}

	switch expr.Condition.Name {
	case "contains", "startsWith", "endsWith":
		if search == "" {
			return "1=1", nil, nil
		}
		return fmt.Sprintf("%s LIKE %s ESCAPE '\\'", target, param), []interface{}{likePattern(expr.Condition.Name, search)}, nil
	case "doesNotContain":
		if search == "" {
			return "1=0", nil, nil
		}
		return fmt.Sprintf("(%s IS NULL OR %s NOT LIKE %s ESCAPE '\\')", column, target, param), []interface{}{likePattern("contains", search)}, nil
	case "equals":
		if search == "" {
			return fmt.Sprintf("(%s IS NULL OR %s = '')", column, column), nil, nil
		}
		return fmt.Sprintf("%s = %s", target, param), []interface{}{search}, nil
	case "doesNotEqual":
		if search == "" {
			return fmt.Sprintf("(%s IS NOT NULL AND %s <> '')", column, column), nil, nil
		}
		return fmt.Sprintf("(%s IS NULL OR %s <> %s)", column, target, param), []interface{}{search}, nil
	default:
		return "", nil, fmt.Errorf("%w: string condition '%s'", ErrUnsupportedCondition, expr.Condition.Name)
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(condition, search string) string {
	escaped := likeEscaper.Replace(search)
	switch condition {
	case "startsWith":
		return escaped + "%"
	case "endsWith":
		return "%" + escaped
	default:
		return "%" + escaped + "%"
	}
}

// QuoteIdentifier quotes a column or table name for PostgreSQL and SQLite
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
