package filter

import (
	"fmt"

	"github.com/rebeliceyang/lazygrid/internal/models"
)

// FieldValue extracts a field from a record
type FieldValue[T any] func(rec T, fieldName string) interface{}

// RowFieldValue reads a field directly from a row. Dotted names are not resolved.
func RowFieldValue(rec models.Row, fieldName string) interface{} {
	return rec[fieldName]
}

// NestedRowFieldValue resolves dotted paths such as "address.city" or "tags.0"
func NestedRowFieldValue(rec models.Row, fieldName string) interface{} {
	return ResolveNestedPath(rec, fieldName)
}

// matcher evaluates expression trees against records of type T
type matcher[T any] struct {
	fieldValue FieldValue[T]
}

// matchRecord evaluates an operand. A nil operand and an empty tree match.
func (m matcher[T]) matchRecord(rec T, operand models.FilteringOperand) (bool, error) {
	switch op := operand.(type) {
	case nil:
		return true, nil
	case *models.FilteringExpressionsTree:
		if op == nil || len(op.Operands) == 0 {
			return true, nil
		}
		var match bool
		for _, child := range op.Operands {
			var err error
			match, err = m.matchRecord(rec, child)
			if err != nil {
				return false, err
			}
			if !match && op.Operator == models.And {
				return false, nil
			}
			if match && op.Operator == models.Or {
				return true, nil
			}
		}
		return match, nil
	case *models.FilteringExpression:
		if op == nil {
			return true, nil
		}
		return m.findMatchByExpression(rec, op)
	default:
		return false, fmt.Errorf("unsupported filtering operand %T", operand)
	}
}

func (m matcher[T]) findMatchByExpression(rec T, expr *models.FilteringExpression) (bool, error) {
	if expr.Condition == nil {
		return false, fmt.Errorf("%w: no condition set for field '%s'", ErrUnknownCondition, expr.FieldName)
	}
	value := m.fieldValue(rec, expr.FieldName)
	match, err := expr.Condition.Match(value, expr.SearchVal, expr.IgnoreCase)
	if err != nil {
		return false, fmt.Errorf("field '%s': %w", expr.FieldName, err)
	}
	return match, nil
}

// matchRecordByExpressions evaluates a flat expression list. An empty list
// yields false whatever the logic.
func (m matcher[T]) matchRecordByExpressions(rec T, expressions []*models.FilteringExpression, logic models.FilteringLogic) (bool, error) {
	match := false
	for _, expr := range expressions {
		var err error
		match, err = m.findMatchByExpression(rec, expr)
		if err != nil {
			return false, err
		}
		if logic == models.And {
			if !match {
				return false, nil
			}
		} else if match {
			return true, nil
		}
	}
	return match, nil
}

// FilteringStrategy filters a flat list of records
type FilteringStrategy[T any] struct {
	matcher matcher[T]
}

// NewFilteringStrategy creates a flat strategy reading fields with fieldValue
func NewFilteringStrategy[T any](fieldValue FieldValue[T]) *FilteringStrategy[T] {
	return &FilteringStrategy[T]{matcher: matcher[T]{fieldValue: fieldValue}}
}

// NewRowFilteringStrategy creates a flat strategy over rows with direct field reads
func NewRowFilteringStrategy() *FilteringStrategy[models.Row] {
	return NewFilteringStrategy(RowFieldValue)
}

// Filter returns the records matching the tree, in input order.
// An empty tree or empty data returns data itself.
func (s *FilteringStrategy[T]) Filter(data []T, tree *models.FilteringExpressionsTree) ([]T, error) {
	if models.Empty(tree) || len(data) == 0 {
		return data, nil
	}

	res := make([]T, 0, len(data))
	for _, rec := range data {
		match, err := s.matcher.matchRecord(rec, tree)
		if err != nil {
			return nil, err
		}
		if match {
			res = append(res, rec)
		}
	}
	return res, nil
}

// FilterByExpressions filters with a flat expression list combined by logic.
// An empty list or empty data returns data itself.
func (s *FilteringStrategy[T]) FilterByExpressions(data []T, expressions []*models.FilteringExpression, logic models.FilteringLogic) ([]T, error) {
	if len(expressions) == 0 || len(data) == 0 {
		return data, nil
	}

	res := make([]T, 0, len(data))
	for _, rec := range data {
		match, err := s.matcher.matchRecordByExpressions(rec, expressions, logic)
		if err != nil {
			return nil, err
		}
		if match {
			res = append(res, rec)
		}
	}
	return res, nil
}

// MatchRecord evaluates a single record against an operand
func (s *FilteringStrategy[T]) MatchRecord(rec T, operand models.FilteringOperand) (bool, error) {
	return s.matcher.matchRecord(rec, operand)
}

// MatchRecordByExpressions evaluates a single record against an expression list
func (s *FilteringStrategy[T]) MatchRecordByExpressions(rec T, expressions []*models.FilteringExpression, logic models.FilteringLogic) (bool, error) {
	return s.matcher.matchRecordByExpressions(rec, expressions, logic)
}
