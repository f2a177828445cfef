package models

import (
	"github.com/rebeliceyang/lazygrid/internal/conditions"
)

// FilteringLogic combines the operands of a tree
type FilteringLogic int

const (
	And FilteringLogic = iota
	Or
)

func (l FilteringLogic) String() string {
	if l == Or {
		return "OR"
	}
	return "AND"
}

// TreeEntity distinguishes plain column filters from advanced filters
type TreeEntity string

const (
	EntityPlain    TreeEntity = "plain"
	EntityAdvanced TreeEntity = "advanced"
)

// FilteringOperand is either a *FilteringExpression or a *FilteringExpressionsTree
type FilteringOperand interface {
	filteringOperand()
}

// FilteringExpression is a single condition applied to one field
type FilteringExpression struct {
	FieldName  string
	Condition  *conditions.Operation
	SearchVal  interface{}
	IgnoreCase bool
}

func (*FilteringExpression) filteringOperand() {}

// FilteringExpressionsTree combines expressions and sub-trees with AND/OR logic
type FilteringExpressionsTree struct {
	Operator  FilteringLogic
	FieldName string // Set when the tree groups the expressions of one column
	Entity    TreeEntity
	Operands  []FilteringOperand
}

func (*FilteringExpressionsTree) filteringOperand() {}

// NewFilteringExpressionsTree creates an empty tree
func NewFilteringExpressionsTree(operator FilteringLogic, fieldName string) *FilteringExpressionsTree {
	return &FilteringExpressionsTree{
		Operator:  operator,
		FieldName: fieldName,
		Entity:    EntityPlain,
		Operands:  make([]FilteringOperand, 0),
	}
}

// Empty reports whether a tree has no operands. A nil tree is empty.
func Empty(tree *FilteringExpressionsTree) bool {
	return tree == nil || len(tree.Operands) == 0
}

// Add appends an operand
func (t *FilteringExpressionsTree) Add(operand FilteringOperand) {
	t.Operands = append(t.Operands, operand)
}

// Find returns the first operand that filters the given field: either a
// sub-tree tagged with the field name or an expression on that field
func (t *FilteringExpressionsTree) Find(fieldName string) FilteringOperand {
	if i := t.indexOf(fieldName); i >= 0 {
		return t.Operands[i]
	}
	return nil
}

// Remove drops the first operand that filters the given field.
// Returns false if nothing matched.
func (t *FilteringExpressionsTree) Remove(fieldName string) bool {
	i := t.indexOf(fieldName)
	if i < 0 {
		return false
	}
	t.Operands = append(t.Operands[:i], t.Operands[i+1:]...)
	return true
}

func (t *FilteringExpressionsTree) indexOf(fieldName string) int {
	for i, operand := range t.Operands {
		switch op := operand.(type) {
		case *FilteringExpressionsTree:
			if op.FieldName == fieldName {
				return i
			}
		case *FilteringExpression:
			if op.FieldName == fieldName {
				return i
			}
		}
	}
	return -1
}
