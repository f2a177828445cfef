package conditions

import (
	"math"

	"github.com/spf13/cast"
)

// toNumber coerces numeric values (and numeric strings) to float64
func toNumber(v interface{}) (float64, bool) {
	if isNil(v) {
		return 0, false
	}
	if _, isBool := v.(bool); isBool {
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, false
	}
	return f, true
}

func isEmptyNumber(v interface{}) bool {
	if isNil(v) {
		return true
	}
	f, ok := toNumber(v)
	return ok && math.IsNaN(f)
}

// NumberOperand holds the number conditions
type NumberOperand struct {
	*Operand
}

// NewNumberOperand builds the number condition set
func NewNumberOperand() *NumberOperand {
	n := &NumberOperand{Operand: newOperand()}
	n.add(
		&Operation{
			Name: "equals",
			Logic: func(target, searchVal interface{}, _ bool) (bool, error) {
				return numbersEqual(target, searchVal), nil
			},
		},
		&Operation{
			Name: "doesNotEqual",
			Logic: func(target, searchVal interface{}, _ bool) (bool, error) {
				return !numbersEqual(target, searchVal), nil
			},
		},
		compareCondition("greaterThan", func(t, s float64) bool { return t > s }),
		compareCondition("lessThan", func(t, s float64) bool { return t < s }),
		compareCondition("greaterThanOrEqualTo", func(t, s float64) bool { return t >= s }),
		compareCondition("lessThanOrEqualTo", func(t, s float64) bool { return t <= s }),
		&Operation{
			Name:    "empty",
			IsUnary: true,
			Logic: func(target, _ interface{}, _ bool) (bool, error) {
				return isEmptyNumber(target), nil
			},
		},
		&Operation{
			Name:    "notEmpty",
			IsUnary: true,
			Logic: func(target, _ interface{}, _ bool) (bool, error) {
				return !isEmptyNumber(target), nil
			},
		},
	)
	return n
}

// numbersEqual compares numerically; two nils are equal, nil and a number are not
func numbersEqual(target, searchVal interface{}) bool {
	if isNil(target) || isNil(searchVal) {
		return isNil(target) && isNil(searchVal)
	}
	t, tok := toNumber(target)
	s, sok := toNumber(searchVal)
	if !tok || !sok {
		return false
	}
	return t == s
}

func compareCondition(name string, cmp func(target, search float64) bool) *Operation {
	return &Operation{
		Name: name,
		Logic: func(target, searchVal interface{}, _ bool) (bool, error) {
			t, tok := toNumber(target)
			s, sok := toNumber(searchVal)
			if !tok || !sok {
				return false, nil
			}
			return cmp(t, s), nil
		},
	}
}
