package conditions

import (
	"math"
	"reflect"
)

// truthy follows the usual dynamic-language notion of truthiness:
// false, zero numbers, empty strings and nil are falsy.
func truthy(v interface{}) bool {
	if isNil(v) {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f != 0 && !math.IsNaN(f)
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		return !rv.IsNil()
	}
	return true
}

// BooleanOperand holds the boolean conditions
type BooleanOperand struct {
	*Operand
}

// NewBooleanOperand builds the boolean condition set
func NewBooleanOperand() *BooleanOperand {
	b := &BooleanOperand{Operand: newOperand()}
	b.add(
		&Operation{
			Name:    "all",
			IsUnary: true,
			Logic: func(_, _ interface{}, _ bool) (bool, error) {
				return true, nil
			},
		},
		&Operation{
			Name:    "true",
			IsUnary: true,
			Logic: func(target, _ interface{}, _ bool) (bool, error) {
				return truthy(target), nil
			},
		},
		&Operation{
			Name:    "false",
			IsUnary: true,
			Logic: func(target, _ interface{}, _ bool) (bool, error) {
				return !isNil(target) && !truthy(target), nil
			},
		},
		&Operation{
			Name:    "empty",
			IsUnary: true,
			Logic: func(target, _ interface{}, _ bool) (bool, error) {
				return isNil(target), nil
			},
		},
		&Operation{
			Name:    "notEmpty",
			IsUnary: true,
			Logic: func(target, _ interface{}, _ bool) (bool, error) {
				return !isNil(target), nil
			},
		},
	)
	return b
}
