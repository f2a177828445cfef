package conditions

import (
	"errors"
	"fmt"
	"reflect"
)

// DataType identifies which operand registry handles a column
type DataType string

const (
	DataTypeString  DataType = "string"
	DataTypeNumber  DataType = "number"
	DataTypeBoolean DataType = "boolean"
	DataTypeDate    DataType = "date"
)

// Logic evaluates a field value (target) against a search value
type Logic func(target, searchVal interface{}, ignoreCase bool) (bool, error)

// Operation is a named filtering condition
type Operation struct {
	Name    string
	IsUnary bool // Unary conditions ignore the search value
	Logic   Logic
}

// Match runs the operation's logic
func (o *Operation) Match(target, searchVal interface{}, ignoreCase bool) (bool, error) {
	return o.Logic(target, searchVal, ignoreCase)
}

var (
	// ErrInvalidOperand indicates a typed condition received a value of the wrong type
	ErrInvalidOperand = errors.New("invalid operand")
)

// InvalidOperandError reports the condition and the offending value
type InvalidOperandError struct {
	Condition string
	Operand   DataType
	Value     interface{}
}

func (e *InvalidOperandError) Error() string {
	return fmt.Sprintf("could not perform filtering with %s condition '%s': value of type %T is not a %s",
		e.Operand, e.Condition, e.Value, e.Operand)
}

// Unwrap lets errors.Is match ErrInvalidOperand
func (e *InvalidOperandError) Unwrap() error {
	return ErrInvalidOperand
}

// Operand is an ordered set of named operations for one data type.
// Every operand starts with the universal null/notNull conditions.
type Operand struct {
	operations []*Operation
}

// isNil reports whether v is nil or a typed nil pointer such as a nil *time.Time
func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}

func newOperand() *Operand {
	return &Operand{
		operations: []*Operation{
			{
				Name:    "null",
				IsUnary: true,
				Logic: func(target, _ interface{}, _ bool) (bool, error) {
					return isNil(target), nil
				},
			},
			{
				Name:    "notNull",
				IsUnary: true,
				Logic: func(target, _ interface{}, _ bool) (bool, error) {
					return !isNil(target), nil
				},
			},
		},
	}
}

// ConditionList returns the registered condition names in registration order
func (o *Operand) ConditionList() []string {
	names := make([]string, 0, len(o.operations))
	for _, op := range o.operations {
		names = append(names, op.Name)
	}
	return names
}

// Condition looks up an operation by exact name. Returns nil if not registered.
// When a name was appended more than once the latest registration wins.
func (o *Operand) Condition(name string) *Operation {
	for i := len(o.operations) - 1; i >= 0; i-- {
		if o.operations[i].Name == name {
			return o.operations[i]
		}
	}
	return nil
}

// Append registers an additional operation. Names are not checked for duplicates.
func (o *Operand) Append(op *Operation) {
	o.operations = append(o.operations, op)
}

func (o *Operand) add(ops ...*Operation) {
	o.operations = append(o.operations, ops...)
}
