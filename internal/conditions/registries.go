package conditions

import "sync"

// Registries owns one operand per data type. Each operand is built on first
// use and the same instance is returned afterwards.
type Registries struct {
	clock Clock

	booleanOnce sync.Once
	boolean     *BooleanOperand
	dateOnce    sync.Once
	date        *DateOperand
	numberOnce  sync.Once
	number      *NumberOperand
	stringOnce  sync.Once
	str         *StringOperand
}

// NewRegistries creates an empty registry set. clock drives relative date
// conditions; nil means time.Now.
func NewRegistries(clock Clock) *Registries {
	return &Registries{clock: clock}
}

// Boolean returns the boolean operand
func (r *Registries) Boolean() *BooleanOperand {
	r.booleanOnce.Do(func() { r.boolean = NewBooleanOperand() })
	return r.boolean
}

// Date returns the date operand
func (r *Registries) Date() *DateOperand {
	r.dateOnce.Do(func() { r.date = NewDateOperand(r.clock) })
	return r.date
}

// Number returns the number operand
func (r *Registries) Number() *NumberOperand {
	r.numberOnce.Do(func() { r.number = NewNumberOperand() })
	return r.number
}

// String returns the string operand
func (r *Registries) String() *StringOperand {
	r.stringOnce.Do(func() { r.str = NewStringOperand() })
	return r.str
}

// ForType returns the operand for a column data type. Unknown and empty
// types fall back to the string operand.
func (r *Registries) ForType(dataType DataType) *Operand {
	switch dataType {
	case DataTypeBoolean:
		return r.Boolean().Operand
	case DataTypeDate:
		return r.Date().Operand
	case DataTypeNumber:
		return r.Number().Operand
	default:
		return r.String().Operand
	}
}
