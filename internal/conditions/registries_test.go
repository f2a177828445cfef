package conditions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistries_SameInstance(t *testing.T) {
	r := NewRegistries(nil)

	assert.Same(t, r.String(), r.String())
	assert.Same(t, r.Number(), r.Number())
	assert.Same(t, r.Date(), r.Date())
	assert.Same(t, r.Boolean(), r.Boolean())
	assert.Same(t, r.Date().Operand, r.ForType(DataTypeDate))
	assert.Same(t, r.String().Operand, r.ForType(""))
}

func TestOperand_ConditionList(t *testing.T) {
	r := NewRegistries(nil)

	assert.Equal(t, []string{"null", "notNull", "all", "true", "false", "empty", "notEmpty"},
		r.Boolean().ConditionList())
	assert.Equal(t, []string{
		"null", "notNull", "contains", "doesNotContain", "startsWith", "endsWith",
		"equals", "doesNotEqual", "empty", "notEmpty",
	}, r.String().ConditionList())
	assert.Equal(t, []string{
		"null", "notNull", "equals", "doesNotEqual", "before", "after", "today", "yesterday",
		"thisMonth", "lastMonth", "nextMonth", "thisYear", "lastYear", "nextYear", "empty", "notEmpty",
	}, r.Date().ConditionList())
}

func TestOperand_ConditionLookupIsCaseExact(t *testing.T) {
	s := NewStringOperand()

	assert.NotNil(t, s.Condition("contains"))
	assert.Nil(t, s.Condition("Contains"))
	assert.Nil(t, s.Condition("matchesRegex"))
}

func TestOperand_AppendLastWriteWins(t *testing.T) {
	s := NewStringOperand()
	first := &Operation{Name: "isCode", Logic: func(_, _ interface{}, _ bool) (bool, error) { return false, nil }}
	second := &Operation{Name: "isCode", Logic: func(_, _ interface{}, _ bool) (bool, error) { return true, nil }}

	s.Append(first)
	s.Append(second)

	op := s.Condition("isCode")
	require.NotNil(t, op)
	assert.Same(t, second, op)

	names := s.ConditionList()
	assert.Equal(t, "isCode", names[len(names)-1])
	assert.Equal(t, "isCode", names[len(names)-2])
}

func TestOperand_AppendIsPerRegistry(t *testing.T) {
	r := NewRegistries(nil)
	r.Number().Append(&Operation{Name: "even", Logic: func(target, _ interface{}, _ bool) (bool, error) {
		f, ok := toNumber(target)
		return ok && int(f)%2 == 0, nil
	}})

	assert.NotNil(t, r.Number().Condition("even"))
	assert.Nil(t, r.String().Condition("even"))
}

func TestOperand_NullAgreesWithEmptyForTypedNil(t *testing.T) {
	r := NewRegistries(nil)
	var noTime *time.Time
	var noNumber *float64
	var noString *string
	var noBool *bool

	tests := []struct {
		name    string
		operand *Operand
		target  interface{}
	}{
		{"date", r.Date().Operand, noTime},
		{"number", r.Number().Operand, noNumber},
		{"string", r.String().Operand, noString},
		{"boolean", r.Boolean().Operand, noBool},
	}

	for _, tt := range tests {
		for cond, want := range map[string]bool{"null": true, "notNull": false, "empty": true, "notEmpty": false} {
			got, err := tt.operand.Condition(cond).Logic(tt.target, nil, false)
			require.NoError(t, err)
			assert.Equal(t, want, got, "%s %s on a typed nil", tt.name, cond)
		}
	}
}
