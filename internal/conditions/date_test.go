package conditions

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(year int, month time.Month, day int) Clock {
	return func() time.Time {
		return time.Date(year, month, day, 10, 30, 0, 0, time.UTC)
	}
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func match(t *testing.T, op *Operation, target, search interface{}) bool {
	t.Helper()
	require.NotNil(t, op)
	ok, err := op.Match(target, search, false)
	require.NoError(t, err)
	return ok
}

func TestDateOperand_LastMonthWrapsYear(t *testing.T) {
	record := day(2024, time.January, 15)

	d := NewDateOperand(fixedClock(2024, time.January, 20))
	assert.False(t, match(t, d.Condition("lastMonth"), record, nil), "January is not last month in January")

	d = NewDateOperand(fixedClock(2024, time.February, 1))
	assert.True(t, match(t, d.Condition("lastMonth"), record, nil), "January is last month in February")

	d = NewDateOperand(fixedClock(2024, time.January, 20))
	assert.True(t, match(t, d.Condition("lastMonth"), day(2023, time.December, 3), nil))
}

func TestDateOperand_NextMonthWrapsYear(t *testing.T) {
	d := NewDateOperand(fixedClock(2023, time.December, 31))

	assert.True(t, match(t, d.Condition("nextMonth"), day(2024, time.January, 1), nil))
	assert.False(t, match(t, d.Condition("nextMonth"), day(2023, time.January, 1), nil))
}

func TestDateOperand_EqualsIgnoresTimeOfDay(t *testing.T) {
	d := NewDateOperand(nil)
	morning := time.Date(2024, time.March, 5, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2024, time.March, 5, 22, 15, 0, 0, time.UTC)

	assert.True(t, match(t, d.Condition("equals"), morning, evening))
	assert.False(t, match(t, d.Condition("doesNotEqual"), morning, evening))
	assert.True(t, match(t, d.Condition("doesNotEqual"), morning, day(2024, time.March, 6)))
}

func TestDateOperand_BeforeAfter(t *testing.T) {
	d := NewDateOperand(nil)
	early := day(2020, time.June, 1)
	late := day(2021, time.June, 1)

	assert.True(t, match(t, d.Condition("before"), early, late))
	assert.False(t, match(t, d.Condition("before"), late, early))
	assert.True(t, match(t, d.Condition("after"), late, early))
	assert.False(t, match(t, d.Condition("after"), early, early))
}

func TestDateOperand_Relative(t *testing.T) {
	d := NewDateOperand(fixedClock(2024, time.March, 1))

	assert.True(t, match(t, d.Condition("today"), day(2024, time.March, 1), nil))
	assert.True(t, match(t, d.Condition("yesterday"), day(2024, time.February, 29), nil))
	assert.True(t, match(t, d.Condition("thisMonth"), day(2024, time.March, 31), nil))
	assert.True(t, match(t, d.Condition("thisYear"), day(2024, time.December, 31), nil))
	assert.True(t, match(t, d.Condition("lastYear"), day(2023, time.July, 4), nil))
	assert.True(t, match(t, d.Condition("nextYear"), day(2025, time.July, 4), nil))
	assert.False(t, match(t, d.Condition("nextYear"), day(2024, time.July, 4), nil))
}

func TestDateOperand_PointerTargets(t *testing.T) {
	d := NewDateOperand(fixedClock(2024, time.March, 1))
	today := day(2024, time.March, 1)
	var missing *time.Time

	assert.True(t, match(t, d.Condition("today"), &today, nil))
	assert.False(t, match(t, d.Condition("today"), missing, nil))
	assert.True(t, match(t, d.Condition("empty"), missing, nil))
}

func TestDateOperand_InvalidOperand(t *testing.T) {
	d := NewDateOperand(nil)

	for _, name := range []string{"equals", "before", "after", "today", "yesterday", "lastMonth", "nextYear"} {
		_, err := d.Condition(name).Match("2024-01-15", day(2024, time.January, 15), false)
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, ErrInvalidOperand), "%s: expected ErrInvalidOperand, got %v", name, err)

		var operandErr *InvalidOperandError
		require.True(t, errors.As(err, &operandErr))
		assert.Equal(t, name, operandErr.Condition)
	}
}

func TestDateOperand_NilTargetIsNotAnError(t *testing.T) {
	d := NewDateOperand(nil)

	assert.False(t, match(t, d.Condition("equals"), nil, day(2024, time.January, 1)))
	assert.True(t, match(t, d.Condition("doesNotEqual"), nil, day(2024, time.January, 1)))
	assert.False(t, match(t, d.Condition("lastMonth"), nil, nil))
	assert.True(t, match(t, d.Condition("empty"), nil, nil))
	assert.False(t, match(t, d.Condition("notEmpty"), nil, nil))
}
