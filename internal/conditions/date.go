package conditions

import (
	"time"
)

// Clock returns the current time. Relative date conditions (today, lastMonth, ...)
// are evaluated against it.
type Clock func() time.Time

// dateParts is a date decomposed into calendar fields. Month is zero-based.
type dateParts struct {
	year, month, day                      int
	hours, minutes, seconds, milliseconds int
}

func partsOf(t time.Time) dateParts {
	return dateParts{
		year:         t.Year(),
		month:        int(t.Month()) - 1,
		day:          t.Day(),
		hours:        t.Hour(),
		minutes:      t.Minute(),
		seconds:      t.Second(),
		milliseconds: t.Nanosecond() / int(time.Millisecond),
	}
}

func sameDay(a, b dateParts) bool {
	return a.year == b.year && a.month == b.month && a.day == b.day
}

func sameMonth(a, b dateParts) bool {
	return a.year == b.year && a.month == b.month
}

// toTime accepts time.Time and *time.Time. ok is false for anything else.
func toTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	default:
		return time.Time{}, false
	}
}

// DateOperand holds the date conditions
type DateOperand struct {
	*Operand
	now Clock
}

// NewDateOperand builds the date condition set. A nil clock uses time.Now.
func NewDateOperand(now Clock) *DateOperand {
	if now == nil {
		now = time.Now
	}
	d := &DateOperand{Operand: newOperand(), now: now}

	d.add(
		d.dayCondition("equals", false, func(target, search dateParts) bool {
			return sameDay(target, search)
		}),
		d.dayCondition("doesNotEqual", true, func(target, search dateParts) bool {
			return !sameDay(target, search)
		}),
		d.instantCondition("before", func(target, search time.Time) bool {
			return target.Before(search)
		}),
		d.instantCondition("after", func(target, search time.Time) bool {
			return target.After(search)
		}),
		d.relativeCondition("today", func(target, now dateParts) bool {
			return sameDay(target, now)
		}),
		&Operation{
			Name:    "yesterday",
			IsUnary: true,
			Logic: func(target, _ interface{}, _ bool) (bool, error) {
				t, err := d.validate("yesterday", target)
				if err != nil || t == nil {
					return false, err
				}
				yesterday := d.now().In(t.Location()).AddDate(0, 0, -1)
				return sameDay(partsOf(*t), partsOf(yesterday)), nil
			},
		},
		d.relativeCondition("thisMonth", func(target, now dateParts) bool {
			return sameMonth(target, now)
		}),
		d.relativeCondition("lastMonth", func(target, now dateParts) bool {
			if now.month == 0 {
				now.month = 11
				now.year--
			} else {
				now.month--
			}
			return sameMonth(target, now)
		}),
		d.relativeCondition("nextMonth", func(target, now dateParts) bool {
			if now.month == 11 {
				now.month = 0
				now.year++
			} else {
				now.month++
			}
			return sameMonth(target, now)
		}),
		d.relativeCondition("thisYear", func(target, now dateParts) bool {
			return target.year == now.year
		}),
		d.relativeCondition("lastYear", func(target, now dateParts) bool {
			return target.year == now.year-1
		}),
		d.relativeCondition("nextYear", func(target, now dateParts) bool {
			return target.year == now.year+1
		}),
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

	return d
}

// validate returns nil for nil targets, the time for time targets,
// and an InvalidOperandError otherwise
func (d *DateOperand) validate(condition string, target interface{}) (*time.Time, error) {
	if isNil(target) {
		return nil, nil
	}
	t, ok := toTime(target)
	if !ok {
		return nil, &InvalidOperandError{Condition: condition, Operand: DataTypeDate, Value: target}
	}
	return &t, nil
}

// dayCondition compares year, month and day of target and search value.
// nilResult is returned when the target is nil.
func (d *DateOperand) dayCondition(name string, nilResult bool, cmp func(target, search dateParts) bool) *Operation {
	return &Operation{
		Name: name,
		Logic: func(target, searchVal interface{}, _ bool) (bool, error) {
			t, err := d.validate(name, target)
			if err != nil {
				return false, err
			}
			if t == nil {
				return nilResult, nil
			}
			s, ok := toTime(searchVal)
			if !ok {
				return nilResult, nil
			}
			return cmp(partsOf(*t), partsOf(s)), nil
		},
	}
}

func (d *DateOperand) instantCondition(name string, cmp func(target, search time.Time) bool) *Operation {
	return &Operation{
		Name: name,
		Logic: func(target, searchVal interface{}, _ bool) (bool, error) {
			t, err := d.validate(name, target)
			if err != nil || t == nil {
				return false, err
			}
			s, ok := toTime(searchVal)
			if !ok {
				return false, nil
			}
			return cmp(*t, s), nil
		},
	}
}

// relativeCondition compares the target against the clock's current date,
// expressed in the target's location
func (d *DateOperand) relativeCondition(name string, cmp func(target, now dateParts) bool) *Operation {
	return &Operation{
		Name:    name,
		IsUnary: true,
		Logic: func(target, _ interface{}, _ bool) (bool, error) {
			t, err := d.validate(name, target)
			if err != nil || t == nil {
				return false, err
			}
			return cmp(partsOf(*t), partsOf(d.now().In(t.Location()))), nil
		},
	}
}
