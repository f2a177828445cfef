package conditions

import (
	"strings"

	"github.com/spf13/cast"
	"golang.org/x/text/cases"
)

// applyIgnoreCase coerces nil to "" and case-folds when ignoreCase is set
func applyIgnoreCase(v interface{}, ignoreCase bool) string {
	if isNil(v) {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	if ignoreCase {
		return cases.Fold().String(s)
	}
	return s
}

func isEmptyString(v interface{}) bool {
	if isNil(v) {
		return true
	}
	s, ok := v.(string)
	return ok && len(s) == 0
}

// StringOperand holds the string conditions
type StringOperand struct {
	*Operand
}

// NewStringOperand builds the string condition set
func NewStringOperand() *StringOperand {
	s := &StringOperand{Operand: newOperand()}
	s.add(
		textCondition("contains", strings.Contains),
		textCondition("doesNotContain", func(target, search string) bool {
			return !strings.Contains(target, search)
		}),
		textCondition("startsWith", strings.HasPrefix),
		textCondition("endsWith", strings.HasSuffix),
		textCondition("equals", func(target, search string) bool {
			return target == search
		}),
		textCondition("doesNotEqual", func(target, search string) bool {
			return target != search
		}),
		&Operation{
			Name:    "empty",
			IsUnary: true,
			Logic: func(target, _ interface{}, _ bool) (bool, error) {
				return isEmptyString(target), nil
			},
		},
		&Operation{
			Name:    "notEmpty",
			IsUnary: true,
			Logic: func(target, _ interface{}, _ bool) (bool, error) {
				return !isEmptyString(target), nil
			},
		},
	)
	return s
}

func textCondition(name string, cmp func(target, search string) bool) *Operation {
	return &Operation{
		Name: name,
		Logic: func(target, searchVal interface{}, ignoreCase bool) (bool, error) {
			return cmp(applyIgnoreCase(target, ignoreCase), applyIgnoreCase(searchVal, ignoreCase)), nil
		},
	}
}
