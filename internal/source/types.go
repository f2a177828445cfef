package source

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/spf13/cast"

	"github.com/rebeliceyang/lazygrid/internal/conditions"
	"github.com/rebeliceyang/lazygrid/internal/hierarchy"
	"github.com/rebeliceyang/lazygrid/internal/models"
)

// ApplyColumnTypes coerces typed columns in place so that filter conditions
// receive float64, bool and time.Time values. Nested child rows under
// childDataKey are coerced too. Empty strings become nil.
func ApplyColumnTypes(rows []models.Row, columns []models.Column, childDataKey string) error {
	typed := make([]models.Column, 0, len(columns))
	for _, col := range columns {
		if col.DataType != "" && col.DataType != conditions.DataTypeString {
			typed = append(typed, col)
		}
	}
	if len(typed) == 0 {
		return nil
	}
	return applyTypes(rows, typed, childDataKey)
}

func applyTypes(rows []models.Row, columns []models.Column, childDataKey string) error {
	for i, row := range rows {
		for _, col := range columns {
			v, ok := row[col.Field]
			if !ok {
				continue
			}
			coerced, err := CoerceValue(v, col.DataType)
			if err != nil {
				return fmt.Errorf("row %d, field '%s': %w", i, col.Field, err)
			}
			row[col.Field] = coerced
		}

		if childDataKey != "" {
			children := hierarchy.ChildRows(row[childDataKey])
			if err := applyTypes(children, columns, childDataKey); err != nil {
				return fmt.Errorf("children of row %d: %w", i, err)
			}
		}
	}
	return nil
}

// CoerceValue converts a raw cell value to the Go type used for dataType
func CoerceValue(v interface{}, dataType conditions.DataType) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return nil, nil
	}

	var (
		out interface{}
		err error
	)
	switch dataType {
	case conditions.DataTypeNumber:
		if n, ok := v.(pgtype.Numeric); ok {
			if v = normalizeDriverValue(n); v == nil {
				return nil, nil
			}
		}
		out, err = cast.ToFloat64E(v)
	case conditions.DataTypeBoolean:
		out, err = cast.ToBoolE(v)
	case conditions.DataTypeDate:
		if t, ok := v.(time.Time); ok {
			return t, nil
		}
		out, err = cast.ToTimeE(v)
	default:
		return v, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w %v to %s: %v", ErrCoerce, v, dataType, err)
	}
	return out, nil
}

// normalizeDriverValue converts driver-specific values to plain Go values
func normalizeDriverValue(v interface{}) interface{} {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case [16]byte:
		return uuid.UUID(val).String()
	case pgtype.Numeric:
		f8, err := val.Float64Value()
		if err != nil || !f8.Valid {
			return nil
		}
		return f8.Float64
	default:
		return v
	}
}
