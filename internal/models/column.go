package models

import "github.com/rebeliceyang/lazygrid/internal/conditions"

// Column describes a field of the row data
type Column struct {
	Field    string              `mapstructure:"field" yaml:"field"`
	Header   string              `mapstructure:"header" yaml:"header"`
	DataType conditions.DataType `mapstructure:"data_type" yaml:"data_type"`
}

// Label returns the header, falling back to the field name
func (c Column) Label() string {
	if c.Header != "" {
		return c.Header
	}
	return c.Field
}

// ColumnTypes indexes column data types by field name
func ColumnTypes(columns []Column) map[string]conditions.DataType {
	types := make(map[string]conditions.DataType, len(columns))
	for _, col := range columns {
		types[col.Field] = col.DataType
	}
	return types
}
