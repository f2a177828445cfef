package models

import "strings"

// SortDirection is the direction of a sorting expression
type SortDirection int

const (
	SortNone SortDirection = iota
	SortAsc
	SortDesc
)

// ParseSortDirection maps "asc"/"desc" (any case) to a direction. Anything else is SortNone.
func ParseSortDirection(s string) SortDirection {
	switch strings.ToLower(s) {
	case "asc":
		return SortAsc
	case "desc":
		return SortDesc
	default:
		return SortNone
	}
}

func (d SortDirection) String() string {
	switch d {
	case SortAsc:
		return "asc"
	case SortDesc:
		return "desc"
	default:
		return "none"
	}
}

// SortingExpression sorts records by one field
type SortingExpression struct {
	FieldName  string
	Dir        SortDirection
	IgnoreCase bool
}
