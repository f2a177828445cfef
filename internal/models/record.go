package models

// Row is a schema-less data row keyed by field name
type Row map[string]interface{}

// RowID identifies a row. It is either the row's (normalized) primary-key
// value or the row's identity when no primary key is configured.
// RowID values must be comparable.
type RowID interface{}

// HierarchicalRecord is a node of the tree grid
type HierarchicalRecord struct {
	RowID               RowID                 // Identity of the row
	Data                Row                   // Raw row, shared with the source data
	Parent              *HierarchicalRecord   // Parent record (nil for roots)
	Children            []*HierarchicalRecord // Child records in display order
	Level               int                   // Depth, 0 for roots
	Expanded            bool                  // Cached copy of the expansion state
	IsFilteredOutParent bool                  // Kept only because a descendant matched
}

// HasChildren reports whether the record has at least one child
func (r *HierarchicalRecord) HasChildren() bool {
	return len(r.Children) > 0
}

// Clone returns a shallow copy. Data and the Children slice are shared;
// Parent is left for the caller to rewire.
func (r *HierarchicalRecord) Clone() *HierarchicalRecord {
	return &HierarchicalRecord{
		RowID:               r.RowID,
		Data:                r.Data,
		Parent:              r.Parent,
		Children:            r.Children,
		Level:               r.Level,
		Expanded:            r.Expanded,
		IsFilteredOutParent: r.IsFilteredOutParent,
	}
}

// IsAncestorOf checks if this record is an ancestor of the given record
func (r *HierarchicalRecord) IsAncestorOf(other *HierarchicalRecord) bool {
	current := other.Parent

	for current != nil {
		if current == r {
			return true
		}
		current = current.Parent
	}

	return false
}

// Path returns the row IDs from the root down to this record
func (r *HierarchicalRecord) Path() []RowID {
	path := make([]RowID, 0, r.Level+1)
	current := r

	for current != nil {
		path = append([]RowID{current.RowID}, path...)
		current = current.Parent
	}

	return path
}

// Walk visits records depth-first, parents before children.
// Returning false from fn skips the record's children.
func Walk(records []*HierarchicalRecord, fn func(rec *HierarchicalRecord) bool) {
	for _, rec := range records {
		if fn(rec) {
			Walk(rec.Children, fn)
		}
	}
}

// DataOf returns the raw rows of a tree in depth-first order
func DataOf(records []*HierarchicalRecord) []Row {
	var rows []Row
	Walk(records, func(rec *HierarchicalRecord) bool {
		rows = append(rows, rec.Data)
		return true
	})
	return rows
}
