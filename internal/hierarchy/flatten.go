package hierarchy

import (
	"github.com/rebeliceyang/lazygrid/internal/models"
)

// Flatten returns the visible records in depth-first order. Every record is
// visited, collapsed or not: its Expanded flag is refreshed from expanded
// and sync, if set, is called with it so the caller can update canonical
// state. Only records whose ancestors are all expanded are returned.
func Flatten(roots []*models.HierarchicalRecord, expanded ExpansionFunc, sync func(rec *models.HierarchicalRecord)) []*models.HierarchicalRecord {
	data := make([]*models.HierarchicalRecord, 0, len(roots))
	flattenRecursive(roots, expanded, sync, true, &data)
	return data
}

func flattenRecursive(records []*models.HierarchicalRecord, expanded ExpansionFunc, sync func(rec *models.HierarchicalRecord), parentExpanded bool, data *[]*models.HierarchicalRecord) {
	for _, rec := range records {
		if parentExpanded {
			*data = append(*data, rec)
		}

		if expanded != nil {
			rec.Expanded = expanded(rec)
		}
		if sync != nil {
			sync(rec)
		}

		flattenRecursive(rec.Children, expanded, sync, parentExpanded && rec.Expanded, data)
	}
}
