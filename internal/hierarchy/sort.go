package hierarchy

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"
	"golang.org/x/text/cases"

	"github.com/rebeliceyang/lazygrid/internal/models"
)

// Sort returns a copy of the tree with every sibling list stably sorted by
// exprs. Records are cloned; the input is left untouched. Without
// expressions the input is returned as is.
func Sort(roots []*models.HierarchicalRecord, exprs []models.SortingExpression) []*models.HierarchicalRecord {
	active := make([]models.SortingExpression, 0, len(exprs))
	for _, e := range exprs {
		if e.Dir != models.SortNone {
			active = append(active, e)
		}
	}
	if len(active) == 0 {
		return roots
	}
	s := &sorter{exprs: active, fold: cases.Fold()}
	return s.sortRecursive(roots, nil)
}

type sorter struct {
	exprs []models.SortingExpression
	fold  cases.Caser
}

func (s *sorter) sortRecursive(records []*models.HierarchicalRecord, parent *models.HierarchicalRecord) []*models.HierarchicalRecord {
	if records == nil {
		return nil
	}

	sorted := make([]*models.HierarchicalRecord, len(records))
	for i, original := range records {
		rec := original.Clone()
		rec.Parent = parent
		rec.Children = s.sortRecursive(original.Children, rec)
		sorted[i] = rec
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return s.compareRecords(sorted[i].Data, sorted[j].Data) < 0
	})
	return sorted
}

func (s *sorter) compareRecords(a, b models.Row) int {
	for _, e := range s.exprs {
		var fold *cases.Caser
		if e.IgnoreCase {
			fold = &s.fold
		}
		c := compareValues(a[e.FieldName], b[e.FieldName], fold)
		if e.Dir == models.SortDesc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// CompareValues orders two cell values. nil sorts first; numbers, times,
// booleans and strings compare naturally; anything else compares by its
// string form.
func CompareValues(a, b interface{}, ignoreCase bool) int {
	if ignoreCase {
		fold := cases.Fold()
		return compareValues(a, b, &fold)
	}
	return compareValues(a, b, nil)
}

func compareValues(a, b interface{}, fold *cases.Caser) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Compare(bt)
		}
	}

	if ab, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ab == bb:
				return 0
			case !ab:
				return -1
			default:
				return 1
			}
		}
	}

	if isNumeric(a) && isNumeric(b) {
		af, bf := cast.ToFloat64(a), cast.ToFloat64(b)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}

	as, bs := toString(a), toString(b)
	if fold != nil {
		as, bs = fold.String(as), fold.String(bs)
	}
	return strings.Compare(as, bs)
}

func toString(v interface{}) string {
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	return fmt.Sprint(v)
}

func isNumeric(v interface{}) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	default:
		return false
	}
}
