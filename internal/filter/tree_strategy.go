package filter

import (
	"github.com/rebeliceyang/lazygrid/internal/models"
)

func recordFieldValue(rec *models.HierarchicalRecord, fieldName string) interface{} {
	return rec.Data[fieldName]
}

// TreeFilteringStrategy filters hierarchical records. A record survives when
// it matches or when one of its descendants does; in the latter case it is
// flagged as a filtered-out parent.
type TreeFilteringStrategy struct {
	matcher matcher[*models.HierarchicalRecord]
}

// NewTreeFilteringStrategy creates a strategy reading fields from record data
func NewTreeFilteringStrategy() *TreeFilteringStrategy {
	return &TreeFilteringStrategy{
		matcher: matcher[*models.HierarchicalRecord]{fieldValue: recordFieldValue},
	}
}

// NewNestedTreeFilteringStrategy resolves dotted field paths inside record data
func NewNestedTreeFilteringStrategy() *TreeFilteringStrategy {
	return &TreeFilteringStrategy{
		matcher: matcher[*models.HierarchicalRecord]{
			fieldValue: func(rec *models.HierarchicalRecord, fieldName string) interface{} {
				return ResolveNestedPath(rec.Data, fieldName)
			},
		},
	}
}

// Filter returns cloned records that survive both trees. Input records are
// not modified. When both trees are empty data is returned as is.
func (s *TreeFilteringStrategy) Filter(data []*models.HierarchicalRecord, expressionsTree, advancedTree *models.FilteringExpressionsTree) ([]*models.HierarchicalRecord, error) {
	if models.Empty(expressionsTree) && models.Empty(advancedTree) {
		return data, nil
	}
	return s.filter(data, expressionsTree, advancedTree, nil)
}

func (s *TreeFilteringStrategy) filter(data []*models.HierarchicalRecord, expressionsTree, advancedTree *models.FilteringExpressionsTree, parent *models.HierarchicalRecord) ([]*models.HierarchicalRecord, error) {
	res := make([]*models.HierarchicalRecord, 0, len(data))

	for _, original := range data {
		rec := original.Clone()
		rec.Parent = parent

		if rec.Children != nil {
			children, err := s.filter(rec.Children, expressionsTree, advancedTree, rec)
			if err != nil {
				return nil, err
			}
			if len(children) > 0 {
				rec.Children = children
			} else {
				rec.Children = nil
			}
		}

		match, err := s.matches(rec, expressionsTree, advancedTree)
		if err != nil {
			return nil, err
		}

		if match {
			res = append(res, rec)
		} else if rec.HasChildren() {
			rec.IsFilteredOutParent = true
			res = append(res, rec)
		}
	}

	return res, nil
}

func (s *TreeFilteringStrategy) matches(rec *models.HierarchicalRecord, expressionsTree, advancedTree *models.FilteringExpressionsTree) (bool, error) {
	match, err := s.matcher.matchRecord(rec, expressionsTree)
	if err != nil || !match {
		return false, err
	}
	return s.matcher.matchRecord(rec, advancedTree)
}
