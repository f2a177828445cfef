package filter

import (
	"testing"

	"github.com/rebeliceyang/lazygrid/internal/models"
)

// buildTree wires parent pointers and levels for hand-built fixtures
func buildTree(records []*models.HierarchicalRecord, parent *models.HierarchicalRecord, level int) []*models.HierarchicalRecord {
	for _, r := range records {
		r.Parent = parent
		r.Level = level
		buildTree(r.Children, r, level+1)
	}
	return records
}

func rec(id int, name string, children ...*models.HierarchicalRecord) *models.HierarchicalRecord {
	return &models.HierarchicalRecord{
		RowID:    float64(id),
		Data:     models.Row{"id": id, "name": name},
		Children: children,
	}
}

// testHierarchy:
//
//	1 Sales
//	  2 Alice
//	    3 Bob
//	  4 Carol
//	5 Support
//	  6 Dave
func testHierarchy() []*models.HierarchicalRecord {
	return buildTree([]*models.HierarchicalRecord{
		rec(1, "Sales",
			rec(2, "Alice", rec(3, "Bob")),
			rec(4, "Carol"),
		),
		rec(5, "Support", rec(6, "Dave")),
	}, nil, 0)
}

func nameTree(condition, value string) *models.FilteringExpressionsTree {
	tree := models.NewFilteringExpressionsTree(models.And, "")
	tree.Add(stringExpr("name", condition, value, true))
	return tree
}

func TestTreeFilteringStrategy_BothEmptyReturnsInput(t *testing.T) {
	s := NewTreeFilteringStrategy()
	data := testHierarchy()

	res, err := s.Filter(data, nil, models.NewFilteringExpressionsTree(models.Or, ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res) != len(data) {
		t.Fatalf("expected %d roots, got %d", len(data), len(res))
	}
	for i := range data {
		if res[i] != data[i] {
			t.Errorf("expected root %d to be the original record", i)
		}
	}
}

func TestTreeFilteringStrategy_KeepsAncestors(t *testing.T) {
	s := NewTreeFilteringStrategy()

	res, err := s.Filter(testHierarchy(), nameTree("equals", "bob"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res) != 1 {
		t.Fatalf("expected 1 root, got %d", len(res))
	}
	sales := res[0]
	if sales.RowID != float64(1) || !sales.IsFilteredOutParent {
		t.Errorf("expected Sales retained as filtered-out parent, got %v (%v)", sales.RowID, sales.IsFilteredOutParent)
	}
	if len(sales.Children) != 1 {
		t.Fatalf("expected 1 child of Sales, got %d", len(sales.Children))
	}
	alice := sales.Children[0]
	if alice.RowID != float64(2) || !alice.IsFilteredOutParent {
		t.Errorf("expected Alice retained as filtered-out parent")
	}
	if alice.Parent != sales {
		t.Error("expected Alice's parent to be the cloned Sales record")
	}
	if len(alice.Children) != 1 || alice.Children[0].RowID != float64(3) {
		t.Fatalf("expected Bob under Alice")
	}
	bob := alice.Children[0]
	if bob.IsFilteredOutParent {
		t.Error("expected Bob to match directly")
	}
	if bob.Children != nil {
		t.Error("expected leaf children to stay nil")
	}
}

func TestTreeFilteringStrategy_MatchingParentKeepsOnlyMatchingChildren(t *testing.T) {
	s := NewTreeFilteringStrategy()

	res, err := s.Filter(testHierarchy(), nameTree("startsWith", "s"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(res))
	}
	for _, r := range res {
		if r.IsFilteredOutParent {
			t.Errorf("expected root %v to match directly", r.RowID)
		}
		if r.Children != nil {
			t.Errorf("expected no surviving children under %v, got %d", r.RowID, len(r.Children))
		}
	}
}

func TestTreeFilteringStrategy_DoesNotMutateInput(t *testing.T) {
	s := NewTreeFilteringStrategy()
	data := testHierarchy()

	if _, err := s.Filter(data, nameTree("equals", "carol"), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sales := data[0]
	if sales.IsFilteredOutParent {
		t.Error("expected original record flags untouched")
	}
	if len(sales.Children) != 2 {
		t.Errorf("expected original children untouched, got %d", len(sales.Children))
	}
	if sales.Children[0].Parent != sales {
		t.Error("expected original parent pointers untouched")
	}
}

func TestTreeFilteringStrategy_AdvancedTreeMustAlsoMatch(t *testing.T) {
	s := NewTreeFilteringStrategy()
	advanced := nameTree("contains", "a")
	advanced.Entity = models.EntityAdvanced

	res, err := s.Filter(testHierarchy(), nameTree("doesNotContain", "s"), advanced)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Alice, Carol and Dave match both trees; Sales and Support are kept as parents
	var matched []interface{}
	var parents []interface{}
	models.Walk(res, func(r *models.HierarchicalRecord) bool {
		if r.IsFilteredOutParent {
			parents = append(parents, r.RowID)
		} else {
			matched = append(matched, r.RowID)
		}
		return true
	})

	if len(matched) != 3 || matched[0] != float64(2) || matched[1] != float64(4) || matched[2] != float64(6) {
		t.Errorf("expected matches [2 4 6], got %v", matched)
	}
	if len(parents) != 2 || parents[0] != float64(1) || parents[1] != float64(5) {
		t.Errorf("expected filtered-out parents [1 5], got %v", parents)
	}
}

func TestTreeFilteringStrategy_FilteredOutParentsHaveMatchingDescendants(t *testing.T) {
	s := NewTreeFilteringStrategy()
	queries := []*models.FilteringExpressionsTree{
		nameTree("equals", "bob"),
		nameTree("contains", "o"),
		nameTree("endsWith", "e"),
		nameTree("equals", "nobody"),
	}

	var check func(r *models.HierarchicalRecord, tree *models.FilteringExpressionsTree) bool
	check = func(r *models.HierarchicalRecord, tree *models.FilteringExpressionsTree) bool {
		match, err := s.matcher.matchRecord(r, tree)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if match && !r.IsFilteredOutParent {
			return true
		}
		for _, c := range r.Children {
			if check(c, tree) {
				return true
			}
		}
		return false
	}

	for _, q := range queries {
		res, err := s.Filter(testHierarchy(), q, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		models.Walk(res, func(r *models.HierarchicalRecord) bool {
			if r.IsFilteredOutParent {
				if !r.HasChildren() {
					t.Errorf("record %v flagged without children", r.RowID)
				}
				if !check(r, q) {
					t.Errorf("record %v flagged without a matching descendant", r.RowID)
				}
			}
			return true
		})
	}
}

func TestTreeFilteringStrategy_NestedFieldResolution(t *testing.T) {
	data := []*models.HierarchicalRecord{
		{RowID: "a", Data: models.Row{"meta": map[string]interface{}{"team": "core"}}},
		{RowID: "b", Data: models.Row{"meta": map[string]interface{}{"team": "docs"}}},
	}
	tree := models.NewFilteringExpressionsTree(models.And, "")
	tree.Add(stringExpr("meta.team", "equals", "docs", false))

	res, err := NewTreeFilteringStrategy().Filter(data, tree, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res) != 0 {
		t.Errorf("expected direct reads to match nothing, got %d", len(res))
	}

	res, err = NewNestedTreeFilteringStrategy().Filter(data, tree, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res) != 1 || res[0].RowID != "b" {
		t.Errorf("expected [b], got %v", res)
	}
}
