package hierarchy

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/rebeliceyang/lazygrid/internal/models"
)

func flattenFixture() Result {
	return Hierarchize([]models.Row{
		{"id": 1},
		{"id": 2, "parentId": 1},
		{"id": 3, "parentId": 2},
		{"id": 4, "parentId": 1},
		{"id": 5},
	}, fkKeys, nil)
}

func TestFlatten_CollapsedHidesDescendants(t *testing.T) {
	res := flattenFixture()
	state := map[models.RowID]bool{1.0: true, 2.0: false}
	expanded := func(r *models.HierarchicalRecord) bool { return state[r.RowID] }

	flat := Flatten(res.Roots, expanded, nil)

	if diff := cmp.Diff([]models.RowID{1.0, 2.0, 4.0, 5.0}, rowIDs(flat)); diff != "" {
		t.Errorf("visible rows mismatch (-want +got):\n%s", diff)
	}
}

func TestFlatten_CollapsedRootHidesAll(t *testing.T) {
	res := flattenFixture()
	state := map[models.RowID]bool{2.0: true}
	expanded := func(r *models.HierarchicalRecord) bool { return state[r.RowID] }

	flat := Flatten(res.Roots, expanded, nil)

	if diff := cmp.Diff([]models.RowID{1.0, 5.0}, rowIDs(flat)); diff != "" {
		t.Errorf("visible rows mismatch (-want +got):\n%s", diff)
	}
	// Hidden records still get their flag refreshed
	if !res.Records[2.0].Expanded {
		t.Error("expected hidden record 2 to be marked expanded")
	}
}

func TestFlatten_SyncVisitsEveryRecord(t *testing.T) {
	res := flattenFixture()
	var visited []models.RowID

	Flatten(res.Roots, func(*models.HierarchicalRecord) bool { return false }, func(r *models.HierarchicalRecord) {
		visited = append(visited, r.RowID)
	})

	if diff := cmp.Diff([]models.RowID{1.0, 2.0, 3.0, 4.0, 5.0}, visited); diff != "" {
		t.Errorf("visited mismatch (-want +got):\n%s", diff)
	}
}

func TestFlatten_Empty(t *testing.T) {
	flat := Flatten(nil, allExpanded, nil)
	if len(flat) != 0 {
		t.Errorf("expected no rows, got %d", len(flat))
	}
}
