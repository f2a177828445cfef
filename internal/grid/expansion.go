package grid

import (
	"fmt"

	"github.com/rebeliceyang/lazygrid/internal/hierarchy"
	"github.com/rebeliceyang/lazygrid/internal/models"
)

// isExpanded resolves the expansion state of a record: an explicit state
// wins, otherwise records with children above the expansion depth expand
func (g *Grid) isExpanded(rec *models.HierarchicalRecord) bool {
	if state, ok := g.expansionStates[rec.RowID]; ok {
		return state
	}
	depth := g.opts.ExpansionDepth
	return rec.HasChildren() && (depth < 0 || rec.Level < depth)
}

// IsExpanded reports the current expansion state of a row
func (g *Grid) IsExpanded(id models.RowID) bool {
	if rec, ok := g.processedRecords[id]; ok {
		return g.isExpanded(rec)
	}
	if rec, ok := g.records[id]; ok {
		return g.isExpanded(rec)
	}
	return g.expansionStates[id]
}

// SetRowExpansion records an explicit expansion state for a row
func (g *Grid) SetRowExpansion(id models.RowID, expanded bool) {
	g.expansionStates[id] = expanded
	g.invalidate(stageFlatten)
}

// ToggleRow flips the expansion state of a row and returns the new state
func (g *Grid) ToggleRow(id models.RowID) (bool, error) {
	if _, ok := g.records[id]; !ok {
		return false, fmt.Errorf("%w: %v", ErrRowNotFound, id)
	}
	expanded := !g.IsExpanded(id)
	g.SetRowExpansion(id, expanded)
	return expanded, nil
}

// ExpandAll drops explicit states and expands every level
func (g *Grid) ExpandAll() {
	g.opts.ExpansionDepth = -1
	g.expansionStates = make(map[models.RowID]bool)
	g.invalidate(stageFlatten)
}

// CollapseAll drops explicit states and collapses every level
func (g *Grid) CollapseAll() {
	g.opts.ExpansionDepth = 0
	g.expansionStates = make(map[models.RowID]bool)
	g.invalidate(stageFlatten)
}

// SetExpansionDepth changes the default expansion depth
func (g *Grid) SetExpansionDepth(depth int) {
	g.opts.ExpansionDepth = depth
	g.invalidate(stageFlatten)
}

// ExpansionStates returns the explicit expansion states
func (g *Grid) ExpansionStates() map[models.RowID]bool { return g.expansionStates }

// ExpansionSnapshot returns the explicit states keyed by printable row key.
// Rows identified by address are skipped.
func (g *Grid) ExpansionSnapshot() map[string]bool {
	snapshot := make(map[string]bool, len(g.expansionStates))
	for id, expanded := range g.expansionStates {
		if _, ok := id.(hierarchy.Identity); ok || id == nil {
			continue
		}
		snapshot[hierarchy.KeyString(id)] = expanded
	}
	return snapshot
}

// RestoreExpansion applies a snapshot taken by ExpansionSnapshot. Keys are
// matched against the current records, so it is deferred until the next
// hierarchization when data is pending.
func (g *Grid) RestoreExpansion(saved map[string]bool) {
	if len(saved) == 0 {
		return
	}
	if g.dirty >= stageHierarchy {
		g.pendingRestore = saved
		return
	}
	g.applyRestore(saved)
	g.invalidate(stageFlatten)
}

func (g *Grid) applyRestore(saved map[string]bool) {
	restored := 0
	for id := range g.records {
		if expanded, ok := saved[hierarchy.KeyString(id)]; ok {
			g.expansionStates[id] = expanded
			restored++
		}
	}
	g.logger.Debug("restored expansion states", "saved", len(saved), "restored", restored)
}
