package grid

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/rebeliceyang/lazygrid/internal/filter"
	"github.com/rebeliceyang/lazygrid/internal/hierarchy"
	"github.com/rebeliceyang/lazygrid/internal/models"
)

// ErrRowNotFound is returned for row IDs without a canonical record
var ErrRowNotFound = errors.New("row not found")

// Options configures a Grid
type Options struct {
	// ID identifies the grid in logs and in the expansion-state store.
	// A random UUID is used when empty.
	ID string

	Keys hierarchy.Keys

	// ExpansionDepth expands records with children above this level when no
	// explicit state exists. Negative means unlimited.
	ExpansionDepth int

	// ExpandOnFilter marks every record with surviving children as expanded
	// after filtering so that matches are visible.
	ExpandOnFilter bool

	// NestedFields resolves dotted field names in filters ("address.city").
	NestedFields bool

	// Logger for pipeline events. Optional, defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns options with every level expanded and
// expand-on-filter enabled
func DefaultOptions() Options {
	return Options{ExpansionDepth: -1, ExpandOnFilter: true}
}

type stage int

const (
	stageClean stage = iota
	stageFlatten
	stageSort
	stageFilter
	stageHierarchy
)

// Grid runs the tree-grid data pipeline: hierarchize, filter, sort and
// flatten. It owns the canonical record map and the expansion-state map.
// A Grid is not safe for concurrent use.
type Grid struct {
	id     string
	opts   Options
	logger *slog.Logger

	data     []models.Row
	filter   *models.FilteringExpressionsTree
	advanced *models.FilteringExpressionsTree
	sorting  []models.SortingExpression
	strategy *filter.TreeFilteringStrategy

	expansionStates map[models.RowID]bool
	pendingRestore  map[string]bool
	dirty           stage

	records                   map[models.RowID]*models.HierarchicalRecord
	rootRecords               []*models.HierarchicalRecord
	flatData                  []models.Row
	filteredRoots             []*models.HierarchicalRecord
	filteredData              []models.Row
	processedRootRecords      []*models.HierarchicalRecord
	filteredSortedData        []models.Row
	processedRecords          map[models.RowID]*models.HierarchicalRecord
	flattened                 []*models.HierarchicalRecord
	processedExpandedFlatData []models.Row
}

// New creates a grid
func New(opts Options) *Grid {
	if opts.ID == "" {
		opts.ID = uuid.New().String()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	strategy := filter.NewTreeFilteringStrategy()
	if opts.NestedFields {
		strategy = filter.NewNestedTreeFilteringStrategy()
	}

	return &Grid{
		id:               opts.ID,
		opts:             opts,
		logger:           logger.With("grid", opts.ID),
		strategy:         strategy,
		expansionStates:  make(map[models.RowID]bool),
		records:          make(map[models.RowID]*models.HierarchicalRecord),
		processedRecords: make(map[models.RowID]*models.HierarchicalRecord),
		dirty:            stageHierarchy,
	}
}

func (g *Grid) invalidate(s stage) {
	if s > g.dirty {
		g.dirty = s
	}
}

// ID returns the grid identifier
func (g *Grid) ID() string { return g.id }

// Keys returns the configured hierarchy keys
func (g *Grid) Keys() hierarchy.Keys { return g.opts.Keys }

// SetData replaces the source rows
func (g *Grid) SetData(rows []models.Row) {
	g.data = rows
	g.invalidate(stageHierarchy)
}

// SetKeys changes the hierarchy keys
func (g *Grid) SetKeys(keys hierarchy.Keys) {
	g.opts.Keys = keys
	g.invalidate(stageHierarchy)
}

// SetFilter sets the column filter tree. nil clears it.
func (g *Grid) SetFilter(tree *models.FilteringExpressionsTree) {
	g.filter = tree
	g.invalidate(stageFilter)
}

// Filter returns the column filter tree
func (g *Grid) Filter() *models.FilteringExpressionsTree { return g.filter }

// SetAdvancedFilter sets the advanced filter tree. nil clears it.
func (g *Grid) SetAdvancedFilter(tree *models.FilteringExpressionsTree) {
	g.advanced = tree
	g.invalidate(stageFilter)
}

// AdvancedFilter returns the advanced filter tree
func (g *Grid) AdvancedFilter() *models.FilteringExpressionsTree { return g.advanced }

// SetSorting sets the sorting expressions. nil clears them.
func (g *Grid) SetSorting(exprs []models.SortingExpression) {
	g.sorting = exprs
	g.invalidate(stageSort)
}

// Sorting returns the sorting expressions
func (g *Grid) Sorting() []models.SortingExpression { return g.sorting }

// Process runs every stage invalidated since the last call
func (g *Grid) Process() error {
	if g.dirty == stageClean {
		return nil
	}

	if g.dirty >= stageHierarchy {
		g.hierarchize()
	}
	if g.dirty >= stageFilter {
		if err := g.applyFilter(); err != nil {
			return err
		}
	}
	if g.dirty >= stageSort {
		g.processedRootRecords = hierarchy.Sort(g.filteredRoots, g.sorting)
		g.filteredSortedData = models.DataOf(g.processedRootRecords)
	}
	g.flatten()

	g.dirty = stageClean
	g.logger.Debug("grid processed",
		"rows", len(g.flatData),
		"roots", len(g.rootRecords),
		"visible", len(g.flattened),
	)
	return nil
}

func (g *Grid) hierarchize() {
	keys := g.opts.Keys
	if keys.Mode() == hierarchy.ModeNone {
		g.logger.Debug("no hierarchy keys configured, grid is empty",
			"primary_key", keys.PrimaryKey,
			"foreign_key", keys.ForeignKey,
			"child_data_key", keys.ChildDataKey,
		)
	}

	res := hierarchy.Hierarchize(g.data, keys, g.isExpanded)
	g.records = res.Records
	g.rootRecords = res.Roots
	g.flatData = res.FlatData

	if g.pendingRestore != nil {
		g.applyRestore(g.pendingRestore)
		g.pendingRestore = nil
	}

	g.logger.Debug("hierarchized", "mode", keys.Mode().String(), "records", len(g.records))
}

func (g *Grid) applyFilter() error {
	for _, rec := range g.records {
		rec.IsFilteredOutParent = false
	}

	if models.Empty(g.filter) && models.Empty(g.advanced) {
		g.filteredRoots = g.rootRecords
		g.filteredData = nil
		return nil
	}

	filtered, err := g.strategy.Filter(g.rootRecords, g.filter, g.advanced)
	if err != nil {
		return fmt.Errorf("failed to filter grid %s: %w", g.id, err)
	}

	models.Walk(filtered, func(rec *models.HierarchicalRecord) bool {
		if canonical, ok := g.records[rec.RowID]; ok {
			canonical.IsFilteredOutParent = rec.IsFilteredOutParent
		}
		if g.opts.ExpandOnFilter && rec.HasChildren() {
			g.expansionStates[rec.RowID] = true
		}
		return true
	})

	g.filteredRoots = filtered
	g.filteredData = models.DataOf(filtered)

	g.logger.Debug("filtered", "matched", len(g.filteredData))
	return nil
}

func (g *Grid) flatten() {
	processed := make(map[models.RowID]*models.HierarchicalRecord, len(g.records))

	g.flattened = hierarchy.Flatten(g.processedRootRecords, g.isExpanded, func(rec *models.HierarchicalRecord) {
		processed[rec.RowID] = rec
		if canonical, ok := g.records[rec.RowID]; ok {
			canonical.Expanded = rec.Expanded
		}
	})
	g.processedRecords = processed

	g.processedExpandedFlatData = make([]models.Row, len(g.flattened))
	for i, rec := range g.flattened {
		g.processedExpandedFlatData[i] = rec.Data
	}
}

// Records returns the canonical record map
func (g *Grid) Records() map[models.RowID]*models.HierarchicalRecord { return g.records }

// Record returns the canonical record for id
func (g *Grid) Record(id models.RowID) (*models.HierarchicalRecord, bool) {
	rec, ok := g.records[id]
	return rec, ok
}

// RootRecords returns the roots of the unfiltered tree
func (g *Grid) RootRecords() []*models.HierarchicalRecord { return g.rootRecords }

// ProcessedRootRecords returns the roots after filtering and sorting
func (g *Grid) ProcessedRootRecords() []*models.HierarchicalRecord { return g.processedRootRecords }

// ProcessedRecords maps row IDs to the records of the processed tree
func (g *Grid) ProcessedRecords() map[models.RowID]*models.HierarchicalRecord {
	return g.processedRecords
}

// Flattened returns the visible records in display order
func (g *Grid) Flattened() []*models.HierarchicalRecord { return g.flattened }

// FlatData returns every row in hierarchical order
func (g *Grid) FlatData() []models.Row { return g.flatData }

// FilteredData returns the rows surviving the filters in hierarchical order,
// or nil when no filter is active
func (g *Grid) FilteredData() []models.Row { return g.filteredData }

// FilteredSortedData returns the rows of the processed tree in display order
func (g *Grid) FilteredSortedData() []models.Row { return g.filteredSortedData }

// ProcessedExpandedFlatData returns the rows of the visible records
func (g *Grid) ProcessedExpandedFlatData() []models.Row { return g.processedExpandedFlatData }
