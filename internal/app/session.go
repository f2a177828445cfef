package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/rebeliceyang/lazygrid/internal/conditions"
	"github.com/rebeliceyang/lazygrid/internal/config"
	"github.com/rebeliceyang/lazygrid/internal/export"
	"github.com/rebeliceyang/lazygrid/internal/filter"
	"github.com/rebeliceyang/lazygrid/internal/grid"
	"github.com/rebeliceyang/lazygrid/internal/models"
	"github.com/rebeliceyang/lazygrid/internal/source"
	"github.com/rebeliceyang/lazygrid/internal/state"
)

// Session ties a configured source to a grid, the filter loader and the
// expansion-state store. It is shared by the TUI and the batch commands.
type Session struct {
	Config     *config.Config
	Logger     *slog.Logger
	Registries *conditions.Registries
	Filters    *filter.Loader
	Grid       *grid.Grid
	Fs         afero.Fs

	source     source.Loader
	store      *state.Store
	baseFilter *models.FilteringExpressionsTree
	loaded     bool
}

// SessionOption customizes a session
type SessionOption func(*Session)

// WithFs sets the filesystem used for file sources and filter files
func WithFs(fs afero.Fs) SessionOption {
	return func(s *Session) { s.Fs = fs }
}

// WithLoader replaces the source built from the configuration
func WithLoader(l source.Loader) SessionOption {
	return func(s *Session) { s.source = l }
}

// WithClock sets the clock of the relative date conditions
func WithClock(clock conditions.Clock) SessionOption {
	return func(s *Session) { s.Registries = conditions.NewRegistries(clock) }
}

// NewSession builds the grid and its collaborators from cfg
func NewSession(cfg *config.Config, logger *slog.Logger, opts ...SessionOption) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		Config: cfg,
		Logger: logger,
		Fs:     afero.NewOsFs(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Registries == nil {
		s.Registries = conditions.NewRegistries(time.Now)
	}
	s.Filters = filter.NewLoader(s.Registries, models.ColumnTypes(cfg.Columns))

	gridOpts := cfg.GridOptions(logger)
	if gridOpts.ID == "" {
		gridOpts.ID = StableGridID(cfg)
	}
	s.Grid = grid.New(gridOpts)
	s.Grid.SetSorting(cfg.SortingExpressions())

	plain, advanced, err := s.loadFilters()
	if err != nil {
		return nil, err
	}
	s.baseFilter = plain
	s.Grid.SetFilter(plain)
	s.Grid.SetAdvancedFilter(advanced)

	if s.source == nil {
		s.source, err = NewSourceLoader(cfg, s.Fs, plain, logger)
		if err != nil {
			return nil, err
		}
	}

	if cfg.State.Enabled && cfg.State.Path != "" {
		store, err := state.NewStore(cfg.State.Path)
		if err != nil {
			// The grid still works without persisted expansion
			logger.Warn("expansion state disabled", "path", cfg.State.Path, "error", err)
		} else {
			s.store = store
		}
	}

	return s, nil
}

// StableGridID derives a grid id from the source so that expansion state
// survives restarts when no grid.id is configured
func StableGridID(cfg *config.Config) string {
	parts := []string{
		cfg.Source.Type,
		cfg.Source.Path,
		cfg.Source.Host,
		cfg.Source.Database,
		cfg.Source.Table,
		cfg.Source.Query,
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(strings.Join(parts, "\x00"))).String()
}

// loadFilters resolves the configured filter file, inline tree and advanced
// filter file. An inline tree is used when no file is set.
func (s *Session) loadFilters() (*models.FilteringExpressionsTree, *models.FilteringExpressionsTree, error) {
	var plain, advanced *models.FilteringExpressionsTree
	var err error

	fc := s.Config.Filter
	switch {
	case fc.File != "":
		plain, err = s.Filters.LoadFile(s.Fs, fc.File)
		if err != nil {
			return nil, nil, fmt.Errorf("filter %s: %w", fc.File, err)
		}
	case len(fc.Tree) > 0:
		plain, err = s.Filters.FromMap(fc.Tree)
		if err != nil {
			return nil, nil, fmt.Errorf("filter.tree: %w", err)
		}
	}

	if fc.AdvancedFile != "" {
		advanced, err = s.Filters.LoadFile(s.Fs, fc.AdvancedFile)
		if err != nil {
			return nil, nil, fmt.Errorf("advanced filter %s: %w", fc.AdvancedFile, err)
		}
		advanced.Entity = models.EntityAdvanced
	}

	return plain, advanced, nil
}

// Load reads the source and runs the pipeline
func (s *Session) Load(ctx context.Context) error {
	rows, err := s.Fetch(ctx)
	if err != nil {
		return err
	}
	return s.Apply(ctx, rows)
}

// Fetch reads the source rows and coerces typed columns. It does not touch
// the grid, so it may run off the goroutine that owns the grid.
func (s *Session) Fetch(ctx context.Context) ([]models.Row, error) {
	rows, err := s.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rows: %w", err)
	}
	if err := source.ApplyColumnTypes(rows, s.Config.Columns, s.Config.Grid.ChildDataKey); err != nil {
		return nil, err
	}
	return rows, nil
}

// Apply hands fetched rows to the grid and runs the pipeline. The first
// call restores the saved expansion state.
func (s *Session) Apply(ctx context.Context, rows []models.Row) error {
	s.Grid.SetData(rows)

	if !s.loaded && s.store != nil {
		saved, err := s.store.Load(ctx, s.Grid.ID())
		if err != nil {
			s.Logger.Warn("failed to load expansion state", "error", err)
		} else {
			s.Grid.RestoreExpansion(saved)
		}
	}
	s.loaded = true

	if err := s.Grid.Process(); err != nil {
		return err
	}

	s.Logger.Info("rows loaded",
		"rows", len(rows),
		"records", len(s.Grid.Records()),
		"roots", len(s.Grid.RootRecords()),
		"visible", len(s.Grid.Flattened()))
	return nil
}

// Save persists the expansion state of the grid
func (s *Session) Save(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Save(ctx, s.Grid.ID(), s.Grid.ExpansionSnapshot()); err != nil {
		return fmt.Errorf("failed to save expansion state: %w", err)
	}
	return nil
}

// ApplyQuickFilter ANDs a quick-filter spec with the configured filter.
// A spec without operands restores the configured filter.
func (s *Session) ApplyQuickFilter(spec filter.Spec) error {
	if len(spec.Operands) == 0 {
		s.Grid.SetFilter(s.baseFilter)
		return s.Grid.Process()
	}
	quick, err := s.Filters.Build(spec)
	if err != nil {
		return err
	}

	tree := quick
	if !models.Empty(s.baseFilter) {
		tree = models.NewFilteringExpressionsTree(models.And, "")
		tree.Add(s.baseFilter)
		tree.Add(quick)
	}
	s.Grid.SetFilter(tree)
	return s.Grid.Process()
}

// Columns returns the configured columns, or the union of the row keys
func (s *Session) Columns() []models.Column {
	if len(s.Config.Columns) > 0 {
		return s.Config.Columns
	}
	return s.table().Columns
}

// table builds the export table from the filtered and sorted rows, or
// from the visible rows only when export.visible is set
func (s *Session) table() *export.Table {
	rows := s.Grid.FilteredSortedData()
	if s.Config.Export.Visible {
		rows = s.Grid.ProcessedExpandedFlatData()
	}

	var exclude []string
	if key := s.Config.Grid.ChildDataKey; key != "" {
		exclude = append(exclude, key)
	}
	return export.NewTable(rows, s.Config.Columns, exclude...)
}

// Export writes the processed rows to dir in every configured format
func (s *Session) Export(ctx context.Context, dir string) ([]string, error) {
	return s.exportTable(ctx, s.table(), dir)
}

// exportTable writes a table built earlier, so the grid may change while
// the files are written
func (s *Session) exportTable(ctx context.Context, t *export.Table, dir string) ([]string, error) {
	if dir == "" {
		dir = s.Config.Export.Dir
	}
	if dir == "" {
		dir = "."
	}
	paths, err := export.ExportAll(ctx, t, dir, baseName(s.Config), s.Config.Export.Formats)
	if err != nil {
		return nil, err
	}
	s.Logger.Info("exported", "files", paths)
	return paths, nil
}

// Close releases the state store
func (s *Session) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

func baseName(cfg *config.Config) string {
	if cfg.Source.Table != "" {
		return cfg.Source.Table
	}
	if cfg.Grid.ID != "" {
		return cfg.Grid.ID
	}
	return "lazygrid"
}
