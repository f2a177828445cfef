package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"

	"github.com/rebeliceyang/lazygrid/internal/conditions"
	"github.com/rebeliceyang/lazygrid/internal/hierarchy"
	"github.com/rebeliceyang/lazygrid/internal/models"
)

const sampleConfig = `
grid:
  primary_key: id
  foreign_key: parent_id
  expansion_depth: 1
source:
  type: file
  path: employees.json
columns:
  - field: name
    header: Name
  - field: salary
    data_type: number
  - field: hired
    data_type: date
filter:
  tree:
    operator: or
    operands:
      - field: name
        condition: contains
        value: an
sorting:
  - field: name
    dir: DESC
    ignore_case: true
log:
  level: debug
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad_File(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Keys() != (hierarchy.Keys{PrimaryKey: "id", ForeignKey: "parent_id"}) {
		t.Errorf("unexpected keys: %+v", cfg.Keys())
	}
	if cfg.Grid.ExpansionDepth != 1 {
		t.Errorf("expected expansion depth 1, got %d", cfg.Grid.ExpansionDepth)
	}
	if !cfg.Grid.ExpandOnFilter {
		t.Error("expected expand_on_filter default true")
	}
	if len(cfg.Columns) != 3 || cfg.Columns[1].DataType != conditions.DataTypeNumber {
		t.Errorf("unexpected columns: %+v", cfg.Columns)
	}
	if cfg.Columns[0].Label() != "Name" || cfg.Columns[1].Label() != "salary" {
		t.Errorf("unexpected labels: %s %s", cfg.Columns[0].Label(), cfg.Columns[1].Label())
	}
	if cfg.Filter.Tree["operator"] != "or" {
		t.Errorf("expected inline filter tree, got %v", cfg.Filter.Tree)
	}
	if cfg.LogLevel() != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", cfg.LogLevel())
	}

	sorting := cfg.SortingExpressions()
	if len(sorting) != 1 || sorting[0].Dir != models.SortDesc || !sorting[0].IgnoreCase {
		t.Errorf("unexpected sorting: %+v", sorting)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "grid:\n  child_data_key: children\n"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Grid.ExpansionDepth != -1 {
		t.Errorf("expected unlimited expansion depth, got %d", cfg.Grid.ExpansionDepth)
	}
	if cfg.Source.Type != SourceFile || cfg.Source.Port != 5432 {
		t.Errorf("unexpected source defaults: %+v", cfg.Source)
	}
	if len(cfg.Export.Formats) != 1 || cfg.Export.Formats[0] != "csv" {
		t.Errorf("unexpected export formats: %v", cfg.Export.Formats)
	}
	if cfg.UI.Theme != "default" || cfg.UI.MaxCellWidth != 32 {
		t.Errorf("unexpected ui defaults: %+v", cfg.UI)
	}
	if cfg.LogLevel() != slog.LevelInfo {
		t.Errorf("expected info level, got %v", cfg.LogLevel())
	}

	opts := cfg.GridOptions(nil)
	if opts.Keys.Mode() != hierarchy.ModeChildData || !opts.ExpandOnFilter {
		t.Errorf("unexpected grid options: %+v", opts)
	}
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("primary-key", "", "")
	flags.String("foreign-key", "", "")
	flags.Int("expansion-depth", 0, "")
	flags.StringSlice("format", nil, "")
	if err := flags.Parse([]string{"--primary-key=uid", "--format=json,msgpack"}); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}

	cfg, err := Load(writeConfig(t, sampleConfig), flags)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Grid.PrimaryKey != "uid" {
		t.Errorf("expected flag to override primary key, got %s", cfg.Grid.PrimaryKey)
	}
	if cfg.Grid.ForeignKey != "parent_id" {
		t.Errorf("expected unset flag to keep file value, got %s", cfg.Grid.ForeignKey)
	}
	if cfg.Grid.ExpansionDepth != 1 {
		t.Errorf("expected unset flag to keep file value, got %d", cfg.Grid.ExpansionDepth)
	}
	if len(cfg.Export.Formats) != 2 || cfg.Export.Formats[1] != "msgpack" {
		t.Errorf("unexpected formats: %v", cfg.Export.Formats)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	if _, err := Load(writeConfig(t, "grid: [unclosed"), nil); err == nil {
		t.Error("expected error for malformed config")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing path", Config{Source: SourceConfig{Type: SourceFile}, Grid: GridConfig{ChildDataKey: "c"}}},
		{"sqlite without table", Config{Source: SourceConfig{Type: SourceSQLite, Path: "x.db"}, Grid: GridConfig{ChildDataKey: "c"}}},
		{"unknown source", Config{Source: SourceConfig{Type: "ftp"}, Grid: GridConfig{ChildDataKey: "c"}}},
		{"no keys", Config{Source: SourceConfig{Type: SourceFile, Path: "x.json"}, Grid: GridConfig{PrimaryKey: "id"}}},
		{"sorting without field", Config{
			Source:  SourceConfig{Type: SourcePostgres, Table: "t"},
			Grid:    GridConfig{ChildDataKey: "c"},
			Sorting: []SortConfig{{Dir: "asc"}},
		}},
	}

	for _, tt := range tests {
		if err := tt.cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%s: expected ErrInvalidConfig, got %v", tt.name, err)
		}
	}
}
