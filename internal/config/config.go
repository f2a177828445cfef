package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/rebeliceyang/lazygrid/internal/grid"
	"github.com/rebeliceyang/lazygrid/internal/hierarchy"
	"github.com/rebeliceyang/lazygrid/internal/models"
)

// Source types
const (
	SourceFile     = "file"
	SourceSQLite   = "sqlite"
	SourcePostgres = "postgres"
)

// ErrInvalidConfig is returned by Validate
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all application configuration
type Config struct {
	Grid    GridConfig      `mapstructure:"grid"`
	Source  SourceConfig    `mapstructure:"source"`
	Columns []models.Column `mapstructure:"columns"`
	Filter  FilterConfig    `mapstructure:"filter"`
	Sorting []SortConfig    `mapstructure:"sorting"`
	State   StateConfig     `mapstructure:"state"`
	Export  ExportConfig    `mapstructure:"export"`
	Log     LogConfig       `mapstructure:"log"`
	UI      UIConfig        `mapstructure:"ui"`
}

type GridConfig struct {
	ID             string `mapstructure:"id"`
	PrimaryKey     string `mapstructure:"primary_key"`
	ForeignKey     string `mapstructure:"foreign_key"`
	ChildDataKey   string `mapstructure:"child_data_key"`
	ExpansionDepth int    `mapstructure:"expansion_depth"`
	ExpandOnFilter bool   `mapstructure:"expand_on_filter"`
	NestedFields   bool   `mapstructure:"nested_fields"`
}

type SourceConfig struct {
	Type   string `mapstructure:"type"`
	Path   string `mapstructure:"path"`
	Format string `mapstructure:"format"`
	Watch  bool   `mapstructure:"watch"`

	// SQL sources
	Table    string `mapstructure:"table"`
	Query    string `mapstructure:"query"`
	Pushdown bool   `mapstructure:"pushdown"`

	// PostgreSQL
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Database     string `mapstructure:"database"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	SSLMode      string `mapstructure:"ssl_mode"`
	UseKeyring   bool   `mapstructure:"use_keyring"`
	MaxConns     int    `mapstructure:"max_conns"`
	QueryTimeout int    `mapstructure:"query_timeout"`
}

type FilterConfig struct {
	File         string                 `mapstructure:"file"`
	AdvancedFile string                 `mapstructure:"advanced_file"`
	Tree         map[string]interface{} `mapstructure:"tree"`
}

type SortConfig struct {
	Field      string `mapstructure:"field"`
	Dir        string `mapstructure:"dir"`
	IgnoreCase bool   `mapstructure:"ignore_case"`
}

type StateConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type ExportConfig struct {
	Dir     string   `mapstructure:"dir"`
	Formats []string `mapstructure:"formats"`
	Visible bool     `mapstructure:"visible"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

type UIConfig struct {
	Theme        string `mapstructure:"theme"`
	MaxCellWidth int    `mapstructure:"max_cell_width"`
	IndentWidth  int    `mapstructure:"indent_width"`
}

// flagKeys maps command-line flags to configuration keys
var flagKeys = map[string]string{
	"primary-key":     "grid.primary_key",
	"foreign-key":     "grid.foreign_key",
	"child-data-key":  "grid.child_data_key",
	"expansion-depth": "grid.expansion_depth",
	"source":          "source.type",
	"path":            "source.path",
	"table":           "source.table",
	"filter":          "filter.file",
	"export":          "export.dir",
	"format":          "export.formats",
	"log-level":       "log.level",
	"theme":           "ui.theme",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("grid.expansion_depth", -1)
	v.SetDefault("grid.expand_on_filter", true)
	v.SetDefault("grid.nested_fields", false)
	v.SetDefault("source.type", SourceFile)
	v.SetDefault("source.format", "")
	v.SetDefault("source.watch", false)
	v.SetDefault("source.pushdown", false)
	v.SetDefault("source.host", "localhost")
	v.SetDefault("source.port", 5432)
	v.SetDefault("source.ssl_mode", "prefer")
	v.SetDefault("source.use_keyring", false)
	v.SetDefault("source.max_conns", 4)
	v.SetDefault("source.query_timeout", 30000)
	v.SetDefault("state.enabled", true)
	v.SetDefault("export.formats", []string{"csv"})
	v.SetDefault("export.visible", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("ui.theme", "default")
	v.SetDefault("ui.max_cell_width", 32)
	v.SetDefault("ui.indent_width", 2)
}

// Load loads configuration from configFile, or from the usual locations
// when empty. Flags that were set override file values.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("LAZYGRID")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Add config paths in priority order
		if configDir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(configDir, "lazygrid"))
		}
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("error binding flag %s: %w", name, err)
				}
			}
		}
	}

	// Read config (it's okay if file doesn't exist, we have defaults)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if cfg.State.Path == "" {
		if dir, err := GetConfigPath(); err == nil {
			cfg.State.Path = filepath.Join(dir, "state.db")
		}
	}

	return &cfg, nil
}

// Validate checks that the configuration can drive a grid
func (c *Config) Validate() error {
	switch c.Source.Type {
	case SourceFile:
		if c.Source.Path == "" {
			return fmt.Errorf("%w: file source needs source.path", ErrInvalidConfig)
		}
	case SourceSQLite:
		if c.Source.Path == "" || (c.Source.Table == "" && c.Source.Query == "") {
			return fmt.Errorf("%w: sqlite source needs source.path and source.table or source.query", ErrInvalidConfig)
		}
	case SourcePostgres:
		if c.Source.Table == "" && c.Source.Query == "" {
			return fmt.Errorf("%w: postgres source needs source.table or source.query", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown source type '%s'", ErrInvalidConfig, c.Source.Type)
	}

	if c.Keys().Mode() == hierarchy.ModeNone {
		return fmt.Errorf("%w: set grid.primary_key with grid.foreign_key, or grid.child_data_key", ErrInvalidConfig)
	}

	for _, s := range c.Sorting {
		if s.Field == "" {
			return fmt.Errorf("%w: sorting entry without field", ErrInvalidConfig)
		}
	}

	return nil
}

// Keys returns the hierarchy keys
func (c *Config) Keys() hierarchy.Keys {
	return hierarchy.Keys{
		PrimaryKey:   c.Grid.PrimaryKey,
		ForeignKey:   c.Grid.ForeignKey,
		ChildDataKey: c.Grid.ChildDataKey,
	}
}

// GridOptions converts the grid section to grid options
func (c *Config) GridOptions(logger *slog.Logger) grid.Options {
	return grid.Options{
		ID:             c.Grid.ID,
		Keys:           c.Keys(),
		ExpansionDepth: c.Grid.ExpansionDepth,
		ExpandOnFilter: c.Grid.ExpandOnFilter,
		NestedFields:   c.Grid.NestedFields,
		Logger:         logger,
	}
}

// SortingExpressions converts the sorting section. Unknown directions
// disable the entry.
func (c *Config) SortingExpressions() []models.SortingExpression {
	exprs := make([]models.SortingExpression, 0, len(c.Sorting))
	for _, s := range c.Sorting {
		exprs = append(exprs, models.SortingExpression{
			FieldName:  s.Field,
			Dir:        models.ParseSortDirection(s.Dir),
			IgnoreCase: s.IgnoreCase,
		})
	}
	return exprs
}

// LogLevel parses the log level, defaulting to info
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// GetConfigPath returns the user config directory path
func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "lazygrid"), nil
}
