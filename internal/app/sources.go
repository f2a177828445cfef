package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/afero"

	"github.com/rebeliceyang/lazygrid/internal/config"
	"github.com/rebeliceyang/lazygrid/internal/models"
	"github.com/rebeliceyang/lazygrid/internal/source"
)

// NewSourceLoader builds the loader for the configured source. The filter
// is pushed down to SQL sources only when source.pushdown is set; the
// grid keys go along so that ancestors of matching rows are still loaded.
func NewSourceLoader(cfg *config.Config, fs afero.Fs, filterTree *models.FilteringExpressionsTree, logger *slog.Logger) (source.Loader, error) {
	sc := cfg.Source

	query := source.Query{
		Table: sc.Table,
		SQL:   sc.Query,
		Types: models.ColumnTypes(cfg.Columns),
	}
	if sc.Pushdown {
		query.Filter = filterTree
		query.Keys = cfg.Keys()
	}

	switch sc.Type {
	case config.SourceFile:
		loader := source.NewFileLoader(sc.Path, sc.Format)
		loader.Fs = fs
		return loader, nil

	case config.SourceSQLite:
		return &source.SQLiteLoader{Path: sc.Path, Query: query, Logger: logger}, nil

	case config.SourcePostgres:
		pg := PostgresConfig(cfg)
		if sc.UseKeyring {
			pg.Passwords = source.NewPasswordStore()
		}
		return &source.PostgresLoader{
			Config:  pg,
			Query:   query,
			Timeout: time.Duration(sc.QueryTimeout) * time.Millisecond,
			Logger:  logger,
		}, nil

	default:
		return nil, fmt.Errorf("%w: unknown source type '%s'", config.ErrInvalidConfig, sc.Type)
	}
}

// PostgresConfig extracts the connection settings of a postgres source
func PostgresConfig(cfg *config.Config) source.PostgresConfig {
	sc := cfg.Source
	return source.PostgresConfig{
		Host:     sc.Host,
		Port:     sc.Port,
		Database: sc.Database,
		User:     sc.User,
		Password: sc.Password,
		SSLMode:  sc.SSLMode,
		MaxConns: sc.MaxConns,
	}
}
