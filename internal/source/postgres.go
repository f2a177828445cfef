package source

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rebeliceyang/lazygrid/internal/filter"
	"github.com/rebeliceyang/lazygrid/internal/models"
)

// PostgresConfig holds PostgreSQL connection settings
type PostgresConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
	MaxConns int

	// Passwords is consulted when Password is empty
	Passwords *PasswordStore
}

// PostgresLoader reads rows from PostgreSQL
type PostgresLoader struct {
	Config  PostgresConfig
	Query   Query
	Timeout time.Duration
	Logger  *slog.Logger
}

// Load connects, runs the query and closes the pool
func (l *PostgresLoader) Load(ctx context.Context) ([]models.Row, error) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}

	stmt, args, err := l.Query.build(filter.Postgres, logger)
	if err != nil {
		return nil, err
	}

	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	pool, err := newPool(ctx, l.Config)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	logger.Debug("loading rows", "source", "postgres", "host", l.Config.Host, "database", l.Config.Database, "query", stmt)

	rows, err := pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var results []models.Row
	fieldDescriptions := rows.FieldDescriptions()

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}

		row := make(models.Row, len(fieldDescriptions))
		for i, fd := range fieldDescriptions {
			row[fd.Name] = normalizeDriverValue(values[i])
		}
		results = append(results, row)
	}

	return results, rows.Err()
}

// newPool creates a connection pool and checks it with a ping
func newPool(ctx context.Context, config PostgresConfig) (*pgxpool.Pool, error) {
	if config.Password == "" && config.Passwords != nil {
		password, err := config.Passwords.Get(config)
		if err != nil {
			return nil, err
		}
		config.Password = password
	}

	poolConfig, err := pgxpool.ParseConfig(ConnectionString(config))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}

	// Configure pool settings
	poolConfig.MaxConns = 4
	if config.MaxConns > 0 {
		poolConfig.MaxConns = int32(config.MaxConns)
	}
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// ConnectionString creates a PostgreSQL connection string
func ConnectionString(config PostgresConfig) string {
	sslMode := config.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s database=%s sslmode=%s",
		config.Host,
		config.Port,
		config.User,
		config.Database,
		sslMode,
	)

	if config.Password != "" {
		connStr += fmt.Sprintf(" password=%s", config.Password)
	}

	return connStr
}
