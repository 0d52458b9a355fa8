package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-profiler/pkg/adapters/datasource"
)

// Adapter provides PostgreSQL introspection and query execution over a pgx pool.
type Adapter struct {
	config  *Config
	pool    *pgxpool.Pool
	dialect Dialect
	logger  *zap.Logger
}

// NewAdapter connects to PostgreSQL and verifies the connection.
func NewAdapter(ctx context.Context, cfg *Config, logger *zap.Logger) (*Adapter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Schema == "" {
		cfg.Schema = DefaultSchema
	}

	poolCfg, err := cfg.poolConfig()
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping failed: %w", err)
	}

	return &Adapter{
		config: cfg,
		pool:   pool,
		logger: logger.Named("postgres"),
	}, nil
}

// Pool returns the underlying pool.
func (a *Adapter) Pool() *pgxpool.Pool {
	return a.pool
}

func (a *Adapter) Dialect() datasource.Dialect {
	return a.dialect
}

// Query runs a read-only statement and returns all rows as raw pgx values.
func (a *Adapter) Query(ctx context.Context, sqlQuery string, args ...any) (*datasource.QueryResult, error) {
	rows, err := a.pool.Query(ctx, sqlQuery, args...)
	if err != nil {
		return nil, datasource.NewQueryError(ctx, sqlQuery, err, classify)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	result := &datasource.QueryResult{
		Columns: make([]string, len(fields)),
		Rows:    make([][]any, 0),
	}
	for i, fd := range fields {
		result.Columns[i] = fd.Name
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, datasource.NewQueryError(ctx, sqlQuery, fmt.Errorf("read row values: %w", err), classify)
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, datasource.NewQueryError(ctx, sqlQuery, err, classify)
	}
	return result, nil
}

// IsSystemTable reports catalog-style tables that occasionally live in user schemas.
func (a *Adapter) IsSystemTable(name string) bool {
	return strings.HasPrefix(strings.ToLower(name), "pg_")
}

// Close releases the pool.
func (a *Adapter) Close() error {
	if a.pool != nil {
		a.pool.Close()
	}
	return nil
}

// Ensure Adapter implements datasource.Connection at compile time.
var _ datasource.Connection = (*Adapter)(nil)
