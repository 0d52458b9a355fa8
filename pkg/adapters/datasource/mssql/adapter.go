package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-profiler/pkg/adapters/datasource"
)

// Adapter provides SQL Server introspection and query execution.
type Adapter struct {
	config  *Config
	db      *sql.DB
	dialect Dialect
	logger  *zap.Logger
}

// NewAdapter opens a SQL Server connection pool and verifies it.
func NewAdapter(ctx context.Context, cfg *Config, logger *zap.Logger) (*Adapter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Schema == "" {
		cfg.Schema = DefaultSchema
	}

	connStr, err := cfg.driverURL()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	db, err := sql.Open("sqlserver", connStr)
	if err != nil {
		return nil, fmt.Errorf("create connection: %w", err)
	}
	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connection test failed: %w", err)
	}

	return &Adapter{
		config: cfg,
		db:     db,
		logger: logger.Named("mssql"),
	}, nil
}

// DB returns the underlying database connection.
func (a *Adapter) DB() *sql.DB {
	return a.db
}

func (a *Adapter) Dialect() datasource.Dialect {
	return a.dialect
}

// Query runs a read-only statement. uniqueidentifier values arrive as raw
// mixed-endian bytes and are converted to their canonical string form.
func (a *Adapter) Query(ctx context.Context, sqlQuery string, args ...any) (*datasource.QueryResult, error) {
	rows, err := a.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, datasource.NewQueryError(ctx, sqlQuery, err, classify)
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, datasource.NewQueryError(ctx, sqlQuery, err, classify)
	}

	result, err := datasource.ScanRows(rows)
	if err != nil {
		return nil, datasource.NewQueryError(ctx, sqlQuery, err, classify)
	}

	for i, ct := range types {
		if ct.DatabaseTypeName() != "UNIQUEIDENTIFIER" {
			continue
		}
		for _, row := range result.Rows {
			if b, ok := row[i].([]byte); ok {
				var u mssql.UniqueIdentifier
				if err := u.Scan(b); err == nil {
					row[i] = u.String()
				}
			}
		}
	}
	return result, nil
}

// IsSystemTable reports tables SQL Server tooling creates in user schemas.
func (a *Adapter) IsSystemTable(name string) bool {
	return strings.EqualFold(name, "sysdiagrams")
}

// Close releases the connection pool.
func (a *Adapter) Close() error {
	return a.db.Close()
}

// Ensure Adapter implements datasource.Connection at compile time.
var _ datasource.Connection = (*Adapter)(nil)
