package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/ekaya-inc/ekaya-profiler/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-profiler/pkg/models"
)

// Adapter provides SQLite introspection and query execution.
type Adapter struct {
	config  *Config
	db      *sql.DB
	dialect Dialect
	logger  *zap.Logger
}

// NewAdapter opens the database described by cfg. The file must exist:
// a missing file would otherwise be created empty.
func NewAdapter(ctx context.Context, cfg *Config, opts datasource.Options) (*Adapter, error) {
	if !cfg.IsMemory() && !cfg.IsURI() {
		if _, err := os.Stat(cfg.Path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("sqlite database %q does not exist", cfg.Path)
			}
			return nil, fmt.Errorf("stat sqlite database: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.driverDSN())
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if opts.MaxConns > 0 {
		db.SetMaxOpenConns(opts.MaxConns)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping failed: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &Adapter{
		config: cfg,
		db:     db,
		logger: logger.Named("sqlite"),
	}
	a.logger.Debug("Opened sqlite database", zap.String("path", cfg.Path))
	return a, nil
}

// DB returns the underlying database handle.
func (a *Adapter) DB() *sql.DB {
	return a.db
}

func (a *Adapter) Dialect() datasource.Dialect {
	return a.dialect
}

// Query runs a read-only statement. SQLite accepts any expression on any
// column, so the only classified failure besides query_error is a timeout.
func (a *Adapter) Query(ctx context.Context, sqlQuery string, args ...any) (*datasource.QueryResult, error) {
	return datasource.QuerySQL(ctx, a.db, sqlQuery, args, nil)
}

// IsSystemTable reports engine-internal tables (sqlite_sequence, sqlite_stat1, ...).
func (a *Adapter) IsSystemTable(name string) bool {
	return strings.HasPrefix(strings.ToLower(name), "sqlite_")
}

// Close releases the database handle.
func (a *Adapter) Close() error {
	return a.db.Close()
}

// ListTables returns every table in name order.
func (a *Adapter) ListTables(ctx context.Context) ([]datasource.TableRef, error) {
	const query = `SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`

	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	tables := make([]datasource.TableRef, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		tables = append(tables, datasource.TableRef{Name: name})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}
	return tables, nil
}

// GetColumns returns the table's columns in declaration order.
func (a *Adapter) GetColumns(ctx context.Context, table datasource.TableRef) ([]datasource.ColumnInfo, error) {
	const query = `SELECT name, type, "notnull", dflt_value FROM pragma_table_info(?) ORDER BY cid`

	rows, err := a.db.QueryContext(ctx, query, table.Name)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	columns := make([]datasource.ColumnInfo, 0)
	for rows.Next() {
		var (
			col     datasource.ColumnInfo
			notNull int
			dflt    sql.NullString
		)
		if err := rows.Scan(&col.Name, &col.DataType, &notNull, &dflt); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		col.Nullable = notNull == 0
		col.Default = datasource.NullableString(dflt)
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %q not found", table.Name)
	}
	return columns, nil
}

// GetPrimaryKey returns primary key columns in key order.
func (a *Adapter) GetPrimaryKey(ctx context.Context, table datasource.TableRef) ([]string, error) {
	const query = `SELECT name FROM pragma_table_info(?) WHERE pk > 0 ORDER BY pk`

	rows, err := a.db.QueryContext(ctx, query, table.Name)
	if err != nil {
		return nil, fmt.Errorf("query primary key: %w", err)
	}
	defer rows.Close()

	pk := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan primary key: %w", err)
		}
		pk = append(pk, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate primary key: %w", err)
	}
	return pk, nil
}

// GetForeignKeys returns the table's foreign keys. SQLite constraints are
// unnamed; a reference without explicit columns points at the referred
// table's primary key.
func (a *Adapter) GetForeignKeys(ctx context.Context, table datasource.TableRef) ([]models.ForeignKeyConstraint, error) {
	const query = `SELECT id, "table", "from", "to" FROM pragma_foreign_key_list(?) ORDER BY id, seq`

	rows, err := a.db.QueryContext(ctx, query, table.Name)
	if err != nil {
		return nil, fmt.Errorf("query foreign keys: %w", err)
	}

	var fkRows []datasource.ForeignKeyRow
	implicit := make(map[string][]int) // referred table -> row indexes with no "to" column
	for rows.Next() {
		var (
			id       int
			referred string
			from     string
			to       sql.NullString
		)
		if err := rows.Scan(&id, &referred, &from, &to); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan foreign key: %w", err)
		}
		if !to.Valid {
			implicit[referred] = append(implicit[referred], len(fkRows))
		}
		fkRows = append(fkRows, datasource.ForeignKeyRow{
			Key:            fmt.Sprintf("%d", id),
			Column:         from,
			ReferredTable:  referred,
			ReferredColumn: to.String,
		})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate foreign keys: %w", err)
	}
	rows.Close()

	for referred, idxs := range implicit {
		pk, err := a.GetPrimaryKey(ctx, datasource.TableRef{Name: referred})
		if err != nil {
			return nil, fmt.Errorf("resolve implicit reference to %s: %w", referred, err)
		}
		// Rows of one constraint are in key order, so the n-th implicit row of
		// a constraint pairs with the n-th key column.
		seen := make(map[string]int)
		for _, i := range idxs {
			pos := seen[fkRows[i].Key]
			seen[fkRows[i].Key]++
			if pos < len(pk) {
				fkRows[i].ReferredColumn = pk[pos]
			}
		}
	}

	return datasource.GroupForeignKeys(fkRows), nil
}

// Ensure Adapter implements datasource.Connection at compile time.
var _ datasource.Connection = (*Adapter)(nil)
