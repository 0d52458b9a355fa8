package datasource

import (
	"context"

	"github.com/ekaya-inc/ekaya-profiler/pkg/models"
)

// Introspector reads schema metadata. Implementations never modify the database.
type Introspector interface {
	// ListTables returns the user-visible tables of the configured schema in
	// the engine's enumeration order. System tables may be included; callers
	// filter them with IsSystemTable.
	ListTables(ctx context.Context) ([]TableRef, error)

	// GetColumns returns the table's columns in ordinal order.
	GetColumns(ctx context.Context, table TableRef) ([]ColumnInfo, error)

	// GetPrimaryKey returns the primary key column names in key order.
	// A table without a primary key returns an empty slice.
	GetPrimaryKey(ctx context.Context, table TableRef) ([]string, error)

	// GetForeignKeys returns the table's foreign key constraints. Composite
	// keys are grouped into one constraint with columns paired by position.
	GetForeignKeys(ctx context.Context, table TableRef) ([]models.ForeignKeyConstraint, error)

	// IsSystemTable reports whether name is an engine-internal table.
	IsSystemTable(name string) bool
}

// QueryExecutor runs read-only SELECT statements.
type QueryExecutor interface {
	// Query runs sqlQuery with positional args in the dialect's placeholder
	// style. Failures are returned as *QueryError.
	Query(ctx context.Context, sqlQuery string, args ...any) (*QueryResult, error)

	// Dialect returns the SQL dialect the executor speaks.
	Dialect() Dialect
}

// Dialect captures the per-engine SQL differences needed to build the
// statistic queries.
type Dialect interface {
	// Name is the engine name recorded in the metadata document
	// ("postgresql", "mssql", "sqlite").
	Name() string

	// QuoteIdentifier safely quotes a table, column or schema name.
	QuoteIdentifier(name string) string

	// QualifiedTable returns the quoted, schema-qualified table reference.
	QualifiedTable(table TableRef) string

	// Placeholder returns the marker for the n-th (1-based) positional argument.
	Placeholder(n int) string

	// LimitClause returns the row-limit fragments for a query whose limit is
	// bound to the n-th argument. Exactly one of prefix (after SELECT) and
	// suffix (end of statement) is non-empty.
	LimitClause(n int) (prefix, suffix string)

	// TextLengthExpr returns a floating point expression for the character
	// length of expr rendered as text, suitable for AVG.
	TextLengthExpr(expr string) string
}

// Connection is an open database: introspection plus query execution.
type Connection interface {
	Introspector
	QueryExecutor

	// Close releases the underlying pool.
	Close() error
}
