package postgres

import (
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/ekaya-profiler/pkg/adapters/datasource"
)

// Dialect is the PostgreSQL SQL dialect.
type Dialect struct{}

func (Dialect) Name() string { return "postgresql" }

// QuoteIdentifier safely quotes a PostgreSQL identifier using pgx's sanitizer.
func (Dialect) QuoteIdentifier(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// QualifiedTable returns "schema"."table", or just "table" without a schema.
func (Dialect) QualifiedTable(table datasource.TableRef) string {
	return qualifiedTableName(table.Schema, table.Name)
}

func (Dialect) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (Dialect) LimitClause(n int) (string, string) {
	return "", fmt.Sprintf("LIMIT $%d", n)
}

func (Dialect) TextLengthExpr(expr string) string {
	return fmt.Sprintf("LENGTH(CAST(%s AS TEXT))::float8", expr)
}

// qualifiedTableName returns a properly quoted table reference.
// If schemaName is empty, returns just the quoted table name.
func qualifiedTableName(schemaName, tableName string) string {
	quotedTable := pgx.Identifier{tableName}.Sanitize()
	if schemaName == "" {
		return quotedTable
	}
	return pgx.Identifier{schemaName}.Sanitize() + "." + quotedTable
}

var _ datasource.Dialect = Dialect{}
