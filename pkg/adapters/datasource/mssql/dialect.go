package mssql

import (
	"fmt"

	"github.com/ekaya-inc/ekaya-profiler/pkg/adapters/datasource"
)

// Dialect is the SQL Server (T-SQL) dialect.
type Dialect struct{}

func (Dialect) Name() string { return "mssql" }

func (Dialect) QuoteIdentifier(name string) string { return quoteName(name) }

func (Dialect) QualifiedTable(table datasource.TableRef) string {
	return buildFullyQualifiedName(table.Schema, table.Name)
}

// Placeholder uses go-mssqldb's positional @pN parameters.
func (Dialect) Placeholder(n int) string { return fmt.Sprintf("@p%d", n) }

// LimitClause uses TOP, which T-SQL places right after SELECT.
func (Dialect) LimitClause(n int) (string, string) {
	return fmt.Sprintf("TOP (@p%d)", n), ""
}

// TextLengthExpr casts to FLOAT so AVG does not truncate to an integer.
func (Dialect) TextLengthExpr(expr string) string {
	return fmt.Sprintf("CAST(LEN(CAST(%s AS NVARCHAR(MAX))) AS FLOAT)", expr)
}

var _ datasource.Dialect = Dialect{}
