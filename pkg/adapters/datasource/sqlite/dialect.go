package sqlite

import (
	"fmt"
	"strings"

	"github.com/ekaya-inc/ekaya-profiler/pkg/adapters/datasource"
)

// Dialect is the SQLite SQL dialect.
type Dialect struct{}

func (Dialect) Name() string { return "sqlite" }

// QuoteIdentifier wraps name in double quotes, doubling embedded quotes.
func (Dialect) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QualifiedTable ignores the schema: attached databases are not profiled.
func (d Dialect) QualifiedTable(table datasource.TableRef) string {
	return d.QuoteIdentifier(table.Name)
}

func (Dialect) Placeholder(int) string { return "?" }

func (Dialect) LimitClause(int) (string, string) { return "", "LIMIT ?" }

func (Dialect) TextLengthExpr(expr string) string {
	return fmt.Sprintf("CAST(LENGTH(CAST(%s AS TEXT)) AS REAL)", expr)
}

var _ datasource.Dialect = Dialect{}
