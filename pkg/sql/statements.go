package sql

import (
	"fmt"
	"strings"

	"github.com/ekaya-inc/ekaya-profiler/pkg/adapters/datasource"
)

// Statement is a query plus its positional arguments.
type Statement struct {
	SQL  string
	Args []any
}

// StatementBuilder renders the per-column statistic queries for one table in
// a given dialect. Identifiers are always quoted by the dialect; values that
// vary per run (limits) are bound as arguments.
type StatementBuilder struct {
	dialect datasource.Dialect
	table   string
}

// NewStatementBuilder returns a builder for table.
func NewStatementBuilder(dialect datasource.Dialect, table datasource.TableRef) *StatementBuilder {
	return &StatementBuilder{
		dialect: dialect,
		table:   dialect.QualifiedTable(table),
	}
}

func (b *StatementBuilder) col(name string) string {
	return b.dialect.QuoteIdentifier(name)
}

// limited assembles SELECT <list> FROM <table> <tail> with the row limit
// placed where the dialect wants it, bound to the first argument.
func (b *StatementBuilder) limited(selectList, tail string, limit int) Statement {
	prefix, suffix := b.dialect.LimitClause(1)

	parts := []string{"SELECT"}
	if prefix != "" {
		parts = append(parts, prefix)
	}
	parts = append(parts, selectList, "FROM", b.table)
	if tail != "" {
		parts = append(parts, tail)
	}
	if suffix != "" {
		parts = append(parts, suffix)
	}
	return Statement{SQL: strings.Join(parts, " "), Args: []any{limit}}
}

// RowCount counts the table's rows.
func (b *StatementBuilder) RowCount() Statement {
	return Statement{SQL: fmt.Sprintf("SELECT COUNT(*) FROM %s", b.table)}
}

// Samples selects up to limit raw values of column, in engine order.
func (b *StatementBuilder) Samples(column string, limit int) Statement {
	return b.limited(b.col(column), "", limit)
}

// NullCount counts rows where column is NULL.
func (b *StatementBuilder) NullCount(column string) Statement {
	return Statement{SQL: fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s IS NULL", b.table, b.col(column))}
}

// DistinctCount counts distinct non-null values of column.
func (b *StatementBuilder) DistinctCount(column string) Statement {
	return Statement{SQL: fmt.Sprintf("SELECT COUNT(DISTINCT %s) FROM %s", b.col(column), b.table)}
}

// TopValues returns the k most frequent non-null values of column with their
// counts, most frequent first. NULLs are left out so the groups match
// DistinctCount.
func (b *StatementBuilder) TopValues(column string, k int) Statement {
	c := b.col(column)
	return b.limited(
		fmt.Sprintf("%s, COUNT(*) AS freq", c),
		fmt.Sprintf("WHERE %s IS NOT NULL GROUP BY %s ORDER BY COUNT(*) DESC", c, c),
		k,
	)
}

// Min returns the minimum of column. Min and Max are separate statements so
// each can fail on its own.
func (b *StatementBuilder) Min(column string) Statement {
	return Statement{SQL: fmt.Sprintf("SELECT MIN(%s) FROM %s", b.col(column), b.table)}
}

// Max returns the maximum of column.
func (b *StatementBuilder) Max(column string) Statement {
	return Statement{SQL: fmt.Sprintf("SELECT MAX(%s) FROM %s", b.col(column), b.table)}
}

// AvgLength returns the mean character length of column's values as text.
// NULLs are ignored by AVG; an all-NULL column yields NULL.
func (b *StatementBuilder) AvgLength(column string) Statement {
	return Statement{SQL: fmt.Sprintf("SELECT AVG(%s) FROM %s", b.dialect.TextLengthExpr(b.col(column)), b.table)}
}
