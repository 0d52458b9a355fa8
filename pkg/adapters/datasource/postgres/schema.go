package postgres

import (
	"context"
	"fmt"

	"github.com/ekaya-inc/ekaya-profiler/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-profiler/pkg/models"
)

// ListTables returns the base tables of the configured schema in name order.
func (a *Adapter) ListTables(ctx context.Context) ([]datasource.TableRef, error) {
	const query = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := a.pool.Query(ctx, query, a.config.Schema)
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
		tables = append(tables, datasource.TableRef{Schema: a.config.Schema, Name: name})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}
	return tables, nil
}

// GetColumns returns columns in attribute order with their formatted types
// (e.g. "character varying(255)", "numeric(10,2)") and default expressions.
func (a *Adapter) GetColumns(ctx context.Context, table datasource.TableRef) ([]datasource.ColumnInfo, error) {
	const query = `
		SELECT
			a.attname,
			pg_catalog.format_type(a.atttypid, a.atttypmod),
			NOT a.attnotnull,
			pg_catalog.pg_get_expr(d.adbin, d.adrelid)
		FROM pg_catalog.pg_attribute a
		LEFT JOIN pg_catalog.pg_attrdef d ON d.adrelid = a.attrelid AND d.adnum = a.attnum
		WHERE a.attrelid = $1::text::regclass
		  AND a.attnum > 0
		  AND NOT a.attisdropped
		ORDER BY a.attnum
	`

	rows, err := a.pool.Query(ctx, query, qualifiedTableName(a.schemaOf(table), table.Name))
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	columns := make([]datasource.ColumnInfo, 0)
	for rows.Next() {
		var col datasource.ColumnInfo
		if err := rows.Scan(&col.Name, &col.DataType, &col.Nullable, &col.Default); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}
	return columns, nil
}

// GetPrimaryKey returns the primary key columns in key order.
func (a *Adapter) GetPrimaryKey(ctx context.Context, table datasource.TableRef) ([]string, error) {
	const query = `
		SELECT a.attname
		FROM pg_catalog.pg_constraint c
		CROSS JOIN LATERAL unnest(c.conkey) WITH ORDINALITY AS k(attnum, ord)
		JOIN pg_catalog.pg_attribute a ON a.attrelid = c.conrelid AND a.attnum = k.attnum
		WHERE c.conrelid = $1::text::regclass
		  AND c.contype = 'p'
		ORDER BY k.ord
	`

	rows, err := a.pool.Query(ctx, query, qualifiedTableName(a.schemaOf(table), table.Name))
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

// GetForeignKeys returns the table's foreign keys, composite keys grouped by
// constraint with column pairs in key order.
func (a *Adapter) GetForeignKeys(ctx context.Context, table datasource.TableRef) ([]models.ForeignKeyConstraint, error) {
	const query = `
		SELECT
			c.conname,
			a.attname,
			fn.nspname,
			ft.relname,
			fa.attname
		FROM pg_catalog.pg_constraint c
		CROSS JOIN LATERAL unnest(c.conkey, c.confkey) WITH ORDINALITY AS k(attnum, fattnum, ord)
		JOIN pg_catalog.pg_attribute a ON a.attrelid = c.conrelid AND a.attnum = k.attnum
		JOIN pg_catalog.pg_class ft ON ft.oid = c.confrelid
		JOIN pg_catalog.pg_namespace fn ON fn.oid = ft.relnamespace
		JOIN pg_catalog.pg_attribute fa ON fa.attrelid = c.confrelid AND fa.attnum = k.fattnum
		WHERE c.conrelid = $1::text::regclass
		  AND c.contype = 'f'
		ORDER BY c.conname, k.ord
	`

	rows, err := a.pool.Query(ctx, query, qualifiedTableName(a.schemaOf(table), table.Name))
	if err != nil {
		return nil, fmt.Errorf("query foreign keys: %w", err)
	}
	defer rows.Close()

	var fkRows []datasource.ForeignKeyRow
	for rows.Next() {
		var r datasource.ForeignKeyRow
		if err := rows.Scan(&r.Name, &r.Column, &r.ReferredSchema, &r.ReferredTable, &r.ReferredColumn); err != nil {
			return nil, fmt.Errorf("scan foreign key: %w", err)
		}
		fkRows = append(fkRows, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate foreign keys: %w", err)
	}
	return datasource.GroupForeignKeys(fkRows), nil
}

func (a *Adapter) schemaOf(table datasource.TableRef) string {
	if table.Schema != "" {
		return table.Schema
	}
	return a.config.Schema
}
