package mssql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ekaya-inc/ekaya-profiler/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-profiler/pkg/models"
)

// ListTables returns the user tables of the configured schema in name order.
func (a *Adapter) ListTables(ctx context.Context) ([]datasource.TableRef, error) {
	query := `
	SET NOCOUNT ON;
	SELECT t.name
	FROM sys.tables t
	WHERE SCHEMA_NAME(t.schema_id) = @schema
	  AND t.is_ms_shipped = 0   -- Exclude system tables
	ORDER BY t.name
	`

	rows, err := a.db.QueryContext(ctx, query, sql.Named("schema", a.config.Schema))
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	tables := make([]datasource.TableRef, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table row: %w", err)
		}
		tables = append(tables, datasource.TableRef{Schema: a.config.Schema, Name: name})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table rows: %w", err)
	}
	return tables, nil
}

// GetColumns returns columns in column_id order.
func (a *Adapter) GetColumns(ctx context.Context, table datasource.TableRef) ([]datasource.ColumnInfo, error) {
	query := `
	SET NOCOUNT ON;
	SELECT
	    c.name,
	    tp.name,
	    c.max_length,
	    c.precision,
	    c.scale,
	    c.is_nullable,
	    dc.definition
	FROM sys.columns c
	INNER JOIN sys.types tp ON c.user_type_id = tp.user_type_id
	LEFT JOIN sys.default_constraints dc ON dc.object_id = c.default_object_id
	WHERE c.object_id = OBJECT_ID(QUOTENAME(@schema) + N'.' + QUOTENAME(@table))
	ORDER BY c.column_id
	`

	rows, err := a.db.QueryContext(ctx, query,
		sql.Named("schema", a.schemaOf(table)),
		sql.Named("table", table.Name),
	)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	columns := make([]datasource.ColumnInfo, 0)
	for rows.Next() {
		var (
			col                    datasource.ColumnInfo
			typeName               string
			maxLength, prec, scale int
			definition             sql.NullString
		)
		if err := rows.Scan(&col.Name, &typeName, &maxLength, &prec, &scale, &col.Nullable, &definition); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}
		col.DataType = declaredType(typeName, maxLength, prec, scale)
		col.Default = datasource.NullableString(definition)
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate column rows: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}
	return columns, nil
}

// GetPrimaryKey returns the primary key columns in key order.
func (a *Adapter) GetPrimaryKey(ctx context.Context, table datasource.TableRef) ([]string, error) {
	query := `
	SET NOCOUNT ON;
	SELECT c.name
	FROM sys.indexes i
	INNER JOIN sys.index_columns ic ON ic.object_id = i.object_id AND ic.index_id = i.index_id
	INNER JOIN sys.columns c ON c.object_id = ic.object_id AND c.column_id = ic.column_id
	WHERE i.is_primary_key = 1
	  AND i.object_id = OBJECT_ID(QUOTENAME(@schema) + N'.' + QUOTENAME(@table))
	ORDER BY ic.key_ordinal
	`

	rows, err := a.db.QueryContext(ctx, query,
		sql.Named("schema", a.schemaOf(table)),
		sql.Named("table", table.Name),
	)
	if err != nil {
		return nil, fmt.Errorf("query primary key: %w", err)
	}
	defer rows.Close()

	pk := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan primary key row: %w", err)
		}
		pk = append(pk, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate primary key rows: %w", err)
	}
	return pk, nil
}

// GetForeignKeys returns the table's foreign keys grouped by constraint.
func (a *Adapter) GetForeignKeys(ctx context.Context, table datasource.TableRef) ([]models.ForeignKeyConstraint, error) {
	query := `
	SET NOCOUNT ON;
	SELECT
	    fk.name AS constraint_name,
	    pc.name AS column_name,
	    SCHEMA_NAME(rt.schema_id) AS referred_schema,
	    rt.name AS referred_table,
	    rc.name AS referred_column
	FROM sys.foreign_keys fk
	INNER JOIN sys.foreign_key_columns fkc ON fkc.constraint_object_id = fk.object_id
	INNER JOIN sys.columns pc ON pc.object_id = fkc.parent_object_id AND pc.column_id = fkc.parent_column_id
	INNER JOIN sys.tables rt ON rt.object_id = fkc.referenced_object_id
	INNER JOIN sys.columns rc ON rc.object_id = fkc.referenced_object_id AND rc.column_id = fkc.referenced_column_id
	WHERE fk.parent_object_id = OBJECT_ID(QUOTENAME(@schema) + N'.' + QUOTENAME(@table))
	ORDER BY fk.name, fkc.constraint_column_id
	`

	rows, err := a.db.QueryContext(ctx, query,
		sql.Named("schema", a.schemaOf(table)),
		sql.Named("table", table.Name),
	)
	if err != nil {
		return nil, fmt.Errorf("query foreign keys: %w", err)
	}
	defer rows.Close()

	var fkRows []datasource.ForeignKeyRow
	for rows.Next() {
		var r datasource.ForeignKeyRow
		if err := rows.Scan(&r.Name, &r.Column, &r.ReferredSchema, &r.ReferredTable, &r.ReferredColumn); err != nil {
			return nil, fmt.Errorf("scan foreign key row: %w", err)
		}
		fkRows = append(fkRows, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate foreign key rows: %w", err)
	}
	return datasource.GroupForeignKeys(fkRows), nil
}

func (a *Adapter) schemaOf(table datasource.TableRef) string {
	if table.Schema != "" {
		return table.Schema
	}
	return a.config.Schema
}
