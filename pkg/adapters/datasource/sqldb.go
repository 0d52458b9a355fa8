package datasource

import (
	"context"
	"database/sql"
	"fmt"
)

// ScanRows reads every row of a database/sql result into a QueryResult.
// Shared by the adapters built on database/sql (SQL Server, SQLite).
func ScanRows(rows *sql.Rows) (*QueryResult, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("get columns: %w", err)
	}

	result := &QueryResult{Columns: columns, Rows: make([][]any, 0)}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}

// NullableString converts a scanned sql.NullString into an optional string.
func NullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

// QuerySQL runs a SELECT on db and returns all rows, classifying failures
// with classify.
func QuerySQL(ctx context.Context, db *sql.DB, query string, args []any, classify Classifier) (*QueryResult, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, NewQueryError(ctx, query, err, classify)
	}
	defer rows.Close()

	result, err := ScanRows(rows)
	if err != nil {
		return nil, NewQueryError(ctx, query, err, classify)
	}
	return result, nil
}
