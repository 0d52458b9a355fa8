package datasource

// TableRef identifies a table. Schema is empty for engines without schemas (SQLite).
type TableRef struct {
	Schema string `json:"schema,omitempty"`
	Name   string `json:"name"`
}

// String returns schema.name, or name when there is no schema.
func (t TableRef) String() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// ColumnInfo is a column as reported by introspection.
type ColumnInfo struct {
	Name     string
	DataType string // declared type as the engine renders it, e.g. "character varying(255)"
	Nullable bool
	Default  *string // textual default expression; nil when the column has none
}

// QueryResult holds the rows of a SELECT. Values are raw driver values;
// callers normalize them with models.ValueOf.
type QueryResult struct {
	Columns []string
	Rows    [][]any
}

// ForeignKeyRow is one column pair of a foreign key as returned by catalog
// queries, before grouping into constraints.
type ForeignKeyRow struct {
	Key            string // groups rows of the same constraint; usually the constraint name
	Name           string
	Column         string
	ReferredSchema string
	ReferredTable  string
	ReferredColumn string
}
