package models

import (
	"fmt"
	"strings"
	"time"
)

// Statistic names used in StatFailure and metrics labels.
const (
	StatSamples       = "samples"
	StatNullCount     = "null_count"
	StatDistinctCount = "distinct_count"
	StatTopValues     = "top_values"
	StatMinValue      = "min_value"
	StatMaxValue      = "max_value"
	StatAvgLength     = "avg_length"
	StatRowCount      = "row_count"
)

// StatFailureKind classifies why a statistic could not be computed.
type StatFailureKind string

const (
	// FailureUnsupported means the column type rejects the operation (e.g. MIN on a blob).
	FailureUnsupported StatFailureKind = "unsupported"
	// FailureTimeout means the per-query timeout elapsed.
	FailureTimeout StatFailureKind = "timeout"
	// FailureQuery covers every other query error.
	FailureQuery StatFailureKind = "query_error"
)

// StatFailure records a statistic that was attempted and failed.
// Statistics skipped by policy are never recorded as failures.
type StatFailure struct {
	Statistic string          `json:"statistic"`
	Kind      StatFailureKind `json:"kind"`
	Message   string          `json:"message"`
}

// TopValue is one row of a top-k frequency table. Value is masked; Count is not.
type TopValue struct {
	Value *string `json:"value"`
	Count int64   `json:"count"`
}

// ColumnProfile is one column's profile. Pointer fields are null in the
// serialized document when the statistic was not measured.
type ColumnProfile struct {
	Name         string   `json:"name"`
	DeclaredType string   `json:"type"`
	Nullable     bool     `json:"nullable"`
	Default      *string  `json:"default"`
	IsPrimaryKey bool     `json:"is_primary_key"`
	IsForeignKey bool     `json:"is_foreign_key"`
	FKTarget     *string  `json:"fk_target"`
	FKTargets    []string `json:"fk_targets,omitempty"`

	Samples       []*string  `json:"samples"`
	NullCount     int64      `json:"null_count"`
	RowCount      *int64     `json:"row_count"`
	DistinctCount *int64     `json:"distinct_count"`
	TopValues     []TopValue `json:"top_values"`
	MinValue      *string    `json:"min_value"`
	MaxValue      *string    `json:"max_value"`
	AvgLength     *float64   `json:"avg_length"`

	StatFailures []StatFailure `json:"stat_failures,omitempty"`
}

// Failure returns the recorded failure for statistic, if any.
func (c *ColumnProfile) Failure(statistic string) *StatFailure {
	for i := range c.StatFailures {
		if c.StatFailures[i].Statistic == statistic {
			return &c.StatFailures[i]
		}
	}
	return nil
}

// ForeignKeyConstraint is a foreign key as reported by introspection.
// Constrained and referred columns are paired by position.
type ForeignKeyConstraint struct {
	Name               string   `json:"name,omitempty"`
	ConstrainedColumns []string `json:"constrained_columns"`
	ReferredSchema     string   `json:"referred_schema,omitempty"`
	ReferredTable      string   `json:"referred_table"`
	ReferredColumns    []string `json:"referred_columns"`
}

// Target returns the "table(col, col)" descriptor, or "" when the
// referred table is unknown.
func (fk ForeignKeyConstraint) Target() string {
	if fk.ReferredTable == "" {
		return ""
	}
	return fmt.Sprintf("%s(%s)", fk.ReferredTable, strings.Join(fk.ReferredColumns, ", "))
}

// Constrains reports whether column is one of the constrained columns.
func (fk ForeignKeyConstraint) Constrains(column string) bool {
	for _, c := range fk.ConstrainedColumns {
		if c == column {
			return true
		}
	}
	return false
}

// TableProfile is one table's profile.
type TableProfile struct {
	Schema      string                 `json:"schema,omitempty"`
	Name        string                 `json:"name"`
	RowCount    *int64                 `json:"row_count"`
	Columns     []ColumnProfile        `json:"columns"`
	ForeignKeys []ForeignKeyConstraint `json:"foreign_keys"`
}

// Column returns the named column profile, or nil.
func (t *TableProfile) Column(name string) *ColumnProfile {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// TableError records a table skipped because its introspection failed.
type TableError struct {
	Schema string `json:"schema,omitempty"`
	Table  string `json:"table"`
	Error  string `json:"error"`
}

// DatabaseInfo describes the profiled database without exposing credentials.
type DatabaseInfo struct {
	Dialect string `json:"dialect"`
	Schema  string `json:"schema,omitempty"`
}

// MetadataDocument is the root artifact of a profiling run and the only
// input handed to the report generator.
type MetadataDocument struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Database    DatabaseInfo   `json:"database"`
	Tables      []TableProfile `json:"tables"`
	Errors      []TableError   `json:"errors,omitempty"`
}

// NewMetadataDocument creates a document stamped with the current UTC time.
// Everything else is derived from the database, so two runs over unchanged
// data differ only in GeneratedAt.
func NewMetadataDocument(db DatabaseInfo, tables []TableProfile) *MetadataDocument {
	return &MetadataDocument{
		GeneratedAt: time.Now().UTC(),
		Database:    db,
		Tables:      tables,
	}
}

// Table returns the named table profile, or nil.
func (d *MetadataDocument) Table(name string) *TableProfile {
	for i := range d.Tables {
		if d.Tables[i].Name == name {
			return &d.Tables[i]
		}
	}
	return nil
}

// WithoutSamples returns a copy of the document with every samples array
// emptied. The receiver is not modified.
func (d *MetadataDocument) WithoutSamples() *MetadataDocument {
	out := *d
	out.Tables = make([]TableProfile, len(d.Tables))
	for i, t := range d.Tables {
		t.Columns = append([]ColumnProfile(nil), t.Columns...)
		for j := range t.Columns {
			t.Columns[j].Samples = []*string{}
		}
		out.Tables[i] = t
	}
	return &out
}
