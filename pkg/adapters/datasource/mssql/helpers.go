package mssql

import (
	"fmt"
	"strings"
)

// quoteName returns a bracket-quoted identifier, the equivalent of QUOTENAME().
func quoteName(identifier string) string {
	// QUOTENAME in SQL Server uses square brackets and escapes ] as ]]
	escaped := strings.ReplaceAll(identifier, "]", "]]")
	return fmt.Sprintf("[%s]", escaped)
}

// buildFullyQualifiedName builds a fully qualified table name: [schema].[table]
func buildFullyQualifiedName(schema, table string) string {
	if schema == "" {
		return quoteName(table)
	}
	return fmt.Sprintf("%s.%s", quoteName(schema), quoteName(table))
}

// declaredType renders a column type the way SQL Server scripts it,
// e.g. nvarchar(100), varbinary(max), decimal(10,2).
// maxLength is in bytes as stored in sys.columns (-1 for max).
func declaredType(typeName string, maxLength, precision, scale int) string {
	name := strings.ToLower(typeName)

	switch name {
	case "char", "varchar", "binary", "varbinary":
		if maxLength == -1 {
			return name + "(max)"
		}
		return fmt.Sprintf("%s(%d)", name, maxLength)
	case "nchar", "nvarchar":
		if maxLength == -1 {
			return name + "(max)"
		}
		// Stored as UTF-16 code units.
		return fmt.Sprintf("%s(%d)", name, maxLength/2)
	case "decimal", "numeric":
		return fmt.Sprintf("%s(%d,%d)", name, precision, scale)
	case "datetime2", "datetimeoffset", "time":
		return fmt.Sprintf("%s(%d)", name, scale)
	default:
		return name
	}
}
