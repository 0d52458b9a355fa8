package sql

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult describes an identifier that looks like SQL injection.
type InjectionCheckResult struct {
	IsSQLi      bool   // True if SQL injection pattern detected
	Fingerprint string // libinjection fingerprint of the detected pattern
	Kind        string // "table" or "column"
	Identifier  string
}

// CheckIdentifier runs libinjection over a table or column name read from
// the catalog. Quoting keeps such names harmless in generated statements;
// the check exists so suspicious names can be surfaced in logs.
//
// Returns nil if no injection pattern is detected.
func CheckIdentifier(kind, identifier string) *InjectionCheckResult {
	if identifier == "" {
		return nil
	}

	isSQLi, fingerprint := libinjection.IsSQLi(identifier)
	if !isSQLi {
		return nil
	}
	return &InjectionCheckResult{
		IsSQLi:      true,
		Fingerprint: string(fingerprint),
		Kind:        kind,
		Identifier:  identifier,
	}
}

// CheckIdentifiers checks a table name and its column names.
// Returns one result per suspicious identifier, table first.
func CheckIdentifiers(table string, columns []string) []*InjectionCheckResult {
	var results []*InjectionCheckResult
	if r := CheckIdentifier("table", table); r != nil {
		results = append(results, r)
	}
	for _, c := range columns {
		if r := CheckIdentifier("column", c); r != nil {
			results = append(results, r)
		}
	}
	return results
}
