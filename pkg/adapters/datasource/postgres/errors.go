package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ekaya-inc/ekaya-profiler/pkg/models"
)

// SQLSTATE codes meaning the column type cannot take the operation,
// e.g. MIN(jsonb) or DISTINCT on a type without equality.
var unsupportedCodes = map[string]bool{
	"42883": true, // undefined_function (no operator/aggregate for the type)
	"42804": true, // datatype_mismatch
	"42846": true, // cannot_coerce
	"0A000": true, // feature_not_supported
}

const queryCanceled = "57014"

// classify maps PostgreSQL errors to failure kinds.
func classify(err error) (models.StatFailureKind, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	switch {
	case pgErr.Code == queryCanceled:
		return models.FailureTimeout, true
	case unsupportedCodes[pgErr.Code]:
		return models.FailureUnsupported, true
	default:
		return models.FailureQuery, true
	}
}
