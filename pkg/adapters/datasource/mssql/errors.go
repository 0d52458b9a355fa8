package mssql

import (
	"errors"

	mssql "github.com/microsoft/go-mssqldb"

	"github.com/ekaya-inc/ekaya-profiler/pkg/models"
)

// Error numbers meaning the column type cannot take the operation.
var unsupportedNumbers = map[int32]bool{
	8117: true, // operand data type is invalid for aggregate operator
	306:  true, // text, ntext and image cannot be compared or sorted
	8116: true, // argument data type is invalid for argument of function
	529:  true, // explicit conversion is not allowed
	402:  true, // data types are incompatible in operator
	5309: true, // aggregates and grouping on xml/geography columns
}

// classify maps SQL Server errors to failure kinds.
func classify(err error) (models.StatFailureKind, bool) {
	var msErr mssql.Error
	if !errors.As(err, &msErr) {
		return "", false
	}
	if unsupportedNumbers[msErr.Number] {
		return models.FailureUnsupported, true
	}
	return models.FailureQuery, true
}
