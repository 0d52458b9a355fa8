package datasource

import (
	"context"
	"errors"
	"fmt"

	"github.com/ekaya-inc/ekaya-profiler/pkg/models"
)

// QueryError is a failed statistic query, classified by the adapter that ran it.
type QueryError struct {
	Kind  models.StatFailureKind
	Query string
	Cause error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
}

func (e *QueryError) Unwrap() error {
	return e.Cause
}

// Classifier maps a driver error to a failure kind. It returns ok=false when
// the error is not one it recognizes.
type Classifier func(err error) (kind models.StatFailureKind, ok bool)

// NewQueryError classifies err. A context deadline always wins; otherwise
// classify decides between unsupported and query_error.
func NewQueryError(ctx context.Context, query string, err error, classify Classifier) *QueryError {
	var existing *QueryError
	if errors.As(err, &existing) {
		return existing
	}
	return &QueryError{Kind: classifyKind(ctx, err, classify), Query: query, Cause: err}
}

func classifyKind(ctx context.Context, err error, classify Classifier) models.StatFailureKind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return models.FailureTimeout
	}
	if classify != nil {
		if kind, ok := classify(err); ok {
			return kind
		}
	}
	return models.FailureQuery
}

// FailureKind returns the kind of a query failure. Errors that did not come
// from an adapter are query errors unless they are deadline errors.
func FailureKind(err error) models.StatFailureKind {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return models.FailureTimeout
	}
	return models.FailureQuery
}
