package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration         = errors.New("configuration error")
	ErrIntrospection         = errors.New("introspection failed")
	ErrUnsupportedDatasource = errors.New("unsupported datasource")
)

// ConfigurationError reports a setting that prevents the run from starting.
type ConfigurationError struct {
	Setting string // dotted config path, e.g. "sampling.topk"
	Reason  string
	Cause   error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("invalid configuration %s: %s", e.Setting, e.Reason)
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is(err, ErrConfiguration) match any ConfigurationError.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// NewConfigurationError creates a ConfigurationError for setting.
func NewConfigurationError(setting, reason string, cause error) *ConfigurationError {
	return &ConfigurationError{Setting: setting, Reason: reason, Cause: cause}
}

// IntrospectionError reports that schema metadata for a table (or the table
// list itself, when Table is empty) could not be read.
type IntrospectionError struct {
	Table     string
	Operation string // "list tables", "get columns", "get primary key", "get foreign keys"
	Cause     error
}

func (e *IntrospectionError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("introspection failed (%s): %v", e.Operation, e.Cause)
	}
	return fmt.Sprintf("introspection failed for table %s (%s): %v", e.Table, e.Operation, e.Cause)
}

func (e *IntrospectionError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is(err, ErrIntrospection) match any IntrospectionError.
func (e *IntrospectionError) Is(target error) bool {
	return target == ErrIntrospection
}

// NewIntrospectionError creates an IntrospectionError.
func NewIntrospectionError(table, operation string, cause error) *IntrospectionError {
	return &IntrospectionError{Table: table, Operation: operation, Cause: cause}
}
