package adapter

import (
	"errors"
	"fmt"
	"strings"
)

// Standard engine errors
var (
	// ErrSchemaNotFound is returned when a keyspace or table does not exist
	ErrSchemaNotFound = errors.New("schema not found")

	// ErrIntrospection is returned when schema metadata cannot be read or understood
	ErrIntrospection = errors.New("schema introspection failed")

	// ErrValidation is returned when user input does not fit a column type
	ErrValidation = errors.New("validation failed")

	// ErrMissingKey is returned when a primary key column is absent
	ErrMissingKey = errors.New("missing primary key column")

	// ErrFullScanRequired is returned when a filter needs ALLOW FILTERING across partitions
	ErrFullScanRequired = errors.New("query requires a full scan acknowledgment")

	// ErrConnectionFailed is returned when the session cannot reach the cluster
	ErrConnectionFailed = errors.New("connection failed")

	// ErrExecutionFailed is returned when the cluster rejects a statement
	ErrExecutionFailed = errors.New("statement execution failed")

	// ErrEmptyStatement is returned for a blank raw query
	ErrEmptyStatement = errors.New("empty statement")

	// ErrNoMorePages is returned when paging past the last page
	ErrNoMorePages = errors.New("no more pages")

	// ErrNoTableSelected is returned for table operations before a table is selected
	ErrNoTableSelected = errors.New("no table selected")

	// ErrInvalidPageState is returned when a continuation token cannot be decoded
	ErrInvalidPageState = errors.New("invalid page state")
)

// SchemaNotFoundError is returned when a keyspace or table is unknown to the cluster.
type SchemaNotFoundError struct {
	Keyspace string
	Table    string
}

// Error implements the error interface.
func (e *SchemaNotFoundError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("keyspace not found: %s", e.Keyspace)
	}
	return fmt.Sprintf("table not found: %s.%s", e.Keyspace, e.Table)
}

// Is checks if the error is ErrSchemaNotFound.
func (e *SchemaNotFoundError) Is(target error) bool {
	return errors.Is(target, ErrSchemaNotFound)
}

// NewSchemaNotFoundError creates a new SchemaNotFoundError.
func NewSchemaNotFoundError(keyspace, table string) *SchemaNotFoundError {
	return &SchemaNotFoundError{Keyspace: keyspace, Table: table}
}

// IntrospectionError wraps a failed or malformed metadata read.
type IntrospectionError struct {
	Keyspace string
	Table    string
	Cause    error
}

// Error implements the error interface.
func (e *IntrospectionError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("failed to introspect keyspace %s: %v", e.Keyspace, e.Cause)
	}
	return fmt.Sprintf("failed to introspect %s.%s: %v", e.Keyspace, e.Table, e.Cause)
}

// Unwrap returns the underlying error.
func (e *IntrospectionError) Unwrap() error {
	return e.Cause
}

// Is checks if the error is ErrIntrospection.
func (e *IntrospectionError) Is(target error) bool {
	return errors.Is(target, ErrIntrospection)
}

// NewIntrospectionError creates a new IntrospectionError.
func NewIntrospectionError(keyspace, table string, cause error) *IntrospectionError {
	return &IntrospectionError{Keyspace: keyspace, Table: table, Cause: cause}
}

// ValidationError describes one field that failed validation.
type ValidationError struct {
	Column string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Column == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Column, e.Reason)
}

// Is checks if the error is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return errors.Is(target, ErrValidation)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(column, reason string) *ValidationError {
	return &ValidationError{Column: column, Reason: reason}
}

// ValidationErrors collects field errors so a form can show all of them at once.
type ValidationErrors []*ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	parts := make([]string, len(e))
	for i, ve := range e {
		parts[i] = ve.Error()
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(parts, "; "))
}

// Is checks if the error is ErrValidation.
func (e ValidationErrors) Is(target error) bool {
	return errors.Is(target, ErrValidation)
}

// ByColumn returns the errors keyed by column name, first error wins.
func (e ValidationErrors) ByColumn() map[string]string {
	out := make(map[string]string, len(e))
	for _, ve := range e {
		if _, ok := out[ve.Column]; !ok {
			out[ve.Column] = ve.Reason
		}
	}
	return out
}

// AsError returns nil for an empty collection.
func (e ValidationErrors) AsError() error {
	switch len(e) {
	case 0:
		return nil
	case 1:
		return e[0]
	}
	return e
}

// MissingKeyError lists the primary key columns a statement needs but did not get.
type MissingKeyError struct {
	Operation string
	Columns   []string
}

// Error implements the error interface.
func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("%s requires primary key columns: %s", e.Operation, strings.Join(e.Columns, ", "))
}

// Is checks if the error is ErrMissingKey.
func (e *MissingKeyError) Is(target error) bool {
	return errors.Is(target, ErrMissingKey)
}

// NewMissingKeyError creates a new MissingKeyError.
func NewMissingKeyError(operation string, columns []string) *MissingKeyError {
	return &MissingKeyError{Operation: operation, Columns: columns}
}

// FullScanError is returned when a filter set would scan every partition.
// The statement is only issued after the caller acknowledges the cost.
type FullScanError struct {
	Keyspace       string
	Table          string
	MissingColumns []string
}

// Error implements the error interface.
func (e *FullScanError) Error() string {
	return fmt.Sprintf("filtering %s.%s without partition key columns (%s) requires ALLOW FILTERING",
		e.Keyspace, e.Table, strings.Join(e.MissingColumns, ", "))
}

// Is checks if the error is ErrFullScanRequired.
func (e *FullScanError) Is(target error) bool {
	return errors.Is(target, ErrFullScanRequired)
}

// NewFullScanError creates a new FullScanError.
func NewFullScanError(keyspace, table string, missing []string) *FullScanError {
	return &FullScanError{Keyspace: keyspace, Table: table, MissingColumns: missing}
}

// ConnectionError is returned when a connection error occurs.
type ConnectionError struct {
	Hosts []string
	Port  int
	Cause error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to cassandra at %s (port %d): %v", strings.Join(e.Hosts, ","), e.Port, e.Cause)
}

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// Is checks if the error is ErrConnectionFailed.
func (e *ConnectionError) Is(target error) bool {
	if errors.Is(target, ErrConnectionFailed) {
		return true
	}
	return errors.Is(e.Cause, target)
}

// NewConnectionError creates a new ConnectionError.
func NewConnectionError(hosts []string, port int, cause error) *ConnectionError {
	return &ConnectionError{Hosts: hosts, Port: port, Cause: cause}
}

// ExecutionError wraps a statement the cluster refused or failed to run.
type ExecutionError struct {
	Statement string
	Cause     error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("error executing %q: %v", e.Statement, e.Cause)
}

// Unwrap returns the underlying error.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is checks if the error is ErrExecutionFailed.
func (e *ExecutionError) Is(target error) bool {
	return errors.Is(target, ErrExecutionFailed)
}

// WrapExecutionError wraps err with the statement text.
// Connection errors and errors already wrapped are returned as-is.
func WrapExecutionError(statement string, err error) error {
	if err == nil {
		return nil
	}

	// Don't double-wrap
	var execErr *ExecutionError
	if errors.As(err, &execErr) || errors.Is(err, ErrConnectionFailed) {
		return err
	}

	return &ExecutionError{Statement: statement, Cause: err}
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsMissingKeyError checks if an error is a missing key error.
func IsMissingKeyError(err error) bool {
	return errors.Is(err, ErrMissingKey)
}

// IsFullScanError checks if an error asks for full scan acknowledgment.
func IsFullScanError(err error) bool {
	return errors.Is(err, ErrFullScanRequired)
}

// IsConnectionError checks if an error is a connection error.
func IsConnectionError(err error) bool {
	return errors.Is(err, ErrConnectionFailed)
}

// IsNotFound checks if an error is a schema not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSchemaNotFound)
}

// ValidationDetails flattens a validation error into column -> reason.
// Returns nil when err carries no field errors.
func ValidationDetails(err error) map[string]string {
	var many ValidationErrors
	if errors.As(err, &many) {
		return many.ByColumn()
	}
	var one *ValidationError
	if errors.As(err, &one) {
		return map[string]string{one.Column: one.Reason}
	}
	return nil
}
