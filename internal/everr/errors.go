// Package everr provides standardized error handling for evolve.
// All errors have stable, machine-readable codes, structured context, and proper wrapping.
package everr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Code represents a stable, machine-readable error code.
// Format: E{category}{number} where category is 1-4 and number is 001-999.
type Code string

// Error codes organized by category.
const (
	// Snapshot/schema errors (E1xxx) - problems with model definitions or snapshots
	ErrSchemaInvalid   Code = "E1001" // Model definition or snapshot is malformed
	ErrSchemaNotFound  Code = "E1002" // Referenced model does not exist
	ErrSchemaDuplicate Code = "E1003" // Model with same name declared twice

	// Validation errors (E2xxx) - problems with operation payloads
	ErrInvalidIdentifier Code = "E2001" // Identifier does not match allowed pattern
	ErrInvalidOperation  Code = "E2002" // Operation payload is incomplete or inconsistent
	ErrUnknownOperation  Code = "E2003" // Operation kind is not part of the closed set

	// Migration errors (E3xxx) - problems during migration runs
	ErrMigrationFailed   Code = "E3001" // Migration execution failed
	ErrUnitLoad          Code = "E3002" // Migration unit file cannot be parsed or loaded
	ErrMigrationConflict Code = "E3003" // Rollback target or unit state conflicts with the ledger
	ErrIrreversible      Code = "E3004" // Operation has no safe reverse
	ErrUnknownCallback   Code = "E3005" // Callback handler is not registered

	// SQL errors (E4xxx) - problems with database operations
	ErrSQLExecution   Code = "E4001" // SQL statement failed to execute
	ErrSQLConnection  Code = "E4002" // Database connection failed
	ErrSQLTransaction Code = "E4003" // Transaction operation failed
)

// Error is the standard error type for evolve.
// It provides structured error information with codes, context, and wrapping support.
type Error struct {
	code    Code           // Machine-readable error code
	message string         // Human-readable error message
	context map[string]any // Structured context data
	cause   error          // Wrapped underlying error
}

// Error returns the formatted error string.
// Format:
//
//	[E3001] migration failed
//	  revision: 20240101120000
//	  sql: ALTER TABLE "users" ...
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.code, e.message))

	// Write context in sorted order for deterministic output
	if len(e.context) > 0 {
		keys := make([]string, 0, len(e.context))
		for k := range e.context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			b.WriteString(fmt.Sprintf("\n  %s: %v", k, e.context[k]))
		}
	}

	if e.cause != nil {
		b.WriteString(fmt.Sprintf("\n  cause: %v", e.cause))
	}

	return b.String()
}

// Unwrap returns the underlying cause error for errors.Unwrap compatibility.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether the target error matches this error.
// Two *Error values match when they carry the same code.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}

	var targetErr *Error
	if errors.As(target, &targetErr) {
		return e.code == targetErr.code
	}

	return false
}

// GetCode returns the error code.
func (e *Error) GetCode() Code {
	return e.code
}

// GetMessage returns the error message.
func (e *Error) GetMessage() string {
	return e.message
}

// GetContext returns the error context map.
func (e *Error) GetContext() map[string]any {
	return e.context
}

// With adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *Error) With(key string, value any) *Error {
	if e.context == nil {
		e.context = make(map[string]any)
	}
	e.context[key] = value
	return e
}

// WithModel adds model context to the error.
func (e *Error) WithModel(name string) *Error {
	return e.With("model", name)
}

// WithField adds field context to the error.
func (e *Error) WithField(name string) *Error {
	return e.With("field", name)
}

// WithRevision adds migration revision context to the error.
func (e *Error) WithRevision(revision string) *Error {
	return e.With("revision", revision)
}

// WithSQL adds SQL statement context to the error.
func (e *Error) WithSQL(sql string) *Error {
	return e.With("sql", sql)
}

// New creates a new Error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{
		code:    code,
		message: msg,
		context: make(map[string]any),
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{
		code:    code,
		message: fmt.Sprintf(format, args...),
		context: make(map[string]any),
	}
}

// Wrap creates a new Error that wraps an existing error.
func Wrap(code Code, err error, msg string) *Error {
	if err == nil {
		return New(code, msg)
	}
	return &Error{
		code:    code,
		message: msg,
		context: make(map[string]any),
		cause:   err,
	}
}

// Wrapf creates a new Error that wraps an existing error with a formatted message.
func Wrapf(code Code, err error, format string, args ...any) *Error {
	return Wrap(code, err, fmt.Sprintf(format, args...))
}

// GetErrorCode extracts the error code from an error chain.
// Returns empty string if no code is found.
func GetErrorCode(err error) Code {
	if err == nil {
		return ""
	}

	var everr *Error
	if errors.As(err, &everr) {
		return everr.code
	}

	return ""
}

// Is checks if an error has the specified code.
func Is(err error, code Code) bool {
	return GetErrorCode(err) == code
}

// HasCode checks if an error has any error code.
func HasCode(err error) bool {
	return GetErrorCode(err) != ""
}
