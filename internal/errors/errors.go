// Package errors provides centralized error definitions and error handling
// utilities for the runlet codebase. It defines domain-specific errors,
// error constructors with context wrapping, and classification helpers.
//
// Creating errors:
//
//	// Domain-specific error
//	err := errors.NewParseError("task definition is not valid JSON", cause)
//
//	// With context
//	err := errors.NewTaskError("command failed", cause).WithTaskID("build")
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrEmptyTaskSet) { ... }
//
//	var parseErr *errors.ParseError
//	if errors.As(err, &parseErr) { ... }
//
//	if errors.IsUserFacing(err) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Task-input sentinel errors
var (
	// ErrNoTaskInput indicates that neither inline JSON nor a task file was provided.
	ErrNoTaskInput = New("no task input provided")
	// ErrEmptyTaskSet indicates that the parsed task set contains no tasks.
	ErrEmptyTaskSet = New("task set contains no tasks")
)

// Execution sentinel errors
var (
	// ErrOutputDirCreate indicates that the run output directory could not be created.
	ErrOutputDirCreate = New("cannot create output directory")
	// ErrWatchUnsupported indicates watch mode was requested without a watchable file.
	ErrWatchUnsupported = New("watch mode requires a task file")
)

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// RunletError is the base interface for all runlet errors. It extends the
// standard error interface with classification methods.
type RunletError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the error is transient and the operation
	// may succeed on retry.
	IsRetryable() bool

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// ParseError represents a failure to parse a task definition. The Shapes
// field lists the accepted input shapes so the user sees what was expected.
type ParseError struct {
	baseError
	Shapes []string
}

// AcceptedShapes are the three task definition shapes the parser tries,
// in priority order.
var AcceptedShapes = []string{
	"a single task object with 'id' and 'cmd'",
	"an array of task objects",
	"a task set object with 'tasks' or 'groups'",
}

// NewParseError creates a new ParseError listing the accepted shapes.
func NewParseError(message string, cause error) *ParseError {
	return &ParseError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			retryable:  false,
			userFacing: true,
		},
		Shapes: AcceptedShapes,
	}
}

// Error returns the formatted error message.
func (e *ParseError) Error() string {
	msg := "parse error: " + e.message
	if len(e.Shapes) > 0 {
		msg += " (expected " + strings.Join(e.Shapes, ", or ") + ")"
	}
	if e.cause != nil {
		msg += fmt.Sprintf(": %v", e.cause)
	}
	return msg
}

// TaskError represents a failure tied to one task's execution.
type TaskError struct {
	baseError
	TaskID string
}

// NewTaskError creates a new TaskError.
func NewTaskError(message string, cause error) *TaskError {
	return &TaskError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithTaskID adds the task ID to the error context.
func (e *TaskError) WithTaskID(id string) *TaskError {
	e.TaskID = id
	return e
}

// WithRetryable sets whether the error is retryable.
func (e *TaskError) WithRetryable(r bool) *TaskError {
	e.retryable = r
	return e
}

// Error returns the formatted error message.
func (e *TaskError) Error() string {
	prefix := "task error"
	if e.TaskID != "" {
		prefix = fmt.Sprintf("task error [task=%s]", e.TaskID)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// -----------------------------------------------------------------------------
// Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable reports whether the error is transient. Errors that do not
// implement RunletError are treated as non-retryable.
func IsRetryable(err error) bool {
	var re RunletError
	if As(err, &re) {
		return re.IsRetryable()
	}
	return false
}

// IsUserFacing reports whether the error message is safe to display to
// end users. Errors that do not implement RunletError are treated as
// internal.
func IsUserFacing(err error) bool {
	var re RunletError
	if As(err, &re) {
		return re.IsUserFacing()
	}
	return false
}

// SeverityOf returns the severity of the error, defaulting to
// SeverityError for errors that do not implement RunletError.
func SeverityOf(err error) Severity {
	var re RunletError
	if As(err, &re) {
		return re.Severity()
	}
	return SeverityError
}
