// Package errors provides centralized error definitions and error handling utilities
// for KonvertorXML. It defines the sentinels raised while cleaning and converting
// ledger exports, typed errors carrying file and stage context, and classification
// helpers used by the command layer to decide what to show the user.
//
// # Error Types
//
// Domain-specific errors:
//   - CleanError: failures while cleaning a ledger CSV export
//   - ConvertError: failures while turning a cleaned CSV into posting-document XML
//
// Semantic errors:
//   - ValidationError: invalid input (missing document attributes, bad flags)
//   - MissingColumnsError: a CSV lacks one or more required columns
//
// # Usage
//
//	err := errors.NewCleanError("header search", errors.ErrHeaderNotFound).WithFile(path)
//	if errors.Is(err, errors.ErrHeaderNotFound) { ... }
//
//	var convErr *errors.ConvertError
//	if errors.As(err, &convErr) { ... }
package errors

import (
	"errors"
	"fmt"
	"sort"
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
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
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

// Input errors
var (
	// ErrHeaderNotFound indicates that no row of the export looks like the ledger header.
	ErrHeaderNotFound = New("header row not found")
	// ErrEncodingUndetected indicates that none of the candidate encodings decoded the file.
	ErrEncodingUndetected = New("file encoding not recognized")
	// ErrMissingColumns indicates that required columns are absent from the CSV header.
	ErrMissingColumns = New("required columns missing")
	// ErrEmptyInput indicates that the CSV has no header row at all.
	ErrEmptyInput = New("CSV has no header")
	// ErrMissingAttributes indicates that required document attributes were not supplied.
	ErrMissingAttributes = New("document attributes missing")
)

// General sentinel errors
var (
	// ErrCanceled indicates that an operation was canceled by the user.
	ErrCanceled = New("operation canceled")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
	// ErrAlreadyClaimed indicates that a file is already being processed.
	ErrAlreadyClaimed = New("file already being processed")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// KonvertorError is implemented by every typed error in this package.
type KonvertorError interface {
	error
	Unwrap() error
	Severity() Severity
	IsUserFacing() bool
}

type baseError struct {
	message    string
	cause      error
	severity   Severity
	userFacing bool
}

func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *baseError) Unwrap() error      { return e.cause }
func (e *baseError) Severity() Severity { return e.severity }
func (e *baseError) IsUserFacing() bool { return e.userFacing }

// contextPrefix renders "<kind> [k=v, ...]" skipping empty values.
func contextPrefix(kind string, kv ...string) string {
	var parts []string
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] != "" {
			parts = append(parts, kv[i]+"="+kv[i+1])
		}
	}
	if len(parts) == 0 {
		return kind
	}
	return fmt.Sprintf("%s [%s]", kind, strings.Join(parts, ", "))
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// CleanError represents a failure while cleaning a ledger export.
//
// Example:
//
//	err := errors.NewCleanError("header search", errors.ErrHeaderNotFound).WithFile("export.csv")
//	fmt.Println(err) // "clean error [file=export.csv]: header search: header row not found"
type CleanError struct {
	baseError
	File string
}

// NewCleanError creates a new CleanError for the named stage.
func NewCleanError(stage string, cause error) *CleanError {
	return &CleanError{
		baseError: baseError{
			message:    stage,
			cause:      cause,
			severity:   SeverityError,
			userFacing: true,
		},
	}
}

// WithFile adds the input path to the error context.
func (e *CleanError) WithFile(path string) *CleanError {
	e.File = path
	return e
}

// Error returns the formatted error message.
func (e *CleanError) Error() string {
	prefix := contextPrefix("clean error", "file", e.File)
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is reports whether target is a *CleanError or matches the cause.
func (e *CleanError) Is(target error) bool {
	if _, ok := target.(*CleanError); ok {
		return true
	}
	return e.cause != nil && errors.Is(e.cause, target)
}

// ConvertError represents a failure while producing posting-document XML.
type ConvertError struct {
	baseError
	File   string
	Output string
}

// NewConvertError creates a new ConvertError for the named stage.
func NewConvertError(stage string, cause error) *ConvertError {
	return &ConvertError{
		baseError: baseError{
			message:    stage,
			cause:      cause,
			severity:   SeverityError,
			userFacing: true,
		},
	}
}

// WithFile adds the input path to the error context.
func (e *ConvertError) WithFile(path string) *ConvertError {
	e.File = path
	return e
}

// WithOutput adds the output path to the error context.
func (e *ConvertError) WithOutput(path string) *ConvertError {
	e.Output = path
	return e
}

// Error returns the formatted error message.
func (e *ConvertError) Error() string {
	prefix := contextPrefix("convert error", "file", e.File, "output", e.Output)
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is reports whether target is a *ConvertError or matches the cause.
func (e *ConvertError) Is(target error) bool {
	if _, ok := target.(*ConvertError); ok {
		return true
	}
	return e.cause != nil && errors.Is(e.cause, target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("attribute must not be empty").WithField("cislo_ud")
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var value string
	if e.Value != nil {
		value = fmt.Sprintf("%v", e.Value)
	}
	prefix := contextPrefix("validation error", "field", e.Field, "value", value)
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is matches *ValidationError, ErrInvalidInput and the cause chain.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if target == ErrInvalidInput {
		return true
	}
	return e.cause != nil && errors.Is(e.cause, target)
}

// MissingColumnsError lists the canonical column names absent from a CSV
// header together with the folded header names that were present.
type MissingColumnsError struct {
	Missing []string
	Present []string
}

// NewMissingColumnsError creates a MissingColumnsError. Present is sorted.
func NewMissingColumnsError(missing, present []string) *MissingColumnsError {
	p := append([]string(nil), present...)
	sort.Strings(p)
	return &MissingColumnsError{Missing: missing, Present: p}
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing CSV columns: %s; present (normalized) headers: %s",
		strings.Join(e.Missing, ", "), strings.Join(e.Present, ", "))
}

func (e *MissingColumnsError) Unwrap() error      { return ErrMissingColumns }
func (e *MissingColumnsError) Severity() Severity { return SeverityError }
func (e *MissingColumnsError) IsUserFacing() bool { return true }

// MissingAttributesError lists document attributes that were required but empty.
type MissingAttributesError struct {
	Names []string
}

func (e *MissingAttributesError) Error() string {
	return "missing required document attributes: " + strings.Join(e.Names, ", ")
}

func (e *MissingAttributesError) Unwrap() error      { return ErrMissingAttributes }
func (e *MissingAttributesError) Severity() Severity { return SeverityWarning }
func (e *MissingAttributesError) IsUserFacing() bool { return true }

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsUserFacing returns true if the error message is safe to display to end users.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	var kErr KonvertorError
	if As(err, &kErr) {
		return kErr.IsUserFacing()
	}
	return Is(err, ErrCanceled)
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement KonvertorError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}
	var kErr KonvertorError
	if As(err, &kErr) {
		return kErr.Severity()
	}
	if Is(err, ErrCanceled) {
		return SeverityInfo
	}
	return SeverityError
}

// Wrap wraps an error with additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
