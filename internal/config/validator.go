package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "batch.max_parallel")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

const (
	maxParallelLimit = 64
	maxDebounceMs    = 60_000
	maxLogSizeMB     = 1000
	maxPathLength    = 4096
)

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateCSV()...)
	errors = append(errors, c.validateBatch()...)
	errors = append(errors, c.validateWatch()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

// validateCSV validates the CSVConfig
func (c *Config) validateCSV() []ValidationError {
	var errors []ValidationError

	if _, ok := ParseDelimiter(c.CSV.Delimiter); !ok {
		errors = append(errors, ValidationError{
			Field:   "csv.delimiter",
			Value:   c.CSV.Delimiter,
			Message: `must be a single character other than a quote or line break, or "tab"`,
		})
	}

	if strings.ContainsAny(c.CSV.CleanedPrefix, `/\`) {
		errors = append(errors, ValidationError{
			Field:   "csv.cleaned_prefix",
			Value:   c.CSV.CleanedPrefix,
			Message: "must not contain path separators",
		})
	}

	return errors
}

// validateBatch validates the BatchConfig
func (c *Config) validateBatch() []ValidationError {
	var errors []ValidationError

	if c.Batch.MaxParallel < 1 {
		errors = append(errors, ValidationError{
			Field:   "batch.max_parallel",
			Value:   c.Batch.MaxParallel,
			Message: "must be at least 1",
		})
	}
	if c.Batch.MaxParallel > maxParallelLimit {
		errors = append(errors, ValidationError{
			Field:   "batch.max_parallel",
			Value:   c.Batch.MaxParallel,
			Message: fmt.Sprintf("exceeds maximum of %d", maxParallelLimit),
		})
	}

	return errors
}

// validateWatch validates the WatchConfig
func (c *Config) validateWatch() []ValidationError {
	var errors []ValidationError

	if c.Watch.DebounceMs < 0 || c.Watch.DebounceMs > maxDebounceMs {
		errors = append(errors, ValidationError{
			Field:   "watch.debounce_ms",
			Value:   c.Watch.DebounceMs,
			Message: fmt.Sprintf("must be between 0 and %d", maxDebounceMs),
		})
	}

	paths := []struct {
		field string
		value string
	}{
		{"watch.inbox", c.Watch.Inbox},
		{"watch.outbox", c.Watch.Outbox},
		{"watch.archive", c.Watch.Archive},
	}
	for _, p := range paths {
		errors = append(errors, validatePath(p.field, p.value)...)
	}

	if c.Watch.Inbox != "" && c.Watch.Archive != "" && c.Watch.Inbox == c.Watch.Archive {
		errors = append(errors, ValidationError{
			Field:   "watch.archive",
			Value:   c.Watch.Archive,
			Message: "must differ from watch.inbox",
		})
	}

	return errors
}

// validatePath rejects null bytes and overlong paths
func validatePath(field, path string) []ValidationError {
	var errors []ValidationError

	if strings.ContainsRune(path, '\x00') {
		errors = append(errors, ValidationError{
			Field:   field,
			Value:   path,
			Message: "path contains invalid null character",
		})
	}
	if len(path) > maxPathLength {
		errors = append(errors, ValidationError{
			Field:   field,
			Value:   path,
			Message: fmt.Sprintf("path exceeds maximum length of %d characters", maxPathLength),
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}

	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}
