package config

import (
	"errors"
	"fmt"
	"strings"
)

// Error categories.
const (
	CategoryInvalid = "invalid"
	CategoryMissing = "missing"
	CategorySource  = "source"
)

// ConfigError describes a configuration problem with actionable guidance.
// All error messages are lowercase following Go conventions.
//
//nolint:revive // ConfigError is intentionally named for clarity in external API usage
type ConfigError struct {
	Category string   // "invalid", "missing" or "source"
	Field    string   // config key path (e.g., "file.dir")
	Message  string   // user-friendly error message (lowercase)
	Action   string   // actionable instruction (lowercase)
	Details  []string // additional details or examples
	Err      error    // underlying cause, if any
}

// Error renders "config_<category>: <field> <message> <action> <details>", skipping empty parts.
func (e *ConfigError) Error() string {
	var parts []string
	if e.Category != "" {
		parts = append(parts, fmt.Sprintf("config_%s:", e.Category))
	}
	if e.Field != "" {
		parts = append(parts, e.Field)
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Action != "" {
		parts = append(parts, e.Action)
	}
	if len(e.Details) > 0 {
		parts = append(parts, strings.Join(e.Details, "; "))
	}
	return strings.Join(parts, " ")
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewInvalidFieldError creates an error for an invalid configuration value.
func NewInvalidFieldError(field, message string, validOptions []string) *ConfigError {
	err := &ConfigError{
		Category: CategoryInvalid,
		Field:    field,
		Message:  message,
	}
	if len(validOptions) > 0 {
		err.Action = fmt.Sprintf("must be one of: %s", strings.Join(validOptions, ", "))
	}
	return err
}

// NewMissingFieldError creates an error for a required configuration field.
func NewMissingFieldError(field, envVar string) *ConfigError {
	return &ConfigError{
		Category: CategoryMissing,
		Field:    field,
		Message:  "required",
		Action:   fmt.Sprintf("set %s env var or add %s to the config file", envVar, field),
	}
}

// NewSourceError wraps a failure to read a configuration source.
func NewSourceError(source string, err error) *ConfigError {
	return &ConfigError{
		Category: CategorySource,
		Field:    source,
		Message:  "could not be loaded",
		Err:      err,
		Details:  []string{err.Error()},
	}
}

// IsInvalid reports whether err carries a ConfigError of the invalid or missing category.
func IsInvalid(err error) bool {
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return configErr.Category == CategoryInvalid || configErr.Category == CategoryMissing
	}
	return false
}
