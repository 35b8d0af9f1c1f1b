package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Iron-Ham/resumer/internal/checkpoint"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "run.phase")
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

// ValidOutputFormats returns the list of valid output formats
func ValidOutputFormats() []string {
	return []string{"text", "json", "yaml"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError
	errors = append(errors, c.validateRun()...)
	errors = append(errors, c.validateOutput()...)
	errors = append(errors, c.validateLogging()...)
	return errors
}

func (c *Config) validateRun() []ValidationError {
	var errors []ValidationError

	if !checkpoint.IsValidPhase(checkpoint.Phase(c.Run.Phase)) {
		phases := make([]string, 0, 2)
		for _, p := range checkpoint.ValidPhases() {
			phases = append(phases, string(p))
		}
		errors = append(errors, ValidationError{
			Field:   "run.phase",
			Value:   c.Run.Phase,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(phases, ", ")),
		})
	}

	// Task names become directory names under the run directory
	seen := make(map[string]bool, len(c.Run.Tasks))
	for i, name := range c.Run.Tasks {
		field := fmt.Sprintf("run.tasks[%d]", i)
		switch {
		case strings.TrimSpace(name) == "":
			errors = append(errors, ValidationError{Field: field, Value: name, Message: "must not be empty"})
		case strings.ContainsAny(name, `/\`) || name == "." || name == "..":
			errors = append(errors, ValidationError{Field: field, Value: name, Message: "must be a plain directory name"})
		case seen[name]:
			errors = append(errors, ValidationError{Field: field, Value: name, Message: "is listed more than once"})
		}
		seen[name] = true
	}

	return errors
}

func (c *Config) validateOutput() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(ValidOutputFormats(), c.Output.Format) {
		errors = append(errors, ValidationError{
			Field:   "output.format",
			Value:   c.Output.Format,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidOutputFormats(), ", ")),
		})
	}

	return errors
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	return errors
}
