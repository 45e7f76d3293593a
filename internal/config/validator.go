package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "council.chairman")
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

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateCouncil()...)
	errors = append(errors, c.validateProvider()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

func (c *Config) validateCouncil() []ValidationError {
	var errors []ValidationError

	if len(c.Council.Members) == 0 {
		errors = append(errors, ValidationError{
			Field:   "council.members",
			Value:   c.Council.Members,
			Message: "at least one council member is required",
		})
	}

	seen := make(map[string]bool, len(c.Council.Members))
	for _, member := range c.Council.Members {
		if seen[member] {
			errors = append(errors, ValidationError{
				Field:   "council.members",
				Value:   member,
				Message: "duplicate council member",
			})
		}
		seen[member] = true
	}

	if c.Council.Chairman == "" {
		errors = append(errors, ValidationError{
			Field:   "council.chairman",
			Value:   c.Council.Chairman,
			Message: "a chairman is required",
		})
	} else if len(c.Council.Members) > 0 && !slices.Contains(c.Council.Members, c.Council.Chairman) {
		errors = append(errors, ValidationError{
			Field:   "council.chairman",
			Value:   c.Council.Chairman,
			Message: "chairman must be one of council.members",
		})
	}

	if c.Council.MaxConcurrent < 0 {
		errors = append(errors, ValidationError{
			Field:   "council.max_concurrent",
			Value:   c.Council.MaxConcurrent,
			Message: "must be zero or positive",
		})
	}

	if c.Council.ConsensusThreshold <= 0 || c.Council.ConsensusThreshold > 1 {
		errors = append(errors, ValidationError{
			Field:   "council.consensus_threshold",
			Value:   c.Council.ConsensusThreshold,
			Message: "must be in (0, 1]",
		})
	}

	return errors
}

func (c *Config) validateProvider() []ValidationError {
	var errors []ValidationError

	if c.Provider.BaseURL == "" {
		errors = append(errors, ValidationError{
			Field:   "provider.base_url",
			Value:   c.Provider.BaseURL,
			Message: "a base URL is required",
		})
	}

	if c.Provider.TimeoutSeconds <= 0 {
		errors = append(errors, ValidationError{
			Field:   "provider.timeout_seconds",
			Value:   c.Provider.TimeoutSeconds,
			Message: "must be positive",
		})
	}

	return errors
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	return errors
}
