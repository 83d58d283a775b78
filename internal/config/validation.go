// Package config provides configuration management for the Grid Better evaluator.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the validator with custom validation rules.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions.
func NewValidator() *CustomValidator {
	v := validator.New()

	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("glob", validateGlobPattern)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration.
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules.
func (cv *CustomValidator) Validate(cfg *Config) error {
	if err := cv.validator.Struct(cfg); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	return validateCrossField(cfg)
}

// validateLogLevel validates the log level field.
func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateGlobPattern rejects empty or path-separating glob patterns. Patterns
// apply to base names inside the watch directory only.
func validateGlobPattern(fl validator.FieldLevel) bool {
	pattern := fl.Field().String()
	return pattern != "" && !strings.ContainsAny(pattern, "/\\")
}

// validateCrossField performs validations spanning multiple fields.
func validateCrossField(cfg *Config) error {
	if cfg.Evaluator.WatchDirectory == cfg.Evaluator.ArchiveDirectory {
		return fmt.Errorf("evaluator: watch_directory and archive_directory must differ, both are %q", cfg.Evaluator.WatchDirectory)
	}
	for _, pattern := range cfg.Evaluator.FilePatterns {
		if pattern == "" || strings.ContainsAny(pattern, "/\\") {
			return fmt.Errorf("evaluator: invalid file pattern %q", pattern)
		}
	}
	return nil
}

// formatValidationErrors formats validation errors into a readable string.
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	messages := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		messages = append(messages, fmt.Sprintf("%s failed on %q", fieldErr.Namespace(), fieldErr.Tag()))
	}
	return fmt.Errorf("configuration validation failed: %s", strings.Join(messages, "; "))
}
