package models

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across packages.
var (
	ErrCorruptLedger     = errors.New("ledger file is corrupt")
	ErrNoRecommendations = errors.New("no recommendations loaded")
)

// Field-level validation errors.
var (
	ErrMissingRaceName    = NewValidationError("missing_race_name", "race_name is required")
	ErrMissingDriver      = NewValidationError("missing_driver", "driver is required")
	ErrInvalidOdds        = NewValidationError("invalid_odds", "odds must be >= 1.0")
	ErrInvalidProbability = NewValidationError("invalid_probability", "predicted_probability must be in [0,1]")
	ErrInvalidPosition    = NewValidationError("invalid_position", "actual_position out of valid range")
	ErrInvalidOutcome     = NewValidationError("invalid_outcome", "outcome must be WIN or LOSS")
	ErrDuplicateEntry     = NewValidationError("duplicate_entry", "duplicate (race, driver) pair")
	ErrMissingColumns     = NewValidationError("missing_columns", "required columns are missing")
)

// ValidationError is a recoverable input error: the offending row or file is
// skipped and logged, processing continues.
type ValidationError struct {
	Code    string
	Message string
}

// NewValidationError creates a validation error with a stable code.
func NewValidationError(code, message string) *ValidationError {
	return &ValidationError{Code: code, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// PersistenceError is fatal to the current run: the source file stays in the
// watch directory and the next run retries it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NewPersistenceError wraps a storage failure with the operation that hit it.
func NewPersistenceError(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}

// IsPersistenceError reports whether err is (or wraps) a PersistenceError.
func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
