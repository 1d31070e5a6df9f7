package services

import (
	"errors"

	pgvalidator "github.com/go-playground/validator/v10"

	apperrors "github.com/simts-edu/casesim-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrBadRequest       = errors.New("bad request")
	ErrConflict         = errors.New("resource conflict")

	// Case specific errors
	ErrCaseNotFound    = errors.New("case not found")
	ErrCaseExists      = errors.New("case already exists")
	ErrInvalidRating   = errors.New("rating must be between 1 and 5")
	ErrEmptyGeneration = errors.New("generator returned no usable case")

	// Generation specific errors
	ErrGenerationFailed    = errors.New("case generation failed")
	ErrGenerationTimeout   = errors.New("case generation timed out")
	ErrEngineNotConfigured = errors.New("no generation engine configured")
	ErrInvalidSimulation   = errors.New("request must set 'generate' or 'case_text'")

	// Auth specific errors
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrStudentNotFound    = errors.New("student not found")
	ErrStudentDisabled    = errors.New("student account is disabled")
	ErrUsernameTaken      = errors.New("username already registered")
	ErrInvalidToken       = errors.New("invalid or expired token")

	// Session specific errors
	ErrSessionNotFound     = errors.New("session not found")
	ErrAnswerNotFound      = errors.New("answer not found")
	ErrNoAnswers           = errors.New("session must contain at least one answer")
	ErrQuestionMismatch    = errors.New("answer does not match the question type at its index")
	ErrQuestionOutOfRange  = errors.New("question index out of range for case")
	ErrDuplicateQuestion   = errors.New("duplicate question index in submission")
	ErrSessionAccessDenied = errors.New("access denied to session")

	// Collection specific errors
	ErrCollectionNotFound  = errors.New("collection not found")
	ErrCaseAlreadyInSet    = errors.New("case already in collection")
	ErrCaseNotInCollection = errors.New("case not in collection")
)

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

// ===== ERROR HELPERS =====

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrCaseNotFound) ||
		errors.Is(err, ErrStudentNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrAnswerNotFound) ||
		errors.Is(err, ErrCollectionNotFound) ||
		errors.Is(err, ErrCaseNotInCollection)
}

// IsUnauthorized checks if error represents an "unauthorized" condition
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrStudentDisabled) ||
		errors.Is(err, ErrSessionAccessDenied)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, ErrInvalidRating) ||
		errors.Is(err, ErrInvalidSimulation) ||
		errors.Is(err, ErrNoAnswers) ||
		errors.Is(err, ErrQuestionMismatch) ||
		errors.Is(err, ErrQuestionOutOfRange) ||
		errors.Is(err, ErrDuplicateQuestion) {
		return true
	}
	var ve apperrors.ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var single *apperrors.ValidationError
	if errors.As(err, &single) {
		return true
	}
	var fieldErrs pgvalidator.ValidationErrors
	return errors.As(err, &fieldErrs)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrCaseExists) ||
		errors.Is(err, ErrUsernameTaken) ||
		errors.Is(err, ErrCaseAlreadyInSet)
}

// IsTimeout checks if error represents a generation timeout
func IsTimeout(err error) bool {
	return errors.Is(err, ErrGenerationTimeout)
}
