package errors

import (
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("theme", "is required", "")

	if err.Field != "theme" {
		t.Errorf("Expected field to be 'theme', got '%s'", err.Field)
	}

	if err.Message != "is required" {
		t.Errorf("Expected message to be 'is required', got '%s'", err.Message)
	}

	expected := "validation error on field 'theme': is required"
	if err.Error() != expected {
		t.Errorf("Expected error message to be '%s', got '%s'", expected, err.Error())
	}
}

func TestValidationErrors(t *testing.T) {
	var errs ValidationErrors
	if errs.Error() != "validation failed" {
		t.Errorf("Expected 'validation failed' for empty errors, got '%s'", errs.Error())
	}

	errs = append(errs, *NewValidationError("difficulty", "must be basico, intermedio, or avanzado", "easy"))
	expected := "validation failed: difficulty must be basico, intermedio, or avanzado"
	if errs.Error() != expected {
		t.Errorf("Expected '%s' for single error, got '%s'", expected, errs.Error())
	}

	errs = append(errs, *NewValidationError("case_length", "must be corto, medio, or largo", nil))
	expected = "validation failed: 2 field errors"
	if errs.Error() != expected {
		t.Errorf("Expected '%s' for multiple errors, got '%s'", expected, errs.Error())
	}
}

// Ratings are 1-5: the message must state the same bounds the rule
// enforces.
func TestRatingRangeMessage(t *testing.T) {
	v := validator.New()
	v.RegisterValidation("rating_range", func(fl validator.FieldLevel) bool {
		rating := fl.Field().Int()
		return rating >= 1 && rating <= 5
	})

	err := v.Var(0, "rating_range")
	if err == nil {
		t.Fatal("Expected rating 0 to fail validation")
	}

	errs := ToValidationErrors(err)
	if len(errs) != 1 {
		t.Fatalf("Expected 1 validation error, got %d", len(errs))
	}
	if errs[0].Message != "must be between 1 and 5" {
		t.Errorf("Expected message 'must be between 1 and 5', got '%s'", errs[0].Message)
	}
}
