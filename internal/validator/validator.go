package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/simts-edu/casesim-service/internal/models"
)

// Validator wraps struct-tag validation with the simulator's domain rules
type Validator struct {
	structValidator *validator.Validate
}

// New creates a new validator instance with all custom rules registered
func New() *Validator {
	structValidator := validator.New()
	registerCustomValidators(structValidator)

	return &Validator{structValidator: structValidator}
}

// ValidateStruct validates struct tags
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Var validates a single value against a tag expression
func (v *Validator) Var(field interface{}, tag string) error {
	return v.structValidator.Var(field, tag)
}

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("case_theme", validateCaseTheme)
	validate.RegisterValidation("difficulty_level", validateDifficultyLevel)
	validate.RegisterValidation("case_length", validateCaseLength)
	validate.RegisterValidation("rating_range", validateRatingRange)
	validate.RegisterValidation("score_range", validateScoreRange)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Custom validation functions

func validateCaseTheme(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	for _, theme := range models.Themes {
		if theme == value {
			return true
		}
	}
	return false
}

func validateDifficultyLevel(fl validator.FieldLevel) bool {
	validLevels := []models.DifficultyLevel{
		models.DifficultyBasic,
		models.DifficultyIntermediate,
		models.DifficultyAdvanced,
	}

	value := fl.Field().String()
	for _, validLevel := range validLevels {
		if string(validLevel) == value {
			return true
		}
	}
	return false
}

func validateCaseLength(fl validator.FieldLevel) bool {
	validLengths := []models.CaseLength{
		models.LengthShort,
		models.LengthMedium,
		models.LengthLong,
	}

	value := fl.Field().String()
	for _, validLength := range validLengths {
		if string(validLength) == value {
			return true
		}
	}
	return false
}

func validateRatingRange(fl validator.FieldLevel) bool {
	rating := fl.Field().Int()
	return rating >= 1 && rating <= 5
}

func validateScoreRange(fl validator.FieldLevel) bool {
	score := fl.Field().Float()
	return score >= 0 && score <= 100
}
