// Package validation checks service inputs and account fields.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"murmur/internal/models"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance. Initialized in init() with custom validators.
var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// report json names so messages match the wire fields
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = validate.RegisterValidation("reaction_type", func(fl validator.FieldLevel) bool {
		return models.ReactionType(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return models.Role(fl.Field().String()).Valid()
	})
}

// Struct validates s and converts the first failure into a ValidationError.
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return models.NewValidationError(err.Error())
	}
	return models.NewValidationError(describe(fieldErrs[0]))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must contain at most %s items", field, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must contain at least %s items", field, fe.Param())
	case "reaction_type":
		return fmt.Sprintf("%s %q is not a valid reaction type", field, fe.Value())
	case "role":
		return fmt.Sprintf("%s %q is not a valid role", field, fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
