package utils

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/turtacn/sfauth/pkg/constants"
	"github.com/turtacn/sfauth/pkg/errors"
)

// defaultValidator holds the singleton instance of the validator.
var defaultValidator = validator.New()

// ValidateStruct validates a struct against its `validate` tags and returns a
// validation AuthError naming the offending fields.
func ValidateStruct(s interface{}) *errors.AuthError {
	err := defaultValidator.Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.System("struct validation failed").WithCause(err)
	}

	var details []string
	for _, fieldErr := range validationErrors {
		details = append(details, fieldErr.Field()+" failed on '"+fieldErr.Tag()+"'")
	}

	return errors.Validation(constants.ErrCodeInvalidRequest, "request validation failed: %s", strings.Join(details, "; "))
}
