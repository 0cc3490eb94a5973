// Package validate provides configuration validation utilities for cmdq.
//
// All helpers wrap a single go-playground/validator instance so struct tags
// (used on queue.Options and API request bodies) and single-field checks
// share the same rules and error style.
package validate

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	// Global validator instance using built-in validations
	validate *validator.Validate
)

func init() {
	validate = validator.New()
}

// Struct validates s against its `validate` struct tags. Field errors are
// flattened into one message naming each failing field and rule.
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		if fe.Param() != "" {
			return fmt.Errorf("%s failed '%s=%s' (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value())
		}
		return fmt.Errorf("%s failed '%s' (got %v)", fe.Field(), fe.Tag(), fe.Value())
	}
	return err
}

// ValidateField validates a single value against validator tags.
//
// Example: ValidateField(8008, "required,min=1,max=65535")
func ValidateField(value interface{}, tag string) error {
	return validate.Var(value, tag)
}

// ValidatePortRange validates that a port number is within 1-65535. Port 0 is
// rejected since clients need a predictable address.
func ValidatePortRange(port int) error {
	return ValidateField(port, "required,min=1,max=65535")
}

// ValidateRequiredString validates that a string field is not empty.
func ValidateRequiredString(value, fieldName string) error {
	if err := ValidateField(value, "required"); err != nil {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	return nil
}

// ValidatePositiveTimeout validates that a duration is > 0.
func ValidatePositiveTimeout(timeout time.Duration, name string) error {
	if timeout <= 0 {
		return fmt.Errorf("%s must be positive", name)
	}
	return nil
}

// ValidateNonNegativeDuration validates that a duration is >= 0. Zero is
// meaningful for settings like the debounce window.
func ValidateNonNegativeDuration(d time.Duration, name string) error {
	if d < 0 {
		return fmt.Errorf("%s must not be negative, got %s", name, d)
	}
	return nil
}
