package types

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		_ = validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			_, ok := NormalizePhone(fl.Field().String())
			return ok
		})
	})
	return validate
}

// ValidateStruct checks v against its `validate` tags. Failures wrap ErrInvalidInput
// and name the first offending field.
func ValidateStruct(v interface{}) error {
	err := structValidator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required", "notblank":
			return fmt.Errorf("%w: %s must be a non-empty string", ErrInvalidInput, field)
		case "max":
			return fmt.Errorf("%w: %s must be at most %s characters", ErrInvalidInput, field, fe.Param())
		case "email":
			return fmt.Errorf("%w: email is not valid", ErrInvalidInput)
		case "phone":
			return fmt.Errorf("%w: phone number is not valid", ErrInvalidInput)
		default:
			return fmt.Errorf("%w: %s failed %s", ErrInvalidInput, field, fe.Tag())
		}
	}
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}

// NormalizePhone strips everything but digits and checks the 7 to 15 digit range
func NormalizePhone(s string) (string, bool) {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) < 7 || len(digits) > 15 {
		return "", false
	}
	return digits, true
}

// RequireText rejects blank values and values longer than max runes.
// A max of zero disables the length check.
func RequireText(field, value string, max int) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s must be a non-empty string", ErrInvalidInput, field)
	}
	if max > 0 && len([]rune(value)) > max {
		return fmt.Errorf("%w: %s must be at most %d characters", ErrInvalidInput, field, max)
	}
	return nil
}
