package normalizer

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Query validation errors.
var (
	ErrMissingField = errors.New("missing required field")
	ErrInvalidField = errors.New("invalid field")
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return field.Name
			}

			return name
		})
	})

	return validate
}

// ValidateQuery checks a query struct against its `validate` tags and maps
// failures onto ErrMissingField or ErrInvalidField.
func ValidateQuery(q any) error {
	err := instance().Struct(q)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", ErrInvalidField, err)
	}

	var missing, invalid []string

	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required", "required_without", "required_without_all":
			missing = append(missing, fe.Field())
		default:
			invalid = append(invalid, fe.Field())
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}

	return fmt.Errorf("%w: %s", ErrInvalidField, strings.Join(invalid, ", "))
}
