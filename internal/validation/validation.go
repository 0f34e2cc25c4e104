// Package validation runs declarative field rules over request payloads and
// reports failures as *apperr.ValidationError.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/todoapp/apiserver/internal/apperr"
	"github.com/todoapp/apiserver/types"
)

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Validator wraps a configured validator.Validate. It is safe for
// concurrent use.
type Validator struct {
	v *validator.Validate
}

// New builds a Validator that reports fields by their JSON names.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})

	v.RegisterCustomTypeFunc(nullableValue,
		types.Nullable[string]{},
		types.Nullable[types.DateTime]{},
	)

	if err := v.RegisterValidation("hexcolor6", func(fl validator.FieldLevel) bool {
		return hexColorPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}

	return &Validator{v: v}
}

func nullableValue(field reflect.Value) any {
	if n, ok := field.Interface().(interface{ ValidationValue() any }); ok {
		return n.ValidationValue()
	}
	return nil
}

// Struct validates s and attributes every failure to loc. It returns nil or
// a *apperr.ValidationError.
func (v *Validator) Struct(loc apperr.Location, s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate %T: %w", s, err)
	}

	verr := &apperr.ValidationError{}
	for _, fe := range fieldErrs {
		verr.Add(loc, message(fe), fieldPath(fe.Namespace())...)
	}
	return verr
}

// fieldPath turns "createTaskRequest.tags[0].name" into ["tags", "0", "name"].
func fieldPath(namespace string) []string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	path := make([]string, 0, len(parts))
	for _, part := range parts {
		for part != "" {
			open := strings.IndexByte(part, '[')
			if open < 0 {
				path = append(path, part)
				break
			}
			if open > 0 {
				path = append(path, part[:open])
			}
			closing := strings.IndexByte(part, ']')
			if closing < open {
				path = append(path, part[open:])
				break
			}
			path = append(path, part[open+1:closing])
			part = part[closing+1:]
		}
	}
	return path
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Field required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("String should have at least %s characters", fe.Param())
		}
		return fmt.Sprintf("Input should be greater than or equal to %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("String should have at most %s characters", fe.Param())
		}
		return fmt.Sprintf("Input should be less than or equal to %s", fe.Param())
	case "gte":
		return fmt.Sprintf("Input should be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("Input should be less than or equal to %s", fe.Param())
	case "email":
		return "value is not a valid email address"
	case "uuid", "uuid4":
		return "Input should be a valid UUID"
	case "hexcolor6":
		return "String should match pattern '^#[0-9a-fA-F]{6}$'"
	case "oneof":
		return "Input should be " + quoteChoices(strings.Fields(fe.Param()))
	default:
		return fmt.Sprintf("Input failed the '%s' rule", fe.Tag())
	}
}

// quoteChoices renders ["a","b","c"] as "'a', 'b' or 'c'".
func quoteChoices(choices []string) string {
	quoted := make([]string, len(choices))
	for i, c := range choices {
		quoted[i] = "'" + c + "'"
	}
	if len(quoted) <= 1 {
		return strings.Join(quoted, "")
	}
	return strings.Join(quoted[:len(quoted)-1], ", ") + " or " + quoted[len(quoted)-1]
}
