package book

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

/* Problems are reported with the field names clients send, not the Go ones */
var fieldNames = map[string]string{
	"Title":    "title",
	"Author":   "author",
	"ISBN":     "isbn",
	"Price":    "price",
	"ImageURL": "imageUrl",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name, ok := fieldNames[f.Name]; ok {
			return name
		}
		return f.Name
	})
	return v
}

// Validate checks that b can be persisted
func (b Book) Validate() error {
	return check(b)
}

// Validate checks that every field present in c is acceptable
func (c Changes) Validate() error {
	return check(c)
}

func check(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validating book: %w", err)
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required", "min":
			problems = append(problems, fmt.Sprintf("%s is required", fe.Field()))
		default:
			problems = append(problems, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return &ValidationError{Problems: problems}
}
