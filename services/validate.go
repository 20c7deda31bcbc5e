package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Same tag name as gin's binding so request structs validate identically
// whether they arrive over HTTP or from an agent tool call.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	v.RegisterTagNameFunc(JSONFieldName)
	return v
}

// JSONFieldName reports struct fields by their json name in validation errors.
func JSONFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

func validateInput(in any) error {
	if err := validate.Struct(in); err != nil {
		return ValidationFromBinding(err)
	}
	return nil
}

// ValidationFromBinding turns validator and JSON decoding errors into a ValidationError
// naming the first offending field.
func ValidationFromBinding(err error) *Error {
	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		fe := ves[0]
		out := Validation(fe.Field(), describeFieldError(fe))
		for _, other := range ves {
			out.Details = append(out.Details, fmt.Sprintf("%s: %s", other.Field(), describeFieldError(other)))
		}
		return out
	}
	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) {
		return Validation(ute.Field, fmt.Sprintf("%s must be a %s", ute.Field, ute.Type.String()))
	}
	var se *json.SyntaxError
	if errors.As(err, &se) {
		return Validation("body", "request body is not valid JSON")
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Validation("body", err.Error())
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "lte", "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "lt":
		return fmt.Sprintf("%s must be less than %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must be formatted as %s", fe.Field(), fe.Param())
	case "email":
		return fe.Field() + " must be a valid email"
	}
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}
