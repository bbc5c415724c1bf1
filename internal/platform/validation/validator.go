// Package validation adapts go-playground/validator to echo's Validator
// interface so handlers can call c.Validate on request bodies.
package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var identifierPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,99}$`)

// FieldError is a single failed rule, named by the JSON field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors aggregates every failed rule of one request.
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

type Validator struct {
	validate *validator.Validate
}

// New returns a validator that reports JSON field names and knows the
// "identifier" rule used for calculator, algorithm and parameter ids.
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("identifier", func(fl validator.FieldLevel) bool {
		return identifierPattern.MatchString(fl.Field().String())
	})
	return &Validator{validate: v}
}

// Validate implements echo.Validator.
func (v *Validator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	out := make(Errors, 0, len(verrs))
	for _, e := range verrs {
		out = append(out, FieldError{Field: e.Field(), Message: message(e.Tag(), e.Param())})
	}
	return out
}

// Var validates a single value against a tag expression.
func (v *Validator) Var(field interface{}, tag string) error {
	return v.validate.Var(field, tag)
}

func message(tag, param string) string {
	switch tag {
	case "required":
		return "is required"
	case "identifier":
		return "must be lowercase letters, digits, '-' or '_'"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(param, " ", ", "))
	case "min":
		return fmt.Sprintf("must have at least %s entries", param)
	case "max":
		return fmt.Sprintf("must be at most %s", param)
	default:
		return fmt.Sprintf("failed %s validation", tag)
	}
}
