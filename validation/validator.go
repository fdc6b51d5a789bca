// Package validation checks request models before they are sent.
// It wraps go-playground/validator and reports failures as apierror validation errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/gaborage/dataapi-go/apierror"
)

var (
	resourceIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:-]*$`)
	identPattern      = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Validator wraps go-playground/validator with the DataAPI custom rules.
type Validator struct {
	validate *validator.Validate
}

// FieldError is a single failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// New creates a Validator with custom rules registered and JSON field names
// reported in errors.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		default:
			return name
		}
	})

	// Registration only fails on an empty tag or nil func
	_ = v.RegisterValidation("resource_id", validateResourceID)
	_ = v.RegisterValidation("identifier", validateIdentifier)

	return &Validator{validate: v}
}

var (
	defaultOnce sync.Once
	defaultV    *Validator
)

// Default returns a shared Validator.
func Default() *Validator {
	defaultOnce.Do(func() { defaultV = New() })
	return defaultV
}

// Struct validates s with the shared Validator.
func Struct(s any) error { return Default().Struct(s) }

// Var validates a single value against tag, reporting failures under field.
func Var(field string, value any, tag string) error { return Default().Var(field, value, tag) }

// Engine returns the underlying validator instance.
func (v *Validator) Engine() *validator.Validate {
	return v.validate
}

// Struct validates s. Nil pointers and non-struct values pass untouched.
func (v *Validator) Struct(s any) error {
	if s == nil {
		return nil
	}
	rv := reflect.ValueOf(s)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	return v.convert(v.validate.Struct(s), "")
}

// Var validates a single value.
func (v *Validator) Var(field string, value any, tag string) error {
	return v.convert(v.validate.Var(value, tag), field)
}

func (v *Validator) convert(err error, field string) error {
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apierror.New(apierror.KindValidation, "request could not be validated", apierror.WithCause(err))
	}
	return NewError(validationErrors, field)
}

// NewError converts validator failures into an apierror validation error. The
// first failing field is reported as Field; every failing rule appears in Rules.
func NewError(errs validator.ValidationErrors, field string) *apierror.Error {
	fieldErrors := make([]FieldError, 0, len(errs))
	rules := make([]string, 0, len(errs))
	details := make([]map[string]any, 0, len(errs))

	for _, fe := range errs {
		name := fieldPath(fe)
		if name == "" {
			name = field
		}
		msg := message(name, fe)
		fieldErrors = append(fieldErrors, FieldError{Field: name, Rule: fe.Tag(), Message: msg})
		rules = append(rules, fe.Tag())
		details = append(details, map[string]any{"field": name, "rule": fe.Tag(), "message": msg})
	}

	first := FieldError{Field: field}
	if len(fieldErrors) > 0 {
		first = fieldErrors[0]
	}

	text := "validation failed"
	switch len(fieldErrors) {
	case 0:
	case 1:
		text = "validation failed: " + first.Message
	default:
		text = fmt.Sprintf("validation failed: %d errors, first: %s", len(fieldErrors), first.Message)
	}

	return apierror.New(apierror.KindValidation, text,
		apierror.WithField(first.Field),
		apierror.WithRules(rules...),
		apierror.WithDetails(map[string]any{"errors": details}),
	)
}

// fieldPath drops the root struct name from the namespace, e.g.
// "CreateWorkflow.steps[0].name" becomes "steps[0].name".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s must have length %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "resource_id":
		return fmt.Sprintf("%s must be a valid resource id", field)
	case "identifier":
		return fmt.Sprintf("%s must be a valid identifier", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// Resource ids are interpolated into request paths.
func validateResourceID(fl validator.FieldLevel) bool {
	return resourceIDPattern.MatchString(fl.Field().String())
}

func validateIdentifier(fl validator.FieldLevel) bool {
	return identPattern.MatchString(fl.Field().String())
}
