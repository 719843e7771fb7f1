package athmovil

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/samber/lo"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fieldErrors accumulates field-level failures for one request.
type fieldErrors struct {
	fields []FieldError
	causes *multierror.Error
}

func (f *fieldErrors) add(field string, value any, err error) {
	f.fields = append(f.fields, FieldError{Field: field, Message: err.Error(), Value: value})
	f.causes = multierror.Append(f.causes, err)
}

// addStruct runs the struct tag constraints of s.
func (f *fieldErrors) addStruct(s any) {
	err := validate.Struct(s)
	if err == nil {
		return
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		f.causes = multierror.Append(f.causes, err)
		return
	}
	for _, fe := range verrs {
		f.add(fieldPath(fe), fe.Value(), errors.New(tagMessage(fe)))
	}
}

func (f *fieldErrors) empty() bool {
	return len(f.fields) == 0
}

// err builds a single validation error describing every failed field.
func (f *fieldErrors) err(context string) *Error {
	details := strings.Join(lo.Map(f.fields, func(fe FieldError, _ int) string {
		return fe.String()
	}), "; ")

	return &Error{
		Kind:    KindValidation,
		Message: fmt.Sprintf("invalid %s: %s", context, details),
		Fields:  f.fields,
		Err:     f.causes.ErrorOrNil(),
	}
}

// fieldPath drops the root struct name from the validator namespace, leaving the
// wire path (items[0].name).
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "url":
		return "must be a valid URL"
	case "startswith":
		return fmt.Sprintf("must start with %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s constraint", fe.Tag())
	}
}
