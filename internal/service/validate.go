package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (svc *Service) check(in interface{}) error {
	err := svc.validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	verr := &ValidationError{}
	for _, fe := range fieldErrs {
		verr.add(fe.Field(), message(fe))
	}
	return verr
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return MsgRequired
	case "min":
		if fe.Param() == "1" {
			return MsgBlank
		}
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "oneof":
		return fmt.Sprintf("%q is not a valid choice.", valueString(fe.Value()))
	case "email":
		return "Enter a valid email address."
	default:
		return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
	}
}

func valueString(v interface{}) string {
	if s, ok := v.(*string); ok && s != nil {
		return *s
	}
	return fmt.Sprint(v)
}
