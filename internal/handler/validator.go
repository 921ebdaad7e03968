package handler

import (
    "errors"
    "reflect"
    "strings"

    "github.com/go-playground/validator/v10"
)

// RequestValidator plugs validator/v10 into echo's c.Validate.
type RequestValidator struct {
    validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
    v := validator.New(validator.WithRequiredStructEnabled())
    // Report JSON field names instead of Go field names.
    v.RegisterTagNameFunc(func(f reflect.StructField) string {
        name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
        if name == "-" {
            return ""
        }
        return name
    })
    return &RequestValidator{validate: v}
}

func (v *RequestValidator) Validate(i any) error {
    return v.validate.Struct(i)
}

// validationDetails maps each failing field to the rule it broke, or
// returns nil when err is not a validation error.
func validationDetails(err error) map[string]string {
    var ve validator.ValidationErrors
    if !errors.As(err, &ve) {
        return nil
    }
    out := make(map[string]string, len(ve))
    for _, fe := range ve {
        out[fe.Field()] = fe.Tag()
    }
    return out
}
