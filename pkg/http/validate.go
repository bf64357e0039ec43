package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = newValidator()

// newValidator reports fields by the name the client sent: the json key, or
// the query or form key for fields that are not part of a JSON body.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "query", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return ""
	})
	return v
}

// ReadAndValidateRequest binds the body, applies `default` tags and runs
// `validate` tags. A nil result means req is ready to use.
func ReadAndValidateRequest(c echo.Context, req interface{}) []ValidationError {
	if err := c.Bind(req); err != nil {
		return toValidationErrors(err)
	}
	if err := defaults.Set(req); err != nil {
		return toValidationErrors(err)
	}
	if err := validate.StructCtx(c.Request().Context(), req); err != nil {
		return toValidationErrors(err)
	}
	return nil
}

// rule renders one validator tag. param names the Params key that carries
// the tag parameter, if any.
type rule struct {
	message string
	param   string
}

var rules = map[string]rule{
	"required": {message: "%s is required"},
	"email":    {message: "%s must be a valid email"},
	"url":      {message: "%s must be a valid URL"},
	"alphanum": {message: "%s must contain only letters and digits"},
	"min":      {message: "%s must be at least %s characters", param: "min"},
	"max":      {message: "%s must be at most %s characters", param: "max"},
	"gte":      {message: "%s must be at least %s", param: "min"},
	"lte":      {message: "%s must be at most %s", param: "max"},
	"oneof":    {message: "%s must be one of: %s", param: "options"},
}

func toValidationErrors(err error) []ValidationError {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		out := make([]ValidationError, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			out = append(out, fieldError(fe))
		}
		return out
	}

	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg = fmt.Sprint(he.Message)
	}
	return []ValidationError{{Code: "ERR_UNKNOWN", Message: msg}}
}

func fieldError(fe validator.FieldError) ValidationError {
	ve := ValidationError{
		Code:  "ERR_" + strings.ToUpper(fe.Tag()),
		Field: fe.Field(),
	}

	r, ok := rules[fe.Tag()]
	if !ok {
		ve.Message = fmt.Sprintf("%s failed validation: %s", fe.Field(), fe.Tag())
		return ve
	}
	if r.param == "" {
		ve.Message = fmt.Sprintf(r.message, fe.Field())
		return ve
	}

	param := fe.Param()
	if fe.Tag() == "oneof" {
		ve.Message = fmt.Sprintf(r.message, fe.Field(), strings.ReplaceAll(param, " ", ", "))
		ve.Params = map[string]interface{}{r.param: strings.Fields(param)}
		return ve
	}
	ve.Message = fmt.Sprintf(r.message, fe.Field(), param)
	ve.Params = map[string]interface{}{r.param: param}
	return ve
}
