// Package validation binds request data and turns validation failures into
// 400 responses with per-field errors.
package validation

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/deppfellow/buildsearch/internal/errs"
)

// Validatable is implemented by request payload types that know how to
// validate themselves, usually by running validator.Struct on the receiver.
type Validatable interface {
	Validate() error
}

// QueryBindable is implemented by payloads that take the raw query
// parameters instead of tagged fields, e.g. to reject unknown keys.
type QueryBindable interface {
	BindQuery(params url.Values) error
}

// BindAndValidate binds the request into payload, which must be a pointer,
// and validates it. Failures are returned as *errs.HTTPError (400).
func BindAndValidate(c echo.Context, payload Validatable) error {
	if qb, ok := payload.(QueryBindable); ok {
		if err := qb.BindQuery(c.QueryParams()); err != nil {
			if errs.KindOf(err) == errs.KindValidation {
				httpErr, _ := errs.FromError(err)
				return httpErr
			}
			return errs.NewBadRequestError(err.Error(), false, nil, nil, nil)
		}
	} else if err := c.Bind(payload); err != nil {
		return errs.NewBadRequestError(bindErrorMessage(err), false, nil, nil, nil)
	}

	err := payload.Validate()
	if err == nil {
		return nil
	}

	if errs.KindOf(err) == errs.KindValidation {
		httpErr, _ := errs.FromError(err)
		return httpErr
	}

	msg, fieldErrors := extractValidationError(err)
	return errs.NewBadRequestError(msg, true, nil, fieldErrors, nil)
}

func bindErrorMessage(err error) string {
	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		if msg, ok := echoErr.Message.(string); ok && msg != "" {
			return msg
		}
		return http.StatusText(echoErr.Code)
	}
	return "Invalid request"
}

func extractValidationError(err error) (string, []errs.FieldError) {
	var fieldErrors []errs.FieldError

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error(), []errs.FieldError{}
	}

	for _, fe := range validationErrors {
		field := strings.ToLower(fe.Field())
		var msg string

		switch fe.Tag() {
		case "required":
			msg = "is required"

		case "min":
			if fe.Kind() == reflect.String {
				msg = fmt.Sprintf("must be at least %s characters", fe.Param())
			} else {
				msg = fmt.Sprintf("must be at least %s", fe.Param())
			}

		case "max":
			if fe.Kind() == reflect.String {
				msg = fmt.Sprintf("must not exceed %s characters", fe.Param())
			} else {
				msg = fmt.Sprintf("must not exceed %s", fe.Param())
			}

		case "numeric":
			msg = "must be an integer"

		case "oneof":
			msg = fmt.Sprintf("must be one of: %s", fe.Param())

		default:
			if fe.Param() != "" {
				msg = fmt.Sprintf("%s: %s:%s", field, fe.Tag(), fe.Param())
			} else {
				msg = fmt.Sprintf("%s: %s", field, fe.Tag())
			}
		}

		fieldErrors = append(fieldErrors, errs.FieldError{
			Field: field,
			Error: msg,
		})
	}

	return "Validation failed", fieldErrors
}
