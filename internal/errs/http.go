package errs

import (
	"errors"
	"net/http"
)

func statusCode(status int) string {
	return MakeUpperCaseWithUnderscores(http.StatusText(status))
}

// NewBadRequestError creates a 400 Bad Request HTTPError.
//
// code overrides the default "BAD_REQUEST" when non-nil; errors carries
// field-level details for validation failures.
func NewBadRequestError(message string, override bool, code *string, errors []FieldError, action *Action) *HTTPError {
	formattedCode := statusCode(http.StatusBadRequest)
	if code != nil {
		formattedCode = *code
	}

	return &HTTPError{
		Code:     formattedCode,
		Message:  message,
		Status:   http.StatusBadRequest,
		Override: override,
		Errors:   errors,
		Action:   action,
	}
}

// NewNotFoundError creates a 404 Not Found HTTPError.
func NewNotFoundError(message string, override bool, code *string) *HTTPError {
	formattedCode := statusCode(http.StatusNotFound)
	if code != nil {
		formattedCode = *code
	}

	return &HTTPError{
		Code:     formattedCode,
		Message:  message,
		Status:   http.StatusNotFound,
		Override: override,
	}
}

// NewBadGatewayError creates a 502 Bad Gateway HTTPError, used when the
// upstream builds endpoint fails or answers with something unreadable.
func NewBadGatewayError(message string, code *string) *HTTPError {
	formattedCode := statusCode(http.StatusBadGateway)
	if code != nil {
		formattedCode = *code
	}

	return &HTTPError{
		Code:     formattedCode,
		Message:  message,
		Status:   http.StatusBadGateway,
		Override: true,
		Action: &Action{
			Type:    ActionTypeRetry,
			Message: "the upstream builds endpoint failed, try again later",
		},
	}
}

// NewInternalServerError creates a 500 Internal Server Error HTTPError.
//
// The message is the generic status text so internal details never reach
// clients.
func NewInternalServerError() *HTTPError {
	return &HTTPError{
		Code:     statusCode(http.StatusInternalServerError),
		Message:  http.StatusText(http.StatusInternalServerError),
		Status:   http.StatusInternalServerError,
		Override: false,
	}
}

// ValidationError converts a generic validation error into a 400 Bad Request HTTPError.
func ValidationError(err error) *HTTPError {
	return NewBadRequestError("Validation failed: "+err.Error(), false, nil, nil, nil)
}

// FromError maps an error onto the HTTP error shape.
//
// *HTTPError values pass through unchanged. Domain errors map by kind:
// validation → 400, transport and decode → 502, storage → 500. Anything else
// is reported as a 500. ok is false when err carried neither shape.
func FromError(err error) (httpErr *HTTPError, ok bool) {
	if errors.As(err, &httpErr) {
		return httpErr, true
	}

	var domainErr *Error
	if !errors.As(err, &domainErr) {
		return NewInternalServerError(), false
	}

	switch domainErr.Kind {
	case KindValidation:
		code := "INVALID_FILTER"
		return NewBadRequestError(domainErr.Message, true, &code, domainErr.Fields, nil), true
	case KindTransport:
		code := "UPSTREAM_UNAVAILABLE"
		return NewBadGatewayError(domainErr.Message, &code), true
	case KindDecode:
		code := "UPSTREAM_MALFORMED"
		return NewBadGatewayError(domainErr.Message, &code), true
	default:
		return NewInternalServerError(), true
	}
}
