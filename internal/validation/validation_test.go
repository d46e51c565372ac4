package validation

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/buildsearch/internal/errs"
)

type syncRequest struct {
	Query string `json:"query" validate:"required,max=10"`
}

func (r *syncRequest) Validate() error {
	return validator.New().Struct(r)
}

type plainRequest struct{}

func (r *plainRequest) Validate() error {
	return errors.New("query is unsupported")
}

type domainRequest struct{}

func (r *domainRequest) Validate() error {
	return errs.Validation("query.ParseFilter", "invalid filter",
		errs.FieldError{Field: "colour", Error: "is not a known filter"})
}

type paramsRequest struct {
	params url.Values
}

func (r *paramsRequest) BindQuery(params url.Values) error {
	r.params = params
	return nil
}

func (r *paramsRequest) Validate() error { return nil }

func TestBindAndValidateQueryBindable(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?min_gs=450&unit_name=Ravi", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	payload := &paramsRequest{}
	require.NoError(t, BindAndValidate(c, payload))
	assert.Equal(t, "450", payload.params.Get("min_gs"))
	assert.Equal(t, "Ravi", payload.params.Get("unit_name"))
}

func newContext(body string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return e.NewContext(req, httptest.NewRecorder())
}

func badRequest(t *testing.T, err error) *errs.HTTPError {
	t.Helper()

	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	return httpErr
}

func TestBindAndValidateSuccess(t *testing.T) {
	req := &syncRequest{}
	require.NoError(t, BindAndValidate(newContext(`{"query":"Ravi"}`), req))
	assert.Equal(t, "Ravi", req.Query)
}

func TestBindAndValidateTagErrors(t *testing.T) {
	httpErr := badRequest(t, BindAndValidate(newContext(`{}`), &syncRequest{}))
	require.Len(t, httpErr.Errors, 1)
	assert.Equal(t, errs.FieldError{Field: "query", Error: "is required"}, httpErr.Errors[0])

	httpErr = badRequest(t, BindAndValidate(newContext(`{"query":"far too long a phrase"}`), &syncRequest{}))
	require.Len(t, httpErr.Errors, 1)
	assert.Equal(t, "must not exceed 10 characters", httpErr.Errors[0].Error)
}

func TestBindAndValidateMalformedBody(t *testing.T) {
	httpErr := badRequest(t, BindAndValidate(newContext(`{"query":`), &syncRequest{}))
	assert.NotEmpty(t, httpErr.Message)
}

func TestBindAndValidatePlainError(t *testing.T) {
	httpErr := badRequest(t, BindAndValidate(newContext(`{}`), &plainRequest{}))
	assert.Equal(t, "query is unsupported", httpErr.Message)
	assert.Empty(t, httpErr.Errors)
}

func TestBindAndValidateDomainErrors(t *testing.T) {
	httpErr := badRequest(t, BindAndValidate(newContext(`{}`), &domainRequest{}))
	assert.Equal(t, "INVALID_FILTER", httpErr.Code)
	assert.Equal(t, "invalid filter", httpErr.Message)
	assert.Equal(t, []errs.FieldError{{Field: "colour", Error: "is not a known filter"}}, httpErr.Errors)
}
