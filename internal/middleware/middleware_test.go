package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/buildsearch/internal/config"
	"github.com/deppfellow/buildsearch/internal/errs"
	loggerPkg "github.com/deppfellow/buildsearch/internal/logger"
	"github.com/deppfellow/buildsearch/internal/server"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func newTestEcho(t *testing.T, buf *bytes.Buffer) *echo.Echo {
	t.Helper()

	logger := zerolog.New(buf)
	s := &server.Server{Config: config.Default(), Logger: &logger}
	mws := NewMiddlewares(s)

	e := echo.New()
	e.HTTPErrorHandler = mws.Global.GlobalErrorHandler
	e.Use(
		RequestID(),
		mws.Tracing.NewRelicMiddleware(),
		mws.Tracing.EnhanceTracing(),
		mws.ContextEnhancer.EnhanceContext(),
		mws.Global.RequestLogger(),
		mws.Global.Recover(),
	)
	return e
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errs.HTTPError {
	t.Helper()

	var body errs.HTTPError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRequestIDGeneratedAndReused(t *testing.T) {
	var buf bytes.Buffer
	e := newTestEcho(t, &buf)
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = serve(e, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), `"request_id":"abc-123"`)
}

func TestContextLoggerReachesRequestContext(t *testing.T) {
	var buf bytes.Buffer
	e := newTestEcho(t, &buf)

	var fromCtx *zerolog.Logger
	e.GET("/ctx", func(c echo.Context) error {
		fromCtx = loggerPkg.FromContext(c.Request().Context(), nil)
		return c.NoContent(http.StatusNoContent)
	})

	serve(e, httptest.NewRequest(http.MethodGet, "/ctx", nil))
	require.NotNil(t, fromCtx)
}

func TestGlobalErrorHandlerMapsErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", errs.Validation("query.ParseFilter", "invalid filter", errs.FieldError{Field: "min_gs", Error: "must be an integer"}), http.StatusBadRequest, "INVALID_FILTER"},
		{"transport", errs.Transport("fetcher.Fetch", "builds endpoint returned status 503", nil), http.StatusBadGateway, "UPSTREAM_UNAVAILABLE"},
		{"decode", errs.Decode("fetcher.Decode", "data[0].gs is required", nil), http.StatusBadGateway, "UPSTREAM_MALFORMED"},
		{"storage", errs.Storage("repository.Search", "database operation failed", errors.New("disk I/O error")), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
		{"echo", echo.NewHTTPError(http.StatusMethodNotAllowed, "nope"), http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			e := newTestEcho(t, &buf)
			e.GET("/fail", func(c echo.Context) error { return tt.err })

			rec := serve(e, httptest.NewRequest(http.MethodGet, "/fail", nil))
			assert.Equal(t, tt.status, rec.Code)

			body := decodeError(t, rec)
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, tt.status, body.Status)
		})
	}
}

func TestGlobalErrorHandlerValidationFields(t *testing.T) {
	var buf bytes.Buffer
	e := newTestEcho(t, &buf)
	e.GET("/fail", func(c echo.Context) error {
		return errs.Validation("query.ParseFilter", "invalid filter", errs.FieldError{Field: "min_gs", Error: "must be an integer"})
	})

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/fail", nil))
	body := decodeError(t, rec)
	assert.Equal(t, []errs.FieldError{{Field: "min_gs", Error: "must be an integer"}}, body.Errors)
	assert.True(t, body.Override)
}

func TestRouteNotFound(t *testing.T) {
	var buf bytes.Buffer
	e := newTestEcho(t, &buf)

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", decodeError(t, rec).Message)
}

func TestRecoverTurnsPanicInto500(t *testing.T) {
	var buf bytes.Buffer
	e := newTestEcho(t, &buf)
	e.GET("/panic", func(c echo.Context) error { panic("kaboom") })

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequestLoggerUsesMappedStatus(t *testing.T) {
	var buf bytes.Buffer
	e := newTestEcho(t, &buf)
	e.GET("/fail", func(c echo.Context) error {
		return errs.Transport("fetcher.Fetch", "down", nil)
	})

	serve(e, httptest.NewRequest(http.MethodGet, "/fail", nil))
	assert.Contains(t, buf.String(), `"status":502`)
}
