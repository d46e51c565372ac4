package errs

import (
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKinds(t *testing.T) {
	base := io.ErrUnexpectedEOF
	err := fmt.Errorf("sync: %w", Transport("fetcher.Fetch", "request failed", base))

	assert.ErrorIs(t, err, ErrTransport)
	assert.NotErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, base)
	assert.Equal(t, KindTransport, KindOf(err))
	assert.Equal(t, KindUnknown, KindOf(base))
	assert.Equal(t, "sync: fetcher.Fetch: request failed: unexpected EOF", err.Error())
}

func TestErrorMessageFallsBackToKind(t *testing.T) {
	e := &Error{Kind: KindStorage, Detail: "disk full"}
	assert.Equal(t, "storage error: disk full", e.Error())
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
		ok     bool
	}{
		{"validation", Validation("query.ParseFilter", "invalid filter", FieldError{Field: "min_gs", Error: "must be an integer"}), http.StatusBadRequest, "INVALID_FILTER", true},
		{"transport", Transport("fetcher.Fetch", "upstream returned 503", nil), http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", true},
		{"decode", Decode("fetcher.Fetch", "malformed envelope", nil), http.StatusBadGateway, "UPSTREAM_MALFORMED", true},
		{"storage", Storage("database.QueryBuilds", "query failed", io.EOF), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", true},
		{"http passthrough", NewNotFoundError("Route not found", false, nil), http.StatusNotFound, "NOT_FOUND", true},
		{"plain", io.EOF, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr, ok := FromError(tt.err)
			require.NotNil(t, httpErr)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.status, httpErr.Status)
			assert.Equal(t, tt.code, httpErr.Code)
		})
	}
}

func TestFromErrorKeepsValidationFields(t *testing.T) {
	httpErr, _ := FromError(Validation("query.ParseFilter", "invalid filter",
		FieldError{Field: "min_atk", Error: "must be an integer"},
		FieldError{Field: "min_hp", Error: "must be an integer"},
	))
	require.Len(t, httpErr.Errors, 2)
	assert.Equal(t, "min_atk", httpErr.Errors[0].Field)
	assert.Equal(t, "invalid filter", httpErr.Message)
}
