// Package fetcher retrieves builds from the remote builds endpoint.
//
// The endpoint takes a plain-text search phrase as a POST body and answers
// with a {"data": [...]} envelope. The envelope is checked with gjson before
// it is decoded, so a missing field is reported by element index and key
// instead of silently decoding to a zero value.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/deppfellow/buildsearch/internal/config"
	"github.com/deppfellow/buildsearch/internal/errs"
	loggerPkg "github.com/deppfellow/buildsearch/internal/logger"
	"github.com/deppfellow/buildsearch/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxDetailBytes caps how much of an error response body is kept on the
// returned error.
const maxDetailBytes = 1024

// Client posts search phrases to the builds endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *zerolog.Logger
}

// New creates a Client for cfg.Endpoint. When loggerService carries a New
// Relic application, outbound calls are recorded as external segments of the
// transaction found in the request context.
func New(cfg config.FetcherConfig, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) *Client {
	transport := http.DefaultTransport
	if loggerService.GetApplication() != nil {
		transport = newrelic.NewRoundTripper(transport)
	}

	return &Client{
		endpoint: cfg.Endpoint,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		logger: logger,
	}
}

// Fetch sends payload and returns the decoded builds.
//
// A network failure or non-2xx status is a transport error; for the latter
// the status and (truncated) body are kept on the error. A body that is not
// the expected envelope is a decode error.
func (c *Client) Fetch(ctx context.Context, payload string) ([]model.Build, error) {
	const op = "fetcher.Fetch"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(payload))
	if err != nil {
		return nil, errs.Transport(op, "could not build request", err)
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errs.Transport(op, "request to builds endpoint failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Transport(op, "could not read response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		transportErr := errs.Transport(op, fmt.Sprintf("builds endpoint returned status %d", resp.StatusCode), nil)
		transportErr.Status = resp.StatusCode
		transportErr.Detail = truncate(string(body), maxDetailBytes)
		return nil, transportErr
	}

	builds, err := Decode(body)
	if err != nil {
		return nil, err
	}

	c.logger.Info().
		Str("payload", payload).
		Int("builds", len(builds)).
		Dur("duration", time.Since(start)).
		Msg("fetched builds")

	return builds, nil
}

// Decode checks and decodes a builds envelope.
func Decode(body []byte) ([]model.Build, error) {
	const op = "fetcher.Decode"

	if !gjson.ValidBytes(body) {
		return nil, errs.Decode(op, "response is not valid JSON", nil)
	}

	data := gjson.GetBytes(body, "data")
	if !data.IsArray() {
		return nil, errs.Decode(op, `response has no "data" array`, nil)
	}

	for i, element := range data.Array() {
		if err := checkElement(i, element); err != nil {
			return nil, err
		}
	}

	var envelope model.BuildResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, errs.Decode(op, "could not decode builds", err)
	}

	for i, build := range envelope.Data {
		if err := build.Sets.Validate(); err != nil {
			decodeErr := errs.Decode(op, fmt.Sprintf("data[%d] has invalid sets", i), err)
			decodeErr.Fields = []errs.FieldError{{Field: fmt.Sprintf("data[%d].sets", i), Error: err.Error()}}
			return nil, decodeErr
		}
		if envelope.Data[i].Sets == nil {
			envelope.Data[i].Sets = model.SetCounts{}
		}
	}

	if envelope.Data == nil {
		envelope.Data = []model.Build{}
	}
	return envelope.Data, nil
}

func checkElement(i int, element gjson.Result) error {
	if !element.IsObject() {
		return fieldError(i, "", "must be an object")
	}

	for _, key := range model.RequiredFields {
		value := element.Get(key)
		if !value.Exists() {
			return fieldError(i, key, "is required")
		}

		switch key {
		case "sets":
			if !value.IsObject() {
				return fieldError(i, key, "must be an object")
			}
		case "createDate", "unitCode", "unitName":
			if value.Type != gjson.String {
				return fieldError(i, key, "must be a string")
			}
		default:
			if value.Type != gjson.Number {
				return fieldError(i, key, "must be a number")
			}
		}
	}

	if artifact := element.Get("artifactCode"); artifact.Exists() && artifact.Type != gjson.Null && artifact.Type != gjson.String {
		return fieldError(i, "artifactCode", "must be a string or null")
	}

	return nil
}

func fieldError(i int, key, problem string) error {
	field := fmt.Sprintf("data[%d]", i)
	if key != "" {
		field += "." + key
	}

	decodeErr := errs.Decode("fetcher.Decode", field+" "+problem, nil)
	decodeErr.Fields = []errs.FieldError{{Field: field, Error: problem}}
	return decodeErr
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
