package handler

import (
	"net/url"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/deppfellow/buildsearch/internal/errs"
	"github.com/deppfellow/buildsearch/internal/model"
	"github.com/deppfellow/buildsearch/internal/query"
	"github.com/deppfellow/buildsearch/internal/server"
	"github.com/deppfellow/buildsearch/internal/service"
)

var validate = validator.New()

type BuildHandler struct {
	Handler
	builds *service.BuildService
}

func NewBuildHandler(s *server.Server, builds *service.BuildService) *BuildHandler {
	return &BuildHandler{
		Handler: NewHandler(s),
		builds:  builds,
	}
}

// SearchBuildsRequest carries the raw query string. Its keys are the filter
// keys of the query package; anything else is rejected.
type SearchBuildsRequest struct {
	params map[string]string
	filter query.Filter
}

func (r *SearchBuildsRequest) BindQuery(values url.Values) error {
	r.params = make(map[string]string, len(values))
	for key, vals := range values {
		if len(vals) > 1 {
			return errs.Validation("handler.SearchBuilds", "invalid filter",
				errs.FieldError{Field: key, Error: "must be given once"})
		}
		r.params[key] = vals[0]
	}
	return nil
}

func (r *SearchBuildsRequest) Validate() error {
	f, err := query.ParseFilter(r.params)
	if err != nil {
		return err
	}
	r.filter = f
	return nil
}

type SearchBuildsResponse struct {
	Data  []model.Build `json:"data"`
	Count int           `json:"count"`
}

func (r SearchBuildsResponse) ResultCount() int { return r.Count }

// SearchBuilds answers GET /api/v1/builds.
func (h *BuildHandler) SearchBuilds(c echo.Context, req *SearchBuildsRequest) (SearchBuildsResponse, error) {
	builds, err := h.builds.Search(c.Request().Context(), req.filter)
	if err != nil {
		return SearchBuildsResponse{}, err
	}

	return SearchBuildsResponse{Data: builds, Count: len(builds)}, nil
}

// SyncBuildsRequest names the search phrase to fetch. An empty query uses
// the configured default.
type SyncBuildsRequest struct {
	Query string `json:"query" validate:"max=200"`
}

func (r *SyncBuildsRequest) Validate() error {
	return validate.Struct(r)
}

type SyncBuildsResponse struct {
	Query    string `json:"query"`
	Inserted int64  `json:"inserted"`
}

func (r SyncBuildsResponse) ResultCount() int { return int(r.Inserted) }

// SyncBuilds answers POST /api/v1/builds/sync.
func (h *BuildHandler) SyncBuilds(c echo.Context, req *SyncBuildsRequest) (SyncBuildsResponse, error) {
	res, err := h.builds.Sync(c.Request().Context(), req.Query)
	if err != nil {
		return SyncBuildsResponse{}, err
	}

	return SyncBuildsResponse{Query: res.Query, Inserted: res.Inserted}, nil
}
