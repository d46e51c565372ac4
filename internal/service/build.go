package service

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/deppfellow/buildsearch/internal/model"
	"github.com/deppfellow/buildsearch/internal/query"
	"github.com/deppfellow/buildsearch/internal/repository"
)

// Fetcher retrieves builds for a search phrase.
type Fetcher interface {
	Fetch(ctx context.Context, payload string) ([]model.Build, error)
}

type BuildService struct {
	fetcher      Fetcher
	builds       *repository.BuildRepository
	logger       *zerolog.Logger
	defaultQuery string
}

func NewBuildService(fetcher Fetcher, builds *repository.BuildRepository, logger *zerolog.Logger, defaultQuery string) *BuildService {
	return &BuildService{
		fetcher:      fetcher,
		builds:       builds,
		logger:       logger,
		defaultQuery: defaultQuery,
	}
}

// SyncResult reports the query a Sync ran and how many builds it stored.
type SyncResult struct {
	Query    string `json:"query"`
	Inserted int64  `json:"inserted"`
}

// Sync fetches the builds matching payload and appends all of them to the
// store. A blank payload falls back to the configured default query. Nothing
// is stored when either step fails.
func (s *BuildService) Sync(ctx context.Context, payload string) (SyncResult, error) {
	if strings.TrimSpace(payload) == "" {
		payload = s.defaultQuery
	}

	start := time.Now()

	builds, err := s.fetcher.Fetch(ctx, payload)
	if err != nil {
		return SyncResult{}, errors.WithStack(err)
	}

	inserted, err := s.builds.InsertAll(ctx, builds)
	if err != nil {
		return SyncResult{}, errors.WithStack(err)
	}

	s.logger.Info().
		Str("payload", payload).
		Int("fetched", len(builds)).
		Int64("inserted", inserted).
		Dur("duration", time.Since(start)).
		Msg("synced builds")

	return SyncResult{Query: payload, Inserted: inserted}, nil
}

// Search returns the builds matching f.
func (s *BuildService) Search(ctx context.Context, f query.Filter) ([]model.Build, error) {
	builds, err := s.builds.Search(ctx, f)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	s.logger.Debug().
		Bool("unfiltered", f.IsEmpty()).
		Int("results", len(builds)).
		Msg("searched builds")
	return builds, nil
}
