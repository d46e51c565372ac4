package repository

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/deppfellow/buildsearch/internal/database"
	"github.com/deppfellow/buildsearch/internal/model"
	"github.com/deppfellow/buildsearch/internal/query"
	"github.com/deppfellow/buildsearch/internal/server"
	"github.com/deppfellow/buildsearch/internal/sqlerr"
)

type BuildRepository struct {
	store  database.Store
	logger *zerolog.Logger
}

func NewBuildRepository(s *server.Server) *BuildRepository {
	return &BuildRepository{
		store:  s.Store,
		logger: s.Logger,
	}
}

// InsertAll stores builds in one transaction and returns how many were
// written.
func (r *BuildRepository) InsertAll(ctx context.Context, builds []model.Build) (int64, error) {
	n, err := r.store.InsertBuilds(ctx, builds)
	if err != nil {
		return 0, sqlerr.Wrap("repository.InsertAll", err)
	}
	return n, nil
}

// Search returns at most query.ResultCap builds matching every constraint f
// sets, ordered by id.
func (r *BuildRepository) Search(ctx context.Context, f query.Filter) ([]model.Build, error) {
	q, err := query.Build(f, r.store.Dialect())
	if err != nil {
		return nil, err
	}

	r.logger.Debug().
		Str("dialect", r.store.Dialect().Name()).
		Str("sql", q.SQL).
		Int("args", len(q.Args)).
		Msg("searching builds")

	builds, err := r.store.QueryBuilds(ctx, q)
	if err != nil {
		return nil, sqlerr.Wrap("repository.Search", err)
	}
	return builds, nil
}
