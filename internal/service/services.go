package service

import (
	"github.com/deppfellow/buildsearch/internal/repository"
	"github.com/deppfellow/buildsearch/internal/server"
)

type Services struct {
	Builds *BuildService
}

func NewServices(s *server.Server, repos *repository.Repositories) (*Services, error) {
	buildService := NewBuildService(s.Fetcher, repos.Builds, s.Logger, s.Config.Fetcher.DefaultQuery)

	return &Services{
		Builds: buildService,
	}, nil
}
