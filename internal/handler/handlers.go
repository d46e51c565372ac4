package handler

import (
	"github.com/deppfellow/buildsearch/internal/server"
	"github.com/deppfellow/buildsearch/internal/service"
)

// Handlers groups all HTTP handlers.
type Handlers struct {
	Health  *HealthHandler
	OpenAPI *OpenAPIHandler
	Builds  *BuildHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(s),
		OpenAPI: NewOpenAPIHandler(s),
		Builds:  NewBuildHandler(s, services.Builds),
	}
}
