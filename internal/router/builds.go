package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/deppfellow/buildsearch/internal/handler"
)

func registerBuildRoutes(g *echo.Group, h *handler.Handlers) {
	builds := g.Group("/builds")

	builds.GET("", handler.Handle(h.Builds.Handler, h.Builds.SearchBuilds, http.StatusOK))
	builds.POST("/sync", handler.Handle(h.Builds.Handler, h.Builds.SyncBuilds, http.StatusOK))
}
