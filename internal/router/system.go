package router

import (
	"github.com/labstack/echo/v4"

	"github.com/deppfellow/buildsearch/internal/handler"
)

// registerSystemRoutes registers endpoints that are not part of the API
// proper.
func registerSystemRoutes(r *echo.Echo, h *handler.Handlers) {
	r.GET("/status", h.Health.CheckHealth)
	r.GET("/docs/openapi.json", h.OpenAPI.ServeOpenAPIDocument)
}
