// Package router builds the Echo instance: the global middleware chain, the
// error handler, and the route groups.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/deppfellow/buildsearch/internal/handler"
	"github.com/deppfellow/buildsearch/internal/middleware"
	"github.com/deppfellow/buildsearch/internal/server"
)

func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true

	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	// Order matters: the request id must exist before the context logger
	// reads it, and the transaction before it is decorated.
	router.Use(
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.CORS(),
		middlewares.Global.Secure(),
		middlewares.Global.RequestLogger(),
		middlewares.Global.Recover(),
	)

	registerSystemRoutes(router, h)

	v1 := router.Group("/api/v1")
	registerBuildRoutes(v1, h)

	return router
}
