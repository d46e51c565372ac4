// Package server defines the Server struct that composes the application's
// shared dependencies.
//
// It owns the lifecycle of:
//   - configuration
//   - logger + optional New Relic service
//   - the build store
//   - the builds endpoint client
//   - http.Server
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/deppfellow/buildsearch/internal/config"
	"github.com/deppfellow/buildsearch/internal/database"
	"github.com/deppfellow/buildsearch/internal/fetcher"
	loggerPkg "github.com/deppfellow/buildsearch/internal/logger"
)

// Server is the application container. Commands that never serve HTTP use
// it too; SetupHTTPServer is only called by serve.
type Server struct {
	Config        *config.Config
	Logger        *zerolog.Logger
	LoggerService *loggerPkg.LoggerService

	Store   database.Store
	Fetcher *fetcher.Client

	httpServer *http.Server
}

// New opens the store and builds the endpoint client.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (*Server, error) {
	store, err := database.Open(ctx, cfg, logger, loggerService)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &Server{
		Config:        cfg,
		Logger:        logger,
		LoggerService: loggerService,
		Store:         store,
		Fetcher:       fetcher.New(cfg.Fetcher, logger, loggerService),
	}, nil
}

// SetupHTTPServer configures the internal net/http server. Timeouts in the
// config are seconds.
func (s *Server) SetupHTTPServer(handler http.Handler) {
	s.httpServer = &http.Server{
		Addr:         ":" + s.Config.Server.Port,
		Handler:      handler,
		ReadTimeout:  time.Duration(s.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.Config.Server.IdleTimeout) * time.Second,
	}
}

// Start blocks serving HTTP until Shutdown is called. It returns
// http.ErrServerClosed after a graceful shutdown.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return errors.New("HTTP server not initialized")
	}

	s.Logger.Info().
		Str("port", s.Config.Server.Port).
		Str("env", s.Config.Primary.Env).
		Str("driver", s.Config.Database.Driver).
		Msg("starting server")

	return s.httpServer.ListenAndServe()
}

// Shutdown stops the HTTP server, if one was set up, and closes the store.
// The store is closed even when the HTTP shutdown fails.
func (s *Server) Shutdown(ctx context.Context) error {
	var httpErr, storeErr error

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			httpErr = fmt.Errorf("failed to shutdown HTTP server: %w", err)
		}
	}

	if s.Store != nil {
		if err := s.Store.Close(); err != nil {
			storeErr = fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return errors.Join(httpErr, storeErr)
}
