package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/deppfellow/buildsearch/internal/handler"
	"github.com/deppfellow/buildsearch/internal/router"
)

// shutdownTimeout bounds how long in-flight requests may run after a signal.
const shutdownTimeout = 30 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, cleanup, err := opts.bootstrap(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			h := handler.NewHandlers(a.server, a.services)
			a.server.SetupHTTPServer(router.NewRouter(a.server, h))

			serverErrors := make(chan error, 1)
			go func() {
				serverErrors <- a.server.Start()
			}()

			select {
			case err := <-serverErrors:
				cleanup()
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
				a.logger.Info().Msg("shutdown signal received")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := a.server.Shutdown(shutdownCtx); err != nil {
				a.logger.Error().Err(err).Msg("could not stop server gracefully")
				a.loggerService.Shutdown()
				return err
			}
			a.loggerService.Shutdown()

			a.logger.Info().Msg("server stopped")
			return nil
		},
	}
}
