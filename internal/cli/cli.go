// Package cli implements the buildsearch command line: sync builds from the
// remote endpoint, search the stored builds, or serve the HTTP API.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/deppfellow/buildsearch/internal/config"
	"github.com/deppfellow/buildsearch/internal/errs"
	"github.com/deppfellow/buildsearch/internal/lib/utils"
	loggerPkg "github.com/deppfellow/buildsearch/internal/logger"
	"github.com/deppfellow/buildsearch/internal/repository"
	"github.com/deppfellow/buildsearch/internal/server"
	"github.com/deppfellow/buildsearch/internal/service"
)

var (
	okLabel    = color.New(color.FgGreen)
	errorLabel = color.New(color.FgRed)
)

// ConfigLoader produces the configuration a command runs with.
type ConfigLoader func() (*config.Config, error)

type rootOptions struct {
	loadConfig ConfigLoader
	jsonOutput bool
}

// app is everything a command needs once configuration is loaded.
type app struct {
	logger        *zerolog.Logger
	loggerService *loggerPkg.LoggerService
	server        *server.Server
	services      *service.Services
}

// NewRootCmd builds the command tree. loadConfig is called once per command
// run, after flags are parsed.
func NewRootCmd(loadConfig ConfigLoader) *cobra.Command {
	opts := &rootOptions{loadConfig: loadConfig}

	rootCmd := &cobra.Command{
		Use:   "buildsearch [command] [flags]",
		Short: "Fetch, store, and search character builds",
		Long: `buildsearch fetches character builds from the remote builds endpoint,
stores them locally (SQLite by default, Postgres when configured), and
searches them by unit, required bonus set, and minimum stats.

Examples:
  # Fetch and store the builds for the default query
  buildsearch sync

  # Fetch and store the builds for a given unit
  buildsearch sync Apocalypse Ravi

  # Search stored builds with at least 450 gear score and speed demon set
  buildsearch search --required-set set_speed_demon --min-gs 450

  # Serve the HTTP API
  buildsearch serve`,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&opts.jsonOutput, "json", "j", false, "Output in JSON format")

	rootCmd.AddCommand(newSyncCmd(opts))
	rootCmd.AddCommand(newSearchCmd(opts))
	rootCmd.AddCommand(newServeCmd(opts))

	return rootCmd
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd := NewRootCmd(config.LoadConfig)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(stderr, err)
		return 1
	}
	return 0
}

func printError(w io.Writer, err error) {
	errorLabel.Fprint(w, "Error: ")
	fmt.Fprintln(w, err)

	var domainErr *errs.Error
	if errors.As(err, &domainErr) {
		for _, field := range domainErr.Fields {
			fmt.Fprintf(w, "  %s: %s\n", field.Field, field.Error)
		}
	}
}

// bootstrap loads configuration and wires the application. Logs go to
// logOut so stdout stays free for results. The returned cleanup closes the
// store and stops the agent.
func (o *rootOptions) bootstrap(ctx context.Context, logOut io.Writer) (*app, func(), error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}

	loggerService := loggerPkg.NewLoggerService(cfg.Observability)
	logger := loggerPkg.NewLoggerTo(cfg.Observability, loggerService, logOut)

	srv, err := server.New(ctx, cfg, &logger, loggerService)
	if err != nil {
		loggerService.Shutdown()
		return nil, nil, err
	}

	repos := repository.NewRepositories(srv)
	services, err := service.NewServices(srv, repos)
	if err != nil {
		_ = srv.Shutdown(ctx)
		loggerService.Shutdown()
		return nil, nil, err
	}

	cleanup := func() {
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("shutdown failed")
		}
		loggerService.Shutdown()
	}

	return &app{
		logger:        &logger,
		loggerService: loggerService,
		server:        srv,
		services:      services,
	}, cleanup, nil
}

func (o *rootOptions) printResult(w io.Writer, v interface{}, text func(io.Writer)) error {
	if o.jsonOutput {
		return utils.PrintJSON(w, v)
	}
	text(w)
	return nil
}
