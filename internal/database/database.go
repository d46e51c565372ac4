// Package database owns the builds table.
//
// Two backends implement Store:
//   - sqlite (default): a local file opened through database/sql with the
//     pure-Go modernc driver, limited to one open connection
//   - postgres: a single pgx connection with optional query tracing
//     (pgx tracelog in the local environment, New Relic via nrpgx5)
//
// Both create the table on open when it does not exist. Search statements are
// rendered by the query package for the store's Dialect and passed in whole.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/deppfellow/buildsearch/internal/config"
	loggerPkg "github.com/deppfellow/buildsearch/internal/logger"
	"github.com/deppfellow/buildsearch/internal/model"
	"github.com/deppfellow/buildsearch/internal/query"
	"github.com/deppfellow/buildsearch/internal/sqlerr"
)

// DatabasePingTimeout is how long Open waits for the backend to answer.
const DatabasePingTimeout = 10 * time.Second

// Store persists builds and runs search statements.
type Store interface {
	// Dialect is the SQL flavor QueryBuilds expects.
	Dialect() query.Dialect
	// InsertBuilds appends builds in one transaction. On any failure nothing
	// is written.
	InsertBuilds(ctx context.Context, builds []model.Build) (int64, error)
	// QueryBuilds runs a statement produced by query.Build for Dialect.
	QueryBuilds(ctx context.Context, q query.Query) ([]model.Build, error)
	Ping(ctx context.Context) error
	Close() error
}

// insertColumns is every column except the generated id.
var insertColumns = query.Columns[1:]

// Open connects to the configured backend and ensures the schema exists.
func Open(ctx context.Context, cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (Store, error) {
	const op = "database.Open"

	var (
		store Store
		err   error
	)

	switch cfg.Database.Driver {
	case config.DriverSQLite, "":
		store, err = openSQLite(ctx, cfg, logger)
	case config.DriverPostgres:
		store, err = openPostgres(ctx, cfg.Database.PostgresDSN(), cfg, logger, loggerService)
	default:
		return nil, fmt.Errorf("%s: unsupported driver %q", op, cfg.Database.Driver)
	}
	if err != nil {
		return nil, sqlerr.Wrap(op, err)
	}

	logger.Info().
		Str("driver", store.Dialect().Name()).
		Msg("connected to the database")

	return store, nil
}

// buildRow returns b's insert values in insertColumns order.
func buildRow(b model.Build) ([]any, error) {
	sets, err := b.Sets.Encode()
	if err != nil {
		return nil, err
	}

	return []any{
		b.ArtifactCode,
		b.Atk,
		b.Chc,
		b.Chd,
		b.CreateDate,
		b.Def,
		b.Eff,
		b.Efr,
		b.GS,
		b.HP,
		string(sets),
		b.Spd,
		b.UnitCode,
		b.UnitName,
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanBuild reads one row in query.Columns order. A sets value that is not a
// JSON object of counts is logged and replaced with an empty map.
func scanBuild(row rowScanner, logger *zerolog.Logger) (model.Build, error) {
	var (
		b       model.Build
		rawSets []byte
	)

	err := row.Scan(
		&b.ID,
		&b.ArtifactCode,
		&b.Atk,
		&b.Chc,
		&b.Chd,
		&b.CreateDate,
		&b.Def,
		&b.Eff,
		&b.Efr,
		&b.GS,
		&b.HP,
		&rawSets,
		&b.Spd,
		&b.UnitCode,
		&b.UnitName,
	)
	if err != nil {
		return model.Build{}, err
	}

	sets, err := model.DecodeSetCountsLenient(rawSets)
	if err != nil {
		logger.Warn().
			Err(err).
			Int64("build_id", b.ID).
			Msg("stored sets are not valid, returning the build with no sets")
	}
	b.Sets = sets

	return b, nil
}

// logSlowQuery warns when a search took longer than threshold.
func logSlowQuery(logger *zerolog.Logger, threshold time.Duration, q query.Query, elapsed time.Duration, rows int) {
	if threshold <= 0 || elapsed < threshold {
		return
	}

	logger.Warn().
		Str("sql", q.SQL).
		Int("args", len(q.Args)).
		Int("rows", rows).
		Dur("duration", elapsed).
		Dur("threshold", threshold).
		Msg("slow query")
}

// multiTracer fans pgx query events out to several tracers. pgx accepts a
// single Tracer on ConnConfig.
type multiTracer struct {
	tracers []pgx.QueryTracer
}

func (mt *multiTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	for _, tracer := range mt.tracers {
		ctx = tracer.TraceQueryStart(ctx, conn, data)
	}
	return ctx
}

func (mt *multiTracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	for _, tracer := range mt.tracers {
		tracer.TraceQueryEnd(ctx, conn, data)
	}
}
