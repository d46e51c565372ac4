package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	pgxzero "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/newrelic/go-agent/v3/integrations/nrpgx5"
	"github.com/rs/zerolog"

	"github.com/deppfellow/buildsearch/internal/config"
	loggerPkg "github.com/deppfellow/buildsearch/internal/logger"
	"github.com/deppfellow/buildsearch/internal/model"
	"github.com/deppfellow/buildsearch/internal/query"
)

// postgresStore holds one connection. pgx.Conn is not safe for concurrent
// use, so every call takes mu.
type postgresStore struct {
	mu            sync.Mutex
	conn          *pgx.Conn
	log           *zerolog.Logger
	slowThreshold time.Duration
}

func openPostgres(ctx context.Context, dsn string, cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (*postgresStore, error) {
	connConfig, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}

	connConfig.Tracer = newTracer(cfg, logger, loggerService)

	connectCtx, cancel := context.WithTimeout(ctx, DatabasePingTimeout)
	defer cancel()

	conn, err := pgx.ConnectConfig(connectCtx, connConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}

	if err := conn.Ping(connectCtx); err != nil {
		conn.Close(context.Background())
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	for _, stmt := range []string{postgresSchema, unitNameIndex} {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			conn.Close(context.Background())
			return nil, fmt.Errorf("postgres: create schema: %w", err)
		}
	}

	return &postgresStore{
		conn:          conn,
		log:           logger,
		slowThreshold: slowQueryThreshold(cfg),
	}, nil
}

// newTracer returns the New Relic tracer when APM is on, the SQL trace logger
// in the local environment, both chained when both apply, and nil otherwise.
func newTracer(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) pgx.QueryTracer {
	var tracers []pgx.QueryTracer

	if loggerService.GetApplication() != nil {
		tracers = append(tracers, nrpgx5.NewTracer())
	}

	// Every statement is logged, so only in local.
	if cfg.Primary.Env == "local" {
		globalLevel := logger.GetLevel()
		pgxLogger := loggerPkg.NewPgxLogger(globalLevel)
		tracers = append(tracers, &tracelog.TraceLog{
			Logger:   pgxzero.NewLogger(pgxLogger),
			LogLevel: loggerPkg.GetPgxTraceLogLevel(globalLevel),
		})
	}

	switch len(tracers) {
	case 0:
		return nil
	case 1:
		return tracers[0]
	default:
		return &multiTracer{tracers: tracers}
	}
}

func (s *postgresStore) Dialect() query.Dialect {
	return query.Postgres
}

func (s *postgresStore) InsertBuilds(ctx context.Context, builds []model.Build) (int64, error) {
	if len(builds) == 0 {
		return 0, nil
	}

	rows := make([][]any, 0, len(builds))
	for i, b := range builds {
		row, err := buildRow(b)
		if err != nil {
			return 0, fmt.Errorf("postgres: build %d: %w", i, err)
		}
		rows = append(rows, row)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer tx.Rollback(context.Background())

	inserted, err := tx.CopyFrom(ctx, pgx.Identifier{query.Table}, insertColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("postgres: copy builds: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("postgres: commit: %w", err)
	}

	s.log.Debug().Int64("rows", inserted).Msg("inserted builds")
	return inserted, nil
}

func (s *postgresStore) QueryBuilds(ctx context.Context, q query.Query) ([]model.Build, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()

	rows, err := s.conn.Query(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query: %w", err)
	}
	defer rows.Close()

	builds := make([]model.Build, 0)
	for rows.Next() {
		b, err := scanBuild(rows, s.log)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan: %w", err)
		}
		builds = append(builds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows: %w", err)
	}

	logSlowQuery(s.log, s.slowThreshold, q, time.Since(start), len(builds))
	return builds, nil
}

func (s *postgresStore) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Ping(ctx)
}

func (s *postgresStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Info().Msg("closing postgres connection")
	return s.conn.Close(context.Background())
}
