package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/deppfellow/buildsearch/internal/config"
	"github.com/deppfellow/buildsearch/internal/model"
	"github.com/deppfellow/buildsearch/internal/query"
)

type sqliteStore struct {
	db            *sql.DB
	log           *zerolog.Logger
	slowThreshold time.Duration
}

func openSQLite(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*sqliteStore, error) {
	path := strings.TrimSpace(cfg.Database.Path)
	if path == "" {
		return nil, fmt.Errorf("sqlite: path must not be empty")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	// A second connection to ":memory:" would see a different database, and
	// the file backend serializes writers anyway.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	pingCtx, cancel := context.WithTimeout(ctx, DatabasePingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	for _, stmt := range []string{sqliteSchema, unitNameIndex} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: create schema: %w", err)
		}
	}

	return &sqliteStore{
		db:            db,
		log:           logger,
		slowThreshold: slowQueryThreshold(cfg),
	}, nil
}

func (s *sqliteStore) Dialect() query.Dialect {
	return query.SQLite
}

func (s *sqliteStore) InsertBuilds(ctx context.Context, builds []model.Build) (int64, error) {
	if len(builds) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(insertColumns)), ", ")
	stmtSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		query.Table,
		strings.Join(insertColumns, ", "),
		placeholders,
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	// No-op once committed.
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		return 0, fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for i, b := range builds {
		row, err := buildRow(b)
		if err != nil {
			return 0, fmt.Errorf("sqlite: build %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return 0, fmt.Errorf("sqlite: insert build %d: %w", i, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}

	s.log.Debug().Int64("rows", inserted).Msg("inserted builds")
	return inserted, nil
}

func (s *sqliteStore) QueryBuilds(ctx context.Context, q query.Query) ([]model.Build, error) {
	start := time.Now()

	rows, err := s.db.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query: %w", err)
	}
	defer rows.Close()

	builds := make([]model.Build, 0)
	for rows.Next() {
		b, err := scanBuild(rows, s.log)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan: %w", err)
		}
		builds = append(builds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: rows: %w", err)
	}

	logSlowQuery(s.log, s.slowThreshold, q, time.Since(start), len(builds))
	return builds, nil
}

func (s *sqliteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqliteStore) Close() error {
	s.log.Info().Msg("closing sqlite database")
	return s.db.Close()
}

func slowQueryThreshold(cfg *config.Config) time.Duration {
	if cfg.Observability == nil {
		return 0
	}
	return cfg.Observability.Logging.SlowQueryThreshold
}
