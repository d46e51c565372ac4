package database

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/buildsearch/internal/config"
	"github.com/deppfellow/buildsearch/internal/model"
	"github.com/deppfellow/buildsearch/internal/query"
)

func newTestStore(t *testing.T) *sqliteStore {
	t.Helper()

	cfg := config.Default()
	cfg.Database.Path = ":memory:"

	logger := zerolog.Nop()
	store, err := openSQLite(context.Background(), cfg, &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func build(unit string, gs int, sets model.SetCounts) model.Build {
	return model.Build{
		Atk:        2500,
		Chc:        60,
		Chd:        200,
		CreateDate: "2024-03-01",
		Def:        1000,
		Eff:        30,
		Efr:        20,
		GS:         gs,
		HP:         18000,
		Sets:       sets,
		Spd:        200,
		UnitCode:   "c" + unit,
		UnitName:   unit,
	}
}

func search(t *testing.T, s Store, f query.Filter) []model.Build {
	t.Helper()

	q, err := query.Build(f, s.Dialect())
	require.NoError(t, err)

	builds, err := s.QueryBuilds(context.Background(), q)
	require.NoError(t, err)
	return builds
}

func ptr[T any](v T) *T { return &v }

func countRows(t *testing.T, s *sqliteStore) int {
	t.Helper()

	var n int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM builds").Scan(&n))
	return n
}

func TestOpenSQLite(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Path = ":memory:"

	logger := zerolog.Nop()
	store, err := Open(context.Background(), cfg, &logger, nil)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, query.SQLite, store.Dialect())
	assert.NoError(t, store.Ping(context.Background()))
}

func TestOpenUnsupportedDriver(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Driver = "mysql"

	logger := zerolog.Nop()
	_, err := Open(context.Background(), cfg, &logger, nil)
	assert.Error(t, err)
}

func TestInsertAndQueryRoundTrip(t *testing.T) {
	s := newTestStore(t)

	in := build("Apocalypse Ravi", 420, model.SetCounts{"set_speed_demon": 4, "set_cri": 2})
	in.ArtifactCode = ptr("efa01")

	n, err := s.InsertBuilds(context.Background(), []model.Build{in, build("Lua", 300, nil)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got := search(t, s, query.Filter{})
	require.Len(t, got, 2)

	assert.Equal(t, int64(1), got[0].ID)
	require.NotNil(t, got[0].ArtifactCode)
	assert.Equal(t, "efa01", *got[0].ArtifactCode)
	assert.Equal(t, model.SetCounts{"set_speed_demon": 4, "set_cri": 2}, got[0].Sets)
	assert.Equal(t, 420, got[0].GS)
	assert.Equal(t, "Apocalypse Ravi", got[0].UnitName)

	assert.Nil(t, got[1].ArtifactCode)
	assert.Equal(t, model.SetCounts{}, got[1].Sets)
}

func TestInsertEmptyBatch(t *testing.T) {
	s := newTestStore(t)

	n, err := s.InsertBuilds(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRequiredSet(t *testing.T) {
	s := newTestStore(t)

	_, err := s.InsertBuilds(context.Background(), []model.Build{
		build("A", 400, model.SetCounts{"set_vampire": 2}),
		build("B", 400, model.SetCounts{"set_speed_demon": 4}),
		build("C", 400, model.SetCounts{"set_speed_demon": 0}),
	})
	require.NoError(t, err)

	got := search(t, s, query.Filter{RequiredSet: ptr("set_speed_demon")})
	require.Len(t, got, 1)
	assert.Equal(t, "B", got[0].UnitName)

	assert.Empty(t, search(t, s, query.Filter{RequiredSet: ptr("set_immunity")}))
}

func TestRequiredSetNameWithQuotes(t *testing.T) {
	s := newTestStore(t)

	_, err := s.InsertBuilds(context.Background(), []model.Build{
		build("A", 400, model.SetCounts{`set_o'dd "one"`: 2}),
	})
	require.NoError(t, err)

	assert.Len(t, search(t, s, query.Filter{RequiredSet: ptr(`set_o'dd "one"`)}), 1)
}

func TestThresholdsAreInclusive(t *testing.T) {
	s := newTestStore(t)

	_, err := s.InsertBuilds(context.Background(), []model.Build{
		build("A", 400, nil),
		build("B", 500, nil),
	})
	require.NoError(t, err)

	got := search(t, s, query.Filter{MinGS: ptr(450)})
	require.Len(t, got, 1)
	assert.Equal(t, 500, got[0].GS)

	assert.Len(t, search(t, s, query.Filter{MinGS: ptr(500)}), 1)
	assert.Len(t, search(t, s, query.Filter{MinGS: ptr(400)}), 2)
	assert.Len(t, search(t, s, query.Filter{MinGS: ptr(0)}), 2)
	assert.Empty(t, search(t, s, query.Filter{MinGS: ptr(501)}))
}

func TestCombinedFilter(t *testing.T) {
	s := newTestStore(t)

	fast := build("Ravi", 450, model.SetCounts{"set_speed_demon": 4})
	fast.Spd = 280
	slow := build("Ravi", 450, model.SetCounts{"set_speed_demon": 4})
	slow.Spd = 150
	other := build("Lua", 450, model.SetCounts{"set_speed_demon": 4})
	other.Spd = 300

	_, err := s.InsertBuilds(context.Background(), []model.Build{fast, slow, other})
	require.NoError(t, err)

	got := search(t, s, query.Filter{
		UnitName:    ptr("Ravi"),
		RequiredSet: ptr("set_speed_demon"),
		MinSpd:      ptr(200),
		MinGS:       ptr(450),
	})
	require.Len(t, got, 1)
	assert.Equal(t, 280, got[0].Spd)
}

func TestResultCap(t *testing.T) {
	s := newTestStore(t)

	builds := make([]model.Build, 60)
	for i := range builds {
		builds[i] = build(fmt.Sprintf("unit-%02d", i), 400+i, nil)
	}
	_, err := s.InsertBuilds(context.Background(), builds)
	require.NoError(t, err)

	got := search(t, s, query.Filter{})
	require.Len(t, got, query.ResultCap)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(query.ResultCap), got[len(got)-1].ID)
}

func TestCorruptSetsReadAsEmpty(t *testing.T) {
	s := newTestStore(t)

	_, err := s.db.Exec(`INSERT INTO builds
		(artifact_code, atk, chc, chd, create_date, def, eff, efr, gs, hp, sets, spd, unit_code, unit_name)
		VALUES (NULL, 1, 1, 1, 'd', 1, 1, 1, 400, 1, 'not json', 1, 'c1', 'Broken')`)
	require.NoError(t, err)

	_, err = s.InsertBuilds(context.Background(), []model.Build{
		build("Fine", 400, model.SetCounts{"set_cri": 2}),
	})
	require.NoError(t, err)

	got := search(t, s, query.Filter{})
	require.Len(t, got, 2)
	assert.Equal(t, "Broken", got[0].UnitName)
	assert.NotNil(t, got[0].Sets)
	assert.Empty(t, got[0].Sets)

	got = search(t, s, query.Filter{RequiredSet: ptr("set_cri")})
	require.Len(t, got, 1)
	assert.Equal(t, "Fine", got[0].UnitName)
}

func TestUndecodableSetsNeverMatch(t *testing.T) {
	s := newTestStore(t)

	for _, blob := range []string{
		`{"set_vampire":1.5}`,
		`{"set_vampire":2.0}`,
		`{"set_vampire":2,"x":"bad"}`,
		`{"set_vampire":2,"x":{"y":1}}`,
		`{"set_vampire":true}`,
		`["set_vampire"]`,
	} {
		_, err := s.db.Exec(`INSERT INTO builds
			(artifact_code, atk, chc, chd, create_date, def, eff, efr, gs, hp, sets, spd, unit_code, unit_name)
			VALUES (NULL, 1, 1, 1, 'd', 1, 1, 1, 400, 1, ?, 1, 'c1', 'Broken')`, blob)
		require.NoError(t, err, blob)
	}

	_, err := s.db.Exec(`INSERT INTO builds
		(artifact_code, atk, chc, chd, create_date, def, eff, efr, gs, hp, sets, spd, unit_code, unit_name)
		VALUES (NULL, 1, 1, 1, 'd', 1, 1, 1, 400, 1, '{"set_vampire":2,"set_cri":null}', 1, 'c1', 'Nulls')`)
	require.NoError(t, err)

	_, err = s.InsertBuilds(context.Background(), []model.Build{
		build("Fine", 400, model.SetCounts{"set_vampire": 2}),
	})
	require.NoError(t, err)

	got := search(t, s, query.Filter{RequiredSet: ptr("set_vampire")})
	require.Len(t, got, 2)
	for _, b := range got {
		assert.Greater(t, b.Sets["set_vampire"], 0, b.UnitName)
	}
	assert.Equal(t, "Nulls", got[0].UnitName)
	assert.Equal(t, "Fine", got[1].UnitName)

	got = search(t, s, query.Filter{UnitName: ptr("Broken")})
	require.Len(t, got, 6)
	for _, b := range got {
		assert.Empty(t, b.Sets)
	}
}

func TestInsertIsAtomic(t *testing.T) {
	s := newTestStore(t)

	_, err := s.db.Exec(`CREATE TRIGGER reject_boom BEFORE INSERT ON builds
		WHEN NEW.unit_name = 'boom'
		BEGIN SELECT RAISE(ABORT, 'rejected'); END`)
	require.NoError(t, err)

	_, err = s.InsertBuilds(context.Background(), []model.Build{
		build("ok-1", 400, nil),
		build("ok-2", 400, nil),
		build("boom", 400, nil),
	})
	require.Error(t, err)
	assert.Zero(t, countRows(t, s))

	n, err := s.InsertBuilds(context.Background(), []model.Build{build("ok-3", 400, nil)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 1, countRows(t, s))
}

func TestQueryCanceled(t *testing.T) {
	s := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	q, err := query.Build(query.Filter{}, s.Dialect())
	require.NoError(t, err)

	_, err = s.QueryBuilds(ctx, q)
	assert.Error(t, err)
}

func TestSlowQueryIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	logSlowQuery(&logger, time.Millisecond, query.Query{SQL: "SELECT 1"}, 5*time.Millisecond, 3)
	assert.Contains(t, buf.String(), "slow query")

	buf.Reset()
	logSlowQuery(&logger, time.Second, query.Query{SQL: "SELECT 1"}, time.Millisecond, 3)
	logSlowQuery(&logger, 0, query.Query{SQL: "SELECT 1"}, time.Hour, 3)
	assert.Empty(t, buf.String())
}

type recordingTracer struct {
	name  string
	calls *[]string
}

func (r recordingTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, _ pgx.TraceQueryStartData) context.Context {
	*r.calls = append(*r.calls, r.name+":start")
	return ctx
}

func (r recordingTracer) TraceQueryEnd(_ context.Context, _ *pgx.Conn, _ pgx.TraceQueryEndData) {
	*r.calls = append(*r.calls, r.name+":end")
}

func TestMultiTracerCallsEveryTracerInOrder(t *testing.T) {
	var calls []string
	mt := &multiTracer{tracers: []pgx.QueryTracer{
		recordingTracer{name: "a", calls: &calls},
		recordingTracer{name: "b", calls: &calls},
	}}

	ctx := mt.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{})
	mt.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{})

	assert.Equal(t, []string{"a:start", "b:start", "a:end", "b:end"}, calls)
}

func TestNewTracer(t *testing.T) {
	logger := zerolog.Nop()

	cfg := config.Default()
	assert.Nil(t, newTracer(cfg, &logger, nil))

	cfg.Primary.Env = "local"
	_, ok := newTracer(cfg, &logger, nil).(*tracelog.TraceLog)
	assert.True(t, ok)
}
