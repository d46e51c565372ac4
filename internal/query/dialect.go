package query

import (
	"fmt"
	"strconv"
)

// Dialect renders the storage-specific parts of a search statement.
type Dialect interface {
	// Name identifies the dialect in logs.
	Name() string
	// Placeholder returns the bind marker for the n-th argument, 1-based.
	Placeholder(n int) string
	// TagPresent returns a boolean expression that holds when the JSON object
	// in column has key (bound at placeholder) with an integer value above
	// zero. It holds only for blobs that decode into model.SetCounts: every
	// value must be an integer or null. A row whose column is not valid JSON
	// must evaluate to false rather than fail the statement.
	TagPresent(column, placeholder string) string
}

// Postgres targets a JSONB sets column.
var Postgres Dialect = postgresDialect{}

// SQLite targets a TEXT sets column read through the JSON1 functions.
var SQLite Dialect = sqliteDialect{}

type postgresDialect struct{}

func (postgresDialect) Name() string { return "postgres" }

func (postgresDialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

// jsonb_each raises on non-objects, so the lookups sit behind a
// jsonb_typeof guard. Integers are recognised by their canonical text form;
// jsonb keeps "2.0" distinct from "2".
func (postgresDialect) TagPresent(column, placeholder string) string {
	return fmt.Sprintf(
		"CASE WHEN jsonb_typeof(%[1]s) = 'object' THEN "+
			"EXISTS (SELECT 1 FROM jsonb_each(%[1]s) AS tag "+
			"WHERE tag.key = %[2]s::text AND jsonb_typeof(tag.value) = 'number' AND tag.value > '0'::jsonb) "+
			"AND NOT EXISTS (SELECT 1 FROM jsonb_each(%[1]s) AS other "+
			"WHERE other.value::text !~ '^(-?[0-9]+|null)$') "+
			"ELSE false END",
		column, placeholder,
	)
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return "sqlite" }

func (sqliteDialect) Placeholder(int) string { return "?" }

// json_each raises on malformed input, so the lookups are guarded by
// json_valid inside a CASE, which SQLite evaluates lazily.
func (sqliteDialect) TagPresent(column, placeholder string) string {
	return fmt.Sprintf(
		"CASE WHEN json_valid(%[1]s) THEN "+
			"EXISTS (SELECT 1 FROM json_each(%[1]s) AS tag "+
			"WHERE tag.key = %[2]s AND tag.type = 'integer' AND tag.value > 0) "+
			"AND NOT EXISTS (SELECT 1 FROM json_each(%[1]s) AS other "+
			"WHERE other.type NOT IN ('integer', 'null')) "+
			"ELSE 0 END",
		column, placeholder,
	)
}
