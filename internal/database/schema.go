package database

// sqliteSchema keeps sets as JSON text. Only the unit columns are mandatory.
const sqliteSchema = `CREATE TABLE IF NOT EXISTS builds (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	artifact_code TEXT,
	atk INTEGER,
	chc INTEGER,
	chd INTEGER,
	create_date TEXT,
	def INTEGER,
	eff INTEGER,
	efr INTEGER,
	gs INTEGER,
	hp INTEGER,
	sets TEXT,
	spd INTEGER,
	unit_code TEXT NOT NULL,
	unit_name TEXT NOT NULL
)`

const postgresSchema = `CREATE TABLE IF NOT EXISTS builds (
	id BIGSERIAL PRIMARY KEY,
	artifact_code TEXT,
	atk INTEGER,
	chc INTEGER,
	chd INTEGER,
	create_date TEXT,
	def INTEGER,
	eff INTEGER,
	efr INTEGER,
	gs INTEGER,
	hp INTEGER,
	sets JSONB NOT NULL DEFAULT '{}'::jsonb,
	spd INTEGER,
	unit_code TEXT NOT NULL,
	unit_name TEXT NOT NULL
)`

const unitNameIndex = `CREATE INDEX IF NOT EXISTS builds_unit_name_idx ON builds (unit_name)`
