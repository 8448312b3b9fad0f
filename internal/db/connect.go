package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:motorskill.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/motorskill?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// single writer; the whole service is read-modify-write per request
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS assessments (
  subject_id   TEXT NOT NULL,
  evaluated_on TEXT NOT NULL,               -- YYYY-MM-DD
  first_name   TEXT NOT NULL,
  last_name    TEXT NOT NULL,
  birth_date   TEXT NOT NULL,
  sex          TEXT NOT NULL,
  age_months   INTEGER NOT NULL,
  age_band     INTEGER NOT NULL,
  total        INTEGER NOT NULL DEFAULT 0,
  scores_json  TEXT NOT NULL,
  trials_json  TEXT NOT NULL DEFAULT '',
  evaluator    TEXT NOT NULL DEFAULT '',
  created_at   INTEGER NOT NULL,
  updated_at   INTEGER NOT NULL,
  PRIMARY KEY (subject_id, evaluated_on)
);

CREATE INDEX IF NOT EXISTS idx_assessments_peer ON assessments (sex, age_band);

CREATE TABLE IF NOT EXISTS users (
  id            TEXT PRIMARY KEY,
  username      TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role          TEXT NOT NULL,
  created_at    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS event_log (
  seq        INTEGER PRIMARY KEY AUTOINCREMENT,
  id         TEXT NOT NULL,
  typ        TEXT NOT NULL,   -- e.g. RecordSaved
  key        TEXT NOT NULL,   -- natural key: subject|date
  actor      TEXT NOT NULL DEFAULT '',
  data       TEXT NOT NULL,   -- JSON payload
  created_at INTEGER NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS assessments (
  subject_id   TEXT NOT NULL,
  evaluated_on TEXT NOT NULL,
  first_name   TEXT NOT NULL,
  last_name    TEXT NOT NULL,
  birth_date   TEXT NOT NULL,
  sex          TEXT NOT NULL,
  age_months   INTEGER NOT NULL,
  age_band     INTEGER NOT NULL,
  total        INTEGER NOT NULL DEFAULT 0,
  scores_json  TEXT NOT NULL,
  trials_json  TEXT NOT NULL DEFAULT '',
  evaluator    TEXT NOT NULL DEFAULT '',
  created_at   BIGINT NOT NULL,
  updated_at   BIGINT NOT NULL,
  PRIMARY KEY (subject_id, evaluated_on)
);

CREATE INDEX IF NOT EXISTS idx_assessments_peer ON assessments (sex, age_band);

CREATE TABLE IF NOT EXISTS users (
  id            TEXT PRIMARY KEY,
  username      TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role          TEXT NOT NULL,
  created_at    BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS event_log (
  seq        BIGSERIAL PRIMARY KEY,
  id         TEXT NOT NULL,
  typ        TEXT NOT NULL,
  key        TEXT NOT NULL,
  actor      TEXT NOT NULL DEFAULT '',
  data       TEXT NOT NULL,
  created_at BIGINT NOT NULL
);
`
