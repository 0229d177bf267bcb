package store

import (
	"database/sql"
	_ "embed"
	"strconv"

	"github.com/cockroachdb/errors"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// ErrSchemaTooNew is returned when a journal was written by a newer graft.
var ErrSchemaTooNew = errors.New("journal schema is newer than supported")

// migration upgrades the journal to version.
type migration struct {
	version int
	name    string
	stmt    string
}

// migrations run in order on journals whose user_version is below theirs.
// Version 0 is the base table from schema.sql.
var migrations = []migration{
	{1, "index overrides by resolved path", `
		CREATE INDEX IF NOT EXISTS idx_overrides_resolved_path
		ON overrides(resolved_path, seq)`},
}

// SchemaVersion is the journal layout this build reads and writes.
func SchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// journalPragmas configure each connection. Overrides are rare single-row
// appends, so every commit is synced in full.
var journalPragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = FULL",
	"PRAGMA busy_timeout = 5000",
}

// Store is the durable override journal.
type Store struct {
	db *sql.DB
}

// Open creates or opens the journal at path and brings its schema up to
// SchemaVersion. Opening an up-to-date journal changes nothing.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open journal %s", path)
	}
	// One writer; a second connection would only contend for the lock.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := prepare(db); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "open journal %s", path)
	}
	return &Store{db: db}, nil
}

func prepare(db *sql.DB) error {
	if err := db.Ping(); err != nil {
		return errors.Wrap(err, "connect")
	}
	for _, pragma := range journalPragmas {
		if _, err := db.Exec(pragma); err != nil {
			return errors.Wrapf(err, "%s", pragma)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return errors.Wrap(err, "create overrides table")
	}
	return migrate(db)
}

// migrate applies each pending migration in its own transaction together
// with the user_version bump, so a failed step leaves the journal at the
// previous version.
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return errors.Wrap(err, "read user_version")
	}
	if version > SchemaVersion() {
		return errors.Wrapf(ErrSchemaTooNew, "journal is v%d, this build supports v%d", version, SchemaVersion())
	}

	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		tx, err := db.Begin()
		if err != nil {
			return errors.Wrapf(err, "migrate to v%d", m.version)
		}
		if _, err := tx.Exec(m.stmt); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "migrate to v%d (%s)", m.version, m.name)
		}
		// PRAGMA does not take bound parameters.
		if _, err := tx.Exec("PRAGMA user_version = " + strconv.Itoa(m.version)); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "set user_version %d", m.version)
		}
		if err := tx.Commit(); err != nil {
			return errors.Wrapf(err, "migrate to v%d", m.version)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
