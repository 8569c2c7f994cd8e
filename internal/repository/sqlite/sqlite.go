// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database — it lives inside the Go binary as a single
// file. No separate database server to install, configure, or manage, which
// fits a single-process app with short request-scoped transactions. Tests
// use ":memory:" for a throwaway database.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which needs a C compiler and makes
// cross-compilation painful. modernc.org/sqlite is a pure Go translation of
// the SQLite sources — works everywhere Go works.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	// Side-effect import: the driver registers itself with database/sql
	// under the name "sqlite".
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements the repository
// interfaces for users, screenplays, and scenes.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
// Pass ":memory:" for an in-memory database.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// One connection only. SQLite allows a single writer anyway, and the
	// PRAGMAs below are per-connection: with a pool, fresh connections
	// would come up without foreign keys — and a ":memory:" database
	// would be a different empty database on every connection.
	conn.SetMaxOpenConns(1)

	// sql.Open doesn't actually connect; Ping surfaces bad paths or
	// permissions immediately instead of on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads while a write is in progress — important
	// for a web server where multiple requests hit the DB.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. We need them ON so that
	// deleting a screenplay cascades to its scenes and a scene can never
	// reference a missing screenplay.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool. Callers should defer this
// right after New so the WAL is flushed even on a panic.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it safe to
// run on every startup.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS screenplays (
			id                TEXT PRIMARY KEY,
			user_id           TEXT NOT NULL REFERENCES users(id),
			title             TEXT NOT NULL,
			logline           TEXT NOT NULL DEFAULT '',
			dramatic_question TEXT NOT NULL DEFAULT '',
			genre1            TEXT NOT NULL DEFAULT '',
			genre2            TEXT NOT NULL DEFAULT '',
			genre3            TEXT NOT NULL DEFAULT '',
			narrative_type    TEXT NOT NULL DEFAULT '',
			description       TEXT NOT NULL DEFAULT '',
			total_scenes      INTEGER NOT NULL DEFAULT 0,
			created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_screenplays_user_id ON screenplays(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating screenplays table: %w", err)
	}

	// ON DELETE CASCADE: deleting a screenplay removes its scenes in the
	// same statement, so orphaned scenes are impossible.
	//
	// The UNIQUE index on (screenplay_id, scene_sequence) is the backstop
	// for the ordering discipline: two concurrent inserts that both read
	// the same max sequence cannot both commit — the loser's INSERT fails.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS scenes (
			id             TEXT PRIMARY KEY,
			screenplay_id  TEXT NOT NULL REFERENCES screenplays(id) ON DELETE CASCADE,
			scene_index    INTEGER NOT NULL,
			scene_sequence INTEGER NOT NULL,
			slugline       TEXT NOT NULL,
			content        TEXT NOT NULL DEFAULT '',
			description    TEXT NOT NULL DEFAULT '',
			plot_section   TEXT NOT NULL DEFAULT '',
			created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (screenplay_id, scene_sequence)
		);
		CREATE INDEX IF NOT EXISTS idx_scenes_screenplay_id ON scenes(screenplay_id);
	`)
	if err != nil {
		return fmt.Errorf("creating scenes table: %w", err)
	}

	return nil
}

// withTx runs fn inside a transaction, committing on nil and rolling back
// on error. The scene repository's ordering operations (create, delete,
// move) are multi-statement and must be atomic.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		// Rollback error is secondary; the original error is what matters.
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}

	return nil
}
