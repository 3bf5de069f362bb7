package db

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const (
	dbFile   = ".fieldsync/offline.db"
	idPrefix = "rec-"
)

// DB wraps the local offline database. All mutating calls take the
// cross-process write lock so multiple fieldsync processes on the same
// workspace cannot interleave writes.
type DB struct {
	conn    *sql.DB
	baseDir string
}

// Open opens an existing offline database and runs pending migrations.
func Open(baseDir string) (*DB, error) {
	dbPath := filepath.Join(baseDir, dbFile)

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("offline database not found: run 'fieldsync init' first")
	}

	conn, err := openConn(dbPath)
	if err != nil {
		return nil, err
	}

	db := &DB{conn: conn, baseDir: baseDir}
	if err := db.runMigrations(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	// A crash between a record write and its counter update leaves the
	// incremental counters stale; a full recount on open settles them.
	if _, err := db.RecountPending(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("reconcile pending counters: %w", err)
	}
	return db, nil
}

// Initialize creates the offline database, applying the schema and any
// migrations. Safe to call on an existing workspace.
func Initialize(baseDir string) (*DB, error) {
	dbPath := filepath.Join(baseDir, dbFile)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	conn, err := openConn(dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	db := &DB{conn: conn, baseDir: baseDir}
	if err := db.runMigrations(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	if _, err := db.RecountPending(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("seed counters: %w", err)
	}
	return db, nil
}

func openConn(dbPath string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL allows concurrent readers while writes are serialized
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// Busy timeout as fallback protection, matches the lock timeout
	if _, err := conn.Exec("PRAGMA busy_timeout=500"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	conn.Exec("PRAGMA synchronous=NORMAL")
	return conn, nil
}

// Close closes the database.
func (db *DB) Close() error {
	return db.conn.Close()
}

// BaseDir returns the workspace directory holding the database.
func (db *DB) BaseDir() string {
	return db.baseDir
}

// Conn returns the underlying connection for transactional callers.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// withWriteLock executes fn while holding an exclusive write lock.
func (db *DB) withWriteLock(fn func() error) error {
	locker := newWriteLocker(db.baseDir)
	if err := locker.acquire(defaultTimeout); err != nil {
		return err
	}
	defer locker.release()
	return fn()
}

// GetSchemaVersion returns the current schema version.
func (db *DB) GetSchemaVersion() (int, error) {
	var version string
	err := db.conn.QueryRow("SELECT value FROM schema_info WHERE key = 'version'").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, nil
	}
	var v int
	fmt.Sscanf(version, "%d", &v)
	return v, nil
}

func (db *DB) setSchemaVersion(version int) error {
	_, err := db.conn.Exec(`INSERT OR REPLACE INTO schema_info (key, value) VALUES ('version', ?)`,
		fmt.Sprintf("%d", version))
	return err
}

// runMigrations applies any pending migrations in order.
func (db *DB) runMigrations() error {
	if _, err := db.conn.Exec(`CREATE TABLE IF NOT EXISTS schema_info (key TEXT PRIMARY KEY, value TEXT NOT NULL)`); err != nil {
		return fmt.Errorf("create schema_info: %w", err)
	}

	currentVersion, err := db.GetSchemaVersion()
	if err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}
	if currentVersion >= SchemaVersion {
		return nil
	}

	for _, migration := range Migrations {
		if migration.Version <= currentVersion {
			continue
		}
		if _, err := db.conn.Exec(migration.SQL); err != nil {
			return fmt.Errorf("migration %d (%s): %w", migration.Version, migration.Description, err)
		}
		if err := db.setSchemaVersion(migration.Version); err != nil {
			return fmt.Errorf("set version %d: %w", migration.Version, err)
		}
	}

	if currentVersion == 0 {
		return db.setSchemaVersion(SchemaVersion)
	}
	return nil
}

// generateRecordID generates a unique record ID.
func generateRecordID() (string, error) {
	bytes := make([]byte, 6) // 12 hex characters
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return idPrefix + hex.EncodeToString(bytes), nil
}
