// Package index owns the SQLite-backed vault index of numbered objects.
package index

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// VaultDir is the hidden per-vault state directory.
const VaultDir = ".mathb"

// Database is the SQLite database handle. All writes go through
// per-document transactions, so readers never observe a document entry
// set that mixes declarations from two different scans.
type Database struct {
	db *sql.DB
}

var (
	// ErrEntryNotFound indicates the requested label is not in the index.
	// Callers must treat this as a normal, displayable state (a broken
	// reference), not a fatal condition.
	ErrEntryNotFound = errors.New("entry not found in index")

	// ErrDocumentNotFound indicates the requested document is not indexed.
	ErrDocumentNotFound = errors.New("document not found in index")

	// ErrIndexLocked indicates another process is rebuilding the index.
	ErrIndexLocked = errors.New("index is locked for rebuild")
)

// DB returns the underlying sql.DB for advanced queries.
func (d *Database) DB() *sql.DB {
	return d.db
}

// Open opens or creates the vault index database.
func Open(vaultPath string) (*Database, error) {
	dbDir := filepath.Join(vaultPath, VaultDir)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", VaultDir, err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dbDir, "index.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	d := &Database{db: db}
	if err := d.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return d, nil
}

// OpenWithRebuild opens the database, rebuilding if the schema is
// incompatible. Returns (database, wasRebuilt, error).
func OpenWithRebuild(vaultPath string) (*Database, bool, error) {
	dbDir := filepath.Join(vaultPath, VaultDir)
	dbPath := filepath.Join(dbDir, "index.db")

	lock, err := acquireIndexLock(dbDir)
	if err != nil {
		return nil, false, err
	}
	defer lock.Release()

	if _, err := os.Stat(dbPath); err == nil {
		db, err := sql.Open("sqlite", dbPath)
		if err == nil {
			compatible := isSchemaCompatible(db)
			db.Close()
			if !compatible {
				if err := removeDatabaseFiles(dbPath); err != nil {
					return nil, false, err
				}
				freshDB, err := Open(vaultPath)
				return freshDB, true, err
			}
		}
	}

	db, err := Open(vaultPath)
	return db, false, err
}

// OpenInMemory opens an in-memory database (for testing).
func OpenInMemory() (*Database, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}

	d := &Database{db: db}
	if err := d.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return d, nil
}

// Close closes the database.
func (d *Database) Close() error {
	return d.db.Close()
}

// Analyze updates SQLite's query planner statistics. Call after bulk
// indexing.
func (d *Database) Analyze() error {
	_, err := d.db.Exec("ANALYZE")
	return err
}

type indexLock struct {
	file *os.File
}

func acquireIndexLock(dbDir string) (*indexLock, error) {
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", VaultDir, err)
	}

	lockPath := filepath.Join(dbDir, "index.lock")
	lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open index lock: %w", err)
	}

	if err := lockFileExclusiveNonBlocking(lockFile); err != nil {
		lockFile.Close()
		if isWouldBlockError(err) {
			return nil, ErrIndexLocked
		}
		return nil, fmt.Errorf("failed to acquire index lock: %w", err)
	}

	return &indexLock{file: lockFile}, nil
}

func (l *indexLock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	unlockErr := unlockFile(l.file)
	closeErr := l.file.Close()
	if unlockErr != nil {
		return unlockErr
	}
	return closeErr
}

func removeDatabaseFiles(dbPath string) error {
	for _, p := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}
	}
	return nil
}

// CurrentDBVersion is the current database schema version.
const CurrentDBVersion = 2

// isSchemaCompatible checks if the database schema matches the expected
// structure.
func isSchemaCompatible(db *sql.DB) bool {
	var version string
	err := db.QueryRow("SELECT value FROM meta WHERE key = 'version'").Scan(&version)
	if err != nil {
		return false
	}
	if version != fmt.Sprintf("%d", CurrentDBVersion) {
		return false
	}

	// Sanity check: the documents table must carry the visited_at column (v2+).
	rows, err := db.Query("PRAGMA table_info(documents)")
	if err != nil {
		return false
	}
	defer rows.Close()

	hasVisitedAt := false
	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return false
		}
		if name == "visited_at" {
			hasVisitedAt = true
		}
	}

	return hasVisitedAt
}

// initialize creates the database schema.
//
// Documents carry a stable integer ID assigned at first index time;
// declarations reference it. A rename therefore touches exactly one row
// in documents, never the declarations.
func (d *Database) initialize() error {
	schema := `
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
		PRAGMA temp_store = MEMORY;
		PRAGMA cache_size = -64000;

		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS documents (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT NOT NULL UNIQUE,      -- vault-relative markdown path
			file_mtime INTEGER,             -- filesystem mtime (Unix seconds)
			indexed_at INTEGER,             -- when this document was last upserted
			visited_at INTEGER              -- last read/open, feeds recency ranking
		);

		CREATE TABLE IF NOT EXISTS declarations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			doc_id INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,      -- 0-based document order
			kind TEXT NOT NULL,
			sub_kind TEXT NOT NULL DEFAULT '',
			label TEXT NOT NULL,            -- local ID (explicit label or auto slot)
			explicit INTEGER NOT NULL DEFAULT 0,
			title TEXT NOT NULL DEFAULT '',
			number TEXT NOT NULL DEFAULT '',
			manual_tag TEXT NOT NULL DEFAULT '',
			line_start INTEGER NOT NULL,
			line_end INTEGER NOT NULL,
			offset_start INTEGER NOT NULL,
			offset_end INTEGER NOT NULL,
			UNIQUE (doc_id, label)
		);

		CREATE TABLE IF NOT EXISTS headings (
			doc_id INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			level INTEGER NOT NULL,
			text TEXT NOT NULL,
			line INTEGER NOT NULL,
			PRIMARY KEY (doc_id, position)
		);

		CREATE INDEX IF NOT EXISTS idx_declarations_doc ON declarations(doc_id, position);
		CREATE INDEX IF NOT EXISTS idx_declarations_label ON declarations(label);
		CREATE INDEX IF NOT EXISTS idx_declarations_kind ON declarations(kind, sub_kind);
		CREATE INDEX IF NOT EXISTS idx_documents_visited ON documents(visited_at DESC);
	`

	if _, err := d.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}

	if _, err := d.db.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES ('version', ?)`,
		fmt.Sprintf("%d", CurrentDBVersion)); err != nil {
		return fmt.Errorf("failed to set database version: %w", err)
	}

	return nil
}

// now is stubbed in tests.
var now = func() int64 { return time.Now().Unix() }
