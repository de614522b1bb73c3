package pathstore

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore is the file-backed Store used in production.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the store database at path and
// ensures the schema exists.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, &StorageError{Op: "open", Err: err}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, &StorageError{Op: "open", Err: err}
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, &StorageError{Op: "init schema", Err: err}
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
        CREATE TABLE IF NOT EXISTS conversion_paths (
            kind TEXT PRIMARY KEY,
            source_path TEXT NOT NULL,
            dest_path TEXT NOT NULL,
            updated_at DATETIME NOT NULL
        )`)
	return err
}

// Get returns the record for kind, or ok=false if none was stored yet.
func (s *SQLiteStore) Get(kind Kind) (Record, bool, error) {
	row := s.db.QueryRow(
		`SELECT source_path, dest_path, updated_at FROM conversion_paths WHERE kind = ?`,
		string(kind))

	rec := Record{Kind: kind}
	err := row.Scan(&rec.SourcePath, &rec.DestPath, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, &StorageError{Op: "get", Err: err}
	}
	return rec, true, nil
}

// Put upserts the record for kind, stamping the current time.
func (s *SQLiteStore) Put(kind Kind, sourcePath, destPath string) error {
	if !kind.Valid() {
		return &StorageError{Op: "put", Err: fmt.Errorf("unknown conversion kind %q", kind)}
	}

	_, err := s.db.Exec(`
        INSERT INTO conversion_paths (kind, source_path, dest_path, updated_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(kind) DO UPDATE SET
            source_path = excluded.source_path,
            dest_path = excluded.dest_path,
            updated_at = excluded.updated_at`,
		string(kind), sourcePath, destPath, time.Now().UTC())
	if err != nil {
		return &StorageError{Op: "put", Err: err}
	}
	return nil
}

// All returns the stored records in kind order.
func (s *SQLiteStore) All() ([]Record, error) {
	var records []Record
	for _, kind := range Kinds {
		rec, ok, err := s.Get(kind)
		if err != nil {
			return nil, err
		}
		if ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
