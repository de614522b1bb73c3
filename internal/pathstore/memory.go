package pathstore

import (
	"fmt"
	"time"
)

// MemoryStore is an in-memory Store for tests and dry runs.
type MemoryStore struct {
	records map[Kind]Record
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[Kind]Record)}
}

// Get returns the record for kind, or ok=false if none was stored yet.
func (s *MemoryStore) Get(kind Kind) (Record, bool, error) {
	rec, ok := s.records[kind]
	return rec, ok, nil
}

// Put overwrites the record for kind.
func (s *MemoryStore) Put(kind Kind, sourcePath, destPath string) error {
	if !kind.Valid() {
		return &StorageError{Op: "put", Err: fmt.Errorf("unknown conversion kind %q", kind)}
	}

	s.records[kind] = Record{
		Kind:       kind,
		SourcePath: sourcePath,
		DestPath:   destPath,
		UpdatedAt:  time.Now().UTC(),
	}
	return nil
}

// All returns the stored records in kind order.
func (s *MemoryStore) All() ([]Record, error) {
	var records []Record
	for _, kind := range Kinds {
		if rec, ok := s.records[kind]; ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
