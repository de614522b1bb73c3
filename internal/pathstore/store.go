// Package pathstore persists the last source/destination path pair used per
// conversion direction, so repeat invocations can omit flags.
package pathstore

import (
	"fmt"
	"time"
)

// Kind identifies a conversion direction.
type Kind string

const (
	// OvaToQcow2 is the archive to disk-image direction.
	OvaToQcow2 Kind = "ova-to-qcow2"

	// Qcow2ToOva is the disk-image to archive direction.
	Qcow2ToOva Kind = "qcow2-to-ova"
)

// Kinds lists all conversion directions in display order.
var Kinds = []Kind{OvaToQcow2, Qcow2ToOva}

// Valid reports whether k is a known conversion direction.
func (k Kind) Valid() bool {
	switch k {
	case OvaToQcow2, Qcow2ToOva:
		return true
	}
	return false
}

// Record is the remembered path pair for one conversion direction.
// At most one record exists per kind; a new conversion overwrites it.
type Record struct {
	Kind       Kind
	SourcePath string
	DestPath   string
	UpdatedAt  time.Time
}

// Store is the durable path memory. Get absence is a normal state, not an
// error; Put failures surface as *StorageError.
type Store interface {
	// Get returns the record for kind, or ok=false if none was stored yet.
	Get(kind Kind) (Record, bool, error)

	// Put overwrites the record for kind with the given paths and stamps
	// the current time.
	Put(kind Kind, sourcePath, destPath string) error

	// All returns the stored records, at most one per kind, in kind order.
	All() ([]Record, error)

	// Close releases the backing resources.
	Close() error
}

// StorageError indicates the backing store could not be read or written.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("path store %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
