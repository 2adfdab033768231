// Package snapshot persists the last raw /states/all payload so the table can
// be restored without network access.
package snapshot

import (
	"context"
	"errors"
	"fmt"

	"flight-state-table/internal/model"
)

// ErrPersistence matches every *PersistenceError.
var ErrPersistence = errors.New("persistence error")

// PersistenceError reports a snapshot that could not be read or written.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("snapshot %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("snapshot %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// Store saves and loads the last raw payload.
type Store interface {
	// Save overwrites any prior snapshot with payload.
	Save(ctx context.Context, payload []byte) error

	// Load returns the saved snapshot. found is false on first run, which
	// is not an error.
	Load(ctx context.Context) (snap *model.Snapshot, found bool, err error)
}
