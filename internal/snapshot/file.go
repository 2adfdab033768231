package snapshot

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"flight-state-table/internal/model"
)

// DefaultPath is the snapshot file used when none is configured.
const DefaultPath = "data.json"

const defaultMode fs.FileMode = 0o644

// FileStore keeps the snapshot in a single flat file holding the raw payload
// verbatim. The capture time is the file's modification time.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store backed by path.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultPath
	}
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Save replaces the file contents with payload. The payload is written to a
// temporary file in the same directory and renamed over the target, so a
// failed save leaves the previous snapshot intact.
func (s *FileStore) Save(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return &PersistenceError{Op: "save", Path: s.path, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeFile(payload); err != nil {
		return &PersistenceError{Op: "save", Path: s.path, Err: err}
	}
	return nil
}

func (s *FileStore) writeFile(payload []byte) (err error) {
	dir, base := filepath.Split(s.path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = tmp.Chmod(s.fileMode()); err != nil {
		return err
	}
	if _, err = tmp.Write(payload); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// fileMode returns the mode of the existing snapshot, or defaultMode when
// there is none. CreateTemp opens files 0600.
func (s *FileStore) fileMode() fs.FileMode {
	if info, err := os.Stat(s.path); err == nil {
		return info.Mode().Perm()
	}
	return defaultMode
}

// Load reads the snapshot file. A missing file is reported as not found.
func (s *FileStore) Load(ctx context.Context) (*model.Snapshot, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, &PersistenceError{Op: "load", Path: s.path, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &PersistenceError{Op: "load", Path: s.path, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, false, &PersistenceError{Op: "load", Path: s.path, Err: err}
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, false, &PersistenceError{Op: "load", Path: s.path, Err: err}
	}

	return &model.Snapshot{Payload: data, CapturedAt: info.ModTime()}, true, nil
}
