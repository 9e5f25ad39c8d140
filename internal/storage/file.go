package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"LocalCanvas/internal/state"
)

// FileStore keeps the board as an indented JSON file.
type FileStore struct {
	path string

	mu        sync.Mutex
	lastWrite []byte
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Load(context.Context) (*state.Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read board file: %w", err)
	}
	s, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("read board file %s: %w", f.path, err)
	}
	return s, nil
}

// Save writes the snapshot to a temp file next to the board file and
// renames it into place.
func (f *FileStore) Save(_ context.Context, s *state.Snapshot) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode board: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create board dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".board-*.json")
	if err != nil {
		return fmt.Errorf("create temp board file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write board file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write board file: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace board file: %w", err)
	}
	f.lastWrite = data
	return nil
}

// Watch calls onChange whenever the board file is changed by someone else.
// Writes made by Save are recognized and skipped. Watching stops when ctx
// is done.
func (f *FileStore) Watch(ctx context.Context, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch board file: %w", err)
	}
	// Watch the directory: Save replaces the file, which drops watches on
	// the file itself.
	if err := w.Add(filepath.Dir(f.path)); err != nil {
		w.Close()
		return fmt.Errorf("watch board dir: %w", err)
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(f.path) {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				if f.isOwnWrite() {
					continue
				}
				log.Printf("[STORAGE] Board file changed on disk: %s", f.path)
				onChange()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Printf("[STORAGE] Watch error: %v", err)
			}
		}
	}()
	return nil
}

func (f *FileStore) isOwnWrite() bool {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastWrite != nil && bytes.Equal(data, f.lastWrite)
}
