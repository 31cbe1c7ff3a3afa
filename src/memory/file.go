package memory

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"
)

// FileStore keeps every record in one JSON file keyed by id. A mutex serializes
// read-modify-write inside the process; the file is replaced atomically.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Load(ctx context.Context, id string) (*Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	records, err := f.readAll()
	if err != nil {
		return nil, err
	}
	rec, ok := records[id]
	if !ok || rec == nil {
		return nil, ErrNotFound
	}
	return rec, nil
}

func (f *FileStore) CompareAndSwap(ctx context.Context, rec *Record, expected int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	records, err := f.readAll()
	if err != nil {
		return err
	}

	var current int64
	if existing, ok := records[rec.ID]; ok && existing != nil {
		current = existing.Version
	}
	if current != expected {
		return ErrVersionConflict
	}

	records[rec.ID] = rec
	return f.writeAll(records)
}

func (f *FileStore) Close() error {
	return nil
}

func (f *FileStore) readAll() (map[string]*Record, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]*Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read memory file: %w", err)
	}

	records := map[string]*Record{}
	if len(data) == 0 {
		return records, nil
	}
	if err := sonic.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse memory file: %w", err)
	}
	return records, nil
}

func (f *FileStore) writeAll(records map[string]*Record) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("failed to create memory directory: %w", err)
	}

	data, err := sonic.ConfigStd.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal memory file: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write memory file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to replace memory file: %w", err)
	}
	return nil
}
