package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// File is a store persisted as one JSON object in a file. Every write
// rewrites the file through a temporary file and a rename, so a crash leaves
// either the old or the new contents.
type File struct {
	path   string
	mu     sync.Mutex
	m      map[string]string
	closed bool
}

// OpenFile loads the store at path, creating parent directories as needed.
// A missing file is an empty store. A file that does not hold a JSON object
// of strings is an error rather than silently discarded.
func OpenFile(path string) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	f := &File{path: path, m: map[string]string{}}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return f, nil
	case err != nil:
		return nil, fmt.Errorf("read storage file: %w", err)
	}
	if len(data) == 0 {
		return f, nil
	}
	if err := json.Unmarshal(data, &f.m); err != nil {
		return nil, fmt.Errorf("decode storage file %s: %w", path, err)
	}
	if f.m == nil {
		f.m = map[string]string{}
	}
	return f, nil
}

// Path returns the backing file path.
func (f *File) Path() string { return f.path }

// Get returns the value under key and whether it was present.
func (f *File) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return "", false, ErrClosed
	}
	v, ok := f.m[key]
	return v, ok, nil
}

// Set stores value under key and flushes the file.
func (f *File) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	prev, had := f.m[key]
	f.m[key] = value
	if err := f.flushLocked(); err != nil {
		if had {
			f.m[key] = prev
		} else {
			delete(f.m, key)
		}
		return err
	}
	return nil
}

// Remove deletes key and flushes the file.
func (f *File) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	prev, had := f.m[key]
	if !had {
		return nil
	}
	delete(f.m, key)
	if err := f.flushLocked(); err != nil {
		f.m[key] = prev
		return err
	}
	return nil
}

// Close marks the store closed. The file is already up to date.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *File) flushLocked() error {
	buf, err := json.MarshalIndent(f.m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode storage: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".sketch-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write storage: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close storage: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace storage file: %w", err)
	}
	return nil
}
