package planstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

var validKey = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// envelope is the on-disk form of one key. A deleted key keeps its file as
// a tombstone so the revision carries on from where it was.
type envelope struct {
	Rev     int64           `json:"rev"`
	Value   json.RawMessage `json:"value"`
	Deleted bool            `json:"deleted,omitempty"`
}

// FileBackend stores each key as a JSON envelope file in a directory.
// Values must be JSON documents. Writes go to a temp file that is renamed
// into place, so readers never see a partial value. Revision checks are
// serialised within the process only.
type FileBackend struct {
	dir string
	mu  sync.Mutex
}

// NewFileBackend creates the directory if needed
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

func (f *FileBackend) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(f.dir, key+".json"), nil
}

func (f *FileBackend) read(path string) (*envelope, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return &env, nil
}

// Get implements Backend
func (f *FileBackend) Get(ctx context.Context, key string) ([]byte, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	path, err := f.path(key)
	if err != nil {
		return nil, 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	env, err := f.read(path)
	if err != nil {
		return nil, 0, err
	}
	if env.Deleted {
		return nil, env.Rev, ErrNotFound
	}
	return []byte(env.Value), env.Rev, nil
}

// Put implements Backend
func (f *FileBackend) Put(ctx context.Context, key string, value []byte, expectedRev int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if !json.Valid(value) {
		return 0, fmt.Errorf("value for %q is not valid JSON", key)
	}
	path, err := f.path(key)
	if err != nil {
		return 0, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var current int64
	env, err := f.read(path)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return 0, err
	default:
		current = env.Rev
	}
	if current != expectedRev {
		return 0, ErrConflict
	}

	next := current + 1
	data, err := json.Marshal(envelope{Rev: next, Value: value})
	if err != nil {
		return 0, fmt.Errorf("encode envelope: %w", err)
	}
	if err := writeAtomic(path, data); err != nil {
		return 0, err
	}
	return next, nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Delete implements Backend
func (f *FileBackend) Delete(ctx context.Context, key string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	path, err := f.path(key)
	if err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	env, err := f.read(path)
	switch {
	case errors.Is(err, ErrNotFound):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("delete %s: %w", key, err)
	case env.Deleted:
		return env.Rev, nil
	}

	next := env.Rev + 1
	data, err := json.Marshal(envelope{Rev: next, Deleted: true})
	if err != nil {
		return 0, fmt.Errorf("encode envelope: %w", err)
	}
	if err := writeAtomic(path, data); err != nil {
		return 0, fmt.Errorf("delete %s: %w", key, err)
	}
	return next, nil
}

// Close implements Backend
func (f *FileBackend) Close() error { return nil }
