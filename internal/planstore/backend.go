package planstore

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrNotFound means the key has no value
	ErrNotFound = errors.New("key not found")
	// ErrConflict means the stored revision moved since it was last read
	ErrConflict = errors.New("revision conflict")
)

// Backend is a revisioned key-value store. Put is a compare-and-swap: it
// succeeds only when the key's current revision equals expectedRev. Each
// successful write is atomic.
//
// A key's revision never goes backwards. Delete leaves a tombstone with the
// next revision, so a writer that read the key before the delete conflicts.
// Get on a deleted key returns ErrNotFound together with the tombstone's
// revision; a key that was never written has revision 0.
type Backend interface {
	Get(ctx context.Context, key string) (value []byte, rev int64, err error)
	Put(ctx context.Context, key string, value []byte, expectedRev int64) (newRev int64, err error)
	Delete(ctx context.Context, key string) (rev int64, err error)
	Close() error
}

type memoryEntry struct {
	value   []byte
	rev     int64
	deleted bool
}

// MemoryBackend keeps values in process memory
type MemoryBackend struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

// NewMemoryBackend creates an empty in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string]memoryEntry)}
}

// Get implements Backend
func (m *MemoryBackend) Get(ctx context.Context, key string) ([]byte, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, 0, ErrNotFound
	}
	if e.deleted {
		return nil, e.rev, ErrNotFound
	}
	return append([]byte(nil), e.value...), e.rev, nil
}

// Put implements Backend
func (m *MemoryBackend) Put(ctx context.Context, key string, value []byte, expectedRev int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	current := m.entries[key].rev
	if current != expectedRev {
		return 0, ErrConflict
	}
	next := current + 1
	m.entries[key] = memoryEntry{value: append([]byte(nil), value...), rev: next}
	return next, nil
}

// Delete implements Backend
func (m *MemoryBackend) Delete(ctx context.Context, key string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok || e.deleted {
		return e.rev, nil
	}
	next := e.rev + 1
	m.entries[key] = memoryEntry{rev: next, deleted: true}
	return next, nil
}

// Close implements Backend
func (m *MemoryBackend) Close() error { return nil }
