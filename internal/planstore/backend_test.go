package planstore

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackend_CompareAndSwap(t *testing.T) {
	for name, newBackend := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			b := newBackend(t)

			_, _, err := b.Get(ctx, "k")
			assert.ErrorIs(t, err, ErrNotFound)

			_, err = b.Put(ctx, "k", []byte(`{"v":1}`), 5)
			assert.ErrorIs(t, err, ErrConflict, "missing key only accepts revision 0")

			rev, err := b.Put(ctx, "k", []byte(`{"v":1}`), 0)
			require.NoError(t, err)
			assert.Equal(t, int64(1), rev)

			_, err = b.Put(ctx, "k", []byte(`{"v":2}`), 0)
			assert.ErrorIs(t, err, ErrConflict, "existing key rejects create")

			rev, err = b.Put(ctx, "k", []byte(`{"v":2}`), 1)
			require.NoError(t, err)
			assert.Equal(t, int64(2), rev)

			value, rev, err := b.Get(ctx, "k")
			require.NoError(t, err)
			assert.JSONEq(t, `{"v":2}`, string(value))
			assert.Equal(t, int64(2), rev)

			rev, err = b.Delete(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, int64(3), rev, "delete moves the revision forward")
			rev, err = b.Delete(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, int64(3), rev, "deleting a deleted key changes nothing")

			_, rev, err = b.Get(ctx, "k")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.Equal(t, int64(3), rev)

			_, err = b.Put(ctx, "k", []byte(`{"v":3}`), 0)
			assert.ErrorIs(t, err, ErrConflict, "a deleted key does not start over at 0")
			_, err = b.Put(ctx, "k", []byte(`{"v":3}`), 2)
			assert.ErrorIs(t, err, ErrConflict, "a writer from before the delete conflicts")

			rev, err = b.Put(ctx, "k", []byte(`{"v":3}`), 3)
			require.NoError(t, err)
			assert.Equal(t, int64(4), rev)

			rev, err = b.Delete(ctx, "never-written")
			require.NoError(t, err)
			assert.Zero(t, rev)
		})
	}
}

func TestBackend_ConcurrentCreateHasOneWinner(t *testing.T) {
	for name, newBackend := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			b := newBackend(t)

			const writers = 8
			var wg sync.WaitGroup
			errs := make([]error, writers)
			for i := 0; i < writers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, errs[i] = b.Put(ctx, "race", []byte(`{}`), 0)
				}(i)
			}
			wg.Wait()

			wins := 0
			for _, err := range errs {
				if err == nil {
					wins++
				} else {
					assert.ErrorIs(t, err, ErrConflict)
				}
			}
			assert.Equal(t, 1, wins)
		})
	}
}

func TestFileBackend_LayoutAndValidation(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	b, err := NewFileBackend(dir)
	require.NoError(t, err)

	_, err = b.Put(ctx, PlanKey, []byte(`{"a":1}`), 0)
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, PlanKey+".json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"rev":1,"value":{"a":1}}`, string(raw))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")

	_, err = b.Put(ctx, "../escape", []byte(`{}`), 0)
	assert.ErrorContains(t, err, "invalid key")

	_, err = b.Put(ctx, "k", []byte(`not json`), 0)
	assert.ErrorContains(t, err, "not valid JSON")
}

func TestFileBackend_Tombstone(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	b, err := NewFileBackend(dir)
	require.NoError(t, err)

	_, err = b.Put(ctx, PlanKey, []byte(`{"a":1}`), 0)
	require.NoError(t, err)
	_, err = b.Delete(ctx, PlanKey)
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, PlanKey+".json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"rev":2,"value":null,"deleted":true}`, string(raw))
}

func TestSQLiteBackend_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "plans.db")

	b, err := NewSQLiteBackend(path)
	require.NoError(t, err)
	_, err = b.Put(ctx, PlanKey, []byte(`{"x":true}`), 0)
	require.NoError(t, err)
	require.NoError(t, b.Close())

	reopened, err := NewSQLiteBackend(path)
	require.NoError(t, err)
	defer reopened.Close()

	value, rev, err := reopened.Get(ctx, PlanKey)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rev)
	assert.JSONEq(t, `{"x":true}`, string(value))
}

func TestNamespaced(t *testing.T) {
	ctx := context.Background()
	shared := NewMemoryBackend()
	a := Namespaced(shared, "session-a")
	b := Namespaced(shared, "session-b")

	_, err := a.Put(ctx, PlanKey, []byte(`{"a":1}`), 0)
	require.NoError(t, err)

	_, _, err = b.Get(ctx, PlanKey)
	assert.ErrorIs(t, err, ErrNotFound)

	got, _, err := shared.Get(ctx, "session-a."+PlanKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(got))

	require.NoError(t, a.Close())
	_, err = a.Delete(ctx, PlanKey)
	require.NoError(t, err)
	_, _, err = shared.Get(ctx, "session-a."+PlanKey)
	assert.ErrorIs(t, err, ErrNotFound)
}
