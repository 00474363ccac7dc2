package planstore

import "context"

// namespaced prefixes every key so many sessions can share one backend
type namespaced struct {
	Backend
	prefix string
}

// Namespaced returns a view of b whose keys live under ns. Closing the view
// does not close b.
func Namespaced(b Backend, ns string) Backend {
	return namespaced{Backend: b, prefix: ns + "."}
}

func (n namespaced) Get(ctx context.Context, key string) ([]byte, int64, error) {
	return n.Backend.Get(ctx, n.prefix+key)
}

func (n namespaced) Put(ctx context.Context, key string, value []byte, expectedRev int64) (int64, error) {
	return n.Backend.Put(ctx, n.prefix+key, value, expectedRev)
}

func (n namespaced) Delete(ctx context.Context, key string) (int64, error) {
	return n.Backend.Delete(ctx, n.prefix+key)
}

func (n namespaced) Close() error { return nil }
