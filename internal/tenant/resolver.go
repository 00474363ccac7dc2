// Package tenant resolves the operator (tenant) that owns a hostname and
// provides the directories tenant bundles are loaded from.
package tenant

import (
	"context"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/rgehrsitz/solarplan/internal/domain"
	"github.com/rgehrsitz/solarplan/internal/metrics"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultTimeout bounds a single directory lookup
	DefaultTimeout = 5 * time.Second
	// DefaultCacheSize is the number of hosts kept before the least
	// recently used is evicted
	DefaultCacheSize = 1024
	// DefaultRetryAfter is how long a failed directory lookup is served
	// from the cache before the directory is asked again
	DefaultRetryAfter = 30 * time.Second
)

// Source says where a resolution's bundle came from
type Source string

const (
	SourceDirectory Source = "directory"
	SourceFallback  Source = "fallback"
)

// Resolution is the outcome of resolving a host. Branding is never nil;
// when Err is set it is the default tenant. Branding is shared between
// callers and must be treated as read-only.
type Resolution struct {
	Host     string
	Branding *domain.TenantBranding
	Err      error
	Source   Source
	Cached   bool
}

// Fallback reports whether the default tenant was substituted
func (r Resolution) Fallback() bool {
	return r.Source == SourceFallback
}

// Option configures a Resolver
type Option func(*Resolver)

// WithAmbientHost sets the host used when Resolve is called with ""
func WithAmbientHost(host string) Option {
	return func(r *Resolver) { r.ambientHost = NormalizeHost(host) }
}

// WithTimeout bounds each directory lookup. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithCacheSize bounds the number of cached hosts. Non-positive values are
// ignored.
func WithCacheSize(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.cacheSize = n
		}
	}
}

// WithRetryAfter sets how long a lookup_failed fallback stays cached.
// Non-positive values are ignored.
func WithRetryAfter(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.retryAfter = d
		}
	}
}

// WithValidator checks directory bundles with v, normally one built over
// the calculator's strategy registry
func WithValidator(v *Validator) Option {
	return func(r *Resolver) {
		if v != nil {
			r.validator = v
		}
	}
}

// WithDefaultBranding replaces the fallback bundle factory
func WithDefaultBranding(fn func() *domain.TenantBranding) Option {
	return func(r *Resolver) {
		if fn != nil {
			r.defaultBranding = fn
		}
	}
}

// Resolver maps hostnames to tenant bundles. It is safe for concurrent use.
//
// Resolutions are kept in a bounded LRU cache. Resolved hosts and
// not_found or invalid fallbacks stay until evicted, Refresh or Purge; a
// fallback caused by a failed lookup expires after the retry interval so
// the host recovers once the directory does.
type Resolver struct {
	dir             Directory
	dirName         string
	timeout         time.Duration
	retryAfter      time.Duration
	cacheSize       int
	ambientHost     string
	defaultBranding func() *domain.TenantBranding
	validator       *Validator
	now             func() time.Time

	cache *lru.Cache

	group singleflight.Group
}

type cacheEntry struct {
	res     Resolution
	expires time.Time
}

// NewResolver creates a resolver over dir. A nil directory resolves every
// host to the default tenant.
func NewResolver(dir Directory, opts ...Option) *Resolver {
	r := &Resolver{
		dir:             dir,
		dirName:         directoryName(dir),
		timeout:         DefaultTimeout,
		retryAfter:      DefaultRetryAfter,
		cacheSize:       DefaultCacheSize,
		defaultBranding: DefaultBranding,
		validator:       defaultValidator,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	// lru.New only fails for a non-positive size, which the options rule out.
	r.cache, _ = lru.New(r.cacheSize)
	return r
}

func directoryName(dir Directory) string {
	switch dir.(type) {
	case *FileDirectory:
		return "file"
	case *HTTPDirectory:
		return "http"
	case *StaticDirectory:
		return "static"
	case nil:
		return "none"
	default:
		return "custom"
	}
}

// AmbientHost returns the host used for empty Resolve calls
func (r *Resolver) AmbientHost() string {
	return r.ambientHost
}

// Resolve returns the tenant for host, consulting the cache first. An empty
// host means the ambient host. Resolve never fails: errors are reported in
// Resolution.Err alongside the default tenant.
func (r *Resolver) Resolve(ctx context.Context, host string) Resolution {
	key := r.key(host)

	if v, ok := r.cache.Get(key); ok {
		e := v.(cacheEntry)
		if e.expires.IsZero() || r.now().Before(e.expires) {
			metrics.TenantResolutions.WithLabelValues("cache_hit").Inc()
			res := e.res
			res.Cached = true
			return res
		}
	}

	return r.lookup(ctx, key)
}

// Refresh bypasses the cache and replaces the entry for host
func (r *Resolver) Refresh(ctx context.Context, host string) Resolution {
	return r.lookup(ctx, r.key(host))
}

// Purge drops every cached resolution
func (r *Resolver) Purge() {
	r.cache.Purge()
}

// CacheSize returns the number of cached hosts
func (r *Resolver) CacheSize() int {
	return r.cache.Len()
}

func (r *Resolver) key(host string) string {
	if k := NormalizeHost(host); k != "" {
		return k
	}
	return r.ambientHost
}

func (r *Resolver) lookup(ctx context.Context, key string) Resolution {
	ch := r.group.DoChan(key, func() (any, error) {
		// Detach from the first caller so its cancellation does not fail
		// the callers sharing this flight.
		res := r.fetch(context.WithoutCancel(ctx), key)
		e := cacheEntry{res: res}
		if errors.Is(res.Err, ErrLookupFailed) {
			e.expires = r.now().Add(r.retryAfter)
		}
		r.cache.Add(key, e)
		return res, nil
	})

	select {
	case <-ctx.Done():
		return r.fallback(key, fmt.Errorf("%w: %w", ErrLookupFailed, ctx.Err()), "lookup_failed")
	case out := <-ch:
		return out.Val.(Resolution)
	}
}

func (r *Resolver) fetch(ctx context.Context, key string) Resolution {
	if key == "" {
		return r.fallback(key, fmt.Errorf("%w: no hostname", ErrTenantNotFound), "not_found")
	}
	if r.dir == nil {
		return r.fallback(key, ErrTenantNotFound, "not_found")
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	b, err := r.dir.Lookup(ctx, key)
	metrics.TenantLookupDuration.WithLabelValues(r.dirName).Observe(time.Since(start).Seconds())

	switch {
	case errors.Is(err, ErrTenantNotFound):
		return r.fallback(key, err, "not_found")
	case err != nil:
		return r.fallback(key, fmt.Errorf("%w: %w", ErrLookupFailed, err), "lookup_failed")
	}

	if err := r.validator.Validate(b); err != nil {
		return r.fallback(key, err, "invalid")
	}

	metrics.TenantResolutions.WithLabelValues("resolved").Inc()
	log.Debug().Str("host", key).Str("tenant", b.Slug).Msg("Resolved tenant")

	return Resolution{Host: key, Branding: b, Source: SourceDirectory}
}

func (r *Resolver) fallback(key string, err error, outcome string) Resolution {
	metrics.TenantResolutions.WithLabelValues(outcome).Inc()
	rerr := &ResolutionError{Host: key, Err: err}
	log.Warn().Err(rerr).Str("host", key).Str("outcome", outcome).Msg("Tenant resolution failed, using default tenant")

	return Resolution{
		Host:     key,
		Branding: r.defaultBranding(),
		Err:      rerr,
		Source:   SourceFallback,
	}
}
