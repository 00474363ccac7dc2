package tenant

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rgehrsitz/solarplan/internal/domain"
	"github.com/rgehrsitz/solarplan/internal/metrics"
	"github.com/rs/zerolog/log"
)

// reloadDebounce collapses the burst of events editors produce on save
const reloadDebounce = 100 * time.Millisecond

// FileDirectory serves tenants from a YAML file and can follow changes to it
type FileDirectory struct {
	path      string
	validator *Validator

	mu      sync.RWMutex
	tenants []domain.TenantBranding

	wg sync.WaitGroup
}

// FileOption configures a FileDirectory
type FileOption func(*FileDirectory)

// ValidateWith checks loaded tenants with v instead of the built-in
// strategies
func ValidateWith(v *Validator) FileOption {
	return func(d *FileDirectory) {
		if v != nil {
			d.validator = v
		}
	}
}

// NewFileDirectory loads the tenant file at path
func NewFileDirectory(path string, opts ...FileOption) (*FileDirectory, error) {
	d := &FileDirectory{path: path, validator: defaultValidator}
	for _, opt := range opts {
		opt(d)
	}
	if err := d.Reload(); err != nil {
		return nil, err
	}
	return d, nil
}

// Path returns the watched file
func (d *FileDirectory) Path() string {
	return d.path
}

// Lookup implements Directory
func (d *FileDirectory) Lookup(ctx context.Context, host string) (*domain.TenantBranding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return lookupIn(d.tenants, host)
}

// Tenants returns a copy of the loaded tenants
func (d *FileDirectory) Tenants() []domain.TenantBranding {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]domain.TenantBranding(nil), d.tenants...)
}

// Reload re-reads the file. On error the previous tenants stay in place.
func (d *FileDirectory) Reload() error {
	tenants, err := d.validator.LoadTenantsFile(d.path)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.tenants = tenants
	d.mu.Unlock()
	return nil
}

// Watch reloads the directory whenever the file is written or replaced and
// then calls onReload. It returns once the watcher is running; the watch
// goroutine exits when ctx is cancelled. Use Wait to block until it has.
func (d *FileDirectory) Watch(ctx context.Context, onReload func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	// Watch the directory so atomic renames over the file are seen.
	if err := watcher.Add(filepath.Dir(d.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(d.path), err)
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer watcher.Close()
		d.watchLoop(ctx, watcher, onReload)
	}()

	log.Info().Str("path", d.path).Msg("Watching tenant directory for changes")
	return nil
}

// Wait blocks until every watch goroutine has exited
func (d *FileDirectory) Wait() {
	d.wg.Wait()
}

func (d *FileDirectory) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, onReload func()) {
	target := filepath.Clean(d.path)

	var debounce *time.Timer
	var fire <-chan time.Time
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(reloadDebounce)
			} else {
				debounce.Reset(reloadDebounce)
			}
			fire = debounce.C

		case <-fire:
			fire = nil
			if err := d.Reload(); err != nil {
				metrics.TenantDirectoryReloads.WithLabelValues("failure").Inc()
				log.Warn().Err(err).Str("path", d.path).Msg("Tenant directory reload failed, keeping previous tenants")
				continue
			}
			metrics.TenantDirectoryReloads.WithLabelValues("success").Inc()
			log.Info().Str("path", d.path).Int("tenants", len(d.Tenants())).Msg("Tenant directory reloaded")
			if onReload != nil {
				onReload()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("Tenant directory watcher error")
		}
	}
}
