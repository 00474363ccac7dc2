// Package app assembles the configured components shared by the CLI, the
// terminal wizard and the HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/rgehrsitz/solarplan/internal/api"
	"github.com/rgehrsitz/solarplan/internal/config"
	"github.com/rgehrsitz/solarplan/internal/economics"
	"github.com/rgehrsitz/solarplan/internal/lead"
	"github.com/rgehrsitz/solarplan/internal/logging"
	"github.com/rgehrsitz/solarplan/internal/planstore"
	"github.com/rgehrsitz/solarplan/internal/tenant"
	"github.com/rgehrsitz/solarplan/internal/tier"
	"github.com/rgehrsitz/solarplan/internal/wizard"
)

// App holds one process's long-lived components
type App struct {
	Config     *config.Config
	Resolver   *tenant.Resolver
	Directory  tenant.Directory
	Backend    planstore.Backend
	Submitter  lead.Submitter
	Classifier *tier.Classifier
	Calculator *economics.Calculator

	cancelWatch context.CancelFunc
}

// New builds every component from cfg. With tenants.watch set, the tenant
// file is watched until Close and the resolver cache is purged on change.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	calc := economics.NewCalculator()
	calc.SetLogger(logging.CalcLogger{})

	// Tenants are accepted for exactly the pricing types the calculator can build.
	resolver, dir, err := cfg.Tenants.Resolver(tenant.NewValidator(calc.Registry()))
	if err != nil {
		return nil, err
	}
	backend, err := cfg.Store.Backend()
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:     cfg,
		Resolver:   resolver,
		Directory:  dir,
		Backend:    backend,
		Submitter:  cfg.Lead.Submitter(),
		Classifier: tier.NewClassifier(nil),
		Calculator: calc,
	}

	if fd, ok := dir.(*tenant.FileDirectory); ok && cfg.Tenants.Watch {
		watchCtx, cancel := context.WithCancel(ctx)
		if err := fd.Watch(watchCtx, resolver.Purge); err != nil {
			cancel()
			backend.Close()
			return nil, fmt.Errorf("watch tenants: %w", err)
		}
		a.cancelWatch = cancel
	}
	return a, nil
}

// Session resolves host and returns a wizard session over the plan stored
// under namespace. An empty namespace uses the backend's top level, which is
// what a single-user CLI or terminal wants.
func (a *App) Session(ctx context.Context, host, namespace string) (*wizard.Session, tenant.Resolution) {
	backend := a.Backend
	if namespace != "" {
		backend = planstore.Namespaced(backend, namespace)
	}
	return a.sessionOn(ctx, host, backend)
}

// ScratchSession is a session over a private in-memory store, for one-off
// quotes that must not touch the saved plan
func (a *App) ScratchSession(ctx context.Context, host string) (*wizard.Session, tenant.Resolution) {
	return a.sessionOn(ctx, host, planstore.NewMemoryBackend())
}

func (a *App) sessionOn(ctx context.Context, host string, backend planstore.Backend) (*wizard.Session, tenant.Resolution) {
	res := a.Resolver.Resolve(ctx, host)
	if res.Err != nil {
		log.Warn().Err(res.Err).Str("host", res.Host).Msg("Using default tenant")
	}
	sess := wizard.NewSession(planstore.New(backend), res.Branding,
		wizard.WithClassifier(a.Classifier),
		wizard.WithCalculator(a.Calculator),
		wizard.WithSubmitter(a.Submitter),
		wizard.WithPropertyBaseValue(a.Config.Property.BaseValue),
	)
	return sess, res
}

// Handler builds the HTTP API over this app's components
func (a *App) Handler(version string) http.Handler {
	return api.NewHandler(&api.Deps{
		Resolver:          a.Resolver,
		Backend:           a.Backend,
		Classifier:        a.Classifier,
		Calculator:        a.Calculator,
		Submitter:         a.Submitter,
		PropertyBaseValue: a.Config.Property.BaseValue,
		Version:           version,
	})
}

// Close stops the tenant watcher and closes the plan store
func (a *App) Close() error {
	var errs []error
	if a.cancelWatch != nil {
		a.cancelWatch()
		if fd, ok := a.Directory.(*tenant.FileDirectory); ok {
			fd.Wait()
		}
	}
	if err := a.Backend.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	return errors.Join(errs...)
}
