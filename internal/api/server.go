// Package api serves the wizard over HTTP. The tenant is resolved from the
// request Host and each visitor's plan is kept under a session cookie.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rgehrsitz/solarplan/internal/economics"
	"github.com/rgehrsitz/solarplan/internal/lead"
	"github.com/rgehrsitz/solarplan/internal/planstore"
	"github.com/rgehrsitz/solarplan/internal/tenant"
	"github.com/rgehrsitz/solarplan/internal/tier"
	"github.com/rgehrsitz/solarplan/internal/wizard"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Deps holds shared dependencies injected into handlers
type Deps struct {
	Resolver          *tenant.Resolver
	Backend           planstore.Backend
	Classifier        *tier.Classifier
	Calculator        *economics.Calculator
	Submitter         lead.Submitter
	PropertyBaseValue decimal.Decimal
	Version           string
	SecureCookies     bool
}

// Server holds the handlers' dependencies
type Server struct {
	deps *Deps
}

// NewHandler wires all routes onto a new ServeMux
func NewHandler(deps *Deps) http.Handler {
	if deps.Classifier == nil {
		deps.Classifier = tier.NewClassifier(nil)
	}
	if deps.Calculator == nil {
		deps.Calculator = economics.NewCalculator()
	}
	if deps.Submitter == nil {
		deps.Submitter = lead.LogSubmitter{}
	}
	s := &Server{deps: deps}

	mux := http.NewServeMux()
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, instrument(pattern, h))
	}

	handle("GET /healthz", s.handleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	handle("GET /api/branding", s.handleBranding)
	handle("GET /api/tier", s.handleTier)
	handle("GET /api/plan", s.handleGetPlan)
	handle("POST /api/plan", s.handleStartPlan)
	handle("PUT /api/plan", s.handlePutPlan)
	handle("DELETE /api/plan", s.handleDeletePlan)
	handle("PATCH /api/plan/user-info", s.handlePatchUserInfo)
	handle("POST /api/plan/submit", s.handleSubmit)

	return requestLogger(mux)
}

// session builds the wizard session for this request's tenant and visitor
func (s *Server) session(w http.ResponseWriter, r *http.Request) *wizard.Session {
	res := s.deps.Resolver.Resolve(r.Context(), r.Host)
	sid := s.sessionID(w, r)
	store := planstore.New(planstore.Namespaced(s.deps.Backend, sid))
	return wizard.NewSession(store, res.Branding,
		wizard.WithClassifier(s.deps.Classifier),
		wizard.WithCalculator(s.deps.Calculator),
		wizard.WithSubmitter(s.deps.Submitter),
		wizard.WithPropertyBaseValue(s.deps.PropertyBaseValue),
	)
}

// Run serves handler on addr until ctx is cancelled, then shuts down
// gracefully.
func Run(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
		return err
	}
	log.Info().Msg("API stopped")
	return nil
}
