package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rgehrsitz/solarplan/internal/domain"
	"github.com/rgehrsitz/solarplan/internal/lead"
	"github.com/rgehrsitz/solarplan/internal/logging"
	"github.com/rgehrsitz/solarplan/internal/metrics"
	"github.com/rgehrsitz/solarplan/internal/planstore"
	"github.com/rgehrsitz/solarplan/internal/wizard"
	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 20

// APIError is the body of every error response
type APIError struct {
	ErrorMessage string `json:"error"`
	Code         string `json:"code"`
	StatusCode   int    `json:"status_code"`
}

type brandingResponse struct {
	Branding *domain.TenantBranding `json:"branding"`
	Fallback bool                   `json:"fallback"`
}

type tierResponse struct {
	Address   string            `json:"address"`
	County    string            `json:"county,omitempty"`
	Tier      *domain.TierEntry `json:"tier"`
	Defaulted bool              `json:"defaulted"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": s.deps.Version})
}

func (s *Server) handleBranding(w http.ResponseWriter, r *http.Request) {
	res := s.deps.Resolver.Resolve(r.Context(), r.Host)
	writeJSON(w, http.StatusOK, brandingResponse{Branding: res.Branding, Fallback: res.Fallback()})
}

func (s *Server) handleTier(w http.ResponseWriter, r *http.Request) {
	address := strings.TrimSpace(r.URL.Query().Get("address"))
	if address == "" {
		writeError(w, http.StatusBadRequest, "missing_address", "address query parameter is required")
		return
	}
	entry, county, defaulted := s.deps.Classifier.ClassifyOrDefault(address)
	label := "default"
	if !defaulted && entry != nil {
		label = entry.Name
	}
	metrics.TierClassifications.WithLabelValues(label).Inc()
	writeJSON(w, http.StatusOK, tierResponse{Address: address, County: county, Tier: entry, Defaulted: defaulted})
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	rec := sess.Current(r.Context())
	if rec == nil {
		if err := sess.Store().LastError(); err != nil && !planstore.Replaceable(err) {
			s.writeStepError(w, r, fmt.Errorf("%w: %w", wizard.ErrSaveFailed, err))
			return
		}
		writeError(w, http.StatusNotFound, "no_plan", wizard.ErrNoPlan.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleStartPlan(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	rec, err := sess.Start(r.Context())
	if err != nil {
		s.writeStepError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handlePutPlan(w http.ResponseWriter, r *http.Request) {
	var upd wizard.Update
	if !decodeBody(w, r, &upd) {
		return
	}
	rec, err := s.session(w, r).Apply(r.Context(), upd)
	if err != nil {
		s.writeStepError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if !sess.Store().Clear(r.Context()) {
		s.writeStepError(w, r, fmt.Errorf("%w: %w", wizard.ErrSaveFailed, sess.Store().LastError()))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePatchUserInfo(w http.ResponseWriter, r *http.Request) {
	var info domain.UserInfo
	if !decodeBody(w, r, &info) {
		return
	}
	sess := s.session(w, r)
	store := sess.Store()
	if !store.PatchUserInfo(r.Context(), info) {
		err := store.LastError()
		if errors.Is(err, planstore.ErrNoPlan) {
			writeError(w, http.StatusNotFound, "no_plan", wizard.ErrNoPlan.Error())
			return
		}
		s.writeStepError(w, r, fmt.Errorf("%w: %w", wizard.ErrSaveFailed, err))
		return
	}
	writeJSON(w, http.StatusOK, store.Load(r.Context()))
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var details lead.LeadDetails
	if !decodeBody(w, r, &details) {
		return
	}
	sess := s.session(w, r)
	if err := sess.Submit(r.Context(), details); err != nil {
		s.writeStepError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "submitted"})
}

// writeStepError maps wizard errors to responses. Internal causes are
// logged, not returned.
func (s *Server) writeStepError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, wizard.ErrInvalidInput), errors.Is(err, lead.ErrInvalidLead):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, wizard.ErrNoPlan):
		writeError(w, http.StatusNotFound, "no_plan", err.Error())
	case errors.Is(err, planstore.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", "plan was changed by another request; reload and retry")
	case errors.Is(err, wizard.ErrSubmitFailed):
		logging.FromContext(r.Context()).Error().Err(err).Msg("Lead submission failed")
		writeError(w, http.StatusBadGateway, "submit_failed", "lead could not be delivered")
	default:
		logging.FromContext(r.Context()).Error().Err(err).Msg("Plan step failed")
		writeError(w, http.StatusInternalServerError, "internal", "plan could not be saved")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON[T any](w http.ResponseWriter, status int, v T) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Int("status", status).Msg("Encode response")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, APIError{ErrorMessage: message, Code: code, StatusCode: status})
}
