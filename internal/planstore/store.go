// Package planstore persists a session's plan record and contact summary.
//
// Store methods never return errors: failures are logged, counted, and
// reported as false or nil, with the cause available from LastError.
package planstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rgehrsitz/solarplan/internal/domain"
	"github.com/rgehrsitz/solarplan/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Storage keys
const (
	PlanKey    = "solar_plan_data"
	ContactKey = "user_contact_info"
)

var (
	// ErrNewerVersion means the stored plan was written by a newer schema
	ErrNewerVersion = errors.New("plan record written by a newer version")
	// ErrNoPlan means an update found no stored plan
	ErrNoPlan = errors.New("no plan record to update")
	// ErrUnreadable means the stored plan is not a valid plan record
	ErrUnreadable = errors.New("unreadable plan record")
)

// Replaceable reports whether a failed Load left a stored plan that a new
// plan may overwrite: one that cannot be decoded or that a newer version
// wrote. The revision is kept, so the next Save replaces it.
func Replaceable(err error) bool {
	return errors.Is(err, ErrUnreadable) || errors.Is(err, ErrNewerVersion)
}

// Store reads and writes one session's plan. It is not safe for concurrent
// use; give each session its own Store over a shared Backend.
type Store struct {
	backend Backend
	now     func() time.Time

	rev     int64
	lastErr error
}

// Option configures a Store
type Option func(*Store)

// WithClock replaces time.Now, used to stamp submissions
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a store over backend
func New(backend Backend, opts ...Option) *Store {
	s := &Store{backend: backend, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LastError returns the cause of the most recent failed operation, or nil
// if it succeeded
func (s *Store) LastError() error {
	return s.lastErr
}

// Revision is the plan revision this store last read or wrote; 0 when none
func (s *Store) Revision() int64 {
	return s.rev
}

// Backend returns the underlying backend
func (s *Store) Backend() Backend {
	return s.backend
}

func (s *Store) record(op string, err error) {
	s.lastErr = err
	metrics.StoreOperations.WithLabelValues(op, metrics.Result(err == nil)).Inc()
	if err != nil {
		log.Warn().Err(err).Str("op", op).Msg("Plan store operation failed")
	}
}

// Load returns the stored plan, or nil when there is none, it cannot be
// decoded, or it was written by a newer version
func (s *Store) Load(ctx context.Context) *domain.PlanRecord {
	data, rev, err := s.backend.Get(ctx, PlanKey)
	if errors.Is(err, ErrNotFound) {
		s.rev = rev
		s.record("load", nil)
		return nil
	}
	if err != nil {
		s.record("load", err)
		return nil
	}

	// Remember the revision even when the record is unusable so a
	// following Save replaces it instead of conflicting.
	s.rev = rev

	var rec domain.PlanRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		s.record("load", fmt.Errorf("decode plan: %w: %w", ErrUnreadable, err))
		return nil
	}
	if rec.Metadata.PlanVersion > domain.CurrentPlanVersion {
		s.record("load", fmt.Errorf("%w: version %d, current %d", ErrNewerVersion, rec.Metadata.PlanVersion, domain.CurrentPlanVersion))
		return nil
	}

	s.record("load", nil)
	return &rec
}

// Save writes the plan if nobody else has written it since this store last
// read or wrote it. A conflict returns false with LastError ErrConflict.
func (s *Store) Save(ctx context.Context, rec *domain.PlanRecord) bool {
	if rec == nil {
		s.record("save", errors.New("nil plan record"))
		return false
	}
	data, err := json.Marshal(rec)
	if err != nil {
		s.record("save", fmt.Errorf("encode plan: %w", err))
		return false
	}

	rev, err := s.backend.Put(ctx, PlanKey, data, s.rev)
	if err != nil {
		s.record("save", err)
		return false
	}
	s.rev = rev
	s.record("save", nil)
	return true
}

// Clear removes the plan and the contact summary. The plan's revision keeps
// counting, so a session that read the plan before the clear cannot write
// it back.
func (s *Store) Clear(ctx context.Context) bool {
	rev, planErr := s.backend.Delete(ctx, PlanKey)
	_, contactErr := s.backend.Delete(ctx, ContactKey)
	err := errors.Join(planErr, contactErr)
	if planErr == nil {
		s.rev = rev
	}
	s.record("clear", err)
	return err == nil
}

// PatchUserInfo merges the non-empty fields of info into the stored plan,
// stamps submittedAt with the current time and writes the contact summary.
// It returns false when there is no stored plan. If the contact summary
// cannot be written the plan's previous userInfo is restored.
func (s *Store) PatchUserInfo(ctx context.Context, info domain.UserInfo) bool {
	rec := s.Load(ctx)
	if rec == nil {
		if s.lastErr == nil {
			s.record("patch_user_info", ErrNoPlan)
		}
		return false
	}

	previous := rec.UserInfo
	merged := domain.UserInfo{}
	if previous != nil {
		merged = *previous
	}
	if info.FullName != "" {
		merged.FullName = info.FullName
	}
	if info.Email != "" {
		merged.Email = info.Email
	}
	if info.AgreeToTerms {
		merged.AgreeToTerms = true
	}
	merged.SubmittedAt = s.now().UTC()
	rec.UserInfo = &merged

	if !s.Save(ctx, rec) {
		return false
	}

	contact := domain.ContactInfo{
		FullName:    merged.FullName,
		Email:       merged.Email,
		SubmittedAt: merged.SubmittedAt,
	}
	if err := s.putLatest(ctx, ContactKey, contact); err != nil {
		rec.UserInfo = previous
		if !s.Save(ctx, rec) {
			log.Error().Err(s.lastErr).Msg("Could not restore plan after contact write failed")
		}
		s.record("patch_user_info", err)
		return false
	}
	s.record("patch_user_info", nil)
	return true
}

// LoadContact returns the stored contact summary, or nil
func (s *Store) LoadContact(ctx context.Context) *domain.ContactInfo {
	data, _, err := s.backend.Get(ctx, ContactKey)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.record("load_contact", err)
		}
		return nil
	}
	var c domain.ContactInfo
	if err := json.Unmarshal(data, &c); err != nil {
		s.record("load_contact", fmt.Errorf("decode contact: %w", err))
		return nil
	}
	return &c
}

// putLatest overwrites a key regardless of its revision, retrying if
// another writer slips in between the read and the write
func (s *Store) putLatest(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	for attempt := 0; attempt < 3; attempt++ {
		_, rev, err := s.backend.Get(ctx, key)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		_, err = s.backend.Put(ctx, key, data, rev)
		if !errors.Is(err, ErrConflict) {
			return err
		}
	}
	return fmt.Errorf("write %s: %w", key, ErrConflict)
}
