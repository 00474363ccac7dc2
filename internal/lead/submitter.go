package lead

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rgehrsitz/solarplan/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Submitter delivers a lead
type Submitter interface {
	Submit(ctx context.Context, p Payload) error
}

// StatusError is returned for a non-2xx response
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("lead endpoint returned status %d", e.StatusCode)
}

// HTTPSubmitter POSTs the payload as JSON with the payload's
// Idempotency-Key, so the receiver can drop duplicate deliveries of one
// signup. A payload without a key gets a fresh one.
type HTTPSubmitter struct {
	endpoint string
	client   *http.Client
	newKey   func() string
}

// NewHTTPSubmitter creates a submitter for endpoint. A nil client gets a
// 15 second timeout.
func NewHTTPSubmitter(endpoint string, client *http.Client) *HTTPSubmitter {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPSubmitter{
		endpoint: endpoint,
		client:   client,
		newKey:   func() string { return ulid.Make().String() },
	}
}

// Submit implements Submitter. The response body is discarded.
func (s *HTTPSubmitter) Submit(ctx context.Context, p Payload) error {
	err := s.submit(ctx, p)
	metrics.LeadSubmissions.WithLabelValues(metrics.Result(err == nil)).Inc()
	return err
}

func (s *HTTPSubmitter) submit(ctx context.Context, p Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode lead: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build lead request: %w", err)
	}
	key := p.IdempotencyKey
	if key == "" {
		key = s.newKey()
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", key)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("submit lead: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode}
	}

	log.Info().Str("idempotency_key", key).Str("email", p.Email).Msg("Lead submitted")
	return nil
}

// LogSubmitter records leads in the log instead of sending them. It is used
// when no lead endpoint is configured.
type LogSubmitter struct{}

// Submit implements Submitter
func (LogSubmitter) Submit(_ context.Context, p Payload) error {
	metrics.LeadSubmissions.WithLabelValues("logged").Inc()
	log.Info().
		Str("email", p.Email).
		Str("address", p.SelectedLocation.Address).
		Str("final_price", p.FinanceInfo.FinalPrice.String()).
		Msg("Lead captured (no endpoint configured)")
	return nil
}
