package tenant

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rgehrsitz/solarplan/internal/domain"
)

// HTTPDirectory asks a remote tenant service for the bundle of a host:
// GET <base>/tenants/by-host/<host>. 404 means no tenant.
type HTTPDirectory struct {
	baseURL string
	client  *http.Client
}

// NewHTTPDirectory creates a directory backed by the tenant service at baseURL.
// A nil client gets a 10 second timeout.
func NewHTTPDirectory(baseURL string, client *http.Client) *HTTPDirectory {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPDirectory{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
	}
}

// Lookup implements Directory
func (d *HTTPDirectory) Lookup(ctx context.Context, host string) (*domain.TenantBranding, error) {
	endpoint := d.baseURL + "/tenants/by-host/" + url.PathEscape(host)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request tenant service: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrTenantNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("tenant service returned status %d", resp.StatusCode)
	}

	var b domain.TenantBranding
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&b); err != nil {
		return nil, fmt.Errorf("decode tenant bundle: %w", err)
	}
	return &b, nil
}
