package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rgehrsitz/solarplan/internal/domain"
	"github.com/rgehrsitz/solarplan/internal/lead"
	"github.com/rgehrsitz/solarplan/internal/planstore"
	"github.com/rgehrsitz/solarplan/internal/tenant"
	"github.com/rgehrsitz/solarplan/internal/tier"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSubmitter struct {
	mu       sync.Mutex
	payloads []lead.Payload
	err      error
}

func (r *recordingSubmitter) Submit(_ context.Context, p lead.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payloads = append(r.payloads, p)
	return r.err
}

func greenroof() domain.TenantBranding {
	b := tenant.DefaultBranding()
	b.Slug = "greenroof"
	b.Name = "GreenRoof Energy"
	b.Hosts = []string{"*.greenroof.ie"}
	return *b
}

type client struct {
	t       *testing.T
	h       http.Handler
	host    string
	cookies []*http.Cookie
}

func newTestAPI(t *testing.T, sub lead.Submitter) http.Handler {
	t.Helper()
	return NewHandler(&Deps{
		Resolver:          tenant.NewResolver(tenant.NewStaticDirectory(*tenant.DefaultBranding(), greenroof())),
		Backend:           planstore.NewMemoryBackend(),
		Classifier:        tier.NewClassifier(nil),
		Submitter:         sub,
		PropertyBaseValue: decimal.NewFromInt(300000),
		Version:           "test",
	})
}

func (c *client) do(method, path, body string) *httptest.ResponseRecorder {
	c.t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if c.host != "" {
		req.Host = c.host
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)
	if cks := rec.Result().Cookies(); len(cks) > 0 {
		c.cookies = cks
	}
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	c := &client{t: t, h: newTestAPI(t, nil)}
	rec := c.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", decode[map[string]string](t, rec)["version"])
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestBranding(t *testing.T) {
	h := newTestAPI(t, nil)

	rec := (&client{t: t, h: h, host: "Quotes.GreenRoof.ie:443"}).do(http.MethodGet, "/api/branding", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[brandingResponse](t, rec)
	assert.Equal(t, "greenroof", got.Branding.Slug)
	assert.False(t, got.Fallback)

	rec = (&client{t: t, h: h, host: "unknown.example.com"}).do(http.MethodGet, "/api/branding", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got = decode[brandingResponse](t, rec)
	assert.Equal(t, tenant.DefaultSlug, got.Branding.Slug)
	assert.True(t, got.Fallback)
}

func TestTier(t *testing.T) {
	c := &client{t: t, h: newTestAPI(t, nil)}

	rec := c.do(http.MethodGet, "/api/tier?address=14+Oak+Grove,+Galway", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[tierResponse](t, rec)
	assert.Equal(t, "Galway", got.County)
	assert.Equal(t, tier.Tier1CompetitiveUrban, got.Tier.Name)
	assert.False(t, got.Defaulted)

	got = decode[tierResponse](t, c.do(http.MethodGet, "/api/tier?address=Atlantis", ""))
	assert.True(t, got.Defaulted)
	assert.Equal(t, tier.DefaultTierName, got.Tier.Name)

	rec = c.do(http.MethodGet, "/api/tier", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing_address", decode[APIError](t, rec).Code)
}

func TestPlanLifecycle(t *testing.T) {
	sub := &recordingSubmitter{}
	h := newTestAPI(t, sub)
	c := &client{t: t, h: h, host: "quotes.greenroof.ie"}

	rec := c.do(http.MethodGet, "/api/plan", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotEmpty(t, c.cookies, "first visit issues a session cookie")
	assert.Equal(t, sessionCookie, c.cookies[0].Name)

	rec = c.do(http.MethodPost, "/api/plan", "")
	require.Equal(t, http.StatusOK, rec.Code)
	plan := decode[domain.PlanRecord](t, rec)
	assert.Equal(t, "greenroof", plan.Metadata.TenantSlug)
	assert.Equal(t, 12, plan.SystemConfiguration.PanelCount)

	rec = c.do(http.MethodPut, "/api/plan", `{
		"address": {"address": "14 Oak Grove, Galway", "lat": 53.27, "lng": -9.05},
		"propertyType": "terraced",
		"annualBill": 1800,
		"system": {"includeBattery": true}
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	plan = decode[domain.PlanRecord](t, rec)
	assert.Equal(t, plan.Metadata.PlanID, decode[domain.PlanRecord](t, c.do(http.MethodGet, "/api/plan", "")).Metadata.PlanID)
	assert.Equal(t, 10, plan.SystemConfiguration.PanelCount)
	assert.Equal(t, "Galway", plan.Location.County)
	assert.True(t, plan.Costs.FinalPrice.Equal(decimal.NewFromInt(9200)))
	assert.Contains(t, plan.Metadata.BusinessProposal, "GreenRoof Energy proposes")

	other := &client{t: t, h: h, host: "quotes.greenroof.ie"}
	assert.Equal(t, http.StatusNotFound, other.do(http.MethodGet, "/api/plan", "").Code, "plans are per session")

	rec = c.do(http.MethodPatch, "/api/plan/user-info", `{"fullName": "Aoife Byrne"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Aoife Byrne", decode[domain.PlanRecord](t, rec).UserInfo.FullName)

	rec = c.do(http.MethodPost, "/api/plan/submit", `{"name": "Aoife Byrne", "email": "aoife@example.ie", "consent": true}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	require.Len(t, sub.payloads, 1)
	assert.Equal(t, "aoife@example.ie", sub.payloads[0].Email)
	assert.Equal(t, "Galway", sub.payloads[0].SelectedLocation.County)

	assert.Equal(t, http.StatusNoContent, c.do(http.MethodDelete, "/api/plan", "").Code)
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, "/api/plan", "").Code)
}

func TestPutPlan_Recompute(t *testing.T) {
	c := &client{t: t, h: newTestAPI(t, nil)}
	rec := c.do(http.MethodPut, "/api/plan", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 12, decode[domain.PlanRecord](t, rec).SystemConfiguration.PanelCount)
}

func TestPutPlan_BadRequests(t *testing.T) {
	c := &client{t: t, h: newTestAPI(t, nil)}

	tests := map[string]struct {
		body string
		code string
	}{
		"malformed":      {`{"annualBill":`, "bad_json"},
		"unknown field":  {`{"roofColour": "red"}`, "bad_json"},
		"negative bill":  {`{"annualBill": -5}`, "invalid_input"},
		"zero panels":    {`{"system": {"panelCount": 0}}`, "invalid_input"},
		"unknown panel":  {`{"system": {"solarPanelId": "nope"}}`, "invalid_input"},
		"blank address":  {`{"address": {"address": "  "}}`, "invalid_input"},
		"backup no batt": {`{"system": {"backupCapability": true}}`, "invalid_input"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			rec := c.do(http.MethodPut, "/api/plan", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.code, decode[APIError](t, rec).Code)
		})
	}
}

func TestPutPlan_RejectedUpdateSavesNothing(t *testing.T) {
	c := &client{t: t, h: newTestAPI(t, nil)}
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/api/plan", "").Code)

	rec := c.do(http.MethodPut, "/api/plan", `{
		"address": {"address": "14 Oak Grove, Galway"},
		"annualBill": 1800,
		"system": {"solarPanelId": "nope"}
	}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	plan := decode[domain.PlanRecord](t, c.do(http.MethodGet, "/api/plan", ""))
	assert.Nil(t, plan.Location, "address from a rejected update is not kept")
	if plan.SystemSpecs != nil {
		assert.True(t, plan.SystemSpecs.AnnualBill.IsZero())
	}
}

func TestSubmit_Errors(t *testing.T) {
	sub := &recordingSubmitter{err: errors.New("crm down")}
	c := &client{t: t, h: newTestAPI(t, sub)}

	rec := c.do(http.MethodPost, "/api/plan/submit", `{"name": "A", "email": "a@example.ie"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, http.StatusNotFound, c.do(http.MethodPatch, "/api/plan/user-info", `{"fullName": "A"}`).Code)

	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/api/plan", "").Code)

	rec = c.do(http.MethodPost, "/api/plan/submit", `{"name": "A", "email": "not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(http.MethodPost, "/api/plan/submit", `{"name": "A", "email": "a@example.ie"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "submit_failed", decode[APIError](t, rec).Code)
	assert.NotContains(t, rec.Body.String(), "crm down")
}

func TestSessionCookieReplacedWhenInvalid(t *testing.T) {
	c := &client{t: t, h: newTestAPI(t, nil), cookies: []*http.Cookie{{Name: sessionCookie, Value: "../../etc"}}}
	c.do(http.MethodGet, "/api/plan", "")
	require.Len(t, c.cookies, 1)
	assert.NotEqual(t, "../../etc", c.cookies[0].Value)
	assert.True(t, c.cookies[0].HttpOnly)
}

func TestMetricsEndpoint(t *testing.T) {
	c := &client{t: t, h: newTestAPI(t, nil)}
	c.do(http.MethodGet, "/healthz", "")

	rec := c.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "solarplan_http_requests_total")
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, "127.0.0.1:0", http.NotFoundHandler()) }()
	cancel()
	assert.NoError(t, <-done)
}
