package tenant

import (
	"net"
	"strings"

	"github.com/IGLOU-EU/go-wildcard/v2"
	"github.com/rgehrsitz/solarplan/internal/domain"
)

// NormalizeHost lowercases a hostname and strips any port and trailing dot
func NormalizeHost(host string) string {
	h := strings.ToLower(strings.TrimSpace(host))
	if h == "" {
		return ""
	}
	if hostOnly, _, err := net.SplitHostPort(h); err == nil {
		h = hostOnly
	}
	h = strings.TrimPrefix(strings.TrimSuffix(h, "]"), "[")
	return strings.TrimSuffix(h, ".")
}

func isPattern(s string) bool {
	return strings.ContainsAny(s, "*?")
}

// MatchHost reports whether a tenant host entry matches a normalised host.
// Patterns match label by label, so "*.example.ie" matches
// "quote.example.ie" but not "a.b.example.ie".
func MatchHost(pattern, host string) bool {
	pattern = NormalizeHost(pattern)
	if pattern == "" || host == "" {
		return false
	}
	if !isPattern(pattern) {
		return pattern == host
	}
	pl := strings.Split(pattern, ".")
	hl := strings.Split(host, ".")
	if len(pl) != len(hl) {
		return false
	}
	for i := range pl {
		if !wildcard.Match(pl[i], hl[i]) {
			return false
		}
	}
	return true
}

// MatchTenants picks the tenant for a host. An exact host entry on any
// tenant wins; otherwise the first tenant, in order, with a matching
// pattern. At most one tenant is returned.
func MatchTenants(tenants []domain.TenantBranding, host string) (*domain.TenantBranding, bool) {
	host = NormalizeHost(host)
	if host == "" {
		return nil, false
	}
	for i := range tenants {
		for _, h := range tenants[i].Hosts {
			if !isPattern(h) && NormalizeHost(h) == host {
				return &tenants[i], true
			}
		}
	}
	for i := range tenants {
		for _, h := range tenants[i].Hosts {
			if isPattern(h) && MatchHost(h, host) {
				return &tenants[i], true
			}
		}
	}
	return nil, false
}
