package tenant

import (
	"errors"
	"fmt"
)

var (
	// ErrTenantNotFound means no tenant claims the hostname
	ErrTenantNotFound = errors.New("tenant not found")
	// ErrLookupFailed means the directory could not be queried
	ErrLookupFailed = errors.New("tenant lookup failed")
	// ErrInvalidBranding means the directory returned an unusable bundle
	ErrInvalidBranding = errors.New("invalid tenant branding")
)

// ResolutionError records which host failed to resolve and why
type ResolutionError struct {
	Host string
	Err  error
}

func (e *ResolutionError) Error() string {
	if e.Host == "" {
		return fmt.Sprintf("resolve tenant: %v", e.Err)
	}
	return fmt.Sprintf("resolve tenant for host %q: %v", e.Host, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}
