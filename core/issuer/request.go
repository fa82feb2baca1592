package issuer

import (
	"fmt"
	"regexp"
	"strings"
)

// Request describes one certificate issuance attempt. Immutable once
// submitted.
type Request struct {
	// Domain is the literal requested domain, optionally carrying a
	// wildcard marker ("*.example.com").
	Domain string

	// ContactEmail is registered with the ACME account.
	ContactEmail string

	// Cloudflare account credentials used for DNS-01 record provisioning.
	CloudflareEmail  string
	CloudflareAPIKey string
}

// emailRegex is a simple regex for validating email addresses.
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Validate rejects malformed requests before any external call happens.
func (r Request) Validate() error {
	domain := strings.TrimSpace(r.Domain)
	switch {
	case domain == "":
		return fmt.Errorf("%w: domain is required", ErrInvalidRequest)
	case strings.ContainsAny(domain, " \t"):
		return fmt.Errorf("%w: domain %q contains whitespace", ErrInvalidRequest, domain)
	case !strings.Contains(strings.TrimPrefix(domain, "*."), "."):
		return fmt.Errorf("%w: domain %q is not a fully qualified name", ErrInvalidRequest, domain)
	case strings.Contains(strings.TrimPrefix(domain, "*."), "*"):
		return fmt.Errorf("%w: wildcard marker is only allowed as the leftmost label", ErrInvalidRequest)
	}

	if !emailRegex.MatchString(r.ContactEmail) {
		return fmt.Errorf("%w: contact email %q is not a valid address", ErrInvalidRequest, r.ContactEmail)
	}
	if strings.TrimSpace(r.CloudflareEmail) == "" || strings.TrimSpace(r.CloudflareAPIKey) == "" {
		return fmt.Errorf("%w: cloudflare credentials are required", ErrInvalidRequest)
	}
	return nil
}

// Wildcard reports whether the requested domain carries a wildcard marker.
func (r Request) Wildcard() bool {
	return strings.HasPrefix(r.Domain, "*.")
}

// SubjectAltNames builds the SAN set for a requested domain: the literal
// domain itself, plus the bare root when the domain is a wildcard, so one
// wildcard order also covers the root.
func SubjectAltNames(domain string) []string {
	if root, ok := strings.CutPrefix(domain, "*."); ok {
		return []string{domain, root}
	}
	return []string{domain}
}
