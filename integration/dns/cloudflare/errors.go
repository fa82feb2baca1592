package cloudflare

import "errors"

var (
	// ErrMissingCredentials is returned when the account email or API key is empty.
	ErrMissingCredentials = errors.New("cloudflare credentials are required")

	// ErrZoneNotFound is returned when no zone matches the registrable root of a domain.
	ErrZoneNotFound = errors.New("cloudflare zone not found")

	// ErrRequestFailed is returned when the API reports a failure or the
	// request cannot be completed. The wrapped detail carries the provider's
	// error payload verbatim.
	ErrRequestFailed = errors.New("cloudflare api request failed")
)
