package issuer

import "errors"

var (
	// ErrInvalidRequest is returned for missing or malformed request fields,
	// before any external call is made. Never retried.
	ErrInvalidRequest = errors.New("invalid issuance request")

	// ErrACMEProtocol covers directory, registration, order, challenge
	// answering and finalization failures reported by the ACME server.
	ErrACMEProtocol = errors.New("acme protocol failure")

	// ErrChallengeNotFound is returned when an authorization offers no
	// DNS-01 challenge. Fatal for the attempt; never retried.
	ErrChallengeNotFound = errors.New("no dns-01 challenge offered")

	// ErrDNSProvider covers zone lookup and record creation failures at the
	// DNS provider. Record deletion failures are logged, not surfaced.
	ErrDNSProvider = errors.New("dns provider failure")

	// ErrFinalizeTimeout is returned when order finalization polling
	// exceeds its bound.
	ErrFinalizeTimeout = errors.New("order finalization timed out")
)
