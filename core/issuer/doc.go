// Package issuer drives one ACME certificate issuance attempt end to end:
// key and CSR generation, account registration, order creation, DNS-01
// challenge provisioning, a single propagation wait, challenge answering,
// and order finalization — with guaranteed teardown of every DNS record the
// attempt created, on every exit path including cancellation.
//
// The ACME wire protocol (JWS signing, nonces, polling) is consumed through
// the ACMEClient interface, backed by golang.org/x/crypto/acme in
// production and by stubs in tests. DNS provisioning is delegated to a
// Coordinator obtained per request from a CoordinatorFactory, so the issuer
// itself stays provider-agnostic.
//
// An Issuer is not idempotent across retries of the same domain: every
// attempt registers a fresh ACME account and order. Deduplication, if
// needed, belongs to the caller.
//
// Known limitation: concurrent attempts for the same domain race on the
// shared _acme-challenge.<domain> record name at the DNS provider. The
// issuer does not serialize against this; callers running parallel attempts
// for one domain must coordinate themselves.
package issuer
