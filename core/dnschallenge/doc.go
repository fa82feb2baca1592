// Package dnschallenge provisions the TXT records that satisfy ACME DNS-01
// challenges and guarantees their removal.
//
// Provision creates one record per authorization at
// _acme-challenge.<domain>, resolving the owning zone per authorization so
// that a wildcard and its bare root each get their own record even when both
// live in the same zone. Creation fans out across a small bounded worker
// pool; any single failure fails the call, but records created up to that
// point are retained in the returned set so the caller can still tear them
// down.
//
// TearDown deletes every record in a set exactly once. A failed deletion is
// logged with its zone and record identifiers and skipped; the remaining
// records are still processed. Calling TearDown again, or on an empty or
// partially populated set, is safe.
package dnschallenge
