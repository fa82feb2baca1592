// Package record defines the persisted outcome of a certificate issuance
// attempt and the storage boundary it crosses.
//
// A Record is constructed exactly once, when an attempt reaches a terminal
// state, and handed to a Store implementation. The issuance workflow never
// re-opens or mutates a saved record; retrying a domain produces a brand-new
// record with a fresh identifier.
//
// The Store interface is intentionally small so callers can back it with any
// relational store. See integration/database/pg for the pgx implementation.
package record
