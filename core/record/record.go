package record

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Status is the terminal (or initial) state of an issuance attempt.
type Status string

const (
	// StatusPending marks an attempt that has not reached a terminal state.
	// Persisted records never carry it; it exists for in-memory bookkeeping.
	StatusPending Status = "pending"

	// StatusSucceeded marks an attempt that produced a certificate chain.
	StatusSucceeded Status = "succeeded"

	// StatusFailed marks an attempt that terminated with an error.
	StatusFailed Status = "failed"
)

// Record is the audit/result entity written once per issuance attempt.
type Record struct {
	ID uuid.UUID

	// UserID is nil when the attempt was made anonymously.
	UserID *uuid.UUID

	Domain          string
	ContactEmail    string
	CloudflareEmail string

	Status Status

	// PEM-encoded artifacts. Empty on failed attempts.
	PrivateKeyPEM    string
	CertificatePEM   string // full chain: leaf plus issuer certificates
	CACertificatePEM string // issuer certificates only; empty for truncated chains

	ErrorMessage string

	CreatedAt time.Time
}

// Store is the persistence boundary for issuance records. The issuance
// workflow constructs records and hands them off; it never opens its own
// storage connection.
type Store interface {
	// Save persists a terminal record. Records are insert-only.
	Save(ctx context.Context, rec Record) error

	// Get returns a record by ID. When userID is non-nil the record must
	// belong to that user; ownership mismatches surface as ErrNotFound.
	Get(ctx context.Context, id uuid.UUID, userID *uuid.UUID) (*Record, error)

	// ListByUser returns the user's records, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Record, error)
}
