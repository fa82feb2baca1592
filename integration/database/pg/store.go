package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/certsmith/core/record"
)

// Store persists issuance records in PostgreSQL. It participates in an
// ambient transaction when one is attached to the context via WithTx.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore returns a Store backed by the pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const insertRecordSQL = `
	INSERT INTO certificates (
		id, user_id, domain, contact_email, cloudflare_email,
		status, private_key, certificate, ca_certificate, error_message, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

// Save persists a terminal record. Records are insert-only: an issuance
// attempt writes exactly one row and never revisits it.
func (s *Store) Save(ctx context.Context, rec record.Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	args := []any{
		rec.ID, rec.UserID, rec.Domain, rec.ContactEmail, rec.CloudflareEmail,
		rec.Status, rec.PrivateKeyPEM, rec.CertificatePEM, rec.CACertificatePEM,
		rec.ErrorMessage, rec.CreatedAt,
	}

	var err error
	if tx, ok := TxFromContext(ctx); ok {
		_, err = tx.Exec(ctx, insertRecordSQL, args...)
	} else {
		_, err = s.pool.Exec(ctx, insertRecordSQL, args...)
	}
	if err != nil {
		return fmt.Errorf("insert certificate record: %w", err)
	}
	return nil
}

const selectRecordSQL = `
	SELECT id, user_id, domain, contact_email, cloudflare_email,
	       status, private_key, certificate, ca_certificate, error_message, created_at
	FROM certificates`

// Get returns a record by ID, scoped to the owner when userID is non-nil.
// Anonymous records are only reachable without a user scope.
func (s *Store) Get(ctx context.Context, id uuid.UUID, userID *uuid.UUID) (*record.Record, error) {
	query := selectRecordSQL + ` WHERE id = $1`
	args := []any{id}
	if userID != nil {
		query += ` AND user_id = $2`
		args = append(args, *userID)
	}

	row := s.row(ctx, query, args...)
	rec, err := scanRecord(row)
	if err != nil {
		if IsNotFoundError(err) {
			return nil, record.ErrNotFound
		}
		return nil, fmt.Errorf("get certificate record: %w", err)
	}
	return rec, nil
}

// ListByUser returns the user's records, newest first.
func (s *Store) ListByUser(ctx context.Context, userID uuid.UUID) ([]record.Record, error) {
	query := selectRecordSQL + ` WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := s.query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list certificate records: %w", err)
	}
	defer rows.Close()

	var out []record.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan certificate record: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list certificate records: %w", err)
	}
	return out, nil
}

func (s *Store) row(ctx context.Context, query string, args ...any) pgx.Row {
	if tx, ok := TxFromContext(ctx); ok {
		return tx.QueryRow(ctx, query, args...)
	}
	return s.pool.QueryRow(ctx, query, args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	if tx, ok := TxFromContext(ctx); ok {
		return tx.Query(ctx, query, args...)
	}
	return s.pool.Query(ctx, query, args...)
}

func scanRecord(row pgx.Row) (*record.Record, error) {
	var rec record.Record
	err := row.Scan(
		&rec.ID, &rec.UserID, &rec.Domain, &rec.ContactEmail, &rec.CloudflareEmail,
		&rec.Status, &rec.PrivateKeyPEM, &rec.CertificatePEM, &rec.CACertificatePEM,
		&rec.ErrorMessage, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
