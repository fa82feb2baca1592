package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/certsmith/core/issuer"
	"github.com/dmitrymomot/certsmith/core/notification"
	"github.com/dmitrymomot/certsmith/core/record"
	"github.com/dmitrymomot/certsmith/pkg/async"
	"github.com/dmitrymomot/certsmith/pkg/logger"
)

// Issuer is the consumed issuance capability. *issuer.Issuer satisfies it.
type Issuer interface {
	Issue(ctx context.Context, req issuer.Request) (*issuer.Artifacts, error)
}

// IssueParams carries one certificate request through the workflow.
type IssueParams struct {
	// UserID is nil for anonymous requests.
	UserID *uuid.UUID

	Domain           string
	ContactEmail     string
	CloudflareEmail  string
	CloudflareAPIKey string
}

// Service runs the certificate issuance workflow.
type Service struct {
	issuer   Issuer
	store    record.Store
	notifier notification.Notifier
	log      *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithNotifier enables outcome emails. Without it the workflow persists
// records but sends nothing.
func WithNotifier(n notification.Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// New returns a Service over the given issuer and record store.
func New(iss Issuer, store record.Store, opts ...Option) (*Service, error) {
	if iss == nil {
		return nil, errors.New("service: issuer is required")
	}
	if store == nil {
		return nil, errors.New("service: record store is required")
	}

	s := &Service{
		issuer: iss,
		store:  store,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// IssueCertificate runs one issuance attempt and persists its terminal
// record. The returned record reflects the outcome; the error is the
// classified issuance error, or a persistence error when the attempt
// succeeded but its record could not be written.
func (s *Service) IssueCertificate(ctx context.Context, params IssueParams) (*record.Record, error) {
	started := time.Now()
	req := issuer.Request{
		Domain:           params.Domain,
		ContactEmail:     params.ContactEmail,
		CloudflareEmail:  params.CloudflareEmail,
		CloudflareAPIKey: params.CloudflareAPIKey,
	}

	artifacts, issueErr := s.issuer.Issue(ctx, req)

	rec := record.Record{
		ID:              uuid.New(),
		UserID:          params.UserID,
		Domain:          params.Domain,
		ContactEmail:    params.ContactEmail,
		CloudflareEmail: params.CloudflareEmail,
		CreatedAt:       time.Now().UTC(),
	}
	if issueErr != nil {
		rec.Status = record.StatusFailed
		rec.ErrorMessage = issueErr.Error()
	} else {
		rec.Status = record.StatusSucceeded
		rec.PrivateKeyPEM = string(artifacts.PrivateKeyPEM)
		rec.CertificatePEM = string(artifacts.CertificateChainPEM)
		rec.CACertificatePEM = string(artifacts.CAChainPEM)
	}

	// The record is written even when the caller has gone away: losing a
	// successfully issued certificate to a disconnect would be worse than
	// the stale row a failed one leaves behind.
	if err := s.store.Save(context.WithoutCancel(ctx), rec); err != nil {
		s.log.ErrorContext(ctx, "failed to persist certificate record",
			logger.Domain(params.Domain),
			logger.Result(string(rec.Status)),
			logger.Error(err),
		)
		if issueErr == nil {
			return &rec, fmt.Errorf("certificate issued but record not persisted: %w", err)
		}
	}

	s.notifyOutcome(ctx, rec, issueErr)

	s.log.InfoContext(ctx, "issuance attempt finished",
		logger.Domain(params.Domain),
		logger.Result(string(rec.Status)),
		logger.Elapsed(started),
	)
	return &rec, issueErr
}

// GetRecord fetches one record scoped to the requesting user.
func (s *Service) GetRecord(ctx context.Context, id uuid.UUID, userID *uuid.UUID) (*record.Record, error) {
	return s.store.Get(ctx, id, userID)
}

// ListRecords returns the user's issuance history, newest first.
func (s *Service) ListRecords(ctx context.Context, userID uuid.UUID) ([]record.Record, error) {
	return s.store.ListByUser(ctx, userID)
}

// notifyOutcome sends the outcome email without blocking the caller. The
// send runs on a detached context so a finished request cannot cancel it.
func (s *Service) notifyOutcome(ctx context.Context, rec record.Record, issueErr error) {
	if s.notifier == nil {
		return
	}

	var msg notification.Message
	if issueErr != nil {
		msg = notification.IssuanceFailed(rec.ContactEmail, rec.Domain, issueErr.Error())
	} else {
		msg = notification.IssuanceSucceeded(rec.ContactEmail, rec.Domain)
	}

	async.Exec(context.WithoutCancel(ctx), msg, func(ctx context.Context, m notification.Message) error {
		if err := s.notifier.Send(ctx, m); err != nil {
			s.log.WarnContext(ctx, "outcome notification not delivered",
				logger.Domain(rec.Domain),
				logger.Error(err),
			)
			return err
		}
		return nil
	})
}
