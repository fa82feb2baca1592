package dnschallenge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/certsmith/pkg/logger"
)

const (
	// challengePrefix is the well-known DNS-01 record name prefix.
	challengePrefix = "_acme-challenge."

	defaultTTL = 120

	// defaultMaxParallel caps the provisioning worker pool. Orders rarely
	// carry more than two authorizations (wildcard plus bare root).
	defaultMaxParallel = 4
)

// Authorization is the coordinator's view of one ACME authorization: the
// domain to validate and the TXT payload proving control over it.
type Authorization struct {
	// Domain is the bare authorization domain without a wildcard marker.
	Domain string

	// Payload is the computed DNS-01 validation value.
	Payload string
}

// Provider is the DNS provider capability the coordinator consumes.
type Provider interface {
	ResolveZone(ctx context.Context, domain string) (string, error)
	CreateTXTRecord(ctx context.Context, zoneID, name, content string, ttl int) (string, error)
	DeleteRecord(ctx context.Context, zoneID, recordID string) error
}

// Coordinator provisions and tears down DNS-01 challenge records through a
// Provider.
type Coordinator struct {
	provider    Provider
	log         *slog.Logger
	ttl         int
	maxParallel int
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(c *Coordinator) {
		if log != nil {
			c.log = log
		}
	}
}

// WithTTL overrides the TXT record TTL in seconds.
func WithTTL(ttl int) Option {
	return func(c *Coordinator) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithMaxParallel caps concurrent record creations.
func WithMaxParallel(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.maxParallel = n
		}
	}
}

// NewCoordinator returns a Coordinator backed by the given provider.
func NewCoordinator(provider Provider, opts ...Option) *Coordinator {
	c := &Coordinator{
		provider:    provider,
		log:         slog.Default(),
		ttl:         defaultTTL,
		maxParallel: defaultMaxParallel,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Provision creates one TXT record per authorization, fanning out across a
// bounded worker pool. On failure the returned set still holds every record
// that was actually created, so the caller can pass it to TearDown.
func (c *Coordinator) Provision(ctx context.Context, auths []Authorization) (*Set, error) {
	set := &Set{}
	if len(auths) == 0 {
		return set, ErrNoAuthorizations
	}

	limit := c.maxParallel
	if len(auths) < limit {
		limit = len(auths)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, auth := range auths {
		auth := auth
		g.Go(func() error {
			zoneID, err := c.provider.ResolveZone(gctx, auth.Domain)
			if err != nil {
				return fmt.Errorf("resolve zone for %s: %w", auth.Domain, err)
			}

			name := challengePrefix + auth.Domain
			recordID, err := c.provider.CreateTXTRecord(gctx, zoneID, name, auth.Payload, c.ttl)
			if err != nil {
				return fmt.Errorf("create TXT record %s: %w", name, err)
			}

			set.add(Record{
				Domain:   auth.Domain,
				Name:     name,
				ZoneID:   zoneID,
				RecordID: recordID,
			})
			c.log.DebugContext(gctx, "dns challenge record created",
				logger.Domain(auth.Domain),
				logger.Zone(zoneID),
				logger.DNSRecord(recordID),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return set, errors.Join(ErrProvisionFailed, err)
	}
	return set, nil
}

// TearDown deletes every record in the set exactly once. Deletion failures
// are logged and skipped so one stuck record cannot strand the rest. Safe on
// nil, empty, and partially populated sets, and on repeated calls.
func (c *Coordinator) TearDown(ctx context.Context, set *Set) {
	if set == nil {
		return
	}

	for _, rec := range set.drain() {
		if err := c.provider.DeleteRecord(ctx, rec.ZoneID, rec.RecordID); err != nil {
			c.log.WarnContext(ctx, "failed to delete dns challenge record",
				logger.Domain(rec.Domain),
				logger.Zone(rec.ZoneID),
				logger.DNSRecord(rec.RecordID),
				logger.Error(err),
			)
			continue
		}
		c.log.DebugContext(ctx, "dns challenge record deleted",
			logger.Domain(rec.Domain),
			logger.Zone(rec.ZoneID),
			logger.DNSRecord(rec.RecordID),
		)
	}
}
