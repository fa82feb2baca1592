package issuer

import (
	"context"
	"crypto"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-acme/lego/v4/certcrypto"

	"github.com/dmitrymomot/certsmith/core/dnschallenge"
	"github.com/dmitrymomot/certsmith/pkg/logger"
)

// Config holds the tunables of an issuance attempt.
type Config struct {
	// DirectoryURL is the ACME directory endpoint.
	DirectoryURL string `env:"ACME_DIRECTORY_URL" envDefault:"https://acme-v02.api.letsencrypt.org/directory"`

	// PropagationWait is the single pause between provisioning all DNS
	// records and answering the first challenge.
	PropagationWait time.Duration `env:"ACME_DNS_PROPAGATION_WAIT" envDefault:"30s"`

	// FinalizeTimeout bounds order polling and finalization.
	FinalizeTimeout time.Duration `env:"ACME_FINALIZE_TIMEOUT" envDefault:"2m"`
}

// Coordinator is the DNS challenge capability the issuer delegates to.
// *dnschallenge.Coordinator satisfies it.
type Coordinator interface {
	Provision(ctx context.Context, auths []dnschallenge.Authorization) (*dnschallenge.Set, error)
	TearDown(ctx context.Context, set *dnschallenge.Set)
}

// CoordinatorFactory builds a Coordinator for one request, typically from
// the DNS provider credentials the request carries.
type CoordinatorFactory func(req Request) (Coordinator, error)

// WaitFunc is the propagation wait strategy. The default sleeps for the
// full duration; tests substitute a zero-length wait, and callers may plug
// in active polling against a resolver instead.
type WaitFunc func(ctx context.Context, d time.Duration) error

func fixedWait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Issuer runs certificate issuance attempts.
type Issuer struct {
	cfg           Config
	log           *slog.Logger
	keyType       certcrypto.KeyType
	clientFactory ClientFactory
	coordinators  CoordinatorFactory
	wait          WaitFunc
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(i *Issuer) {
		if log != nil {
			i.log = log
		}
	}
}

// WithKeyType overrides the key algorithm used for both the account and
// certificate keys. Defaults to 2048-bit RSA.
func WithKeyType(kt certcrypto.KeyType) Option {
	return func(i *Issuer) {
		if kt != "" {
			i.keyType = kt
		}
	}
}

// WithClientFactory swaps the ACME client implementation. Primarily for
// tests; can also point at a staging directory wrapper.
func WithClientFactory(factory ClientFactory) Option {
	return func(i *Issuer) {
		if factory != nil {
			i.clientFactory = factory
		}
	}
}

// WithWaitFunc replaces the propagation wait strategy.
func WithWaitFunc(wait WaitFunc) Option {
	return func(i *Issuer) {
		if wait != nil {
			i.wait = wait
		}
	}
}

// New returns an Issuer. The coordinator factory is mandatory: without it
// no DNS challenge can ever be satisfied.
func New(cfg Config, coordinators CoordinatorFactory, opts ...Option) (*Issuer, error) {
	if coordinators == nil {
		return nil, errors.New("issuer: coordinator factory is required")
	}
	if cfg.DirectoryURL == "" {
		cfg.DirectoryURL = "https://acme-v02.api.letsencrypt.org/directory"
	}
	if cfg.PropagationWait <= 0 {
		cfg.PropagationWait = 30 * time.Second
	}
	if cfg.FinalizeTimeout <= 0 {
		cfg.FinalizeTimeout = 2 * time.Minute
	}

	iss := &Issuer{
		cfg:           cfg,
		log:           slog.Default(),
		keyType:       certcrypto.RSA2048,
		clientFactory: defaultClientFactory,
		coordinators:  coordinators,
		wait:          fixedWait,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(iss)
		}
	}
	return iss, nil
}

// pendingChallenge pairs an authorization's domain with its selected DNS-01
// challenge for the answering pass.
type pendingChallenge struct {
	domain    string
	challenge Challenge
}

// Issue runs one issuance attempt and returns either the signed artifacts
// or a classified error. Every DNS record the attempt creates is torn down
// before Issue returns, on success, failure, and cancellation alike.
func (i *Issuer) Issue(ctx context.Context, req Request) (*Artifacts, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	log := i.log.With(logger.Domain(req.Domain))

	accountKey, err := certcrypto.GeneratePrivateKey(i.keyType)
	if err != nil {
		return nil, fmt.Errorf("generate account key: %w", err)
	}
	signer, ok := accountKey.(crypto.Signer)
	if !ok {
		return nil, fmt.Errorf("account key type %T is not a signer", accountKey)
	}

	// The certificate key is distinct from the account key; the account key
	// never leaves this attempt.
	certKey, err := certcrypto.GeneratePrivateKey(i.keyType)
	if err != nil {
		return nil, fmt.Errorf("generate certificate key: %w", err)
	}

	sans := SubjectAltNames(req.Domain)
	csrDER, err := createCSR(certKey, req.Domain, sans)
	if err != nil {
		return nil, err
	}

	client, err := i.clientFactory(signer, i.cfg.DirectoryURL)
	if err != nil {
		return nil, errors.Join(ErrACMEProtocol, err)
	}

	if err := client.Register(ctx, req.ContactEmail); err != nil {
		return nil, errors.Join(ErrACMEProtocol, fmt.Errorf("register account: %w", err))
	}
	log.InfoContext(ctx, "acme account registered")

	order, err := client.NewOrder(ctx, sans)
	if err != nil {
		return nil, errors.Join(ErrACMEProtocol, fmt.Errorf("create order: %w", err))
	}

	auths, err := client.Authorizations(ctx, order)
	if err != nil {
		return nil, errors.Join(ErrACMEProtocol, fmt.Errorf("fetch authorizations: %w", err))
	}

	// Resolve every DNS-01 challenge before touching the provider: a
	// missing challenge kills the attempt while zero records exist, and a
	// certificate needs all SANs to validate anyway.
	pending := make([]pendingChallenge, 0, len(auths))
	challengeAuths := make([]dnschallenge.Authorization, 0, len(auths))
	for _, authz := range auths {
		ch, ok := findChallenge(authz.Challenges, challengeTypeDNS01)
		if !ok {
			return nil, fmt.Errorf("%w: authorization for %s", ErrChallengeNotFound, authz.Domain)
		}
		payload, err := client.DNS01Payload(ch.Token)
		if err != nil {
			return nil, errors.Join(ErrACMEProtocol, fmt.Errorf("compute dns-01 payload for %s: %w", authz.Domain, err))
		}
		pending = append(pending, pendingChallenge{domain: authz.Domain, challenge: ch})
		challengeAuths = append(challengeAuths, dnschallenge.Authorization{
			Domain:  strings.TrimPrefix(authz.Domain, "*."),
			Payload: payload,
		})
	}

	coord, err := i.coordinators(req)
	if err != nil {
		return nil, errors.Join(ErrDNSProvider, err)
	}

	set, provErr := coord.Provision(ctx, challengeAuths)
	// Teardown is registered the moment records may exist and runs on a
	// detached context: cleanup itself is not cancellable.
	defer coord.TearDown(context.WithoutCancel(ctx), set)
	if provErr != nil {
		return nil, errors.Join(ErrDNSProvider, provErr)
	}
	log.InfoContext(ctx, "dns challenge records provisioned", logger.Count("records", set.Len()))

	// One wait for the whole record batch, never per record, keeps total
	// latency at a single propagation interval regardless of SAN count.
	if err := i.wait(ctx, i.cfg.PropagationWait); err != nil {
		return nil, fmt.Errorf("propagation wait interrupted: %w", err)
	}

	for _, p := range pending {
		if err := client.AnswerChallenge(ctx, p.challenge); err != nil {
			return nil, errors.Join(ErrACMEProtocol, fmt.Errorf("answer dns-01 challenge for %s: %w", p.domain, err))
		}
	}
	log.InfoContext(ctx, "challenges answered", logger.Count("authorizations", len(pending)))

	finalizeCtx, cancel := context.WithTimeout(ctx, i.cfg.FinalizeTimeout)
	defer cancel()

	chainPEM, err := client.PollAndFinalize(finalizeCtx, order, csrDER)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, errors.Join(ErrFinalizeTimeout, err)
		}
		return nil, errors.Join(ErrACMEProtocol, fmt.Errorf("finalize order: %w", err))
	}

	artifacts, err := buildArtifacts(certKey, chainPEM)
	if err != nil {
		return nil, errors.Join(ErrACMEProtocol, err)
	}
	if artifacts.ChainIncomplete {
		log.WarnContext(ctx, "certificate chain holds a single certificate; issuer chain may be truncated")
	}
	log.InfoContext(ctx, "certificate issued", logger.Count("chain_certs", artifacts.CertificateCount()))
	return artifacts, nil
}
