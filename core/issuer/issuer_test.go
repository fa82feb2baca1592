package issuer_test

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/certsmith/core/dnschallenge"
	"github.com/dmitrymomot/certsmith/core/issuer"
)

// testChainPEM builds a PEM bundle of n self-signed certificates.
func testChainPEM(t *testing.T, n int) []byte {
	t.Helper()

	var out []byte
	for i := 0; i < n; i++ {
		key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		require.NoError(t, err)

		tmpl := &x509.Certificate{
			SerialNumber: big.NewInt(int64(i + 1)),
			Subject:      pkix.Name{CommonName: "test"},
			NotBefore:    time.Now().Add(-time.Hour),
			NotAfter:     time.Now().Add(time.Hour),
		}
		der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
		require.NoError(t, err)

		out = append(out, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})...)
	}
	return out
}

// stubACME scripts the ACME server side of an issuance attempt.
type stubACME struct {
	mu sync.Mutex

	authorizations []issuer.Authorization
	chain          []byte
	finalizeErr    error
	answerErr      error

	registered bool
	orders     int
	answered   []string
	finalized  int
}

func (s *stubACME) Register(_ context.Context, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registered = true
	return nil
}

func (s *stubACME) NewOrder(_ context.Context, identifiers []string) (*issuer.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders++
	urls := make([]string, len(identifiers))
	for i := range identifiers {
		urls[i] = "authz-" + identifiers[i]
	}
	return &issuer.Order{URI: "order-1", FinalizeURL: "finalize-1", AuthzURLs: urls}, nil
}

func (s *stubACME) Authorizations(_ context.Context, _ *issuer.Order) ([]issuer.Authorization, error) {
	return s.authorizations, nil
}

func (s *stubACME) DNS01Payload(token string) (string, error) {
	return "txt-" + token, nil
}

func (s *stubACME) AnswerChallenge(_ context.Context, ch issuer.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.answerErr != nil {
		return s.answerErr
	}
	s.answered = append(s.answered, ch.Token)
	return nil
}

func (s *stubACME) PollAndFinalize(ctx context.Context, _ *issuer.Order, _ []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finalized++
	if s.finalizeErr != nil {
		return nil, s.finalizeErr
	}
	return s.chain, nil
}

func (s *stubACME) factory() issuer.ClientFactory {
	return func(_ crypto.Signer, _ string) (issuer.ACMEClient, error) {
		return s, nil
	}
}

// countingProvider records every provider call; createErr fails the creation
// whose payload matches failOnPayload.
type countingProvider struct {
	mu sync.Mutex

	zoneID        string
	failOnPayload string
	createErr     error

	creates []string
	deletes []string
}

func (p *countingProvider) ResolveZone(_ context.Context, _ string) (string, error) {
	return p.zoneID, nil
}

func (p *countingProvider) CreateTXTRecord(_ context.Context, _, name, content string, _ int) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failOnPayload != "" && content == p.failOnPayload {
		return "", p.createErr
	}
	id := "rec-" + content
	p.creates = append(p.creates, name)
	return id, nil
}

func (p *countingProvider) DeleteRecord(_ context.Context, _, recordID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deletes = append(p.deletes, recordID)
	return nil
}

func wildcardAuths() []issuer.Authorization {
	return []issuer.Authorization{
		{
			Domain:     "*.test.dev",
			Wildcard:   true,
			Challenges: []issuer.Challenge{{Type: "dns-01", URI: "chal-1", Token: "t1"}},
		},
		{
			Domain:     "test.dev",
			Challenges: []issuer.Challenge{{Type: "dns-01", URI: "chal-2", Token: "t2"}},
		},
	}
}

func wildcardRequest() issuer.Request {
	return issuer.Request{
		Domain:           "*.test.dev",
		ContactEmail:     "admin@test.dev",
		CloudflareEmail:  "ops@test.dev",
		CloudflareAPIKey: "cf-key",
	}
}

func newTestIssuer(t *testing.T, acme *stubACME, provider *countingProvider, waits *int, coordOpts ...dnschallenge.Option) *issuer.Issuer {
	t.Helper()

	factory := func(_ issuer.Request) (issuer.Coordinator, error) {
		return dnschallenge.NewCoordinator(provider, coordOpts...), nil
	}

	iss, err := issuer.New(issuer.Config{}, factory,
		issuer.WithClientFactory(acme.factory()),
		issuer.WithWaitFunc(func(ctx context.Context, _ time.Duration) error {
			if waits != nil {
				*waits++
			}
			return ctx.Err()
		}),
	)
	require.NoError(t, err)
	return iss
}

func TestIssuerIssue(t *testing.T) {
	t.Run("wildcard happy path", func(t *testing.T) {
		acme := &stubACME{authorizations: wildcardAuths(), chain: testChainPEM(t, 2)}
		provider := &countingProvider{zoneID: "zone-1"}
		var waits int
		iss := newTestIssuer(t, acme, provider, &waits)

		artifacts, err := iss.Issue(context.Background(), wildcardRequest())
		require.NoError(t, err)

		assert.True(t, acme.registered)
		assert.Equal(t, 1, acme.orders)
		assert.Equal(t, 1, acme.finalized)
		assert.ElementsMatch(t, []string{"t1", "t2"}, acme.answered)
		assert.Equal(t, 1, waits, "exactly one propagation wait for the whole batch")

		// Both authorizations share the challenge name because the wildcard
		// marker is stripped before record creation.
		require.Len(t, provider.creates, 2)
		assert.Equal(t, "_acme-challenge.test.dev", provider.creates[0])
		assert.Equal(t, "_acme-challenge.test.dev", provider.creates[1])
		assert.ElementsMatch(t, []string{"rec-txt-t1", "rec-txt-t2"}, provider.deletes)

		assert.NotEmpty(t, artifacts.PrivateKeyPEM)
		assert.Equal(t, 2, artifacts.CertificateCount())
		assert.False(t, artifacts.ChainIncomplete)
		assert.NotEmpty(t, artifacts.CAChainPEM)
	})

	t.Run("partial provisioning tears down created records", func(t *testing.T) {
		acme := &stubACME{authorizations: wildcardAuths(), chain: testChainPEM(t, 2)}
		provider := &countingProvider{
			zoneID:        "zone-1",
			failOnPayload: "txt-t2",
			createErr:     errors.New("cloudflare: rate limited"),
		}
		var waits int
		iss := newTestIssuer(t, acme, provider, &waits, dnschallenge.WithMaxParallel(1))

		_, err := iss.Issue(context.Background(), wildcardRequest())
		require.ErrorIs(t, err, issuer.ErrDNSProvider)
		assert.ErrorContains(t, err, "rate limited")

		assert.Len(t, provider.creates, 1)
		assert.Equal(t, []string{"rec-txt-t1"}, provider.deletes)
		assert.Empty(t, acme.answered)
		assert.Zero(t, acme.finalized)
		assert.Zero(t, waits)
	})

	t.Run("missing dns-01 challenge fails before any record exists", func(t *testing.T) {
		acme := &stubACME{
			authorizations: []issuer.Authorization{
				{Domain: "*.test.dev", Wildcard: true, Challenges: []issuer.Challenge{{Type: "dns-01", URI: "chal-1", Token: "t1"}}},
				{Domain: "test.dev", Challenges: []issuer.Challenge{{Type: "http-01", URI: "chal-2", Token: "t2"}}},
			},
		}
		provider := &countingProvider{zoneID: "zone-1"}
		iss := newTestIssuer(t, acme, provider, nil)

		_, err := iss.Issue(context.Background(), wildcardRequest())
		require.ErrorIs(t, err, issuer.ErrChallengeNotFound)
		assert.ErrorContains(t, err, "test.dev")

		assert.Empty(t, provider.creates)
		assert.Empty(t, provider.deletes)
		assert.Zero(t, acme.finalized)
	})

	t.Run("single certificate chain flags incomplete but succeeds", func(t *testing.T) {
		acme := &stubACME{authorizations: wildcardAuths(), chain: testChainPEM(t, 1)}
		provider := &countingProvider{zoneID: "zone-1"}
		iss := newTestIssuer(t, acme, provider, nil)

		artifacts, err := iss.Issue(context.Background(), wildcardRequest())
		require.NoError(t, err)

		assert.True(t, artifacts.ChainIncomplete)
		assert.Equal(t, 1, artifacts.CertificateCount())
		assert.Empty(t, artifacts.CAChainPEM)
	})

	t.Run("answer failure still tears down records", func(t *testing.T) {
		acme := &stubACME{
			authorizations: wildcardAuths(),
			answerErr:      errors.New("acme: challenge rejected"),
		}
		provider := &countingProvider{zoneID: "zone-1"}
		var waits int
		iss := newTestIssuer(t, acme, provider, &waits)

		_, err := iss.Issue(context.Background(), wildcardRequest())
		require.ErrorIs(t, err, issuer.ErrACMEProtocol)

		assert.Len(t, provider.creates, 2)
		assert.Len(t, provider.deletes, 2)
		assert.Zero(t, acme.finalized)
	})

	t.Run("cancellation during propagation wait tears down records", func(t *testing.T) {
		acme := &stubACME{authorizations: wildcardAuths(), chain: testChainPEM(t, 2)}
		provider := &countingProvider{zoneID: "zone-1"}

		factory := func(_ issuer.Request) (issuer.Coordinator, error) {
			return dnschallenge.NewCoordinator(provider), nil
		}
		ctx, cancel := context.WithCancel(context.Background())
		iss, err := issuer.New(issuer.Config{}, factory,
			issuer.WithClientFactory(acme.factory()),
			issuer.WithWaitFunc(func(ctx context.Context, _ time.Duration) error {
				cancel()
				<-ctx.Done()
				return ctx.Err()
			}),
		)
		require.NoError(t, err)

		_, err = iss.Issue(ctx, wildcardRequest())
		require.ErrorIs(t, err, context.Canceled)

		assert.Len(t, provider.creates, 2)
		assert.Len(t, provider.deletes, 2, "teardown runs on a detached context")
		assert.Empty(t, acme.answered)
	})

	t.Run("finalize deadline maps to timeout error", func(t *testing.T) {
		acme := &stubACME{
			authorizations: wildcardAuths(),
			finalizeErr:    context.DeadlineExceeded,
		}
		provider := &countingProvider{zoneID: "zone-1"}
		iss := newTestIssuer(t, acme, provider, nil)

		_, err := iss.Issue(context.Background(), wildcardRequest())
		require.ErrorIs(t, err, issuer.ErrFinalizeTimeout)
		assert.NotErrorIs(t, err, issuer.ErrACMEProtocol)

		assert.Len(t, provider.deletes, 2)
	})

	t.Run("invalid request never reaches the acme client", func(t *testing.T) {
		acme := &stubACME{}
		provider := &countingProvider{zoneID: "zone-1"}
		iss := newTestIssuer(t, acme, provider, nil)

		_, err := iss.Issue(context.Background(), issuer.Request{Domain: "bad domain"})
		require.ErrorIs(t, err, issuer.ErrInvalidRequest)
		assert.False(t, acme.registered)
	})

	t.Run("nil coordinator factory is rejected", func(t *testing.T) {
		_, err := issuer.New(issuer.Config{}, nil)
		require.Error(t, err)
	})
}
