package issuer

import (
	"bytes"
	"context"
	"crypto"
	"errors"

	"github.com/go-acme/lego/v4/certcrypto"
	"golang.org/x/crypto/acme"
)

const (
	challengeTypeDNS01 = "dns-01"

	userAgent = "certsmith/1.0"
)

// Challenge is one validation method offered by an authorization,
// identified by its kind string.
type Challenge struct {
	Type  string
	URI   string
	Token string
}

// Authorization is one domain-control proof demanded by an order.
type Authorization struct {
	// Domain is the identifier to validate, with the wildcard marker
	// restored when the authorization covers a wildcard SAN.
	Domain string

	Wildcard   bool
	Challenges []Challenge
}

// Order is an ACME order handle.
type Order struct {
	URI         string
	FinalizeURL string
	AuthzURLs   []string
}

// ACMEClient is the consumed ACME capability. JWS signing, nonce handling
// and wire-level polling all live behind this interface.
type ACMEClient interface {
	// Register creates a fresh account for the contact email; terms of
	// service are accepted implicitly.
	Register(ctx context.Context, contactEmail string) error

	// NewOrder submits an order for the given identifiers.
	NewOrder(ctx context.Context, identifiers []string) (*Order, error)

	// Authorizations fetches the order's authorizations.
	Authorizations(ctx context.Context, order *Order) ([]Authorization, error)

	// DNS01Payload computes the TXT record value answering a DNS-01
	// challenge token under the client's account key.
	DNS01Payload(token string) (string, error)

	// AnswerChallenge tells the server the challenge is ready for validation.
	AnswerChallenge(ctx context.Context, ch Challenge) error

	// PollAndFinalize polls the order until it is ready, finalizes it with
	// the CSR, and returns the PEM-encoded full certificate chain.
	PollAndFinalize(ctx context.Context, order *Order, csrDER []byte) ([]byte, error)
}

// ClientFactory builds an ACMEClient bound to a fresh account key. Swapped
// out in tests.
type ClientFactory func(accountKey crypto.Signer, directoryURL string) (ACMEClient, error)

func defaultClientFactory(accountKey crypto.Signer, directoryURL string) (ACMEClient, error) {
	return &acmeGoClient{
		client: &acme.Client{
			Key:          accountKey,
			DirectoryURL: directoryURL,
			UserAgent:    userAgent,
		},
	}, nil
}

// acmeGoClient adapts golang.org/x/crypto/acme to the ACMEClient interface.
type acmeGoClient struct {
	client *acme.Client
}

func (a *acmeGoClient) Register(ctx context.Context, contactEmail string) error {
	_, err := a.client.Register(ctx, &acme.Account{
		Contact: []string{"mailto:" + contactEmail},
	}, acme.AcceptTOS)
	if errors.Is(err, acme.ErrAccountAlreadyExists) {
		return nil
	}
	return err
}

func (a *acmeGoClient) NewOrder(ctx context.Context, identifiers []string) (*Order, error) {
	order, err := a.client.AuthorizeOrder(ctx, acme.DomainIDs(identifiers...))
	if err != nil {
		return nil, err
	}
	return &Order{
		URI:         order.URI,
		FinalizeURL: order.FinalizeURL,
		AuthzURLs:   order.AuthzURLs,
	}, nil
}

func (a *acmeGoClient) Authorizations(ctx context.Context, order *Order) ([]Authorization, error) {
	out := make([]Authorization, 0, len(order.AuthzURLs))
	for _, authzURL := range order.AuthzURLs {
		authz, err := a.client.GetAuthorization(ctx, authzURL)
		if err != nil {
			return nil, err
		}

		domain := authz.Identifier.Value
		if authz.Wildcard {
			domain = "*." + domain
		}

		challenges := make([]Challenge, 0, len(authz.Challenges))
		for _, ch := range authz.Challenges {
			challenges = append(challenges, Challenge{Type: ch.Type, URI: ch.URI, Token: ch.Token})
		}

		out = append(out, Authorization{
			Domain:     domain,
			Wildcard:   authz.Wildcard,
			Challenges: challenges,
		})
	}
	return out, nil
}

func (a *acmeGoClient) DNS01Payload(token string) (string, error) {
	return a.client.DNS01ChallengeRecord(token)
}

func (a *acmeGoClient) AnswerChallenge(ctx context.Context, ch Challenge) error {
	_, err := a.client.Accept(ctx, &acme.Challenge{Type: ch.Type, URI: ch.URI, Token: ch.Token})
	return err
}

func (a *acmeGoClient) PollAndFinalize(ctx context.Context, order *Order, csrDER []byte) ([]byte, error) {
	if _, err := a.client.WaitOrder(ctx, order.URI); err != nil {
		return nil, err
	}

	der, _, err := a.client.CreateOrderCert(ctx, order.FinalizeURL, csrDER, true)
	if err != nil {
		return nil, err
	}

	var chain bytes.Buffer
	for _, block := range der {
		chain.Write(certcrypto.PEMEncode(certcrypto.DERCertificateBytes(block)))
	}
	return chain.Bytes(), nil
}

// findChallenge selects a challenge by kind.
func findChallenge(challenges []Challenge, kind string) (Challenge, bool) {
	for _, ch := range challenges {
		if ch.Type == kind {
			return ch, true
		}
	}
	return Challenge{}, false
}
