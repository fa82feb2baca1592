package issuer

import (
	"bytes"
	"crypto"
	"fmt"

	"github.com/go-acme/lego/v4/certcrypto"
)

// Artifacts is the successful outcome of an issuance attempt. The ACME
// account key is deliberately absent: it exists only for the lifetime of
// the attempt.
type Artifacts struct {
	// PrivateKeyPEM is the certificate private key.
	PrivateKeyPEM []byte

	// CertificateChainPEM is the full chain: leaf plus issuer certificates.
	CertificateChainPEM []byte

	// CAChainPEM holds the issuer certificates only. Empty when the chain
	// was truncated to a single certificate.
	CAChainPEM []byte

	// ChainIncomplete flags a chain with fewer than two certificates.
	// Downstream TLS clients may fail to build a trust path from such a
	// chain, so the condition is surfaced rather than swallowed — but it
	// does not fail the attempt.
	ChainIncomplete bool
}

// CertificateCount reports how many certificates the full chain carries.
func (a *Artifacts) CertificateCount() int {
	return bytes.Count(a.CertificateChainPEM, []byte("-----BEGIN CERTIFICATE-----"))
}

// buildArtifacts encodes the private key and splits the issuer chain off
// the full chain.
func buildArtifacts(certKey crypto.PrivateKey, chainPEM []byte) (*Artifacts, error) {
	certs, err := certcrypto.ParsePEMBundle(chainPEM)
	if err != nil {
		return nil, fmt.Errorf("parse certificate chain: %w", err)
	}

	artifacts := &Artifacts{
		PrivateKeyPEM:       certcrypto.PEMEncode(certKey),
		CertificateChainPEM: chainPEM,
	}

	if len(certs) < 2 {
		artifacts.ChainIncomplete = true
		return artifacts, nil
	}

	var ca bytes.Buffer
	for _, cert := range certs[1:] {
		ca.Write(certcrypto.PEMEncode(certcrypto.DERCertificateBytes(cert.Raw)))
	}
	artifacts.CAChainPEM = ca.Bytes()
	return artifacts, nil
}
