package issuer

import (
	"crypto"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
)

// createCSR builds a DER-encoded certificate signing request.
//
// The Common Name is always the literal requested domain, wildcard marker
// included. The alternative (stripping the marker) would set a CN that is
// absent from the SAN set for non-wildcard requests, so the policy is kept
// uniform regardless of wildcard status.
func createCSR(key crypto.PrivateKey, commonName string, sans []string) ([]byte, error) {
	csr, err := x509.CreateCertificateRequest(rand.Reader, &x509.CertificateRequest{
		Subject:  pkix.Name{CommonName: commonName},
		DNSNames: sans,
	}, key)
	if err != nil {
		return nil, fmt.Errorf("create certificate request: %w", err)
	}
	return csr, nil
}
