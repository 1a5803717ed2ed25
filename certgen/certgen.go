/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Package certgen generates throwaway self-signed certificates, the
// in-process replacement for shelling out to an external CA tool in
// tests and local development that need a TLS listener without a real
// certificate chain.
package certgen

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"time"

	liberr "github.com/lhamowski/luxnet/errors"
)

// SelfSigned holds a freshly generated key pair and the PEM encodings of
// both, for callers that want to persist or log the material.
type SelfSigned struct {
	CertPEM []byte
	KeyPEM  []byte
}

// GenerateSelfSigned creates an ECDSA P-256 self-signed certificate valid
// for validFor, covering commonName and every address/hostname in hosts
// as a Subject Alternative Name.
func GenerateSelfSigned(commonName string, hosts []string, validFor time.Duration) (*SelfSigned, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, liberr.Wrap(liberr.ErrTLS, "key generation failed", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, liberr.Wrap(liberr.ErrTLS, "serial number generation failed", err)
	}

	tmpl := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: commonName},
		NotBefore:    time.Now().Add(-time.Minute),
		NotAfter:     time.Now().Add(validFor),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	for _, h := range hosts {
		if ip := net.ParseIP(h); ip != nil {
			tmpl.IPAddresses = append(tmpl.IPAddresses, ip)
		} else {
			tmpl.DNSNames = append(tmpl.DNSNames, h)
		}
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	if err != nil {
		return nil, liberr.Wrap(liberr.ErrTLS, "certificate creation failed", err)
	}

	keyDER, err := x509.MarshalECPrivateKey(priv)
	if err != nil {
		return nil, liberr.Wrap(liberr.ErrTLS, "key marshaling failed", err)
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
	return &SelfSigned{CertPEM: certPEM, KeyPEM: keyPEM}, nil
}

// ServerTLSConfig builds a tls.Config presenting ss's certificate.
func ServerTLSConfig(ss *SelfSigned) (*tls.Config, error) {
	cert, err := tls.X509KeyPair(ss.CertPEM, ss.KeyPEM)
	if err != nil {
		return nil, liberr.Wrap(liberr.ErrTLS, "loading key pair failed", err)
	}
	return &tls.Config{Certificates: []tls.Certificate{cert}}, nil
}

// ClientTrustConfig builds a tls.Config whose root pool trusts exactly
// ss's certificate — the client-side counterpart used to dial a server
// built with ServerTLSConfig without disabling verification.
func ClientTrustConfig(ss *SelfSigned, serverName string) (*tls.Config, error) {
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(ss.CertPEM) {
		return nil, liberr.New(liberr.ErrTLS, "failed to add certificate to trust pool")
	}
	return &tls.Config{RootCAs: pool, ServerName: serverName}, nil
}
