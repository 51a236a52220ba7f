/*
 * samlsp
 * Copyright (C) 2026  Gravitational, Inc.
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

package utils

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"

	"github.com/gravitational/trace"
)

// KeyStore is used to sign and decrypt data using X509 digital signatures.
// It satisfies the key store interface of the XML signing library.
type KeyStore struct {
	privateKey *rsa.PrivateKey
	cert       []byte
}

// GetKeyPair returns the private key and the ASN.1 DER certificate bytes.
func (ks *KeyStore) GetKeyPair() (*rsa.PrivateKey, []byte, error) {
	return ks.privateKey, ks.cert, nil
}

// PrivateKey returns the RSA private key held by the store.
func (ks *KeyStore) PrivateKey() *rsa.PrivateKey {
	return ks.privateKey
}

// CertificateDER returns the ASN.1 DER certificate bytes held by the store.
func (ks *KeyStore) CertificateDER() []byte {
	return ks.cert
}

// ParseKeyStorePEM parses a signing key store from a PEM encoded key pair.
// Only RSA keys are supported for SAML signatures and decryption.
func ParseKeyStorePEM(keyPEM, certPEM string) (*KeyStore, error) {
	_, err := tls.X509KeyPair([]byte(certPEM), []byte(keyPEM))
	if err != nil {
		return nil, trace.Wrap(err, "failed to parse TLS key pair")
	}
	key, err := ParsePrivateKeyPEM([]byte(keyPEM))
	if err != nil {
		return nil, trace.Wrap(err)
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, trace.BadParameter("key of type %T is not supported, only RSA keys are supported for signatures", key)
	}
	certASN, _ := pem.Decode([]byte(certPEM))
	if certASN == nil {
		return nil, trace.BadParameter("expected PEM-encoded certificate block")
	}
	return &KeyStore{privateKey: rsaKey, cert: certASN.Bytes}, nil
}

// ParsePrivateKeyPEM parses a PEM encoded private key.
func ParsePrivateKeyPEM(keyBytes []byte) (crypto.Signer, error) {
	block, _ := pem.Decode(keyBytes)
	if block == nil {
		return nil, trace.BadParameter("expected PEM-encoded private key block")
	}
	return ParsePrivateKeyDER(block.Bytes)
}

// ParsePrivateKeyDER parses an ASN.1 DER encoded private key, accepting the
// PKCS#1, PKCS#8 and SEC 1 encodings.
func ParsePrivateKeyDER(der []byte) (crypto.Signer, error) {
	generalKey, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		generalKey, err = x509.ParsePKCS1PrivateKey(der)
		if err != nil {
			generalKey, err = x509.ParseECPrivateKey(der)
			if err != nil {
				return nil, trace.BadParameter("failed parsing private key")
			}
		}
	}
	switch k := generalKey.(type) {
	case *rsa.PrivateKey:
		return k, nil
	case *ecdsa.PrivateKey:
		return k, nil
	}
	return nil, trace.BadParameter("unsupported private key type %T", generalKey)
}

// ParseCertificatePEM parses a PEM encoded X.509 certificate.
func ParseCertificatePEM(certBytes []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(certBytes)
	if block == nil {
		return nil, trace.BadParameter("expected PEM-encoded certificate block")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, trace.Wrap(err, "failed to parse certificate")
	}
	return cert, nil
}
