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

package xmlsec

import (
	"crypto"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509"
	"encoding/hex"
	"errors"
	"hash"

	"github.com/gravitational/trace"

	samlsp "github.com/gravitational/samlsp"
)

// ErrDeprecatedAlgorithm is returned when a message uses an algorithm from
// the deprecated set while the caller demands modern algorithms.
var ErrDeprecatedAlgorithm = errors.New("deprecated algorithm rejected by policy")

var signatureHashes = map[string]crypto.Hash{
	samlsp.SignatureRSASHA1:   crypto.SHA1,
	samlsp.SignatureRSASHA256: crypto.SHA256,
	samlsp.SignatureRSASHA384: crypto.SHA384,
	samlsp.SignatureRSASHA512: crypto.SHA512,
}

var digestHashes = map[string]crypto.Hash{
	samlsp.DigestSHA1:   crypto.SHA1,
	samlsp.DigestSHA256: crypto.SHA256,
	samlsp.DigestSHA384: crypto.SHA384,
	samlsp.DigestSHA512: crypto.SHA512,
}

var fingerprintHashes = map[string]crypto.Hash{
	samlsp.FingerprintSHA1:   crypto.SHA1,
	samlsp.FingerprintSHA256: crypto.SHA256,
	samlsp.FingerprintSHA384: crypto.SHA384,
	samlsp.FingerprintSHA512: crypto.SHA512,
}

// deprecatedAlgorithms holds the URIs refused under RejectDeprecated:
// everything built on SHA-1 plus PKCS#1 v1.5 key transport.
var deprecatedAlgorithms = map[string]bool{
	samlsp.SignatureRSASHA1:  true,
	samlsp.DigestSHA1:        true,
	samlsp.KeyTransportRSA15: true,
}

// SignatureHash maps a signature algorithm URI to its hash function.
func SignatureHash(algorithm string) (crypto.Hash, error) {
	h, ok := signatureHashes[algorithm]
	if !ok {
		return 0, trace.BadParameter("unsupported signature algorithm %q", algorithm)
	}
	return h, nil
}

// DigestHash maps a digest algorithm URI to its hash function.
func DigestHash(algorithm string) (crypto.Hash, error) {
	h, ok := digestHashes[algorithm]
	if !ok {
		return 0, trace.BadParameter("unsupported digest algorithm %q", algorithm)
	}
	return h, nil
}

// IsDeprecatedAlgorithm reports whether the URI names an algorithm from the
// deprecated set.
func IsDeprecatedAlgorithm(algorithm string) bool {
	return deprecatedAlgorithms[algorithm]
}

// X509Fingerprint computes the fingerprint of an ASN.1 DER certificate with
// the named fingerprint algorithm. The result is lowercase hex without
// separators, the normalized form fingerprints are compared in.
func X509Fingerprint(der []byte, algorithm string) (string, error) {
	var h hash.Hash
	switch fingerprintHashes[algorithm] {
	case crypto.SHA1:
		h = sha1.New()
	case crypto.SHA256:
		h = sha256.New()
	case crypto.SHA384:
		h = sha512.New384()
	case crypto.SHA512:
		h = sha512.New()
	default:
		return "", trace.BadParameter("unsupported fingerprint algorithm %q", algorithm)
	}
	h.Write(der)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// CertificateFingerprint computes the fingerprint of a parsed certificate.
func CertificateFingerprint(cert *x509.Certificate, algorithm string) (string, error) {
	return X509Fingerprint(cert.Raw, algorithm)
}
