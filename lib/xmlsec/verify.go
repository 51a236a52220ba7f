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
	"crypto/x509"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/beevik/etree"
	"github.com/gravitational/trace"
	dsig "github.com/russellhaering/goxmldsig"

	samlsp "github.com/gravitational/samlsp"
)

// ErrMissingSignature is returned when verification is requested for an
// element that carries no enveloped signature.
var ErrMissingSignature = errors.New("element has no enveloped signature")

// allowedTransforms are the only reference transforms accepted on inbound
// signatures. Anything else changes what the digest covers and is treated
// as hostile.
var allowedTransforms = map[string]bool{
	samlsp.TransformEnvelopedSignature:           true,
	samlsp.CanonicalizationExclusive:             true,
	samlsp.CanonicalizationExclusiveWithComments: true,
}

// VerifyOptions configures enveloped signature verification.
type VerifyOptions struct {
	// Certificates are the trusted IdP signing certificates.
	Certificates []*x509.Certificate
	// Fingerprint is the expected fingerprint of the certificate embedded
	// in the signature, consulted only when Certificates is empty. Colons
	// and case are ignored.
	Fingerprint string
	// FingerprintAlgorithm names the fingerprint hash, sha1 by default.
	FingerprintAlgorithm string
	// RejectDeprecated refuses SHA-1 based signature and digest algorithms.
	RejectDeprecated bool
	// Clock bounds certificate validity checks. Wall clock when nil.
	Clock *dsig.Clock
}

// EnvelopedSignature returns the ds:Signature direct child of el, or nil.
func EnvelopedSignature(el *etree.Element) *etree.Element {
	return FindChild(el, samlsp.NamespaceDSig, "Signature")
}

// VerifyEnveloped verifies the enveloped signature directly under el and
// returns the subtree the signature actually covers. Callers must consume
// data exclusively from the returned element: it is rebuilt from the signed
// octets, so elements smuggled next to the signed ones never reach it.
func VerifyEnveloped(el *etree.Element, opts VerifyOptions) (*etree.Element, error) {
	sigEl := EnvelopedSignature(el)
	if sigEl == nil {
		return nil, trace.Wrap(ErrMissingSignature)
	}
	if err := checkSignaturePolicy(el, sigEl, opts.RejectDeprecated); err != nil {
		return nil, trace.Wrap(err)
	}

	roots := opts.Certificates
	if len(roots) == 0 {
		cert, err := matchEmbeddedCertificate(sigEl, opts.Fingerprint, opts.FingerprintAlgorithm)
		if err != nil {
			return nil, trace.Wrap(err)
		}
		roots = []*x509.Certificate{cert}
	}

	validationContext := dsig.NewDefaultValidationContext(&dsig.MemoryX509CertificateStore{
		Roots: roots,
	})
	if opts.Clock != nil {
		validationContext.Clock = opts.Clock
	}
	validated, err := validationContext.Validate(el)
	if err != nil {
		if errors.Is(err, dsig.ErrMissingSignature) {
			return nil, trace.Wrap(ErrMissingSignature)
		}
		return nil, trace.AccessDenied("signature verification failed: %v", err)
	}
	return validated, nil
}

// checkSignaturePolicy enforces the structural rules on a signature before
// any cryptography runs: one local reference pointing at the element being
// verified, only the enveloped and exclusive C14N transforms, and no
// deprecated algorithms when the settings demand modern ones.
func checkSignaturePolicy(el, sigEl *etree.Element, rejectDeprecated bool) error {
	signedInfo := FindChild(sigEl, samlsp.NamespaceDSig, "SignedInfo")
	if signedInfo == nil {
		return trace.BadParameter("signature has no SignedInfo")
	}

	sigMethod := FindChild(signedInfo, samlsp.NamespaceDSig, "SignatureMethod")
	algorithm := ""
	if sigMethod != nil {
		algorithm = sigMethod.SelectAttrValue("Algorithm", "")
	}
	if _, err := SignatureHash(algorithm); err != nil {
		return trace.Wrap(err)
	}
	if rejectDeprecated && IsDeprecatedAlgorithm(algorithm) {
		return trace.Wrap(ErrDeprecatedAlgorithm, "signature algorithm %q", algorithm)
	}

	references := FindChildren(signedInfo, samlsp.NamespaceDSig, "Reference")
	if len(references) == 0 {
		return trace.BadParameter("signature has no reference")
	}
	if len(references) > 1 {
		return trace.BadParameter("signature has %d references, expected exactly one", len(references))
	}
	reference := references[0]

	uri := reference.SelectAttrValue("URI", "")
	if !strings.HasPrefix(uri, "#") {
		return trace.BadParameter("signature reference URI %q is not a local fragment", uri)
	}
	if id := el.SelectAttrValue("ID", ""); uri[1:] != id {
		return trace.BadParameter("signature reference %q does not point at the signed element", uri)
	}

	digestMethod := FindChild(reference, samlsp.NamespaceDSig, "DigestMethod")
	digestAlgorithm := ""
	if digestMethod != nil {
		digestAlgorithm = digestMethod.SelectAttrValue("Algorithm", "")
	}
	if _, err := DigestHash(digestAlgorithm); err != nil {
		return trace.Wrap(err)
	}
	if rejectDeprecated && IsDeprecatedAlgorithm(digestAlgorithm) {
		return trace.Wrap(ErrDeprecatedAlgorithm, "digest algorithm %q", digestAlgorithm)
	}

	transforms := FindChild(reference, samlsp.NamespaceDSig, "Transforms")
	sawEnveloped := false
	for _, transform := range FindChildren(transforms, samlsp.NamespaceDSig, "Transform") {
		algorithm := transform.SelectAttrValue("Algorithm", "")
		if !allowedTransforms[algorithm] {
			return trace.BadParameter("unexpected signature transform %q", algorithm)
		}
		if algorithm == samlsp.TransformEnvelopedSignature {
			sawEnveloped = true
		}
	}
	if !sawEnveloped {
		return trace.BadParameter("signature is missing the enveloped-signature transform")
	}
	return nil
}

// EmbeddedCertificate extracts the X.509 certificate carried in the
// signature's KeyInfo.
func EmbeddedCertificate(sigEl *etree.Element) (*x509.Certificate, error) {
	keyInfo := FindChild(sigEl, samlsp.NamespaceDSig, "KeyInfo")
	x509Data := FindChild(keyInfo, samlsp.NamespaceDSig, "X509Data")
	certEl := FindChild(x509Data, samlsp.NamespaceDSig, "X509Certificate")
	if certEl == nil {
		return nil, trace.NotFound("signature carries no X509Certificate")
	}
	der, err := base64.StdEncoding.DecodeString(stripWhitespace(certEl.Text()))
	if err != nil {
		return nil, trace.Wrap(err, "failed to decode embedded certificate")
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, trace.Wrap(err, "failed to parse embedded certificate")
	}
	return cert, nil
}

func matchEmbeddedCertificate(sigEl *etree.Element, fingerprint, algorithm string) (*x509.Certificate, error) {
	if fingerprint == "" {
		return nil, trace.BadParameter("no identity provider certificate or fingerprint configured")
	}
	if algorithm == "" {
		algorithm = samlsp.FingerprintSHA1
	}
	cert, err := EmbeddedCertificate(sigEl)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	actual, err := CertificateFingerprint(cert, algorithm)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	if actual != NormalizeFingerprint(fingerprint) {
		return nil, trace.AccessDenied("embedded certificate does not match the configured fingerprint")
	}
	return cert, nil
}

// NormalizeFingerprint lowers the case of a certificate fingerprint and
// strips colon separators so that fingerprints from different tools compare
// equal.
func NormalizeFingerprint(fingerprint string) string {
	return strings.ToLower(strings.ReplaceAll(fingerprint, ":", ""))
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)
}
