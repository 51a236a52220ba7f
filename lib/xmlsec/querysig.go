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
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"net/url"
	"regexp"
	"strings"

	"github.com/gravitational/trace"
)

// Redirect binding query parameter names. The signature covers them in
// exactly this order.
const (
	QuerySAMLRequest  = "SAMLRequest"
	QuerySAMLResponse = "SAMLResponse"
	QueryRelayState   = "RelayState"
	QuerySigAlg       = "SigAlg"
	QuerySignature    = "Signature"
)

var escapeSequence = regexp.MustCompile(`%[0-9A-F]{2}`)

// EncodeQueryComponent percent-encodes v for the Redirect binding. The
// lowercase mode rewrites the hex digits of every escape, matching
// providers that compute signatures over lowercase-encoded strings.
func EncodeQueryComponent(v string, lowercase bool) string {
	escaped := url.QueryEscape(v)
	if !lowercase {
		return escaped
	}
	return escapeSequence.ReplaceAllStringFunc(escaped, strings.ToLower)
}

// BuildSignedQuery forms the octet string covered by a Redirect binding
// signature: the message parameter, then RelayState when present, then
// SigAlg. The concatenation order is contractual; reordering it breaks
// interoperability with every deployed IdP.
func BuildSignedQuery(parameter, payload, relayState, sigAlg string, lowercase bool) string {
	var query strings.Builder
	query.WriteString(parameter)
	query.WriteString("=")
	query.WriteString(EncodeQueryComponent(payload, lowercase))
	if relayState != "" {
		query.WriteString("&" + QueryRelayState + "=")
		query.WriteString(EncodeQueryComponent(relayState, lowercase))
	}
	query.WriteString("&" + QuerySigAlg + "=")
	query.WriteString(EncodeQueryComponent(sigAlg, lowercase))
	return query.String()
}

// BuildRawSignedQuery rebuilds the signed octet string from parameter
// values taken verbatim from the raw query string, preserving whatever
// percent-encoding the sender used.
func BuildRawSignedQuery(parameter, rawPayload, rawRelayState, rawSigAlg string) string {
	query := parameter + "=" + rawPayload
	if rawRelayState != "" {
		query += "&" + QueryRelayState + "=" + rawRelayState
	}
	query += "&" + QuerySigAlg + "=" + rawSigAlg
	return query
}

// RawQueryParameter returns the value of name within rawQuery without
// decoding it. Returns the empty string when the parameter is absent.
func RawQueryParameter(rawQuery, name string) string {
	for _, pair := range strings.Split(rawQuery, "&") {
		if value, found := strings.CutPrefix(pair, name+"="); found {
			return value
		}
	}
	return ""
}

// SignQuery signs the octet string of a Redirect binding query and returns
// the base64 encoded signature value.
func SignQuery(key *rsa.PrivateKey, sigAlg, signedQuery string) (string, error) {
	if key == nil {
		return "", trace.BadParameter("missing parameter key")
	}
	hash, err := SignatureHash(sigAlg)
	if err != nil {
		return "", trace.Wrap(err)
	}
	h := hash.New()
	h.Write([]byte(signedQuery))
	signature, err := rsa.SignPKCS1v15(rand.Reader, key, hash, h.Sum(nil))
	if err != nil {
		return "", trace.Wrap(err)
	}
	return base64.StdEncoding.EncodeToString(signature), nil
}

// VerifyQuery checks a Redirect binding signature against each candidate
// certificate until one validates.
func VerifyQuery(certificates []*x509.Certificate, sigAlg, signedQuery, signature string, rejectDeprecated bool) error {
	if rejectDeprecated && IsDeprecatedAlgorithm(sigAlg) {
		return trace.Wrap(ErrDeprecatedAlgorithm, "signature algorithm %q", sigAlg)
	}
	hash, err := SignatureHash(sigAlg)
	if err != nil {
		return trace.Wrap(err)
	}
	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return trace.Wrap(err, "failed to decode signature")
	}
	h := hash.New()
	h.Write([]byte(signedQuery))
	digest := h.Sum(nil)

	for _, certificate := range certificates {
		publicKey, ok := certificate.PublicKey.(*rsa.PublicKey)
		if !ok {
			continue
		}
		if rsa.VerifyPKCS1v15(publicKey, hash, digest, sig) == nil {
			return nil
		}
	}
	return trace.AccessDenied("no configured identity provider certificate validates the query signature")
}
