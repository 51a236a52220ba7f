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

package saml

import (
	"crypto/x509"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/crewjam/saml/testsaml"
	"github.com/gravitational/trace"
	"github.com/stretchr/testify/require"

	samlsp "github.com/gravitational/samlsp"
	"github.com/gravitational/samlsp/lib/utils"
	"github.com/gravitational/samlsp/lib/xmlsec"
)

// authRecorder captures the side effects of an Auth under test.
type authRecorder struct {
	redirects []string
	deletions int
}

func newTestAuth(t *testing.T, settings *Settings, rec *authRecorder) *Auth {
	t.Helper()
	a, err := NewAuth(AuthConfig{
		Settings: settings,
		DeleteSession: func() error {
			rec.deletions++
			return nil
		},
		Redirect: func(u string) error {
			rec.redirects = append(rec.redirects, u)
			return nil
		},
	})
	require.NoError(t, err)
	return a
}

// signIdPQuery builds the query of a Redirect binding message signed the way
// the identity provider would sign it.
func signIdPQuery(t *testing.T, idp *testIdP, parameter, payload, relayState string) url.Values {
	t.Helper()
	sigAlg := samlsp.SignatureRSASHA256
	signedQuery := xmlsec.BuildSignedQuery(parameter, payload, relayState, sigAlg, false)
	key, _, err := idp.keyStore.GetKeyPair()
	require.NoError(t, err)
	signature, err := xmlsec.SignQuery(key, sigAlg, signedQuery)
	require.NoError(t, err)

	query := url.Values{}
	query.Set(parameter, payload)
	if relayState != "" {
		query.Set(xmlsec.QueryRelayState, relayState)
	}
	query.Set(xmlsec.QuerySigAlg, sigAlg)
	query.Set(xmlsec.QuerySignature, signature)
	return query
}

func TestAuthConfigCheckAndSetDefaults(t *testing.T) {
	t.Parallel()

	_, err := NewAuth(AuthConfig{})
	require.Error(t, err)
	require.True(t, trace.IsBadParameter(err))

	idp := newTestIdP(t)
	settings := newResponseSettings(t, idp, nil)
	a, err := NewAuth(AuthConfig{Settings: settings})
	require.NoError(t, err)
	require.Same(t, settings, a.Settings())
}

func TestAuthAccessorsBeforeAuthentication(t *testing.T) {
	t.Parallel()

	idp := newTestIdP(t)
	a := newTestAuth(t, newResponseSettings(t, idp, nil), &authRecorder{})

	require.False(t, a.IsAuthenticated())
	require.Empty(t, a.NameID())
	require.Empty(t, a.NameIDFormat())
	require.Nil(t, a.Attributes())
	require.Nil(t, a.Attribute("uid"))
	require.Empty(t, a.SessionIndex())
	require.True(t, a.SessionExpiration().IsZero())
	require.Empty(t, a.Errors())
	require.Empty(t, a.ErrorKinds())
	require.Empty(t, a.LastError())
	require.Nil(t, a.LastErrorException())
}

func TestAuthLoginSignedRedirect(t *testing.T) {
	t.Parallel()

	idp := newTestIdP(t)
	spKeyPEM, spCertPEM := newTestKeyPair(t, "sp.example.com")
	spCert, err := utils.ParseCertificatePEM([]byte(spCertPEM))
	require.NoError(t, err)

	settings := newResponseSettings(t, idp, func(cfg *SettingsConfig) {
		cfg.SP.PrivateKey = spKeyPEM
		cfg.SP.Certificate = spCertPEM
		cfg.Security.AuthnRequestsSigned = true
	})
	rec := &authRecorder{}
	a := newTestAuth(t, settings, rec)

	loginURL, err := a.Login(LoginParams{ReturnTo: testRelayStateHome, ForceAuthn: true})
	require.NoError(t, err)
	require.Equal(t, []string{loginURL}, rec.redirects)
	require.True(t, strings.HasPrefix(loginURL, testIdPSSOURL+"?"))

	u, err := url.Parse(loginURL)
	require.NoError(t, err)
	values := u.Query()
	require.Equal(t, testRelayStateHome, values.Get(xmlsec.QueryRelayState))
	require.Equal(t, samlsp.SignatureRSASHA256, values.Get(xmlsec.QuerySigAlg))
	require.NotEmpty(t, values.Get(xmlsec.QuerySignature))

	// The emitted query octets are the signed octets, so a verifier that
	// reconstructs from the raw query accepts the signature.
	signedQuery := xmlsec.BuildRawSignedQuery(xmlsec.QuerySAMLRequest,
		xmlsec.RawQueryParameter(u.RawQuery, xmlsec.QuerySAMLRequest),
		xmlsec.RawQueryParameter(u.RawQuery, xmlsec.QueryRelayState),
		xmlsec.RawQueryParameter(u.RawQuery, xmlsec.QuerySigAlg),
	)
	require.NoError(t, xmlsec.VerifyQuery([]*x509.Certificate{spCert},
		values.Get(xmlsec.QuerySigAlg), signedQuery, values.Get(xmlsec.QuerySignature), false))

	xml, err := testsaml.ParseRedirectRequest(u)
	require.NoError(t, err)
	doc, err := xmlsec.ParseDocument(xml)
	require.NoError(t, err)
	root := doc.Root()
	require.Equal(t, "AuthnRequest", root.Tag)
	require.Equal(t, a.LastRequestID(), root.SelectAttrValue("ID", ""))
	require.Equal(t, "true", root.SelectAttrValue("ForceAuthn", ""))
	require.Contains(t, a.LastRequestXML(), "AuthnRequest")
}

func TestAuthLoginUnsigned(t *testing.T) {
	t.Parallel()

	idp := newTestIdP(t)
	rec := &authRecorder{}
	a := newTestAuth(t, newResponseSettings(t, idp, nil), rec)

	loginURL, err := a.Login(LoginParams{ReturnTo: testRelayStateHome, Stay: true})
	require.NoError(t, err)
	require.Empty(t, rec.redirects)

	u, err := url.Parse(loginURL)
	require.NoError(t, err)
	values := u.Query()
	require.NotEmpty(t, values.Get(xmlsec.QuerySAMLRequest))
	require.Equal(t, testRelayStateHome, values.Get(xmlsec.QueryRelayState))
	require.Empty(t, values.Get(xmlsec.QuerySigAlg))
	require.Empty(t, values.Get(xmlsec.QuerySignature))
}

func TestAuthLoginRedirectQuery(t *testing.T) {
	t.Parallel()

	idp := newTestIdP(t)

	t.Run("extras ride outside the message query", func(t *testing.T) {
		a := newTestAuth(t, newResponseSettings(t, idp, nil), &authRecorder{})
		loginURL, err := a.Login(LoginParams{
			Stay:   true,
			Extras: url.Values{"username": []string{"alice smith"}},
		})
		require.NoError(t, err)

		u, err := url.Parse(loginURL)
		require.NoError(t, err)
		require.Equal(t, "alice smith", u.Query().Get("username"))
		require.NotEmpty(t, u.Query().Get(xmlsec.QuerySAMLRequest))
	})

	t.Run("endpoint query survives", func(t *testing.T) {
		settings := newResponseSettings(t, idp, func(cfg *SettingsConfig) {
			cfg.IdP.SingleSignOnServiceURL = testIdPSSOURL + "?tenant=acme"
		})
		a := newTestAuth(t, settings, &authRecorder{})
		loginURL, err := a.Login(LoginParams{Stay: true})
		require.NoError(t, err)

		u, err := url.Parse(loginURL)
		require.NoError(t, err)
		require.Equal(t, "acme", u.Query().Get("tenant"))
		require.NotEmpty(t, u.Query().Get(xmlsec.QuerySAMLRequest))
	})
}

func TestAuthProcessResponse(t *testing.T) {
	t.Parallel()

	idp := newTestIdP(t)
	settings := newResponseSettings(t, idp, nil)
	a := newTestAuth(t, settings, &authRecorder{})

	// A malformed response first: it must be recorded, not returned.
	form := url.Values{}
	form.Set(xmlsec.QuerySAMLResponse, "bm90IHhtbA==")
	require.NoError(t, a.ProcessResponse(ResponseRequest{Form: form}))
	require.False(t, a.IsAuthenticated())
	require.Equal(t, []ErrorKind{KindInvalidXml}, a.ErrorKinds())
	require.NotEmpty(t, a.LastError())
	require.Error(t, a.LastErrorException())

	// A valid response then authenticates and clears the failures.
	r := newTestResponse()
	r.signAssertion(t, idp.signer())
	form = url.Values{}
	form.Set(xmlsec.QuerySAMLResponse, r.encode(t))
	form.Set(xmlsec.QueryRelayState, testRelayStateHome)
	require.NoError(t, a.ProcessResponse(ResponseRequest{Form: form, RequestID: testRequestID}))

	require.True(t, a.IsAuthenticated())
	require.Empty(t, a.Errors())
	require.Empty(t, a.LastError())
	require.Nil(t, a.LastErrorException())
	require.Equal(t, "alice@example.com", a.NameID())
	require.Equal(t, samlsp.NameIDFormatEmailAddress, a.NameIDFormat())
	require.Equal(t, []string{"alice"}, a.Attribute("uid"))
	require.Equal(t, []string{"alice"}, a.AttributeWithFriendlyName("userId"))
	require.Nil(t, a.Attribute("device"))
	require.Equal(t, "session-abc", a.SessionIndex())
	require.Equal(t, testInstant.Add(8*time.Hour), a.SessionExpiration())
	require.Equal(t, testResponseID, a.LastMessageID())
	require.Equal(t, testAssertionID, a.LastAssertionID())
	require.Equal(t, testInstant.Add(5*time.Minute), a.LastAssertionNotOnOrAfter())
	require.Equal(t, testRelayStateHome, a.RelayState())
	require.Contains(t, a.LastResponseXML(), "Assertion")
}

func TestAuthProcessResponseRejected(t *testing.T) {
	t.Parallel()

	idp := newTestIdP(t)
	settings := newResponseSettings(t, idp, nil)
	a := newTestAuth(t, settings, &authRecorder{})

	r := newTestResponse()
	// Unsigned, so validation fails.
	form := url.Values{}
	form.Set(xmlsec.QuerySAMLResponse, r.encode(t))
	require.NoError(t, a.ProcessResponse(ResponseRequest{Form: form, RequestID: testRequestID}))

	require.False(t, a.IsAuthenticated())
	require.Equal(t, []ErrorKind{KindNoSignedElement}, a.ErrorKinds())
	require.Empty(t, a.NameID())
	require.Contains(t, a.LastResponseXML(), "Response")
}

func TestAuthProcessResponseMissingPayload(t *testing.T) {
	t.Parallel()

	idp := newTestIdP(t)
	a := newTestAuth(t, newResponseSettings(t, idp, nil), &authRecorder{})

	err := a.ProcessResponse(ResponseRequest{Form: url.Values{}})
	var issue *ValidationError
	require.ErrorAs(t, err, &issue)
	require.Equal(t, KindSamlResponseNotFound, issue.Kind)
}

func TestAuthIdPInitiatedLogout(t *testing.T) {
	t.Parallel()

	idp := newTestIdP(t)
	spKeyPEM, spCertPEM := newTestKeyPair(t, "sp.example.com")
	spCert, err := utils.ParseCertificatePEM([]byte(spCertPEM))
	require.NoError(t, err)

	settings := newResponseSettings(t, idp, func(cfg *SettingsConfig) {
		cfg.SP.PrivateKey = spKeyPEM
		cfg.SP.Certificate = spCertPEM
		cfg.Security.WantMessagesSigned = true
		cfg.Security.LogoutResponseSigned = true
	})
	rec := &authRecorder{}
	a := newTestAuth(t, settings, rec)

	payload := forgeIdPLogoutRequest(t, nil)
	query := signIdPQuery(t, idp, xmlsec.QuerySAMLRequest, payload, testRelayStateHome)

	redirectURL, err := a.ProcessSLO(SLORequest{Query: query})
	require.NoError(t, err)
	require.Empty(t, a.Errors())
	require.Equal(t, 1, rec.deletions)
	require.Equal(t, []string{redirectURL}, rec.redirects)
	require.True(t, strings.HasPrefix(redirectURL, testIdPSLORetURL+"?"))
	require.Contains(t, a.LastRequestXML(), "alice@example.com")

	u, err := url.Parse(redirectURL)
	require.NoError(t, err)
	values := u.Query()
	require.Equal(t, testRelayStateHome, values.Get(xmlsec.QueryRelayState))
	require.Equal(t, samlsp.SignatureRSASHA256, values.Get(xmlsec.QuerySigAlg))

	// The logout response query is signed with the SP key.
	signedQuery := xmlsec.BuildRawSignedQuery(xmlsec.QuerySAMLResponse,
		xmlsec.RawQueryParameter(u.RawQuery, xmlsec.QuerySAMLResponse),
		xmlsec.RawQueryParameter(u.RawQuery, xmlsec.QueryRelayState),
		xmlsec.RawQueryParameter(u.RawQuery, xmlsec.QuerySigAlg),
	)
	require.NoError(t, xmlsec.VerifyQuery([]*x509.Certificate{spCert},
		values.Get(xmlsec.QuerySigAlg), signedQuery, values.Get(xmlsec.QuerySignature), false))

	root := decodeRedirectPayload(t, values.Get(xmlsec.QuerySAMLResponse))
	require.Equal(t, "LogoutResponse", root.Tag)
	require.Equal(t, "id-idp-logout-request", root.SelectAttrValue("InResponseTo", ""))
	status := xmlsec.FindChild(root, samlsp.NamespaceProtocol, "Status")
	code := xmlsec.FindChild(status, samlsp.NamespaceProtocol, "StatusCode")
	require.NotNil(t, code)
	require.Equal(t, samlsp.StatusSuccess, code.SelectAttrValue("Value", ""))
}

func TestAuthIdPInitiatedLogoutStay(t *testing.T) {
	t.Parallel()

	idp := newTestIdP(t)
	settings := newResponseSettings(t, idp, nil)
	rec := &authRecorder{}
	a := newTestAuth(t, settings, rec)

	payload := forgeIdPLogoutRequest(t, nil)
	query := url.Values{}
	query.Set(xmlsec.QuerySAMLRequest, payload)

	redirectURL, err := a.ProcessSLO(SLORequest{Query: query, Stay: true})
	require.NoError(t, err)
	require.Empty(t, a.Errors())
	require.NotEmpty(t, redirectURL)
	require.Empty(t, rec.redirects)
	require.Equal(t, 1, rec.deletions)
}

func TestAuthIdPInitiatedLogoutUnsignedRejected(t *testing.T) {
	t.Parallel()

	idp := newTestIdP(t)
	settings := newResponseSettings(t, idp, func(cfg *SettingsConfig) {
		cfg.Security.WantMessagesSigned = true
	})
	rec := &authRecorder{}
	a := newTestAuth(t, settings, rec)

	query := url.Values{}
	query.Set(xmlsec.QuerySAMLRequest, forgeIdPLogoutRequest(t, nil))

	redirectURL, err := a.ProcessSLO(SLORequest{Query: query})
	require.NoError(t, err)
	require.Empty(t, redirectURL)
	require.Equal(t, []ErrorKind{KindNoSignedElement}, a.ErrorKinds())
	require.Zero(t, rec.deletions)
}

func TestAuthIdPInitiatedLogoutRawQueryVerification(t *testing.T) {
	t.Parallel()

	idp := newTestIdP(t)

	// The sender percent-encodes with lowercase hex, unlike this package, so
	// signatures only verify over the raw octets as received.
	payload := forgeIdPLogoutRequest(t, nil)
	sigAlg := samlsp.SignatureRSASHA256
	signedQuery := xmlsec.BuildSignedQuery(xmlsec.QuerySAMLRequest, payload, testRelayStateHome, sigAlg, true)
	key, _, err := idp.keyStore.GetKeyPair()
	require.NoError(t, err)
	signature, err := xmlsec.SignQuery(key, sigAlg, signedQuery)
	require.NoError(t, err)
	rawQuery := signedQuery + "&" + xmlsec.QuerySignature + "=" + xmlsec.EncodeQueryComponent(signature, true)
	parsed, err := url.ParseQuery(rawQuery)
	require.NoError(t, err)

	t.Run("re-encoded octets do not verify", func(t *testing.T) {
		rec := &authRecorder{}
		a := newTestAuth(t, newResponseSettings(t, idp, nil), rec)

		redirectURL, err := a.ProcessSLO(SLORequest{Query: parsed})
		require.NoError(t, err)
		require.Empty(t, redirectURL)
		require.Equal(t, []ErrorKind{KindInvalidSignature}, a.ErrorKinds())
		require.Zero(t, rec.deletions)
	})

	t.Run("raw octets verify", func(t *testing.T) {
		rec := &authRecorder{}
		a := newTestAuth(t, newResponseSettings(t, idp, nil), rec)

		redirectURL, err := a.ProcessSLO(SLORequest{
			Query:                        parsed,
			RawQuery:                     rawQuery,
			RetrieveParametersFromServer: true,
		})
		require.NoError(t, err)
		require.Empty(t, a.Errors())
		require.NotEmpty(t, redirectURL)
		require.Equal(t, 1, rec.deletions)
	})
}

func TestAuthSPInitiatedLogout(t *testing.T) {
	t.Parallel()

	idp := newTestIdP(t)
	settings := newResponseSettings(t, idp, nil)
	rec := &authRecorder{}
	a := newTestAuth(t, settings, rec)

	// Authenticate first so the logout request inherits the session.
	r := newTestResponse()
	r.signAssertion(t, idp.signer())
	form := url.Values{}
	form.Set(xmlsec.QuerySAMLResponse, r.encode(t))
	require.NoError(t, a.ProcessResponse(ResponseRequest{Form: form, RequestID: testRequestID}))
	require.True(t, a.IsAuthenticated())

	logoutURL, err := a.Logout(LogoutParams{ReturnTo: testRelayStateHome, Stay: true})
	require.NoError(t, err)
	require.Empty(t, rec.redirects)
	require.True(t, strings.HasPrefix(logoutURL, testIdPSLOURL+"?"))

	u, err := url.Parse(logoutURL)
	require.NoError(t, err)
	root := decodeRedirectPayload(t, u.Query().Get(xmlsec.QuerySAMLRequest))
	require.Equal(t, "LogoutRequest", root.Tag)
	require.Equal(t, a.LastRequestID(), root.SelectAttrValue("ID", ""))
	nameID := xmlsec.FindChild(root, samlsp.NamespaceAssertion, "NameID")
	require.Equal(t, "alice@example.com", xmlsec.ElementText(nameID))
	require.Equal(t, samlsp.NameIDFormatEmailAddress, nameID.SelectAttrValue("Format", ""))
	indexes := xmlsec.FindChildren(root, samlsp.NamespaceProtocol, "SessionIndex")
	require.Len(t, indexes, 1)
	require.Equal(t, "session-abc", indexes[0].Text())

	// The IdP acknowledges and the local session goes away.
	answer := forgeIdPLogoutResponse(t, a.LastRequestID(), samlsp.StatusSuccess, nil)
	query := url.Values{}
	query.Set(xmlsec.QuerySAMLResponse, answer)
	redirectURL, err := a.ProcessSLO(SLORequest{Query: query})
	require.NoError(t, err)
	require.Empty(t, redirectURL)
	require.Empty(t, a.Errors())
	require.Equal(t, 1, rec.deletions)
}

func TestAuthProcessSLOMissingMessage(t *testing.T) {
	t.Parallel()

	idp := newTestIdP(t)
	a := newTestAuth(t, newResponseSettings(t, idp, nil), &authRecorder{})

	_, err := a.ProcessSLO(SLORequest{Query: url.Values{}})
	var issue *ValidationError
	require.ErrorAs(t, err, &issue)
	require.Equal(t, KindSamlLogoutMessageNotFound, issue.Kind)
}

func TestAuthLogoutWithoutSLOService(t *testing.T) {
	t.Parallel()

	idp := newTestIdP(t)
	settings := newResponseSettings(t, idp, func(cfg *SettingsConfig) {
		cfg.IdP.SingleLogoutServiceURL = ""
		cfg.IdP.SingleLogoutServiceResponseURL = ""
	})
	a := newTestAuth(t, settings, &authRecorder{})

	_, err := a.Logout(LogoutParams{})
	var issue *ValidationError
	require.ErrorAs(t, err, &issue)
	require.Equal(t, KindSingleLogoutNotSupported, issue.Kind)
}

func TestAuthProcessSLOFailureStatus(t *testing.T) {
	t.Parallel()

	idp := newTestIdP(t)
	rec := &authRecorder{}
	a := newTestAuth(t, newResponseSettings(t, idp, nil), rec)

	answer := forgeIdPLogoutResponse(t, "id-sp-logout-request", samlsp.StatusResponder, nil)
	query := url.Values{}
	query.Set(xmlsec.QuerySAMLResponse, answer)

	redirectURL, err := a.ProcessSLO(SLORequest{Query: query, RequestID: "id-sp-logout-request"})
	require.NoError(t, err)
	require.Empty(t, redirectURL)
	require.Equal(t, []ErrorKind{KindResponseStatusError}, a.ErrorKinds())
	require.Contains(t, a.LastError(), samlsp.StatusResponder)
	require.Zero(t, rec.deletions)
}

func TestAuthProcessSLOKeepLocalSession(t *testing.T) {
	t.Parallel()

	idp := newTestIdP(t)
	rec := &authRecorder{}
	a := newTestAuth(t, newResponseSettings(t, idp, nil), rec)

	answer := forgeIdPLogoutResponse(t, "id-sp-logout-request", samlsp.StatusSuccess, nil)
	query := url.Values{}
	query.Set(xmlsec.QuerySAMLResponse, answer)

	_, err := a.ProcessSLO(SLORequest{
		Query:            query,
		RequestID:        "id-sp-logout-request",
		KeepLocalSession: true,
	})
	require.NoError(t, err)
	require.Empty(t, a.Errors())
	require.Zero(t, rec.deletions)
}

func TestAuthProcessSLODeleteOverride(t *testing.T) {
	t.Parallel()

	idp := newTestIdP(t)
	rec := &authRecorder{}
	a := newTestAuth(t, newResponseSettings(t, idp, nil), rec)

	overridden := 0
	answer := forgeIdPLogoutResponse(t, "id-sp-logout-request", samlsp.StatusSuccess, nil)
	query := url.Values{}
	query.Set(xmlsec.QuerySAMLResponse, answer)

	_, err := a.ProcessSLO(SLORequest{
		Query:     query,
		RequestID: "id-sp-logout-request",
		DeleteSession: func() error {
			overridden++
			return nil
		},
	})
	require.NoError(t, err)
	require.Empty(t, a.Errors())
	require.Equal(t, 1, overridden)
	require.Zero(t, rec.deletions)
}
