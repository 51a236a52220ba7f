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

// Package saml implements the service provider side of SAML 2.0 web browser
// single sign-on: building authentication and logout messages, validating
// and decrypting what the identity provider sends back, and driving the
// single logout exchange. Transport stays with the caller. Inbound messages
// arrive as parsed form and query values, outbound messages leave as
// redirect URLs: authentication responses are consumed on the HTTP-POST
// binding, everything else travels on HTTP-Redirect.
package saml

import (
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/gravitational/trace"

	samlsp "github.com/gravitational/samlsp"
	"github.com/gravitational/samlsp/lib/xmlsec"
)

// AuthConfig configures an Auth orchestrator.
type AuthConfig struct {
	// Settings is the frozen provider configuration.
	Settings *Settings
	// DeleteSession terminates the local session when a logout message
	// demands it. No-op when nil; session storage stays with the caller.
	DeleteSession func() error
	// Redirect sends the browser to an outbound URL when a call is not
	// asked to stay. No-op when nil; the URL is returned either way.
	Redirect func(url string) error
	// Logger emits validation diagnostics.
	Logger *slog.Logger
}

// CheckAndSetDefaults validates the configuration and fills defaults.
func (c *AuthConfig) CheckAndSetDefaults() error {
	if c.Settings == nil {
		return trace.BadParameter("missing parameter Settings")
	}
	if c.DeleteSession == nil {
		c.DeleteSession = func() error { return nil }
	}
	if c.Redirect == nil {
		c.Redirect = func(string) error { return nil }
	}
	if c.Logger == nil {
		c.Logger = slog.Default().With(samlsp.ComponentKey, samlsp.ComponentSAML)
	}
	return nil
}

// Auth drives one browser's sign-on and logout exchanges against the
// configured identity provider. Message validation failures never surface
// as returned errors: they accumulate in Errors and leave the orchestrator
// unauthenticated, so the caller decides how to degrade. Returned errors
// are reserved for misuse, such as a callback without a SAML message.
//
// An Auth holds per-exchange state and is not safe for concurrent use. The
// Settings it reads are.
type Auth struct {
	settings      *Settings
	deleteSession func() error
	redirect      func(string) error
	logger        *slog.Logger

	authenticated bool
	session       *Session

	errs    []*ValidationError
	lastErr *ValidationError

	lastRequestID             string
	lastRequestXML            string
	lastResponseXML           string
	lastMessageID             string
	lastAssertionID           string
	lastAssertionNotOnOrAfter time.Time
	relayState                string
}

// NewAuth returns an orchestrator over the given settings.
func NewAuth(cfg AuthConfig) (*Auth, error) {
	if err := cfg.CheckAndSetDefaults(); err != nil {
		return nil, trace.Wrap(err)
	}
	return &Auth{
		settings:      cfg.Settings,
		deleteSession: cfg.DeleteSession,
		redirect:      cfg.Redirect,
		logger:        cfg.Logger,
	}, nil
}

// LoginParams tune a single authentication redirect.
type LoginParams struct {
	// ReturnTo is round-tripped through the IdP as RelayState.
	ReturnTo string
	// Extras are appended to the redirect query outside the signed portion.
	Extras url.Values
	// ForceAuthn asks the IdP to re-authenticate the user.
	ForceAuthn bool
	// IsPassive forbids the IdP from interacting with the user.
	IsPassive bool
	// Stay suppresses the redirect callback; the URL is only returned.
	Stay bool
	// SetNameIDPolicy emits a NameIDPolicy element. Defaults to true.
	SetNameIDPolicy *bool
	// NameIDValueReq hints the subject the response should be about.
	NameIDValueReq string
}

// Login builds an authentication request and returns the redirect URL to
// the identity provider single sign-on service, signing the query when the
// settings demand it. The request identifier is retained so the response
// can be correlated through ProcessResponse.
func (a *Auth) Login(params LoginParams) (string, error) {
	if params.SetNameIDPolicy == nil {
		params.SetNameIDPolicy = boolPtr(true)
	}
	request, err := NewAuthnRequest(a.settings, AuthnRequestOptions{
		ForceAuthn:      params.ForceAuthn,
		IsPassive:       params.IsPassive,
		SetNameIDPolicy: *params.SetNameIDPolicy,
		NameIDValueReq:  params.NameIDValueReq,
	})
	if err != nil {
		return "", trace.Wrap(err)
	}
	xml, err := request.XML()
	if err != nil {
		return "", trace.Wrap(err)
	}
	a.lastRequestID = request.ID()
	a.lastRequestXML = xml

	payload, err := request.EncodedString()
	if err != nil {
		return "", trace.Wrap(err)
	}
	query, err := a.messageQuery(xmlsec.QuerySAMLRequest, payload, params.ReturnTo, a.settings.authnRequestsSigned)
	if err != nil {
		return "", trace.Wrap(err)
	}
	redirectURL, err := buildRedirectURL(a.settings.idpSSOURL, query, params.Extras)
	if err != nil {
		return "", trace.Wrap(err)
	}
	a.logger.Debug("Built authentication request redirect.", "request_id", request.ID())
	if !params.Stay {
		if err := a.redirect(redirectURL); err != nil {
			return "", trace.Wrap(err)
		}
	}
	return redirectURL, nil
}

// LogoutParams tune a single logout redirect.
type LogoutParams struct {
	// ReturnTo is round-tripped through the IdP as RelayState.
	ReturnTo string
	// Extras are appended to the redirect query outside the signed portion.
	Extras url.Values
	// NameID identifies the subject being logged out. Defaults to the
	// identifier of the authenticated session.
	NameID string
	// NameIDFormat overrides the identifier format.
	NameIDFormat string
	// NameIDNameQualifier qualifies the identifier.
	NameIDNameQualifier string
	// NameIDSPNameQualifier qualifies the identifier on the SP side.
	NameIDSPNameQualifier string
	// SessionIndexes scope the logout. Defaults to the session index of the
	// authenticated session.
	SessionIndexes []string
	// Stay suppresses the redirect callback; the URL is only returned.
	Stay bool
}

// Logout builds a logout request and returns the redirect URL to the
// identity provider single logout service. The IdP answers with a
// LogoutResponse, consumed by ProcessSLO. Calling Logout against an IdP
// without a single logout service is an error.
func (a *Auth) Logout(params LogoutParams) (string, error) {
	if a.settings.idpSLOURL == "" {
		return "", trace.Wrap(newError(KindSingleLogoutNotSupported, "the identity provider does not expose a single logout service"))
	}
	nameID := params.NameID
	format := params.NameIDFormat
	nameQualifier := params.NameIDNameQualifier
	spNameQualifier := params.NameIDSPNameQualifier
	sessionIndexes := params.SessionIndexes
	if a.session != nil {
		if nameID == "" {
			nameID = a.session.NameID
			if format == "" {
				format = a.session.NameIDFormat
			}
			if nameQualifier == "" {
				nameQualifier = a.session.NameIDNameQualifier
			}
			if spNameQualifier == "" {
				spNameQualifier = a.session.NameIDSPNameQualifier
			}
		}
		if len(sessionIndexes) == 0 && a.session.SessionIndex != "" {
			sessionIndexes = []string{a.session.SessionIndex}
		}
	}

	request, err := NewLogoutRequest(a.settings, LogoutRequestOptions{
		NameID:                nameID,
		NameIDFormat:          format,
		NameIDNameQualifier:   nameQualifier,
		NameIDSPNameQualifier: spNameQualifier,
		SessionIndexes:        sessionIndexes,
	})
	if err != nil {
		return "", trace.Wrap(err)
	}
	xml, err := request.XML()
	if err != nil {
		return "", trace.Wrap(err)
	}
	a.lastRequestID = request.ID()
	a.lastRequestXML = xml

	payload, err := request.EncodedString()
	if err != nil {
		return "", trace.Wrap(err)
	}
	query, err := a.messageQuery(xmlsec.QuerySAMLRequest, payload, params.ReturnTo, a.settings.logoutRequestSigned)
	if err != nil {
		return "", trace.Wrap(err)
	}
	redirectURL, err := buildRedirectURL(a.settings.idpSLOURL, query, params.Extras)
	if err != nil {
		return "", trace.Wrap(err)
	}
	a.logger.Debug("Built logout request redirect.", "request_id", request.ID())
	if !params.Stay {
		if err := a.redirect(redirectURL); err != nil {
			return "", trace.Wrap(err)
		}
	}
	return redirectURL, nil
}

// ResponseRequest carries the form of one POST binding callback.
type ResponseRequest struct {
	// Form holds the posted parameters. SAMLResponse is mandatory.
	Form url.Values
	// RequestID is the identifier of the authentication request this
	// response must answer. Empty accepts IdP initiated responses unless
	// the settings reject unsolicited ones.
	RequestID string
}

// ProcessResponse validates the authentication response posted to the
// assertion consumer service and, when every check passes, installs the
// extracted session and flips the orchestrator to authenticated.
func (a *Auth) ProcessResponse(req ResponseRequest) error {
	encoded := req.Form.Get(xmlsec.QuerySAMLResponse)
	if encoded == "" {
		return trace.Wrap(newError(KindSamlResponseNotFound, "SAMLResponse not found in the posted form, only the HTTP-POST binding is supported"))
	}
	a.authenticated = false
	a.session = nil
	a.errs = nil
	a.lastErr = nil
	a.relayState = req.Form.Get(xmlsec.QueryRelayState)

	session, issues := validateResponse(a.settings, encoded, req.RequestID)
	a.lastResponseXML = session.ResponseXML
	if len(issues) > 0 {
		a.recordIssues(issues)
		return nil
	}
	a.session = session
	a.authenticated = true
	a.lastMessageID = session.ResponseID
	a.lastAssertionID = session.AssertionID
	a.lastAssertionNotOnOrAfter = session.AssertionNotOnOrAfter
	a.logger.Debug("Accepted authentication response.",
		"name_id", session.NameID,
		"session_index", session.SessionIndex,
	)
	return nil
}

// SLORequest carries the query of one Redirect binding logout callback.
type SLORequest struct {
	// Query holds the parsed query parameters. Exactly one of SAMLRequest
	// or SAMLResponse must be present.
	Query url.Values
	// RawQuery is the query string exactly as received. Consulted when
	// RetrieveParametersFromServer is set so signatures verify over the
	// sender's own percent-encoding.
	RawQuery string
	// RequestID is the identifier of the logout request this response must
	// answer. Defaults to the identifier of the last request built here.
	RequestID string
	// KeepLocalSession leaves the local session untouched.
	KeepLocalSession bool
	// Stay suppresses the redirect callback on IdP initiated logout.
	Stay bool
	// RetrieveParametersFromServer rebuilds the signed octets from RawQuery
	// instead of re-encoding the parsed values. Required against providers
	// whose encoding differs from this package's, such as ADFS.
	RetrieveParametersFromServer bool
	// DeleteSession overrides the configured session removal for this call.
	DeleteSession func() error
}

// ProcessSLO handles one single logout callback. An IdP initiated
// LogoutRequest terminates the local session and is answered with the
// returned LogoutResponse redirect URL; a LogoutResponse answering a logout
// this provider initiated terminates the local session and returns no URL.
func (a *Auth) ProcessSLO(req SLORequest) (string, error) {
	a.errs = nil
	a.lastErr = nil

	deleteSession := req.DeleteSession
	if deleteSession == nil {
		deleteSession = a.deleteSession
	}

	if encoded := req.Query.Get(xmlsec.QuerySAMLResponse); encoded != "" {
		return "", trace.Wrap(a.processLogoutResponse(req, encoded, deleteSession))
	}
	if encoded := req.Query.Get(xmlsec.QuerySAMLRequest); encoded != "" {
		redirectURL, err := a.processLogoutRequest(req, encoded, deleteSession)
		return redirectURL, trace.Wrap(err)
	}
	return "", trace.Wrap(newError(KindSamlLogoutMessageNotFound, "neither SAMLRequest nor SAMLResponse found in the query, only the HTTP-Redirect binding is supported"))
}

func (a *Auth) processLogoutResponse(req SLORequest, encoded string, deleteSession func() error) error {
	response, err := ParseLogoutResponse(a.settings, encoded)
	if err != nil {
		a.recordIssues([]*ValidationError{asValidationError(err)})
		return nil
	}
	a.lastResponseXML = response.XML()

	expected := req.RequestID
	if expected == "" {
		expected = a.lastRequestID
	}
	issues := response.Validate(expected)
	if len(issues) == 0 || !a.settings.strict {
		if issue := a.verifyQuerySignature(req, xmlsec.QuerySAMLResponse); issue != nil {
			issues = append(issues, issue)
		}
	}
	if len(issues) > 0 {
		a.recordIssues(issues)
		return nil
	}
	if !req.KeepLocalSession {
		if err := deleteSession(); err != nil {
			return trace.Wrap(err)
		}
	}
	a.logger.Debug("Single logout completed.", "in_response_to", response.InResponseTo)
	return nil
}

func (a *Auth) processLogoutRequest(req SLORequest, encoded string, deleteSession func() error) (string, error) {
	request, err := ParseLogoutRequest(a.settings, encoded)
	if err != nil {
		a.recordIssues([]*ValidationError{asValidationError(err)})
		return "", nil
	}
	a.lastRequestXML = request.XML()

	issues := request.Validate()
	if len(issues) == 0 || !a.settings.strict {
		if issue := a.verifyQuerySignature(req, xmlsec.QuerySAMLRequest); issue != nil {
			issues = append(issues, issue)
		}
	}
	if len(issues) > 0 {
		a.recordIssues(issues)
		return "", nil
	}
	if !req.KeepLocalSession {
		if err := deleteSession(); err != nil {
			return "", trace.Wrap(err)
		}
	}

	response, err := NewLogoutResponse(a.settings, request.ID)
	if err != nil {
		return "", trace.Wrap(err)
	}
	xml, err := response.XML()
	if err != nil {
		return "", trace.Wrap(err)
	}
	a.lastResponseXML = xml

	payload, err := response.EncodedString()
	if err != nil {
		return "", trace.Wrap(err)
	}
	query, err := a.messageQuery(xmlsec.QuerySAMLResponse, payload, req.Query.Get(xmlsec.QueryRelayState), a.settings.logoutResponseSigned)
	if err != nil {
		return "", trace.Wrap(err)
	}
	redirectURL, err := buildRedirectURL(a.settings.idpSLOResponseURL, query, nil)
	if err != nil {
		return "", trace.Wrap(err)
	}
	a.logger.Debug("Answering identity provider initiated logout.",
		"in_response_to", request.ID,
		"name_id", request.NameID,
	)
	if !req.Stay {
		if err := a.redirect(redirectURL); err != nil {
			return "", trace.Wrap(err)
		}
	}
	return redirectURL, nil
}

// verifyQuerySignature checks the Redirect binding signature over the query
// that carried parameter. Unsigned messages pass unless the settings
// require signed messages.
func (a *Auth) verifyQuerySignature(req SLORequest, parameter string) *ValidationError {
	signature := req.Query.Get(xmlsec.QuerySignature)
	if signature == "" {
		if a.settings.wantMessagesSigned {
			return newError(KindNoSignedElement, "the logout message is not signed and the settings require it")
		}
		return nil
	}
	if len(a.settings.idpCertificates) == 0 {
		return newError(KindInvalidSignature, "verifying a query signature requires an IdP certificate, a fingerprint is not enough")
	}
	sigAlg := req.Query.Get(xmlsec.QuerySigAlg)
	if sigAlg == "" {
		// The binding's default when SigAlg is omitted.
		sigAlg = samlsp.SignatureRSASHA1
	}
	var signedQuery string
	if req.RetrieveParametersFromServer {
		signedQuery = xmlsec.BuildRawSignedQuery(parameter,
			xmlsec.RawQueryParameter(req.RawQuery, parameter),
			xmlsec.RawQueryParameter(req.RawQuery, xmlsec.QueryRelayState),
			xmlsec.RawQueryParameter(req.RawQuery, xmlsec.QuerySigAlg),
		)
	} else {
		signedQuery = xmlsec.BuildSignedQuery(parameter,
			req.Query.Get(parameter),
			req.Query.Get(xmlsec.QueryRelayState),
			sigAlg,
			a.settings.lowercaseURLEncoding,
		)
	}
	if err := xmlsec.VerifyQuery(a.settings.idpCertificates, sigAlg, signedQuery, signature, a.settings.rejectDeprecated); err != nil {
		return wrapError(signatureErrorKind(err), err, "the logout message query signature does not verify")
	}
	return nil
}

// messageQuery assembles the redirect query carrying one outbound message.
// When signing, the emitted query and the signed octets are the same
// string, so verifiers that reconstruct from the raw query observe exactly
// what was signed.
func (a *Auth) messageQuery(parameter, payload, relayState string, sign bool) (string, error) {
	if !sign {
		query := parameter + "=" + xmlsec.EncodeQueryComponent(payload, a.settings.lowercaseURLEncoding)
		if relayState != "" {
			query += "&" + xmlsec.QueryRelayState + "=" + xmlsec.EncodeQueryComponent(relayState, a.settings.lowercaseURLEncoding)
		}
		return query, nil
	}
	signature, err := a.buildQuerySignature(parameter, payload, relayState)
	if err != nil {
		return "", trace.Wrap(err)
	}
	query := xmlsec.BuildSignedQuery(parameter, payload, relayState, a.settings.signatureAlgorithm, a.settings.lowercaseURLEncoding)
	return query + "&" + xmlsec.QuerySignature + "=" + xmlsec.EncodeQueryComponent(signature, a.settings.lowercaseURLEncoding), nil
}

func (a *Auth) buildQuerySignature(parameter, payload, relayState string) (string, error) {
	key := a.settings.PrivateKey()
	if key == nil {
		return "", trace.Wrap(newError(KindPrivateKeyNotFound, "signing the redirect query requires an SP private key"))
	}
	signedQuery := xmlsec.BuildSignedQuery(parameter, payload, relayState, a.settings.signatureAlgorithm, a.settings.lowercaseURLEncoding)
	signature, err := xmlsec.SignQuery(key, a.settings.signatureAlgorithm, signedQuery)
	if err != nil {
		return "", trace.Wrap(err)
	}
	return signature, nil
}

// BuildRequestSignature signs the Redirect binding octets of an encoded
// SAMLRequest and returns the base64 signature value.
func (a *Auth) BuildRequestSignature(samlRequest, relayState string) (string, error) {
	signature, err := a.buildQuerySignature(xmlsec.QuerySAMLRequest, samlRequest, relayState)
	return signature, trace.Wrap(err)
}

// BuildResponseSignature signs the Redirect binding octets of an encoded
// SAMLResponse and returns the base64 signature value.
func (a *Auth) BuildResponseSignature(samlResponse, relayState string) (string, error) {
	signature, err := a.buildQuerySignature(xmlsec.QuerySAMLResponse, samlResponse, relayState)
	return signature, trace.Wrap(err)
}

// buildRedirectURL attaches the message query to an endpoint URL,
// preserving any query the endpoint already carries and appending extras
// outside the signed portion.
func buildRedirectURL(endpoint, messageQuery string, extras url.Values) (string, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return "", trace.Wrap(err, "invalid endpoint URL %q", endpoint)
	}
	rawQuery := messageQuery
	if parsed.RawQuery != "" {
		rawQuery = parsed.RawQuery + "&" + messageQuery
	}
	if len(extras) > 0 {
		rawQuery += "&" + extras.Encode()
	}
	parsed.RawQuery = rawQuery
	return parsed.String(), nil
}

func (a *Auth) recordIssues(issues []*ValidationError) {
	a.errs = append(a.errs, issues...)
	if len(a.errs) > 0 {
		a.lastErr = a.errs[len(a.errs)-1]
		a.logger.Warn("Message validation failed.",
			"kind", string(a.lastErr.Kind),
			"error", a.lastErr.Error(),
		)
	}
}

// asValidationError extracts the ValidationError carried by err, wrapping
// foreign errors as invalid XML.
func asValidationError(err error) *ValidationError {
	var issue *ValidationError
	if errors.As(err, &issue) {
		return issue
	}
	return wrapError(KindInvalidXml, err, "%v", err)
}

// Settings returns the provider configuration.
func (a *Auth) Settings() *Settings {
	return a.settings
}

// IsAuthenticated reports whether the most recent ProcessResponse call
// validated cleanly.
func (a *Auth) IsAuthenticated() bool {
	return a.authenticated
}

// NameID returns the authenticated subject identifier, empty before a
// successful ProcessResponse.
func (a *Auth) NameID() string {
	if a.session == nil {
		return ""
	}
	return a.session.NameID
}

// NameIDFormat returns the format of the authenticated subject identifier.
func (a *Auth) NameIDFormat() string {
	if a.session == nil {
		return ""
	}
	return a.session.NameIDFormat
}

// NameIDNameQualifier returns the qualifier of the subject identifier.
func (a *Auth) NameIDNameQualifier() string {
	if a.session == nil {
		return ""
	}
	return a.session.NameIDNameQualifier
}

// NameIDSPNameQualifier returns the SP side qualifier of the subject
// identifier.
func (a *Auth) NameIDSPNameQualifier() string {
	if a.session == nil {
		return ""
	}
	return a.session.NameIDSPNameQualifier
}

// Attributes returns the assertion attributes keyed by attribute name.
func (a *Auth) Attributes() map[string][]string {
	if a.session == nil {
		return nil
	}
	return a.session.Attributes
}

// AttributesWithFriendlyName returns the assertion attributes keyed by
// friendly name, for the attributes that carry one.
func (a *Auth) AttributesWithFriendlyName() map[string][]string {
	if a.session == nil {
		return nil
	}
	return a.session.AttributesWithFriendlyName
}

// Attribute returns the values of one attribute by name, nil when absent.
func (a *Auth) Attribute(name string) []string {
	if a.session == nil {
		return nil
	}
	return a.session.Attributes[name]
}

// AttributeWithFriendlyName returns the values of one attribute by friendly
// name, nil when absent.
func (a *Auth) AttributeWithFriendlyName(name string) []string {
	if a.session == nil {
		return nil
	}
	return a.session.AttributesWithFriendlyName[name]
}

// SessionIndex returns the IdP session handle, echoed in logout requests.
func (a *Auth) SessionIndex() string {
	if a.session == nil {
		return ""
	}
	return a.session.SessionIndex
}

// SessionExpiration returns the IdP session bound, zero when the assertion
// carried none.
func (a *Auth) SessionExpiration() time.Time {
	if a.session == nil {
		return time.Time{}
	}
	return a.session.SessionNotOnOrAfter
}

// Errors returns the validation failures of the most recent process call.
func (a *Auth) Errors() []*ValidationError {
	return append([]*ValidationError(nil), a.errs...)
}

// ErrorKinds flattens Errors into their stable telemetry labels.
func (a *Auth) ErrorKinds() []ErrorKind {
	kinds := make([]ErrorKind, 0, len(a.errs))
	for _, issue := range a.errs {
		kinds = append(kinds, issue.Kind)
	}
	return kinds
}

// LastError returns the readable rendering of the most recent validation
// failure, empty when the last process call succeeded.
func (a *Auth) LastError() string {
	if a.lastErr == nil {
		return ""
	}
	return a.lastErr.Error()
}

// LastErrorException returns the most recent validation failure with its
// cause chain, nil when the last process call succeeded.
func (a *Auth) LastErrorException() error {
	if a.lastErr == nil {
		return nil
	}
	return a.lastErr
}

// LastRequestID returns the identifier of the most recent request built by
// this provider.
func (a *Auth) LastRequestID() string {
	return a.lastRequestID
}

// LastRequestXML returns the most recent request document: the last one
// built here, or the last inbound logout request.
func (a *Auth) LastRequestXML() string {
	return a.lastRequestXML
}

// LastResponseXML returns the most recently processed response document, in
// decrypted form once decryption happened, or the last logout response
// built here.
func (a *Auth) LastResponseXML() string {
	return a.lastResponseXML
}

// LastMessageID returns the identifier of the most recently accepted
// response message.
func (a *Auth) LastMessageID() string {
	return a.lastMessageID
}

// LastAssertionID returns the identifier of the most recently consumed
// assertion. Replay protection is the caller's: persist the identifier
// until LastAssertionNotOnOrAfter and refuse to accept it twice.
func (a *Auth) LastAssertionID() string {
	return a.lastAssertionID
}

// LastAssertionNotOnOrAfter returns the expiry of the consumed assertion's
// bearer confirmation, the horizon a replay cache must keep its ID for.
func (a *Auth) LastAssertionNotOnOrAfter() time.Time {
	return a.lastAssertionNotOnOrAfter
}

// RelayState returns the RelayState of the most recently processed
// response, typically the URL to send the browser back to.
func (a *Auth) RelayState() string {
	return a.relayState
}
