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
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"strings"
	"time"

	"github.com/gravitational/trace"
	"github.com/jonboulle/clockwork"
	dsig "github.com/russellhaering/goxmldsig"

	samlsp "github.com/gravitational/samlsp"
	"github.com/gravitational/samlsp/lib/utils"
	"github.com/gravitational/samlsp/lib/xmlsec"
)

// SPSettings describe this service provider.
type SPSettings struct {
	// EntityID is the unique identifier of this service provider, usually
	// its metadata URL.
	EntityID string
	// AssertionConsumerServiceURL receives authentication responses.
	AssertionConsumerServiceURL string
	// AssertionConsumerServiceBinding is the binding of the assertion
	// consumer service. Only the HTTP-POST binding is supported.
	AssertionConsumerServiceBinding string
	// SingleLogoutServiceURL receives logout requests and responses.
	SingleLogoutServiceURL string
	// SingleLogoutServiceBinding is the binding of the single logout
	// service. Only the HTTP-Redirect binding is supported.
	SingleLogoutServiceBinding string
	// NameIDFormat is the identifier format requested from the IdP.
	// Defaults to unspecified.
	NameIDFormat string
	// PrivateKey is the PEM encoded RSA key used for signing and
	// decryption. A bare base64 DER body is accepted as well.
	PrivateKey string
	// Certificate is the PEM encoded certificate matching PrivateKey.
	Certificate string
	// NewCertificate optionally holds the next certificate during key
	// rollover so relying parties can trust both.
	NewCertificate string
}

// IdPSettings describe the identity provider this service provider trusts.
type IdPSettings struct {
	// EntityID is the unique identifier of the identity provider.
	EntityID string
	// SingleSignOnServiceURL receives authentication requests.
	SingleSignOnServiceURL string
	// SingleSignOnServiceBinding is the binding of the single sign-on
	// service. Only the HTTP-Redirect binding is supported.
	SingleSignOnServiceBinding string
	// SingleLogoutServiceURL receives logout requests. Empty when the
	// identity provider does not support single logout.
	SingleLogoutServiceURL string
	// SingleLogoutServiceBinding is the binding of the single logout
	// service. Only the HTTP-Redirect binding is supported.
	SingleLogoutServiceBinding string
	// SingleLogoutServiceResponseURL receives logout responses. Defaults
	// to SingleLogoutServiceURL.
	SingleLogoutServiceResponseURL string
	// Certificates are the PEM encoded signing certificates of the
	// identity provider. Bare base64 DER bodies are accepted as well.
	Certificates []string
	// CertificateFingerprint pins the identity provider certificate by
	// fingerprint instead of carrying the full certificate. Consulted only
	// when Certificates is empty. Colons and case are ignored.
	CertificateFingerprint string
	// CertificateFingerprintAlgorithm names the fingerprint hash, one of
	// sha1, sha256, sha384 or sha512. Defaults to sha1.
	CertificateFingerprintAlgorithm string
}

// SecuritySettings hold the signing and validation toggles.
type SecuritySettings struct {
	// AuthnRequestsSigned signs authentication requests sent to the IdP.
	AuthnRequestsSigned bool
	// LogoutRequestSigned signs logout requests sent to the IdP.
	LogoutRequestSigned bool
	// LogoutResponseSigned signs logout responses sent to the IdP.
	LogoutResponseSigned bool
	// SignMetadata signs the published service provider metadata.
	SignMetadata bool
	// WantMessagesSigned requires a signature on the top level message
	// element of responses and logout messages.
	WantMessagesSigned bool
	// WantAssertionsSigned requires a signature on the assertion.
	WantAssertionsSigned bool
	// WantAssertionsEncrypted requires assertions to arrive encrypted.
	WantAssertionsEncrypted bool
	// WantNameID requires a subject identifier in the assertion. Defaults
	// to true.
	WantNameID *bool
	// WantNameIDEncrypted requires the subject identifier to arrive
	// encrypted, and encrypts the identifier in outbound logout requests.
	WantNameIDEncrypted bool
	// WantAttributeStatement requires at least one attribute statement in
	// the assertion. Defaults to true.
	WantAttributeStatement *bool
	// WantXMLValidation enables structural validation of inbound messages
	// against the protocol schema shape. Defaults to true.
	WantXMLValidation *bool
	// RejectUnsolicitedResponsesWithInResponseTo rejects IdP initiated
	// responses that carry an InResponseTo attribute.
	RejectUnsolicitedResponsesWithInResponseTo bool
	// RejectDeprecatedAlgorithm refuses SHA-1 based signatures and digests
	// and PKCS#1 v1.5 key transport on inbound messages.
	RejectDeprecatedAlgorithm bool
	// LowercaseURLEncoding emits lowercase percent encoding when building
	// signed query strings, for IdPs that canonicalize that way (ADFS).
	LowercaseURLEncoding bool
	// SignatureAlgorithm used for outbound signatures. Defaults to
	// RSA-SHA256.
	SignatureAlgorithm string
	// DigestAlgorithm used for outbound signatures. Defaults to SHA256.
	DigestAlgorithm string
	// RequestedAuthnContext lists the authentication context classes
	// requested in authentication requests. Empty omits the element.
	RequestedAuthnContext []string
	// RequestedAuthnContextComparison is the comparison attribute emitted
	// with RequestedAuthnContext. Defaults to exact.
	RequestedAuthnContextComparison string
	// ClockSkew is the tolerance applied to every temporal comparison.
	ClockSkew time.Duration
}

// Contact is a point of contact published with the service provider.
type Contact struct {
	// Type is the contact type, technical or support.
	Type string
	// GivenName is the contact name.
	GivenName string
	// EmailAddress is the contact email.
	EmailAddress string
}

// Organization describes the organization operating the service provider.
type Organization struct {
	// Name is the organization name.
	Name string
	// DisplayName is the name shown to users.
	DisplayName string
	// URL is the organization URL.
	URL string
}

// SettingsConfig collects everything needed to construct Settings.
type SettingsConfig struct {
	// Strict rejects any deviation from the protocol during validation.
	// Non strict mode keeps collecting issues instead of aborting on the
	// first one. Defaults to true.
	Strict *bool
	// SP describes this service provider.
	SP SPSettings
	// IdP describes the trusted identity provider.
	IdP IdPSettings
	// Security holds the signing and validation toggles.
	Security SecuritySettings
	// CompressRequests deflates outbound requests on the Redirect binding.
	// Defaults to true.
	CompressRequests *bool
	// CompressResponses deflates outbound logout responses on the Redirect
	// binding. Defaults to true.
	CompressResponses *bool
	// SchemasPath optionally points at a local copy of the SAML schema
	// files for external tooling.
	SchemasPath string
	// Contacts are published points of contact.
	Contacts []Contact
	// Organization describes the operating organization.
	Organization *Organization
	// Clock is used for every temporal decision. Wall clock by default.
	Clock clockwork.Clock
}

// CheckAndSetDefaults fills defaults and checks the configuration for
// consistency. Problems are aggregated so a misconfigured provider surfaces
// every issue at once.
func (c *SettingsConfig) CheckAndSetDefaults() error {
	if c.Strict == nil {
		c.Strict = boolPtr(true)
	}
	if c.CompressRequests == nil {
		c.CompressRequests = boolPtr(true)
	}
	if c.CompressResponses == nil {
		c.CompressResponses = boolPtr(true)
	}
	if c.SP.AssertionConsumerServiceBinding == "" {
		c.SP.AssertionConsumerServiceBinding = samlsp.BindingHTTPPost
	}
	if c.SP.SingleLogoutServiceBinding == "" {
		c.SP.SingleLogoutServiceBinding = samlsp.BindingHTTPRedirect
	}
	if c.SP.NameIDFormat == "" {
		c.SP.NameIDFormat = samlsp.NameIDFormatUnspecified
	}
	if c.IdP.SingleSignOnServiceBinding == "" {
		c.IdP.SingleSignOnServiceBinding = samlsp.BindingHTTPRedirect
	}
	if c.IdP.SingleLogoutServiceBinding == "" {
		c.IdP.SingleLogoutServiceBinding = samlsp.BindingHTTPRedirect
	}
	if c.IdP.SingleLogoutServiceResponseURL == "" {
		c.IdP.SingleLogoutServiceResponseURL = c.IdP.SingleLogoutServiceURL
	}
	if c.IdP.CertificateFingerprintAlgorithm == "" {
		c.IdP.CertificateFingerprintAlgorithm = samlsp.FingerprintSHA1
	}
	if c.Security.WantNameID == nil {
		c.Security.WantNameID = boolPtr(true)
	}
	if c.Security.WantAttributeStatement == nil {
		c.Security.WantAttributeStatement = boolPtr(true)
	}
	if c.Security.WantXMLValidation == nil {
		c.Security.WantXMLValidation = boolPtr(true)
	}
	if c.Security.SignatureAlgorithm == "" {
		c.Security.SignatureAlgorithm = samlsp.SignatureRSASHA256
	}
	if c.Security.DigestAlgorithm == "" {
		c.Security.DigestAlgorithm = samlsp.DigestSHA256
	}
	if c.Security.RequestedAuthnContextComparison == "" {
		c.Security.RequestedAuthnContextComparison = samlsp.AuthnContextComparisonExact
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}

	var problems []string
	if c.SP.EntityID == "" {
		problems = append(problems, "missing parameter SP.EntityID")
	}
	if c.SP.AssertionConsumerServiceURL == "" {
		problems = append(problems, "missing parameter SP.AssertionConsumerServiceURL")
	}
	if c.SP.AssertionConsumerServiceBinding != samlsp.BindingHTTPPost {
		problems = append(problems, "only the HTTP-POST binding is supported for the assertion consumer service")
	}
	if c.SP.SingleLogoutServiceBinding != samlsp.BindingHTTPRedirect {
		problems = append(problems, "only the HTTP-Redirect binding is supported for the SP single logout service")
	}
	if c.IdP.EntityID == "" {
		problems = append(problems, "missing parameter IdP.EntityID")
	}
	if c.IdP.SingleSignOnServiceURL == "" {
		problems = append(problems, "missing parameter IdP.SingleSignOnServiceURL")
	}
	if c.IdP.SingleSignOnServiceBinding != samlsp.BindingHTTPRedirect {
		problems = append(problems, "only the HTTP-Redirect binding is supported for the IdP single sign-on service")
	}
	if c.IdP.SingleLogoutServiceBinding != samlsp.BindingHTTPRedirect {
		problems = append(problems, "only the HTTP-Redirect binding is supported for the IdP single logout service")
	}
	if _, err := xmlsec.SignatureHash(c.Security.SignatureAlgorithm); err != nil {
		problems = append(problems, "unsupported signature algorithm "+c.Security.SignatureAlgorithm)
	}
	if _, err := xmlsec.DigestHash(c.Security.DigestAlgorithm); err != nil {
		problems = append(problems, "unsupported digest algorithm "+c.Security.DigestAlgorithm)
	}
	if c.Security.RejectDeprecatedAlgorithm {
		if xmlsec.IsDeprecatedAlgorithm(c.Security.SignatureAlgorithm) {
			problems = append(problems, "deprecated signature algorithm configured while deprecated algorithms are rejected")
		}
		if xmlsec.IsDeprecatedAlgorithm(c.Security.DigestAlgorithm) {
			problems = append(problems, "deprecated digest algorithm configured while deprecated algorithms are rejected")
		}
	}
	switch c.IdP.CertificateFingerprintAlgorithm {
	case samlsp.FingerprintSHA1, samlsp.FingerprintSHA256, samlsp.FingerprintSHA384, samlsp.FingerprintSHA512:
	default:
		problems = append(problems, "unsupported fingerprint algorithm "+c.IdP.CertificateFingerprintAlgorithm)
	}
	switch c.Security.RequestedAuthnContextComparison {
	case samlsp.AuthnContextComparisonExact, samlsp.AuthnContextComparisonMinimum,
		samlsp.AuthnContextComparisonMaximum, samlsp.AuthnContextComparisonBetter:
	default:
		problems = append(problems, "unsupported authentication context comparison "+c.Security.RequestedAuthnContextComparison)
	}
	if c.Security.ClockSkew < 0 {
		problems = append(problems, "clock skew must not be negative")
	}

	needsSPKey := c.Security.AuthnRequestsSigned ||
		c.Security.LogoutRequestSigned ||
		c.Security.LogoutResponseSigned ||
		c.Security.SignMetadata ||
		c.Security.WantAssertionsEncrypted ||
		c.Security.WantNameIDEncrypted
	if needsSPKey && (c.SP.PrivateKey == "" || c.SP.Certificate == "") {
		problems = append(problems, "the security settings require an SP private key and certificate")
	}
	if (c.SP.PrivateKey == "") != (c.SP.Certificate == "") {
		problems = append(problems, "SP.PrivateKey and SP.Certificate must be configured together")
	}
	needsIdPCert := c.Security.WantMessagesSigned || c.Security.WantAssertionsSigned
	if needsIdPCert && len(c.IdP.Certificates) == 0 && c.IdP.CertificateFingerprint == "" {
		problems = append(problems, "the security settings require an IdP certificate or fingerprint")
	}

	for i, contact := range c.Contacts {
		if contact.Type != "technical" && contact.Type != "support" {
			problems = append(problems, "contact type must be technical or support")
		}
		if contact.GivenName == "" || contact.EmailAddress == "" {
			problems = append(problems, fmt.Sprintf("contact %d is missing a name or email address", i))
		}
	}
	if org := c.Organization; org != nil {
		if org.Name == "" || org.DisplayName == "" || org.URL == "" {
			problems = append(problems, "organization requires a name, display name and URL")
		}
	}

	if len(problems) > 0 {
		return trace.Wrap(newError(KindSettingsInvalid, "%s", strings.Join(problems, "; ")))
	}
	return nil
}

// Settings is the immutable configuration shared by every operation of the
// provider. It is safe for concurrent use: nothing mutates it after
// construction except SetStrict, which is meant for call sites that relax
// validation before the settings are shared.
type Settings struct {
	strict bool

	spEntityID       string
	acsURL           string
	spSLOURL         string
	nameIDFormat     string
	keyStore         *utils.KeyStore
	spCertificate    *x509.Certificate
	spNewCertificate *x509.Certificate

	idpEntityID             string
	idpSSOURL               string
	idpSLOURL               string
	idpSLOResponseURL       string
	idpCertificates         []*x509.Certificate
	idpFingerprint          string
	idpFingerprintAlgorithm string

	authnRequestsSigned     bool
	logoutRequestSigned     bool
	logoutResponseSigned    bool
	signMetadata            bool
	wantMessagesSigned      bool
	wantAssertionsSigned    bool
	wantAssertionsEncrypted bool
	wantNameID              bool
	wantNameIDEncrypted     bool
	wantAttributeStatement  bool
	wantXMLValidation       bool
	rejectUnsolicited       bool
	rejectDeprecated        bool
	lowercaseURLEncoding    bool
	signatureAlgorithm      string
	digestAlgorithm         string
	requestedAuthnContext   []string
	authnContextComparison  string
	clockSkew               time.Duration

	compressRequests  bool
	compressResponses bool
	schemasPath       string
	contacts          []Contact
	organization      *Organization
	clock             clockwork.Clock
}

// NewSettings validates the configuration, parses the key material and
// returns the frozen settings.
func NewSettings(cfg SettingsConfig) (*Settings, error) {
	if err := cfg.CheckAndSetDefaults(); err != nil {
		return nil, trace.Wrap(err)
	}

	s := &Settings{
		strict:       *cfg.Strict,
		spEntityID:   cfg.SP.EntityID,
		acsURL:       cfg.SP.AssertionConsumerServiceURL,
		spSLOURL:     cfg.SP.SingleLogoutServiceURL,
		nameIDFormat: cfg.SP.NameIDFormat,

		idpEntityID:             cfg.IdP.EntityID,
		idpSSOURL:               cfg.IdP.SingleSignOnServiceURL,
		idpSLOURL:               cfg.IdP.SingleLogoutServiceURL,
		idpSLOResponseURL:       cfg.IdP.SingleLogoutServiceResponseURL,
		idpFingerprint:          xmlsec.NormalizeFingerprint(cfg.IdP.CertificateFingerprint),
		idpFingerprintAlgorithm: cfg.IdP.CertificateFingerprintAlgorithm,

		authnRequestsSigned:     cfg.Security.AuthnRequestsSigned,
		logoutRequestSigned:     cfg.Security.LogoutRequestSigned,
		logoutResponseSigned:    cfg.Security.LogoutResponseSigned,
		signMetadata:            cfg.Security.SignMetadata,
		wantMessagesSigned:      cfg.Security.WantMessagesSigned,
		wantAssertionsSigned:    cfg.Security.WantAssertionsSigned,
		wantAssertionsEncrypted: cfg.Security.WantAssertionsEncrypted,
		wantNameID:              *cfg.Security.WantNameID,
		wantNameIDEncrypted:     cfg.Security.WantNameIDEncrypted,
		wantAttributeStatement:  *cfg.Security.WantAttributeStatement,
		wantXMLValidation:       *cfg.Security.WantXMLValidation,
		rejectUnsolicited:       cfg.Security.RejectUnsolicitedResponsesWithInResponseTo,
		rejectDeprecated:        cfg.Security.RejectDeprecatedAlgorithm,
		lowercaseURLEncoding:    cfg.Security.LowercaseURLEncoding,
		signatureAlgorithm:      cfg.Security.SignatureAlgorithm,
		digestAlgorithm:         cfg.Security.DigestAlgorithm,
		requestedAuthnContext:   append([]string(nil), cfg.Security.RequestedAuthnContext...),
		authnContextComparison:  cfg.Security.RequestedAuthnContextComparison,
		clockSkew:               cfg.Security.ClockSkew,

		compressRequests:  *cfg.CompressRequests,
		compressResponses: *cfg.CompressResponses,
		schemasPath:       cfg.SchemasPath,
		contacts:          append([]Contact(nil), cfg.Contacts...),
		organization:      cfg.Organization,
		clock:             cfg.Clock,
	}

	if cfg.SP.PrivateKey != "" {
		keyPEM, err := normalizePEM(cfg.SP.PrivateKey, "PRIVATE KEY")
		if err != nil {
			return nil, trace.Wrap(newError(KindSettingsInvalid, "invalid SP private key: %v", err))
		}
		certPEM, err := normalizePEM(cfg.SP.Certificate, "CERTIFICATE")
		if err != nil {
			return nil, trace.Wrap(newError(KindSettingsInvalid, "invalid SP certificate: %v", err))
		}
		keyStore, err := utils.ParseKeyStorePEM(keyPEM, certPEM)
		if err != nil {
			return nil, trace.Wrap(newError(KindSettingsInvalid, "invalid SP key pair: %v", err))
		}
		cert, err := utils.ParseCertificatePEM([]byte(certPEM))
		if err != nil {
			return nil, trace.Wrap(newError(KindSettingsInvalid, "invalid SP certificate: %v", err))
		}
		s.keyStore = keyStore
		s.spCertificate = cert
	}
	if cfg.SP.NewCertificate != "" {
		certPEM, err := normalizePEM(cfg.SP.NewCertificate, "CERTIFICATE")
		if err != nil {
			return nil, trace.Wrap(newError(KindSettingsInvalid, "invalid SP rollover certificate: %v", err))
		}
		cert, err := utils.ParseCertificatePEM([]byte(certPEM))
		if err != nil {
			return nil, trace.Wrap(newError(KindSettingsInvalid, "invalid SP rollover certificate: %v", err))
		}
		s.spNewCertificate = cert
	}
	for i, certificate := range cfg.IdP.Certificates {
		certPEM, err := normalizePEM(certificate, "CERTIFICATE")
		if err != nil {
			return nil, trace.Wrap(newError(KindSettingsInvalid, "invalid IdP certificate %d: %v", i, err))
		}
		cert, err := utils.ParseCertificatePEM([]byte(certPEM))
		if err != nil {
			return nil, trace.Wrap(newError(KindSettingsInvalid, "invalid IdP certificate %d: %v", i, err))
		}
		s.idpCertificates = append(s.idpCertificates, cert)
	}
	return s, nil
}

// Strict reports whether validation aborts on the first deviation.
func (s *Settings) Strict() bool {
	return s.strict
}

// SetStrict toggles strict validation. Call it before the settings are
// shared between goroutines.
func (s *Settings) SetStrict(strict bool) {
	s.strict = strict
}

// SPEntityID returns the service provider entity ID.
func (s *Settings) SPEntityID() string {
	return s.spEntityID
}

// AssertionConsumerServiceURL returns the URL receiving responses.
func (s *Settings) AssertionConsumerServiceURL() string {
	return s.acsURL
}

// SPSingleLogoutServiceURL returns the URL receiving logout messages.
func (s *Settings) SPSingleLogoutServiceURL() string {
	return s.spSLOURL
}

// NameIDFormat returns the identifier format requested from the IdP.
func (s *Settings) NameIDFormat() string {
	return s.nameIDFormat
}

// PrivateKey returns the SP signing and decryption key, nil when the
// provider has no key pair configured.
func (s *Settings) PrivateKey() *rsa.PrivateKey {
	if s.keyStore == nil {
		return nil
	}
	return s.keyStore.PrivateKey()
}

// SPCertificate returns the SP certificate, nil when absent.
func (s *Settings) SPCertificate() *x509.Certificate {
	return s.spCertificate
}

// SPNewCertificate returns the rollover certificate, nil when absent.
func (s *Settings) SPNewCertificate() *x509.Certificate {
	return s.spNewCertificate
}

// IdPEntityID returns the identity provider entity ID.
func (s *Settings) IdPEntityID() string {
	return s.idpEntityID
}

// IdPSSOURL returns the single sign-on endpoint of the identity provider.
func (s *Settings) IdPSSOURL() string {
	return s.idpSSOURL
}

// IdPSLOURL returns the single logout endpoint of the identity provider,
// empty when single logout is not supported.
func (s *Settings) IdPSLOURL() string {
	return s.idpSLOURL
}

// IdPSLOResponseURL returns the endpoint receiving logout responses.
func (s *Settings) IdPSLOResponseURL() string {
	return s.idpSLOResponseURL
}

// IdPCertificates returns the trusted identity provider certificates.
func (s *Settings) IdPCertificates() []*x509.Certificate {
	return append([]*x509.Certificate(nil), s.idpCertificates...)
}

// Clock returns the clock every temporal decision consults.
func (s *Settings) Clock() clockwork.Clock {
	return s.clock
}

// ClockSkew returns the tolerance applied to temporal comparisons.
func (s *Settings) ClockSkew() time.Duration {
	return s.clockSkew
}

// Contacts returns the published points of contact.
func (s *Settings) Contacts() []Contact {
	return append([]Contact(nil), s.contacts...)
}

// Organization returns the operating organization, nil when absent.
func (s *Settings) Organization() *Organization {
	return s.organization
}

// SchemasPath returns the configured schema directory, empty when unset.
func (s *Settings) SchemasPath() string {
	return s.schemasPath
}

// SignMetadata reports whether published metadata should carry a signature.
func (s *Settings) SignMetadata() bool {
	return s.signMetadata
}

// verifyOptions assembles the signature verification options shared by the
// response and logout validators.
func (s *Settings) verifyOptions() xmlsec.VerifyOptions {
	return xmlsec.VerifyOptions{
		Certificates:         s.idpCertificates,
		Fingerprint:          s.idpFingerprint,
		FingerprintAlgorithm: s.idpFingerprintAlgorithm,
		RejectDeprecated:     s.rejectDeprecated,
		Clock:                dsig.NewFakeClock(s.clock),
	}
}

// signerConfig assembles the signing configuration for outbound messages.
func (s *Settings) signerConfig() (xmlsec.SignerConfig, error) {
	if s.keyStore == nil {
		return xmlsec.SignerConfig{}, trace.Wrap(newError(KindPrivateKeyNotFound, "signing requires an SP private key"))
	}
	return xmlsec.SignerConfig{
		KeyStore:           s.keyStore,
		SignatureAlgorithm: s.signatureAlgorithm,
		DigestAlgorithm:    s.digestAlgorithm,
	}, nil
}

// encryptionCertificate returns the certificate outbound encrypted elements
// are wrapped for.
func (s *Settings) encryptionCertificate() (*x509.Certificate, error) {
	if len(s.idpCertificates) == 0 {
		return nil, trace.Wrap(newError(KindSettingsInvalid, "encryption requires an IdP certificate, a fingerprint is not enough"))
	}
	return s.idpCertificates[0], nil
}

// normalizePEM accepts either a full PEM block or the bare base64 DER body
// IdP metadata documents usually carry, and returns canonical PEM.
func normalizePEM(material, blockType string) (string, error) {
	trimmed := strings.TrimSpace(material)
	if trimmed == "" {
		return "", trace.BadParameter("empty PEM input")
	}
	if strings.Contains(trimmed, "-----BEGIN") {
		return trimmed + "\n", nil
	}
	der, err := base64.StdEncoding.DecodeString(deleteWhitespace(trimmed))
	if err != nil {
		return "", trace.Wrap(err, "input is neither PEM nor base64 DER")
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})), nil
}

func deleteWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)
}

func boolPtr(b bool) *bool {
	return &b
}
