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
	"encoding/base64"
	"time"

	"github.com/beevik/etree"
	"github.com/gravitational/trace"

	samlsp "github.com/gravitational/samlsp"
	"github.com/gravitational/samlsp/lib/xmlsec"
)

// LogoutRequestOptions tune a single outbound logout request.
type LogoutRequestOptions struct {
	// NameID identifies the subject being logged out. Defaults to the IdP
	// entity ID with the entity format, the identifier of last resort.
	NameID string
	// NameIDFormat overrides the identifier format.
	NameIDFormat string
	// NameIDNameQualifier qualifies the identifier, omitted for the entity
	// format.
	NameIDNameQualifier string
	// NameIDSPNameQualifier qualifies the identifier on the SP side,
	// omitted for the entity format.
	NameIDSPNameQualifier string
	// SessionIndexes scope the logout to specific IdP sessions.
	SessionIndexes []string
}

// LogoutRequest is a logout request bound for the IdP single logout
// endpoint.
type LogoutRequest struct {
	id       string
	settings *Settings
	doc      *etree.Document
}

// NewLogoutRequest builds a logout request from the settings. When the
// settings demand an encrypted identifier the NameID is wrapped in an
// EncryptedID for the first IdP certificate.
func NewLogoutRequest(settings *Settings, opts LogoutRequestOptions) (*LogoutRequest, error) {
	if settings == nil {
		return nil, trace.BadParameter("missing parameter settings")
	}
	id, err := newMessageID()
	if err != nil {
		return nil, trace.Wrap(err)
	}

	nameID := opts.NameID
	format := opts.NameIDFormat
	nameQualifier := opts.NameIDNameQualifier
	spNameQualifier := opts.NameIDSPNameQualifier
	if nameID == "" {
		nameID = settings.idpEntityID
		format = samlsp.NameIDFormatEntity
	} else if format == "" && settings.nameIDFormat != samlsp.NameIDFormatUnspecified {
		format = settings.nameIDFormat
	}
	// Core 8.3.6: qualifiers must be omitted with the entity format.
	if format == samlsp.NameIDFormatEntity {
		nameQualifier = ""
		spNameQualifier = ""
	}

	request := &etree.Element{Space: "samlp", Tag: "LogoutRequest"}
	request.CreateAttr("xmlns:samlp", samlsp.NamespaceProtocol)
	request.CreateAttr("xmlns:saml", samlsp.NamespaceAssertion)
	request.CreateAttr("ID", id)
	request.CreateAttr("Version", samlsp.SAMLVersion)
	request.CreateAttr("IssueInstant", formatInstant(settings.clock.Now()))
	request.CreateAttr("Destination", settings.idpSLOURL)

	request.CreateElement("saml:Issuer").SetText(settings.spEntityID)

	nameIDEl := etree.NewElement("saml:NameID")
	if nameQualifier != "" {
		nameIDEl.CreateAttr("NameQualifier", nameQualifier)
	}
	if spNameQualifier != "" {
		nameIDEl.CreateAttr("SPNameQualifier", spNameQualifier)
	}
	if format != "" && format != samlsp.NameIDFormatUnspecified {
		nameIDEl.CreateAttr("Format", format)
	}
	nameIDEl.CreateAttr("xmlns:saml", samlsp.NamespaceAssertion)
	nameIDEl.SetText(nameID)

	if settings.wantNameIDEncrypted {
		certificate, err := settings.encryptionCertificate()
		if err != nil {
			return nil, trace.Wrap(err)
		}
		encryptedData, err := xmlsec.Encrypt(nameIDEl, certificate, "", "")
		if err != nil {
			return nil, trace.Wrap(err)
		}
		encryptedID := request.CreateElement("saml:EncryptedID")
		encryptedID.AddChild(encryptedData)
	} else {
		request.AddChild(nameIDEl)
	}

	for _, index := range opts.SessionIndexes {
		request.CreateElement("samlp:SessionIndex").SetText(index)
	}

	doc := etree.NewDocument()
	doc.SetRoot(request)
	return &LogoutRequest{id: id, settings: settings, doc: doc}, nil
}

// ID returns the request identifier, used later to correlate the logout
// response.
func (r *LogoutRequest) ID() string {
	return r.id
}

// XML returns the serialized request.
func (r *LogoutRequest) XML() (string, error) {
	xml, err := r.doc.WriteToString()
	if err != nil {
		return "", trace.Wrap(err)
	}
	return xml, nil
}

// EncodedString returns the request the way the Redirect binding carries
// it: DEFLATE compressed when compression is enabled, then base64.
func (r *LogoutRequest) EncodedString() (string, error) {
	xml, err := r.doc.WriteToBytes()
	if err != nil {
		return "", trace.Wrap(err)
	}
	if r.settings.compressRequests {
		return deflateAndEncode(xml)
	}
	return base64.StdEncoding.EncodeToString(xml), nil
}

// SignedXML returns the request with an enveloped signature, the form the
// POST binding carries.
func (r *LogoutRequest) SignedXML() (string, error) {
	cfg, err := r.settings.signerConfig()
	if err != nil {
		return "", trace.Wrap(err)
	}
	root, err := xmlsec.SignEnveloped(r.doc.Root(), cfg)
	if err != nil {
		return "", trace.Wrap(err)
	}
	signed := etree.NewDocument()
	signed.SetRoot(root)
	xml, err := signed.WriteToString()
	if err != nil {
		return "", trace.Wrap(err)
	}
	return xml, nil
}

// InboundLogoutRequest is a logout request received from the identity
// provider on the Redirect binding.
type InboundLogoutRequest struct {
	// ID is the request identifier, echoed in the logout response.
	ID string
	// Issuer is the entity that produced the request.
	Issuer string
	// NameID identifies the subject being logged out, decrypted when it
	// arrived as an EncryptedID.
	NameID string
	// NameIDFormat is the identifier format, empty when unspecified.
	NameIDFormat string
	// SessionIndexes scope the logout to specific sessions.
	SessionIndexes []string
	// NotOnOrAfter bounds the lifetime of the request, zero when absent.
	NotOnOrAfter time.Time
	// Destination is the endpoint the request was addressed to.
	Destination string

	settings *Settings
	xml      []byte
}

// ParseLogoutRequest decodes and parses a logout request received on the
// Redirect binding. Validation is a separate step, see Validate.
func ParseLogoutRequest(settings *Settings, encoded string) (*InboundLogoutRequest, error) {
	if settings == nil {
		return nil, trace.BadParameter("missing parameter settings")
	}
	raw, err := decodeRedirectMessage(encoded)
	if err != nil {
		return nil, trace.Wrap(wrapError(KindInvalidXml, err, "failed to decode logout request"))
	}
	doc, err := xmlsec.ParseDocument(raw)
	if err != nil {
		return nil, trace.Wrap(wrapError(KindInvalidXml, err, "failed to parse logout request"))
	}
	root := doc.Root()
	if root.Tag != "LogoutRequest" || root.NamespaceURI() != samlsp.NamespaceProtocol {
		return nil, trace.Wrap(newError(KindInvalidXmlNamespace, "expected a LogoutRequest document, got %s", root.FullTag()))
	}

	request := &InboundLogoutRequest{
		ID:          root.SelectAttrValue("ID", ""),
		Issuer:      xmlsec.ElementText(xmlsec.FindChild(root, samlsp.NamespaceAssertion, "Issuer")),
		Destination: root.SelectAttrValue("Destination", ""),
		settings:    settings,
		xml:         raw,
	}
	if value := root.SelectAttrValue("NotOnOrAfter", ""); value != "" {
		notOnOrAfter, err := parseInstant(value)
		if err != nil {
			return nil, trace.Wrap(wrapError(KindInvalidXml, err, "invalid NotOnOrAfter"))
		}
		request.NotOnOrAfter = notOnOrAfter
	}

	nameIDEl := xmlsec.FindChild(root, samlsp.NamespaceAssertion, "NameID")
	if encryptedID := xmlsec.FindChild(root, samlsp.NamespaceAssertion, "EncryptedID"); encryptedID != nil {
		key := settings.PrivateKey()
		if key == nil {
			return nil, trace.Wrap(newError(KindPrivateKeyNotFound, "the logout request carries an EncryptedID and no SP private key is configured"))
		}
		decrypted, err := xmlsec.Decrypt(encryptedID, key, settings.rejectDeprecated)
		if err != nil {
			return nil, trace.Wrap(wrapError(decryptErrorKind(err), err, "failed to decrypt the logout request NameID"))
		}
		if decrypted.Tag != "NameID" || decrypted.NamespaceURI() != samlsp.NamespaceAssertion {
			return nil, trace.Wrap(newError(KindInvalidNameId, "the decrypted subject identifier is not a NameID"))
		}
		nameIDEl = decrypted
	}
	if nameIDEl != nil {
		request.NameID = xmlsec.ElementText(nameIDEl)
		request.NameIDFormat = nameIDEl.SelectAttrValue("Format", "")
	}
	for _, index := range xmlsec.FindChildren(root, samlsp.NamespaceProtocol, "SessionIndex") {
		request.SessionIndexes = append(request.SessionIndexes, xmlsec.ElementText(index))
	}
	return request, nil
}

// XML returns the decoded request document.
func (r *InboundLogoutRequest) XML() string {
	return string(r.xml)
}

// Validate checks the request against the settings. In strict mode the
// first failure ends validation, otherwise every issue is reported.
func (r *InboundLogoutRequest) Validate() []*ValidationError {
	var issues []*ValidationError
	report := func(issue *ValidationError) bool {
		issues = append(issues, issue)
		return r.settings.strict
	}

	if r.settings.wantXMLValidation {
		if r.ID == "" {
			if report(newError(KindSchemaViolation, "the logout request has no ID")) {
				return issues
			}
		}
	}
	if !r.NotOnOrAfter.IsZero() {
		now := r.settings.clock.Now()
		if !r.NotOnOrAfter.After(now.Add(-r.settings.clockSkew)) {
			if report(newError(KindAssertionExpired, "the logout request has expired")) {
				return issues
			}
		}
	}
	if r.Destination != "" && r.settings.spSLOURL != "" && r.Destination != r.settings.spSLOURL {
		if report(newError(KindInvalidDestination, "the logout request was addressed to %s, not to the SP single logout service", r.Destination)) {
			return issues
		}
	}
	if r.Issuer != "" && r.Issuer != r.settings.idpEntityID {
		if report(newError(KindInvalidIssuer, "the logout request issuer %q does not match the IdP entity ID", r.Issuer)) {
			return issues
		}
	}
	if r.NameID == "" {
		if report(newError(KindInvalidNameId, "the logout request has no NameID")) {
			return issues
		}
	}
	return issues
}
