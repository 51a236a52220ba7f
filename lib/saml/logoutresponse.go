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

	"github.com/beevik/etree"
	"github.com/gravitational/trace"

	samlsp "github.com/gravitational/samlsp"
	"github.com/gravitational/samlsp/lib/xmlsec"
)

// LogoutResponse is the answer to an IdP initiated logout request, bound
// for the IdP single logout response endpoint.
type LogoutResponse struct {
	id       string
	settings *Settings
	doc      *etree.Document
}

// NewLogoutResponse builds a successful logout response correlated to the
// inbound request through InResponseTo.
func NewLogoutResponse(settings *Settings, inResponseTo string) (*LogoutResponse, error) {
	if settings == nil {
		return nil, trace.BadParameter("missing parameter settings")
	}
	id, err := newMessageID()
	if err != nil {
		return nil, trace.Wrap(err)
	}

	response := &etree.Element{Space: "samlp", Tag: "LogoutResponse"}
	response.CreateAttr("xmlns:samlp", samlsp.NamespaceProtocol)
	response.CreateAttr("xmlns:saml", samlsp.NamespaceAssertion)
	response.CreateAttr("ID", id)
	response.CreateAttr("Version", samlsp.SAMLVersion)
	response.CreateAttr("IssueInstant", formatInstant(settings.clock.Now()))
	response.CreateAttr("Destination", settings.idpSLOResponseURL)
	if inResponseTo != "" {
		response.CreateAttr("InResponseTo", inResponseTo)
	}

	response.CreateElement("saml:Issuer").SetText(settings.spEntityID)
	status := response.CreateElement("samlp:Status")
	status.CreateElement("samlp:StatusCode").CreateAttr("Value", samlsp.StatusSuccess)

	doc := etree.NewDocument()
	doc.SetRoot(response)
	return &LogoutResponse{id: id, settings: settings, doc: doc}, nil
}

// ID returns the response identifier.
func (r *LogoutResponse) ID() string {
	return r.id
}

// XML returns the serialized response.
func (r *LogoutResponse) XML() (string, error) {
	xml, err := r.doc.WriteToString()
	if err != nil {
		return "", trace.Wrap(err)
	}
	return xml, nil
}

// EncodedString returns the response the way the Redirect binding carries
// it: DEFLATE compressed when compression is enabled, then base64.
func (r *LogoutResponse) EncodedString() (string, error) {
	xml, err := r.doc.WriteToBytes()
	if err != nil {
		return "", trace.Wrap(err)
	}
	if r.settings.compressResponses {
		return deflateAndEncode(xml)
	}
	return base64.StdEncoding.EncodeToString(xml), nil
}

// SignedXML returns the response with an enveloped signature, the form the
// POST binding carries.
func (r *LogoutResponse) SignedXML() (string, error) {
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

// InboundLogoutResponse is a logout response received from the identity
// provider on the Redirect binding, answering a logout request this SP
// initiated.
type InboundLogoutResponse struct {
	// ID is the response identifier.
	ID string
	// InResponseTo echoes the ID of the logout request being answered.
	InResponseTo string
	// Issuer is the entity that produced the response.
	Issuer string
	// Destination is the endpoint the response was addressed to.
	Destination string
	// Status is the top level status code URI.
	Status string
	// StatusMessage is the optional human readable status detail.
	StatusMessage string

	settings *Settings
	xml      []byte
}

// ParseLogoutResponse decodes and parses a logout response received on the
// Redirect binding. Validation is a separate step, see Validate.
func ParseLogoutResponse(settings *Settings, encoded string) (*InboundLogoutResponse, error) {
	if settings == nil {
		return nil, trace.BadParameter("missing parameter settings")
	}
	raw, err := decodeRedirectMessage(encoded)
	if err != nil {
		return nil, trace.Wrap(wrapError(KindInvalidXml, err, "failed to decode logout response"))
	}
	doc, err := xmlsec.ParseDocument(raw)
	if err != nil {
		return nil, trace.Wrap(wrapError(KindInvalidXml, err, "failed to parse logout response"))
	}
	root := doc.Root()
	if root.Tag != "LogoutResponse" || root.NamespaceURI() != samlsp.NamespaceProtocol {
		return nil, trace.Wrap(newError(KindInvalidXmlNamespace, "expected a LogoutResponse document, got %s", root.FullTag()))
	}

	response := &InboundLogoutResponse{
		ID:           root.SelectAttrValue("ID", ""),
		InResponseTo: root.SelectAttrValue("InResponseTo", ""),
		Issuer:       xmlsec.ElementText(xmlsec.FindChild(root, samlsp.NamespaceAssertion, "Issuer")),
		Destination:  root.SelectAttrValue("Destination", ""),
		settings:     settings,
		xml:          raw,
	}
	if status := xmlsec.FindChild(root, samlsp.NamespaceProtocol, "Status"); status != nil {
		if code := xmlsec.FindChild(status, samlsp.NamespaceProtocol, "StatusCode"); code != nil {
			response.Status = code.SelectAttrValue("Value", "")
		}
		response.StatusMessage = xmlsec.ElementText(xmlsec.FindChild(status, samlsp.NamespaceProtocol, "StatusMessage"))
	}
	return response, nil
}

// XML returns the decoded response document.
func (r *InboundLogoutResponse) XML() string {
	return string(r.xml)
}

// Validate checks the response against the settings. The expected request
// ID is the identifier of the logout request this SP sent, empty when
// unknown. In strict mode the first failure ends validation, otherwise
// every issue is reported.
func (r *InboundLogoutResponse) Validate(expectedRequestID string) []*ValidationError {
	var issues []*ValidationError
	report := func(issue *ValidationError) bool {
		issues = append(issues, issue)
		return r.settings.strict
	}

	if r.settings.wantXMLValidation {
		if r.ID == "" {
			if report(newError(KindSchemaViolation, "the logout response has no ID")) {
				return issues
			}
		}
	}
	if expectedRequestID != "" && r.InResponseTo != "" && r.InResponseTo != expectedRequestID {
		if report(newError(KindInvalidInResponseTo, "the logout response answers request %q, expected %q", r.InResponseTo, expectedRequestID)) {
			return issues
		}
	}
	if r.Issuer != "" && r.Issuer != r.settings.idpEntityID {
		if report(newError(KindInvalidIssuer, "the logout response issuer %q does not match the IdP entity ID", r.Issuer)) {
			return issues
		}
	}
	if r.Destination != "" && r.settings.spSLOURL != "" && r.Destination != r.settings.spSLOURL {
		if report(newError(KindInvalidDestination, "the logout response was addressed to %s, not to the SP single logout service", r.Destination)) {
			return issues
		}
	}
	if r.Status != samlsp.StatusSuccess {
		detail := "the identity provider reported status " + r.Status
		if r.Status == "" {
			detail = "the logout response carries no status code"
		}
		if r.StatusMessage != "" {
			detail += ": " + r.StatusMessage
		}
		if report(newError(KindResponseStatusError, "%s", detail)) {
			return issues
		}
	}
	return issues
}
