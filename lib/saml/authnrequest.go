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

// AuthnRequestOptions tune a single authentication request.
type AuthnRequestOptions struct {
	// ForceAuthn asks the IdP to re-authenticate the user even when a
	// session exists.
	ForceAuthn bool
	// IsPassive forbids the IdP from interacting with the user.
	IsPassive bool
	// SetNameIDPolicy emits a NameIDPolicy element carrying the configured
	// identifier format.
	SetNameIDPolicy bool
	// NameIDValueReq hints the subject the response should be about.
	NameIDValueReq string
}

// AuthnRequest is an authentication request bound for the IdP single
// sign-on endpoint.
type AuthnRequest struct {
	id       string
	settings *Settings
	doc      *etree.Document
}

// NewAuthnRequest builds an authentication request from the settings. The
// request carries a fresh random ID and the current issue instant.
func NewAuthnRequest(settings *Settings, opts AuthnRequestOptions) (*AuthnRequest, error) {
	if settings == nil {
		return nil, trace.BadParameter("missing parameter settings")
	}
	id, err := newMessageID()
	if err != nil {
		return nil, trace.Wrap(err)
	}

	request := &etree.Element{Space: "samlp", Tag: "AuthnRequest"}
	request.CreateAttr("xmlns:samlp", samlsp.NamespaceProtocol)
	request.CreateAttr("xmlns:saml", samlsp.NamespaceAssertion)
	request.CreateAttr("ID", id)
	request.CreateAttr("Version", samlsp.SAMLVersion)
	request.CreateAttr("IssueInstant", formatInstant(settings.clock.Now()))
	request.CreateAttr("Destination", settings.idpSSOURL)
	request.CreateAttr("ProtocolBinding", samlsp.BindingHTTPPost)
	request.CreateAttr("AssertionConsumerServiceURL", settings.acsURL)
	if opts.ForceAuthn {
		request.CreateAttr("ForceAuthn", "true")
	}
	if opts.IsPassive {
		request.CreateAttr("IsPassive", "true")
	}

	request.CreateElement("saml:Issuer").SetText(settings.spEntityID)

	if opts.NameIDValueReq != "" {
		subject := request.CreateElement("saml:Subject")
		nameID := subject.CreateElement("saml:NameID")
		nameID.CreateAttr("Format", samlsp.NameIDFormatUnspecified)
		nameID.SetText(opts.NameIDValueReq)
		confirmation := subject.CreateElement("saml:SubjectConfirmation")
		confirmation.CreateAttr("Method", samlsp.SubjectConfirmationMethodBearer)
	}

	if opts.SetNameIDPolicy {
		format := settings.nameIDFormat
		if settings.wantNameIDEncrypted {
			format = samlsp.NameIDFormatEncrypted
		}
		policy := request.CreateElement("samlp:NameIDPolicy")
		policy.CreateAttr("Format", format)
		policy.CreateAttr("AllowCreate", "true")
	}

	if len(settings.requestedAuthnContext) > 0 {
		authnContext := request.CreateElement("samlp:RequestedAuthnContext")
		authnContext.CreateAttr("Comparison", settings.authnContextComparison)
		for _, class := range settings.requestedAuthnContext {
			authnContext.CreateElement("saml:AuthnContextClassRef").SetText(class)
		}
	}

	doc := etree.NewDocument()
	doc.SetRoot(request)
	return &AuthnRequest{id: id, settings: settings, doc: doc}, nil
}

// ID returns the request identifier, used later to correlate the response.
func (r *AuthnRequest) ID() string {
	return r.id
}

// XML returns the serialized request.
func (r *AuthnRequest) XML() (string, error) {
	xml, err := r.doc.WriteToString()
	if err != nil {
		return "", trace.Wrap(err)
	}
	return xml, nil
}

// EncodedString returns the request the way the Redirect binding carries
// it: DEFLATE compressed when compression is enabled, then base64.
func (r *AuthnRequest) EncodedString() (string, error) {
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
// POST binding carries. The Redirect binding signs the query string
// instead, see Auth.Login.
func (r *AuthnRequest) SignedXML() (string, error) {
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
