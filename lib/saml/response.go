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
	"slices"
	"strings"
	"time"

	"github.com/beevik/etree"

	samlsp "github.com/gravitational/samlsp"
	"github.com/gravitational/samlsp/lib/xmlsec"
)

// Session is the state extracted from an authentication response. Identity
// fields are only trustworthy when validation reported no issues; the XML
// and identifier fields are filled as far as validation got, for
// diagnostics.
type Session struct {
	// NameID is the subject identifier asserted by the IdP.
	NameID string
	// NameIDFormat is the identifier format, empty when unspecified.
	NameIDFormat string
	// NameIDNameQualifier qualifies the identifier, usually empty.
	NameIDNameQualifier string
	// NameIDSPNameQualifier qualifies the identifier on the SP side.
	NameIDSPNameQualifier string
	// Attributes maps attribute names to their values in document order.
	Attributes map[string][]string
	// AttributesWithFriendlyName maps friendly names to values for the
	// attributes that carry one.
	AttributesWithFriendlyName map[string][]string
	// SessionIndex is the IdP session handle, echoed in logout requests.
	SessionIndex string
	// SessionNotOnOrAfter bounds the IdP session, zero when absent.
	SessionNotOnOrAfter time.Time
	// ResponseID is the identifier of the response message.
	ResponseID string
	// AssertionID is the identifier of the consumed assertion. Callers
	// enforcing one time use persist it in their own store.
	AssertionID string
	// AssertionNotOnOrAfter is the smallest valid bearer confirmation
	// expiry, the natural lifetime for a local session.
	AssertionNotOnOrAfter time.Time
	// InResponseTo echoes the authentication request this response
	// answers, empty for IdP initiated responses.
	InResponseTo string
	// ResponseXML is the received document, in decrypted form once
	// decryption succeeded.
	ResponseXML string
}

// validateResponse decodes and validates an authentication response
// received on the POST binding and extracts the session. The returned
// session carries trustworthy identity data only when the issue list is
// empty. In strict mode the first failure ends validation, otherwise every
// detectable issue is reported.
func validateResponse(settings *Settings, encoded, requestID string) (*Session, []*ValidationError) {
	v := &responseValidator{
		settings:  settings,
		requestID: requestID,
		session:   &Session{},
	}
	v.run(encoded)
	return v.session, v.issues
}

// responseValidator walks one response through every check the settings
// demand, accumulating issues as it goes.
type responseValidator struct {
	settings  *Settings
	requestID string

	// origRoot is the document element as received. The message signature
	// is verified against it even when decryption replaced the assertion.
	origRoot *etree.Element
	// root is the working document element, a copy of origRoot with the
	// decrypted assertion spliced in when the assertion arrived encrypted.
	root *etree.Element
	// assertion is the plaintext assertion inside the working document.
	assertion *etree.Element
	// validatedRoot is the response subtree rebuilt from the octets the
	// message signature covered, nil when only the assertion was signed.
	validatedRoot *etree.Element
	// validatedAssertion is the subtree rebuilt from the signed octets.
	// Every identity bearing element is extracted from it and never from
	// the document as received.
	validatedAssertion *etree.Element
	decrypted          bool

	issues  []*ValidationError
	session *Session
}

// report records a failed check. It returns true when validation must
// stop because strict mode aborts on the first failure.
func (v *responseValidator) report(issue *ValidationError) bool {
	v.issues = append(v.issues, issue)
	return v.settings.strict
}

// fatal records a failure that leaves nothing safe to validate further,
// ending validation in both modes.
func (v *responseValidator) fatal(issue *ValidationError) bool {
	v.issues = append(v.issues, issue)
	return true
}

func (v *responseValidator) run(encoded string) {
	if v.decode(encoded) {
		return
	}
	if v.checkStructure() {
		return
	}
	if v.checkStatus() {
		return
	}
	if v.decryptAssertion() {
		return
	}
	if v.checkSignatures() {
		return
	}
	if v.checkIssuer() {
		return
	}
	if v.checkAudience() {
		return
	}
	if v.checkConditions() {
		return
	}
	if v.checkDestination() {
		return
	}
	if v.checkInResponseTo() {
		return
	}
	if v.checkSubjectConfirmation() {
		return
	}
	if v.checkAuthnStatement() {
		return
	}
	if v.extractSubject() {
		return
	}
	v.extractAttributes()
}

func (v *responseValidator) decode(encoded string) bool {
	raw, err := decodePostMessage(encoded)
	if err != nil {
		return v.fatal(wrapError(KindInvalidXml, err, "failed to decode the response"))
	}
	doc, err := xmlsec.ParseDocument(raw)
	if err != nil {
		return v.fatal(wrapError(KindInvalidXml, err, "failed to parse the response"))
	}
	v.origRoot = doc.Root()
	v.root = v.origRoot
	v.session.ResponseXML = string(raw)
	return false
}

func (v *responseValidator) checkStructure() bool {
	root := v.origRoot
	if root.Tag != "Response" || root.NamespaceURI() != samlsp.NamespaceProtocol {
		return v.fatal(newError(KindInvalidXmlNamespace, "expected a Response document, got %s", root.FullTag()))
	}
	// A Response nested anywhere below the document element is a wrapping
	// attempt, not a protocol message.
	if nested := xmlsec.FindDescendants(root, samlsp.NamespaceProtocol, "Response"); len(nested) > 0 {
		return v.fatal(newError(KindSchemaViolation, "the document contains %d nested Response elements", len(nested)))
	}

	v.session.ResponseID = root.SelectAttrValue("ID", "")
	if irt := root.SelectAttr("InResponseTo"); irt != nil {
		v.session.InResponseTo = irt.Value
	}

	if v.settings.wantXMLValidation {
		if root.SelectAttrValue("Version", "") != samlsp.SAMLVersion {
			if v.report(newError(KindSchemaViolation, "unsupported SAML version %q", root.SelectAttrValue("Version", ""))) {
				return true
			}
		}
		if v.session.ResponseID == "" {
			if v.report(newError(KindSchemaViolation, "the response has no ID")) {
				return true
			}
		}
		if instant := root.SelectAttrValue("IssueInstant", ""); instant != "" {
			if _, err := parseInstant(instant); err != nil {
				if v.report(newError(KindSchemaViolation, "the response IssueInstant is not a timestamp")) {
					return true
				}
			}
		}
	}
	return false
}

func (v *responseValidator) checkStatus() bool {
	status := xmlsec.FindChild(v.origRoot, samlsp.NamespaceProtocol, "Status")
	if status == nil {
		return v.fatal(newError(KindResponseStatusError, "the response carries no Status element"))
	}
	code := xmlsec.FindChild(status, samlsp.NamespaceProtocol, "StatusCode")
	if code == nil {
		return v.fatal(newError(KindResponseStatusError, "the response carries no StatusCode element"))
	}
	value := code.SelectAttrValue("Value", "")
	if value == samlsp.StatusSuccess {
		return false
	}
	detail := "the identity provider reported status " + value
	if sub := xmlsec.FindChild(code, samlsp.NamespaceProtocol, "StatusCode"); sub != nil {
		detail += " with sub-status " + sub.SelectAttrValue("Value", "")
	}
	if message := xmlsec.ElementText(xmlsec.FindChild(status, samlsp.NamespaceProtocol, "StatusMessage")); message != "" {
		detail += ": " + message
	}
	return v.fatal(newError(KindResponseStatusError, "%s", detail))
}

// decryptAssertion singles out the assertion, decrypting it first when it
// arrived as an EncryptedAssertion. The decrypted plaintext is spliced into
// a working copy of the document so that the document as received stays
// available for message signature verification.
func (v *responseValidator) decryptAssertion() bool {
	plain := xmlsec.FindChildren(v.origRoot, samlsp.NamespaceAssertion, "Assertion")
	encrypted := xmlsec.FindChildren(v.origRoot, samlsp.NamespaceAssertion, "EncryptedAssertion")
	if len(encrypted) > 1 {
		return v.fatal(newError(KindSchemaViolation, "expected at most one EncryptedAssertion, found %d", len(encrypted)))
	}
	if len(plain)+len(encrypted) != 1 {
		return v.fatal(newError(KindSchemaViolation, "expected exactly one assertion, found %d", len(plain)+len(encrypted)))
	}

	if len(encrypted) == 1 {
		key := v.settings.PrivateKey()
		if key == nil {
			return v.fatal(newError(KindPrivateKeyNotFound, "the response carries an EncryptedAssertion and no SP private key is configured"))
		}
		decryptedEl, err := xmlsec.Decrypt(encrypted[0], key, v.settings.rejectDeprecated)
		if err != nil {
			return v.fatal(wrapError(decryptErrorKind(err), err, "failed to decrypt the assertion"))
		}
		if decryptedEl.Tag != "Assertion" || decryptedEl.NamespaceURI() != samlsp.NamespaceAssertion {
			return v.fatal(newError(KindDecryptionError, "the decrypted payload is not an assertion"))
		}

		workRoot := v.origRoot.Copy()
		container := xmlsec.FindChild(workRoot, samlsp.NamespaceAssertion, "EncryptedAssertion")
		index := container.Index()
		workRoot.RemoveChild(container)
		assertion := decryptedEl.Copy()
		workRoot.InsertChildAt(index, assertion)

		workDoc := etree.NewDocument()
		workDoc.SetRoot(workRoot)
		if xml, err := workDoc.WriteToString(); err == nil {
			v.session.ResponseXML = xml
		}

		v.root = workRoot
		v.assertion = assertion
		v.decrypted = true
	} else {
		v.assertion = plain[0]
	}

	if v.settings.wantAssertionsEncrypted && !v.decrypted {
		if v.report(newError(KindEncryptionError, "the assertion is not encrypted and the settings require it")) {
			return true
		}
	}

	if v.settings.wantXMLValidation {
		if v.assertion.SelectAttrValue("Version", "") != samlsp.SAMLVersion {
			if v.report(newError(KindSchemaViolation, "unsupported assertion version %q", v.assertion.SelectAttrValue("Version", ""))) {
				return true
			}
		}
		if v.assertion.SelectAttrValue("ID", "") == "" {
			if v.report(newError(KindSchemaViolation, "the assertion has no ID")) {
				return true
			}
		}
	}
	return false
}

// checkSignatures enforces the signed element policy, verifies every
// present signature and selects the subtree identity data is extracted
// from. Signatures are accepted in exactly two places: directly under the
// document element and directly under the assertion. The data source is
// always a subtree rebuilt from the octets a signature covered.
func (v *responseValidator) checkSignatures() bool {
	// One ID naming two elements lets a reference digest one element while
	// the consumer reads another.
	if err := xmlsec.CheckIDUniqueness(v.origRoot); err != nil {
		return v.fatal(wrapError(KindDuplicatedSignedElement, err, "duplicate element IDs in the response"))
	}
	if v.decrypted {
		if err := xmlsec.CheckIDUniqueness(v.root); err != nil {
			return v.fatal(wrapError(KindDuplicatedSignedElement, err, "duplicate element IDs after decryption"))
		}
	}

	responseSig := xmlsec.EnvelopedSignature(v.origRoot)
	assertionSig := xmlsec.EnvelopedSignature(v.assertion)

	// A signature anywhere other than the two allowed positions exists to
	// confuse reference resolution.
	allowed := map[*etree.Element]bool{}
	for _, sig := range []*etree.Element{responseSig, xmlsec.EnvelopedSignature(v.root), assertionSig} {
		if sig != nil {
			allowed[sig] = true
		}
	}
	scanRoots := []*etree.Element{v.origRoot}
	if v.decrypted {
		scanRoots = append(scanRoots, v.root)
	}
	for _, root := range scanRoots {
		for _, sig := range xmlsec.FindDescendants(root, samlsp.NamespaceDSig, "Signature") {
			if !allowed[sig] {
				return v.fatal(newError(KindDuplicatedSignedElement, "signature on an unexpected element %s", sig.Parent().FullTag()))
			}
		}
	}

	if responseSig == nil && assertionSig == nil {
		return v.fatal(newError(KindNoSignedElement, "neither the response nor the assertion is signed"))
	}
	if v.settings.wantMessagesSigned && responseSig == nil {
		if v.report(newError(KindNoSignedElement, "the response is not signed and the settings require it")) {
			return true
		}
	}
	if v.settings.wantAssertionsSigned && assertionSig == nil {
		if v.report(newError(KindNoSignedElement, "the assertion is not signed and the settings require it")) {
			return true
		}
	}

	opts := v.settings.verifyOptions()
	if responseSig != nil {
		validated, err := xmlsec.VerifyEnveloped(v.origRoot, opts)
		if err != nil {
			return v.fatal(wrapError(signatureErrorKind(err), err, "the response signature does not verify"))
		}
		v.validatedRoot = validated
	}
	if assertionSig != nil {
		validated, err := xmlsec.VerifyEnveloped(v.assertion, opts)
		if err != nil {
			return v.fatal(wrapError(signatureErrorKind(err), err, "the assertion signature does not verify"))
		}
		v.validatedAssertion = validated
	}

	// The assertion's own signature is the authority on the assertion. A
	// signed response vouches for the assertion it transports only when the
	// assertion carries no signature of its own, and then the assertion is
	// re-extracted from the signed octets rather than taken from the
	// document as received.
	if v.validatedAssertion == nil {
		if v.decrypted {
			encrypted := xmlsec.FindChildren(v.validatedRoot, samlsp.NamespaceAssertion, "EncryptedAssertion")
			if len(encrypted) != 1 {
				return v.fatal(newError(KindDuplicatedSignedElement, "the signed response covers %d encrypted assertions, expected exactly one", len(encrypted)))
			}
			decryptedEl, err := xmlsec.Decrypt(encrypted[0], v.settings.PrivateKey(), v.settings.rejectDeprecated)
			if err != nil {
				return v.fatal(wrapError(decryptErrorKind(err), err, "failed to decrypt the signed assertion"))
			}
			if decryptedEl.Tag != "Assertion" || decryptedEl.NamespaceURI() != samlsp.NamespaceAssertion {
				return v.fatal(newError(KindDecryptionError, "the decrypted payload is not an assertion"))
			}
			v.validatedAssertion = decryptedEl
		} else {
			assertions := xmlsec.FindChildren(v.validatedRoot, samlsp.NamespaceAssertion, "Assertion")
			if len(assertions) != 1 {
				return v.fatal(newError(KindDuplicatedSignedElement, "the signed response covers %d assertions, expected exactly one", len(assertions)))
			}
			v.validatedAssertion = assertions[0]
		}
	}

	trusted := v.trustedRoot()
	v.session.ResponseID = trusted.SelectAttrValue("ID", "")
	v.session.InResponseTo = trusted.SelectAttrValue("InResponseTo", "")
	v.session.AssertionID = v.validatedAssertion.SelectAttrValue("ID", "")
	return false
}

// trustedRoot is the response element later checks read attributes from:
// the subtree the message signature covered when there was one, the
// working document element otherwise.
func (v *responseValidator) trustedRoot() *etree.Element {
	if v.validatedRoot != nil {
		return v.validatedRoot
	}
	return v.root
}

func (v *responseValidator) checkIssuer() bool {
	issuers := xmlsec.FindChildren(v.trustedRoot(), samlsp.NamespaceAssertion, "Issuer")
	if len(issuers) > 1 {
		return v.fatal(newError(KindInvalidIssuer, "the response carries %d Issuer elements", len(issuers)))
	}
	if len(issuers) == 1 {
		if issuer := xmlsec.ElementText(issuers[0]); issuer != v.settings.idpEntityID {
			if v.report(newError(KindInvalidIssuer, "the response issuer %q does not match the IdP entity ID", issuer)) {
				return true
			}
		}
	}
	issuers = xmlsec.FindChildren(v.validatedAssertion, samlsp.NamespaceAssertion, "Issuer")
	if len(issuers) != 1 {
		return v.fatal(newError(KindInvalidIssuer, "the assertion carries %d Issuer elements, expected exactly one", len(issuers)))
	}
	if issuer := xmlsec.ElementText(issuers[0]); issuer != v.settings.idpEntityID {
		if v.report(newError(KindInvalidIssuer, "the assertion issuer %q does not match the IdP entity ID", issuer)) {
			return true
		}
	}
	return false
}

func (v *responseValidator) checkAudience() bool {
	conditions := xmlsec.FindChild(v.validatedAssertion, samlsp.NamespaceAssertion, "Conditions")
	if conditions == nil {
		return false
	}
	restrictions := xmlsec.FindChildren(conditions, samlsp.NamespaceAssertion, "AudienceRestriction")
	if len(restrictions) == 0 {
		return false
	}
	var audiences []string
	for _, restriction := range restrictions {
		for _, audience := range xmlsec.FindChildren(restriction, samlsp.NamespaceAssertion, "Audience") {
			if text := xmlsec.ElementText(audience); text != "" {
				audiences = append(audiences, text)
			}
		}
	}
	if !slices.Contains(audiences, v.settings.spEntityID) {
		return v.report(newError(KindInvalidAudience, "%q is not an audience of the assertion", v.settings.spEntityID))
	}
	return false
}

func (v *responseValidator) checkConditions() bool {
	conditions := xmlsec.FindChild(v.validatedAssertion, samlsp.NamespaceAssertion, "Conditions")
	if conditions == nil {
		return false
	}
	now := v.settings.clock.Now()
	skew := v.settings.clockSkew
	if value := conditions.SelectAttrValue("NotBefore", ""); value != "" {
		notBefore, err := parseInstant(value)
		if err != nil {
			return v.fatal(wrapError(KindSchemaViolation, err, "the Conditions NotBefore is not a timestamp"))
		}
		if notBefore.After(now.Add(skew)) {
			if v.report(newError(KindAssertionTooEarly, "the assertion is not valid before %v", notBefore)) {
				return true
			}
		}
	}
	if value := conditions.SelectAttrValue("NotOnOrAfter", ""); value != "" {
		notOnOrAfter, err := parseInstant(value)
		if err != nil {
			return v.fatal(wrapError(KindSchemaViolation, err, "the Conditions NotOnOrAfter is not a timestamp"))
		}
		if !notOnOrAfter.After(now.Add(-skew)) {
			if v.report(newError(KindAssertionExpired, "the assertion expired at %v", notOnOrAfter)) {
				return true
			}
		}
	}
	return false
}

func (v *responseValidator) checkDestination() bool {
	attr := v.trustedRoot().SelectAttr("Destination")
	if attr == nil {
		return false
	}
	if attr.Value == "" {
		if v.settings.strict {
			return v.report(newError(KindInvalidDestination, "the response Destination is empty"))
		}
		return false
	}
	if !endpointsMatch(attr.Value, v.settings.acsURL) {
		return v.report(newError(KindInvalidDestination, "the response was addressed to %s, not to the assertion consumer service", attr.Value))
	}
	return false
}

func (v *responseValidator) checkInResponseTo() bool {
	inResponseTo := v.session.InResponseTo
	if v.requestID != "" && inResponseTo != v.requestID {
		return v.report(newError(KindInvalidInResponseTo, "the response answers request %q, expected %q", inResponseTo, v.requestID))
	}
	if v.requestID == "" && v.settings.rejectUnsolicited && inResponseTo != "" {
		return v.report(newError(KindUnexpectedInResponseTo, "rejecting unsolicited response answering request %q", inResponseTo))
	}
	return false
}

// checkSubjectConfirmation accepts the assertion only when at least one
// bearer SubjectConfirmation was minted for this provider and exchange and
// is still valid. The smallest surviving expiry becomes the natural local
// session lifetime.
func (v *responseValidator) checkSubjectConfirmation() bool {
	now := v.settings.clock.Now()
	skew := v.settings.clockSkew
	subject := xmlsec.FindChild(v.validatedAssertion, samlsp.NamespaceAssertion, "Subject")

	var earliest time.Time
	valid := false
	for _, confirmation := range xmlsec.FindChildren(subject, samlsp.NamespaceAssertion, "SubjectConfirmation") {
		if confirmation.SelectAttrValue("Method", "") != samlsp.SubjectConfirmationMethodBearer {
			continue
		}
		data := xmlsec.FindChild(confirmation, samlsp.NamespaceAssertion, "SubjectConfirmationData")
		if data == nil {
			continue
		}
		// Bearer confirmations carry no NotBefore; its presence marks a
		// confirmation minted for another exchange.
		if data.SelectAttr("NotBefore") != nil {
			continue
		}
		if !endpointsMatch(data.SelectAttrValue("Recipient", ""), v.settings.acsURL) {
			continue
		}
		if inResponseTo := data.SelectAttrValue("InResponseTo", ""); inResponseTo != "" && inResponseTo != v.session.InResponseTo {
			continue
		}
		value := data.SelectAttrValue("NotOnOrAfter", "")
		if value == "" {
			continue
		}
		notOnOrAfter, err := parseInstant(value)
		if err != nil {
			continue
		}
		if !notOnOrAfter.After(now.Add(-skew)) {
			continue
		}
		valid = true
		if earliest.IsZero() || notOnOrAfter.Before(earliest) {
			earliest = notOnOrAfter
		}
	}
	if !valid {
		return v.report(newError(KindWrongSubjectConfirmation, "the assertion carries no valid bearer SubjectConfirmation"))
	}
	v.session.AssertionNotOnOrAfter = earliest
	return false
}

func (v *responseValidator) checkAuthnStatement() bool {
	statements := xmlsec.FindChildren(v.validatedAssertion, samlsp.NamespaceAssertion, "AuthnStatement")
	if len(statements) == 0 {
		return v.report(newError(KindNoAuthnStatement, "the assertion carries no AuthnStatement"))
	}
	if len(statements) > 1 {
		if v.report(newError(KindSchemaViolation, "expected exactly one AuthnStatement, found %d", len(statements))) {
			return true
		}
	}
	statement := statements[0]
	v.session.SessionIndex = statement.SelectAttrValue("SessionIndex", "")
	if value := statement.SelectAttrValue("SessionNotOnOrAfter", ""); value != "" {
		expiration, err := parseInstant(value)
		if err != nil {
			return v.fatal(wrapError(KindSchemaViolation, err, "the SessionNotOnOrAfter is not a timestamp"))
		}
		v.session.SessionNotOnOrAfter = expiration
	}
	return false
}

func (v *responseValidator) extractSubject() bool {
	subject := xmlsec.FindChild(v.validatedAssertion, samlsp.NamespaceAssertion, "Subject")
	nameIDEl := xmlsec.FindChild(subject, samlsp.NamespaceAssertion, "NameID")
	if encrypted := xmlsec.FindChild(subject, samlsp.NamespaceAssertion, "EncryptedID"); encrypted != nil {
		key := v.settings.PrivateKey()
		if key == nil {
			return v.fatal(newError(KindPrivateKeyNotFound, "the assertion carries an EncryptedID and no SP private key is configured"))
		}
		decryptedEl, err := xmlsec.Decrypt(encrypted, key, v.settings.rejectDeprecated)
		if err != nil {
			return v.fatal(wrapError(decryptErrorKind(err), err, "failed to decrypt the subject identifier"))
		}
		if decryptedEl.Tag != "NameID" || decryptedEl.NamespaceURI() != samlsp.NamespaceAssertion {
			return v.fatal(newError(KindInvalidNameId, "the decrypted subject identifier is not a NameID"))
		}
		nameIDEl = decryptedEl
	} else if v.settings.wantNameIDEncrypted && nameIDEl != nil {
		if v.report(newError(KindInvalidNameIdFormat, "the NameID is not encrypted and the settings require it")) {
			return true
		}
	}

	if nameIDEl == nil {
		if v.settings.wantNameID {
			return v.report(newError(KindInvalidNameId, "the assertion carries no NameID"))
		}
		return false
	}
	nameID := xmlsec.ElementText(nameIDEl)
	if nameID == "" {
		if v.settings.wantNameID {
			return v.report(newError(KindInvalidNameId, "the assertion NameID is empty"))
		}
		return false
	}
	if spNameQualifier := nameIDEl.SelectAttrValue("SPNameQualifier", ""); spNameQualifier != "" && spNameQualifier != v.settings.spEntityID {
		if v.report(newError(KindInvalidNameId, "the NameID SPNameQualifier %q does not match the SP entity ID", spNameQualifier)) {
			return true
		}
	}
	v.session.NameID = nameID
	v.session.NameIDFormat = nameIDEl.SelectAttrValue("Format", "")
	v.session.NameIDNameQualifier = nameIDEl.SelectAttrValue("NameQualifier", "")
	v.session.NameIDSPNameQualifier = nameIDEl.SelectAttrValue("SPNameQualifier", "")
	return false
}

func (v *responseValidator) extractAttributes() {
	statements := xmlsec.FindChildren(v.validatedAssertion, samlsp.NamespaceAssertion, "AttributeStatement")
	if len(statements) == 0 {
		if v.settings.wantAttributeStatement {
			v.report(newError(KindNoAttributeStatements, "the assertion carries no AttributeStatement"))
		}
		return
	}
	attributes := make(map[string][]string)
	friendly := make(map[string][]string)
	for _, statement := range statements {
		for _, attribute := range xmlsec.FindChildren(statement, samlsp.NamespaceAssertion, "Attribute") {
			name := attribute.SelectAttrValue("Name", "")
			if name == "" {
				if v.report(newError(KindSchemaViolation, "an assertion Attribute carries no Name")) {
					return
				}
				continue
			}
			values, issue := v.attributeValues(attribute)
			if issue != nil {
				v.fatal(issue)
				return
			}
			if existing, dup := attributes[name]; dup {
				if v.settings.strict {
					v.report(newError(KindDuplicatedAttributeNameFound, "found a duplicated attribute %q", name))
					return
				}
				attributes[name] = append(existing, values...)
			} else {
				attributes[name] = values
			}
			if friendlyName := attribute.SelectAttrValue("FriendlyName", ""); friendlyName != "" {
				if _, dup := friendly[friendlyName]; dup && v.settings.strict {
					v.report(newError(KindDuplicatedAttributeNameFound, "found a duplicated attribute friendly name %q", friendlyName))
					return
				}
				friendly[friendlyName] = values
			}
		}
	}
	v.session.Attributes = attributes
	v.session.AttributesWithFriendlyName = friendly
}

// attributeValues flattens the values of one Attribute. A value carrying a
// NameID or EncryptedID child contributes the identifier text instead of
// its raw character data.
func (v *responseValidator) attributeValues(attribute *etree.Element) ([]string, *ValidationError) {
	values := make([]string, 0, 1)
	for _, valueEl := range xmlsec.FindChildren(attribute, samlsp.NamespaceAssertion, "AttributeValue") {
		if nameID := xmlsec.FindChild(valueEl, samlsp.NamespaceAssertion, "NameID"); nameID != nil {
			values = append(values, xmlsec.ElementText(nameID))
			continue
		}
		if encrypted := xmlsec.FindChild(valueEl, samlsp.NamespaceAssertion, "EncryptedID"); encrypted != nil {
			key := v.settings.PrivateKey()
			if key == nil {
				return nil, newError(KindPrivateKeyNotFound, "an attribute value carries an EncryptedID and no SP private key is configured")
			}
			decryptedEl, err := xmlsec.Decrypt(encrypted, key, v.settings.rejectDeprecated)
			if err != nil {
				return nil, wrapError(decryptErrorKind(err), err, "failed to decrypt an attribute value")
			}
			values = append(values, xmlsec.ElementText(decryptedEl))
			continue
		}
		values = append(values, valueEl.Text())
	}
	return values, nil
}

// endpointsMatch compares a received endpoint URL against a configured one,
// tolerating a single trailing slash on either side.
func endpointsMatch(received, configured string) bool {
	if received == "" {
		return false
	}
	return strings.TrimSuffix(received, "/") == strings.TrimSuffix(configured, "/")
}
