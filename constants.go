// Package samlsp holds constants shared by the SAML service provider
// packages under lib/. The protocol URIs below are defined by the OASIS
// SAML 2.0 core, bindings and metadata specifications and by the W3C XML
// Signature and XML Encryption specifications.
package samlsp

const (
	// ComponentKey is the field name used for component annotation in logs
	ComponentKey = "component"

	// ComponentSAML is the service provider core
	ComponentSAML = "saml"

	// ComponentXMLSec is the XML signing, verification and encryption layer
	ComponentXMLSec = "xmlsec"
)

const (
	// NamespaceProtocol is the SAML 2.0 protocol namespace (samlp prefix)
	NamespaceProtocol = "urn:oasis:names:tc:SAML:2.0:protocol"

	// NamespaceAssertion is the SAML 2.0 assertion namespace (saml prefix)
	NamespaceAssertion = "urn:oasis:names:tc:SAML:2.0:assertion"

	// NamespaceDSig is the XML digital signature namespace (ds prefix)
	NamespaceDSig = "http://www.w3.org/2000/09/xmldsig#"

	// NamespaceXMLEnc is the XML encryption namespace (xenc prefix)
	NamespaceXMLEnc = "http://www.w3.org/2001/04/xmlenc#"
)

const (
	// BindingHTTPRedirect carries deflated and base64 encoded messages in
	// the query string
	BindingHTTPRedirect = "urn:oasis:names:tc:SAML:2.0:bindings:HTTP-Redirect"

	// BindingHTTPPost carries base64 encoded messages in a form body
	BindingHTTPPost = "urn:oasis:names:tc:SAML:2.0:bindings:HTTP-POST"
)

const (
	// NameIDFormatUnspecified leaves the identifier format to the IdP
	NameIDFormatUnspecified = "urn:oasis:names:tc:SAML:1.1:nameid-format:unspecified"

	// NameIDFormatEmailAddress requests an email address identifier
	NameIDFormatEmailAddress = "urn:oasis:names:tc:SAML:1.1:nameid-format:emailAddress"

	// NameIDFormatX509SubjectName requests an X.509 subject name identifier
	NameIDFormatX509SubjectName = "urn:oasis:names:tc:SAML:1.1:nameid-format:X509SubjectName"

	// NameIDFormatPersistent requests a persistent opaque identifier
	NameIDFormatPersistent = "urn:oasis:names:tc:SAML:2.0:nameid-format:persistent"

	// NameIDFormatTransient requests a transient opaque identifier
	NameIDFormatTransient = "urn:oasis:names:tc:SAML:2.0:nameid-format:transient"

	// NameIDFormatEntity identifies the provider itself
	NameIDFormatEntity = "urn:oasis:names:tc:SAML:2.0:nameid-format:entity"

	// NameIDFormatEncrypted requests an encrypted identifier
	NameIDFormatEncrypted = "urn:oasis:names:tc:SAML:2.0:nameid-format:encrypted"
)

const (
	// StatusSuccess is the only status a valid response may carry
	StatusSuccess = "urn:oasis:names:tc:SAML:2.0:status:Success"

	// StatusRequester signals a failure attributed to the requester
	StatusRequester = "urn:oasis:names:tc:SAML:2.0:status:Requester"

	// StatusResponder signals a failure attributed to the responder
	StatusResponder = "urn:oasis:names:tc:SAML:2.0:status:Responder"

	// StatusVersionMismatch signals a protocol version mismatch
	StatusVersionMismatch = "urn:oasis:names:tc:SAML:2.0:status:VersionMismatch"

	// StatusPartialLogout signals that not all session participants
	// terminated their sessions
	StatusPartialLogout = "urn:oasis:names:tc:SAML:2.0:status:PartialLogout"

	// StatusAuthnFailed is the second level status reported when the
	// authentication itself failed
	StatusAuthnFailed = "urn:oasis:names:tc:SAML:2.0:status:AuthnFailed"
)

const (
	// SubjectConfirmationMethodBearer is the only subject confirmation
	// method accepted on web SSO responses
	SubjectConfirmationMethodBearer = "urn:oasis:names:tc:SAML:2.0:cm:bearer"
)

const (
	// AuthnContextComparisonExact requires one of the listed contexts verbatim
	AuthnContextComparisonExact = "exact"

	// AuthnContextComparisonMinimum accepts the listed contexts or stronger
	AuthnContextComparisonMinimum = "minimum"

	// AuthnContextComparisonMaximum accepts the strongest context not
	// exceeding the listed ones
	AuthnContextComparisonMaximum = "maximum"

	// AuthnContextComparisonBetter requires a context stronger than any listed
	AuthnContextComparisonBetter = "better"

	// AuthnContextPasswordProtectedTransport is the default requested
	// authentication context class
	AuthnContextPasswordProtectedTransport = "urn:oasis:names:tc:SAML:2.0:ac:classes:PasswordProtectedTransport"
)

const (
	// SignatureRSASHA1 is deprecated and rejected when the settings demand
	// modern algorithms
	SignatureRSASHA1 = "http://www.w3.org/2000/09/xmldsig#rsa-sha1"

	// SignatureRSASHA256 is the default signature algorithm
	SignatureRSASHA256 = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256"

	// SignatureRSASHA384 is the RSA SHA-384 signature algorithm
	SignatureRSASHA384 = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha384"

	// SignatureRSASHA512 is the RSA SHA-512 signature algorithm
	SignatureRSASHA512 = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha512"
)

const (
	// DigestSHA1 is deprecated alongside SignatureRSASHA1
	DigestSHA1 = "http://www.w3.org/2000/09/xmldsig#sha1"

	// DigestSHA256 is the default digest algorithm
	DigestSHA256 = "http://www.w3.org/2001/04/xmlenc#sha256"

	// DigestSHA384 is the SHA-384 digest algorithm
	DigestSHA384 = "http://www.w3.org/2001/04/xmldsig-more#sha384"

	// DigestSHA512 is the SHA-512 digest algorithm
	DigestSHA512 = "http://www.w3.org/2001/04/xmlenc#sha512"
)

const (
	// CanonicalizationExclusive is exclusive XML canonicalization 1.0
	CanonicalizationExclusive = "http://www.w3.org/2001/10/xml-exc-c14n#"

	// CanonicalizationExclusiveWithComments is exclusive XML
	// canonicalization 1.0 with comments preserved
	CanonicalizationExclusiveWithComments = "http://www.w3.org/2001/10/xml-exc-c14n#WithComments"

	// TransformEnvelopedSignature removes the signature element itself from
	// the digest input
	TransformEnvelopedSignature = "http://www.w3.org/2000/09/xmldsig#enveloped-signature"
)

const (
	// EncryptionAES128CBC is AES-128 in CBC mode for payload encryption
	EncryptionAES128CBC = "http://www.w3.org/2001/04/xmlenc#aes128-cbc"

	// EncryptionAES192CBC is AES-192 in CBC mode for payload encryption
	EncryptionAES192CBC = "http://www.w3.org/2001/04/xmlenc#aes192-cbc"

	// EncryptionAES256CBC is AES-256 in CBC mode for payload encryption
	EncryptionAES256CBC = "http://www.w3.org/2001/04/xmlenc#aes256-cbc"

	// EncryptionAES128GCM is AES-128 in GCM mode for payload encryption
	EncryptionAES128GCM = "http://www.w3.org/2009/xmlenc11#aes128-gcm"

	// EncryptionAES192GCM is AES-192 in GCM mode for payload encryption
	EncryptionAES192GCM = "http://www.w3.org/2009/xmlenc11#aes192-gcm"

	// EncryptionAES256GCM is AES-256 in GCM mode for payload encryption
	EncryptionAES256GCM = "http://www.w3.org/2009/xmlenc11#aes256-gcm"

	// EncryptionTripleDESCBC is 3DES in CBC mode for payload encryption
	EncryptionTripleDESCBC = "http://www.w3.org/2001/04/xmlenc#tripledes-cbc"

	// KeyTransportRSAOAEPMGF1P is RSA-OAEP with MGF1 key transport
	KeyTransportRSAOAEPMGF1P = "http://www.w3.org/2001/04/xmlenc#rsa-oaep-mgf1p"

	// KeyTransportRSA15 is PKCS#1 v1.5 key transport, deprecated and
	// rejected when the settings demand modern algorithms
	KeyTransportRSA15 = "http://www.w3.org/2001/04/xmlenc#rsa-1_5"
)

const (
	// FingerprintSHA1 selects SHA-1 certificate fingerprint comparison
	FingerprintSHA1 = "sha1"

	// FingerprintSHA256 selects SHA-256 certificate fingerprint comparison
	FingerprintSHA256 = "sha256"

	// FingerprintSHA384 selects SHA-384 certificate fingerprint comparison
	FingerprintSHA384 = "sha384"

	// FingerprintSHA512 selects SHA-512 certificate fingerprint comparison
	FingerprintSHA512 = "sha512"
)

// TimeFormat renders SAML instants: UTC with second precision and a literal
// Z designator, the form every tested IdP emits and accepts.
const TimeFormat = "2006-01-02T15:04:05Z"

// SAMLVersion is the only protocol version this package speaks.
const SAMLVersion = "2.0"
