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
	"errors"
	"fmt"

	"github.com/gravitational/samlsp/lib/xmlsec"
)

// ErrorKind labels a validation failure with a stable symbolic name. The
// string values feed telemetry and must never change.
type ErrorKind string

const (
	KindSettingsInvalid              ErrorKind = "SettingsInvalid"
	KindPrivateKeyNotFound           ErrorKind = "PrivateKeyNotFound"
	KindSamlResponseNotFound         ErrorKind = "SamlResponseNotFound"
	KindSamlLogoutMessageNotFound    ErrorKind = "SamlLogoutMessageNotFound"
	KindInvalidXml                   ErrorKind = "InvalidXml"
	KindSchemaViolation              ErrorKind = "SchemaViolation"
	KindInvalidXmlNamespace          ErrorKind = "InvalidXmlNamespace"
	KindInvalidSignature             ErrorKind = "InvalidSignature"
	KindNoSignedElement              ErrorKind = "NoSignedElement"
	KindDuplicatedSignedElement      ErrorKind = "DuplicatedSignedElement"
	KindInvalidSignatureAlgorithm    ErrorKind = "InvalidSignatureAlgorithm"
	KindInvalidIssuer                ErrorKind = "InvalidIssuer"
	KindInvalidAudience              ErrorKind = "InvalidAudience"
	KindInvalidDestination           ErrorKind = "InvalidDestination"
	KindInvalidNameId                ErrorKind = "InvalidNameId"
	KindInvalidNameIdFormat          ErrorKind = "InvalidNameIdFormat"
	KindInvalidInResponseTo          ErrorKind = "InvalidInResponseTo"
	KindUnexpectedInResponseTo       ErrorKind = "UnexpectedInResponseTo"
	KindAssertionExpired             ErrorKind = "AssertionExpired"
	KindAssertionTooEarly            ErrorKind = "AssertionTooEarly"
	KindNoAuthnStatement             ErrorKind = "NoAuthnStatement"
	KindNoAttributeStatements        ErrorKind = "NoAttributeStatements"
	KindResponseStatusError          ErrorKind = "ResponseStatusError"
	KindEncryptionError              ErrorKind = "EncryptionError"
	KindDecryptionError              ErrorKind = "DecryptionError"
	KindSingleLogoutNotSupported     ErrorKind = "SingleLogoutNotSupported"
	KindWrongSubjectConfirmation     ErrorKind = "WrongSubjectConfirmation"
	KindDuplicatedAttributeNameFound ErrorKind = "DuplicatedAttributeNameFound"
)

// ValidationError is a single validation failure: a stable kind for
// telemetry, a human readable detail, and the underlying cause when one
// exists. Message validation accumulates these instead of raising; callers
// inspect the orchestrator's error list after each process call.
type ValidationError struct {
	Kind   ErrorKind
	Detail string
	Cause  error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// newError builds a ValidationError with a formatted detail.
func newError(kind ErrorKind, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// wrapError builds a ValidationError that keeps its cause.
func wrapError(kind ErrorKind, cause error, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: kind, Detail: fmt.Sprintf(format, args...), Cause: cause}
}

// signatureErrorKind folds a signature engine failure into the matching
// error kind.
func signatureErrorKind(err error) ErrorKind {
	switch {
	case errors.Is(err, xmlsec.ErrDeprecatedAlgorithm):
		return KindInvalidSignatureAlgorithm
	case errors.Is(err, xmlsec.ErrMissingSignature):
		return KindNoSignedElement
	}
	return KindInvalidSignature
}

// decryptErrorKind folds a decryption failure into the matching error kind.
// Deprecated key transport surfaces as an algorithm failure, like its
// signature counterpart.
func decryptErrorKind(err error) ErrorKind {
	if errors.Is(err, xmlsec.ErrDeprecatedAlgorithm) {
		return KindInvalidSignatureAlgorithm
	}
	return KindDecryptionError
}
