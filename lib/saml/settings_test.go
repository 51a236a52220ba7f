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
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/pem"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	samlsp "github.com/gravitational/samlsp"
)

// Endpoints of the reference provider pair every test runs against.
const (
	testSPEntityID     = "https://sp.example.com/metadata"
	testACSURL         = "https://sp.example.com/acs"
	testSPSLOURL       = "https://sp.example.com/slo"
	testIdPEntityID    = "https://idp.example.com/metadata"
	testIdPSSOURL      = "https://idp.example.com/sso"
	testIdPSLOURL      = "https://idp.example.com/slo"
	testIdPSLORetURL   = "https://idp.example.com/slo-return"
	testRelayStateHome = "https://sp.example.com/welcome"
)

// testInstant is the frozen wall clock of every deterministic test. Key
// material and assertion timestamps are minted around it.
var testInstant = time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC)

func testClock() *clockwork.FakeClock {
	return clockwork.NewFakeClockAt(testInstant)
}

// newTestKeyPair mints an RSA key pair with a certificate valid around
// testInstant, so the fake clocks used in validation accept it.
func newTestKeyPair(t *testing.T, cn string) (keyPEM, certPEM string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	template := x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: cn},
		NotBefore:             testInstant.Add(-time.Hour),
		NotAfter:              testInstant.Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	require.NoError(t, err)
	certPEM = string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))
	keyPEM = string(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}))
	return keyPEM, certPEM
}

// newTestSettingsConfig returns the reference provider configuration with
// the clock frozen at testInstant. Tests adjust it before NewSettings.
func newTestSettingsConfig(idpCertPEM string) SettingsConfig {
	cfg := SettingsConfig{
		SP: SPSettings{
			EntityID:                    testSPEntityID,
			AssertionConsumerServiceURL: testACSURL,
			SingleLogoutServiceURL:      testSPSLOURL,
		},
		IdP: IdPSettings{
			EntityID:                       testIdPEntityID,
			SingleSignOnServiceURL:         testIdPSSOURL,
			SingleLogoutServiceURL:         testIdPSLOURL,
			SingleLogoutServiceResponseURL: testIdPSLORetURL,
		},
		Clock: testClock(),
	}
	if idpCertPEM != "" {
		cfg.IdP.Certificates = []string{idpCertPEM}
	}
	return cfg
}

func TestSettingsDefaults(t *testing.T) {
	t.Parallel()

	_, idpCertPEM := newTestKeyPair(t, "idp.example.com")
	settings, err := NewSettings(newTestSettingsConfig(idpCertPEM))
	require.NoError(t, err)

	require.True(t, settings.Strict())
	require.Equal(t, testSPEntityID, settings.SPEntityID())
	require.Equal(t, testACSURL, settings.AssertionConsumerServiceURL())
	require.Equal(t, testSPSLOURL, settings.SPSingleLogoutServiceURL())
	require.Equal(t, samlsp.NameIDFormatUnspecified, settings.NameIDFormat())
	require.Equal(t, testIdPEntityID, settings.IdPEntityID())
	require.Equal(t, testIdPSSOURL, settings.IdPSSOURL())
	require.Equal(t, testIdPSLOURL, settings.IdPSLOURL())
	require.Equal(t, testIdPSLORetURL, settings.IdPSLOResponseURL())
	require.Len(t, settings.IdPCertificates(), 1)
	require.Nil(t, settings.PrivateKey())
	require.Equal(t, samlsp.SignatureRSASHA256, settings.signatureAlgorithm)
	require.Equal(t, samlsp.DigestSHA256, settings.digestAlgorithm)
	require.True(t, settings.compressRequests)
	require.True(t, settings.wantNameID)
	require.True(t, settings.wantAttributeStatement)
	require.True(t, settings.wantXMLValidation)
	require.Zero(t, settings.ClockSkew())
}

func TestSettingsProblemAggregation(t *testing.T) {
	t.Parallel()

	// A thoroughly broken configuration surfaces every problem in one
	// error instead of one per round trip.
	cfg := SettingsConfig{
		Security: SecuritySettings{
			WantMessagesSigned: true,
			ClockSkew:          -time.Second,
			SignatureAlgorithm: "http://www.w3.org/2001/04/xmldsig-more#rsa-md5",
		},
	}
	_, err := NewSettings(cfg)
	require.Error(t, err)

	var issue *ValidationError
	require.ErrorAs(t, err, &issue)
	require.Equal(t, KindSettingsInvalid, issue.Kind)
	for _, want := range []string{
		"missing parameter SP.EntityID",
		"missing parameter SP.AssertionConsumerServiceURL",
		"missing parameter IdP.EntityID",
		"missing parameter IdP.SingleSignOnServiceURL",
		"unsupported signature algorithm",
		"clock skew must not be negative",
		"require an IdP certificate or fingerprint",
	} {
		require.Contains(t, issue.Detail, want)
	}
}

func TestSettingsKeyPairRequired(t *testing.T) {
	t.Parallel()

	_, idpCertPEM := newTestKeyPair(t, "idp.example.com")

	cfg := newTestSettingsConfig(idpCertPEM)
	cfg.Security.AuthnRequestsSigned = true
	cfg.Security.SignMetadata = true
	_, err := NewSettings(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "require an SP private key and certificate")

	keyPEM, certPEM := newTestKeyPair(t, "sp.example.com")
	cfg.SP.PrivateKey = keyPEM
	cfg.SP.Certificate = certPEM
	settings, err := NewSettings(cfg)
	require.NoError(t, err)
	require.NotNil(t, settings.PrivateKey())
	require.NotNil(t, settings.SPCertificate())
	require.True(t, settings.SignMetadata())
}

func TestSettingsBareBase64Certificates(t *testing.T) {
	t.Parallel()

	// IdP metadata often hands over naked base64 DER without the PEM
	// armor; the settings accept it anyway.
	_, idpCertPEM := newTestKeyPair(t, "idp.example.com")
	block, _ := pem.Decode([]byte(idpCertPEM))
	require.NotNil(t, block)
	bare := base64.StdEncoding.EncodeToString(block.Bytes)
	require.False(t, strings.Contains(bare, "BEGIN CERTIFICATE"))

	settings, err := NewSettings(newTestSettingsConfig(bare))
	require.NoError(t, err)
	require.Len(t, settings.IdPCertificates(), 1)
}

func TestSettingsRejectDeprecatedConflict(t *testing.T) {
	t.Parallel()

	_, idpCertPEM := newTestKeyPair(t, "idp.example.com")
	cfg := newTestSettingsConfig(idpCertPEM)
	cfg.Security.RejectDeprecatedAlgorithm = true
	cfg.Security.SignatureAlgorithm = samlsp.SignatureRSASHA1
	_, err := NewSettings(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "deprecated signature algorithm")
}

func TestSettingsContactsAndOrganization(t *testing.T) {
	t.Parallel()

	_, idpCertPEM := newTestKeyPair(t, "idp.example.com")
	cfg := newTestSettingsConfig(idpCertPEM)
	cfg.Contacts = []Contact{{Type: "technical", GivenName: "Ops", EmailAddress: "ops@example.com"}}
	cfg.Organization = &Organization{Name: "Example", DisplayName: "Example Corp", URL: "https://example.com"}
	settings, err := NewSettings(cfg)
	require.NoError(t, err)
	require.Len(t, settings.Contacts(), 1)
	require.Equal(t, "Example", settings.Organization().Name)

	cfg.Contacts = []Contact{{Type: "billing", GivenName: "Ops", EmailAddress: "ops@example.com"}}
	_, err = NewSettings(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "contact type must be technical or support")
}

func TestSettingsSetStrict(t *testing.T) {
	t.Parallel()

	_, idpCertPEM := newTestKeyPair(t, "idp.example.com")
	settings, err := NewSettings(newTestSettingsConfig(idpCertPEM))
	require.NoError(t, err)
	require.True(t, settings.Strict())
	settings.SetStrict(false)
	require.False(t, settings.Strict())
}
