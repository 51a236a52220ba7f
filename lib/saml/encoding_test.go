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
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRedirectMessageRoundTrip(t *testing.T) {
	t.Parallel()

	xml := []byte(`<samlp:LogoutRequest xmlns:samlp="urn:oasis:names:tc:SAML:2.0:protocol" ID="id-1"/>`)

	encoded, err := deflateAndEncode(xml)
	require.NoError(t, err)
	decoded, err := decodeRedirectMessage(encoded)
	require.NoError(t, err)
	require.Equal(t, xml, decoded)
}

func TestRedirectMessageUncompressedFallback(t *testing.T) {
	t.Parallel()

	// Some identity providers skip DEFLATE on the Redirect binding; the
	// decoder accepts plain base64 XML.
	xml := []byte(`<samlp:LogoutResponse xmlns:samlp="urn:oasis:names:tc:SAML:2.0:protocol" ID="id-2"/>`)
	decoded, err := decodeRedirectMessage(base64.StdEncoding.EncodeToString(xml))
	require.NoError(t, err)
	require.Equal(t, xml, decoded)
}

func TestRedirectMessageBadBase64(t *testing.T) {
	t.Parallel()

	_, err := decodeRedirectMessage("%%% not base64 %%%")
	require.Error(t, err)
}

func TestDecodePostMessage(t *testing.T) {
	t.Parallel()

	xml := []byte(`<samlp:Response xmlns:samlp="urn:oasis:names:tc:SAML:2.0:protocol" ID="id-3"/>`)
	decoded, err := decodePostMessage(base64.StdEncoding.EncodeToString(xml))
	require.NoError(t, err)
	require.Equal(t, xml, decoded)

	_, err = decodePostMessage("!!!")
	require.Error(t, err)
}

func TestFormatAndParseInstant(t *testing.T) {
	t.Parallel()

	formatted := formatInstant(testInstant)
	require.Equal(t, "2026-08-25T10:30:00Z", formatted)

	parsed, err := parseInstant(formatted)
	require.NoError(t, err)
	require.True(t, parsed.Equal(testInstant))

	// Sub-second precision and offsets occur in the wild.
	parsed, err = parseInstant("2026-08-25T12:30:00.500+02:00")
	require.NoError(t, err)
	require.True(t, parsed.Equal(testInstant.Add(500*time.Millisecond)))

	_, err = parseInstant("not a timestamp")
	require.Error(t, err)
}
