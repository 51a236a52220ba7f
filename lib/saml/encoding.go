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
	"bytes"
	"compress/flate"
	"encoding/base64"
	"io"

	"github.com/gravitational/trace"
)

// maxDecodedMessageSize bounds the size of an inflated SAML message. The
// Redirect binding invites decompression bombs: a few hundred bytes of
// DEFLATE can expand without bound, so inflation stops here.
const maxDecodedMessageSize = 10 * 1024 * 1024

// deflateAndEncode compresses xml with raw DEFLATE (RFC 1951, no zlib
// wrapper) and encodes the result in base64, the form the Redirect binding
// carries in a query parameter.
func deflateAndEncode(xml []byte) (string, error) {
	buf := &bytes.Buffer{}
	fw, err := flate.NewWriter(buf, flate.DefaultCompression)
	if err != nil {
		return "", trace.Wrap(err)
	}
	if _, err := fw.Write(xml); err != nil {
		return "", trace.Wrap(err)
	}
	if err := fw.Close(); err != nil {
		return "", trace.Wrap(err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// decodeRedirectMessage decodes a message received on the Redirect binding:
// base64, then DEFLATE when the sender compressed. Identity providers that
// skip compression exist in the wild, so a payload that does not inflate is
// returned as the plain base64-decoded bytes.
func decodeRedirectMessage(encoded string) ([]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, trace.Wrap(err, "failed to decode message")
	}
	inflated, err := inflate(decoded)
	if err != nil {
		return decoded, nil
	}
	return inflated, nil
}

// decodePostMessage decodes a message received on the POST binding, which
// carries plain base64 of the raw XML and never compresses.
func decodePostMessage(encoded string) ([]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, trace.Wrap(err, "failed to decode message")
	}
	return decoded, nil
}

func inflate(data []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()
	out, err := io.ReadAll(io.LimitReader(r, maxDecodedMessageSize+1))
	if err != nil {
		return nil, trace.Wrap(err)
	}
	if len(out) > maxDecodedMessageSize {
		return nil, trace.LimitExceeded("inflated message exceeds %d bytes", maxDecodedMessageSize)
	}
	return out, nil
}
