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

package xmlsec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
	"crypto/rsa"
	"encoding/base64"

	"github.com/beevik/etree"
	"github.com/gravitational/trace"

	samlsp "github.com/gravitational/samlsp"
)

// gcmNonceSize is the nonce length XML encryption prepends to AES-GCM
// ciphertexts.
const gcmNonceSize = 12

// Decrypt unwraps the EncryptedData held by container, an
// EncryptedAssertion or EncryptedID element, and parses the plaintext back
// into a detached element. The symmetric key is recovered from the
// EncryptedKey with the SP private key; the EncryptedKey may sit inside the
// EncryptedData's KeyInfo or alongside it in the container, both placements
// occur in the wild.
func Decrypt(container *etree.Element, key *rsa.PrivateKey, rejectDeprecated bool) (*etree.Element, error) {
	if container == nil {
		return nil, trace.BadParameter("missing encrypted element")
	}
	if key == nil {
		return nil, trace.BadParameter("missing parameter key")
	}

	encryptedData := container
	if container.Tag != "EncryptedData" {
		encryptedData = FindChild(container, samlsp.NamespaceXMLEnc, "EncryptedData")
	}
	if encryptedData == nil {
		return nil, trace.BadParameter("no EncryptedData element found")
	}

	encryptedKeys := FindDescendants(container, samlsp.NamespaceXMLEnc, "EncryptedKey")
	if len(encryptedKeys) == 0 {
		return nil, trace.BadParameter("no EncryptedKey element found")
	}
	symmetricKey, err := decryptKey(encryptedKeys[0], key, rejectDeprecated)
	if err != nil {
		return nil, trace.Wrap(err)
	}

	method := FindChild(encryptedData, samlsp.NamespaceXMLEnc, "EncryptionMethod")
	algorithm := ""
	if method != nil {
		algorithm = method.SelectAttrValue("Algorithm", "")
	}
	ciphertext, err := cipherValue(encryptedData)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	plaintext, err := decryptPayload(algorithm, symmetricKey, ciphertext)
	if err != nil {
		return nil, trace.Wrap(err)
	}

	doc, err := ParseDocument(plaintext)
	if err != nil {
		return nil, trace.Wrap(err, "decrypted payload is not well-formed XML")
	}
	return doc.Root(), nil
}

// decryptKey recovers the symmetric key from an EncryptedKey element using
// RSA-OAEP or, unless rejected, PKCS#1 v1.5 key transport.
func decryptKey(encryptedKey *etree.Element, key *rsa.PrivateKey, rejectDeprecated bool) ([]byte, error) {
	method := FindChild(encryptedKey, samlsp.NamespaceXMLEnc, "EncryptionMethod")
	if method == nil {
		return nil, trace.BadParameter("EncryptedKey has no EncryptionMethod")
	}
	algorithm := method.SelectAttrValue("Algorithm", "")
	ciphertext, err := cipherValue(encryptedKey)
	if err != nil {
		return nil, trace.Wrap(err)
	}

	switch algorithm {
	case samlsp.KeyTransportRSAOAEPMGF1P:
		digestAlgorithm := samlsp.DigestSHA1
		if digestMethod := FindChild(method, samlsp.NamespaceDSig, "DigestMethod"); digestMethod != nil {
			digestAlgorithm = digestMethod.SelectAttrValue("Algorithm", samlsp.DigestSHA1)
		}
		hash, err := DigestHash(digestAlgorithm)
		if err != nil {
			return nil, trace.Wrap(err)
		}
		plaintext, err := rsa.DecryptOAEP(hash.New(), nil, key, ciphertext, nil)
		if err != nil {
			return nil, trace.Wrap(err, "failed to decrypt EncryptedKey")
		}
		return plaintext, nil
	case samlsp.KeyTransportRSA15:
		if rejectDeprecated {
			return nil, trace.Wrap(ErrDeprecatedAlgorithm, "key transport %q", algorithm)
		}
		plaintext, err := rsa.DecryptPKCS1v15(nil, key, ciphertext)
		if err != nil {
			return nil, trace.Wrap(err, "failed to decrypt EncryptedKey")
		}
		return plaintext, nil
	}
	return nil, trace.BadParameter("unsupported key transport algorithm %q", algorithm)
}

// decryptPayload decrypts an XML encryption payload. CBC modes carry the IV
// as the leading cipher block; GCM modes carry the nonce as the leading 12
// bytes.
func decryptPayload(algorithm string, key, ciphertext []byte) ([]byte, error) {
	switch algorithm {
	case samlsp.EncryptionAES128CBC, samlsp.EncryptionAES192CBC, samlsp.EncryptionAES256CBC:
		if err := checkKeySize(algorithm, key); err != nil {
			return nil, trace.Wrap(err)
		}
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, trace.Wrap(err)
		}
		return decryptCBC(block, ciphertext)
	case samlsp.EncryptionAES128GCM, samlsp.EncryptionAES192GCM, samlsp.EncryptionAES256GCM:
		if err := checkKeySize(algorithm, key); err != nil {
			return nil, trace.Wrap(err)
		}
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, trace.Wrap(err)
		}
		return decryptGCM(block, ciphertext)
	case samlsp.EncryptionTripleDESCBC:
		if err := checkKeySize(algorithm, key); err != nil {
			return nil, trace.Wrap(err)
		}
		block, err := des.NewTripleDESCipher(key)
		if err != nil {
			return nil, trace.Wrap(err)
		}
		return decryptCBC(block, ciphertext)
	}
	return nil, trace.BadParameter("unsupported encryption algorithm %q", algorithm)
}

func decryptCBC(block cipher.Block, ciphertext []byte) ([]byte, error) {
	blockSize := block.BlockSize()
	if len(ciphertext) < 2*blockSize || len(ciphertext)%blockSize != 0 {
		return nil, trace.BadParameter("ciphertext length %d is not valid for the cipher", len(ciphertext))
	}
	iv, payload := ciphertext[:blockSize], ciphertext[blockSize:]
	plaintext := make([]byte, len(payload))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, payload)
	return stripCBCPadding(plaintext, blockSize)
}

func decryptGCM(block cipher.Block, ciphertext []byte) ([]byte, error) {
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	if len(ciphertext) < gcmNonceSize {
		return nil, trace.BadParameter("ciphertext too short for a GCM nonce")
	}
	nonce, payload := ciphertext[:gcmNonceSize], ciphertext[gcmNonceSize:]
	plaintext, err := aead.Open(nil, nonce, payload, nil)
	if err != nil {
		return nil, trace.AccessDenied("failed to decrypt payload: %v", err)
	}
	return plaintext, nil
}

// stripCBCPadding removes XML encryption block padding: the final byte
// holds the pad length and the padding bytes themselves are arbitrary.
func stripCBCPadding(plaintext []byte, blockSize int) ([]byte, error) {
	if len(plaintext) == 0 {
		return nil, trace.BadParameter("empty plaintext")
	}
	pad := int(plaintext[len(plaintext)-1])
	if pad < 1 || pad > blockSize || pad > len(plaintext) {
		return nil, trace.BadParameter("invalid block cipher padding")
	}
	return plaintext[:len(plaintext)-pad], nil
}

// checkKeySize rejects symmetric keys whose size does not match the
// declared algorithm. A mismatch means the key transport and payload
// declarations disagree, which never happens on legitimate messages.
func checkKeySize(algorithm string, key []byte) error {
	var want int
	switch algorithm {
	case samlsp.EncryptionAES128CBC, samlsp.EncryptionAES128GCM:
		want = 16
	case samlsp.EncryptionAES192CBC, samlsp.EncryptionAES192GCM, samlsp.EncryptionTripleDESCBC:
		want = 24
	case samlsp.EncryptionAES256CBC, samlsp.EncryptionAES256GCM:
		want = 32
	default:
		return trace.BadParameter("unsupported encryption algorithm %q", algorithm)
	}
	if len(key) != want {
		return trace.BadParameter("algorithm %q requires a %d byte key, got %d", algorithm, want, len(key))
	}
	return nil
}

// cipherValue decodes the base64 CipherData/CipherValue text beneath el.
func cipherValue(el *etree.Element) ([]byte, error) {
	cipherData := FindChild(el, samlsp.NamespaceXMLEnc, "CipherData")
	value := FindChild(cipherData, samlsp.NamespaceXMLEnc, "CipherValue")
	if value == nil {
		return nil, trace.BadParameter("no CipherValue element found")
	}
	decoded, err := base64.StdEncoding.DecodeString(stripWhitespace(value.Text()))
	if err != nil {
		return nil, trace.Wrap(err, "failed to decode CipherValue")
	}
	return decoded, nil
}
