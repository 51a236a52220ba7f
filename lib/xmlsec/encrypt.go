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
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/base64"

	"github.com/beevik/etree"
	"github.com/gravitational/trace"

	samlsp "github.com/gravitational/samlsp"
)

// encryptedDataTypeElement marks an EncryptedData payload as a whole XML
// element, the only type SAML uses.
const encryptedDataTypeElement = "http://www.w3.org/2001/04/xmlenc#Element"

// Encrypt encrypts el for the holder of certificate and returns the
// resulting EncryptedData element with the wrapped key embedded in its
// KeyInfo. The payload algorithm selects the symmetric cipher; the key
// transport algorithm is RSA-OAEP unless PKCS#1 v1.5 is requested
// explicitly.
func Encrypt(el *etree.Element, certificate *x509.Certificate, payloadAlgorithm, keyTransportAlgorithm string) (*etree.Element, error) {
	if el == nil {
		return nil, trace.BadParameter("missing element to encrypt")
	}
	if certificate == nil {
		return nil, trace.BadParameter("missing parameter certificate")
	}
	publicKey, ok := certificate.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, trace.BadParameter("certificate holds a %T public key, only RSA is supported for key transport", certificate.PublicKey)
	}
	if payloadAlgorithm == "" {
		payloadAlgorithm = samlsp.EncryptionAES128CBC
	}
	if keyTransportAlgorithm == "" {
		keyTransportAlgorithm = samlsp.KeyTransportRSAOAEPMGF1P
	}

	doc := etree.NewDocument()
	doc.SetRoot(el.Copy())
	plaintext, err := doc.WriteToBytes()
	if err != nil {
		return nil, trace.Wrap(err)
	}

	key, err := generateSymmetricKey(payloadAlgorithm)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	ciphertext, err := encryptPayload(payloadAlgorithm, key, plaintext)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	wrappedKey, err := wrapKey(keyTransportAlgorithm, publicKey, key)
	if err != nil {
		return nil, trace.Wrap(err)
	}

	encryptedData := etree.NewElement("xenc:EncryptedData")
	encryptedData.CreateAttr("xmlns:xenc", samlsp.NamespaceXMLEnc)
	encryptedData.CreateAttr("Type", encryptedDataTypeElement)
	encryptedData.CreateElement("xenc:EncryptionMethod").CreateAttr("Algorithm", payloadAlgorithm)

	keyInfo := encryptedData.CreateElement("ds:KeyInfo")
	keyInfo.CreateAttr("xmlns:ds", samlsp.NamespaceDSig)
	encryptedKey := keyInfo.CreateElement("xenc:EncryptedKey")
	keyMethod := encryptedKey.CreateElement("xenc:EncryptionMethod")
	keyMethod.CreateAttr("Algorithm", keyTransportAlgorithm)
	if keyTransportAlgorithm == samlsp.KeyTransportRSAOAEPMGF1P {
		keyMethod.CreateElement("ds:DigestMethod").CreateAttr("Algorithm", samlsp.DigestSHA1)
	}
	keyCipherData := encryptedKey.CreateElement("xenc:CipherData")
	keyCipherData.CreateElement("xenc:CipherValue").SetText(base64.StdEncoding.EncodeToString(wrappedKey))

	cipherData := encryptedData.CreateElement("xenc:CipherData")
	cipherData.CreateElement("xenc:CipherValue").SetText(base64.StdEncoding.EncodeToString(ciphertext))
	return encryptedData, nil
}

func generateSymmetricKey(algorithm string) ([]byte, error) {
	var size int
	switch algorithm {
	case samlsp.EncryptionAES128CBC, samlsp.EncryptionAES128GCM:
		size = 16
	case samlsp.EncryptionAES192CBC, samlsp.EncryptionAES192GCM, samlsp.EncryptionTripleDESCBC:
		size = 24
	case samlsp.EncryptionAES256CBC, samlsp.EncryptionAES256GCM:
		size = 32
	default:
		return nil, trace.BadParameter("unsupported encryption algorithm %q", algorithm)
	}
	key := make([]byte, size)
	if _, err := rand.Read(key); err != nil {
		return nil, trace.Wrap(err)
	}
	return key, nil
}

func encryptPayload(algorithm string, key, plaintext []byte) ([]byte, error) {
	switch algorithm {
	case samlsp.EncryptionAES128CBC, samlsp.EncryptionAES192CBC, samlsp.EncryptionAES256CBC:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, trace.Wrap(err)
		}
		return encryptCBC(block, plaintext)
	case samlsp.EncryptionAES128GCM, samlsp.EncryptionAES192GCM, samlsp.EncryptionAES256GCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, trace.Wrap(err)
		}
		return encryptGCM(block, plaintext)
	case samlsp.EncryptionTripleDESCBC:
		block, err := des.NewTripleDESCipher(key)
		if err != nil {
			return nil, trace.Wrap(err)
		}
		return encryptCBC(block, plaintext)
	}
	return nil, trace.BadParameter("unsupported encryption algorithm %q", algorithm)
}

func encryptCBC(block cipher.Block, plaintext []byte) ([]byte, error) {
	blockSize := block.BlockSize()
	pad := blockSize - len(plaintext)%blockSize
	padded := make([]byte, len(plaintext)+pad)
	copy(padded, plaintext)
	for i := len(plaintext); i < len(padded); i++ {
		padded[i] = byte(pad)
	}

	ciphertext := make([]byte, blockSize+len(padded))
	iv := ciphertext[:blockSize]
	if _, err := rand.Read(iv); err != nil {
		return nil, trace.Wrap(err)
	}
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext[blockSize:], padded)
	return ciphertext, nil
}

func encryptGCM(block cipher.Block, plaintext []byte) ([]byte, error) {
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	nonce := make([]byte, gcmNonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, trace.Wrap(err)
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

func wrapKey(algorithm string, publicKey *rsa.PublicKey, key []byte) ([]byte, error) {
	switch algorithm {
	case samlsp.KeyTransportRSAOAEPMGF1P:
		wrapped, err := rsa.EncryptOAEP(sha1.New(), rand.Reader, publicKey, key, nil)
		return wrapped, trace.Wrap(err)
	case samlsp.KeyTransportRSA15:
		wrapped, err := rsa.EncryptPKCS1v15(rand.Reader, publicKey, key)
		return wrapped, trace.Wrap(err)
	}
	return nil, trace.BadParameter("unsupported key transport algorithm %q", algorithm)
}
