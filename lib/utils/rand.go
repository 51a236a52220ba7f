package utils

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/gravitational/trace"
)

// CryptoRandomHex returns hex encoded random string generated with crypto-strong
// pseudo random generator of the given bytes
func CryptoRandomHex(len int) (string, error) {
	randomBytes := make([]byte, len)
	if _, err := rand.Reader.Read(randomBytes); err != nil {
		return "", trace.Wrap(err)
	}
	return hex.EncodeToString(randomBytes), nil
}

// GenerateUniqueID returns a fresh SAML message identifier: 20 bytes of
// crypto-strong randomness in hex behind a fixed prefix. The prefix keeps
// the value a valid XML NCName, which must not start with a digit.
func GenerateUniqueID() (string, error) {
	id, err := CryptoRandomHex(20)
	if err != nil {
		return "", trace.Wrap(err)
	}
	return "id-" + id, nil
}
