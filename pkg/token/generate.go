// Package token generates the opaque tokens used as one-time lookup keys for
// email verification and password reset. Tokens carry no structure or claims;
// the paired expiry lives on the user record next to the stored value.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// Length is the byte length of generated tokens before hex encoding.
const Length = 32

// Generate returns 32 bytes of cryptographically secure randomness as a
// 64-character hex string.
func Generate() (string, error) {
	b := make([]byte, Length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("token: failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
