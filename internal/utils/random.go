package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// refreshTokenBytes is the entropy of a refresh token value. 32 bytes
// (256 bits) hex-encoded yields a 64 character secret.
const refreshTokenBytes = 32

// NewRefreshTokenValue returns a high-entropy random refresh token value.
// The value is the bearer secret itself and is stored and looked up raw.
func NewRefreshTokenValue() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate refresh token value: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
