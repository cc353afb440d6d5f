package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// sessionTokenBytes is the entropy of a device session token before hex
// encoding.
const sessionTokenBytes = 32

// NewSessionToken generates a cryptographically random opaque session
// token for a newly registered device.
func NewSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("error generating session token: %w", err)
	}

	return hex.EncodeToString(buf), nil
}
