package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/dkotelnikov/go-sync-ledger/models"
)

// Fingerprint returns the hex-encoded SHA-256 digest of the record's
// canonical serialization.
//
// Canonical means key-order independent: encoding/json marshals map keys
// in sorted order at every nesting level, so two semantically identical
// records always produce the same digest regardless of the field order
// the client happened to send. A nil record fingerprints to the digest of
// the JSON null literal, which is what deletions are recorded under.
func Fingerprint(r models.Record) (string, error) {
	canonical, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("canonical serialization failed: %w", err)
	}

	sum := sha256.Sum256(canonical)

	return hex.EncodeToString(sum[:]), nil
}
