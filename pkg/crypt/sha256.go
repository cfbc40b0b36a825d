package crypt

import (
	"crypto/sha256"
	"encoding/hex"
)

// separator cannot appear in URLs or header values, so parts never run together.
const separator = "\x00"

// Fingerprint returns the hex SHA256 of parts joined by a NUL separator.
// ("ab", "c") and ("a", "bc") produce different fingerprints.
func Fingerprint(parts ...string) string {
	hasher := sha256.New()

	for i, part := range parts {
		if i > 0 {
			hasher.Write([]byte(separator))
		}

		hasher.Write([]byte(part))
	}

	return hex.EncodeToString(hasher.Sum(nil))
}
