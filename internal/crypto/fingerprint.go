package crypto

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns the full SHA-256 hex digest of pub, the canonical
// identity fingerprint computed over the long-term Ed25519 public key.
func Fingerprint(pub []byte) string {
	sum := sha256.Sum256(pub)
	return hex.EncodeToString(sum[:])
}
