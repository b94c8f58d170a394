package crypto

import (
	"crypto/sha512"

	"filippo.io/edwards25519"

	"qiyas/internal/domain"
)

// Ed25519PublicToX25519 converts an Ed25519 verifying key to its birationally
// equivalent X25519 public key (the Montgomery u-coordinate of the same
// curve point), so a single long-term seed yields both a signing key and a
// Diffie-Hellman key as required by the identity data model.
func Ed25519PublicToX25519(pub domain.Ed25519Public) (domain.X25519Public, error) {
	var out domain.X25519Public
	p, err := new(edwards25519.Point).SetBytes(pub.Slice())
	if err != nil {
		return out, err
	}
	copy(out[:], p.BytesMontgomery())
	return out, nil
}

// Ed25519PrivateToX25519 converts an Ed25519 signing key to the X25519
// private scalar sharing the same long-term seed: the Ed25519 private key's
// seed is hashed with SHA-512 per RFC 8032, the low 32 bytes clamped per
// RFC 7748, and used directly as the Curve25519 scalar.
func Ed25519PrivateToX25519(priv domain.Ed25519Private) domain.X25519Private {
	seed := priv.Slice()[:32]
	h := sha512.Sum512(seed)
	var out domain.X25519Private
	copy(out[:], h[:32])
	ClampX25519PrivateKey(&out)
	return out
}
