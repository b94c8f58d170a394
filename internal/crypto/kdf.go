package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"io"

	"golang.org/x/crypto/hkdf"
)

// HKDFSHA512 derives length bytes from ikm/salt/info using HKDF-SHA512, the
// KDF used throughout X3DH and the ratchet's root chain (§4.1/§4.3/§4.4).
func HKDFSHA512(salt, ikm, info []byte, length int) ([]byte, error) {
	out := make([]byte, length)
	r := hkdf.New(sha512.New, ikm, salt, info)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	return out, nil
}

// HMACSHA256 computes HMAC-SHA256(key, data), used for the symmetric chain
// ratchet's message-key/next-chain-key derivation (§4.4) with the fixed
// single-byte labels 0x01 and 0x02 so the two outputs can never collide.
func HMACSHA256(key []byte, data ...byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}

// ConstantTimeEqual reports whether a and b are equal in time independent
// of where they first differ.
func ConstantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}

// SHA256 returns the SHA-256 digest of data.
func SHA256(data ...[]byte) [32]byte {
	h := sha256.New()
	for _, d := range data {
		h.Write(d)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
