package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"qiyas/internal/qiyaserr"
)

// Algorithm identifies the AEAD construction used to seal an envelope body,
// encoded as the single wire byte from §6 of the protocol (0x01/0x02).
type Algorithm byte

const (
	// AlgoXChaCha20Poly1305 is the primary AEAD: 24-byte nonce, 32-byte key.
	AlgoXChaCha20Poly1305 Algorithm = 0x01
	// AlgoAES256GCM is the alternative AEAD: 12-byte nonce, 32-byte key.
	AlgoAES256GCM Algorithm = 0x02
)

// NonceSize returns the nonce length for algo, or 0 if algo is unknown.
func (a Algorithm) NonceSize() int {
	switch a {
	case AlgoXChaCha20Poly1305:
		return chacha20poly1305.NonceSizeX
	case AlgoAES256GCM:
		return 12
	default:
		return 0
	}
}

func newAEAD(algo Algorithm, key []byte) (cipher.AEAD, error) {
	switch algo {
	case AlgoXChaCha20Poly1305:
		return chacha20poly1305.NewX(key)
	case AlgoAES256GCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		return cipher.NewGCM(block)
	default:
		return nil, fmt.Errorf("crypto: unknown AEAD algorithm %#x", byte(algo))
	}
}

// NewNonce returns a fresh random nonce sized for algo.
func NewNonce(algo Algorithm) ([]byte, error) {
	n := algo.NonceSize()
	if n == 0 {
		return nil, fmt.Errorf("crypto: unknown AEAD algorithm %#x", byte(algo))
	}
	nonce := make([]byte, n)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return nonce, nil
}

// Seal encrypts plaintext under key/nonce/ad with the given algorithm,
// returning ciphertext||tag.
func Seal(algo Algorithm, key, nonce, plaintext, ad []byte) ([]byte, error) {
	aead, err := newAEAD(algo, key)
	if err != nil {
		return nil, err
	}
	return aead.Seal(nil, nonce, plaintext, ad), nil
}

// Open decrypts ciphertext under key/nonce/ad with the given algorithm.
//
// Any tag mismatch is reported as ErrCryptoVerification without revealing
// partial plaintext: the underlying AEAD implementations already fail
// closed (they return nil on auth failure), but we normalize the error here
// so callers never depend on the specific stdlib/x-crypto wording.
func Open(algo Algorithm, key, nonce, ciphertext, ad []byte) ([]byte, error) {
	aead, err := newAEAD(algo, key)
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, nonce, ciphertext, ad)
	if err != nil {
		return nil, qiyaserr.ErrCryptoVerification
	}
	return pt, nil
}
