// Package crypto exposes the primitives layer used by the rest of qiyas.
//
// Contents
//
//   - X25519 key generation, clamping and Diffie–Hellman (GenerateX25519,
//     ClampX25519PrivateKey, DH)
//   - Ed25519 key generation, signing and verification (GenerateEd25519,
//     SignEd25519, VerifyEd25519), and the Ed25519<->X25519 birational
//     conversion used to derive one identity's DH image from its signing
//     seed (Ed25519PublicToX25519, Ed25519PrivateToX25519)
//   - AEAD sealing/opening over XChaCha20-Poly1305 (primary) and
//     AES-256-GCM (alternative), selected by the wire algorithm byte (Seal,
//     Open, NewNonce, Algorithm)
//   - HKDF-SHA512 and HMAC-SHA256 key derivation (HKDFSHA512, HMACSHA256)
//   - SHA-256 hashing and constant-time comparison (SHA256, ConstantTimeEqual)
//   - Best-effort memory wiping for sensitive byte slices (Wipe, Secret)
//   - Public-key fingerprints as full lowercase-hex SHA-256 digests (Fingerprint)
//
// Passphrase-based local-storage encryption (scrypt + ChaCha20-Poly1305)
// lives in internal/store, next to the blob format it wraps, rather than
// here.
//
// # Notes
//
// Key generation, DH and hashing return fixed-size array types defined in
// internal/domain; Seal, Open, HKDFSHA512 and HMACSHA256 return byte slices,
// and Fingerprint returns a string. Callers should treat returned secrets as
// sensitive and rely on Wipe when practical to reduce lifetime in memory.
package crypto
