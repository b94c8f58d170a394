package envelope

import (
	"bytes"
	"errors"
	"testing"

	"qiyas/internal/domain"
	"qiyas/internal/qiyaserr"
)

func sampleEnvelope() domain.Envelope {
	var env domain.Envelope
	env.From = "alice"
	env.To = "bob"
	env.Header = domain.RatchetHeader{
		PreviousChainLength: 3,
		MessageIndex:        7,
	}
	for i := range env.Header.DiffieHellmanPublicKey {
		env.Header.DiffieHellmanPublicKey[i] = byte(i)
	}
	env.Algorithm = domain.AEADXChaCha20
	env.Nonce = bytes.Repeat([]byte{0x11}, 24)
	env.Cipher = []byte("ciphertext-and-tag")
	for i := range env.ChainProofAnchor {
		env.ChainProofAnchor[i] = byte(0xA0 + i%16)
	}
	for i := range env.TimestampCommitment {
		env.TimestampCommitment[i] = byte(0xB0 + i%16)
	}
	env.Timestamp = 1700000000
	return env
}

func TestEnvelope_RoundTrip(t *testing.T) {
	env := sampleEnvelope()
	buf, err := Encode(env)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.From != env.From || got.To != env.To {
		t.Fatalf("addressing mismatch: got %+v", got)
	}
	if got.Header != env.Header {
		t.Fatalf("header mismatch: got %+v want %+v", got.Header, env.Header)
	}
	if got.Algorithm != env.Algorithm {
		t.Fatalf("algorithm mismatch")
	}
	if !bytes.Equal(got.Nonce, env.Nonce) {
		t.Fatalf("nonce mismatch")
	}
	if !bytes.Equal(got.Cipher, env.Cipher) {
		t.Fatalf("cipher mismatch")
	}
	if got.ChainProofAnchor != env.ChainProofAnchor {
		t.Fatalf("chain proof anchor mismatch")
	}
	if got.TimestampCommitment != env.TimestampCommitment {
		t.Fatalf("timestamp commitment mismatch")
	}
	if got.Timestamp != env.Timestamp {
		t.Fatalf("timestamp mismatch")
	}
	if got.PreKey != nil {
		t.Fatalf("expected no pre-key, got %+v", got.PreKey)
	}
}

func TestEnvelope_RoundTripWithPreKey(t *testing.T) {
	env := sampleEnvelope()
	env.Algorithm = domain.AEADAES256GCM
	env.Nonce = bytes.Repeat([]byte{0x22}, 12)
	pk := &domain.PreKeyMessage{
		OneTimePreKeyID: 17,
	}
	for i := range pk.InitiatorIdentityKey {
		pk.InitiatorIdentityKey[i] = byte(i + 1)
	}
	for i := range pk.EphemeralKey {
		pk.EphemeralKey[i] = byte(i + 2)
	}
	env.PreKey = pk

	buf, err := Encode(env)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.PreKey == nil {
		t.Fatalf("expected pre-key to survive round trip")
	}
	if *got.PreKey != *pk {
		t.Fatalf("pre-key mismatch: got %+v want %+v", *got.PreKey, *pk)
	}
}

func TestEnvelope_RoundTripWithNoOneTimePreKey(t *testing.T) {
	env := sampleEnvelope()
	pk := &domain.PreKeyMessage{OneTimePreKeyID: domain.NoOneTimePreKeyID}
	env.PreKey = pk

	buf, err := Encode(env)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.PreKey.OneTimePreKeyID != domain.NoOneTimePreKeyID {
		t.Fatalf("expected NoOneTimePreKeyID sentinel to survive, got %d", got.PreKey.OneTimePreKeyID)
	}
}

func TestEnvelope_RejectsUnknownVersion(t *testing.T) {
	env := sampleEnvelope()
	buf, err := Encode(env)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	buf[4] = 0x02 // version byte immediately follows the 4-byte magic
	if _, err := Decode(buf); !errors.Is(err, qiyaserr.ErrInvalidEncoding) {
		t.Fatalf("expected ErrInvalidEncoding for unknown version, got %v", err)
	}
}

func TestEnvelope_RejectsBadMagic(t *testing.T) {
	env := sampleEnvelope()
	buf, err := Encode(env)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	buf[0] ^= 0xFF
	if _, err := Decode(buf); !errors.Is(err, qiyaserr.ErrInvalidEncoding) {
		t.Fatalf("expected ErrInvalidEncoding for bad magic, got %v", err)
	}
}

func TestEnvelope_RejectsTrailingBytes(t *testing.T) {
	env := sampleEnvelope()
	buf, err := Encode(env)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	buf = append(buf, 0x00)
	if _, err := Decode(buf); !errors.Is(err, qiyaserr.ErrInvalidEncoding) {
		t.Fatalf("expected ErrInvalidEncoding for trailing bytes, got %v", err)
	}
}

func TestEnvelope_RejectsTruncatedBuffer(t *testing.T) {
	env := sampleEnvelope()
	buf, err := Encode(env)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	buf = buf[:len(buf)-10]
	if _, err := Decode(buf); !errors.Is(err, qiyaserr.ErrInvalidEncoding) {
		t.Fatalf("expected ErrInvalidEncoding for truncated buffer, got %v", err)
	}
}

func TestEnvelope_RejectsInconsistentCipherLength(t *testing.T) {
	env := sampleEnvelope()
	buf, err := Encode(env)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// Locate the 4-byte ciphertext length field: magic(4) + version(1) +
	// header(40) + prekey-flag(1) + algo(1) + nonce(24).
	lenOffset := 4 + 1 + 40 + 1 + 1 + 24
	buf[lenOffset] = 0xFF // inflate the declared length far past the buffer
	if _, err := Decode(buf); !errors.Is(err, qiyaserr.ErrInvalidEncoding) {
		t.Fatalf("expected ErrInvalidEncoding for inconsistent cipher length, got %v", err)
	}
}

func TestEnvelope_RejectsUnknownAlgorithm(t *testing.T) {
	env := sampleEnvelope()
	buf, err := Encode(env)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	algoOffset := 4 + 1 + 40 + 1
	buf[algoOffset] = 0x7F
	if _, err := Decode(buf); !errors.Is(err, qiyaserr.ErrInvalidEncoding) {
		t.Fatalf("expected ErrInvalidEncoding for unknown algorithm, got %v", err)
	}
}

func TestEnvelope_EncodeRejectsMismatchedNonceLength(t *testing.T) {
	env := sampleEnvelope()
	env.Nonce = env.Nonce[:1]
	if _, err := Encode(env); !errors.Is(err, qiyaserr.ErrInvalidEncoding) {
		t.Fatalf("expected ErrInvalidEncoding for mismatched nonce length, got %v", err)
	}
}
