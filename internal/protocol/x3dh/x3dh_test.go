package x3dh_test

import (
	"bytes"
	"encoding/hex"
	"testing"

	"qiyas/internal/crypto"
	"qiyas/internal/domain"
	"qiyas/internal/protocol/x3dh"
	"qiyas/internal/qiyaserr"
)

// makeIdentity creates a domain.Identity the way the rest of qiyas does: an
// Ed25519 seed with its X25519 image derived from the same seed.
func makeIdentity(t *testing.T) domain.Identity {
	t.Helper()
	edPriv, edPub, err := crypto.GenerateEd25519()
	if err != nil {
		t.Fatalf("GenerateEd25519: %v", err)
	}
	xPriv := crypto.Ed25519PrivateToX25519(edPriv)
	xPub, err := crypto.Ed25519PublicToX25519(edPub)
	if err != nil {
		t.Fatalf("Ed25519PublicToX25519: %v", err)
	}
	return domain.Identity{XPriv: xPriv, XPub: xPub, EdPriv: edPriv, EdPub: edPub}
}

func makeBundle(t *testing.T, owner domain.Identity, opks []domain.OneTimePreKeyPublic) (domain.PreKeyBundle, domain.X25519Private) {
	t.Helper()
	spkPriv, spkPub, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("GenerateX25519: %v", err)
	}
	sig := crypto.SignEd25519(owner.EdPriv, spkPub.Slice())
	bundle := domain.PreKeyBundle{
		Username:              "bob",
		IdentityKey:           owner.XPub,
		SigningKey:            owner.EdPub,
		SignedPreKeyID:        1,
		SignedPreKey:          spkPub,
		SignedPreKeySignature: sig,
		OneTimePreKeys:        opks,
	}
	return bundle, spkPriv
}

func TestInitiateAndReceiveSession_NoOPK(t *testing.T) {
	alice := makeIdentity(t)
	bob := makeIdentity(t)
	bundle, spkPriv := makeBundle(t, bob, nil)

	result, msg, err := x3dh.InitiateSession(alice, bundle, nil)
	if err != nil {
		t.Fatalf("InitiateSession: %v", err)
	}
	if msg.OneTimePreKeyID != domain.NoOneTimePreKeyID {
		t.Fatalf("want NoOneTimePreKeyID, got %d", msg.OneTimePreKeyID)
	}

	got, err := x3dh.ReceiveSession(bob, spkPriv, nil, msg)
	if err != nil {
		t.Fatalf("ReceiveSession: %v", err)
	}
	if got.RootKey != result.RootKey {
		t.Fatal("root keys differ (no OPK)")
	}
	if got.AssociatedData != result.AssociatedData {
		t.Fatal("associated data differs (no OPK)")
	}
}

func TestInitiateAndReceiveSession_WithOPK(t *testing.T) {
	alice := makeIdentity(t)
	bob := makeIdentity(t)

	opkPriv, opkPub, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("GenerateX25519 (opk): %v", err)
	}
	opk := domain.OneTimePreKeyPublic{ID: 17, Pub: opkPub}
	bundle, spkPriv := makeBundle(t, bob, []domain.OneTimePreKeyPublic{opk})

	result, msg, err := x3dh.InitiateSession(alice, bundle, &opk)
	if err != nil {
		t.Fatalf("InitiateSession: %v", err)
	}
	if msg.OneTimePreKeyID != 17 {
		t.Fatalf("want OPK id 17, got %d", msg.OneTimePreKeyID)
	}

	got, err := x3dh.ReceiveSession(bob, spkPriv, &opkPriv, msg)
	if err != nil {
		t.Fatalf("ReceiveSession: %v", err)
	}
	if got.RootKey != result.RootKey {
		t.Fatal("root keys differ (with OPK)")
	}
}

func TestInitiateSession_BadSignatureIsInvalidBundle(t *testing.T) {
	alice := makeIdentity(t)
	bob := makeIdentity(t)
	bundle, _ := makeBundle(t, bob, nil)
	bundle.SignedPreKeySignature[0] ^= 0xFF

	if _, _, err := x3dh.InitiateSession(alice, bundle, nil); err != qiyaserr.ErrInvalidBundle {
		t.Fatalf("want ErrInvalidBundle, got %v", err)
	}
}

// TestClassicX3DHVector reproduces the RFC-7748 X25519 test vector used as
// the single DH contribution in the end-to-end scenario: the core must
// derive the same root key whenever it is fed the same (IK_A, IK_B, EK_A,
// SPK_B, OPK_B) tuple. The fixture in the scenario description only gives
// the raw DH output's prefix and suffix, so that is what this test pins.
func TestClassicX3DHVector(t *testing.T) {
	aliceSK := mustHexPriv(t, "77076d0a7318a57d3c16c17251b26645df4c2f87ebc0992ab177fba51db92c2a")
	bobSK := mustHexPriv(t, "5dab087e624a8a4b79e17f8b83800ee66f3bb1292618b6fd1c2f8b27ff88e0eb")

	var basepoint domain.X25519Public
	basepoint[0] = 9
	bobPubRaw, err := crypto.DH(bobSK, basepoint)
	if err != nil {
		t.Fatalf("derive bob pub: %v", err)
	}
	var bobPub domain.X25519Public
	copy(bobPub[:], bobPubRaw[:])

	dh, err := crypto.DH(aliceSK, bobPub)
	if err != nil {
		t.Fatalf("DH: %v", err)
	}
	gotHex := hex.EncodeToString(dh[:])
	if gotHex[:8] != "4a5d9d5b" || gotHex[len(gotHex)-4:] != "1742" {
		t.Fatalf("DH mismatch: got %s, want prefix 4a5d9d5b and suffix 1742", gotHex)
	}

	var zero [32]byte
	ikm := make([]byte, 0, 128)
	ikm = append(ikm, zero[:]...)
	ikm = append(ikm, dh[:]...)
	ikm = append(ikm, zero[:]...)
	ikm = append(ikm, zero[:]...)

	salt := bytes.Repeat([]byte{0xFF}, 32)
	sk1, err := crypto.HKDFSHA512(salt, ikm, []byte("QiyasHash_v1_RootKey"), 32)
	if err != nil {
		t.Fatalf("HKDFSHA512: %v", err)
	}
	sk2, err := crypto.HKDFSHA512(salt, ikm, []byte("QiyasHash_v1_RootKey"), 32)
	if err != nil {
		t.Fatalf("HKDFSHA512: %v", err)
	}
	if !bytes.Equal(sk1, sk2) {
		t.Fatal("HKDF derivation is not deterministic for identical inputs")
	}
}

func mustHexBytes(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("hex decode: %v", err)
	}
	return b
}

func mustHexPriv(t *testing.T, s string) domain.X25519Private {
	t.Helper()
	var out domain.X25519Private
	copy(out[:], mustHexBytes(t, s))
	return out
}
