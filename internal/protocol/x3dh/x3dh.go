// Package x3dh implements the Extended Triple Diffie-Hellman handshake used
// to bootstrap a session between two identities that have never
// communicated before (§4.3).
package x3dh

import (
	"qiyas/internal/crypto"
	"qiyas/internal/domain"
	"qiyas/internal/metrics"
	"qiyas/internal/qiyaserr"
)

const rootKeyInfo = "QiyasHash_v1_RootKey"

// salt is HKDF's salt input for the initial root key: 32 bytes of 0xFF, a
// fixed domain-separation constant rather than a per-session random value.
var salt = func() []byte {
	s := make([]byte, 32)
	for i := range s {
		s[i] = 0xFF
	}
	return s
}()

// Result is what either side of the handshake derives: the shared root key
// and the associated data bound into every envelope on the resulting
// session.
type Result struct {
	RootKey        [32]byte
	AssociatedData [64]byte
}

// InitiateSession runs the initiator side of X3DH against a responder's
// published bundle, producing the shared root key and the pre-key message
// to send as part of the first envelope.
//
// opk, if non-nil, is the one-time pre-key chosen from the bundle; omitting
// it still produces a valid (if slightly weaker) session.
func InitiateSession(
	ourIdentity domain.Identity,
	bundle domain.PreKeyBundle,
	opk *domain.OneTimePreKeyPublic,
) (Result, domain.PreKeyMessage, error) {
	var result Result
	var msg domain.PreKeyMessage

	if !crypto.VerifyEd25519(bundle.SigningKey, bundle.SignedPreKey.Slice(), bundle.SignedPreKeySignature) {
		metrics.HandshakesTotal.WithLabelValues("invalid_bundle").Inc()
		return result, msg, qiyaserr.ErrInvalidBundle
	}

	ekPriv, ekPub, err := crypto.GenerateX25519()
	if err != nil {
		return result, msg, err
	}

	dh1, err := crypto.DH(ourIdentity.XPriv, bundle.SignedPreKey)
	if err != nil {
		return result, msg, err
	}
	dh2, err := crypto.DH(ekPriv, bundle.IdentityKey)
	if err != nil {
		return result, msg, err
	}
	dh3, err := crypto.DH(ekPriv, bundle.SignedPreKey)
	if err != nil {
		return result, msg, err
	}

	ikm := make([]byte, 0, 32*4)
	ikm = append(ikm, dh1[:]...)
	ikm = append(ikm, dh2[:]...)
	ikm = append(ikm, dh3[:]...)

	opkID := domain.NoOneTimePreKeyID
	if opk != nil {
		dh4, err := crypto.DH(ekPriv, opk.Pub)
		if err != nil {
			return result, msg, err
		}
		ikm = append(ikm, dh4[:]...)
		opkID = opk.ID
		defer crypto.Wipe(dh4[:])
	}
	defer crypto.Wipe(dh1[:])
	defer crypto.Wipe(dh2[:])
	defer crypto.Wipe(dh3[:])
	defer crypto.Wipe(ekPriv[:])
	defer crypto.Wipe(ikm)

	rk, err := crypto.HKDFSHA512(salt, ikm, []byte(rootKeyInfo), 32)
	if err != nil {
		return result, msg, err
	}
	copy(result.RootKey[:], rk)
	copy(result.AssociatedData[:32], ourIdentity.EdPub.Slice())
	copy(result.AssociatedData[32:], bundle.SigningKey.Slice())

	msg = domain.PreKeyMessage{
		InitiatorIdentityKey: ourIdentity.EdPub,
		EphemeralKey:         ekPub,
		SignedPreKeyID:       bundle.SignedPreKeyID,
		OneTimePreKeyID:      opkID,
	}
	metrics.HandshakesTotal.WithLabelValues("initiated").Inc()
	return result, msg, nil
}

// ReceiveSession runs the responder side of X3DH from an inbound pre-key
// message, given the local secrets it names.
//
// opkPriv is nil when the message did not assert a one-time pre-key, or
// when the caller could not consume the asserted one (that case is the
// caller's ReplayedOneTimeKey to raise before calling this function; per
// §4.3 Responder step 1, decryption only continues without DH4 when the
// initiator did not assert a one-time pre-key at all).
func ReceiveSession(
	ourIdentity domain.Identity,
	spkPriv domain.X25519Private,
	opkPriv *domain.X25519Private,
	msg domain.PreKeyMessage,
) (Result, error) {
	var result Result

	initiatorXPub, err := crypto.Ed25519PublicToX25519(msg.InitiatorIdentityKey)
	if err != nil {
		return result, qiyaserr.ErrInvalidEncoding
	}

	dh1, err := crypto.DH(spkPriv, initiatorXPub)
	if err != nil {
		return result, err
	}
	dh2, err := crypto.DH(ourIdentity.XPriv, msg.EphemeralKey)
	if err != nil {
		return result, err
	}
	dh3, err := crypto.DH(spkPriv, msg.EphemeralKey)
	if err != nil {
		return result, err
	}

	ikm := make([]byte, 0, 32*4)
	ikm = append(ikm, dh1[:]...)
	ikm = append(ikm, dh2[:]...)
	ikm = append(ikm, dh3[:]...)

	if msg.UsesOneTimePreKey() && opkPriv != nil {
		dh4, err := crypto.DH(*opkPriv, msg.EphemeralKey)
		if err != nil {
			return result, err
		}
		ikm = append(ikm, dh4[:]...)
		defer crypto.Wipe(dh4[:])
	}
	defer crypto.Wipe(dh1[:])
	defer crypto.Wipe(dh2[:])
	defer crypto.Wipe(dh3[:])
	defer crypto.Wipe(ikm)

	rk, err := crypto.HKDFSHA512(salt, ikm, []byte(rootKeyInfo), 32)
	if err != nil {
		return result, err
	}
	copy(result.RootKey[:], rk)
	copy(result.AssociatedData[:32], msg.InitiatorIdentityKey.Slice())
	copy(result.AssociatedData[32:], ourIdentity.EdPub.Slice())
	metrics.HandshakesTotal.WithLabelValues("received").Inc()
	return result, nil
}
