// Package identity implements long-term identity key rotation and the
// safety-number derivation used to detect man-in-the-middle at session
// bootstrap (§4.8).
package identity

import (
	"encoding/binary"
	"fmt"
	"time"

	"qiyas/internal/crypto"
	"qiyas/internal/domain"
	"qiyas/internal/qiyaserr"
)

// ClockSkew is the allowed tolerance between a rotation proof's timestamp
// and the verifier's own clock.
const ClockSkew = time.Hour

// RotationProof binds an old identity key to a new one with signatures from
// both, so a verifier can confirm the rotation was authorized by whoever
// held the old key, not just asserted by whoever holds the new one.
type RotationProof struct {
	OldPublic  domain.Ed25519Public `json:"old_public"`
	NewPublic  domain.Ed25519Public `json:"new_public"`
	Timestamp  int64                `json:"timestamp"`
	OldSig     []byte               `json:"old_sig"`
	NewSig     []byte               `json:"new_sig"`
	Commitment [32]byte             `json:"commitment"`
}

func rotationMessage(oldPub, newPub domain.Ed25519Public, timestamp int64) []byte {
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(timestamp))
	msg := make([]byte, 0, 32+32+8)
	msg = append(msg, oldPub[:]...)
	msg = append(msg, newPub[:]...)
	msg = append(msg, ts[:]...)
	return msg
}

// Rotate produces a new identity key pair and a RotationProof attesting
// that whoever held oldPriv authorized the switch to the new public key.
func Rotate(oldPriv domain.Ed25519Private, oldPub domain.Ed25519Public, timestamp int64) (domain.Identity, RotationProof, error) {
	newEdPriv, newEdPub, err := crypto.GenerateEd25519()
	if err != nil {
		return domain.Identity{}, RotationProof{}, err
	}
	newXPriv := crypto.Ed25519PrivateToX25519(newEdPriv)
	newXPub, err := crypto.Ed25519PublicToX25519(newEdPub)
	if err != nil {
		return domain.Identity{}, RotationProof{}, err
	}

	msg := rotationMessage(oldPub, newEdPub, timestamp)
	oldSig := crypto.SignEd25519(oldPriv, msg)
	newSig := crypto.SignEd25519(newEdPriv, msg)

	commitment := crypto.SHA256(msg, oldSig, newSig)

	proof := RotationProof{
		OldPublic:  oldPub,
		NewPublic:  newEdPub,
		Timestamp:  timestamp,
		OldSig:     oldSig,
		NewSig:     newSig,
		Commitment: commitment,
	}
	newIdentity := domain.Identity{XPub: newXPub, XPriv: newXPriv, EdPub: newEdPub, EdPriv: newEdPriv}
	return newIdentity, proof, nil
}

// VerifyRotation checks both signatures, the commitment, and the clock-skew
// window against now. A failure returns ErrCryptoVerification: the proof is
// either forged or stale, and the caller must not treat the rotation as
// authorized.
func VerifyRotation(proof RotationProof, now int64) error {
	msg := rotationMessage(proof.OldPublic, proof.NewPublic, proof.Timestamp)

	if crypto.SHA256(msg, proof.OldSig, proof.NewSig) != proof.Commitment {
		return qiyaserr.ErrCryptoVerification
	}
	if !crypto.VerifyEd25519(proof.OldPublic, msg, proof.OldSig) {
		return qiyaserr.ErrCryptoVerification
	}
	if !crypto.VerifyEd25519(proof.NewPublic, msg, proof.NewSig) {
		return qiyaserr.ErrCryptoVerification
	}

	skew := now - proof.Timestamp
	if skew < 0 {
		skew = -skew
	}
	if skew > int64(ClockSkew/time.Second) {
		return qiyaserr.ErrCryptoVerification
	}
	return nil
}

// SafetyNumber derives the human-verifiable short code binding two
// fingerprints, rendered as 12 groups of 5 decimal digits (§4.8).
func SafetyNumber(fpA, fpB domain.Fingerprint) string {
	a, b := string(fpA), string(fpB)
	if a > b {
		a, b = b, a
	}
	sum := crypto.SHA256([]byte(a), []byte(b))

	out := make([]byte, 0, 12*5+11)
	for i := 0; i < 12; i++ {
		word := binary.BigEndian.Uint32(sum[(i*4)%28 : (i*4)%28+4])
		group := word % 100000
		if i > 0 {
			out = append(out, ' ')
		}
		out = append(out, []byte(fmt.Sprintf("%05d", group))...)
	}
	return string(out)
}
