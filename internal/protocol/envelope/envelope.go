// Package envelope implements the canonical, length-prefixed binary wire
// format for envelopes (§4.5, §6): a fixed-order encoding whose ratchet
// header and ciphertext are authenticated by the AEAD tag downstream. The
// pre-key header, chain proof anchor, timestamp commitment, timestamp and
// routing metadata are not covered by the AEAD; this codec only checks
// their lengths.
package envelope

import (
	"encoding/binary"

	"qiyas/internal/crypto"
	"qiyas/internal/domain"
	"qiyas/internal/qiyaserr"
)

// Magic identifies the wire format; Version is the single supported
// revision (§6: "Version byte 0x01 in this specification").
const (
	Magic   uint32 = 0x51594153 // "QYAS"
	Version byte   = 0x01
)

const (
	preKeyAbsent byte = 0x00
	preKeyPresent byte = 0x01
)

// Encode serializes env into the canonical wire format. Fields are emitted
// in the order listed in §3/§6: magic, version, ratchet header, optional
// pre-key header, AEAD algorithm byte, nonce, length-prefixed ciphertext,
// chain proof anchor, timestamp commitment, then the routing metadata
// (timestamp, from, to) the relay boundary needs to deliver the envelope.
func Encode(env domain.Envelope) ([]byte, error) {
	nonceSize := crypto.Algorithm(env.Algorithm).NonceSize()
	if nonceSize == 0 {
		return nil, qiyaserr.ErrInvalidEncoding
	}
	if len(env.Nonce) != nonceSize {
		return nil, qiyaserr.ErrInvalidEncoding
	}
	if len(env.Cipher) > 0xFFFFFFFF {
		return nil, qiyaserr.ErrInvalidEncoding
	}
	if len(env.From) > 0xFFFF || len(env.To) > 0xFFFF {
		return nil, qiyaserr.ErrInvalidEncoding
	}

	size := 4 + 1 + 40 + 1
	if env.PreKey != nil {
		size += 32 + 32 + 4
	}
	size += 1 + nonceSize + 4 + len(env.Cipher) + 32 + 32 + 8
	size += 2 + len(env.From) + 2 + len(env.To)

	out := make([]byte, 0, size)
	var tmp4 [4]byte
	var tmp8 [8]byte

	binary.BigEndian.PutUint32(tmp4[:], Magic)
	out = append(out, tmp4[:]...)
	out = append(out, Version)

	out = append(out, env.Header.Canonical()...)

	if env.PreKey == nil {
		out = append(out, preKeyAbsent)
	} else {
		out = append(out, preKeyPresent)
		out = append(out, env.PreKey.InitiatorIdentityKey[:]...)
		out = append(out, env.PreKey.EphemeralKey[:]...)
		binary.BigEndian.PutUint32(tmp4[:], uint32(env.PreKey.OneTimePreKeyID))
		out = append(out, tmp4[:]...)
	}

	out = append(out, byte(env.Algorithm))
	out = append(out, env.Nonce...)
	binary.BigEndian.PutUint32(tmp4[:], uint32(len(env.Cipher)))
	out = append(out, tmp4[:]...)
	out = append(out, env.Cipher...)
	out = append(out, env.ChainProofAnchor[:]...)
	out = append(out, env.TimestampCommitment[:]...)

	binary.BigEndian.PutUint64(tmp8[:], uint64(env.Timestamp))
	out = append(out, tmp8[:]...)

	out = append(out, encodeUsername(env.From)...)
	out = append(out, encodeUsername(env.To)...)

	return out, nil
}

func encodeUsername(u domain.Username) []byte {
	var tmp2 [2]byte
	binary.BigEndian.PutUint16(tmp2[:], uint16(len(u)))
	out := make([]byte, 0, 2+len(u))
	out = append(out, tmp2[:]...)
	out = append(out, u...)
	return out
}

// reader walks buf left to right, returning ErrInvalidEncoding on underrun
// rather than panicking on a short or truncated buffer.
type reader struct {
	buf []byte
	pos int
}

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.buf) {
		return nil, qiyaserr.ErrInvalidEncoding
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

// Decode parses buf produced by Encode, rejecting unknown versions, short
// buffers, inconsistent length fields, and any trailing bytes (§4.5).
func Decode(buf []byte) (domain.Envelope, error) {
	var env domain.Envelope
	r := &reader{buf: buf}

	magic, err := r.take(4)
	if err != nil {
		return domain.Envelope{}, err
	}
	if binary.BigEndian.Uint32(magic) != Magic {
		return domain.Envelope{}, qiyaserr.ErrInvalidEncoding
	}

	version, err := r.take(1)
	if err != nil {
		return domain.Envelope{}, err
	}
	if version[0] != Version {
		return domain.Envelope{}, qiyaserr.ErrInvalidEncoding
	}

	header, err := r.take(40)
	if err != nil {
		return domain.Envelope{}, err
	}
	copy(env.Header.DiffieHellmanPublicKey[:], header[0:32])
	env.Header.PreviousChainLength = binary.BigEndian.Uint32(header[32:36])
	env.Header.MessageIndex = binary.BigEndian.Uint32(header[36:40])

	preKeyFlag, err := r.take(1)
	if err != nil {
		return domain.Envelope{}, err
	}
	switch preKeyFlag[0] {
	case preKeyAbsent:
	case preKeyPresent:
		preKeyBytes, err := r.take(32 + 32 + 4)
		if err != nil {
			return domain.Envelope{}, err
		}
		var pk domain.PreKeyMessage
		copy(pk.InitiatorIdentityKey[:], preKeyBytes[0:32])
		copy(pk.EphemeralKey[:], preKeyBytes[32:64])
		pk.OneTimePreKeyID = domain.OneTimePreKeyID(binary.BigEndian.Uint32(preKeyBytes[64:68]))
		env.PreKey = &pk
	default:
		return domain.Envelope{}, qiyaserr.ErrInvalidEncoding
	}

	algoByte, err := r.take(1)
	if err != nil {
		return domain.Envelope{}, err
	}
	env.Algorithm = domain.AEADAlgorithm(algoByte[0])
	nonceSize := crypto.Algorithm(env.Algorithm).NonceSize()
	if nonceSize == 0 {
		return domain.Envelope{}, qiyaserr.ErrInvalidEncoding
	}

	nonce, err := r.take(nonceSize)
	if err != nil {
		return domain.Envelope{}, err
	}
	env.Nonce = append([]byte(nil), nonce...)

	cipherLenBytes, err := r.take(4)
	if err != nil {
		return domain.Envelope{}, err
	}
	cipherLen := binary.BigEndian.Uint32(cipherLenBytes)
	cipher, err := r.take(int(cipherLen))
	if err != nil {
		return domain.Envelope{}, err
	}
	env.Cipher = append([]byte(nil), cipher...)

	chainAnchor, err := r.take(32)
	if err != nil {
		return domain.Envelope{}, err
	}
	copy(env.ChainProofAnchor[:], chainAnchor)

	tsCommitment, err := r.take(32)
	if err != nil {
		return domain.Envelope{}, err
	}
	copy(env.TimestampCommitment[:], tsCommitment)

	tsBytes, err := r.take(8)
	if err != nil {
		return domain.Envelope{}, err
	}
	env.Timestamp = int64(binary.BigEndian.Uint64(tsBytes))

	from, err := decodeUsername(r)
	if err != nil {
		return domain.Envelope{}, err
	}
	env.From = from

	to, err := decodeUsername(r)
	if err != nil {
		return domain.Envelope{}, err
	}
	env.To = to

	if r.pos != len(r.buf) {
		return domain.Envelope{}, qiyaserr.ErrInvalidEncoding
	}

	return env, nil
}

func decodeUsername(r *reader) (domain.Username, error) {
	lenBytes, err := r.take(2)
	if err != nil {
		return "", err
	}
	n := binary.BigEndian.Uint16(lenBytes)
	raw, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	return domain.Username(raw), nil
}
