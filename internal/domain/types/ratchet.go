package types

import "encoding/json"

// SessionState is the ratchet state machine position (§4.4).
type SessionState int

const (
	// StateUninitialized means no session material exists yet.
	StateUninitialized SessionState = iota
	// StateInitiatorOnly means a message was sent but none has been received
	// yet. Like Uninitialized and Established, it still accepts inbound
	// messages, including ones that trigger a DH ratchet step.
	StateInitiatorOnly
	// StateEstablished means at least one message has been received and
	// decrypted. Only Terminated blocks decryption and inbound DH ratchet steps.
	StateEstablished
	// StateTerminated means the session has been torn down explicitly or by
	// an irrecoverable decryption policy violation.
	StateTerminated
)

// String renders the state for logs; never used for wire encoding.
func (s SessionState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitiatorOnly:
		return "initiator-only"
	case StateEstablished:
		return "established"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// RatchetHeader is sent alongside every ciphertext (§6: 32+4+4 = 40 bytes).
type RatchetHeader struct {
	DiffieHellmanPublicKey X25519Public `json:"dh_pub"`
	PreviousChainLength    uint32       `json:"pn"`
	MessageIndex           uint32       `json:"n"`
}

// Canonical returns the fixed 40-byte big-endian encoding of the header used
// to build AEAD associated data, so any bit flip anywhere in the header
// causes AEAD failure (§4.5).
func (h RatchetHeader) Canonical() []byte {
	out := make([]byte, 0, 40)
	out = append(out, h.DiffieHellmanPublicKey[:]...)
	var tmp [4]byte
	putUint32BE(tmp[:], h.PreviousChainLength)
	out = append(out, tmp[:]...)
	putUint32BE(tmp[:], h.MessageIndex)
	out = append(out, tmp[:]...)
	return out
}

func putUint32BE(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

// SkippedKeyID identifies a cached out-of-order message key by the ratchet
// public key that was current when it was skipped, plus its message index.
type SkippedKeyID struct {
	DiffieHellmanPublicKey X25519Public
	MessageIndex           uint32
}

// MessageKey is a single-use 32-byte AEAD key drawn from a chain.
type MessageKey [32]byte

// RatchetState contains all fields the Double Ratchet needs to track (§3
// Session State).
type RatchetState struct {
	State SessionState `json:"state"`

	RootKey [32]byte `json:"root_key"`

	// SendingChainKey and ReceivingChainKey are nil until the respective
	// chain has been initialized by a DH ratchet step.
	SendingChainKey   *[32]byte `json:"sending_chain_key,omitempty"`
	ReceivingChainKey *[32]byte `json:"receiving_chain_key,omitempty"`

	SendingRatchetPrivate X25519Private `json:"sending_ratchet_private"`
	SendingRatchetPublic  X25519Public  `json:"sending_ratchet_public"`

	// RemoteRatchetPublic is nil until the first envelope is received from
	// the peer's current ratchet key.
	RemoteRatchetPublic *X25519Public `json:"remote_ratchet_public,omitempty"`

	Ns uint32 `json:"ns"`
	Nr uint32 `json:"nr"`
	PN uint32 `json:"pn"`

	Skipped map[SkippedKeyID]MessageKey `json:"-"`

	// AssociatedData is initiator_identity(32) || responder_identity(32).
	AssociatedData [64]byte `json:"associated_data"`

	// SkippedEvictions counts silent MAX_SKIP evictions, observable for tests.
	SkippedEvictions uint64 `json:"skipped_evictions"`
}

// Conversation persists the ratchet state for a peer alongside the
// append-only chain of record for everything sent or received on it.
type Conversation struct {
	Peer  ConversationID `json:"peer"`
	State RatchetState   `json:"state"`
	Chain ChainProof     `json:"chain"`
}

// skippedEntry is the wire form of one Skipped map entry: Go's encoding/json
// cannot use a struct key directly, so skipped keys round-trip through this
// slice representation instead of silently dropping cached message keys.
type skippedEntry struct {
	DiffieHellmanPublicKey X25519Public `json:"dh_pub"`
	MessageIndex           uint32       `json:"n"`
	Key                    MessageKey   `json:"key"`
}

type ratchetStateAlias RatchetState

type ratchetStateOnWire struct {
	ratchetStateAlias
	Skipped []skippedEntry `json:"skipped"`
}

// MarshalJSON flattens the Skipped map into a slice so it survives
// persistence instead of being silently dropped.
func (s RatchetState) MarshalJSON() ([]byte, error) {
	out := ratchetStateOnWire{ratchetStateAlias: ratchetStateAlias(s)}
	out.Skipped = make([]skippedEntry, 0, len(s.Skipped))
	for id, key := range s.Skipped {
		out.Skipped = append(out.Skipped, skippedEntry{
			DiffieHellmanPublicKey: id.DiffieHellmanPublicKey,
			MessageIndex:           id.MessageIndex,
			Key:                    key,
		})
	}
	return json.Marshal(out)
}

// UnmarshalJSON rebuilds the Skipped map from its slice representation.
func (s *RatchetState) UnmarshalJSON(data []byte) error {
	var in ratchetStateOnWire
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*s = RatchetState(in.ratchetStateAlias)
	s.Skipped = make(map[SkippedKeyID]MessageKey, len(in.Skipped))
	for _, e := range in.Skipped {
		s.Skipped[SkippedKeyID{DiffieHellmanPublicKey: e.DiffieHellmanPublicKey, MessageIndex: e.MessageIndex}] = e.Key
	}
	return nil
}
