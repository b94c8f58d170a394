package types

// OneTimePreKeyPair is the full (private+public) one-time pre-key stored locally.
type OneTimePreKeyPair struct {
	ID   OneTimePreKeyID `json:"id"`
	Priv X25519Private   `json:"priv"`
	Pub  X25519Public    `json:"pub"`
}

// OneTimePreKeyPublic is only the public half (sent in bundles).
type OneTimePreKeyPublic struct {
	ID  OneTimePreKeyID `json:"id"`
	Pub X25519Public    `json:"pub"`
}

// PreKeyBundle is the set of public keys published so others can initiate an
// X3DH session asynchronously (§3 Pre-Key Bundle).
type PreKeyBundle struct {
	Username              Username              `json:"username"`
	IdentityKey           X25519Public          `json:"identity_key"`
	SigningKey            Ed25519Public         `json:"signing_key"`
	SignedPreKeyID        SignedPreKeyID        `json:"signed_pre_key_id"`
	SignedPreKey          X25519Public          `json:"signed_pre_key"`
	SignedPreKeySignature []byte                `json:"signed_pre_key_signature"`
	OneTimePreKeys        []OneTimePreKeyPublic `json:"one_time_pre_keys,omitempty"`
}

// PreKeyMessage carries the X3DH handshake parameters in the first envelope
// of a session (§3 Envelope, §6 wire format).
//
// The wire "sender_identity" field is the initiator's long-term Ed25519
// public key, not its X25519 image: a single 32-byte field then suffices
// both to authenticate the sender (it is what AD is built from) and to
// recover the X25519 DH key via the birational conversion, rather than
// carrying both key forms redundantly.
type PreKeyMessage struct {
	InitiatorIdentityKey Ed25519Public   `json:"initiator_identity_key"`
	EphemeralKey         X25519Public    `json:"ephemeral_key"`
	SignedPreKeyID       SignedPreKeyID  `json:"signed_pre_key_id"`
	OneTimePreKeyID      OneTimePreKeyID `json:"one_time_pre_key_id"`
}

// UsesOneTimePreKey reports whether the message asserts a one-time pre-key.
func (m PreKeyMessage) UsesOneTimePreKey() bool {
	return m.OneTimePreKeyID != NoOneTimePreKeyID
}
