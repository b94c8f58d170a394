package types

// Username represents a relay-registered identity.
type Username string

// String returns the string form of the username.
func (u Username) String() string { return string(u) }

// Fingerprint is a short identifier for public keys presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }

// SignedPreKeyID uniquely identifies a signed pre-key. 32-bit, monotonically
// increasing; wrap-around is disallowed (§9 Open Questions).
type SignedPreKeyID uint32

// OneTimePreKeyID uniquely identifies a one-time pre-key. 32-bit; wrap-around
// is disallowed (§9 Open Questions). NoOneTimePreKeyID (0xFFFFFFFF) means
// "none" on the wire (§6).
type OneTimePreKeyID uint32

// NoOneTimePreKeyID is the wire sentinel meaning "no one-time pre-key used".
const NoOneTimePreKeyID OneTimePreKeyID = 0xFFFFFFFF

// ConversationID identifies a conversation partner.
type ConversationID string

// String returns the string form of the conversation identifier.
func (id ConversationID) String() string { return string(id) }
