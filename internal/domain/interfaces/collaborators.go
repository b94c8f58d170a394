package interfaces

import (
	"context"

	domaintypes "qiyas/internal/domain/types"
)

// Transport is the narrow external collaborator that stores and retrieves
// fragments on whatever distributed key-value network backs the deployment
// (DHT, relay blob store, ...). The core never retries internally (§6).
type Transport interface {
	Put(ctx context.Context, fragmentID [32]byte, data []byte, expiry int64) error
	Get(ctx context.Context, fragmentID [32]byte) ([]byte, bool, error)
}

// Directory resolves a fingerprint to the pre-key bundle currently published
// for it. The directory is untrusted; authenticity rests entirely on the
// signature inside the returned bundle (§6).
type Directory interface {
	FetchBundle(ctx context.Context, fingerprint domaintypes.Fingerprint) (domaintypes.PreKeyBundle, error)
}

// Clock supplies the current time for chain timestamps. Implementations must
// be monotonic; a regression is the caller's signal to refuse the append (§6).
type Clock interface {
	Now() int64
}

// Persistence is the collaborator contract for durable session and one-time
// pre-key storage, distinct from PreKeyStore/RatchetStore in that
// ConsumeOneTimePreKey here models the cross-process atomic compare-and-remove
// required by §4.2/§5 rather than any particular storage engine's API.
type Persistence interface {
	LoadSession(peer domaintypes.ConversationID) ([]byte, bool, error)
	SaveSession(peer domaintypes.ConversationID, state []byte) error
	ConsumeOneTimePreKey(id domaintypes.OneTimePreKeyID) (domaintypes.X25519Private, bool, error)
}
