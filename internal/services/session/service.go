package session

import (
	"context"
	"time"

	"qiyas/internal/domain"
	"qiyas/internal/protocol/x3dh"
)

// Service performs X3DH initiation and persists sessions.
//
// A session represents the shared root key and associated metadata needed
// for establishing a Double Ratchet conversation with a peer. This service
// handles:
//   - Retrieving our own identity keys.
//   - Fetching the peer's pre-key bundle from the relay.
//   - Running the X3DH key agreement as the initiator.
//   - Persisting the resulting session for later message encryption.
type Service struct {
	idStore      domain.IdentityStore
	sessionStore domain.SessionStore
	relayClient  domain.RelayClient
}

// New constructs a Session Service with the given stores and relay client.
func New(
	idStore domain.IdentityStore,
	sessionStore domain.SessionStore,
	relayClient domain.RelayClient,
) *Service {
	return &Service{
		idStore:      idStore,
		sessionStore: sessionStore,
		relayClient:  relayClient,
	}
}

// InitiateSession runs X3DH against the peer's prekey bundle and stores the
// resulting session.
//
// Steps:
//  1. Load our own identity key pair from the identity store.
//  2. Fetch the peer's pre-key bundle from the relay (contains identity key,
//     signed pre-key, and optionally a one-time pre-key).
//  3. Run X3DH as the initiator to derive the root key and record which
//     pre-keys were used.
//  4. Persist the resulting session for future message exchanges.
func (s *Service) InitiateSession(
	ctx context.Context,
	passphrase string,
	peer domain.Username,
) (domain.Session, error) {
	id, err := s.idStore.LoadIdentity(passphrase)
	if err != nil {
		return domain.Session{}, err
	}

	bundle, err := s.relayClient.FetchPreKeyBundle(ctx, peer)
	if err != nil {
		return domain.Session{}, err
	}

	var opk *domain.OneTimePreKeyPublic
	if len(bundle.OneTimePreKeys) > 0 {
		opk = &bundle.OneTimePreKeys[0]
	}

	result, preKeyMsg, err := x3dh.InitiateSession(id, bundle, opk)
	if err != nil {
		return domain.Session{}, err
	}

	session := domain.Session{
		PeerUsername:          peer,
		RootKey:               result.RootKey,
		AssociatedData:        result.AssociatedData,
		PeerSignedPreKey:      bundle.SignedPreKey,
		PeerIdentityKey:       bundle.IdentityKey,
		CreatedUTC:            time.Now().Unix(),
		SignedPreKeyID:        preKeyMsg.SignedPreKeyID,
		OneTimePreKeyID:       preKeyMsg.OneTimePreKeyID,
		InitiatorEphemeralKey: preKeyMsg.EphemeralKey,
	}

	if err := s.sessionStore.SaveSession(peer, session); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

// GetSession retrieves a stored session for the given peer.
func (s *Service) GetSession(peer domain.Username) (domain.Session, bool, error) {
	return s.sessionStore.LoadSession(peer)
}

// Compile-time assertion that Service implements domain.SessionService.
var _ domain.SessionService = (*Service)(nil)
