package prekey

import (
	"errors"

	"qiyas/internal/crypto"
	"qiyas/internal/domain"
)

// ErrNoCurrentSignedPreKey indicates GenerateAndStorePreKeys has not yet
// been run for this identity.
var ErrNoCurrentSignedPreKey = errors.New("prekey: no current signed pre-key; run generate first")

// Service generates and assembles pre-key bundles used to bootstrap X3DH
// sessions: one signed pre-key, Ed25519-signed by the long-term identity,
// plus a batch of one-time pre-keys (§3 Pre-Key Bundle).
type Service struct {
	idStore     domain.IdentityStore
	prekeyStore domain.PreKeyStore
	bundleCache domain.PreKeyBundleStore
}

// New constructs a pre-key Service backed by the given stores.
func New(idStore domain.IdentityStore, prekeyStore domain.PreKeyStore, bundleCache domain.PreKeyBundleStore) *Service {
	return &Service{idStore: idStore, prekeyStore: prekeyStore, bundleCache: bundleCache}
}

// GenerateAndStorePreKeys creates a fresh signed pre-key and count one-time
// pre-keys, signs the former with the identity's Ed25519 key, and persists
// both. It returns the signed pre-key's public and the one-time public keys
// for publishing.
func (s *Service) GenerateAndStorePreKeys(passphrase string, count int) (domain.X25519Public, []domain.X25519Public, error) {
	id, err := s.idStore.LoadIdentity(passphrase)
	if err != nil {
		return domain.X25519Public{}, nil, err
	}

	spkPriv, spkPub, err := crypto.GenerateX25519()
	if err != nil {
		return domain.X25519Public{}, nil, err
	}
	sig := crypto.SignEd25519(id.EdPriv, spkPub.Slice())

	nextID, ok, err := s.prekeyStore.CurrentSignedPreKeyID()
	if err != nil {
		return domain.X25519Public{}, nil, err
	}
	spkID := domain.SignedPreKeyID(1)
	if ok {
		spkID = nextID + 1
	}
	if err := s.prekeyStore.SaveSignedPreKey(spkID, spkPriv, spkPub, sig); err != nil {
		return domain.X25519Public{}, nil, err
	}
	if err := s.prekeyStore.SetCurrentSignedPreKeyID(spkID); err != nil {
		return domain.X25519Public{}, nil, err
	}

	ids, err := s.prekeyStore.ReserveOneTimePreKeyIDs(count)
	if err != nil {
		return domain.X25519Public{}, nil, err
	}

	pairs := make([]domain.OneTimePreKeyPair, 0, count)
	publics := make([]domain.X25519Public, 0, count)
	for _, id := range ids {
		priv, pub, err := crypto.GenerateX25519()
		if err != nil {
			return domain.X25519Public{}, nil, err
		}
		pairs = append(pairs, domain.OneTimePreKeyPair{ID: id, Priv: priv, Pub: pub})
		publics = append(publics, pub)
	}
	if err := s.prekeyStore.SaveOneTimePreKeys(pairs); err != nil {
		return domain.X25519Public{}, nil, err
	}

	return spkPub, publics, nil
}

// LoadPreKeyBundle assembles the current bundle to publish from the local
// stores and writes a copy to the bundle cache; a failed cache write is
// ignored.
func (s *Service) LoadPreKeyBundle(passphrase string, username domain.Username, serverURL string) (domain.PreKeyBundle, error) {
	id, err := s.idStore.LoadIdentity(passphrase)
	if err != nil {
		return domain.PreKeyBundle{}, err
	}

	spkID, ok, err := s.prekeyStore.CurrentSignedPreKeyID()
	if err != nil {
		return domain.PreKeyBundle{}, err
	}
	if !ok {
		return domain.PreKeyBundle{}, ErrNoCurrentSignedPreKey
	}
	_, spkPub, sig, found, err := s.prekeyStore.LoadSignedPreKey(spkID)
	if err != nil {
		return domain.PreKeyBundle{}, err
	}
	if !found {
		return domain.PreKeyBundle{}, ErrNoCurrentSignedPreKey
	}

	otks, err := s.prekeyStore.ListOneTimePreKeyPublics()
	if err != nil {
		return domain.PreKeyBundle{}, err
	}

	bundle := domain.PreKeyBundle{
		Username:              username,
		IdentityKey:           id.XPub,
		SigningKey:            id.EdPub,
		SignedPreKeyID:        spkID,
		SignedPreKey:          spkPub,
		SignedPreKeySignature: sig,
		OneTimePreKeys:        otks,
	}
	_ = s.bundleCache.SavePreKeyBundle(bundle)
	return bundle, nil
}

// Compile-time assertion that Service implements domain.PreKeyService.
var _ domain.PreKeyService = (*Service)(nil)
