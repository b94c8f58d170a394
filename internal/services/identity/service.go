package identity

import (
	"qiyas/internal/crypto"
	"qiyas/internal/domain"
)

// Service creates, retrieves, and inspects the local long-term identity: a
// single Ed25519 seed whose X25519 image is derived via the birational
// curve conversion, so one seed yields both the signing key X3DH's
// associated data needs and the Diffie-Hellman key X3DH's math needs (§3
// Identity Key).
type Service struct {
	store domain.IdentityStore
}

// New constructs an identity Service backed by store.
func New(store domain.IdentityStore) *Service {
	return &Service{store: store}
}

// GenerateIdentity creates a new identity, persists it encrypted under
// passphrase, and returns it along with its fingerprint.
func (s *Service) GenerateIdentity(passphrase string) (domain.Identity, domain.Fingerprint, error) {
	edPriv, edPub, err := crypto.GenerateEd25519()
	if err != nil {
		return domain.Identity{}, "", err
	}
	xPriv := crypto.Ed25519PrivateToX25519(edPriv)
	xPub, err := crypto.Ed25519PublicToX25519(edPub)
	if err != nil {
		return domain.Identity{}, "", err
	}

	id := domain.Identity{XPriv: xPriv, XPub: xPub, EdPriv: edPriv, EdPub: edPub}
	if err := s.store.SaveIdentity(passphrase, id); err != nil {
		return domain.Identity{}, "", err
	}
	return id, domain.Fingerprint(crypto.Fingerprint(id.EdPub.Slice())), nil
}

// LoadIdentity decrypts and returns the stored identity.
func (s *Service) LoadIdentity(passphrase string) (domain.Identity, error) {
	return s.store.LoadIdentity(passphrase)
}

// FingerprintIdentity returns the fingerprint of the stored identity without
// exposing its private keys to the caller.
func (s *Service) FingerprintIdentity(passphrase string) (domain.Fingerprint, error) {
	id, err := s.store.LoadIdentity(passphrase)
	if err != nil {
		return "", err
	}
	return domain.Fingerprint(crypto.Fingerprint(id.EdPub.Slice())), nil
}

// Compile-time assertion that Service implements domain.IdentityService.
var _ domain.IdentityService = (*Service)(nil)
