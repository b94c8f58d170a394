// Package ratchet implements the Double Ratchet: per-peer session state,
// symmetric chain steps, DH ratchet steps, and skipped-message-key caching
// (§4.4).
package ratchet

import (
	"bytes"

	"qiyas/internal/crypto"
	"qiyas/internal/domain"
	"qiyas/internal/metrics"
	"qiyas/internal/qiyaserr"
)

const rootKDFInfo = "QiyasHash_v1_RootKey"

// MaxSkip bounds the number of cached out-of-order message keys per session
// (§3, §4.4). It is a package variable rather than a constant so the config
// layer can override it for deployments that need a different window; tests
// and production both default to the spec's 1000.
var MaxSkip = 1000

// Sealed is an encrypted envelope body plus the header it was sealed under.
type Sealed struct {
	Header    domain.RatchetHeader
	Algorithm domain.AEADAlgorithm
	Nonce     []byte
	Cipher    []byte
}

// NewInitiatorState builds the session state for the party that ran
// x3dh.InitiateSession. remoteSignedPreKey is the responder's signed
// pre-key, the initial remote ratchet public (§4.3 step 6). Per the
// handshake-to-ratchet handoff, the initiator immediately performs its own
// DH ratchet step against remoteSignedPreKey with a freshly generated key
// pair, rather than reusing the X3DH ephemeral key as its ratchet key.
func NewInitiatorState(
	rootKey [32]byte,
	associatedData [64]byte,
	remoteSignedPreKey domain.X25519Public,
) (domain.RatchetState, error) {
	priv, pub, err := crypto.GenerateX25519()
	if err != nil {
		return domain.RatchetState{}, err
	}
	dh, err := crypto.DH(priv, remoteSignedPreKey)
	if err != nil {
		return domain.RatchetState{}, err
	}
	newRoot, chainKey, err := rootRatchet(rootKey, dh)
	crypto.Wipe(dh[:])
	if err != nil {
		return domain.RatchetState{}, err
	}

	remote := remoteSignedPreKey
	return domain.RatchetState{
		State:                 domain.StateUninitialized,
		RootKey:               newRoot,
		SendingRatchetPrivate: priv,
		SendingRatchetPublic:  pub,
		RemoteRatchetPublic:   &remote,
		SendingChainKey:       &chainKey,
		AssociatedData:        associatedData,
		Skipped:               make(map[domain.SkippedKeyID]domain.MessageKey),
	}, nil
}

// NewResponderState builds the session state for the party that ran
// x3dh.ReceiveSession. signedPreKeyPriv/Pub is the signed pre-key the
// initiator targeted, reused as the responder's initial DH ratchet key
// pair. RemoteRatchetPublic is left nil: the first inbound envelope's header
// supplies it, triggering the bootstrap DH ratchet.
func NewResponderState(
	rootKey [32]byte,
	associatedData [64]byte,
	signedPreKeyPriv domain.X25519Private,
	signedPreKeyPub domain.X25519Public,
) domain.RatchetState {
	return domain.RatchetState{
		State:                 domain.StateUninitialized,
		RootKey:               rootKey,
		SendingRatchetPrivate: signedPreKeyPriv,
		SendingRatchetPublic:  signedPreKeyPub,
		AssociatedData:        associatedData,
		Skipped:               make(map[domain.SkippedKeyID]domain.MessageKey),
	}
}

// Encrypt seals plaintext under state's sending chain, performing an
// outbound DH ratchet step first if no sending chain exists yet (§4.4).
func Encrypt(state *domain.RatchetState, algo domain.AEADAlgorithm, plaintext []byte) (Sealed, error) {
	if state.State == domain.StateTerminated {
		return Sealed{}, qiyaserr.ErrInternalInvariant
	}

	if state.SendingChainKey == nil {
		if state.RemoteRatchetPublic == nil {
			return Sealed{}, qiyaserr.ErrInternalInvariant
		}
		priv, pub, err := crypto.GenerateX25519()
		if err != nil {
			return Sealed{}, err
		}
		dh, err := crypto.DH(priv, *state.RemoteRatchetPublic)
		if err != nil {
			return Sealed{}, err
		}
		newRoot, chainKey, err := rootRatchet(state.RootKey, dh)
		crypto.Wipe(dh[:])
		if err != nil {
			return Sealed{}, err
		}
		state.PN = state.Ns
		state.Ns = 0
		state.RootKey = newRoot
		state.SendingRatchetPrivate = priv
		state.SendingRatchetPublic = pub
		state.SendingChainKey = &chainKey
	}

	nextChain, messageKey := chainRatchet(*state.SendingChainKey)

	header := domain.RatchetHeader{
		DiffieHellmanPublicKey: state.SendingRatchetPublic,
		PreviousChainLength:    state.PN,
		MessageIndex:           state.Ns,
	}

	nonceAlgo := crypto.Algorithm(algo)
	nonce, err := crypto.NewNonce(nonceAlgo)
	if err != nil {
		return Sealed{}, err
	}
	ad := associatedData(state.AssociatedData, header)
	cipher, err := crypto.Seal(nonceAlgo, messageKey[:], nonce, plaintext, ad)
	crypto.Wipe(messageKey[:])
	if err != nil {
		return Sealed{}, err
	}

	state.SendingChainKey = &nextChain
	state.Ns++
	if state.State == domain.StateUninitialized {
		state.State = domain.StateInitiatorOnly
	}

	return Sealed{Header: header, Algorithm: algo, Nonce: nonce, Cipher: cipher}, nil
}

// Decrypt opens a sealed envelope against state, handling skipped-key
// lookup, inbound DH ratchet steps, and in-chain advancement (§4.4).
//
// A header's dh_public is attacker-controlled until the AEAD open below
// succeeds, so every ratchet-step output (root/chain keys, remote public,
// PN/Ns/Nr, the skipped-key cache) is staged against a scratch copy of
// state and only committed once crypto.Open confirms the envelope is
// genuine (§4.4 step 6, §7: a forged header must leave state unadvanced).
func Decrypt(state *domain.RatchetState, sealed Sealed) ([]byte, error) {
	if state.State == domain.StateTerminated {
		return nil, qiyaserr.ErrInternalInvariant
	}

	header := sealed.Header
	ad := associatedData(state.AssociatedData, header)

	skipID := domain.SkippedKeyID{
		DiffieHellmanPublicKey: header.DiffieHellmanPublicKey,
		MessageIndex:           header.MessageIndex,
	}
	if mk, ok := state.Skipped[skipID]; ok {
		pt, err := crypto.Open(crypto.Algorithm(sealed.Algorithm), mk[:], sealed.Nonce, sealed.Cipher, ad)
		crypto.Wipe(mk[:])
		if err != nil {
			return nil, err
		}
		delete(state.Skipped, skipID)
		state.State = domain.StateEstablished
		return pt, nil
	}

	next := *state
	next.Skipped = cloneSkipped(state.Skipped)
	evictionsBefore := state.SkippedEvictions

	isNewRatchetKey := state.RemoteRatchetPublic == nil || header.DiffieHellmanPublicKey != *state.RemoteRatchetPublic
	if isNewRatchetKey {
		if err := skipTo(&next, header.PreviousChainLength); err != nil {
			return nil, err
		}

		dh1, err := crypto.DH(next.SendingRatchetPrivate, header.DiffieHellmanPublicKey)
		if err != nil {
			return nil, err
		}
		newRoot, receivingChain, err := rootRatchet(next.RootKey, dh1)
		crypto.Wipe(dh1[:])
		if err != nil {
			return nil, err
		}

		newPriv, newPub, err := crypto.GenerateX25519()
		if err != nil {
			return nil, err
		}
		dh2, err := crypto.DH(newPriv, header.DiffieHellmanPublicKey)
		if err != nil {
			return nil, err
		}
		refreshedRoot, sendingChain, err := rootRatchet(newRoot, dh2)
		crypto.Wipe(dh2[:])
		if err != nil {
			return nil, err
		}

		remote := header.DiffieHellmanPublicKey
		next.PN = next.Ns
		next.Ns = 0
		next.Nr = 0
		next.RootKey = refreshedRoot
		next.SendingRatchetPrivate = newPriv
		next.SendingRatchetPublic = newPub
		next.RemoteRatchetPublic = &remote
		next.ReceivingChainKey = &receivingChain
		next.SendingChainKey = &sendingChain
	} else if header.MessageIndex < next.Nr {
		return nil, qiyaserr.ErrChainOrdering
	}

	if header.MessageIndex > next.Nr {
		if err := skipTo(&next, header.MessageIndex); err != nil {
			return nil, err
		}
	}

	if next.ReceivingChainKey == nil {
		return nil, qiyaserr.ErrInternalInvariant
	}

	nextChain, messageKey := chainRatchet(*next.ReceivingChainKey)
	pt, err := crypto.Open(crypto.Algorithm(sealed.Algorithm), messageKey[:], sealed.Nonce, sealed.Cipher, ad)
	crypto.Wipe(messageKey[:])
	if err != nil {
		return nil, err
	}

	next.ReceivingChainKey = &nextChain
	next.Nr = header.MessageIndex + 1
	next.State = domain.StateEstablished
	*state = next

	if evicted := state.SkippedEvictions - evictionsBefore; evicted > 0 {
		metrics.SkippedKeyEvictionsTotal.Add(float64(evicted))
	}
	return pt, nil
}

func cloneSkipped(m map[domain.SkippedKeyID]domain.MessageKey) map[domain.SkippedKeyID]domain.MessageKey {
	out := make(map[domain.SkippedKeyID]domain.MessageKey, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func associatedData(sessionAD [64]byte, header domain.RatchetHeader) []byte {
	ad := make([]byte, 0, 64+40)
	ad = append(ad, sessionAD[:]...)
	ad = append(ad, header.Canonical()...)
	return ad
}

func rootRatchet(root [32]byte, dh [32]byte) (newRoot [32]byte, chainKey [32]byte, err error) {
	out, err := crypto.HKDFSHA512(root[:], dh[:], []byte(rootKDFInfo), 64)
	if err != nil {
		return newRoot, chainKey, err
	}
	copy(newRoot[:], out[:32])
	copy(chainKey[:], out[32:64])
	return newRoot, chainKey, nil
}

func chainRatchet(chainKey [32]byte) (nextChain [32]byte, messageKey domain.MessageKey) {
	mk := crypto.HMACSHA256(chainKey[:], 0x01)
	nc := crypto.HMACSHA256(chainKey[:], 0x02)
	copy(nextChain[:], nc)
	copy(messageKey[:], mk)
	return nextChain, messageKey
}

// skipTo derives and caches receiving-chain keys from the current Nr up to
// (not including) upTo, used both before a DH ratchet replaces the
// receiving chain (against PN) and within the current chain (against N)
// (§4.4 steps 2a/3). A single jump of more than MaxSkip keys is rejected
// outright as a too-large request (e.g. a forged PN/N); once past that
// guard, genuine incremental growth of the cache across separate calls is
// handled by evictIfOverCap trimming the oldest entry instead of failing.
func skipTo(state *domain.RatchetState, upTo uint32) error {
	if state.ReceivingChainKey == nil {
		return nil
	}
	if upTo > state.Nr && upTo-state.Nr > uint32(MaxSkip) {
		return qiyaserr.ErrTooManySkippedKeys
	}
	remote := domain.X25519Public{}
	if state.RemoteRatchetPublic != nil {
		remote = *state.RemoteRatchetPublic
	}
	for state.Nr < upTo {
		nextChain, messageKey := chainRatchet(*state.ReceivingChainKey)
		id := domain.SkippedKeyID{DiffieHellmanPublicKey: remote, MessageIndex: state.Nr}
		state.Skipped[id] = messageKey
		state.ReceivingChainKey = &nextChain
		state.Nr++
		evictIfOverCap(state)
	}
	return nil
}

// evictIfOverCap silently drops the lowest (dh_public, N) skipped entry once
// the cache exceeds MaxSkip, bumping the observable eviction counter (§4.4
// skipped-key eviction). Emitting the Prometheus counter is the caller's
// responsibility once the surrounding Decrypt call actually commits.
func evictIfOverCap(state *domain.RatchetState) {
	if len(state.Skipped) <= MaxSkip {
		return
	}
	var lowest domain.SkippedKeyID
	first := true
	for id := range state.Skipped {
		if first || lessSkipID(id, lowest) {
			lowest = id
			first = false
		}
	}
	if !first {
		delete(state.Skipped, lowest)
		state.SkippedEvictions++
	}
}

func lessSkipID(a, b domain.SkippedKeyID) bool {
	if c := bytes.Compare(a.DiffieHellmanPublicKey[:], b.DiffieHellmanPublicKey[:]); c != 0 {
		return c < 0
	}
	return a.MessageIndex < b.MessageIndex
}
