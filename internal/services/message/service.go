// Package message sends and receives envelopes over the relay using X3DH
// bootstrap plus Double Ratchet, binding every envelope into the session's
// append-only hash chain.
package message

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/url"
	"time"

	"qiyas/internal/crypto"
	"qiyas/internal/domain"
	"qiyas/internal/metrics"
	"qiyas/internal/protocol/chain"
	"qiyas/internal/protocol/ratchet"
	"qiyas/internal/protocol/x3dh"
	"qiyas/internal/qiyaserr"
)

// Service sends and receives messages over the relay using Double Ratchet.
//
// High-level flow:
//   - Send: if no conversation exists yet, attach a PreKeyMessage so the
//     receiver can bootstrap a session, then seal with Double Ratchet,
//     append the send-side chain link, and post via the relay.
//   - Receive: fetch envelopes, bootstrap a session if needed from the
//     sender's PreKeyMessage, decrypt in order, append the receive-side
//     chain link, persist, then ack processed messages.
type Service struct {
	idStore        domain.IdentityStore
	prekeyStore    domain.PreKeyStore
	ratchetStore   domain.RatchetStore
	sessionService domain.SessionService
	relayClient    domain.RelayClient
	accountStore   domain.AccountStore
	serverURL      *url.URL
	algorithm      domain.AEADAlgorithm
}

// ErrNoSession indicates there is no stored session with the peer.
var ErrNoSession = errors.New("no session with peer; run Initiate first")

// New constructs a Message Service with the given stores and relay client.
// algorithm selects the AEAD used for newly sealed envelopes; callers
// typically pass domain.AEADXChaCha20.
func New(
	idStore domain.IdentityStore,
	prekeyStore domain.PreKeyStore,
	ratchetStore domain.RatchetStore,
	sessionService domain.SessionService,
	relayClient domain.RelayClient,
	accountStore domain.AccountStore,
	serverURL string,
	algorithm domain.AEADAlgorithm,
) *Service {
	var parsed *url.URL
	if serverURL != "" {
		if u, err := url.Parse(serverURL); err == nil && u.Scheme != "" && u.Host != "" {
			parsed = u
		}
	}

	return &Service{
		idStore:        idStore,
		prekeyStore:    prekeyStore,
		ratchetStore:   ratchetStore,
		sessionService: sessionService,
		relayClient:    relayClient,
		accountStore:   accountStore,
		serverURL:      parsed,
		algorithm:      algorithm,
	}
}

// SendMessage encrypts and posts plaintext to toUsername.
//
// If this is the first message to the peer (no stored conversation), a
// PreKeyMessage is attached so the receiver can establish a Double Ratchet
// session via X3DH. Subsequent messages omit PreKey and reuse the existing
// ratchet and chain state.
func (s *Service) SendMessage(
	ctx context.Context,
	passphrase string,
	fromUsername domain.Username,
	toUsername domain.Username,
	plaintext []byte,
) error {
	if s.serverURL == nil {
		return fmt.Errorf("relay URL is not configured or invalid")
	}

	serverKey := s.serverURL.String()
	profile, found, err := s.accountStore.LoadAccountProfile(serverKey, fromUsername)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no account profile for %s on %s; run register", fromUsername, serverKey)
	}

	serverCanary, err := s.relayClient.FetchAccountCanary(ctx, fromUsername)
	if err != nil {
		return fmt.Errorf("fetching account canary: %w", err)
	}
	if serverCanary != profile.Canary {
		return fmt.Errorf("relay canary mismatch: expected %s got %s", profile.Canary, serverCanary)
	}

	session, hasSession, err := s.sessionService.GetSession(toUsername)
	if err != nil {
		return err
	}
	if !hasSession {
		return ErrNoSession
	}

	conversationID := domain.ConversationID(toUsername.String())
	conversation, found, err := s.ratchetStore.LoadConversation(conversationID)
	if err != nil {
		return err
	}

	var preKeyMessage *domain.PreKeyMessage
	var sessionChain *chain.Chain

	if !found {
		// No existing conversation: we are the initiator. Build a fresh
		// Double Ratchet state and attach a PreKeyMessage so the receiver
		// can derive the same root key via X3DH and bootstrap in turn.
		identity, err := s.idStore.LoadIdentity(passphrase)
		if err != nil {
			return err
		}
		ratchetState, err := ratchet.NewInitiatorState(session.RootKey, session.AssociatedData, session.PeerSignedPreKey)
		if err != nil {
			return err
		}
		conversation = domain.Conversation{Peer: conversationID, State: ratchetState}
		sessionChain = chain.New(session.RootKey)

		preKeyMessage = &domain.PreKeyMessage{
			InitiatorIdentityKey: identity.EdPub,
			EphemeralKey:         session.InitiatorEphemeralKey,
			SignedPreKeyID:       session.SignedPreKeyID,
			OneTimePreKeyID:      session.OneTimePreKeyID,
		}
	} else {
		sessionChain = chain.FromProof(conversation.Chain)
	}

	sealed, err := ratchet.Encrypt(&conversation.State, s.algorithm, plaintext)
	if err != nil {
		return err
	}

	now := time.Now().Unix()
	messageHash := crypto.SHA256(sealed.Cipher)
	link, err := sessionChain.Append(domain.ChainLinkSent, messageHash, now)
	if err != nil {
		return fmt.Errorf("chain append: %w", err)
	}

	var random16 [16]byte
	if _, err := rand.Read(random16[:]); err != nil {
		return err
	}

	conversation.Chain = sessionChain.ExportProof()

	// Persist updated ratchet and chain state before sending, so a crash
	// after this point never leaves us unable to decrypt our own replies.
	if err := s.ratchetStore.SaveConversation(conversationID, conversation); err != nil {
		return err
	}

	envelope := domain.Envelope{
		From:                fromUsername,
		To:                  toUsername,
		Header:              sealed.Header,
		Algorithm:           sealed.Algorithm,
		Nonce:               sealed.Nonce,
		Cipher:              sealed.Cipher,
		PreKey:              preKeyMessage,
		ChainProofAnchor:    link.State,
		TimestampCommitment: chain.TimestampCommitment(now, random16),
		Timestamp:           now,
	}
	return s.relayClient.SendMessage(ctx, envelope)
}

// ReceiveMessage fetches pending envelopes and decrypts them in order.
//
// For the first message from a peer, it expects a PreKeyMessage to
// bootstrap X3DH and initialize the Double Ratchet. If bootstrapping
// prerequisites are not met, processing stops and the remaining envelopes
// are left queued on the relay.
//
// Only the envelopes actually processed are acknowledged, so a mid-stream
// decrypt failure never causes an unprocessed envelope to be dropped.
func (s *Service) ReceiveMessage(
	ctx context.Context,
	passphrase string,
	me domain.Username,
	limit int,
) ([]domain.DecryptedMessage, error) {
	envelopes, err := s.relayClient.FetchMessages(ctx, me, limit)
	if err != nil {
		return nil, err
	}
	decrypted := make([]domain.DecryptedMessage, 0, len(envelopes))
	processed := 0

	for index, envelope := range envelopes {
		conversationID := domain.ConversationID(envelope.From.String())
		conversation, found, err := s.ratchetStore.LoadConversation(conversationID)
		if err != nil {
			return decrypted, err
		}

		var sessionChain *chain.Chain
		if !found {
			if envelope.PreKey == nil {
				break // leave the rest queued
			}
			identity, err := s.idStore.LoadIdentity(passphrase)
			if err != nil {
				return decrypted, err
			}

			signedPreKeyPrivateKey, signedPreKeyPublicKey, _, signedPreKeyFound, err := s.prekeyStore.LoadSignedPreKey(
				envelope.PreKey.SignedPreKeyID,
			)
			if err != nil {
				return decrypted, err
			}
			if !signedPreKeyFound {
				return decrypted, fmt.Errorf("signed pre-key %d not found", envelope.PreKey.SignedPreKeyID)
			}

			var oneTimePreKeyPrivateKey *domain.X25519Private
			if envelope.PreKey.UsesOneTimePreKey() {
				privateKey, _, oneTimePreKeyFound, err := s.prekeyStore.ConsumeOneTimePreKey(envelope.PreKey.OneTimePreKeyID)
				if err != nil {
					return decrypted, err
				}
				if !oneTimePreKeyFound {
					metrics.HandshakesTotal.WithLabelValues("replayed_one_time_key").Inc()
					return decrypted, qiyaserr.ErrReplayedOneTimeKey
				}
				oneTimePreKeyPrivateKey = &privateKey
			}

			result, err := x3dh.ReceiveSession(identity, signedPreKeyPrivateKey, oneTimePreKeyPrivateKey, *envelope.PreKey)
			if err != nil {
				return decrypted, fmt.Errorf("x3dh receive session: %w", err)
			}

			ratchetState := ratchet.NewResponderState(
				result.RootKey,
				result.AssociatedData,
				signedPreKeyPrivateKey,
				signedPreKeyPublicKey,
			)
			conversation = domain.Conversation{Peer: conversationID, State: ratchetState}
			sessionChain = chain.New(result.RootKey)
		} else {
			if envelope.PreKey != nil {
				return decrypted, fmt.Errorf("unexpected pre-key message from %q", envelope.From)
			}
			sessionChain = chain.FromProof(conversation.Chain)
		}

		sealed := ratchet.Sealed{
			Header:    envelope.Header,
			Algorithm: envelope.Algorithm,
			Nonce:     envelope.Nonce,
			Cipher:    envelope.Cipher,
		}
		plaintext, err := ratchet.Decrypt(&conversation.State, sealed)
		if err != nil {
			return decrypted, fmt.Errorf("decrypt from %q failed: %w", envelope.From, err)
		}

		messageHash := crypto.SHA256(envelope.Cipher)
		if _, err := sessionChain.Append(domain.ChainLinkReceived, messageHash, envelope.Timestamp); err != nil {
			return decrypted, fmt.Errorf("chain append from %q: %w", envelope.From, err)
		}
		conversation.Chain = sessionChain.ExportProof()

		if err := s.ratchetStore.SaveConversation(conversationID, conversation); err != nil {
			return decrypted, fmt.Errorf("save conversation %q: %w", envelope.From, err)
		}

		decrypted = append(decrypted, domain.DecryptedMessage{
			From:      envelope.From,
			To:        envelope.To,
			Plaintext: plaintext,
			Timestamp: envelope.Timestamp,
		})
		processed = index + 1
	}

	if processed > 0 {
		if err := s.relayClient.AckMessages(ctx, me, processed); err != nil {
			return decrypted, fmt.Errorf("ack %d messages: %w", processed, err)
		}
	}
	return decrypted, nil
}

// Compile-time assertion that Service implements domain.MessageService.
var _ domain.MessageService = (*Service)(nil)
