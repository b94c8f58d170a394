// Package chain implements the per-session append-only hash chain that
// binds every envelope to a provable position (§4.6 Chain State).
package chain

import (
	"encoding/binary"

	"qiyas/internal/crypto"
	"qiyas/internal/domain"
	"qiyas/internal/metrics"
	"qiyas/internal/qiyaserr"
)

const genesisDomainSeparator = "QiyasHash_v1_ChainGenesis"

// Genesis derives state_0 from the X3DH shared secret's fingerprint: the
// SHA-256 of a fixed domain-separation string concatenated with
// SHA-256(rootKey).
func Genesis(rootKey [32]byte) [32]byte {
	fingerprint := crypto.SHA256(rootKey[:])
	return crypto.SHA256([]byte(genesisDomainSeparator), fingerprint[:])
}

// Chain holds one session's in-memory hash chain, exposing append,
// verification, and export.
type Chain struct {
	Genesis [32]byte
	Links   []domain.ChainLink
}

// New starts a fresh chain for the given X3DH root key.
func New(rootKey [32]byte) *Chain {
	return &Chain{Genesis: Genesis(rootKey)}
}

// FromProof resumes a chain from a previously exported proof, so a
// persisted conversation can keep appending to its chain across process
// restarts rather than starting over from an empty one.
func FromProof(proof domain.ChainProof) *Chain {
	links := make([]domain.ChainLink, len(proof.Links))
	copy(links, proof.Links)
	return &Chain{Genesis: proof.Genesis, Links: links}
}

func (c *Chain) tipState() [32]byte {
	if len(c.Links) == 0 {
		return c.Genesis
	}
	return c.Links[len(c.Links)-1].State
}

func (c *Chain) tipSequence() uint64 {
	if len(c.Links) == 0 {
		return 0
	}
	return c.Links[len(c.Links)-1].Sequence
}

func (c *Chain) tipTimestamp() int64 {
	if len(c.Links) == 0 {
		return 0
	}
	return c.Links[len(c.Links)-1].Timestamp
}

// Append computes state_n = SHA256(state_{n-1} || message_hash_n ||
// be64(timestamp_n) || be64(sequence_n)) and adds the resulting link.
// Timestamps must be non-decreasing across the whole chain; a regression
// returns ErrChainOrdering without mutating the chain.
func (c *Chain) Append(linkType domain.ChainLinkType, messageHash [32]byte, timestamp int64) (domain.ChainLink, error) {
	if timestamp < c.tipTimestamp() {
		return domain.ChainLink{}, qiyaserr.ErrChainOrdering
	}

	sequence := c.tipSequence() + 1
	var tsBuf, seqBuf [8]byte
	binary.BigEndian.PutUint64(tsBuf[:], uint64(timestamp))
	binary.BigEndian.PutUint64(seqBuf[:], sequence)

	prev := c.tipState()
	state := crypto.SHA256(prev[:], messageHash[:], tsBuf[:], seqBuf[:])

	link := domain.ChainLink{
		Type:        linkType,
		State:       state,
		MessageHash: messageHash,
		Timestamp:   timestamp,
		Sequence:    sequence,
	}
	c.Links = append(c.Links, link)
	metrics.ChainAppendsTotal.WithLabelValues(linkTypeLabel(linkType)).Inc()
	return link, nil
}

func linkTypeLabel(t domain.ChainLinkType) string {
	if t == domain.ChainLinkReceived {
		return "received"
	}
	return "sent"
}

// ExportProof returns an independently verifiable proof of the whole chain.
func (c *Chain) ExportProof() domain.ChainProof {
	links := make([]domain.ChainLink, len(c.Links))
	copy(links, c.Links)
	return domain.ChainProof{Genesis: c.Genesis, Links: links}
}

// VerifyProof recomputes the chain from proof.Genesis through proof.Links
// and reports whether every transition is internally consistent: sequence
// numbers increase by exactly one and each state matches the recomputation
// from its predecessor.
func VerifyProof(proof domain.ChainProof) bool {
	prevState := proof.Genesis
	prevSeq := uint64(0)
	prevTimestamp := int64(0)

	for i, link := range proof.Links {
		if link.Sequence != prevSeq+1 {
			return false
		}
		if i > 0 && link.Timestamp < prevTimestamp {
			return false
		}

		var tsBuf, seqBuf [8]byte
		binary.BigEndian.PutUint64(tsBuf[:], uint64(link.Timestamp))
		binary.BigEndian.PutUint64(seqBuf[:], link.Sequence)
		want := crypto.SHA256(prevState[:], link.MessageHash[:], tsBuf[:], seqBuf[:])
		if want != link.State {
			return false
		}

		prevState = link.State
		prevSeq = link.Sequence
		prevTimestamp = link.Timestamp
	}
	return true
}

// TimestampCommitment computes SHA256("QiyasHash_Timestamp_v1" ||
// be64(timestamp) || random_16), hiding the exact wall-clock value an
// envelope carries while still binding it (§4.6).
func TimestampCommitment(timestamp int64, random16 [16]byte) [32]byte {
	var tsBuf [8]byte
	binary.BigEndian.PutUint64(tsBuf[:], uint64(timestamp))
	return crypto.SHA256([]byte("QiyasHash_Timestamp_v1"), tsBuf[:], random16[:])
}
