package chain_test

import (
	"bytes"
	"testing"

	"qiyas/internal/crypto"
	"qiyas/internal/domain"
	"qiyas/internal/protocol/chain"
	"qiyas/internal/qiyaserr"
)

func TestChain_AppendAndVerify(t *testing.T) {
	var rootKey [32]byte
	copy(rootKey[:], bytes.Repeat([]byte{0x07}, 32))

	c := chain.New(rootKey)
	ts := int64(1000)
	for i := 0; i < 5; i++ {
		h := crypto.SHA256([]byte{byte(i)})
		link, err := c.Append(domain.ChainLinkSent, h, ts)
		if err != nil {
			t.Fatalf("Append #%d: %v", i, err)
		}
		if link.Sequence != uint64(i+1) {
			t.Fatalf("sequence = %d, want %d", link.Sequence, i+1)
		}
		ts++
	}

	proof := c.ExportProof()
	if !chain.VerifyProof(proof) {
		t.Fatal("VerifyProof rejected a correctly built chain")
	}
}

func TestChain_TimestampRegressionIsChainOrdering(t *testing.T) {
	var rootKey [32]byte
	c := chain.New(rootKey)

	if _, err := c.Append(domain.ChainLinkSent, crypto.SHA256([]byte("a")), 100); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := c.Append(domain.ChainLinkSent, crypto.SHA256([]byte("b")), 50); err != qiyaserr.ErrChainOrdering {
		t.Fatalf("want ErrChainOrdering, got %v", err)
	}
}

func TestChain_VerifyProofRejectsTamperedLink(t *testing.T) {
	var rootKey [32]byte
	c := chain.New(rootKey)
	for i := 0; i < 3; i++ {
		if _, err := c.Append(domain.ChainLinkSent, crypto.SHA256([]byte{byte(i)}), int64(i)); err != nil {
			t.Fatalf("Append #%d: %v", i, err)
		}
	}

	proof := c.ExportProof()
	proof.Links[1].MessageHash[0] ^= 0xFF
	if chain.VerifyProof(proof) {
		t.Fatal("VerifyProof accepted a tampered link")
	}
}

func TestTimestampCommitment_Deterministic(t *testing.T) {
	var random16 [16]byte
	copy(random16[:], bytes.Repeat([]byte{0x11}, 16))

	a := chain.TimestampCommitment(12345, random16)
	b := chain.TimestampCommitment(12345, random16)
	if a != b {
		t.Fatal("TimestampCommitment is not deterministic for identical inputs")
	}

	c := chain.TimestampCommitment(12346, random16)
	if a == c {
		t.Fatal("TimestampCommitment did not change with timestamp")
	}
}
