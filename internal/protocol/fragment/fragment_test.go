package fragment_test

import (
	"bytes"
	"testing"

	"qiyas/internal/protocol/fragment"
	"qiyas/internal/qiyaserr"
)

func testMessageID() [32]byte {
	var id [32]byte
	copy(id[:], bytes.Repeat([]byte{0x42}, 32))
	return id
}

func TestFragment_AnyThreeOfFiveReconstruct(t *testing.T) {
	msg := []byte("the quick brown fox jumps over the lazy dog, repeated for padding")
	id := testMessageID()

	set, err := fragment.Split(id, msg, fragment.DefaultDataShards, fragment.DefaultParityShards, 1000)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(set.Fragments) != 5 {
		t.Fatalf("got %d fragments, want 5", len(set.Fragments))
	}

	subsets := [][]int{
		{0, 1, 2},
		{0, 1, 3},
		{0, 1, 4},
		{0, 2, 4},
		{2, 3, 4},
		{1, 3, 4},
	}
	for _, subset := range subsets {
		partial := set
		partial.Fragments = nil
		for _, idx := range subset {
			partial.Fragments = append(partial.Fragments, set.Fragments[idx])
		}
		got, err := fragment.Reconstruct(partial)
		if err != nil {
			t.Fatalf("Reconstruct(%v): %v", subset, err)
		}
		if !bytes.Equal(got, msg) {
			t.Fatalf("Reconstruct(%v) = %q, want %q", subset, got, msg)
		}
	}
}

func TestFragment_TooFewFragmentsFails(t *testing.T) {
	msg := []byte("short message")
	id := testMessageID()

	set, err := fragment.Split(id, msg, fragment.DefaultDataShards, fragment.DefaultParityShards, 1000)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	partial := set
	partial.Fragments = set.Fragments[:2]
	if _, err := fragment.Reconstruct(partial); err != qiyaserr.ErrFragmentUnreconstructible {
		t.Fatalf("want ErrFragmentUnreconstructible, got %v", err)
	}
}

func TestFragment_FragmentIDsAreDeterministicAndDistinct(t *testing.T) {
	msg := []byte("deterministic fragment identifiers")
	id := testMessageID()

	setA, err := fragment.Split(id, msg, fragment.DefaultDataShards, fragment.DefaultParityShards, 1000)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	setB, err := fragment.Split(id, msg, fragment.DefaultDataShards, fragment.DefaultParityShards, 2000)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	seen := make(map[[32]byte]bool)
	for i, f := range setA.Fragments {
		if f.FragmentID != setB.Fragments[i].FragmentID {
			t.Fatalf("fragment %d id changed across calls with different createdAt", i)
		}
		if seen[f.FragmentID] {
			t.Fatalf("duplicate fragment id at index %d", i)
		}
		seen[f.FragmentID] = true
	}
}

func TestFragment_TamperedShardFailsIntegrityTag(t *testing.T) {
	msg := []byte("integrity protected payload, long enough to span shards")
	id := testMessageID()

	set, err := fragment.Split(id, msg, fragment.DefaultDataShards, fragment.DefaultParityShards, 1000)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	set.Fragments[0].Data[0] ^= 0xFF
	if _, err := fragment.Reconstruct(set); err != qiyaserr.ErrFragmentUnreconstructible {
		t.Fatalf("want ErrFragmentUnreconstructible, got %v", err)
	}
}
