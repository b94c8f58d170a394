// Package fragment splits a ciphertext into Reed-Solomon shards for
// distribution across an external, unreliable transport and reconstructs it
// from any sufficient subset (§4.7 Fragmenter).
package fragment

import (
	"encoding/binary"
	"time"

	"github.com/klauspost/reedsolomon"

	"qiyas/internal/crypto"
	"qiyas/internal/domain"
	"qiyas/internal/metrics"
	"qiyas/internal/qiyaserr"
)

// DefaultDataShards and DefaultParityShards are the spec's default k=3,
// m=2 split: any 3 of the resulting 5 fragments reconstruct the message.
const (
	DefaultDataShards   = 3
	DefaultParityShards = 2
)

const fragmentTTL = 30 * 24 * time.Hour

// fragmentID computes SHA256(message_id || be32(index)), the deterministic
// identifier under which a fragment is addressed on the transport (§3).
func fragmentID(messageID [32]byte, index uint32) [32]byte {
	var idxBuf [4]byte
	binary.BigEndian.PutUint32(idxBuf[:], index)
	return crypto.SHA256(messageID[:], idxBuf[:])
}

// Split encodes plaintext into a FragmentSet using Reed-Solomon with
// dataShards data shards and parityShards parity shards, stamping every
// fragment with a 30-day expiry from now.
func Split(messageID [32]byte, data []byte, dataShards, parityShards int, now int64) (domain.FragmentSet, error) {
	enc, err := reedsolomon.New(dataShards, parityShards)
	if err != nil {
		metrics.FragmentOperationsTotal.WithLabelValues("split", "error").Inc()
		return domain.FragmentSet{}, err
	}

	shardSize := (len(data) + dataShards - 1) / dataShards
	if shardSize == 0 {
		shardSize = 1
	}
	padded := make([]byte, shardSize*dataShards)
	copy(padded, data)

	shards, err := enc.Split(padded)
	if err != nil {
		return domain.FragmentSet{}, err
	}
	if err := enc.Encode(shards); err != nil {
		return domain.FragmentSet{}, err
	}

	total := uint32(dataShards + parityShards)
	expiry := now + int64(fragmentTTL.Seconds())
	tag := crypto.SHA256(data)

	fragments := make([]domain.Fragment, 0, total)
	for i, shard := range shards {
		fragments = append(fragments, domain.Fragment{
			FragmentID:  fragmentID(messageID, uint32(i)),
			MessageID:   messageID,
			Index:       uint32(i),
			Total:       total,
			Data:        append([]byte(nil), shard...),
			IsParity:    i >= dataShards,
			ShardSize:   uint32(shardSize),
			MessageSize: uint32(len(data)),
			Expiry:      expiry,
			CreatedAt:   now,
		})
	}

	metrics.FragmentOperationsTotal.WithLabelValues("split", "ok").Inc()
	return domain.FragmentSet{
		MessageID:    messageID,
		DataShards:   uint32(dataShards),
		ParityShards: uint32(parityShards),
		IntegrityTag: tag,
		Fragments:    fragments,
	}, nil
}

// Reconstruct rebuilds the original plaintext from any k = set.DataShards
// fragments with distinct indices out of the n = DataShards+ParityShards
// that Split produced. It returns ErrFragmentUnreconstructible if too few
// fragments are available or the result fails its integrity tag.
func Reconstruct(set domain.FragmentSet) ([]byte, error) {
	dataShards := int(set.DataShards)
	parityShards := int(set.ParityShards)
	total := dataShards + parityShards

	present := 0
	shards := make([][]byte, total)
	var shardSize, messageSize uint32
	for _, f := range set.Fragments {
		if int(f.Index) >= total {
			continue
		}
		shards[f.Index] = f.Data
		shardSize = f.ShardSize
		messageSize = f.MessageSize
		present++
	}
	if present < dataShards {
		metrics.FragmentOperationsTotal.WithLabelValues("reconstruct", "unreconstructible").Inc()
		return nil, qiyaserr.ErrFragmentUnreconstructible
	}

	enc, err := reedsolomon.New(dataShards, parityShards)
	if err != nil {
		return nil, err
	}
	if err := enc.Reconstruct(shards); err != nil {
		metrics.FragmentOperationsTotal.WithLabelValues("reconstruct", "unreconstructible").Inc()
		return nil, qiyaserr.ErrFragmentUnreconstructible
	}

	out := make([]byte, 0, int(shardSize)*dataShards)
	for i := 0; i < dataShards; i++ {
		out = append(out, shards[i]...)
	}
	if uint32(len(out)) < messageSize {
		return nil, qiyaserr.ErrFragmentUnreconstructible
	}
	out = out[:messageSize]

	if crypto.SHA256(out) != set.IntegrityTag {
		metrics.FragmentOperationsTotal.WithLabelValues("reconstruct", "unreconstructible").Inc()
		return nil, qiyaserr.ErrFragmentUnreconstructible
	}
	metrics.FragmentOperationsTotal.WithLabelValues("reconstruct", "ok").Inc()
	return out, nil
}
