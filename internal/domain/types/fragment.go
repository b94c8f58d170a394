package types

// Fragment is one Reed-Solomon shard of a distributed ciphertext (§3
// Fragment, §4.7 Fragmenter).
type Fragment struct {
	FragmentID  [32]byte `json:"fragment_id"`
	MessageID   [32]byte `json:"message_id"`
	Index       uint32   `json:"index"`
	Total       uint32   `json:"total"`
	Data        []byte   `json:"data"`
	IsParity    bool     `json:"is_parity"`
	ShardSize   uint32   `json:"shard_size"`
	MessageSize uint32   `json:"message_size"`
	Expiry      int64    `json:"expiry"`
	CreatedAt   int64    `json:"created_at"`
}

// FragmentSet bundles the parameters needed to reconstruct, alongside the
// fragments themselves.
type FragmentSet struct {
	MessageID     [32]byte   `json:"message_id"`
	DataShards    uint32     `json:"data_shards"`
	ParityShards  uint32     `json:"parity_shards"`
	IntegrityTag  [32]byte   `json:"integrity_tag"`
	Fragments     []Fragment `json:"fragments"`
}
