// Package transport provides reference implementations of the narrow
// Transport and Directory collaborators the protocol core treats as
// external (§6): a Redis-backed fragment store, standing in for whatever
// DHT or blob store a deployment actually uses, and an HTTP-backed
// directory for resolving a fingerprint to its published bundle.
package transport

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"qiyas/internal/domain"
)

// RedisTransport stores and retrieves fragments keyed by their deterministic
// fragment ID, using Redis's own TTL as the expiry mechanism rather than a
// side channel, so an expired fragment simply disappears on read.
type RedisTransport struct {
	client *redis.Client
	prefix string
}

// NewRedisTransport wraps client, namespacing all keys under prefix.
func NewRedisTransport(client *redis.Client, prefix string) *RedisTransport {
	return &RedisTransport{client: client, prefix: prefix}
}

func (t *RedisTransport) key(fragmentID [32]byte) string {
	return fmt.Sprintf("%s:fragment:%s", t.prefix, hex.EncodeToString(fragmentID[:]))
}

// Put stores data under fragmentID with a TTL derived from expiry, a Unix
// timestamp. The core never retries internally (§6), so a transient Redis
// error is simply returned to the caller.
func (t *RedisTransport) Put(ctx context.Context, fragmentID [32]byte, data []byte, expiry int64) error {
	ttl := time.Until(time.Unix(expiry, 0))
	if ttl <= 0 {
		ttl = time.Second
	}
	return t.client.Set(ctx, t.key(fragmentID), data, ttl).Err()
}

// Get returns the fragment bytes, or ok=false if absent or expired.
func (t *RedisTransport) Get(ctx context.Context, fragmentID [32]byte) ([]byte, bool, error) {
	data, err := t.client.Get(ctx, t.key(fragmentID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

var _ domain.Transport = (*RedisTransport)(nil)
